/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

import (
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
)

// State names.
const (
	StateAwaitingQuote      = "AwaitingQuote"
	StateQuoted             = "Quoted"
	StateOrderPlaced        = "OrderPlaced"
	StateAwaitingSettlement = "AwaitingSettlement"
	StateCancelled          = "Cancelled"
	StateClosed             = "Closed"

	// before the rfq arrives.
	stateNameStart = "start"
)

// the exchange state.
type state interface {
	// Name of this state.
	Name() string
	// Whether a message of the kind is accepted in this state.
	Accepts(kind message.Kind) bool
}

// start state.
type start struct{}

func (s *start) Name() string {
	return stateNameStart
}

func (s *start) Accepts(kind message.Kind) bool {
	return kind == message.KindRFQ
}

// awaitingQuote state.
type awaitingQuote struct{}

func (s *awaitingQuote) Name() string {
	return StateAwaitingQuote
}

func (s *awaitingQuote) Accepts(kind message.Kind) bool {
	return kind == message.KindQuote || kind == message.KindCancel
}

// quoted state.
type quoted struct{}

func (s *quoted) Name() string {
	return StateQuoted
}

func (s *quoted) Accepts(kind message.Kind) bool {
	return kind == message.KindOrder || kind == message.KindCancel
}

// orderPlaced state.
type orderPlaced struct{}

func (s *orderPlaced) Name() string {
	return StateOrderPlaced
}

func (s *orderPlaced) Accepts(kind message.Kind) bool {
	return kind == message.KindOrderInstructions
}

// awaitingSettlement state. Order statuses keep the exchange here.
type awaitingSettlement struct{}

func (s *awaitingSettlement) Name() string {
	return StateAwaitingSettlement
}

func (s *awaitingSettlement) Accepts(kind message.Kind) bool {
	return kind == message.KindOrderStatus || kind == message.KindClose
}

// cancelled state.
type cancelled struct{}

func (s *cancelled) Name() string {
	return StateCancelled
}

func (s *cancelled) Accepts(kind message.Kind) bool {
	return kind == message.KindClose
}

// closed state.
type closed struct{}

func (s *closed) Name() string {
	return StateClosed
}

func (s *closed) Accepts(_ message.Kind) bool {
	return false
}

func stateFromName(name string) state {
	switch name {
	case stateNameStart, "":
		return &start{}
	case StateAwaitingQuote:
		return &awaitingQuote{}
	case StateQuoted:
		return &quoted{}
	case StateOrderPlaced:
		return &orderPlaced{}
	case StateAwaitingSettlement:
		return &awaitingSettlement{}
	case StateCancelled:
		return &cancelled{}
	case StateClosed:
		return &closed{}
	default:
		return &closed{}
	}
}

// nextState is the state a message of kind moves the exchange into, nil for unknown kinds.
func nextState(kind message.Kind) state {
	switch kind {
	case message.KindRFQ:
		return &awaitingQuote{}
	case message.KindQuote:
		return &quoted{}
	case message.KindOrder:
		return &orderPlaced{}
	case message.KindOrderInstructions, message.KindOrderStatus:
		return &awaitingSettlement{}
	case message.KindCancel:
		return &cancelled{}
	case message.KindClose:
		return &closed{}
	default:
		return nil
	}
}
