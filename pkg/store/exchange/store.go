/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package exchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/TBD54566975/tbdex-go/pkg/common/log"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/exchange"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/message"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
	"github.com/TBD54566975/tbdex-go/spi/storage"
)

const (
	// NameSpace for exchange store.
	NameSpace = "exchanges"

	participantTag = "participant"
	lockStripes    = 64
)

var logger = log.New("tbdex/store/exchange")

// record is the persisted form of an exchange: its messages in canonical order.
type record struct {
	Messages []json.RawMessage `json:"messages"`
	ReplyTo  string            `json:"replyTo,omitempty"`
}

// Store is the registry of exchanges. Messages for one exchange id are applied one at a time;
// different exchanges proceed in parallel.
type Store struct {
	store     storage.Store
	stripes   [lockStripes]sync.Mutex
	applyOpts []exchange.ApplyOption
}

// Option configures the Store.
type Option func(s *Store)

// WithApplyOptions passes options to every transition.
func WithApplyOptions(opts ...exchange.ApplyOption) Option {
	return func(s *Store) {
		s.applyOpts = append(s.applyOpts, opts...)
	}
}

// New returns a new exchange store.
func New(provider storage.Provider, opts ...Option) (*Store, error) {
	store, err := provider.OpenStore(NameSpace)
	if err != nil {
		return nil, fmt.Errorf("failed to open exchange store: %w", err)
	}

	s := &Store{store: store}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Store) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))

	mu := &s.stripes[h.Sum32()%lockStripes]
	mu.Lock()

	return mu.Unlock
}

// Submit applies msg to its exchange and persists the result. An rfq opens a new exchange and may carry
// the reply-to URL later messages are delivered to. A rejected message leaves the stored exchange as it was.
// The bool result is false when msg was already recorded.
func (s *Store) Submit(msg message.Message, replyTo string) (*exchange.Exchange, bool, error) {
	id := msg.GetMetadata().ExchangeID

	unlock := s.lock(id)
	defer unlock()

	current, rec, err := s.load(id)
	if errors.Is(err, tbdexerr.ErrNotFound) && msg.GetMetadata().Kind != message.KindRFQ {
		return nil, false, err
	}

	if err != nil && !errors.Is(err, tbdexerr.ErrNotFound) {
		return nil, false, err
	}

	next, err := exchange.Apply(current, msg, s.applyOpts...)
	if err != nil {
		return nil, false, err
	}

	if next == current {
		return current, false, nil
	}

	if msg.GetMetadata().Kind == message.KindRFQ {
		rec.ReplyTo = replyTo
	}

	err = s.save(next, rec.ReplyTo)
	if err != nil {
		return nil, false, err
	}

	logger.Debugf("exchange %s: accepted %s, now %s", id, msg.GetMetadata().Kind, next.State)

	return next, true, nil
}

// Get returns the exchange with the id. A missing exchange is a tbdexerr.NotFound error.
func (s *Store) Get(id string) (*exchange.Exchange, error) {
	ex, _, err := s.load(id)

	return ex, err
}

// ReplyTo returns the reply-to URL recorded with the rfq of the exchange, empty if there is none.
func (s *Store) ReplyTo(id string) (string, error) {
	_, rec, err := s.load(id)

	return rec.ReplyTo, err
}

// List returns the ids of the exchanges the DID takes part in, as customer or PFI.
func (s *Store) List(participant string) ([]string, error) {
	itr, err := s.store.Query(participantTag + ":" + participant)
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}

	defer storage.Close(itr, logger)

	var ids []string

	more, err := itr.Next()
	if err != nil {
		return nil, fmt.Errorf("query exchanges: %w", err)
	}

	for more {
		id, err := itr.Key()
		if err != nil {
			return nil, fmt.Errorf("query exchanges: %w", err)
		}

		ids = append(ids, id)

		more, err = itr.Next()
		if err != nil {
			return nil, fmt.Errorf("query exchanges: %w", err)
		}
	}

	return ids, nil
}

func (s *Store) load(id string) (*exchange.Exchange, record, error) {
	var rec record

	raw, err := s.store.Get(id)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, rec, tbdexerr.New(tbdexerr.NotFound, "exchange %s not found", id)
	}

	if err != nil {
		return nil, rec, fmt.Errorf("failed to get exchange %s: %w", id, err)
	}

	err = json.Unmarshal(raw, &rec)
	if err != nil {
		return nil, rec, fmt.Errorf("unmarshal exchange %s: %w", id, err)
	}

	msgs := make([]message.Message, 0, len(rec.Messages))

	for _, m := range rec.Messages {
		msg, err := message.Parse(m)
		if err != nil {
			return nil, rec, fmt.Errorf("stored exchange %s: %w", id, err)
		}

		msgs = append(msgs, msg)
	}

	ex, err := exchange.Replay(msgs)
	if err != nil {
		return nil, rec, fmt.Errorf("replay exchange %s: %w", id, err)
	}

	return ex, rec, nil
}

func (s *Store) save(ex *exchange.Exchange, replyTo string) error {
	rec := record{ReplyTo: replyTo}

	for _, msg := range ex.Messages() {
		raw, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", msg.GetMetadata().Kind, err)
		}

		rec.Messages = append(rec.Messages, raw)
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal exchange %s: %w", ex.ID, err)
	}

	err = s.store.Put(ex.ID, raw,
		storage.Tag{Name: participantTag, Value: ex.Customer},
		storage.Tag{Name: participantTag, Value: ex.PFI},
	)
	if err != nil {
		return fmt.Errorf("failed to put exchange %s: %w", ex.ID, err)
	}

	return nil
}
