/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package resource stores the offerings and balances a PFI publishes.
package resource

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TBD54566975/tbdex-go/pkg/common/log"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/resource"
	"github.com/TBD54566975/tbdex-go/pkg/tbdex/tbdexerr"
	"github.com/TBD54566975/tbdex-go/spi/storage"
)

const (
	// NameSpace for resource store.
	NameSpace = "resources"

	kindTag  = "kind"
	ownerTag = "owner"
)

var logger = log.New("tbdex/store/resource")

// Store stores signed resources.
type Store struct {
	store storage.Store
}

// New returns a new resource store.
func New(provider storage.Provider) (*Store, error) {
	store, err := provider.OpenStore(NameSpace)
	if err != nil {
		return nil, fmt.Errorf("failed to open resource store: %w", err)
	}

	return &Store{store: store}, nil
}

// PutOffering saves an offering, replacing any offering with the same id.
func (s *Store) PutOffering(offering *resource.Offering) error {
	return s.put(offering.Metadata.ID, offering, storage.Tag{Name: kindTag, Value: string(resource.KindOffering)})
}

// Offering returns the offering with the id.
func (s *Store) Offering(id string) (*resource.Offering, error) {
	raw, err := s.get(id)
	if err != nil {
		return nil, err
	}

	return resource.ParseOffering(raw)
}

// Offerings returns every offering, ordered by id.
func (s *Store) Offerings() ([]*resource.Offering, error) {
	var offerings []*resource.Offering

	err := s.query(kindTag+":"+string(resource.KindOffering), func(raw []byte) error {
		offering, err := resource.ParseOffering(raw)
		if err != nil {
			return err
		}

		offerings = append(offerings, offering)

		return nil
	})

	return offerings, err
}

// PutBalance saves a balance held by owner.
func (s *Store) PutBalance(owner string, balance *resource.Balance) error {
	return s.put(balance.Metadata.ID, balance,
		storage.Tag{Name: kindTag, Value: string(resource.KindBalance)},
		storage.Tag{Name: ownerTag, Value: owner},
	)
}

// Balances returns the balances held by owner.
func (s *Store) Balances(owner string) ([]*resource.Balance, error) {
	var balances []*resource.Balance

	err := s.query(ownerTag+":"+owner, func(raw []byte) error {
		balance, err := resource.ParseBalance(raw)
		if err != nil {
			return err
		}

		balances = append(balances, balance)

		return nil
	})

	return balances, err
}

func (s *Store) put(id string, r resource.Resource, tags ...storage.Tag) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", r.GetMetadata().Kind, err)
	}

	err = s.store.Put(id, raw, tags...)
	if err != nil {
		return fmt.Errorf("failed to put %s %s: %w", r.GetMetadata().Kind, id, err)
	}

	return nil
}

func (s *Store) get(id string) ([]byte, error) {
	raw, err := s.store.Get(id)
	if errors.Is(err, storage.ErrDataNotFound) {
		return nil, tbdexerr.New(tbdexerr.NotFound, "resource %s not found", id)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get resource %s: %w", id, err)
	}

	return raw, nil
}

func (s *Store) query(expression string, fn func(raw []byte) error) error {
	itr, err := s.store.Query(expression)
	if err != nil {
		return fmt.Errorf("query resources: %w", err)
	}

	defer storage.Close(itr, logger)

	for {
		more, err := itr.Next()
		if err != nil {
			return fmt.Errorf("query resources: %w", err)
		}

		if !more {
			return nil
		}

		raw, err := itr.Value()
		if err != nil {
			return fmt.Errorf("query resources: %w", err)
		}

		err = fn(raw)
		if err != nil {
			return err
		}
	}
}
