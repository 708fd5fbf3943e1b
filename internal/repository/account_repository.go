package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shinyyama/carbon-credit-backend/internal/model"
)

const accountKeyPrefix = "carbonBalance:"

type AccountRepository interface {
	Get(ctx context.Context, uid string) (*model.Account, error)
	Mutate(ctx context.Context, uid string, fn func(*model.Account) error) (*model.Account, error)
}

type accountRepository struct {
	kv KVStore
}

func NewAccountRepository(kv KVStore) AccountRepository {
	return &accountRepository{kv: kv}
}

// Get returns an empty account for users that have never been written.
func (r *accountRepository) Get(ctx context.Context, uid string) (*model.Account, error) {
	raw, err := r.kv.Get(ctx, accountKeyPrefix+uid)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return &model.Account{UserID: uid, History: []model.CreditEntry{}}, nil
		}
		return nil, err
	}
	return decodeAccount(uid, raw)
}

// Mutate applies fn to the stored account and returns the state that was written.
func (r *accountRepository) Mutate(ctx context.Context, uid string, fn func(*model.Account) error) (*model.Account, error) {
	var written *model.Account
	err := r.kv.Update(ctx, accountKeyPrefix+uid, func(current []byte, found bool) ([]byte, error) {
		acc := &model.Account{UserID: uid, History: []model.CreditEntry{}}
		if found {
			var err error
			if acc, err = decodeAccount(uid, current); err != nil {
				return nil, err
			}
		}
		if err := fn(acc); err != nil {
			return nil, err
		}
		acc.UpdatedAt = time.Now().UTC()
		written = acc
		return json.Marshal(acc)
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}

func decodeAccount(uid string, raw []byte) (*model.Account, error) {
	var acc model.Account
	if err := json.Unmarshal(raw, &acc); err != nil {
		return nil, fmt.Errorf("decode %s%s: %w", accountKeyPrefix, uid, err)
	}
	acc.UserID = uid
	if acc.History == nil {
		acc.History = []model.CreditEntry{}
	}
	return &acc, nil
}
