package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shinyyama/carbon-credit-backend/internal/model"
)

const certificatesKey = "certificates"

// CertificateRepository stores every certificate as a single list, newest
// first. Each mutation reads the whole list and writes it back in one step.
type CertificateRepository interface {
	List(ctx context.Context) ([]model.Certificate, error)
	Mutate(ctx context.Context, fn func([]model.Certificate) ([]model.Certificate, error)) error
}

type certificateRepository struct {
	kv KVStore
}

func NewCertificateRepository(kv KVStore) CertificateRepository {
	return &certificateRepository{kv: kv}
}

func (r *certificateRepository) List(ctx context.Context) ([]model.Certificate, error) {
	raw, err := r.kv.Get(ctx, certificatesKey)
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return []model.Certificate{}, nil
		}
		return nil, err
	}
	return decodeCertificates(raw)
}

func (r *certificateRepository) Mutate(ctx context.Context, fn func([]model.Certificate) ([]model.Certificate, error)) error {
	return r.kv.Update(ctx, certificatesKey, func(current []byte, found bool) ([]byte, error) {
		list := []model.Certificate{}
		if found {
			var err error
			if list, err = decodeCertificates(current); err != nil {
				return nil, err
			}
		}
		next, err := fn(list)
		if err != nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}

func decodeCertificates(raw []byte) ([]model.Certificate, error) {
	var list []model.Certificate
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", certificatesKey, err)
	}
	if list == nil {
		list = []model.Certificate{}
	}
	return list, nil
}
