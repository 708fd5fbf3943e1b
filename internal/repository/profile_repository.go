package repository

import (
	"context"
	"encoding/json"

	"github.com/shinyyama/carbon-credit-backend/internal/model"
)

const (
	userKeyPrefix     = "user:"
	officialKeyPrefix = "officialUser:"
)

type ProfileRepository interface {
	GetUser(ctx context.Context, uid string) (*model.UserProfile, error)
	PutUser(ctx context.Context, p *model.UserProfile) error
	DeleteUser(ctx context.Context, uid string) error
	GetOfficial(ctx context.Context, id string) (*model.OfficialProfile, error)
	PutOfficial(ctx context.Context, p *model.OfficialProfile) error
	DeleteOfficial(ctx context.Context, id string) error
}

type profileRepository struct {
	kv KVStore
}

func NewProfileRepository(kv KVStore) ProfileRepository {
	return &profileRepository{kv: kv}
}

func (r *profileRepository) GetUser(ctx context.Context, uid string) (*model.UserProfile, error) {
	var p model.UserProfile
	if err := r.getJSON(ctx, userKeyPrefix+uid, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) PutUser(ctx context.Context, p *model.UserProfile) error {
	return r.putJSON(ctx, userKeyPrefix+p.ID, p)
}

func (r *profileRepository) DeleteUser(ctx context.Context, uid string) error {
	return r.kv.Delete(ctx, userKeyPrefix+uid)
}

func (r *profileRepository) GetOfficial(ctx context.Context, id string) (*model.OfficialProfile, error) {
	var p model.OfficialProfile
	if err := r.getJSON(ctx, officialKeyPrefix+id, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *profileRepository) PutOfficial(ctx context.Context, p *model.OfficialProfile) error {
	return r.putJSON(ctx, officialKeyPrefix+p.ID, p)
}

func (r *profileRepository) DeleteOfficial(ctx context.Context, id string) error {
	return r.kv.Delete(ctx, officialKeyPrefix+id)
}

func (r *profileRepository) getJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := r.kv.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

func (r *profileRepository) putJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.kv.Put(ctx, key, raw)
}
