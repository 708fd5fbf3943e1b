package repository

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

const gcsUpdateAttempts = 5

// gcsKVStore keeps one JSON object per key. Update relies on generation
// preconditions, so a concurrent writer makes the loser retry.
type gcsKVStore struct {
	bucket *storage.BucketHandle
	prefix string
}

func NewGCSKVStore(client *storage.Client, bucket, prefix string) KVStore {
	return &gcsKVStore{bucket: client.Bucket(bucket), prefix: prefix}
}

func (s *gcsKVStore) object(key string) *storage.ObjectHandle {
	return s.bucket.Object(path.Join(s.prefix, key+".json"))
}

func (s *gcsKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *gcsKVStore) Put(ctx context.Context, key string, value []byte) error {
	return s.write(ctx, s.object(key), value)
}

func (s *gcsKVStore) Delete(ctx context.Context, key string) error {
	if err := s.object(key).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

func (s *gcsKVStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	obj := s.object(key)
	for attempt := 0; attempt < gcsUpdateAttempts; attempt++ {
		var (
			current []byte
			found   bool
			cond    storage.Conditions
		)
		attrs, err := obj.Attrs(ctx)
		switch {
		case errors.Is(err, storage.ErrObjectNotExist):
			cond = storage.Conditions{DoesNotExist: true}
		case err != nil:
			return err
		default:
			r, err := obj.Generation(attrs.Generation).NewReader(ctx)
			if err != nil {
				return err
			}
			current, err = io.ReadAll(r)
			r.Close()
			if err != nil {
				return err
			}
			found = true
			cond = storage.Conditions{GenerationMatch: attrs.Generation}
		}

		next, err := fn(current, found)
		if err != nil {
			if errors.Is(err, ErrSkipWrite) {
				return nil
			}
			return err
		}
		err = s.write(ctx, obj.If(cond), next)
		if err == nil {
			return nil
		}
		if !isPreconditionFailed(err) {
			return err
		}
	}
	return ErrConflict
}

func (s *gcsKVStore) write(ctx context.Context, obj *storage.ObjectHandle, value []byte) error {
	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(value); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
