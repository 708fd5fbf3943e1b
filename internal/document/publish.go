package document

import (
	"context"
	"fmt"
	"net/url"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Publisher stores a rendered document and returns a public download URL.
type Publisher interface {
	Publish(ctx context.Context, objectPath, contentType string, data []byte) (string, error)
}

type gcsPublisher struct {
	client *storage.Client
	bucket string
}

func NewGCSPublisher(client *storage.Client, bucket string) Publisher {
	return &gcsPublisher{client: client, bucket: bucket}
}

// Publish uploads with a Firebase download token so the URL works without signing.
func (p *gcsPublisher) Publish(ctx context.Context, objectPath, contentType string, data []byte) (string, error) {
	token := uuid.NewString()
	w := p.client.Bucket(p.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		p.bucket, url.PathEscape(objectPath), token), nil
}
