package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"reattach/core/bridge"
	"reattach/core/storage"

	"github.com/minio/minio-go/v7"
)

// MinioStore keeps each descriptor as the object "<prefix>/<token>.json".
type MinioStore struct {
	client storage.Client
	bucket string
	prefix string
}

// NewMinioStore creates a store in bucket, creating the bucket when it is missing.
func NewMinioStore(ctx context.Context, client storage.Client, bucket, prefix string) (*MinioStore, error) {
	if err := storage.EnsureBucket(ctx, client, bucket); err != nil {
		return nil, err
	}
	return &MinioStore{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *MinioStore) object(token string) string {
	return s.prefix + "/" + token + ".json"
}

func (s *MinioStore) Put(ctx context.Context, d *bridge.CollectionDescriptor) (string, error) {
	data, err := encode(d)
	if err != nil {
		return "", err
	}
	token := newToken()
	_, err = s.client.PutObject(ctx, s.bucket, s.object(token), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("storing descriptor: %w", err)
	}
	return token, nil
}

func (s *MinioStore) Get(ctx context.Context, token string) (*bridge.CollectionDescriptor, error) {
	if err := checkToken(token); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, s.object(token), minio.GetObjectOptions{})
	if err != nil {
		return nil, s.readError(err)
	}
	defer obj.Close()

	// minio reports a missing object on the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.readError(err)
	}
	return decode(data)
}

func (s *MinioStore) readError(err error) error {
	if storage.IsNotFound(err) {
		return ErrNotFound
	}
	return fmt.Errorf("reading descriptor: %w", err)
}

func (s *MinioStore) Delete(ctx context.Context, token string) error {
	if err := checkToken(token); err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, s.object(token), minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("deleting descriptor: %w", err)
	}
	return nil
}
