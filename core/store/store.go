package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"reattach/core/bridge"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a token names no stored descriptor.
	ErrNotFound = errors.New("descriptor not found")

	// ErrInvalidToken is returned for tokens that are not UUIDs.
	ErrInvalidToken = errors.New("invalid descriptor token")
)

// Store keeps collection descriptors on the server and hands out opaque tokens.
type Store interface {
	// Put stores d and returns its token.
	Put(ctx context.Context, d *bridge.CollectionDescriptor) (string, error)
	// Get returns the descriptor stored under token.
	Get(ctx context.Context, token string) (*bridge.CollectionDescriptor, error)
	// Delete forgets token. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
}

func newToken() string {
	return uuid.NewString()
}

func checkToken(token string) error {
	if _, err := uuid.Parse(token); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidToken, token)
	}
	return nil
}

func encode(d *bridge.CollectionDescriptor) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("cannot store a nil descriptor")
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding descriptor: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*bridge.CollectionDescriptor, error) {
	var d bridge.CollectionDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding descriptor: %w", err)
	}
	return &d, nil
}
