package object

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrInvalidKey is returned for storage keys that escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// Stored describes an object written by Save.
type Stored struct {
	Key         string
	SizeBytes   int64
	SniffedType string
}

// ObjectStore defines the contract for saving and retrieving binary objects.
type ObjectStore interface {
	Provider() string
	Save(ctx context.Context, userID string, fileName string, r io.Reader) (Stored, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// URLSigner is implemented by stores that can hand out time-limited download links.
type URLSigner interface {
	PresignGet(ctx context.Context, storageKey, downloadName string, ttl time.Duration) (string, error)
}
