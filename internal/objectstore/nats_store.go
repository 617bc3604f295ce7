// Package objectstore provides a NATS JetStream-backed blob store for
// voice-clone job inputs (text, reference clips) and finished audio.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// ErrInvalidKey is returned for blob keys the store refuses to address.
var ErrInvalidKey = errors.New("invalid object key")

// NatsObjectStore implements core.ObjectStore using a NATS JetStream object
// store bucket.
type NatsObjectStore struct {
	store  nats.ObjectStore
	bucket string
}

// New creates the bucket when it does not exist yet and binds to it
// otherwise.
func New(jetstreamContext nats.JetStreamContext, bucketName string) (*NatsObjectStore, error) {
	store, createErr := jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Voice-clone job blobs for the %s bucket.", bucketName),
		Storage:     nats.FileStorage,
		Replicas:    1,
	})
	if createErr != nil {
		if !errors.Is(createErr, jetstream.ErrBucketExists) {
			return nil, fmt.Errorf(
				"failed to create object store bucket '%s': %w",
				bucketName,
				createErr,
			)
		}

		var bindErr error

		store, bindErr = jetstreamContext.ObjectStore(bucketName)
		if bindErr != nil {
			return nil, fmt.Errorf(
				"failed to bind to existing object store bucket '%s': %w",
				bucketName,
				bindErr,
			)
		}
	}

	return &NatsObjectStore{
		store:  store,
		bucket: bucketName,
	}, nil
}

// validateKey rejects keys that cannot address a clone-job blob. Blank keys
// and path-traversal segments are refused before any server round trip.
func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: key is empty", ErrInvalidKey)
	}

	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return fmt.Errorf("%w: %q contains a parent segment", ErrInvalidKey, key)
		}
	}

	return nil
}

// Download retrieves a blob from the bucket. The context bounds the transfer.
func (n *NatsObjectStore) Download(ctx context.Context, key string) ([]byte, error) {
	keyErr := validateKey(key)
	if keyErr != nil {
		return nil, keyErr
	}

	obj, getErr := n.store.Get(key, nats.Context(ctx))
	if getErr != nil {
		return nil, fmt.Errorf(
			"failed to get object '%s' from bucket '%s': %w",
			key,
			n.bucket,
			getErr,
		)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload saves a blob to the bucket. The context bounds the transfer.
func (n *NatsObjectStore) Upload(ctx context.Context, key string, data []byte) error {
	keyErr := validateKey(key)
	if keyErr != nil {
		return keyErr
	}

	_, putErr := n.store.Put(
		&nats.ObjectMeta{Name: key},
		bytes.NewReader(data),
		nats.Context(ctx),
	)
	if putErr != nil {
		return fmt.Errorf(
			"failed to put object '%s' to bucket '%s': %w",
			key,
			n.bucket,
			putErr,
		)
	}

	return nil
}
