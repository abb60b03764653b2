package storage

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"time"

	"pasbridge/internal/transactions/domain"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// PayloadArchive writes raw inbound payloads to object storage.
type PayloadArchive struct {
	store  StorageService
	bucket string
}

// NewPayloadArchive creates an archive writing to bucket.
func NewPayloadArchive(store StorageService, bucket string) *PayloadArchive {
	return &PayloadArchive{store: store, bucket: bucket}
}

// Bucket returns the archive bucket name.
func (a *PayloadArchive) Bucket() string { return a.bucket }

// ObjectKey is payloads/<type>/<yyyy>/<mm>/<dd>/<transaction id>-<unix nanos>.json.
func ObjectKey(env *domain.Envelope) string {
	at := env.ReceivedAt.UTC()
	if at.IsZero() {
		at = time.Now().UTC()
	}
	id := unsafeKeyChars.ReplaceAllString(env.TransactionID, "_")
	if id == "" {
		id = "unknown"
	}
	return fmt.Sprintf("payloads/%s/%s/%s-%d.json", env.Type, at.Format("2006/01/02"), id, at.UnixNano())
}

// Archive stores the raw payload and returns its object key.
func (a *PayloadArchive) Archive(ctx context.Context, req domain.Request) (string, error) {
	env := req.Meta()
	if len(env.Raw) == 0 {
		return "", fmt.Errorf("transaction %s has no raw payload", env.TransactionID)
	}
	key := ObjectKey(env)
	if err := a.store.PutObject(ctx, a.bucket, key, "application/json", bytes.NewReader(env.Raw), int64(len(env.Raw))); err != nil {
		return "", err
	}
	return key, nil
}
