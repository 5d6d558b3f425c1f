package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"hrms/internal/platform/boltstore"
	"hrms/internal/transport/http/middleware"
)

const idempotencyRetention = 7 * 24 * time.Hour

// boltIdempotency adapts the embedded store to the middleware contract.
type boltIdempotency struct {
	store *boltstore.Store
}

func openBoltIdempotency(path string) (*boltIdempotency, error) {
	store, err := boltstore.Open(path)
	if err != nil {
		return nil, err
	}
	if removed, err := store.Prune(time.Now().Add(-idempotencyRetention)); err != nil {
		slog.Warn("idempotency prune failed", "err", err)
	} else if removed > 0 {
		slog.Info("idempotency keys pruned", "removed", removed)
	}
	return &boltIdempotency{store: store}, nil
}

func (b *boltIdempotency) Check(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	stored, found, err := b.store.Check(ctx, tenantID, userID, endpoint, key, requestHash)
	return stored, found, translateConflict(err)
}

func (b *boltIdempotency) Save(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	return translateConflict(b.store.Save(ctx, tenantID, userID, endpoint, key, requestHash, response))
}

func (b *boltIdempotency) Close() error {
	return b.store.Close()
}

func translateConflict(err error) error {
	if errors.Is(err, boltstore.ErrConflict) {
		return middleware.ErrIdempotencyConflict
	}
	return err
}
