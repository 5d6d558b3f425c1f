package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"

	"hrms/internal/platform/querier"
	"hrms/internal/transport/http/api"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

const IdempotencyHeader = "Idempotency-Key"

// IdempotencyStore remembers the response of a keyed mutation so a retry
// with the same key and payload replays it.
type IdempotencyStore interface {
	Check(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, response json.RawMessage) error
}

type PostgresIdempotencyStore struct {
	db querier.Querier
}

func NewIdempotencyStore(db querier.Querier) *PostgresIdempotencyStore {
	return &PostgresIdempotencyStore{db: db}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func (s *PostgresIdempotencyStore) Check(ctx context.Context, tenantID, userID, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, nil
	}
	var storedHash string
	var stored json.RawMessage
	err := s.db.QueryRow(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE tenant_id = $1 AND user_id = $2 AND key = $3 AND endpoint = $4
  `, tenantID, userID, key, endpoint).Scan(&storedHash, &stored)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if storedHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

func (s *PostgresIdempotencyStore) Save(ctx context.Context, tenantID, userID, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil || s.db == nil {
		return nil
	}
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (tenant_id, user_id, key, endpoint, request_hash, response_json)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (tenant_id, user_id, key, endpoint)
    DO UPDATE SET response_json = EXCLUDED.response_json
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
  `, tenantID, userID, key, endpoint, requestHash, response)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Idempotency scopes one keyed call. A zero value (no store or no key) makes
// every method a no-op.
type Idempotency struct {
	store    IdempotencyStore
	tenantID string
	userID   string
	endpoint string
	key      string
	hash     string
}

func NewIdempotency(r *http.Request, store IdempotencyStore, endpoint string, payload []byte) Idempotency {
	key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
	user, ok := GetUser(r.Context())
	if store == nil || key == "" || !ok {
		return Idempotency{}
	}
	return Idempotency{
		store:    store,
		tenantID: user.TenantID,
		userID:   user.UserID,
		endpoint: endpoint,
		key:      key,
		hash:     RequestHash(payload),
	}
}

// Replay writes the stored response when the key was seen with the same
// payload, or a 409 when it was seen with a different one. It reports
// whether the response has been written.
func (i Idempotency) Replay(w http.ResponseWriter, r *http.Request) bool {
	if i.store == nil {
		return false
	}
	stored, found, err := i.store.Check(r.Context(), i.tenantID, i.userID, i.endpoint, i.key, i.hash)
	if errors.Is(err, ErrIdempotencyConflict) {
		api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different request", GetRequestID(r.Context()))
		return true
	}
	if err != nil {
		slog.Warn("idempotency check failed", "endpoint", i.endpoint, "err", err)
		return false
	}
	if !found {
		return false
	}
	api.Success(w, json.RawMessage(stored), GetRequestID(r.Context()))
	return true
}

func (i Idempotency) Remember(ctx context.Context, response any) {
	if i.store == nil {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		slog.Warn("idempotency response marshal failed", "endpoint", i.endpoint, "err", err)
		return
	}
	if err := i.store.Save(ctx, i.tenantID, i.userID, i.endpoint, i.key, i.hash, payload); err != nil {
		slog.Warn("idempotency save failed", "endpoint", i.endpoint, "err", err)
	}
}
