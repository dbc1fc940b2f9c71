package domain

import (
	"time"

	"github.com/google/uuid"
)

// IdempotencyTTL is the validity window for idempotency records.
const IdempotencyTTL = 24 * time.Hour

// IdempotencyRecord caches the response of a payment-creation request so
// repeats with the same key return byte-identical output and perform no
// new side effects. (key, merchant) maps to at most one record.
type IdempotencyRecord struct {
	Key        string    `json:"key"` // Caller-supplied Idempotency-Key header
	MerchantID uuid.UUID `json:"merchant_id"`
	Response   []byte    `json:"response"` // Cached response body to return verbatim
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Expired reports whether the record is past its validity window.
// Expired records are inert: ignored on read, pruned elsewhere.
func (r *IdempotencyRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// BuildIdempotencyKey constructs the cache key scoping a caller-supplied
// idempotency key to a merchant.
func BuildIdempotencyKey(merchantID uuid.UUID, key string) string {
	return merchantID.String() + ":" + key
}
