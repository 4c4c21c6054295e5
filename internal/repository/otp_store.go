package repository

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPStore keeps one-time codes in Redis. Expiry rides on the key TTL, so an
// expired code is indistinguishable from an absent one, matching the
// ephemeral-credential contract.
type OTPStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewOTPStore creates a store with the given code lifetime.
func NewOTPStore(client *redis.Client, ttl time.Duration) *OTPStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OTPStore{client: client, ttl: ttl, prefix: "otp:"}
}

func (s *OTPStore) key(email string) string {
	return s.prefix + email
}

// Set stores a code for the email, replacing any outstanding one and
// restarting the TTL.
func (s *OTPStore) Set(ctx context.Context, email, code string) error {
	return s.client.Set(ctx, s.key(email), code, s.ttl).Err()
}

// Check reports whether the code matches without consuming it.
func (s *OTPStore) Check(ctx context.Context, email, code string) (bool, error) {
	stored, err := s.client.Get(ctx, s.key(email)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(code)) == 1, nil
}

// consumeScript deletes the key only when it still holds the presented code,
// so two concurrent verifications cannot both succeed and a mismatch never
// burns a code re-issued in between.
var consumeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Consume validates the code and deletes it on success (one-time use).
func (s *OTPStore) Consume(ctx context.Context, email, code string) (bool, error) {
	deleted, err := consumeScript.Run(ctx, s.client, []string{s.key(email)}, code).Int()
	if err != nil {
		return false, err
	}
	return deleted == 1, nil
}
