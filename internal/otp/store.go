// Package otp keeps pending email-verified signups in Redis until the code is
// confirmed, expires or runs out of attempts.
package otp

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	TTL         = 10 * time.Minute
	MaxAttempts = 5
	CodeLength  = 6

	signupKeyPrefix   = "otp:signup:"
	attemptsKeyPrefix = "otp:attempts:"
)

var (
	ErrExpired         = errors.New("verification code expired or was never requested")
	ErrInvalidCode     = errors.New("invalid verification code")
	ErrTooManyAttempts = errors.New("too many attempts, request a new code")
)

type PendingSignup struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	CodeHash     string    `json:"code_hash"`
	RequestedAt  time.Time `json:"requested_at"`
}

type Store struct {
	rdb  *redis.Client
	ttl  time.Duration
	cost int
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, ttl: TTL, cost: bcrypt.DefaultCost}
}

// GenerateCode returns a zero-padded numeric code of CodeLength digits.
func GenerateCode() (string, error) {
	var sb strings.Builder
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	return sb.String(), nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Put stores the signup with a hash of code and resets its attempt counter.
// A second request for the same email replaces the first.
func (s *Store) Put(ctx context.Context, p PendingSignup, code string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), s.cost)
	if err != nil {
		return fmt.Errorf("hash code: %w", err)
	}
	p.Email = normalize(p.Email)
	p.CodeHash = string(hash)
	if p.RequestedAt.IsZero() {
		p.RequestedAt = time.Now()
	}

	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	if err := s.rdb.Set(ctx, signupKeyPrefix+p.Email, string(data), s.ttl).Err(); err != nil {
		return fmt.Errorf("store pending signup: %w", err)
	}
	if err := s.rdb.Set(ctx, attemptsKeyPrefix+p.Email, 0, s.ttl).Err(); err != nil {
		return fmt.Errorf("reset attempts: %w", err)
	}
	return nil
}

// Verify consumes one attempt and, when code matches, removes and returns the
// pending signup.
func (s *Store) Verify(ctx context.Context, email, code string) (*PendingSignup, error) {
	email = normalize(email)
	dataKey := signupKeyPrefix + email
	attemptsKey := attemptsKeyPrefix + email

	raw, err := s.rdb.Get(ctx, dataKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrExpired
	}
	if err != nil {
		return nil, fmt.Errorf("load pending signup: %w", err)
	}

	var p PendingSignup
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode pending signup: %w", err)
	}

	attempts, err := s.countAttempt(ctx, attemptsKey)
	if err != nil {
		return nil, err
	}
	if attempts > MaxAttempts {
		s.rdb.Del(ctx, dataKey, attemptsKey)
		return nil, ErrTooManyAttempts
	}

	if bcrypt.CompareHashAndPassword([]byte(p.CodeHash), []byte(code)) != nil {
		return nil, ErrInvalidCode
	}

	if err := s.rdb.Del(ctx, dataKey, attemptsKey).Err(); err != nil {
		return nil, fmt.Errorf("clear pending signup: %w", err)
	}
	return &p, nil
}

// countAttempt increments the counter and refreshes its expiry in one
// transaction, so a counter that expired since Put never outlives the TTL.
func (s *Store) countAttempt(ctx context.Context, key string) (int64, error) {
	var incr *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count attempt: %w", err)
	}
	return incr.Val(), nil
}
