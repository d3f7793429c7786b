package auth

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DevTokenPrefix prefixes every token minted by DevSigner
const DevTokenPrefix = "influx-dev-token-"

// Signer mints the opaque token handed to the client after a successful login
type Signer interface {
	Sign(ctx context.Context, username string) (string, error)
}

// DevSigner issues unsigned "influx-dev-token-<unix millis>" strings.
// The millisecond suffix is strictly increasing per signer, so two calls
// never produce the same token even within one clock tick.
type DevSigner struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewDevSigner() *DevSigner {
	return &DevSigner{now: time.Now}
}

func (s *DevSigner) Sign(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	millis := s.now().UnixMilli()
	if millis <= s.last {
		millis = s.last + 1
	}
	s.last = millis
	return DevTokenPrefix + strconv.FormatInt(millis, 10), nil
}

// Claims carried by JWTSigner tokens
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTSigner issues HS256 tokens. Nothing in this service verifies them; they
// exist so a downstream API can.
type JWTSigner struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewJWTSigner(secret string, ttl time.Duration, issuer string) (*JWTSigner, error) {
	if secret == "" {
		return nil, errors.New("jwt signer requires a secret")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTSigner{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

func (s *JWTSigner) Sign(_ context.Context, username string) (string, error) {
	now := s.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
