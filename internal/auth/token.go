package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tasklist/tasklist/internal/model"
)

// MinSecretLength is the minimum HMAC secret size in bytes.
const MinSecretLength = 32

var (
	// ErrInvalidToken covers every verification failure: bad signature, malformed
	// structure, wrong algorithm, unknown key id, expired or missing subject.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWeakSecret indicates the signing secret is too short.
	ErrWeakSecret = errors.New("token secret too short")
	// ErrEmptySubject indicates an attempt to issue a token without a user ID.
	ErrEmptySubject = errors.New("token subject is empty")
)

// TokenConfig configures a TokenIssuer.
type TokenConfig struct {
	Secret string
	// KeyID is written to the "kid" header so a future secret rotation can
	// pick the right key. Tokens without a kid are verified with Secret.
	KeyID string
	// Issuer, when set, is written to "iss" and required on verification.
	Issuer string
	// TTL, when positive, adds an "exp" claim and makes it mandatory.
	// Zero issues tokens that never expire.
	TTL time.Duration
}

// TokenIssuer issues and verifies HS256 signed identity tokens.
// Verification is pure computation with no store lookup.
type TokenIssuer struct {
	secret []byte
	keyID  string
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer validates cfg and creates a TokenIssuer.
func NewTokenIssuer(cfg TokenConfig) (*TokenIssuer, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: need at least %d bytes", ErrWeakSecret, MinSecretLength)
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("token ttl must not be negative: %s", cfg.TTL)
	}

	return &TokenIssuer{
		secret: []byte(cfg.Secret),
		keyID:  cfg.KeyID,
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}, nil
}

// TTL returns the configured token lifetime; zero means no expiry.
func (i *TokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a token whose subject is userID.
func (i *TokenIssuer) Issue(userID string) (string, error) {
	if userID == "" {
		return "", ErrEmptySubject
	}

	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:  userID,
		IssuedAt: jwt.NewNumericDate(now),
		Issuer:   i.issuer,
	}
	if i.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(i.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if i.keyID != "" {
		token.Header["kid"] = i.keyID
	}

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token and returns the identity it carries.
// Every failure wraps ErrInvalidToken.
func (i *TokenIssuer) Verify(tokenString string) (*model.AuthContext, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	}
	if i.issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.issuer))
	}
	if i.ttl > 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, i.keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	authCtx := &model.AuthContext{UserID: claims.Subject}
	if claims.IssuedAt != nil {
		authCtx.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		authCtx.ExpiresAt = claims.ExpiresAt.Time
	}

	return authCtx, nil
}

func (i *TokenIssuer) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	if kid != "" && kid != i.keyID {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return i.secret, nil
}
