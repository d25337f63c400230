package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cinemaplex/cinema-system/internal/core/domain"
)

const defaultTokenTTL = time.Hour

// JWTConfig is the key material and lifetime for session tokens.
type JWTConfig struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// sessionClaims is the payload of a session token. The subject is the login.
type sessionClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTCodec issues and verifies HS256 session tokens.
type JWTCodec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// NewJWTCodec returns a codec bound to cfg. A zero TTL means one hour.
func NewJWTCodec(cfg JWTConfig) (*JWTCodec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt codec: empty secret")
	}
	c := &JWTCodec{
		secret: cfg.Secret,
		ttl:    cfg.TTL,
		issuer: cfg.Issuer,
		now:    cfg.Now,
	}
	if c.ttl <= 0 {
		c.ttl = defaultTokenTTL
	}
	if c.now == nil {
		c.now = time.Now
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	}
	if c.issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.issuer))
	}
	c.parser = jwt.NewParser(opts...)
	return c, nil
}

// Issue signs a token for identity valid for the configured TTL.
func (c *JWTCodec) Issue(identity *domain.Identity) (string, error) {
	if identity == nil || identity.Login == "" {
		return "", errors.New("issue token: identity without login")
	}
	now := c.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Login,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
		Role: identity.Role.String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return signed, nil
}

// Verify checks the token and returns the claims it carries.
func (c *JWTCodec) Verify(tokenString string) (*domain.SessionClaims, error) {
	claims := &sessionClaims{}
	_, err := c.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", domain.ErrTokenMalformed)
	}
	role := domain.Role(claims.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrTokenMalformed, claims.Role)
	}

	out := &domain.SessionClaims{Login: claims.Subject, Role: role}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	out.ExpiresAt = claims.ExpiresAt.Time
	return out, nil
}

// ExtractUsername returns the subject without verifying the signature.
func (c *JWTCodec) ExtractUsername(tokenString string) (string, error) {
	claims := &sessionClaims{}
	if _, _, err := c.parser.ParseUnverified(tokenString, claims); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}
	return claims.Subject, nil
}

// Validate verifies the token and checks it belongs to identity, which must
// still be active.
func (c *JWTCodec) Validate(tokenString string, identity *domain.Identity) error {
	claims, err := c.Verify(tokenString)
	if err != nil {
		return err
	}
	if identity == nil || claims.Login != identity.Login || claims.Role != identity.Role {
		return domain.ErrTokenSubjectMismatch
	}
	if !identity.Active {
		return domain.ErrTokenSubjectInactive
	}
	return nil
}

func (c *JWTCodec) IsTokenValid(tokenString string, identity *domain.Identity) bool {
	return c.Validate(tokenString, identity) == nil
}

// classify maps jwt parse errors onto the domain rejection reasons.
func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", domain.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", domain.ErrTokenSignature, err)
	default:
		return fmt.Errorf("%w: %v", domain.ErrTokenMalformed, err)
	}
}
