package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the caller identity the gateway forwards to backend services.
type Claims struct {
	OrganizationID string `json:"organization_id"`
	Role           string `json:"role"`
	Email          string `json:"email,omitempty"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	jwt.RegisteredClaims
}

func NewClaims(userID, organizationID, role string, ttl time.Duration) Claims {
	now := time.Now()
	return Claims{
		OrganizationID: organizationID,
		Role:           role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}

// WithProfile returns c carrying the contact details booking-service records
// for the caller.
func (c Claims) WithProfile(email, firstName, lastName string) Claims {
	c.Email = strings.TrimSpace(email)
	c.FirstName = strings.TrimSpace(firstName)
	c.LastName = strings.TrimSpace(lastName)
	return c
}

func SignHS256(claims Claims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseAndVerifyHS256(token, secret string) (*Claims, error) {
	return parse(token, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.SigningMethodHS256.Alg())
}

func VerifyRS256(token string, pubKey *rsa.PublicKey) (*Claims, error) {
	return parse(token, func(*jwt.Token) (any, error) {
		return pubKey, nil
	}, jwt.SigningMethodRS256.Alg())
}

// Verifier accepts HS256 tokens signed with the shared secret and, when a
// JWKS client is configured, RS256 tokens whose kid resolves through it.
type Verifier struct {
	secret string
	jwks   *JWKSClient
}

func NewVerifier(secret string, jwks *JWKSClient) *Verifier {
	return &Verifier{secret: secret, jwks: jwks}
}

func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	methods := []string{jwt.SigningMethodHS256.Alg()}
	if v.jwks != nil {
		methods = append(methods, jwt.SigningMethodRS256.Alg())
	}
	return parse(token, func(t *jwt.Token) (any, error) {
		switch t.Method.Alg() {
		case jwt.SigningMethodHS256.Alg():
			if v.secret == "" {
				return nil, errors.New("hs256 secret not configured")
			}
			return []byte(v.secret), nil
		case jwt.SigningMethodRS256.Alg():
			kid, _ := t.Header["kid"].(string)
			if kid == "" {
				return nil, errors.New("missing kid")
			}
			return v.jwks.Get(ctx, kid)
		default:
			return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
		}
	}, methods...)
}

func parse(token string, keyFunc jwt.Keyfunc, methods ...string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, keyFunc,
		jwt.WithValidMethods(methods),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return &claims, nil
}
