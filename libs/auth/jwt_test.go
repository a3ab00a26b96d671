package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHS256RoundTrip(t *testing.T) {
	claims := NewClaims("user-1", "org-1", "ADMIN", time.Hour)
	secret := "test-secret"

	token, err := SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	parsed, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if parsed.Subject != "user-1" || parsed.OrganizationID != "org-1" || parsed.Role != "ADMIN" {
		t.Fatalf("claims mismatch: got %+v", parsed)
	}
	if _, err := ParseAndVerifyHS256(token, "wrong-secret"); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
}

func TestProfileClaimsRoundTrip(t *testing.T) {
	claims := NewClaims("user-1", "org-1", "USER", time.Hour).WithProfile(" ada@example.com", "Ada ", "")
	token, err := SignHS256(claims, "s")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	parsed, err := ParseAndVerifyHS256(token, "s")
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if parsed.Email != "ada@example.com" || parsed.FirstName != "Ada" || parsed.LastName != "" {
		t.Fatalf("profile mismatch: got %+v", parsed)
	}
}

func TestHS256RejectsExpired(t *testing.T) {
	claims := NewClaims("user-1", "org-1", "USER", -time.Hour)
	token, err := SignHS256(claims, "s")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, "s"); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestRS256Verify(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	claims := NewClaims("user-2", "org-2", "USER", time.Hour)

	token, err := signRS256(claims, key, "kid-1")
	if err != nil {
		t.Fatalf("rs256 Sign failed: %v", err)
	}
	parsed, err := VerifyRS256(token, &key.PublicKey)
	if err != nil {
		t.Fatalf("VerifyRS256 failed: %v", err)
	}
	if parsed.Subject != "user-2" || parsed.OrganizationID != "org-2" {
		t.Fatalf("claims mismatch: got %+v", parsed)
	}
	if _, err := ParseAndVerifyHS256(token, "secret"); err == nil {
		t.Fatal("RS256 token must not verify as HS256")
	}
}

func TestVerifierUsesJWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(jwks{Keys: []jwk{{
			Kty: "RSA",
			Kid: "kid-1",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	defer srv.Close()

	v := NewVerifier("hs-secret", NewJWKSClient(srv.URL, time.Minute, srv.Client()))

	rsToken, err := signRS256(NewClaims("user-3", "org-3", "ADMIN", time.Hour), key, "kid-1")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := v.Verify(context.Background(), rsToken); err != nil {
		t.Fatalf("Verify RS256 failed: %v", err)
	}

	hsToken, err := SignHS256(NewClaims("user-4", "org-3", "USER", time.Hour), "hs-secret")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := v.Verify(context.Background(), hsToken); err != nil {
		t.Fatalf("Verify HS256 failed: %v", err)
	}

	unknownKid, err := signRS256(NewClaims("user-5", "org-3", "USER", time.Hour), key, "kid-2")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := v.Verify(context.Background(), unknownKid); err == nil {
		t.Fatal("expected unknown kid to be rejected")
	}
}

func signRS256(claims Claims, key *rsa.PrivateKey, kid string) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		tok.Header["kid"] = kid
	}
	return tok.SignedString(key)
}
