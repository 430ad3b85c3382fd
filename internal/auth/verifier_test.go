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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-ordering/internal/config"
	"ms-ordering/internal/logger"
)

// identityProvider serves OIDC discovery and a single RS256 signing key.
type identityProvider struct {
	*httptest.Server
	key *rsa.PrivateKey
}

func newIdentityProvider(t *testing.T) *identityProvider {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	idp := &identityProvider{key: key}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                                idp.URL,
			"authorization_endpoint":                idp.URL + "/auth",
			"token_endpoint":                        idp.URL + "/token",
			"jwks_uri":                              idp.URL + "/keys",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		b64 := base64.RawURLEncoding.EncodeToString
		json.NewEncoder(w).Encode(map[string]interface{}{
			"keys": []map[string]string{{
				"kty": "RSA",
				"kid": "k1",
				"alg": "RS256",
				"use": "sig",
				"n":   b64(key.PublicKey.N.Bytes()),
				"e":   b64(big.NewInt(int64(key.PublicKey.E)).Bytes()),
			}},
		})
	})
	idp.Server = httptest.NewServer(mux)
	t.Cleanup(idp.Close)
	return idp
}

func (idp *identityProvider) token(t *testing.T, sub, aud string, ttl time.Duration) string {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Issuer:    idp.URL,
		Subject:   sub,
		Audience:  jwt.ClaimStrings{aud},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	tok.Header["kid"] = "k1"
	raw, err := tok.SignedString(idp.key)
	require.NoError(t, err)
	return raw
}

func TestNewVerifier_Selection(t *testing.T) {
	ctx := context.Background()

	v, err := NewVerifier(ctx, config.AuthConfig{JWTSecret: secret})
	require.NoError(t, err)
	assert.IsType(t, HMACVerifier{}, v)

	idp := newIdentityProvider(t)
	v, err = NewVerifier(ctx, config.AuthConfig{JWTSecret: secret, OIDCIssuer: idp.URL, OIDCClientID: "ordering"})
	require.NoError(t, err)
	assert.IsType(t, &OIDCVerifier{}, v)

	_, err = NewVerifier(ctx, config.AuthConfig{OIDCIssuer: "http://127.0.0.1:1/realms/none"})
	assert.Error(t, err)
}

func TestOIDCVerifier(t *testing.T) {
	ctx := context.Background()
	idp := newIdentityProvider(t)
	v, err := NewOIDCVerifier(ctx, idp.URL, "ordering")
	require.NoError(t, err)

	sub, err := v.Verify(ctx, idp.token(t, "cook-3", "ordering", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "cook-3", sub)

	_, err = v.Verify(ctx, idp.token(t, "cook-3", "someone-else", time.Hour))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = v.Verify(ctx, idp.token(t, "cook-3", "ordering", -time.Minute))
	assert.ErrorIs(t, err, ErrInvalidToken)

	// a locally signed token is not accepted once a provider is configured
	local, err := GenerateToken(secret, "cook-3", time.Hour)
	require.NoError(t, err)
	_, err = v.Verify(ctx, local)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddleware_OIDC(t *testing.T) {
	ctx := context.Background()
	idp := newIdentityProvider(t)
	v, err := NewVerifier(ctx, config.AuthConfig{OIDCIssuer: idp.URL})
	require.NoError(t, err)

	var seen string
	h := Middleware(v, logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/staff/x", nil)
	req.Header.Set("Authorization", "Bearer "+idp.token(t, "waiter-9", "any-client", time.Hour))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "waiter-9", seen)
}
