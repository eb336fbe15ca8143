package v1handler_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"docscan/pkg/domain"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"docscan/internal/api/handler/v1handler"
	"docscan/pkg/serrors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// helper to generate an RSA key pair and return the private key and PEM-encoded public key.
func genRSAKeys(tb testing.TB) (*rsa.PrivateKey, string) {
	tb.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(tb, err, "failed to generate RSA key")
	pubASN1, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(tb, err, "failed to marshal public key")
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubASN1})

	return priv, string(pubPEM)
}

func newSecHandlerForTest(t *testing.T, pubPEM string) *v1handler.SecHandler {
	t.Helper()
	sh, err := v1handler.NewSecHandler(&v1handler.SecHandlerOptions{PublicKey: pubPEM})
	require.NoError(t, err, "NewSecHandler failed")

	return sh
}

func signJWTRS256(tb testing.TB, priv *rsa.PrivateKey, sub string, issuedAt time.Time, exp time.Time) string {
	tb.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   sub,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(exp),
		NotBefore: jwt.NewNumericDate(issuedAt),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(priv)
	require.NoError(tb, err, "failed to sign token")

	return signed
}

func TestNewSecHandler_BadKey(t *testing.T) {
	_, err := v1handler.NewSecHandler(&v1handler.SecHandlerOptions{PublicKey: "not a key"})
	require.Error(t, err)
}

func TestHandleBearerAuth_ValidToken(t *testing.T) {
	priv, pubPEM := genRSAKeys(t)
	sh := newSecHandlerForTest(t, pubPEM)

	uid := uuid.New()
	now := time.Now()
	tkn := signJWTRS256(t, priv, uid.String(), now, now.Add(1*time.Hour))

	ctx, err := sh.HandleBearerAuth(context.Background(), tkn)
	require.NoError(t, err)

	got, ok := domain.OperatorFromContext(ctx)
	require.True(t, ok, "expected operator in context")
	require.Equal(t, domain.OperatorID(uid), got)
}

func TestHandleBearerAuth_Rejections(t *testing.T) {
	priv, pubPEM := genRSAKeys(t)
	sh := newSecHandlerForTest(t, pubPEM)
	privOther, _ := genRSAKeys(t)
	now := time.Now()

	hs256 := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	})
	hsSigned, err := hs256.SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"invalid signature": signJWTRS256(t, privOther, uuid.NewString(), now, now.Add(time.Hour)),
		"expired":           signJWTRS256(t, priv, uuid.NewString(), now.Add(-2*time.Hour), now.Add(-1*time.Hour)),
		"invalid subject":   signJWTRS256(t, priv, "not-a-uuid", now, now.Add(time.Hour)),
		"wrong algorithm":   hsSigned,
		"garbage":           "a.b.c",
	}
	for name, tkn := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := sh.HandleBearerAuth(context.Background(), tkn)
			require.ErrorIs(t, err, serrors.ErrUnauthorized)
		})
	}
}

func TestMiddleware(t *testing.T) {
	priv, pubPEM := genRSAKeys(t)
	sh := newSecHandlerForTest(t, pubPEM)
	h := v1handler.New(v1handler.Deps{})

	uid := uuid.New()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		op, ok := domain.OperatorFromContext(r.Context())
		require.True(t, ok)
		require.Equal(t, domain.OperatorID(uid), op)
		w.WriteHeader(http.StatusNoContent)
	})
	mw := sh.Middleware(h)(next)

	// no header
	rec := httptest.NewRecorder()
	mw.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/session", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"code":"UNAUTHORIZED","message":"missing bearer token"}`, rec.Body.String())

	// valid token
	now := time.Now()
	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req.Header.Set("Authorization", "Bearer "+signJWTRS256(t, priv, uid.String(), now, now.Add(time.Hour)))
	rec = httptest.NewRecorder()
	mw.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
