package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tobiasmaugus/vendas-api/internal/apperror"
	"github.com/tobiasmaugus/vendas-api/internal/auth"
	"github.com/tobiasmaugus/vendas-api/internal/config"
	"github.com/tobiasmaugus/vendas-api/internal/jwtutil"
	"github.com/tobiasmaugus/vendas-api/internal/model"
)

// fakeGoogle serves a tokeninfo endpoint mapping opaque tokens to claims
func fakeGoogle(t *testing.T, tokens map[string]auth.GoogleClaims) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := tokens[r.URL.Query().Get("id_token")]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(claims)
	}))
}

func googleClaims(sub, name, email string) auth.GoogleClaims {
	return auth.GoogleClaims{
		Sub:   sub,
		Aud:   "client-id",
		Name:  name,
		Email: email,
		Exp:   strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10),
	}
}

func newAuthService(t *testing.T, db *gorm.DB, srv *httptest.Server) *AuthService {
	t.Helper()
	verifier := auth.NewGoogleVerifier(&config.GoogleConfig{ClientID: "client-id", TokenInfoURL: srv.URL})
	tokens := jwtutil.NewJWTUtil(&config.JWTConfig{SigningKey: "test-key", ExpirationHours: 168})
	return NewAuthService(db, verifier, tokens)
}

func TestLoginCreatesUserOnFirstSignIn(t *testing.T) {
	db := newTestDB(t)
	srv := fakeGoogle(t, map[string]auth.GoogleClaims{
		"t1": googleClaims("sub-1", "Maria Silva", "maria@example.com"),
	})
	defer srv.Close()
	svc := newAuthService(t, db, srv)

	token, user, err := svc.LoginWithGoogle(context.Background(), "t1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "sub-1", user.GoogleID)
	assert.Equal(t, "Maria Silva", user.Name)
	assert.Equal(t, "maria@example.com", user.Email)

	var count int64
	db.Model(&model.User{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestLoginUpdatesExistingUser(t *testing.T) {
	db := newTestDB(t)
	srv := fakeGoogle(t, map[string]auth.GoogleClaims{
		"t1": googleClaims("sub-1", "Maria Silva", "maria@example.com"),
		"t2": googleClaims("sub-1", "Maria S. Santos", "maria@example.com"),
	})
	defer srv.Close()
	svc := newAuthService(t, db, srv)

	_, first, err := svc.LoginWithGoogle(context.Background(), "t1")
	require.NoError(t, err)

	_, second, err := svc.LoginWithGoogle(context.Background(), "t2")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Maria S. Santos", second.Name)

	var count int64
	db.Model(&model.User{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestLoginDoesNotMergeDistinctSubjectsSharingEmail(t *testing.T) {
	db := newTestDB(t)
	srv := fakeGoogle(t, map[string]auth.GoogleClaims{
		"t1": googleClaims("sub-1", "Maria", "shared@example.com"),
		"t2": googleClaims("sub-2", "Other Maria", "shared@example.com"),
	})
	defer srv.Close()
	svc := newAuthService(t, db, srv)

	_, first, err := svc.LoginWithGoogle(context.Background(), "t1")
	require.NoError(t, err)

	// A different Google identity with the same email must become a second
	// user, not take over the first one
	_, second, err := svc.LoginWithGoogle(context.Background(), "t2")
	if err != nil {
		// The unique index on email legitimately rejects the second row;
		// either way the first identity must be left alone
		var kept model.User
		require.NoError(t, db.First(&kept, first.ID).Error)
		assert.Equal(t, "sub-1", kept.GoogleID)
		return
	}
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "sub-2", second.GoogleID)
}

func TestLoginLinksPreProvisionedAccountByEmail(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&model.User{Name: "Imported", Email: "maria@example.com"}).Error)

	srv := fakeGoogle(t, map[string]auth.GoogleClaims{
		"t1": googleClaims("sub-1", "Maria Silva", "maria@example.com"),
	})
	defer srv.Close()
	svc := newAuthService(t, db, srv)

	_, user, err := svc.LoginWithGoogle(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", user.GoogleID)

	var count int64
	db.Model(&model.User{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestLoginInvalidAssertion(t *testing.T) {
	db := newTestDB(t)
	srv := fakeGoogle(t, map[string]auth.GoogleClaims{})
	defer srv.Close()
	svc := newAuthService(t, db, srv)

	_, _, err := svc.LoginWithGoogle(context.Background(), "forged")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInvalidAssertion)
}

func TestVerifyTokenRoundTrip(t *testing.T) {
	db := newTestDB(t)
	srv := fakeGoogle(t, map[string]auth.GoogleClaims{
		"t1": googleClaims("sub-1", "Maria", "maria@example.com"),
	})
	defer srv.Close()
	svc := newAuthService(t, db, srv)

	token, user, err := svc.LoginWithGoogle(context.Background(), "t1")
	require.NoError(t, err)

	resolved, err := svc.VerifyToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, resolved.ID)
}

func TestVerifyTokenUnknownUser(t *testing.T) {
	db := newTestDB(t)
	srv := fakeGoogle(t, map[string]auth.GoogleClaims{
		"t1": googleClaims("sub-1", "Maria", "maria@example.com"),
	})
	defer srv.Close()
	svc := newAuthService(t, db, srv)

	token, user, err := svc.LoginWithGoogle(context.Background(), "t1")
	require.NoError(t, err)

	// Deleting the account revokes the still-valid credential
	require.NoError(t, db.Delete(&model.User{}, user.ID).Error)

	_, err = svc.VerifyToken(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrUnknownUser)
}

func TestVerifyTokenInvalid(t *testing.T) {
	db := newTestDB(t)
	srv := fakeGoogle(t, map[string]auth.GoogleClaims{})
	defer srv.Close()
	svc := newAuthService(t, db, srv)

	_, err := svc.VerifyToken(context.Background(), "garbage")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrInvalidCredential)
}
