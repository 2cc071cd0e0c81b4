package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malonaz/botchat/store"
)

func newToken(t *testing.T, userID string, expiry time.Time) string {
	t.Helper()
	claims := &hasuraClaims{}
	claims.Hasura.UserID = userID
	claims.Hasura.DefaultRole = "user"
	claims.ExpiresAt = jwt.NewNumericDate(expiry)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	return token
}

type fakeAuthService struct {
	t             *testing.T
	refreshes     atomic.Int32
	signOuts      atomic.Int32
	expiry        time.Time
	rejectToken   bool
	pendingSignUp bool
}

func (f *fakeAuthService) session(userID string) *sessionPayload {
	return &sessionPayload{
		AccessToken:          newToken(f.t, userID, f.expiry),
		AccessTokenExpiresIn: 900,
		RefreshToken:         "refresh-" + userID,
		User:                 &User{ID: userID, Email: "ada@example.com", DisplayName: "Ada"},
	}
}

func (f *fakeAuthService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/signin/email-password":
		body := &credentials{}
		json.NewDecoder(r.Body).Decode(body)
		if body.Password != "correct" {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"status": 401, "error": "invalid-email-password", "message": "Incorrect email or password"}`))
			return
		}
		json.NewEncoder(w).Encode(&signInResponse{Session: f.session("user-1")})
	case "/signup/email-password":
		if f.pendingSignUp {
			w.Write([]byte(`{"session": null}`))
			return
		}
		json.NewEncoder(w).Encode(&signInResponse{Session: f.session("user-2")})
	case "/token":
		f.refreshes.Add(1)
		if f.rejectToken {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"status": 401, "error": "invalid-refresh-token", "message": "Invalid or expired refresh token"}`))
			return
		}
		json.NewEncoder(w).Encode(f.session("user-1"))
	case "/signout":
		f.signOuts.Add(1)
		w.Write([]byte(`OK`))
	default:
		http.NotFound(w, r)
	}
}

func setup(t *testing.T) (*fakeAuthService, *httptest.Server, *store.Store) {
	t.Helper()
	fake := &fakeAuthService{t: t, expiry: time.Now().Add(15 * time.Minute)}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	s, err := store.New(filepath.Join(t.TempDir(), "botchat.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return fake, server, s
}

func TestSignInPersistsAcrossRestarts(t *testing.T) {
	fake, server, s := setup(t)
	ctx := context.Background()

	session, err := NewSession(server.URL, s)
	require.NoError(t, err)
	assert.Nil(t, session.User())
	_, err = session.AccessToken(ctx)
	require.ErrorIs(t, err, ErrNotSignedIn)

	user, err := session.SignIn(ctx, "ada@example.com", "correct")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "Ada", user.Name())
	assert.Equal(t, "A", user.Initial())

	token, err := session.AccessToken(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, int32(0), fake.refreshes.Load())

	restored, err := NewSession(server.URL, s)
	require.NoError(t, err)
	require.NotNil(t, restored.User())
	assert.Equal(t, "user-1", restored.UserID())
	_, err = restored.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.refreshes.Load())
}

func TestSignInWrongPassword(t *testing.T) {
	_, server, s := setup(t)

	session, err := NewSession(server.URL, s)
	require.NoError(t, err)
	_, err = session.SignIn(context.Background(), "ada@example.com", "wrong")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "invalid-email-password", apiErr.Code)
	assert.Nil(t, session.User())
}

func TestAccessTokenRefreshesNearExpiry(t *testing.T) {
	fake, server, s := setup(t)
	ctx := context.Background()
	fake.expiry = time.Now().Add(10 * time.Second)

	session, err := NewSession(server.URL, s)
	require.NoError(t, err)
	_, err = session.SignIn(ctx, "ada@example.com", "correct")
	require.NoError(t, err)

	_, err = session.AccessToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.refreshes.Load())
}

func TestRejectedRefreshSignsOut(t *testing.T) {
	fake, server, s := setup(t)
	ctx := context.Background()
	fake.rejectToken = true
	_, err := s.SaveSession(&store.SaveSessionRequest{Session: &store.Session{RefreshToken: "stale", UserID: "user-1"}})
	require.NoError(t, err)

	session, err := NewSession(server.URL, s)
	require.NoError(t, err)
	_, err = session.AccessToken(ctx)
	require.ErrorIs(t, err, ErrNotSignedIn)
	assert.Nil(t, session.User())
	_, err = s.GetSession()
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSignUp(t *testing.T) {
	fake, server, s := setup(t)
	ctx := context.Background()

	session, err := NewSession(server.URL, s)
	require.NoError(t, err)

	fake.pendingSignUp = true
	result, err := session.SignUp(ctx, "new@example.com", "pw", "New")
	require.NoError(t, err)
	assert.True(t, result.VerificationPending)
	assert.Nil(t, session.User())

	fake.pendingSignUp = false
	result, err = session.SignUp(ctx, "new@example.com", "pw", "New")
	require.NoError(t, err)
	assert.False(t, result.VerificationPending)
	assert.Equal(t, "user-2", result.User.ID)
}

func TestSignOut(t *testing.T) {
	fake, server, s := setup(t)
	ctx := context.Background()

	session, err := NewSession(server.URL, s)
	require.NoError(t, err)
	_, err = session.SignIn(ctx, "ada@example.com", "correct")
	require.NoError(t, err)

	require.NoError(t, session.SignOut(ctx))
	assert.Equal(t, int32(1), fake.signOuts.Load())
	assert.Nil(t, session.User())
	_, err = s.GetSession()
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, session.SignOut(ctx))
	assert.Equal(t, int32(1), fake.signOuts.Load())
}

func TestProviderURL(t *testing.T) {
	_, server, s := setup(t)
	session, err := NewSession(server.URL+"/", s)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/signin/provider/discord", session.ProviderURL("discord", ""))
	assert.Equal(t, server.URL+"/signin/provider/discord?redirectTo=http%3A%2F%2Flocalhost%3A8080", session.ProviderURL("discord", "http://localhost:8080"))
}
