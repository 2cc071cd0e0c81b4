package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/malonaz/botchat/internal/debug"
	"github.com/malonaz/botchat/store"
)

// ErrNotSignedIn is returned by operations that need a signed-in user.
var ErrNotSignedIn = errors.New("not signed in")

// Access tokens this close to expiry are refreshed before use.
const expiryLeeway = 30 * time.Second

// User is the signed-in user's profile. It is read-only.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// Name returns the display name, falling back to the email.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Initial is the avatar fallback: the first letter of the name, upper-cased.
func (u *User) Initial() string {
	for _, r := range u.Name() {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// SessionStore persists the refresh token and profile across restarts.
type SessionStore interface {
	GetSession() (*store.Session, error)
	SaveSession(*store.SaveSessionRequest) (*store.Session, error)
	DeleteSession() error
}

// Session signs users in and out of the auth service and hands out access tokens.
// It is safe for concurrent use.
type Session struct {
	baseURL    string
	httpClient *http.Client
	store      SessionStore
	log        *zap.SugaredLogger
	now        func() time.Time

	mu           sync.Mutex
	user         *User
	refreshToken string
	accessToken  string
	expiry       time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithTimeout bounds every request to the auth service. 0 disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Session) { s.httpClient.Timeout = timeout }
}

// NewSession returns a session for the auth service at `baseURL`, restoring any persisted sign-in.
func NewSession(baseURL string, sessionStore SessionStore, opts ...Option) (*Session, error) {
	s := &Session{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{},
		store:      sessionStore,
		log:        debug.GetLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	persisted, err := sessionStore.GetSession()
	if errors.Is(err, store.ErrNotFound) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "restoring session")
	}
	s.refreshToken = persisted.RefreshToken
	s.user = &User{
		ID:          persisted.UserID,
		Email:       persisted.Email,
		DisplayName: persisted.DisplayName,
		AvatarURL:   persisted.AvatarURL,
	}
	return s, nil
}

// User returns the signed-in user, or nil.
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	user := *s.user
	return &user
}

// UserID returns the signed-in user's id, or "".
func (s *Session) UserID() string {
	if user := s.User(); user != nil {
		return user.ID
	}
	return ""
}

// SignIn authenticates with email and password.
func (s *Session) SignIn(ctx context.Context, email, password string) (*User, error) {
	resp := &signInResponse{}
	if err := s.post(ctx, "/signin/email-password", &credentials{Email: email, Password: password}, resp); err != nil {
		return nil, errors.Wrap(err, "signing in")
	}
	if resp.Session == nil {
		return nil, errors.New("signing in: no session returned")
	}
	if err := s.establish(resp.Session); err != nil {
		return nil, err
	}
	return s.User(), nil
}

// SignUpResult describes the outcome of a sign-up.
type SignUpResult struct {
	// Set when the account was created and signed in.
	User *User
	// True when the account must be confirmed by email before signing in.
	VerificationPending bool
}

// SignUp creates an account. The auth service may hold the session back until the email is verified.
func (s *Session) SignUp(ctx context.Context, email, password, displayName string) (*SignUpResult, error) {
	request := &credentials{Email: email, Password: password}
	if displayName != "" {
		request.Options = &signUpOptions{DisplayName: displayName}
	}
	resp := &signInResponse{}
	if err := s.post(ctx, "/signup/email-password", request, resp); err != nil {
		return nil, errors.Wrap(err, "signing up")
	}
	if resp.Session == nil {
		return &SignUpResult{VerificationPending: true}, nil
	}
	if err := s.establish(resp.Session); err != nil {
		return nil, err
	}
	return &SignUpResult{User: s.User()}, nil
}

// SignOut revokes the refresh token and forgets the session. The local session is cleared even when
// the auth service cannot be reached.
func (s *Session) SignOut(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.user = nil
	s.refreshToken = ""
	s.accessToken = ""
	s.expiry = time.Time{}
	s.mu.Unlock()

	if err := s.store.DeleteSession(); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	if refreshToken == "" {
		return nil
	}
	if err := s.post(ctx, "/signout", &refreshRequest{RefreshToken: refreshToken}, nil); err != nil {
		s.log.Warnw("revoking refresh token", "error", err)
		return errors.Wrap(err, "signing out")
	}
	return nil
}

// AccessToken returns a valid access token, refreshing it first when it is missing or about to expire.
func (s *Session) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.refreshToken == "" {
		return "", ErrNotSignedIn
	}
	if s.accessToken != "" && s.now().Add(expiryLeeway).Before(s.expiry) {
		return s.accessToken, nil
	}

	resp := &sessionPayload{}
	err := s.post(ctx, "/token", &refreshRequest{RefreshToken: s.refreshToken}, resp)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		s.log.Infow("refresh token rejected, signing out", "error", err)
		s.user, s.refreshToken, s.accessToken = nil, "", ""
		if err := s.store.DeleteSession(); err != nil {
			s.log.Warnw("deleting session", "error", err)
		}
		return "", errors.Wrap(ErrNotSignedIn, apiErr.Error())
	}
	if err != nil {
		return "", errors.Wrap(err, "refreshing access token")
	}
	if err := s.establishLocked(resp); err != nil {
		return "", err
	}
	return s.accessToken, nil
}

// ProviderURL returns the page that starts a federated sign-in with `provider`.
func (s *Session) ProviderURL(provider, redirectTo string) string {
	u := s.baseURL + "/signin/provider/" + url.PathEscape(provider)
	if redirectTo != "" {
		u += "?redirectTo=" + url.QueryEscape(redirectTo)
	}
	return u
}

func (s *Session) establish(payload *sessionPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.establishLocked(payload)
}

func (s *Session) establishLocked(payload *sessionPayload) error {
	claims, err := parseClaims(payload.AccessToken)
	if err != nil {
		return err
	}
	user := payload.User
	if user == nil {
		user = s.user
	}
	if user == nil {
		user = &User{}
	}
	if claims.Hasura.UserID != "" {
		user.ID = claims.Hasura.UserID
	}
	if user.ID == "" {
		return errors.New("access token carries no user id")
	}

	expiry := s.now().Add(time.Duration(payload.AccessTokenExpiresIn) * time.Second)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}
	refreshToken := payload.RefreshToken
	if refreshToken == "" {
		refreshToken = s.refreshToken
	}

	_, err = s.store.SaveSession(&store.SaveSessionRequest{Session: &store.Session{
		RefreshToken: refreshToken,
		UserID:       user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		AvatarURL:    user.AvatarURL,
	}})
	if err != nil {
		return errors.Wrap(err, "persisting session")
	}
	s.user = user
	s.refreshToken = refreshToken
	s.accessToken = payload.AccessToken
	s.expiry = expiry
	return nil
}

type hasuraClaims struct {
	Hasura struct {
		UserID      string `json:"x-hasura-user-id"`
		DefaultRole string `json:"x-hasura-default-role"`
	} `json:"https://hasura.io/jwt/claims"`
	jwt.RegisteredClaims
}

// parseClaims decodes the access token without verifying it: the backend verifies, we only read.
func parseClaims(token string) (*hasuraClaims, error) {
	claims := &hasuraClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, errors.Wrap(err, "parsing access token")
	}
	return claims, nil
}

func (s *Session) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshaling request")
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "creating request")
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := s.httpClient.Do(request)
	if err != nil {
		return errors.Wrapf(err, "calling %s", path)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: response.StatusCode}
		if err := json.NewDecoder(response.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(response.StatusCode)
		}
		apiErr.Status = response.StatusCode
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decoding %s response", path)
	}
	return nil
}
