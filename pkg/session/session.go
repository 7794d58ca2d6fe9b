// Package session holds the portal host and session token and performs every
// HTTP request on their behalf.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-campus/pkg/extract"
)

// CookieName is the portal's session cookie.
const CookieName = "Seminar_Session"

// ErrLoginFailed is returned when the portal does not hand out a session.
var ErrLoginFailed = errors.New("login failed")

// Session is a portal host plus an optional session token. It is safe for
// concurrent use.
type Session struct {
	mu     sync.RWMutex
	host   string
	token  string
	client *http.Client
	logger *logrus.Entry
}

// Option configures a Session.
type Option func(*Session)

// WithToken starts the session with an existing token.
func WithToken(token string) Option {
	return func(s *Session) { s.token = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) { s.client = c }
}

// WithLogger sets the logger requests are traced to.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Session) { s.logger = logger }
}

// New creates a session for host. A missing trailing slash is added.
func New(host string, opts ...Option) *Session {
	if !strings.HasSuffix(host, "/") {
		host += "/"
	}
	s := &Session{host: host}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = &http.Client{Timeout: 60 * time.Second}
	}
	if s.logger == nil {
		s.logger = logrus.NewEntry(logrus.New())
	}
	s.logger = s.logger.WithField("component", "session")
	return s
}

// Host returns the normalised portal base URL.
func (s *Session) Host() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.host
}

// Token returns the current session token, or "" when unauthenticated.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is held. It does not verify it.
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

func (s *Session) setToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
}

// Clear drops the token.
func (s *Session) Clear() {
	s.setToken("")
}

// Login authenticates with username and password and adopts the resulting
// token. Nothing is posted when the login form lacks its hidden fields.
func (s *Session) Login(ctx context.Context, username, password string) (string, error) {
	page, preLogin, err := s.loginForm(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	securityToken, ok := extract.SecurityToken(page)
	if !ok {
		return "", fmt.Errorf("%w: security token not found", ErrLoginFailed)
	}
	loginTicket, ok := extract.LoginTicket(page)
	if !ok {
		return "", fmt.Errorf("%w: login ticket not found", ErrLoginFailed)
	}

	form := url.Values{
		"security_token": {securityToken},
		"login_ticket":   {loginTicket},
		"resolution":     {"1920x1080"},
		"loginname":      {username},
		"password":       {password},
		"login":          {""},
	}
	req, err := s.newRequest(ctx, http.MethodPost, s.Host()+"index.php", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if preLogin != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: preLogin})
	}

	// The session cookie is only visible on the redirect itself.
	client := *s.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrLoginFailed, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	token := sessionCookie(resp)
	if token == "" || token == preLogin {
		return "", ErrLoginFailed
	}
	s.setToken(token)
	s.logger.WithField("user", username).Debug("logged in")
	return token, nil
}

// loginForm fetches the start page and the pre-login session cookie it sets.
func (s *Session) loginForm(ctx context.Context) (string, string, error) {
	req, err := s.newRequest(ctx, http.MethodGet, s.Host()+"index.php", nil)
	if err != nil {
		return "", "", err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", err
	}
	return string(body), sessionCookie(resp), nil
}

// LoginWithToken adopts token and keeps it only if the portal accepts it.
func (s *Session) LoginWithToken(ctx context.Context, token string) bool {
	s.setToken(token)
	if s.VerifyToken(ctx) {
		return true
	}
	s.Clear()
	return false
}

// VerifyToken reports whether the held token still opens a protected page.
func (s *Session) VerifyToken(ctx context.Context) bool {
	if !s.Authenticated() {
		return false
	}
	body, err := s.Get(ctx, "dispatch.php/profile")
	if err != nil {
		s.logger.WithError(err).Debug("token verification failed")
		return false
	}
	return !extract.IsLoginForm(body)
}

// Get fetches a path relative to the host.
func (s *Session) Get(ctx context.Context, path string) (string, error) {
	body, err := s.GetAbsolute(ctx, s.Host()+path)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// GetAbsolute fetches an absolute URL with the session cookie attached.
// Responses outside 2xx are errors.
func (s *Session) GetAbsolute(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := s.newRequest(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return s.do(req)
}

func (s *Session) newRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"method": method, "url": rawURL}).Debug("request")
	return req, nil
}

func (s *Session) do(req *http.Request) ([]byte, error) {
	if token := s.Token(); token != "" {
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: unexpected status %s", req.Method, req.URL, resp.Status)
	}
	return body, nil
}

func sessionCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == CookieName {
			return c.Value
		}
	}
	return ""
}
