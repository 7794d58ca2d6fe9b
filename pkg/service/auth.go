package service

import (
	"context"
	"fmt"

	"github.com/mattsolo1/grove-campus/pkg/registry"
	"github.com/mattsolo1/grove-campus/pkg/session"
)

// Login authenticates with username and password and stores the session.
// With remember set the password is sealed in the vault so Resume can log
// in again once the token expires.
func (s *Service) Login(ctx context.Context, host, username, password string, remember bool) (string, error) {
	sess, err := s.newSession(host)
	if err != nil {
		s.dropClient()
		return "", err
	}
	token, err := sess.Login(ctx, username, password)
	if err != nil {
		s.dropClient()
		return "", err
	}

	last := s.lastSession()
	if last == nil || last.Host != sess.Host() || last.Username != username {
		s.forgetAccountData(ctx)
	} else {
		s.Cache.Reset()
	}
	s.adopt(sess)

	if err := s.Registry.SaveSession(sess.Host(), username, token); err != nil {
		s.Logger.WithError(err).Warn("failed to remember session")
	}
	if remember {
		if err := s.Vault.Encrypt(password); err != nil {
			s.Logger.WithError(err).Warn("failed to store password")
		}
	}
	return token, nil
}

// LoginWithToken adopts an existing session token if the portal accepts it.
// A rejected token leaves the service logged out. The account name is only
// kept when the token is the one stored by the last password login.
func (s *Service) LoginWithToken(ctx context.Context, host, token string) bool {
	sess, err := s.newSession(host)
	if err != nil {
		s.Logger.WithError(err).Debug("token login")
		s.dropClient()
		return false
	}
	if !sess.LoginWithToken(ctx, token) {
		s.dropClient()
		return false
	}

	username := ""
	last := s.lastSession()
	if last != nil && last.Host == sess.Host() && last.Token != "" && last.Token == token {
		username = last.Username
	} else {
		s.forgetAccountData(ctx)
	}
	s.adopt(sess)

	if err := s.Registry.SaveSession(sess.Host(), username, token); err != nil {
		s.Logger.WithError(err).Warn("failed to remember session")
	}
	return true
}

// Resume restores the last session: the stored token first, then a fresh
// login with the stored password. It reports false when neither works.
func (s *Service) Resume(ctx context.Context) (bool, error) {
	last, err := s.Registry.LastSession()
	if err != nil {
		return false, fmt.Errorf("read last session: %w", err)
	}
	if last == nil {
		return false, nil
	}
	if last.Token != "" && s.LoginWithToken(ctx, last.Host, last.Token) {
		return true, nil
	}

	password, ok := s.Vault.Decrypt()
	if !ok || last.Username == "" {
		return false, nil
	}
	if _, err := s.Login(ctx, last.Host, last.Username, password, false); err != nil {
		return false, err
	}
	return true, nil
}

// Logout drops the session, the stored token and the stored password
// together with everything cached for the account.
func (s *Service) Logout() error {
	s.dropClient()
	s.forgetAccountData(context.Background())
	if err := s.Registry.ClearSession(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	if err := s.Vault.Forget(); err != nil {
		return fmt.Errorf("forget password: %w", err)
	}
	return nil
}

func (s *Service) dropClient() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Session().Clear()
	}
	s.client = nil
}

func (s *Service) lastSession() *registry.SessionRecord {
	last, err := s.Registry.LastSession()
	if err != nil {
		s.Logger.WithError(err).Warn("failed to read last session")
		return nil
	}
	return last
}

// forgetAccountData purges the cache and the search index.
func (s *Service) forgetAccountData(ctx context.Context) {
	if err := s.Cache.Purge(ctx); err != nil {
		s.Logger.WithError(err).Warn("failed to purge cache")
	}
	if err := s.Index.Purge(); err != nil {
		s.Logger.WithError(err).Warn("failed to purge search index")
	}
}

// Session returns the active session, if any.
func (s *Service) Session() (*session.Session, bool) {
	client, err := s.Client()
	if err != nil {
		return nil, false
	}
	return client.Session(), true
}
