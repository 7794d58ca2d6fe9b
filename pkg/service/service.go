package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	gosync "sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/text/language"

	"github.com/mattsolo1/grove-campus/pkg/api"
	"github.com/mattsolo1/grove-campus/pkg/cache"
	"github.com/mattsolo1/grove-campus/pkg/registry"
	"github.com/mattsolo1/grove-campus/pkg/search"
	"github.com/mattsolo1/grove-campus/pkg/secret"
	"github.com/mattsolo1/grove-campus/pkg/session"
	"github.com/mattsolo1/grove-campus/pkg/sync"
)

// ErrNotLoggedIn is returned by operations that need a portal session.
var ErrNotLoggedIn = errors.New("not logged in")

// Service is the core campus service. It owns the active session and
// everything that outlives a single request.
type Service struct {
	Config   *Config
	Registry *registry.Registry
	Vault    *secret.Vault
	Cache    *cache.Cache
	Index    *search.Index
	Logger   *logrus.Entry

	persistent *cache.SQLite
	fs         afero.Fs
	now        func() time.Time

	mu     gosync.RWMutex
	client *api.Client
}

// Config holds service configuration
type Config struct {
	Host         string
	DataDir      string
	SyncRoot     string
	Language     language.Tag
	Location     *time.Location
	MaxDownloads int
	Targets      []sync.Target
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Service) { s.Logger = logger }
}

// WithFs sets the filesystem synced and exported files are written to.
func WithFs(fs afero.Fs) Option {
	return func(s *Service) { s.fs = fs }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a new campus service
func New(config *Config, opts ...Option) (*Service, error) {
	if config.DataDir == "" {
		return nil, fmt.Errorf("data dir is not configured")
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Language == language.Und {
		config.Language = language.German
	}

	s := &Service{
		Config: config,
		fs:     afero.NewOsFs(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Logger == nil {
		s.Logger = logrus.NewEntry(logrus.New())
	}

	reg, err := registry.NewRegistry(config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	persistent, err := cache.NewSQLite(filepath.Join(config.DataDir, "cache.db"))
	if err != nil {
		reg.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}
	index, err := search.NewIndex(filepath.Join(config.DataDir, "search.db"))
	if err != nil {
		persistent.Close()
		reg.Close()
		return nil, fmt.Errorf("open search index: %w", err)
	}

	s.Registry = reg
	s.persistent = persistent
	s.Index = index
	s.Cache = cache.New(cache.NewMemory(), persistent, s.Logger)
	s.Vault = secret.NewVault(filepath.Join(config.DataDir, "vault"))
	return s, nil
}

// Close closes the service
func (s *Service) Close() error {
	var errs []error
	if s.Index != nil {
		errs = append(errs, s.Index.Close())
	}
	if s.persistent != nil {
		errs = append(errs, s.persistent.Close())
	}
	if s.Registry != nil {
		errs = append(errs, s.Registry.Close())
	}
	return errors.Join(errs...)
}

// Client returns the portal client of the active session.
func (s *Service) Client() (*api.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return nil, ErrNotLoggedIn
	}
	return s.client, nil
}

func (s *Service) adopt(sess *session.Session) {
	client := api.NewClient(sess,
		api.WithLogger(s.Logger),
		api.WithLanguage(s.Config.Language),
		api.WithLocation(s.Config.Location),
	)
	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
}

func (s *Service) newSession(host string, opts ...session.Option) (*session.Session, error) {
	if host == "" {
		host = s.Config.Host
	}
	if host == "" {
		return nil, fmt.Errorf("portal host is not configured")
	}
	return session.New(host, append(opts, session.WithLogger(s.Logger))...), nil
}

// syncRoot is where courses without an explicit target are synced to.
func (s *Service) syncRoot() string {
	if s.Config.SyncRoot != "" {
		return s.Config.SyncRoot
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "Campus")
	}
	return filepath.Join(s.Config.DataDir, "sync")
}
