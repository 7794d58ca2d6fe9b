package sync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	gosync "sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/mattsolo1/grove-campus/pkg/models"
)

// Syncer mirrors remote folder trees to a filesystem. It keeps no state
// between runs; every decision is made from what is on disk right now.
type Syncer struct {
	downloader Downloader
	fs         afero.Fs
	logger     *logrus.Entry
	limit      *semaphore.Weighted
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithFs sets the target filesystem. The default is the OS filesystem.
func WithFs(fs afero.Fs) Option {
	return func(s *Syncer) { s.fs = fs }
}

// WithLogger sets the syncer logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Syncer) { s.logger = logger }
}

// WithMaxDownloads bounds the number of concurrent downloads. Zero means no
// bound.
func WithMaxDownloads(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.limit = semaphore.NewWeighted(int64(n))
		} else {
			s.limit = nil
		}
	}
}

// NewSyncer creates a new Syncer.
func NewSyncer(downloader Downloader, opts ...Option) *Syncer {
	s := &Syncer{
		downloader: downloader,
		fs:         afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logrus.NewEntry(logrus.New())
	}
	s.logger = s.logger.WithField("component", "sync")
	return s
}

// tally collects results from concurrent workers.
type tally struct {
	downloaded     atomic.Int32
	unchanged      atomic.Int32
	foldersCreated atomic.Int32
	failed         atomic.Int32

	mu     gosync.Mutex
	errors []string
}

func (t *tally) fail(path string, err error) {
	t.failed.Add(1)
	t.mu.Lock()
	t.errors = append(t.errors, fmt.Sprintf("%s: %v", path, err))
	t.mu.Unlock()
}

func (t *tally) report(root string) *Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	return &Report{
		Root:           root,
		Downloaded:     int(t.downloaded.Load()),
		Unchanged:      int(t.unchanged.Load()),
		FoldersCreated: int(t.foldersCreated.Load()),
		Failed:         int(t.failed.Load()),
		Errors:         append([]string{}, t.errors...),
	}
}

// SyncContents makes root mirror contents. Files are downloaded when they
// are missing or their size differs from the remote size. Failing files are
// recorded in the report and do not stop their siblings; an error is only
// returned when root itself cannot be prepared or ctx ends.
func (s *Syncer) SyncContents(ctx context.Context, contents models.FolderContents, root string) (*Report, error) {
	t := &tally{}
	if err := s.ensureDir(root, t); err != nil {
		return nil, fmt.Errorf("prepare %s: %w", root, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	s.syncLevel(gctx, g, contents, root, t)
	if err := g.Wait(); err != nil {
		return t.report(root), err
	}
	if err := ctx.Err(); err != nil {
		return t.report(root), err
	}

	report := t.report(root)
	s.logger.WithFields(logrus.Fields{
		"root":       root,
		"downloaded": report.Downloaded,
		"unchanged":  report.Unchanged,
		"failed":     report.Failed,
	}).Info("sync finished")
	return report, nil
}

// syncLevel schedules every folder and file of one level on g.
func (s *Syncer) syncLevel(ctx context.Context, g *errgroup.Group, contents models.FolderContents, dir string, t *tally) {
	for _, folder := range contents.Folders {
		g.Go(func() error {
			path := filepath.Join(dir, SafeName(folder.Name))
			if err := s.ensureDir(path, t); err != nil {
				t.fail(path, err)
				return nil
			}
			s.syncLevel(ctx, g, folder.Contents, path, t)
			return nil
		})
	}
	for _, file := range contents.Files {
		g.Go(func() error {
			return s.syncFile(ctx, file, filepath.Join(dir, SafeName(file.Name)), t)
		})
	}
}

func (s *Syncer) ensureDir(path string, t *tally) error {
	info, err := s.fs.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", path)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	if err := s.fs.MkdirAll(path, 0o755); err != nil {
		return err
	}
	t.foldersCreated.Add(1)
	return nil
}

// syncFile only returns an error when ctx ends, which stops the whole sync.
func (s *Syncer) syncFile(ctx context.Context, file models.File, path string, t *tally) error {
	if info, err := s.fs.Stat(path); err == nil && !info.IsDir() && info.Size() == file.Size {
		t.unchanged.Add(1)
		return nil
	}

	if s.limit != nil {
		if err := s.limit.Acquire(ctx, 1); err != nil {
			return err
		}
		defer s.limit.Release(1)
	}

	data, err := s.downloader.Download(ctx, file)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.WithError(err).WithField("file", path).Warn("download failed")
		t.fail(path, err)
		return nil
	}
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		t.fail(path, err)
		return nil
	}
	s.logger.WithField("file", path).Debug("downloaded")
	t.downloaded.Add(1)
	return nil
}

// Plan lists what SyncContents would do, without touching the filesystem.
// Folders that do not exist yet are planned as created and everything below
// them as downloads.
func (s *Syncer) Plan(ctx context.Context, contents models.FolderContents, root string) ([]Action, error) {
	var actions []Action
	exists, err := s.planDir(root, &actions)
	if err != nil {
		return nil, err
	}
	if err := s.planLevel(ctx, contents, root, exists, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

func (s *Syncer) planDir(path string, actions *[]Action) (bool, error) {
	info, err := s.fs.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", path)
		}
		return true, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}
	*actions = append(*actions, Action{Kind: ActionCreateFolder, Path: path})
	return false, nil
}

func (s *Syncer) planLevel(ctx context.Context, contents models.FolderContents, dir string, dirExists bool, actions *[]Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, folder := range contents.Folders {
		path := filepath.Join(dir, SafeName(folder.Name))
		exists := false
		if dirExists {
			var err error
			if exists, err = s.planDir(path, actions); err != nil {
				return err
			}
		} else {
			*actions = append(*actions, Action{Kind: ActionCreateFolder, Path: path})
		}
		if err := s.planLevel(ctx, folder.Contents, path, exists, actions); err != nil {
			return err
		}
	}
	for _, file := range contents.Files {
		path := filepath.Join(dir, SafeName(file.Name))
		action := Action{Kind: ActionDownload, Path: path, File: &file, Reason: "missing"}
		if dirExists {
			if info, err := s.fs.Stat(path); err == nil && !info.IsDir() {
				if info.Size() == file.Size {
					action = Action{Kind: ActionSkip, Path: path, File: &file, Reason: "unchanged"}
				} else {
					action.Reason = fmt.Sprintf("size %d, remote %d", info.Size(), file.Size)
				}
			}
		}
		*actions = append(*actions, action)
	}
	return nil
}

// SafeName turns a remote name into a single path element. Separators are
// replaced and the relative names "." and ".." are escaped.
func SafeName(name string) string {
	name = strings.NewReplacer("/", "_", `\`, "_").Replace(name)
	switch name {
	case "", ".", "..":
		return strings.Repeat("_", len(name)+1)
	}
	return name
}
