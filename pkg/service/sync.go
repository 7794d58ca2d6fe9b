package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/mattsolo1/grove-campus/pkg/cache"
	"github.com/mattsolo1/grove-campus/pkg/models"
	"github.com/mattsolo1/grove-campus/pkg/sync"
)

// SyncResult is the outcome of syncing one course.
type SyncResult struct {
	CourseID string       `json:"course_id"`
	Path     string       `json:"path"`
	Report   *sync.Report `json:"report,omitempty"`
	Error    string       `json:"error,omitempty"`
}

func (s *Service) syncer() (*sync.Syncer, error) {
	client, err := s.Client()
	if err != nil {
		return nil, err
	}
	return sync.NewSyncer(client,
		sync.WithFs(s.fs),
		sync.WithLogger(s.Logger),
		sync.WithMaxDownloads(s.Config.MaxDownloads),
	), nil
}

// SyncFolder mirrors already loaded contents to path.
func (s *Service) SyncFolder(ctx context.Context, contents models.FolderContents, path string) (*sync.Report, error) {
	syncer, err := s.syncer()
	if err != nil {
		return nil, err
	}
	return syncer.SyncContents(ctx, contents, path)
}

// SyncTargetPath resolves where a course is synced to: an explicit path, the
// remembered target, a configured target, or a folder named after the
// course below the sync root.
func (s *Service) SyncTargetPath(ctx context.Context, courseID, path string) (string, error) {
	if path != "" {
		return filepath.Abs(path)
	}
	if target, err := s.Registry.SyncTarget(courseID); err != nil {
		return "", fmt.Errorf("read sync target: %w", err)
	} else if target != nil {
		return target.Path, nil
	}
	for _, t := range s.Config.Targets {
		if t.CourseID == courseID {
			return filepath.Abs(t.Path)
		}
	}
	return filepath.Join(s.syncRoot(), sync.SafeName(s.courseName(ctx, courseID))), nil
}

// SyncCourse loads the file tree of a course, mirrors it and remembers the
// target for later runs.
func (s *Service) SyncCourse(ctx context.Context, courseID, path string) (*sync.Report, error) {
	client, err := s.Client()
	if err != nil {
		return nil, err
	}
	target, err := s.SyncTargetPath(ctx, courseID, path)
	if err != nil {
		return nil, err
	}

	contents, err := client.GetCourseFiles(ctx, courseID)
	if err != nil {
		return nil, err
	}
	cache.Set(ctx, s.Cache, cache.FilesKey(courseID), contents)
	s.indexFiles(courseID, *contents)

	report, err := s.SyncFolder(ctx, *contents, target)
	if err != nil {
		return report, err
	}

	if err := s.Registry.SetSyncTarget(courseID, s.courseName(ctx, courseID), target); err != nil {
		s.Logger.WithError(err).Warn("failed to remember sync target")
	} else if err := s.Registry.MarkSynced(courseID, s.now()); err != nil {
		s.Logger.WithError(err).Warn("failed to record sync")
	}
	return report, nil
}

// PlanCourse lists what SyncCourse would do.
func (s *Service) PlanCourse(ctx context.Context, courseID, path string) ([]sync.Action, error) {
	client, err := s.Client()
	if err != nil {
		return nil, err
	}
	target, err := s.SyncTargetPath(ctx, courseID, path)
	if err != nil {
		return nil, err
	}
	contents, err := client.GetCourseFiles(ctx, courseID)
	if err != nil {
		return nil, err
	}
	syncer, err := s.syncer()
	if err != nil {
		return nil, err
	}
	return syncer.Plan(ctx, *contents, target)
}

// SyncAll syncs every configured and remembered target. A failing course
// does not stop the others.
func (s *Service) SyncAll(ctx context.Context) ([]SyncResult, error) {
	targets, err := s.allTargets()
	if err != nil {
		return nil, err
	}

	results := make([]SyncResult, 0, len(targets))
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result := SyncResult{CourseID: t.CourseID, Path: t.Path}
		report, err := s.SyncCourse(ctx, t.CourseID, t.Path)
		result.Report = report
		if err != nil {
			result.Error = err.Error()
			s.Logger.WithError(err).WithField("course", t.CourseID).Warn("sync failed")
		}
		results = append(results, result)
	}
	return results, nil
}

// allTargets merges configured targets with remembered ones. A configured
// path wins.
func (s *Service) allTargets() ([]sync.Target, error) {
	seen := make(map[string]bool)
	var targets []sync.Target
	for _, t := range s.Config.Targets {
		if !seen[t.CourseID] {
			seen[t.CourseID] = true
			targets = append(targets, t)
		}
	}

	remembered, err := s.Registry.ListSyncTargets()
	if err != nil {
		return nil, fmt.Errorf("list sync targets: %w", err)
	}
	for _, t := range remembered {
		if !seen[t.CourseID] {
			seen[t.CourseID] = true
			targets = append(targets, sync.Target{CourseID: t.CourseID, Path: t.Path})
		}
	}
	return targets, nil
}

// DownloadFile saves one file into dir and returns the written path.
func (s *Service) DownloadFile(ctx context.Context, fileName, downloadURL, dir string) (string, error) {
	client, err := s.Client()
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = filepath.Join(s.syncRoot(), "Downloads")
	}
	data, err := client.GetFileContents(ctx, downloadURL)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, sync.SafeName(fileName))
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
