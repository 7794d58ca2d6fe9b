package registry

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"
)

// SyncTarget is the local directory one course is mirrored to.
type SyncTarget struct {
	CourseID   string     `json:"course_id" yaml:"course_id"`
	CourseName string     `json:"course_name" yaml:"course_name"`
	Path       string     `json:"path" yaml:"path"`
	CreatedAt  time.Time  `json:"created_at" yaml:"created_at"`
	LastSynced *time.Time `json:"last_synced,omitempty" yaml:"last_synced,omitempty"`
}

// Validate checks if the target is usable
func (t *SyncTarget) Validate() error {
	if t.CourseID == "" {
		return fmt.Errorf("course id cannot be empty")
	}
	if t.Path == "" {
		return fmt.Errorf("sync path cannot be empty")
	}
	if !filepath.IsAbs(t.Path) {
		return fmt.Errorf("sync path must be absolute: %s", t.Path)
	}
	return nil
}

// SetSyncTarget remembers where a course is synced to. Setting it again
// moves the target and keeps its sync history.
func (r *Registry) SetSyncTarget(courseID, courseName, path string) error {
	t := &SyncTarget{CourseID: courseID, CourseName: courseName, Path: path}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("validate sync target: %w", err)
	}

	query := `
	INSERT INTO sync_targets (course_id, course_name, path, created_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(course_id) DO UPDATE SET course_name = excluded.course_name, path = excluded.path
	`
	_, err := r.db.Exec(query, courseID, courseName, filepath.Clean(path), time.Now())
	return err
}

// SyncTarget returns the target of a course, or nil when none is set.
func (r *Registry) SyncTarget(courseID string) (*SyncTarget, error) {
	query := `
	SELECT course_id, course_name, path, created_at, last_synced
	FROM sync_targets WHERE course_id = ?
	`
	t, err := scanTarget(r.db.QueryRow(query, courseID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

// ListSyncTargets returns all targets, most recently synced first.
func (r *Registry) ListSyncTargets() ([]*SyncTarget, error) {
	query := `
	SELECT course_id, course_name, path, created_at, last_synced
	FROM sync_targets ORDER BY last_synced IS NULL, last_synced DESC, course_name
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []*SyncTarget
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// RemoveSyncTarget forgets the target of a course. Files on disk stay.
func (r *Registry) RemoveSyncTarget(courseID string) error {
	_, err := r.db.Exec("DELETE FROM sync_targets WHERE course_id = ?", courseID)
	return err
}

// MarkSynced records a finished sync.
func (r *Registry) MarkSynced(courseID string, at time.Time) error {
	res, err := r.db.Exec("UPDATE sync_targets SET last_synced = ? WHERE course_id = ?", at, courseID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("sync target not found: %s", courseID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTarget(row scanner) (*SyncTarget, error) {
	t := &SyncTarget{}
	var lastSynced sql.NullTime
	if err := row.Scan(&t.CourseID, &t.CourseName, &t.Path, &t.CreatedAt, &lastSynced); err != nil {
		return nil, err
	}
	if lastSynced.Valid {
		synced := lastSynced.Time
		t.LastSynced = &synced
	}
	return t, nil
}
