package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/mattsolo1/grove-campus/pkg/frontmatter"
)

// ExportAnnouncements writes the announcements of a course as markdown notes
// into dir. Notes from earlier exports keep their body and extra keys; only
// the counters and export time are refreshed.
func (s *Service) ExportAnnouncements(ctx context.Context, courseID, dir string) ([]string, error) {
	client, err := s.Client()
	if err != nil {
		return nil, err
	}
	meta, err := client.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	s.indexAnnouncements(courseID, meta.Announcements)

	now := s.now()
	var written []string
	for _, a := range meta.Announcements {
		note, err := frontmatter.Announcement(a, meta.Title, s.Config.Location, now)
		if err != nil {
			return written, err
		}
		path, err := s.writeNote(dir, note, map[string]interface{}{
			"exported": frontmatter.FormatTimestamp(now.In(s.Config.Location)),
			"visits":   a.Visits,
			"comments": a.Comments,
		})
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// ExportMessages writes every inbox message, body included, into dir.
func (s *Service) ExportMessages(ctx context.Context, dir string) ([]string, error) {
	client, err := s.Client()
	if err != nil {
		return nil, err
	}
	messages, err := client.GetMessages(ctx)
	if err != nil {
		return nil, err
	}
	s.indexMessages(messages)

	now := s.now()
	var written []string
	for _, m := range messages {
		details, err := client.GetMessageDetails(ctx, m.ID)
		if err != nil {
			s.Logger.WithError(err).WithField("message", m.ID).Warn("skipping message")
			continue
		}
		s.indexMessageBody(m.ID, details)
		note, err := frontmatter.Message(m, *details, s.Config.Location, now)
		if err != nil {
			return written, err
		}
		path, err := s.writeNote(dir, note, map[string]interface{}{
			"exported": frontmatter.FormatTimestamp(now.In(s.Config.Location)),
		})
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// writeNote creates the note, or refreshes fields of an existing one.
func (s *Service) writeNote(dir string, note frontmatter.Note, refresh map[string]interface{}) (string, error) {
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, note.Name)

	existing, err := afero.ReadFile(s.fs, path)
	switch {
	case err == nil:
		updated, err := frontmatter.UpdateFields(existing, refresh)
		if err != nil {
			return "", fmt.Errorf("update %s: %w", path, err)
		}
		return path, afero.WriteFile(s.fs, path, updated, 0o644)
	case os.IsNotExist(err):
		return path, afero.WriteFile(s.fs, path, []byte(note.Content), 0o644)
	default:
		return "", err
	}
}
