package service

import (
	"fmt"
	"path"
	"time"

	"github.com/mattsolo1/grove-campus/pkg/models"
	"github.com/mattsolo1/grove-campus/pkg/search"
)

// Search looks through everything fetched so far. It works offline.
func (s *Service) Search(query string, opts *search.Options) ([]search.Result, error) {
	return s.Index.Search(query, opts)
}

func (s *Service) putDocuments(docs []search.Document) {
	if len(docs) == 0 {
		return
	}
	if err := s.Index.Put(docs...); err != nil {
		s.Logger.WithError(err).Warn("failed to update search index")
	}
}

func announcementKey(courseID string, a models.Announcement) string {
	return fmt.Sprintf("%s:%s:%d:%s", search.KindAnnouncement, courseID, a.PublishDate, a.Title)
}

func (s *Service) indexAnnouncements(courseID string, announcements []models.Announcement) {
	docs := make([]search.Document, 0, len(announcements))
	for _, a := range announcements {
		docs = append(docs, search.Document{
			Key:      announcementKey(courseID, a),
			Kind:     search.KindAnnouncement,
			CourseID: courseID,
			Title:    a.Title,
			Content:  search.PlainText(a.Description),
			Author:   a.Author.FullName,
			Date:     time.UnixMilli(a.PublishDate),
		})
	}
	s.putDocuments(docs)
}

func (s *Service) indexFiles(courseID string, contents models.FolderContents) {
	var docs []search.Document
	var walk func(models.FolderContents, string)
	walk = func(c models.FolderContents, dir string) {
		for _, f := range c.Files {
			docs = append(docs, search.Document{
				Key:      search.KindFile + ":" + f.ID,
				Kind:     search.KindFile,
				CourseID: courseID,
				Title:    f.Name,
				Content:  dir,
				Author:   f.Author.FullName,
				Date:     time.Unix(f.DateModified, 0),
			})
		}
		for _, folder := range c.Folders {
			walk(folder.Contents, path.Join(dir, folder.Name))
		}
	}
	walk(contents, "/")
	s.putDocuments(docs)
}

func (s *Service) indexMessages(messages []models.Message) {
	docs := make([]search.Document, 0, len(messages))
	for _, m := range messages {
		doc := search.Document{
			Key:    search.KindMessage + ":" + m.ID,
			Kind:   search.KindMessage,
			Title:  m.Title,
			Author: m.Author.FullName,
			Date:   time.UnixMilli(m.SendTime),
		}
		// Keep a body indexed earlier.
		if prev, ok, err := s.Index.Get(doc.Key); err == nil && ok {
			doc.Content = prev.Content
		}
		docs = append(docs, doc)
	}
	s.putDocuments(docs)
}

func (s *Service) indexMessageBody(messageID string, details *models.MessageDetails) {
	doc := search.Document{Key: search.KindMessage + ":" + messageID, Kind: search.KindMessage}
	if prev, ok, err := s.Index.Get(doc.Key); err == nil && ok {
		doc = prev
	}
	doc.Content = search.PlainText(details.Content)
	s.putDocuments([]search.Document{doc})
}
