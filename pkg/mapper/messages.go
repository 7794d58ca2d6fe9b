package mapper

import (
	"time"

	"github.com/mattsolo1/grove-campus/pkg/extract"
	"github.com/mattsolo1/grove-campus/pkg/models"
)

// Messages maps every complete inbox row; incomplete rows are dropped.
func Messages(page string, loc *time.Location) []models.Message {
	messages := []models.Message{}
	for _, raw := range extract.Messages(page) {
		if m, ok := Message(raw, loc); ok {
			messages = append(messages, m)
		}
	}
	return messages
}

// Message maps one inbox row.
func Message(raw extract.RawMessage, loc *time.Location) (models.Message, bool) {
	if raw.ID == "" || raw.Title == "" || raw.AuthorUsername == "" || raw.AuthorFullName == "" {
		return models.Message{}, false
	}
	sent, ok := calendarTime(loc, raw.Year, raw.Month, raw.Day, raw.Hour, raw.Minute)
	if !ok {
		return models.Message{}, false
	}
	return models.Message{
		ID:       raw.ID,
		Title:    raw.Title,
		Author:   models.User{Username: raw.AuthorUsername, FullName: raw.AuthorFullName},
		SendTime: sent.UnixMilli(),
	}, true
}

// MessageDetails maps a message read page.
func MessageDetails(page string) (*models.MessageDetails, error) {
	raw, ok := extract.MessageDetails(page)
	if !ok {
		return nil, ErrNotFound
	}
	return &models.MessageDetails{Recipients: raw.Recipients, Content: raw.Content}, nil
}
