package service

import (
	"context"

	"github.com/mattsolo1/grove-campus/pkg/api"
	"github.com/mattsolo1/grove-campus/pkg/cache"
	"github.com/mattsolo1/grove-campus/pkg/models"
)

// revalidate streams the cached value for key and then a fresh one fetched
// with the active client.
func revalidate[T any](ctx context.Context, s *Service, key string, fetch func(context.Context, *api.Client) (T, error)) <-chan cache.Update[T] {
	return cache.Revalidate(ctx, s.Cache, key, func(ctx context.Context) (T, error) {
		client, err := s.Client()
		if err != nil {
			var zero T
			return zero, err
		}
		return fetch(ctx, client)
	})
}

// Courses streams the course list: the cached one, if any, then the fresh one.
func (s *Service) Courses(ctx context.Context) <-chan cache.Update[*models.CourseList] {
	return revalidate(ctx, s, cache.KeyCourses, func(ctx context.Context, c *api.Client) (*models.CourseList, error) {
		return c.GetCourses(ctx)
	})
}

// SetSemester switches the listed semester. The result replaces the cached
// course list.
func (s *Service) SetSemester(ctx context.Context, semesterID string) (*models.CourseList, error) {
	client, err := s.Client()
	if err != nil {
		return nil, err
	}
	list, err := client.SetSemester(ctx, semesterID)
	if err != nil {
		return nil, err
	}
	cache.Set(ctx, s.Cache, cache.KeyCourses, list)
	return list, nil
}

// Course streams the overview of one course.
func (s *Service) Course(ctx context.Context, courseID string) <-chan cache.Update[*models.CourseMetadata] {
	return revalidate(ctx, s, cache.CourseKey(courseID), func(ctx context.Context, c *api.Client) (*models.CourseMetadata, error) {
		meta, err := c.GetCourse(ctx, courseID)
		if err == nil {
			s.indexAnnouncements(courseID, meta.Announcements)
		}
		return meta, err
	})
}

// CourseFiles streams the file tree of one course.
func (s *Service) CourseFiles(ctx context.Context, courseID string) <-chan cache.Update[*models.FolderContents] {
	return revalidate(ctx, s, cache.FilesKey(courseID), func(ctx context.Context, c *api.Client) (*models.FolderContents, error) {
		contents, err := c.GetCourseFiles(ctx, courseID)
		if err == nil {
			s.indexFiles(courseID, *contents)
		}
		return contents, err
	})
}

// Messages streams the inbox.
func (s *Service) Messages(ctx context.Context) <-chan cache.Update[[]models.Message] {
	return revalidate(ctx, s, cache.KeyMessages, func(ctx context.Context, c *api.Client) ([]models.Message, error) {
		messages, err := c.GetMessages(ctx)
		if err == nil {
			s.indexMessages(messages)
		}
		return messages, err
	})
}

// MessageDetails streams the body of one message.
func (s *Service) MessageDetails(ctx context.Context, messageID string) <-chan cache.Update[*models.MessageDetails] {
	return revalidate(ctx, s, cache.MessageKey(messageID), func(ctx context.Context, c *api.Client) (*models.MessageDetails, error) {
		details, err := c.GetMessageDetails(ctx, messageID)
		if err == nil {
			s.indexMessageBody(messageID, details)
		}
		return details, err
	})
}

// courseName looks a course up in the cached course list.
func (s *Service) courseName(ctx context.Context, courseID string) string {
	if list, ok := cache.Peek[*models.CourseList](ctx, s.Cache, cache.KeyCourses); ok && list != nil {
		if c, ok := list.Find(courseID); ok {
			return c.Name
		}
	}
	return courseID
}
