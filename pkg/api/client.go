// Package api is the portal client. Every operation issues authenticated
// requests through a session, hands the page to the extractors and returns
// mapped domain values.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/mattsolo1/grove-campus/pkg/extract"
	"github.com/mattsolo1/grove-campus/pkg/mapper"
	"github.com/mattsolo1/grove-campus/pkg/models"
	"github.com/mattsolo1/grove-campus/pkg/session"
)

// ErrUnavailable wraps every expected failure: transport errors, a page that
// turned out to be the login form, missing or malformed data.
var ErrUnavailable = errors.New("portal data unavailable")

// Client talks to one portal through a session.
type Client struct {
	sess     *session.Session
	logger   *logrus.Entry
	language language.Tag
	location *time.Location
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(c *Client) { c.logger = logger }
}

// WithLanguage sets the collation used to sort folder listings.
func WithLanguage(tag language.Tag) Option {
	return func(c *Client) { c.language = tag }
}

// WithLocation sets the time zone portal dates are interpreted in.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) { c.location = loc }
}

// NewClient creates a client on top of sess.
func NewClient(sess *session.Session, opts ...Option) *Client {
	c := &Client{
		sess:     sess,
		language: language.German,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.NewEntry(logrus.New())
	}
	c.logger = c.logger.WithField("component", "api")
	return c
}

// Session returns the session the client sends requests through.
func (c *Client) Session() *session.Session {
	return c.sess
}

// page fetches an authenticated page. Getting the login form back means the
// session is gone.
func (c *Client) page(ctx context.Context, path string) (string, error) {
	body, err := c.sess.Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if extract.IsLoginForm(body) {
		return "", fmt.Errorf("%w: session expired", ErrUnavailable)
	}
	return body, nil
}

// GetCourses lists the courses of the current semester.
func (c *Client) GetCourses(ctx context.Context) (*models.CourseList, error) {
	return c.courses(ctx, "dispatch.php/my_courses")
}

// SetSemester switches the course listing to another semester and returns
// its courses.
func (c *Client) SetSemester(ctx context.Context, semesterID string) (*models.CourseList, error) {
	return c.courses(ctx, "dispatch.php/my_courses/set_semester?sem_select="+url.QueryEscape(semesterID))
}

func (c *Client) courses(ctx context.Context, path string) (*models.CourseList, error) {
	body, err := c.page(ctx, path)
	if err != nil {
		return nil, err
	}
	blob, ok := extract.CoursesData(body)
	if !ok {
		return nil, fmt.Errorf("%w: course data not found", ErrUnavailable)
	}
	list, err := mapper.Courses(blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return list, nil
}

// GetCourse loads a course's overview page.
func (c *Client) GetCourse(ctx context.Context, courseID string) (*models.CourseMetadata, error) {
	body, err := c.page(ctx, "dispatch.php/course/overview?cid="+url.QueryEscape(courseID))
	if err != nil {
		return nil, err
	}
	meta, err := mapper.CourseMetadata(body, c.location)
	if err != nil {
		return nil, fmt.Errorf("%w: course %s: %v", ErrUnavailable, courseID, err)
	}
	return meta, nil
}

// GetFileContents downloads a file. downloadURL is absolute and used as is.
func (c *Client) GetFileContents(ctx context.Context, downloadURL string) ([]byte, error) {
	data, err := c.sess.GetAbsolute(ctx, downloadURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return data, nil
}

// Download implements the syncer's downloader.
func (c *Client) Download(ctx context.Context, file models.File) ([]byte, error) {
	return c.GetFileContents(ctx, file.DownloadURL)
}

// GetMessages lists the inbox.
func (c *Client) GetMessages(ctx context.Context) ([]models.Message, error) {
	body, err := c.page(ctx, "dispatch.php/messages/overview")
	if err != nil {
		return nil, err
	}
	return mapper.Messages(body, c.location), nil
}

// GetMessageDetails loads the body of one message.
func (c *Client) GetMessageDetails(ctx context.Context, messageID string) (*models.MessageDetails, error) {
	body, err := c.page(ctx, "dispatch.php/messages/read/"+url.PathEscape(messageID))
	if err != nil {
		return nil, err
	}
	details, err := mapper.MessageDetails(body)
	if err != nil {
		return nil, fmt.Errorf("%w: message %s: %v", ErrUnavailable, messageID, err)
	}
	return details, nil
}
