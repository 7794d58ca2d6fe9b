package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-campus/internal/portaltest"
	"github.com/mattsolo1/grove-campus/pkg/session"
)

func newClient(t *testing.T) (*Client, *portaltest.Portal) {
	t.Helper()
	portal := portaltest.NewPortal(t)
	sess := session.New(portal.Host(), session.WithToken(portal.Token))
	return NewClient(sess, WithLocation(time.UTC)), portal
}

func TestGetCourses(t *testing.T) {
	client, _ := newClient(t)

	list, err := client.GetCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Courses, 2)
	assert.Equal(t, "c2", list.Courses[0].ID)
	assert.Equal(t, "Analysis; Teil 1", list.Courses[1].Name)
	assert.Contains(t, list.Groups, "g1")
}

func TestGetCoursesExpiredSession(t *testing.T) {
	portal := portaltest.NewPortal(t)
	client := NewClient(session.New(portal.Host(), session.WithToken("expired")))

	_, err := client.GetCourses(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGetCoursesMalformed(t *testing.T) {
	client, portal := newClient(t)
	portal.CoursesJS = portaltest.CoursesJSONMissingID

	_, err := client.GetCourses(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestSetSemester(t *testing.T) {
	client, portal := newClient(t)

	list, err := client.SetSemester(context.Background(), "ws2024")
	require.NoError(t, err)
	assert.Len(t, list.Courses, 2)
	assert.Equal(t, "ws2024", portal.Semester)
}

func TestGetCourse(t *testing.T) {
	client, portal := newClient(t)
	portal.Overviews["c1"] = portaltest.CourseOverviewPage

	meta, err := client.GetCourse(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Analysis für Informatiker", meta.Title)
	assert.Len(t, meta.Timeslots, 3)
	assert.Len(t, meta.Announcements, 2)
	assert.True(t, meta.Supports.Files)

	_, err = client.GetCourse(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGetFileContents(t *testing.T) {
	client, portal := newClient(t)
	portal.SetBlob("f1", []byte("inhalt"))

	data, err := client.GetFileContents(context.Background(), portal.DownloadURL("f1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("inhalt"), data)

	_, err = client.GetFileContents(context.Background(), portal.DownloadURL("gone"))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGetMessages(t *testing.T) {
	client, portal := newClient(t)
	portal.Reads["m1"] = portaltest.MessageReadPage
	portal.Reads["m9"] = portaltest.MessageReadPageCounter
	ctx := context.Background()

	messages, err := client.GetMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, time.Date(2024, time.March, 12, 14, 5, 0, 0, time.UTC).UnixMilli(), messages[0].SendTime)

	details, err := client.GetMessageDetails(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, 3, details.Recipients)
	assert.Contains(t, details.Content, "<b>alle</b>")

	details, err = client.GetMessageDetails(ctx, "m9")
	require.NoError(t, err)
	assert.Equal(t, 25, details.Recipients)
	assert.Equal(t, "Rundmail", details.Content)

	_, err = client.GetMessageDetails(ctx, "missing")
	assert.ErrorIs(t, err, ErrUnavailable)
}
