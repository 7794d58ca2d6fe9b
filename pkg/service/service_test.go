package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-campus/internal/portaltest"
	"github.com/mattsolo1/grove-campus/pkg/cache"
	"github.com/mattsolo1/grove-campus/pkg/calendar"
	"github.com/mattsolo1/grove-campus/pkg/ipc"
	"github.com/mattsolo1/grove-campus/pkg/models"
	"github.com/mattsolo1/grove-campus/pkg/search"
	"github.com/mattsolo1/grove-campus/pkg/sync"
)

var fixedNow = time.Date(2024, time.April, 5, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *portaltest.Portal, afero.Fs) {
	t.Helper()
	portal := portaltest.NewPortal(t)
	fs := afero.NewMemMapFs()
	svc, err := New(&Config{
		Host:     portal.Host(),
		DataDir:  t.TempDir(),
		SyncRoot: "/campus",
		Location: time.UTC,
	}, WithFs(fs), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc, portal, fs
}

func login(t *testing.T, svc *Service) {
	t.Helper()
	_, err := svc.Login(context.Background(), "", "emuster", "geheim", true)
	require.NoError(t, err)
}

func seedFiles(portal *portaltest.Portal) {
	portal.Folders[""] = portaltest.FilesPage(
		portaltest.Array(portaltest.FileJSON("f1", "Organisatorisches.pdf", 4, portal.DownloadURL("f1"))),
		portaltest.Array(portaltest.FolderJSON("d1", "Skripte")),
	)
	portal.Folders["d1"] = portaltest.FilesPage(
		portaltest.Array(portaltest.FileJSON("f2", "Kapitel 1.pdf", 7, portal.DownloadURL("f2"))),
		portaltest.Array(),
	)
	portal.SetBlob("f1", []byte("orga"))
	portal.SetBlob("f2", []byte("kapitel"))
}

func TestLoginAndResume(t *testing.T) {
	svc, portal, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Client()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	login(t, svc)
	last, err := svc.Registry.LastSession()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "tok-123", last.Token)
	assert.Equal(t, "emuster", last.Username)

	// A new process resumes with the stored token.
	svc.mu.Lock()
	svc.client = nil
	svc.mu.Unlock()
	ok, err := svc.Resume(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	// Once the token is rotated the stored password is used.
	portal.Token = "tok-456"
	svc.mu.Lock()
	svc.client = nil
	svc.mu.Unlock()
	ok, err = svc.Resume(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	sess, ok := svc.Session()
	require.True(t, ok)
	assert.Equal(t, "tok-456", sess.Token())
}

func TestLogout(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	login(t, svc)
	_, _, err := cache.Latest(svc.Messages(ctx))
	require.NoError(t, err)

	require.NoError(t, svc.Logout())
	_, err = svc.Client()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, cached := cache.Peek[[]models.Message](ctx, svc.Cache, cache.KeyMessages)
	assert.False(t, cached, "cached inbox is dropped")
	results, err := svc.Search("Raumänderung", nil)
	require.NoError(t, err)
	assert.Empty(t, results)

	ok, err := svc.Resume(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "token and password are gone")
}

func TestLoginAsAnotherAccountStartsFresh(t *testing.T) {
	svc, portal, _ := newTestService(t)
	ctx := context.Background()
	login(t, svc)
	_, _, err := cache.Latest(svc.Courses(ctx))
	require.NoError(t, err)
	_, _, err = cache.Latest(svc.Messages(ctx))
	require.NoError(t, err)

	portal.Username = "kmeier"
	portal.Password = "passwort"
	portal.Token = "tok-789"
	portal.CoursesJS = `{"courses":{}}`
	_, err = svc.Login(ctx, "", "kmeier", "passwort", false)
	require.NoError(t, err)

	var updates []cache.Update[*models.CourseList]
	for u := range svc.Courses(ctx) {
		updates = append(updates, u)
	}
	require.Len(t, updates, 1, "no stale value from the previous account")
	require.NoError(t, updates[0].Err)
	assert.Empty(t, updates[0].Value.Courses)

	results, err := svc.Search("Raumänderung", nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestLoginAgainKeepsCache(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	login(t, svc)
	_, _, err := cache.Latest(svc.Courses(ctx))
	require.NoError(t, err)

	login(t, svc)
	var updates []cache.Update[*models.CourseList]
	for u := range svc.Courses(ctx) {
		updates = append(updates, u)
	}
	require.Len(t, updates, 2)
	assert.True(t, updates[0].Stale)
}

func TestLoginWithForeignToken(t *testing.T) {
	svc, portal, _ := newTestService(t)
	ctx := context.Background()
	login(t, svc)
	_, _, err := cache.Latest(svc.Courses(ctx))
	require.NoError(t, err)

	// A token handed in from elsewhere may belong to any account.
	portal.Token = "tok-999"
	require.True(t, svc.LoginWithToken(ctx, "", "tok-999"))

	last, err := svc.Registry.LastSession()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "tok-999", last.Token)
	assert.Empty(t, last.Username)

	_, cached := cache.Peek[*models.CourseList](ctx, svc.Cache, cache.KeyCourses)
	assert.False(t, cached)
}

func TestFailedLoginLogsOut(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	login(t, svc)

	_, err := svc.Login(ctx, "", "emuster", "falsch", false)
	require.Error(t, err)
	_, err = svc.Client()
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	login(t, svc)
	assert.False(t, svc.LoginWithToken(ctx, "", "bogus"))
	_, err = svc.Client()
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestCoursesStream(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	var first []cache.Update[*models.CourseList]
	for u := range svc.Courses(ctx) {
		first = append(first, u)
	}
	require.Len(t, first, 1)
	assert.ErrorIs(t, first[0].Err, ErrNotLoggedIn)

	login(t, svc)
	list, stale, err := cache.Latest(svc.Courses(ctx))
	require.NoError(t, err)
	assert.False(t, stale)
	assert.Len(t, list.Courses, 2)

	var second []cache.Update[*models.CourseList]
	for u := range svc.Courses(ctx) {
		second = append(second, u)
	}
	require.Len(t, second, 2)
	assert.True(t, second[0].Stale)
	assert.False(t, second[1].Stale)
}

func TestSyncCourse(t *testing.T) {
	svc, portal, fs := newTestService(t)
	seedFiles(portal)
	ctx := context.Background()
	login(t, svc)

	// Populate the course list so the target is named after the course.
	_, _, err := cache.Latest(svc.Courses(ctx))
	require.NoError(t, err)

	report, err := svc.SyncCourse(ctx, "c1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Downloaded)

	root := filepath.Join("/campus", "Analysis; Teil 1")
	data, err := afero.ReadFile(fs, filepath.Join(root, "Skripte", "Kapitel 1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "kapitel", string(data))

	target, err := svc.Registry.SyncTarget("c1")
	require.NoError(t, err)
	require.NotNil(t, target)
	assert.Equal(t, root, target.Path)
	assert.Equal(t, "Analysis; Teil 1", target.CourseName)
	require.NotNil(t, target.LastSynced)

	results, err := svc.SyncAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, 0, results[0].Report.Downloaded)
	assert.Equal(t, 2, results[0].Report.Unchanged)
}

func TestPlanCourse(t *testing.T) {
	svc, portal, _ := newTestService(t)
	seedFiles(portal)
	login(t, svc)

	actions, err := svc.PlanCourse(context.Background(), "c1", "/plan")
	require.NoError(t, err)
	downloads := 0
	for _, a := range actions {
		if a.Kind == sync.ActionDownload {
			downloads++
		}
	}
	assert.Equal(t, 2, downloads)
	assert.Equal(t, 0, portal.Hits("/sendfile.php"))
}

func TestDownloadFile(t *testing.T) {
	svc, portal, fs := newTestService(t)
	portal.SetBlob("f9", []byte("inhalt"))
	login(t, svc)

	path, err := svc.DownloadFile(context.Background(), "a/b.pdf", portal.DownloadURL("f9"), "/downloads")
	require.NoError(t, err)
	assert.Equal(t, "/downloads/a_b.pdf", path)
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "inhalt", string(data))
}

func TestExportAnnouncements(t *testing.T) {
	svc, portal, fs := newTestService(t)
	portal.Overviews["c1"] = portaltest.CourseOverviewPage
	login(t, svc)
	ctx := context.Background()

	paths, err := svc.ExportAnnouncements(ctx, "c1", "/notes")
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "/notes/2024-04-03-klausurtermin-analysis.md", paths[0])

	// User edits survive a second export.
	edited, err := afero.ReadFile(fs, paths[0])
	require.NoError(t, err)
	require.NoError(t, afero.WriteFile(fs, paths[0], append(edited, []byte("\nMeine Notiz\n")...), 0o644))

	_, err = svc.ExportAnnouncements(ctx, "c1", "/notes")
	require.NoError(t, err)
	again, err := afero.ReadFile(fs, paths[0])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(again), "Meine Notiz"))
}

func TestExportMessages(t *testing.T) {
	svc, portal, fs := newTestService(t)
	portal.Reads["m1"] = portaltest.MessageReadPage
	login(t, svc)

	paths, err := svc.ExportMessages(context.Background(), "/inbox")
	require.NoError(t, err)
	require.Len(t, paths, 1, "m2 has no readable body")
	data, err := afero.ReadFile(fs, paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "recipients: 3")
}

func TestHandlers(t *testing.T) {
	svc, _, _ := newTestService(t)
	d := ipc.NewDispatcher(nil)
	svc.RegisterHandlers(d)
	ctx := context.Background()

	resp := d.Dispatch(ctx, ipc.Request{ID: "1", Name: "get_courses"}, nil)
	assert.Equal(t, false, resp.Result, "not logged in")

	resp = d.Dispatch(ctx, ipc.Request{ID: "2", Name: "login", Args: []json.RawMessage{
		json.RawMessage(`"emuster"`), json.RawMessage(`"falsch"`),
	}}, nil)
	assert.Equal(t, false, resp.Result)

	resp = d.Dispatch(ctx, ipc.Request{ID: "3", Name: "login", Args: []json.RawMessage{
		json.RawMessage(`"emuster"`), json.RawMessage(`"geheim"`),
	}}, nil)
	assert.Equal(t, "tok-123", resp.Result)

	var partials []ipc.Response
	resp = d.Dispatch(ctx, ipc.Request{ID: "4", Name: "get_courses"}, func(r ipc.Response) { partials = append(partials, r) })
	list, ok := resp.Result.(*models.CourseList)
	require.True(t, ok)
	assert.Len(t, list.Courses, 2)
	assert.Empty(t, partials, "cold cache")

	d.Dispatch(ctx, ipc.Request{ID: "5", Name: "get_courses"}, func(r ipc.Response) { partials = append(partials, r) })
	assert.Len(t, partials, 1)

	resp = d.Dispatch(ctx, ipc.Request{ID: "6", Name: "decrypt_password"}, nil)
	assert.Equal(t, false, resp.Result)
	d.Dispatch(ctx, ipc.Request{ID: "7", Name: "encrypt_password", Args: []json.RawMessage{json.RawMessage(`"geheim"`)}}, nil)
	resp = d.Dispatch(ctx, ipc.Request{ID: "8", Name: "decrypt_password"}, nil)
	assert.Equal(t, "geheim", resp.Result)

	resp = d.Dispatch(ctx, ipc.Request{ID: "9", Name: "select_sync_folder", Args: []json.RawMessage{json.RawMessage(`"Analysis"`)}}, nil)
	assert.Equal(t, "/campus/Analysis", resp.Result)

	resp = d.Dispatch(ctx, ipc.Request{ID: "10", Name: "login_with_token", Args: []json.RawMessage{json.RawMessage(`"bogus"`)}}, nil)
	assert.Equal(t, false, resp.Result)
	resp = d.Dispatch(ctx, ipc.Request{ID: "11", Name: "get_courses"}, nil)
	assert.Equal(t, false, resp.Result, "a rejected token ends the previous session")
}

func TestSearchIndexesFetchedData(t *testing.T) {
	svc, portal, _ := newTestService(t)
	seedFiles(portal)
	portal.Overviews["c1"] = portaltest.CourseOverviewPage
	portal.Reads["m1"] = portaltest.MessageReadPage
	login(t, svc)
	ctx := context.Background()

	_, _, err := cache.Latest(svc.Course(ctx, "c1"))
	require.NoError(t, err)
	_, _, err = cache.Latest(svc.CourseFiles(ctx, "c1"))
	require.NoError(t, err)
	_, _, err = cache.Latest(svc.Messages(ctx))
	require.NoError(t, err)
	_, _, err = cache.Latest(svc.MessageDetails(ctx, "m1"))
	require.NoError(t, err)

	results, err := svc.Search("Audimax", nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, search.KindAnnouncement, results[0].Kind)
	assert.Equal(t, "c1", results[0].CourseID)

	results, err = svc.Search("Kapitel", &search.Options{Kind: search.KindFile})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "/Skripte", results[0].Content)

	// The body fetched later keeps the title from the inbox listing.
	results, err = svc.Search("Vorlesung", &search.Options{Kind: search.KindMessage})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Raumänderung", results[0].Title)
}

func TestCalendar(t *testing.T) {
	svc, portal, _ := newTestService(t)
	portal.Overviews["c1"] = portaltest.CourseOverviewPage
	login(t, svc)

	text, err := svc.Calendar(context.Background(), nil, calendar.Options{})
	require.NoError(t, err)
	assert.Contains(t, text, "BEGIN:VCALENDAR")
	// Only c1 has a schedule, with three timeslots.
	assert.Equal(t, 3, strings.Count(text, "BEGIN:VEVENT"))
	assert.Contains(t, text, "RRULE:FREQ=WEEKLY")
}
