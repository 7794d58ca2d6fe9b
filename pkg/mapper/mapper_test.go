package mapper

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/mattsolo1/grove-campus/internal/portaltest"
	"github.com/mattsolo1/grove-campus/pkg/extract"
	"github.com/mattsolo1/grove-campus/pkg/models"
)

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		return time.FixedZone("CET", 3600)
	}
	return loc
}

func TestCourses(t *testing.T) {
	list, err := Courses(portaltest.CoursesJSON)
	require.NoError(t, err)
	require.Len(t, list.Courses, 2)

	// Portal order, not sorted by key.
	assert.Equal(t, "c2", list.Courses[0].ID)
	assert.Equal(t, "c1", list.Courses[1].ID)

	c1 := list.Courses[1]
	assert.Equal(t, "Analysis; Teil 1", c1.Name)
	assert.Equal(t, 2, c1.Children)
	assert.True(t, c1.IsTeacher)
	require.Len(t, c1.Navigation, 2)
	require.NotNil(t, c1.Navigation[0])
	assert.Equal(t, "news", c1.Navigation[0].IconShape)
	assert.True(t, c1.Navigation[0].Important)
	assert.Nil(t, c1.Navigation[1])

	parent, ok := list.Parent(c1)
	require.True(t, ok)
	assert.Equal(t, "Mathematik", parent.Name)
	assert.True(t, parent.IsGroup)

	_, ok = list.Parent(list.Courses[0])
	assert.False(t, ok)
}

func TestCoursesAllOrNothing(t *testing.T) {
	_, err := Courses(portaltest.CoursesJSONMissingID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShape))

	tests := map[string]string{
		"not json":         `{"courses":`,
		"no courses key":   `{"other":{}}`,
		"courses is array": `{"courses":[]}`,
		"true nav slot":    `{"courses":{"x":{"admission_binding":false,"avatar":"","children":[],"extra_navigation":false,"format":"","group":0,"id":"x","is_deputy":false,"is_group":false,"is_hidden":false,"is_studygroup":false,"is_teacher":false,"name":"x","navigation":[true],"number":"","parent":null}}}`,
		"fractional group": `{"courses":{"x":{"admission_binding":false,"avatar":"","children":[],"extra_navigation":false,"format":"","group":1.5,"id":"x","is_deputy":false,"is_group":false,"is_hidden":false,"is_studygroup":false,"is_teacher":false,"name":"x","navigation":[],"number":"","parent":null}}}`,
		"broken parent":    `{"courses":{"x":{"admission_binding":false,"avatar":"","children":[],"extra_navigation":false,"format":"","group":0,"id":"x","is_deputy":false,"is_group":false,"is_hidden":false,"is_studygroup":false,"is_teacher":false,"name":"x","navigation":[],"number":"","parent":{"id":"p"}}}}`,
	}
	for name, blob := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Courses(blob)
			assert.ErrorIs(t, err, ErrShape)
		})
	}
}

func TestCourseMetadata(t *testing.T) {
	loc := berlin(t)
	meta, err := CourseMetadata(portaltest.CourseOverviewPage, loc)
	require.NoError(t, err)

	assert.Equal(t, "Analysis für Informatiker", meta.Title)
	assert.True(t, meta.Supports.Files)

	require.Len(t, meta.Timeslots, 3, "unknown weekday and free text must be skipped")
	assert.Equal(t, models.Timeslot{
		Day:         models.Monday,
		StartTime:   models.HourMinute{Hour: 10, Minute: 15},
		EndTime:     models.HourMinute{Hour: 11, Minute: 45},
		Description: "Vorlesung",
		Locations:   []models.Location{{ID: "r100", Name: "Hörsaal 1"}},
	}, meta.Timeslots[0])
	assert.Equal(t, models.Wednesday, meta.Timeslots[1].Day)
	assert.Equal(t, []models.Location{{Name: "Seminarraum 2"}}, meta.Timeslots[1].Locations)
	assert.Equal(t, models.Sunday, meta.Timeslots[2].Day)
	assert.Empty(t, meta.Timeslots[2].Locations)

	require.Len(t, meta.Announcements, 2, "article without a date must be dropped")
	first := meta.Announcements[0]
	assert.Equal(t, `Klausurtermin "Analysis"`, first.Title)
	assert.Equal(t, models.User{Username: "mmuster", FullName: "Max Mustermann"}, first.Author)
	assert.Equal(t, time.Date(2024, time.April, 3, 0, 0, 0, 0, loc).UnixMilli(), first.PublishDate)
	assert.Equal(t, 42, first.Visits)
	assert.Equal(t, 3, first.Comments)

	assert.Equal(t, "Tutorien", meta.Announcements[1].Title)
	assert.Equal(t, 0, meta.Announcements[1].Comments)
}

func TestCourseMetadataRequiredParts(t *testing.T) {
	_, err := CourseMetadata(portaltest.LoginPage, time.UTC)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = CourseMetadata(portaltest.CourseOverviewWithoutSchedule, time.UTC)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWeekdayIndex(t *testing.T) {
	names := []string{"Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag", "Sonntag"}
	for i, name := range names {
		day, ok := WeekdayIndex(name)
		require.True(t, ok, name)
		assert.Equal(t, models.Weekday(i), day)
	}
	_, ok := WeekdayIndex("Monday")
	assert.False(t, ok)
}

func TestTimeslotRejectsBadNumbers(t *testing.T) {
	_, ok := Timeslot(extract.RawTimeslot{
		Weekday: "Montag", StartHour: "", StartMinute: "15", EndHour: "11", EndMinute: "45", Description: "x",
	})
	assert.False(t, ok)
}

func TestAnnouncementInvalidDate(t *testing.T) {
	raw := extract.RawAnnouncement{
		Title: "x", AuthorUsername: "u", AuthorFullName: "U", Description: "d", Visits: "1",
		Day: "31", Month: "02", Year: "2024",
	}
	_, ok := Announcement(raw, time.UTC)
	assert.False(t, ok, "31.02. is not a calendar date")

	raw.Day = "29"
	a, ok := Announcement(raw, time.UTC)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC).UnixMilli(), a.PublishDate)
}

func TestFilesAndFolders(t *testing.T) {
	filesBlob := portaltest.Array(
		portaltest.FileJSON("f2", "Übungsblatt.pdf", 2048, "https://portal.example/sendfile.php?file_id=f2"),
		portaltest.FileJSON("f1", "Aufgaben.pdf", 10, "https://portal.example/sendfile.php?file_id=f1"),
		`{"id":"f3","name":"anonym.pdf","author_name":"","author_url":"","chdate":1,"size":"1","download_url":"u","downloads":"0"}`,
	)
	files, err := Files(filesBlob)
	require.NoError(t, err)
	require.Len(t, files, 2, "entry without author link must be dropped")
	assert.Equal(t, models.File{
		ID:            "f2",
		Name:          "Übungsblatt.pdf",
		Author:        models.User{Username: "mmuster", FullName: "Max Mustermann"},
		DateModified:  1712131200,
		DownloadURL:   "https://portal.example/sendfile.php?file_id=f2",
		DownloadCount: 17,
		Size:          2048,
	}, files[0])

	folders, err := Folders(portaltest.Array(portaltest.FolderJSON("d1", "Skripte")))
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "emuster", folders[0].Author.Username)
	assert.Equal(t, int64(1700000000), folders[0].DateCreated)
}

func TestFoldersIgnoreFileOnlyFields(t *testing.T) {
	blob := `[{"id":"d1","name":"Skripte","author_name":"Erika Musterfrau",` +
		`"author_url":"https://portal.example/dispatch.php/profile?username=emuster",` +
		`"chdate":1700000000,"size":4096,"downloads":3}]`

	folders, err := Folders(blob)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "Skripte", folders[0].Name)
}

func TestFilesShapeFailureIsEmpty(t *testing.T) {
	tests := map[string]string{
		"invalid json":      `[{"id":`,
		"size is a number":  `[{"id":"f","name":"n","author_name":"a","author_url":"?username=a","chdate":1,"size":10,"download_url":"u","downloads":"1"}]`,
		"missing chdate":    `[{"id":"f","name":"n","author_name":"a","author_url":"?username=a","size":"10","download_url":"u","downloads":"1"}]`,
		"object, not array": `{"id":"f"}`,
	}
	for name, blob := range tests {
		t.Run(name, func(t *testing.T) {
			files, err := Files(blob)
			assert.ErrorIs(t, err, ErrShape)
			assert.NotNil(t, files)
			assert.Empty(t, files)
		})
	}
}

func TestSortContentsLocaleAware(t *testing.T) {
	contents := models.FolderContents{
		Files: []models.File{
			{Name: "zusammenfassung.pdf"},
			{Name: "Übung 2.pdf"},
			{Name: "aufgabe.pdf"},
			{Name: "Vorlesung.pdf"},
			{Name: "Zeitplan.pdf"},
		},
		Folders: []models.Folder{
			{Name: "Vorlesung"},
			{Name: "Ärztliche Hinweise"},
			{Name: "b-Material"},
		},
	}

	SortContents(&contents, language.German)

	var fileNames []string
	for _, f := range contents.Files {
		fileNames = append(fileNames, f.Name)
	}
	// Byte order would put "Zeitplan" before "aufgabe" and "Übung" last.
	assert.Equal(t, []string{"aufgabe.pdf", "Übung 2.pdf", "Vorlesung.pdf", "Zeitplan.pdf", "zusammenfassung.pdf"}, fileNames)

	var folderNames []string
	for _, f := range contents.Folders {
		folderNames = append(folderNames, f.Name)
	}
	assert.Equal(t, []string{"Ärztliche Hinweise", "b-Material", "Vorlesung"}, folderNames)
}

func TestMessages(t *testing.T) {
	loc := berlin(t)
	messages := Messages(portaltest.MessagesPage, loc)
	require.Len(t, messages, 2)
	assert.Equal(t, models.Message{
		ID:       "m1",
		Title:    "Raumänderung",
		Author:   models.User{Username: "mmuster", FullName: "Max Mustermann"},
		SendTime: time.Date(2024, time.March, 12, 14, 5, 0, 0, loc).UnixMilli(),
	}, messages[0])

	details, err := MessageDetails(portaltest.MessageReadPage)
	require.NoError(t, err)
	assert.Equal(t, 3, details.Recipients)

	_, err = MessageDetails(portaltest.LoginPage)
	assert.ErrorIs(t, err, ErrNotFound)
}
