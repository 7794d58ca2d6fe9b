package mapper

import (
	"strconv"
	"time"

	"github.com/mattsolo1/grove-campus/pkg/extract"
	"github.com/mattsolo1/grove-campus/pkg/models"
)

// weekdays maps the portal's weekday names to indices. The names follow the
// portal's display language, which is German; any other name is unknown.
var weekdays = map[string]models.Weekday{
	"Montag":     models.Monday,
	"Dienstag":   models.Tuesday,
	"Mittwoch":   models.Wednesday,
	"Donnerstag": models.Thursday,
	"Freitag":    models.Friday,
	"Samstag":    models.Saturday,
	"Sonntag":    models.Sunday,
}

// WeekdayIndex looks up a weekday name.
func WeekdayIndex(name string) (models.Weekday, bool) {
	day, ok := weekdays[name]
	return day, ok
}

// CourseMetadata maps a course overview page. The title and the schedule
// block are required; single timeslots and announcements that do not parse
// are skipped.
func CourseMetadata(page string, loc *time.Location) (*models.CourseMetadata, error) {
	title, ok := extract.CourseTitle(page)
	if !ok {
		return nil, ErrNotFound
	}
	block, ok := extract.TimeslotBlock(page)
	if !ok {
		return nil, ErrNotFound
	}

	meta := &models.CourseMetadata{
		Title:         collapseSpace(title),
		Timeslots:     []models.Timeslot{},
		Announcements: []models.Announcement{},
		Supports:      models.Supports{Files: extract.FilesSupported(page)},
	}
	for _, raw := range extract.Timeslots(block) {
		if slot, ok := Timeslot(raw); ok {
			meta.Timeslots = append(meta.Timeslots, slot)
		}
	}
	for _, raw := range extract.Announcements(page) {
		if a, ok := Announcement(raw, loc); ok {
			meta.Announcements = append(meta.Announcements, a)
		}
	}
	return meta, nil
}

// Timeslot maps one schedule fragment.
func Timeslot(raw extract.RawTimeslot) (models.Timeslot, bool) {
	if raw.Description == "" {
		return models.Timeslot{}, false
	}
	day, ok := WeekdayIndex(raw.Weekday)
	if !ok {
		return models.Timeslot{}, false
	}

	var clock [4]int
	for i, s := range []string{raw.StartHour, raw.StartMinute, raw.EndHour, raw.EndMinute} {
		n, err := strconv.Atoi(s)
		if err != nil {
			return models.Timeslot{}, false
		}
		clock[i] = n
	}

	locations := []models.Location{}
	for _, loc := range raw.Locations {
		if loc.ID == "" || loc.Name == "" {
			continue
		}
		locations = append(locations, models.Location{ID: loc.ID, Name: loc.Name})
	}
	if len(locations) == 0 && raw.SimpleLocation != "" {
		locations = append(locations, models.Location{Name: raw.SimpleLocation})
	}

	return models.Timeslot{
		Day:         day,
		StartTime:   models.HourMinute{Hour: clock[0], Minute: clock[1]},
		EndTime:     models.HourMinute{Hour: clock[2], Minute: clock[3]},
		Description: raw.Description,
		Locations:   locations,
	}, true
}

// Announcement maps one news article. The publish date is local midnight
// in loc.
func Announcement(raw extract.RawAnnouncement, loc *time.Location) (models.Announcement, bool) {
	if raw.Title == "" || raw.AuthorUsername == "" || raw.AuthorFullName == "" || raw.Description == "" {
		return models.Announcement{}, false
	}
	published, ok := calendarTime(loc, raw.Year, raw.Month, raw.Day, "0", "0")
	if !ok {
		return models.Announcement{}, false
	}
	visits, err := strconv.Atoi(raw.Visits)
	if err != nil {
		return models.Announcement{}, false
	}
	comments, _ := strconv.Atoi(raw.Comments)

	return models.Announcement{
		Title:       raw.Title,
		Description: raw.Description,
		Author:      models.User{Username: raw.AuthorUsername, FullName: raw.AuthorFullName},
		PublishDate: published.UnixMilli(),
		Visits:      visits,
		Comments:    comments,
	}, true
}
