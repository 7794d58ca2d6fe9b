// Package calendar exports course timeslots as recurring iCalendar events.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/mattsolo1/grove-campus/pkg/models"
)

const productID = "-//grove-campus//campus//DE"

// Course is one course to put into the calendar.
type Course struct {
	ID       string
	Metadata *models.CourseMetadata
}

// Options bound the recurrence.
type Options struct {
	// From is the first day events may start on.
	From time.Time
	// Until ends the weekly recurrence. Zero means open ended.
	Until time.Time
	// Location is the wall clock the portal's times refer to.
	Location *time.Location
	// Now is written as DTSTAMP.
	Now time.Time
}

// Build returns a calendar with one weekly event per timeslot.
func Build(courses []Course, opts Options) *ics.Calendar {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	for _, c := range courses {
		if c.Metadata == nil {
			continue
		}
		for _, slot := range c.Metadata.Timeslots {
			addSlot(cal, c.ID, c.Metadata.Title, slot, opts)
		}
	}
	return cal
}

func addSlot(cal *ics.Calendar, courseID, title string, slot models.Timeslot, opts Options) {
	start := FirstOccurrence(slot.Day, slot.StartTime, opts.From, opts.Location)
	end := time.Date(start.Year(), start.Month(), start.Day(), slot.EndTime.Hour, slot.EndTime.Minute, 0, 0, opts.Location)

	uid := uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("%s/%d/%s/%s", courseID, slot.Day, slot.StartTime, slot.Description)))
	event := cal.AddEvent(uid.String() + "@campus")
	event.SetDtStampTime(opts.Now)

	tzid := &ics.KeyValues{Key: string(ics.ParameterTzid), Value: []string{opts.Location.String()}}
	event.SetProperty(ics.ComponentPropertyDtStart, start.Format("20060102T150405"), tzid)
	event.SetProperty(ics.ComponentPropertyDtEnd, end.Format("20060102T150405"), tzid)

	summary := title
	if slot.Description != "" {
		summary = fmt.Sprintf("%s (%s)", title, slot.Description)
	}
	event.SetSummary(summary)

	if len(slot.Locations) > 0 {
		rooms := make([]string, 0, len(slot.Locations))
		for _, l := range slot.Locations {
			rooms = append(rooms, l.Name)
		}
		event.SetLocation(strings.Join(rooms, ", "))
	}

	rule := "FREQ=WEEKLY"
	if !opts.Until.IsZero() {
		rule += ";UNTIL=" + opts.Until.UTC().Format("20060102T150405Z")
	}
	event.AddRrule(rule)
}

// FirstOccurrence returns the first time on or after from that falls on day
// at hm, in loc.
func FirstOccurrence(day models.Weekday, hm models.HourMinute, from time.Time, loc *time.Location) time.Time {
	from = from.In(loc)
	// models.Weekday starts at Monday, time.Weekday at Sunday.
	target := time.Weekday((int(day) + 1) % 7)
	offset := (int(target) - int(from.Weekday()) + 7) % 7
	return time.Date(from.Year(), from.Month(), from.Day()+offset, hm.Hour, hm.Minute, 0, 0, loc)
}
