package models

import "fmt"

// Weekday is a day index starting at Monday (0) and ending at Sunday (6).
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// HourMinute is a wall clock time without a date.
type HourMinute struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

func (hm HourMinute) String() string {
	return fmt.Sprintf("%02d:%02d", hm.Hour, hm.Minute)
}

// Location is a room. ID is only set when the portal links a room index page.
type Location struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Timeslot is one recurring meeting of a course.
type Timeslot struct {
	Day         Weekday    `json:"day"`
	StartTime   HourMinute `json:"start_time"`
	EndTime     HourMinute `json:"end_time"`
	Description string     `json:"description"`
	Locations   []Location `json:"locations"`
}

// User identifies a portal account.
type User struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// Announcement is a news entry on a course overview page.
type Announcement struct {
	Title       string `json:"title"`
	Description string `json:"description"` // HTML fragment
	Author      User   `json:"author"`
	PublishDate int64  `json:"publish_date"` // epoch milliseconds
	Visits      int    `json:"visits"`
	Comments    int    `json:"comments"`
}

// Supports lists optional course features.
type Supports struct {
	Files bool `json:"files"`
}

// CourseMetadata is everything scraped from a course overview page.
type CourseMetadata struct {
	Title         string         `json:"title"`
	Timeslots     []Timeslot     `json:"timeslots"`
	Announcements []Announcement `json:"announcements"`
	Supports      Supports       `json:"supports"`
}
