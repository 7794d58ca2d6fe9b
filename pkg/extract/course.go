package extract

import "strings"

// RawLocation is a room linked to the room index.
type RawLocation struct {
	ID   string
	Name string
}

// RawTimeslot is one line of the "Zeit / Veranstaltungsort" block.
type RawTimeslot struct {
	Weekday        string
	StartHour      string
	StartMinute    string
	EndHour        string
	EndMinute      string
	Description    string
	Locations      []RawLocation
	SimpleLocation string
}

// RawAnnouncement holds the captured pieces of one news article.
// Fields that did not match are left empty.
type RawAnnouncement struct {
	Title          string
	AuthorUsername string
	AuthorFullName string
	Day            string
	Month          string
	Year           string
	Visits         string
	Comments       string
	Description    string
}

// CoursesData returns the JSON assigned to window.STUDIP.MyCoursesData.
func CoursesData(page string) (string, bool) {
	return nonEmpty(firstGroup(coursesDataPattern, page))
}

// CourseTitle returns the raw title next to the course avatar.
func CourseTitle(page string) (string, bool) {
	title, ok := firstGroup(courseTitlePattern, page)
	if !ok {
		return "", false
	}
	return nonEmpty(strings.TrimSpace(title), true)
}

// TimeslotBlock returns the contents of the schedule definition.
func TimeslotBlock(page string) (string, bool) {
	return firstGroup(timeslotBlockPattern, page)
}

// FilesSupported reports whether the overview links to the files tab.
func FilesSupported(page string) bool {
	return filesSupportedPattern.MatchString(page)
}

// Timeslots splits a schedule block on <br> and parses every fragment that
// has the "<day>: hh:mm - hh:mm, ... <em>desc</em>" shape. Other fragments
// are skipped.
func Timeslots(block string) []RawTimeslot {
	var out []RawTimeslot
	for _, fragment := range strings.Split(block, "<br>") {
		m := timeslotDataPattern.FindStringSubmatch(fragment)
		if m == nil {
			continue
		}
		raw := RawTimeslot{
			Weekday:     strings.TrimSpace(m[1]),
			StartHour:   m[2],
			StartMinute: m[3],
			EndHour:     m[4],
			EndMinute:   m[5],
			Description: m[6],
		}
		for _, loc := range timeslotLocPattern.FindAllStringSubmatch(fragment, -1) {
			raw.Locations = append(raw.Locations, RawLocation{ID: loc[1], Name: loc[2]})
		}
		if simple, ok := firstGroup(timeslotSimpleLocation, fragment); ok {
			raw.SimpleLocation = simple
		}
		out = append(out, raw)
	}
	return out
}

// Announcements finds every news article on the page and captures its parts.
func Announcements(page string) []RawAnnouncement {
	var out []RawAnnouncement
	for _, m := range announcementPattern.FindAllStringSubmatch(page, -1) {
		out = append(out, announcement(m[1]))
	}
	return out
}

func announcement(article string) RawAnnouncement {
	var raw RawAnnouncement
	if title, ok := firstGroup(announcementTitlePattern, article); ok {
		raw.Title = strings.ReplaceAll(title, "&quot;", `"`)
	}
	if m := announcementAuthorPattern.FindStringSubmatch(article); m != nil {
		raw.AuthorUsername, raw.AuthorFullName = m[1], m[2]
	}
	if m := announcementDatePattern.FindStringSubmatch(article); m != nil {
		raw.Day, raw.Month, raw.Year = m[1], m[2], m[3]
	}
	raw.Visits, _ = firstGroup(announcementVisitsPattern, article)
	raw.Comments, _ = firstGroup(announcementCommentsPattern, article)
	raw.Description, _ = firstGroup(announcementBodyPattern, article)
	return raw
}
