package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// NavEntry is one icon slot in a course's navigation row.
type NavEntry struct {
	Title     string `json:"title"`
	IconRole  string `json:"icon_role"`
	IconShape string `json:"icon_shape"`
	Important bool   `json:"important"`
	URL       string `json:"url"`
}

// Navigation holds the navigation slots of a course in portal order.
// A nil slot means "no icon here" and is encoded as the JSON literal false.
type Navigation []*NavEntry

// MarshalJSON writes nil slots as false so the slot positions survive.
func (n Navigation) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, entry := range n {
		if i > 0 {
			buf.WriteByte(',')
		}
		if entry == nil {
			buf.WriteString("false")
			continue
		}
		b, err := json.Marshal(entry)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts false for empty slots.
func (n *Navigation) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Navigation, 0, len(raw))
	for i, item := range raw {
		if bytes.Equal(bytes.TrimSpace(item), []byte("false")) {
			out = append(out, nil)
			continue
		}
		var entry NavEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			return fmt.Errorf("navigation slot %d: %w", i, err)
		}
		out = append(out, &entry)
	}
	*n = out
	return nil
}

// Course is a course (or course group) as listed on the "my courses" page.
type Course struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Number           string     `json:"number"`
	Avatar           string     `json:"avatar"`
	Format           string     `json:"format"`
	Group            int        `json:"group"`
	Navigation       Navigation `json:"navigation"`
	ParentID         string     `json:"parent_id,omitempty"`
	Children         int        `json:"children"`
	AdmissionBinding bool       `json:"admission_binding"`
	ExtraNavigation  bool       `json:"extra_navigation"`
	IsDeputy         bool       `json:"is_deputy"`
	IsGroup          bool       `json:"is_group"`
	IsHidden         bool       `json:"is_hidden"`
	IsStudyGroup     bool       `json:"is_studygroup"`
	IsTeacher        bool       `json:"is_teacher"`
}

// CourseList is the arena holding every course of one listing.
// Courses keeps the portal order; Groups holds parents that are referenced
// through Course.ParentID but are not listed themselves.
type CourseList struct {
	Courses []Course          `json:"courses"`
	Groups  map[string]Course `json:"groups,omitempty"`
}

// Parent resolves the parent of c, looking at groups first.
func (l *CourseList) Parent(c Course) (Course, bool) {
	if c.ParentID == "" {
		return Course{}, false
	}
	if p, ok := l.Groups[c.ParentID]; ok {
		return p, true
	}
	for _, candidate := range l.Courses {
		if candidate.ID == c.ParentID {
			return candidate, true
		}
	}
	return Course{}, false
}

// Find returns the listed course with the given id.
func (l *CourseList) Find(id string) (Course, bool) {
	for _, c := range l.Courses {
		if c.ID == id {
			return c, true
		}
	}
	return Course{}, false
}
