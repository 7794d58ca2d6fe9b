package mapper

import (
	"encoding/json"
	"fmt"

	"github.com/mattsolo1/grove-campus/pkg/models"
)

var courseKeys = []string{
	"admission_binding", "avatar", "children", "extra_navigation", "format", "group",
	"id", "is_deputy", "is_group", "is_hidden", "is_studygroup", "is_teacher",
	"name", "navigation", "number", "parent",
}

type rawCourse struct {
	AdmissionBinding bool              `json:"admission_binding"`
	Avatar           string            `json:"avatar"`
	Children         []json.RawMessage `json:"children"`
	ExtraNavigation  bool              `json:"extra_navigation"`
	Format           string            `json:"format"`
	Group            int               `json:"group"`
	ID               string            `json:"id"`
	IsDeputy         bool              `json:"is_deputy"`
	IsGroup          bool              `json:"is_group"`
	IsHidden         bool              `json:"is_hidden"`
	IsStudyGroup     bool              `json:"is_studygroup"`
	IsTeacher        bool              `json:"is_teacher"`
	Name             string            `json:"name"`
	Navigation       []json.RawMessage `json:"navigation"`
	Number           string            `json:"number"`
	Parent           json.RawMessage   `json:"parent"`
}

type rawNavEntry struct {
	Attr struct {
		Title string `json:"title"`
	} `json:"attr"`
	Icon struct {
		Role  string `json:"role"`
		Shape string `json:"shape"`
	} `json:"icon"`
	Important bool   `json:"important"`
	URL       string `json:"url"`
}

// Courses validates a MyCoursesData blob. The check is all or nothing: one
// malformed course anywhere, ancestors included, fails the whole list.
func Courses(blob string) (*models.CourseList, error) {
	top, err := object([]byte(blob), []string{"courses"})
	if err != nil {
		return nil, err
	}
	keys, values, err := orderedObject(top["courses"])
	if err != nil {
		return nil, err
	}

	list := &models.CourseList{
		Courses: make([]models.Course, 0, len(keys)),
		Groups:  make(map[string]models.Course),
	}
	for _, key := range keys {
		course, err := parseCourse(values[key], list.Groups)
		if err != nil {
			return nil, fmt.Errorf("course %s: %w", key, err)
		}
		list.Courses = append(list.Courses, course)
	}
	return list, nil
}

// parseCourse flattens the parent chain into groups so the tree is stored by
// id reference only.
func parseCourse(data json.RawMessage, groups map[string]models.Course) (models.Course, error) {
	if _, err := object(data, courseKeys, "parent"); err != nil {
		return models.Course{}, err
	}
	var raw rawCourse
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Course{}, fmt.Errorf("%w: %v", ErrShape, err)
	}

	nav, err := navigation(raw.Navigation)
	if err != nil {
		return models.Course{}, err
	}

	course := models.Course{
		ID:               raw.ID,
		Name:             raw.Name,
		Number:           raw.Number,
		Avatar:           raw.Avatar,
		Format:           raw.Format,
		Group:            raw.Group,
		Navigation:       nav,
		Children:         len(raw.Children),
		AdmissionBinding: raw.AdmissionBinding,
		ExtraNavigation:  raw.ExtraNavigation,
		IsDeputy:         raw.IsDeputy,
		IsGroup:          raw.IsGroup,
		IsHidden:         raw.IsHidden,
		IsStudyGroup:     raw.IsStudyGroup,
		IsTeacher:        raw.IsTeacher,
	}

	if len(raw.Parent) > 0 && !isNull(raw.Parent) {
		parent, err := parseCourse(raw.Parent, groups)
		if err != nil {
			return models.Course{}, fmt.Errorf("parent: %w", err)
		}
		groups[parent.ID] = parent
		course.ParentID = parent.ID
	}
	return course, nil
}

func navigation(slots []json.RawMessage) (models.Navigation, error) {
	nav := make(models.Navigation, 0, len(slots))
	for i, slot := range slots {
		var flag bool
		if err := json.Unmarshal(slot, &flag); err == nil {
			if flag {
				return nil, fmt.Errorf("%w: navigation slot %d is true", ErrShape, i)
			}
			nav = append(nav, nil)
			continue
		}

		obj, err := object(slot, []string{"attr", "icon", "important", "url"})
		if err != nil {
			return nil, fmt.Errorf("navigation slot %d: %w", i, err)
		}
		if _, err := object(obj["attr"], []string{"title"}); err != nil {
			return nil, fmt.Errorf("navigation slot %d attr: %w", i, err)
		}
		if _, err := object(obj["icon"], []string{"role", "shape"}); err != nil {
			return nil, fmt.Errorf("navigation slot %d icon: %w", i, err)
		}
		var entry rawNavEntry
		if err := json.Unmarshal(slot, &entry); err != nil {
			return nil, fmt.Errorf("%w: navigation slot %d: %v", ErrShape, i, err)
		}
		nav = append(nav, &models.NavEntry{
			Title:     entry.Attr.Title,
			IconRole:  entry.Icon.Role,
			IconShape: entry.Icon.Shape,
			Important: entry.Important,
			URL:       entry.URL,
		})
	}
	return nav, nil
}
