package service

import (
	"context"
	"fmt"

	"github.com/mattsolo1/grove-campus/pkg/cache"
	"github.com/mattsolo1/grove-campus/pkg/calendar"
)

// Calendar renders the weekly timeslots of the given courses as iCalendar
// text. Without ids every listed course that is not a group is included.
// Courses whose overview cannot be loaded are skipped.
func (s *Service) Calendar(ctx context.Context, courseIDs []string, opts calendar.Options) (string, error) {
	if len(courseIDs) == 0 {
		list, _, err := cache.Latest(s.Courses(ctx))
		if list == nil {
			return "", fmt.Errorf("list courses: %w", err)
		}
		for _, c := range list.Courses {
			if !c.IsGroup {
				courseIDs = append(courseIDs, c.ID)
			}
		}
	}

	if opts.Location == nil {
		opts.Location = s.Config.Location
	}
	if opts.From.IsZero() {
		opts.From = s.now()
	}
	if opts.Now.IsZero() {
		opts.Now = s.now()
	}

	courses := make([]calendar.Course, 0, len(courseIDs))
	for _, id := range courseIDs {
		meta, _, err := cache.Latest(s.Course(ctx, id))
		if meta == nil {
			s.Logger.WithError(err).WithField("course", id).Warn("skipping course in calendar")
			continue
		}
		courses = append(courses, calendar.Course{ID: id, Metadata: meta})
	}
	return calendar.Build(courses, opts).Serialize(), nil
}
