// Package frontmatter renders announcements and messages as markdown notes
// with a YAML header, and reads such notes back.
package frontmatter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-campus/pkg/models"
)

var frontmatterPattern = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n(.*)`)

// Note types.
const (
	TypeAnnouncement = "announcement"
	TypeMessage      = "message"
)

// Frontmatter represents the structured metadata at the beginning of a note
type Frontmatter struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	Type       string   `yaml:"type"`
	Course     string   `yaml:"course,omitempty"`
	Author     string   `yaml:"author"`
	Username   string   `yaml:"username"`
	Tags       []string `yaml:"tags,flow"`
	Published  string   `yaml:"published"`
	Exported   string   `yaml:"exported"`
	Visits     int      `yaml:"visits,omitempty"`
	Comments   int      `yaml:"comments,omitempty"`
	Recipients int      `yaml:"recipients,omitempty"`
}

// Parse extracts frontmatter from content and returns the parsed data and body
func Parse(content string) (*Frontmatter, string, error) {
	matches := frontmatterPattern.FindStringSubmatch(content)
	if len(matches) != 3 {
		// No frontmatter found
		return nil, content, nil
	}

	var fm Frontmatter
	if err := yaml.Unmarshal([]byte(matches[1]), &fm); err != nil {
		return nil, content, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	// Ensure arrays are never nil
	if fm.Tags == nil {
		fm.Tags = []string{}
	}

	return &fm, matches[2], nil
}

// Build creates the YAML frontmatter block, fences included.
func Build(fm *Frontmatter) (string, error) {
	if fm.Tags == nil {
		fm.Tags = []string{}
	}
	out, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshal frontmatter: %w", err)
	}
	return "---\n" + string(out) + "---", nil
}

// BuildContent combines frontmatter and body content into a complete document
func BuildContent(fm *Frontmatter, bodyContent string) (string, error) {
	frontmatterStr, err := Build(fm)
	if err != nil {
		return "", err
	}

	// Ensure proper spacing between frontmatter and body
	if !strings.HasPrefix(bodyContent, "\n") {
		return frontmatterStr + "\n\n" + bodyContent, nil
	}
	return frontmatterStr + "\n" + bodyContent, nil
}

// FormatTimestamp formats a time.Time into the standard frontmatter timestamp format
func FormatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// ParseTimestamp parses a frontmatter timestamp string into time.Time
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse("2006-01-02 15:04:05", s)
}

// MergeTags combines multiple tag sources and removes duplicates
func MergeTags(sources ...[]string) []string {
	seen := make(map[string]bool)
	result := []string{}

	for _, tags := range sources {
		for _, tag := range tags {
			if tag != "" && !seen[tag] {
				seen[tag] = true
				result = append(result, tag)
			}
		}
	}

	return result
}

var slugUnsafe = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Slug turns a title into a file name stem.
func Slug(title string) string {
	// A Caser keeps state and must not be shared.
	lower := cases.Lower(language.German)
	slug := strings.Trim(slugUnsafe.ReplaceAllString(lower.String(title), "-"), "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}

// stableID derives the same id for the same item on every export so notes
// are overwritten instead of duplicated.
func stableID(parts ...string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.Join(parts, "\x00"))).String()
}

// Note is a rendered markdown document.
type Note struct {
	Name    string // file name
	Content string
}

// Announcement renders a course announcement.
func Announcement(a models.Announcement, course string, loc *time.Location, now time.Time) (Note, error) {
	published := time.UnixMilli(a.PublishDate).In(loc)
	fm := &Frontmatter{
		ID:        stableID(TypeAnnouncement, course, a.Title, fmt.Sprint(a.PublishDate)),
		Title:     a.Title,
		Type:      TypeAnnouncement,
		Course:    course,
		Author:    a.Author.FullName,
		Username:  a.Author.Username,
		Tags:      MergeTags([]string{TypeAnnouncement}, []string{Slug(course)}),
		Published: FormatTimestamp(published),
		Exported:  FormatTimestamp(now.In(loc)),
		Visits:    a.Visits,
		Comments:  a.Comments,
	}
	content, err := BuildContent(fm, "# "+a.Title+"\n\n"+a.Description+"\n")
	if err != nil {
		return Note{}, err
	}
	name := published.Format("2006-01-02") + "-" + Slug(a.Title) + ".md"
	return Note{Name: name, Content: content}, nil
}

// Message renders an inbox message with its loaded body.
func Message(m models.Message, details models.MessageDetails, loc *time.Location, now time.Time) (Note, error) {
	sent := time.UnixMilli(m.SendTime).In(loc)
	fm := &Frontmatter{
		ID:         stableID(TypeMessage, m.ID),
		Title:      m.Title,
		Type:       TypeMessage,
		Author:     m.Author.FullName,
		Username:   m.Author.Username,
		Tags:       []string{TypeMessage},
		Published:  FormatTimestamp(sent),
		Exported:   FormatTimestamp(now.In(loc)),
		Recipients: details.Recipients,
	}
	content, err := BuildContent(fm, "# "+m.Title+"\n\n"+details.Content+"\n")
	if err != nil {
		return Note{}, err
	}
	name := sent.Format("2006-01-02") + "-" + Slug(m.Title) + ".md"
	return Note{Name: name, Content: content}, nil
}
