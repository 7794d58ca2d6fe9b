// Package display holds small rendering helpers shared by the CLI commands.
package display

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattsolo1/grove-core/tui/theme"

	"github.com/mattsolo1/grove-campus/pkg/models"
)

// FuzzyDate describes how long ago t was, relative to now.
func FuzzyDate(t, now time.Time) string {
	seconds := now.Sub(t).Seconds()
	switch {
	case seconds < 5:
		return "A moment ago"
	case seconds < 60:
		return plural(int(seconds), "second")
	case seconds < 60*60:
		return plural(round(seconds/60), "minute")
	case seconds < 60*60*24:
		return plural(round(seconds/60/60), "hour")
	}

	months := int(now.Month()) - int(t.Month()) + (now.Year()-t.Year())*12
	if months < 2 {
		return plural(round(seconds/60/60/24), "day")
	}
	if years := round(float64(months) / 12); years >= 1 {
		return plural(years, "year")
	}
	return plural(months, "month")
}

// FuzzyUnix is FuzzyDate for epoch seconds.
func FuzzyUnix(sec int64, now time.Time) string {
	return FuzzyDate(time.Unix(sec, 0), now)
}

func round(f float64) int {
	return int(math.Floor(f + 0.5))
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// HumanSize formats a byte count in binary units.
func HumanSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// Tree writes contents as an indented tree, folders before files.
func Tree(w io.Writer, contents models.FolderContents) error {
	return writeTree(w, contents, "")
}

func writeTree(w io.Writer, contents models.FolderContents, indent string) error {
	total := len(contents.Folders) + len(contents.Files)
	i := 0
	branch := func() string {
		i++
		if i == total {
			return "└ "
		}
		return "├ "
	}

	for _, folder := range contents.Folders {
		prefix := branch()
		if _, err := fmt.Fprintf(w, "%s%s%s %s\n", indent, prefix, theme.IconFolder, folder.Name); err != nil {
			return err
		}
		child := indent + strings.NewReplacer("├ ", "│ ", "└ ", "  ").Replace(prefix)
		if err := writeTree(w, folder.Contents, child); err != nil {
			return err
		}
	}
	for _, file := range contents.Files {
		if _, err := fmt.Fprintf(w, "%s%s%s %s  %s\n", indent, branch(), theme.IconDocs, file.Name, HumanSize(file.Size)); err != nil {
			return err
		}
	}
	return nil
}
