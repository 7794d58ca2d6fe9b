package display

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/mattsolo1/grove-core/tui/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-campus/pkg/models"
)

func TestFuzzyDate(t *testing.T) {
	now := time.Date(2024, time.April, 5, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		then time.Time
		want string
	}{
		{"just now", now.Add(-3 * time.Second), "A moment ago"},
		{"future", now.Add(time.Hour), "A moment ago"},
		{"seconds", now.Add(-30 * time.Second), "30 seconds ago"},
		{"minutes round", now.Add(-90 * time.Second), "2 minutes ago"},
		{"one hour", now.Add(-time.Hour), "1 hour ago"},
		{"hours", now.Add(-5 * time.Hour), "5 hours ago"},
		{"days within last month", time.Date(2024, time.March, 20, 10, 0, 0, 0, time.UTC), "16 days ago"},
		{"months", time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC), "3 months ago"},
		{"half a year rounds up", time.Date(2023, time.September, 5, 0, 0, 0, 0, time.UTC), "1 year ago"},
		{"years", time.Date(2022, time.April, 1, 0, 0, 0, 0, time.UTC), "2 years ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FuzzyDate(tt.then, now))
		})
	}
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "0 B", HumanSize(0))
	assert.Equal(t, "1023 B", HumanSize(1023))
	assert.Equal(t, "1.0 KiB", HumanSize(1024))
	assert.Equal(t, "1.5 MiB", HumanSize(3*512*1024))
}

func TestTree(t *testing.T) {
	contents := models.FolderContents{
		Files: []models.File{{Name: "Organisatorisches.pdf", Size: 4}},
		Folders: []models.Folder{
			{Name: "Skripte", Contents: models.FolderContents{
				Files: []models.File{{Name: "Kapitel 1.pdf", Size: 2048}},
				Folders: []models.Folder{{Name: "Alt"}},
			}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Tree(&buf, contents))

	want := fmt.Sprintf("├ %[1]s Skripte\n"+
		"│ ├ %[1]s Alt\n"+
		"│ └ %[2]s Kapitel 1.pdf  2.0 KiB\n"+
		"└ %[2]s Organisatorisches.pdf  4 B\n", theme.IconFolder, theme.IconDocs)
	assert.Equal(t, want, buf.String())
}
