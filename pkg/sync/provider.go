package sync

import (
	"context"

	"github.com/mattsolo1/grove-campus/pkg/models"
)

// Downloader fetches the payload of a remote file.
type Downloader interface {
	Download(ctx context.Context, file models.File) ([]byte, error)
}

// DownloaderFunc adapts a function to Downloader.
type DownloaderFunc func(ctx context.Context, file models.File) ([]byte, error)

// Download calls f.
func (f DownloaderFunc) Download(ctx context.Context, file models.File) ([]byte, error) {
	return f(ctx, file)
}

// Report summarizes the results of a sync operation.
type Report struct {
	Root           string   `json:"root"`
	Downloaded     int      `json:"downloaded"`
	Unchanged      int      `json:"unchanged"`
	FoldersCreated int      `json:"folders_created"`
	Failed         int      `json:"failed"`
	Errors         []string `json:"errors,omitempty"` // Detailed error messages
}

// ActionKind is what a sync would do with one path.
type ActionKind string

const (
	ActionCreateFolder ActionKind = "mkdir"
	ActionDownload     ActionKind = "download"
	ActionSkip         ActionKind = "skip"
)

// Action is one step of a sync plan.
type Action struct {
	Kind   ActionKind   `json:"kind"`
	Path   string       `json:"path"`
	File   *models.File `json:"file,omitempty"`
	Reason string       `json:"reason,omitempty"`
}
