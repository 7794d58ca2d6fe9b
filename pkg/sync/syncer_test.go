package sync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattsolo1/grove-campus/pkg/models"
)

// fakeRemote serves payloads keyed by file id and counts downloads.
type fakeRemote struct {
	mu      gosync.Mutex
	data    map[string][]byte
	calls   map[string]int
	failing map[string]bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: map[string][]byte{}, calls: map[string]int{}, failing: map[string]bool{}}
}

func (r *fakeRemote) add(id, name, payload string) models.File {
	r.data[id] = []byte(payload)
	return models.File{ID: id, Name: name, Size: int64(len(payload)), DownloadURL: "https://portal.example/sendfile.php?file_id=" + id}
}

func (r *fakeRemote) Download(_ context.Context, file models.File) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[file.ID]++
	if r.failing[file.ID] {
		return nil, errors.New("server error")
	}
	data, ok := r.data[file.ID]
	if !ok {
		return nil, fmt.Errorf("no such file %s", file.ID)
	}
	return data, nil
}

func (r *fakeRemote) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.calls {
		n += c
	}
	return n
}

func tree(r *fakeRemote) models.FolderContents {
	return models.FolderContents{
		Files: []models.File{r.add("f1", "Organisatorisches.pdf", "orga")},
		Folders: []models.Folder{
			{
				ID:   "d1",
				Name: "Skripte",
				Contents: models.FolderContents{
					Files: []models.File{
						r.add("f2", "Kapitel 1.pdf", "kapitel eins"),
						r.add("f3", "Kapitel 2.pdf", "kapitel zwei"),
					},
					Folders: []models.Folder{
						{ID: "d2", Name: "Alt", Contents: models.FolderContents{
							Files: []models.File{r.add("f4", "2019.pdf", "alt")},
						}},
					},
				},
			},
			{ID: "d3", Name: "Leer"},
		},
	}
}

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(data)
}

func TestSyncContentsMaterializesTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	remote := newFakeRemote()
	contents := tree(remote)
	root := filepath.Join("/courses", "analysis")

	report, err := NewSyncer(remote, WithFs(fs)).SyncContents(context.Background(), contents, root)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Downloaded)
	assert.Equal(t, 0, report.Unchanged)
	assert.Equal(t, 4, report.FoldersCreated) // root, Skripte, Alt, Leer
	assert.Equal(t, 0, report.Failed)

	assert.Equal(t, "orga", readFile(t, fs, filepath.Join(root, "Organisatorisches.pdf")))
	assert.Equal(t, "kapitel zwei", readFile(t, fs, filepath.Join(root, "Skripte", "Kapitel 2.pdf")))
	assert.Equal(t, "alt", readFile(t, fs, filepath.Join(root, "Skripte", "Alt", "2019.pdf")))

	info, err := fs.Stat(filepath.Join(root, "Leer"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSyncContentsIsIdempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	remote := newFakeRemote()
	contents := tree(remote)
	syncer := NewSyncer(remote, WithFs(fs))

	_, err := syncer.SyncContents(context.Background(), contents, "/sync")
	require.NoError(t, err)
	require.Equal(t, 4, remote.total())

	report, err := syncer.SyncContents(context.Background(), contents, "/sync")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Downloaded)
	assert.Equal(t, 4, report.Unchanged)
	assert.Equal(t, 0, report.FoldersCreated)
	assert.Equal(t, 4, remote.total(), "second run must not download")
}

func TestSyncContentsRedownloadsOnSizeMismatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	remote := newFakeRemote()
	file := remote.add("f1", "Blatt.pdf", "neue fassung")
	contents := models.FolderContents{Files: []models.File{file}}

	require.NoError(t, fs.MkdirAll("/sync", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/sync/Blatt.pdf", []byte("alte fassung, deutlich laenger"), 0o644))

	report, err := NewSyncer(remote, WithFs(fs)).SyncContents(context.Background(), contents, "/sync")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Downloaded)
	assert.Equal(t, 0, report.FoldersCreated, "existing root is not an error")
	assert.Equal(t, "neue fassung", readFile(t, fs, "/sync/Blatt.pdf"))
}

func TestSyncContentsKeepsGoingAfterFailure(t *testing.T) {
	fs := afero.NewMemMapFs()
	remote := newFakeRemote()
	contents := tree(remote)
	remote.failing["f2"] = true

	report, err := NewSyncer(remote, WithFs(fs), WithMaxDownloads(1)).SyncContents(context.Background(), contents, "/sync")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Downloaded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "Kapitel 1.pdf")

	exists, err := afero.Exists(fs, "/sync/Skripte/Kapitel 1.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSyncContentsCanceled(t *testing.T) {
	fs := afero.NewMemMapFs()
	remote := newFakeRemote()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSyncer(remote, WithFs(fs)).SyncContents(ctx, tree(remote), "/sync")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSyncContentsRootIsFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/sync", []byte("x"), 0o644))

	_, err := NewSyncer(newFakeRemote(), WithFs(fs)).SyncContents(context.Background(), models.FolderContents{}, "/sync")
	assert.Error(t, err)
}

func TestPlan(t *testing.T) {
	fs := afero.NewMemMapFs()
	remote := newFakeRemote()
	contents := tree(remote)
	syncer := NewSyncer(remote, WithFs(fs))

	require.NoError(t, fs.MkdirAll("/sync/Skripte", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/sync/Skripte/Kapitel 1.pdf", []byte("kapitel eins"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/sync/Organisatorisches.pdf", []byte("x"), 0o644))

	actions, err := syncer.Plan(context.Background(), contents, "/sync")
	require.NoError(t, err)

	byPath := map[string]Action{}
	for _, a := range actions {
		byPath[a.Path] = a
	}
	assert.Equal(t, ActionDownload, byPath["/sync/Organisatorisches.pdf"].Kind)
	assert.Equal(t, "size 1, remote 4", byPath["/sync/Organisatorisches.pdf"].Reason)
	assert.Equal(t, ActionSkip, byPath["/sync/Skripte/Kapitel 1.pdf"].Kind)
	assert.Equal(t, ActionDownload, byPath["/sync/Skripte/Kapitel 2.pdf"].Kind)
	assert.Equal(t, ActionCreateFolder, byPath["/sync/Skripte/Alt"].Kind)
	assert.Equal(t, ActionDownload, byPath["/sync/Skripte/Alt/2019.pdf"].Kind)
	assert.Equal(t, ActionCreateFolder, byPath["/sync/Leer"].Kind)
	assert.NotContains(t, byPath, "/sync")
	assert.Equal(t, 0, remote.total(), "planning must not download")

	// Running the plan downloads exactly the planned files.
	report, err := syncer.SyncContents(context.Background(), contents, "/sync")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Downloaded)
	assert.Equal(t, 1, report.Unchanged)
}

func TestSafeName(t *testing.T) {
	tests := map[string]string{
		"Skript.pdf":     "Skript.pdf",
		"a/b.pdf":        "a_b.pdf",
		`a\b.pdf`:        "a_b.pdf",
		".":              "__",
		"..":             "___",
		"":               "_",
		"../../etc":      ".._.._etc",
		"Übung 1 (neu)":  "Übung 1 (neu)",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeName(in), in)
	}
}

func TestDecodeTargets(t *testing.T) {
	raw := []interface{}{
		map[string]interface{}{"course": "c1", "path": "/home/emuster/Analysis"},
		map[string]interface{}{"course": "c2", "path": "/home/emuster/LA"},
	}
	targets, err := DecodeTargets(raw)
	require.NoError(t, err)
	assert.Equal(t, []Target{
		{CourseID: "c1", Path: "/home/emuster/Analysis"},
		{CourseID: "c2", Path: "/home/emuster/LA"},
	}, targets)

	targets, err = DecodeTargets(nil)
	require.NoError(t, err)
	assert.Empty(t, targets)

	_, err = DecodeTargets("c1")
	assert.Error(t, err)

	_, err = DecodeTargets([]interface{}{map[string]interface{}{"course": "c1"}})
	assert.Error(t, err)
}

func TestSyncContentsDownloadsConcurrently(t *testing.T) {
	remote := newFakeRemote()
	contents := tree(remote)
	const files = 4

	// Every download waits until all of them have started.
	var started gosync.WaitGroup
	started.Add(files)
	all := make(chan struct{})
	go func() {
		started.Wait()
		close(all)
	}()
	var timedOut atomic.Bool
	gated := DownloaderFunc(func(ctx context.Context, file models.File) ([]byte, error) {
		started.Done()
		select {
		case <-all:
		case <-time.After(2 * time.Second):
			timedOut.Store(true)
		}
		return remote.Download(ctx, file)
	})

	report, err := NewSyncer(gated, WithFs(afero.NewMemMapFs())).SyncContents(context.Background(), contents, "/courses/analysis")
	require.NoError(t, err)
	assert.Equal(t, files, report.Downloaded)
	assert.False(t, timedOut.Load(), "files were downloaded one after another")
}
