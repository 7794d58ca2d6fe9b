package mapper

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mattsolo1/grove-campus/pkg/extract"
	"github.com/mattsolo1/grove-campus/pkg/models"
)

var (
	entryKeys = []string{"id", "name", "author_name", "author_url", "chdate"}
	fileKeys  = append(append([]string{}, entryKeys...), "size", "download_url", "downloads")
)

type rawEntry struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	AuthorName string      `json:"author_name"`
	AuthorURL  string      `json:"author_url"`
	Chdate     json.Number `json:"chdate"`
}

type rawFile struct {
	rawEntry
	Size        string `json:"size"`
	DownloadURL string `json:"download_url"`
	Downloads   string `json:"downloads"`
}

// FolderRef is a child folder whose contents have not been fetched yet.
type FolderRef struct {
	ID          string
	Name        string
	Author      models.User
	DateCreated int64
}

// Folder attaches fetched contents to the reference.
func (r FolderRef) Folder(contents models.FolderContents) models.Folder {
	return models.Folder{
		ID:          r.ID,
		Name:        r.Name,
		Author:      r.Author,
		DateCreated: r.DateCreated,
		Contents:    contents,
	}
}

// Files maps a data-files blob. A blob that does not match the schema as a
// whole yields no files and ErrShape; single entries whose author cannot be
// recovered, or whose numbers do not parse, are dropped.
func Files(blob string) ([]models.File, error) {
	entries, err := array[rawFile](blob, fileKeys)
	if err != nil {
		return []models.File{}, err
	}

	files := make([]models.File, 0, len(entries))
	for _, raw := range entries {
		author, ok := author(raw.rawEntry)
		if !ok {
			continue
		}
		modified, ok := epoch(raw.Chdate)
		if !ok {
			continue
		}
		size, err := strconv.ParseInt(raw.Size, 10, 64)
		if err != nil {
			continue
		}
		downloads, err := strconv.Atoi(raw.Downloads)
		if err != nil {
			continue
		}
		files = append(files, models.File{
			ID:            raw.ID,
			Name:          raw.Name,
			Author:        author,
			DateModified:  modified,
			DownloadURL:   raw.DownloadURL,
			DownloadCount: downloads,
			Size:          size,
		})
	}
	return files, nil
}

// Folders maps a data-folders blob into references, with the same failure
// rules as Files.
func Folders(blob string) ([]FolderRef, error) {
	entries, err := array[rawEntry](blob, entryKeys)
	if err != nil {
		return []FolderRef{}, err
	}

	refs := make([]FolderRef, 0, len(entries))
	for _, raw := range entries {
		author, ok := author(raw)
		if !ok {
			continue
		}
		created, ok := epoch(raw.Chdate)
		if !ok {
			continue
		}
		refs = append(refs, FolderRef{ID: raw.ID, Name: raw.Name, Author: author, DateCreated: created})
	}
	return refs, nil
}

// array validates every element of a JSON array against keys and T before
// any is used.
func array[T any](blob string, keys []string) ([]T, error) {
	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(blob), &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShape, err)
	}
	typed := make([]T, len(entries))
	for i, entry := range entries {
		if _, err := object(entry, keys); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if err := json.Unmarshal(entry, &typed[i]); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrShape, i, err)
		}
	}
	return typed, nil
}

func author(raw rawEntry) (models.User, bool) {
	username, ok := extract.AuthorUsername(raw.AuthorURL)
	if !ok {
		return models.User{}, false
	}
	return models.User{Username: username, FullName: raw.AuthorName}, true
}

func epoch(n json.Number) (int64, bool) {
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return int64(f), true
}

// SortContents orders files and folders by name, ascending, using the
// collation rules of tag. Equal names keep their order.
func SortContents(contents *models.FolderContents, tag language.Tag) {
	// A Collator is not safe for concurrent use, and sibling folders are
	// sorted from different goroutines.
	col := collate.New(tag)
	sort.SliceStable(contents.Files, func(i, j int) bool {
		return col.CompareString(contents.Files[i].Name, contents.Files[j].Name) < 0
	})
	sort.SliceStable(contents.Folders, func(i, j int) bool {
		return col.CompareString(contents.Folders[i].Name, contents.Folders[j].Name) < 0
	})
}
