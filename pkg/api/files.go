package api

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/mattsolo1/grove-campus/pkg/extract"
	"github.com/mattsolo1/grove-campus/pkg/mapper"
	"github.com/mattsolo1/grove-campus/pkg/models"
)

// GetCourseFiles loads the whole file tree of a course.
func (c *Client) GetCourseFiles(ctx context.Context, courseID string) (*models.FolderContents, error) {
	contents, err := c.folderContents(ctx, courseID, "")
	if err != nil {
		return nil, err
	}
	return contents, nil
}

// folderContents lists one folder and recurses into its children. Sibling
// folders are fetched concurrently; a child whose listing fails is left out.
func (c *Client) folderContents(ctx context.Context, courseID, folderID string) (*models.FolderContents, error) {
	// The course root is the folder with the empty id.
	path := "dispatch.php/course/files/index/" + url.PathEscape(folderID) + "?cid=" + url.QueryEscape(courseID)
	body, err := c.page(ctx, path)
	if err != nil {
		return nil, err
	}

	filesBlob, hasFiles := extract.FilesData(body)
	foldersBlob, hasFolders := extract.FoldersData(body)
	if !hasFiles && !hasFolders {
		return nil, fmt.Errorf("%w: no listing in folder %q of course %s", ErrUnavailable, folderID, courseID)
	}

	contents := &models.FolderContents{Files: []models.File{}, Folders: []models.Folder{}}
	if hasFiles {
		files, err := mapper.Files(filesBlob)
		if err != nil {
			c.logger.WithError(err).WithField("folder", folderID).Warn("ignoring malformed file listing")
		}
		contents.Files = files
	}

	var refs []mapper.FolderRef
	if hasFolders {
		refs, err = mapper.Folders(foldersBlob)
		if err != nil {
			c.logger.WithError(err).WithField("folder", folderID).Warn("ignoring malformed folder listing")
		}
	}

	children := make([]*models.Folder, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		g.Go(func() error {
			sub, err := c.folderContents(gctx, courseID, ref.ID)
			if err != nil {
				c.logger.WithError(err).WithField("folder", ref.ID).Debug("skipping folder")
				return nil
			}
			folder := ref.Folder(*sub)
			children[i] = &folder
			return nil
		})
	}
	_ = g.Wait()

	for _, child := range children {
		if child != nil {
			contents.Folders = append(contents.Folders, *child)
		}
	}
	mapper.SortContents(contents, c.language)
	return contents, nil
}
