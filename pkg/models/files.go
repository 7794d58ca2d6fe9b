package models

// File is a downloadable document in a course folder.
type File struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Author        User   `json:"author"`
	DateModified  int64  `json:"date_modified"` // epoch seconds
	DownloadURL   string `json:"download_url"`
	DownloadCount int    `json:"download_count"`
	Size          int64  `json:"size"` // bytes
}

// Folder is a course folder. Each folder owns its contents outright.
type Folder struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Author      User           `json:"author"`
	DateCreated int64          `json:"date_created"` // epoch seconds
	Contents    FolderContents `json:"contents"`
}

// FolderContents is the listing of one folder. The root of a course's file
// tree is a bare FolderContents without name or id.
type FolderContents struct {
	Files   []File   `json:"files"`
	Folders []Folder `json:"folders"`
}

// FileCount returns the number of files in the whole subtree.
func (c FolderContents) FileCount() int {
	n := len(c.Files)
	for _, f := range c.Folders {
		n += f.Contents.FileCount()
	}
	return n
}

// TotalSize returns the summed size of every file in the subtree.
func (c FolderContents) TotalSize() int64 {
	var total int64
	for _, f := range c.Files {
		total += f.Size
	}
	for _, f := range c.Folders {
		total += f.Contents.TotalSize()
	}
	return total
}
