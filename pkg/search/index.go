package search

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/net/html"
)

// Kinds of indexed documents.
const (
	KindAnnouncement = "announcement"
	KindMessage      = "message"
	KindFile         = "file"
)

// Document is one searchable item seen on the portal.
type Document struct {
	Key      string    `json:"key"`
	Kind     string    `json:"kind"`
	CourseID string    `json:"course_id,omitempty"`
	Title    string    `json:"title"`
	Content  string    `json:"content,omitempty"`
	Author   string    `json:"author,omitempty"`
	Date     time.Time `json:"date"`
}

// Result is a matching document.
type Result struct {
	Document
	Snippet string `json:"snippet,omitempty"`
}

// Index manages the search index
type Index struct {
	db     *sql.DB
	useFTS bool
}

// NewIndex creates a new search index
func NewIndex(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	idx := &Index{db: db}
	if err := idx.init(); err != nil {
		db.Close()
		return nil, err
	}

	return idx, nil
}

// init creates the database schema
func (idx *Index) init() error {
	// First, check if FTS5 is available
	idx.useFTS = idx.checkFTS5Support()

	metaSchema := `
	CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		course_id TEXT,
		title TEXT,
		content TEXT,
		author TEXT,
		date TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_kind ON documents(kind);
	CREATE INDEX IF NOT EXISTS idx_documents_course ON documents(course_id);
	`
	if _, err := idx.db.Exec(metaSchema); err != nil {
		return err
	}

	if idx.useFTS {
		ftsSchema := `
		CREATE VIRTUAL TABLE IF NOT EXISTS documents_fts USING fts5(
			key UNINDEXED,
			title,
			content,
			author,
			tokenize = 'porter unicode61'
		);
		`
		if _, err := idx.db.Exec(ftsSchema); err != nil {
			// If FTS creation fails, disable FTS and continue
			idx.useFTS = false
		}
	}

	return nil
}

// checkFTS5Support checks if FTS5 module is available
func (idx *Index) checkFTS5Support() bool {
	_, err := idx.db.Exec("CREATE VIRTUAL TABLE IF NOT EXISTS fts5_test USING fts5(content)")
	if err != nil {
		return false
	}

	_, _ = idx.db.Exec("DROP TABLE IF EXISTS fts5_test")
	return true
}

// Put indexes or reindexes documents in one transaction.
func (idx *Index) Put(docs ...Document) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, doc := range docs {
		if doc.Key == "" {
			return fmt.Errorf("document without key")
		}
		if idx.useFTS {
			if _, err := tx.Exec("DELETE FROM documents_fts WHERE key = ?", doc.Key); err != nil {
				return err
			}
			if _, err := tx.Exec(`INSERT INTO documents_fts (key, title, content, author) VALUES (?, ?, ?, ?)`,
				doc.Key, doc.Title, doc.Content, doc.Author); err != nil {
				return err
			}
		}
		_, err := tx.Exec(`
			INSERT INTO documents (key, kind, course_id, title, content, author, date)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				kind = excluded.kind,
				course_id = excluded.course_id,
				title = excluded.title,
				content = excluded.content,
				author = excluded.author,
				date = excluded.date
		`, doc.Key, doc.Kind, doc.CourseID, doc.Title, doc.Content, doc.Author, doc.Date.UTC())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Options for searching
type Options struct {
	Kind     string `json:"kind,omitempty"`
	CourseID string `json:"course_id,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Search performs a full-text search
func (idx *Index) Search(query string, opts *Options) ([]Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	if opts.Limit == 0 {
		opts.Limit = 50
	}
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return []Result{}, nil
	}

	if idx.useFTS {
		return idx.searchWithFTS(terms, opts)
	}
	return idx.searchWithoutFTS(terms, opts)
}

func filters(opts *Options, prefix string) ([]string, []any) {
	var conditions []string
	var args []any
	if opts.Kind != "" {
		conditions = append(conditions, prefix+"kind = ?")
		args = append(args, opts.Kind)
	}
	if opts.CourseID != "" {
		conditions = append(conditions, prefix+"course_id = ?")
		args = append(args, opts.CourseID)
	}
	return conditions, args
}

// searchWithFTS performs search using FTS5
func (idx *Index) searchWithFTS(terms []string, opts *Options) ([]Result, error) {
	// Every term is quoted so user input cannot break the match syntax.
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}

	conditions, args := filters(opts, "d.")
	conditions = append(conditions, "documents_fts MATCH ?")
	args = append(args, strings.Join(quoted, " "), opts.Limit)

	searchQuery := fmt.Sprintf(`
		SELECT
			d.key, d.kind, d.course_id, d.title, d.content, d.author, d.date,
			snippet(documents_fts, 2, '<match>', '</match>', '...', 32) as snippet
		FROM documents_fts f
		JOIN documents d ON f.key = d.key
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	return idx.query(searchQuery, args, true)
}

// searchWithoutFTS performs search using LIKE queries on the documents table
func (idx *Index) searchWithoutFTS(terms []string, opts *Options) ([]Result, error) {
	conditions, args := filters(opts, "")
	searchPattern := "%" + strings.Join(terms, "%") + "%"
	conditions = append(conditions, "(title LIKE ? OR content LIKE ? OR author LIKE ?)")
	args = append(args, searchPattern, searchPattern, searchPattern, opts.Limit)

	searchQuery := fmt.Sprintf(`
		SELECT key, kind, course_id, title, content, author, date
		FROM documents
		WHERE %s
		ORDER BY date DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	return idx.query(searchQuery, args, false)
}

func (idx *Index) query(q string, args []any, withSnippet bool) ([]Result, error) {
	rows, err := idx.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var (
			r        Result
			courseID sql.NullString
			content  sql.NullString
			author   sql.NullString
		)
		dest := []any{&r.Key, &r.Kind, &courseID, &r.Title, &content, &author, &r.Date}
		if withSnippet {
			dest = append(dest, &r.Snippet)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		r.CourseID, r.Content, r.Author = courseID.String, content.String, author.String
		results = append(results, r)
	}
	return results, rows.Err()
}

// Get returns the document stored under key.
func (idx *Index) Get(key string) (Document, bool, error) {
	results, err := idx.query(`
		SELECT key, kind, course_id, title, content, author, date
		FROM documents
		WHERE key = ?
	`, []any{key}, false)
	if err != nil || len(results) == 0 {
		return Document{}, false, err
	}
	return results[0].Document, true, nil
}

// Remove removes a document from the index
func (idx *Index) Remove(key string) error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if idx.useFTS {
		if _, err := tx.Exec("DELETE FROM documents_fts WHERE key = ?", key); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("DELETE FROM documents WHERE key = ?", key); err != nil {
		return err
	}

	return tx.Commit()
}

// Purge removes every document.
func (idx *Index) Purge() error {
	tx, err := idx.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if idx.useFTS {
		if _, err := tx.Exec("DELETE FROM documents_fts"); err != nil {
			return err
		}
	}
	if _, err := tx.Exec("DELETE FROM documents"); err != nil {
		return err
	}

	return tx.Commit()
}

// Close closes the index
func (idx *Index) Close() error {
	return idx.db.Close()
}

// PlainText strips markup from an HTML fragment. Text of adjacent elements
// is separated by whitespace.
func PlainText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	var sb strings.Builder
	for _, n := range doc.Nodes {
		collectText(n, &sb)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
