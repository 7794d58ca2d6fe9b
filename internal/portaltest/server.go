package portaltest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// SessionCookie mirrors the cookie name the portal uses.
const SessionCookie = "Seminar_Session"

// Portal is a fake portal. Protected pages render the login form unless the
// request carries Token.
type Portal struct {
	*httptest.Server

	Username string
	Password string
	Token    string

	mu        sync.Mutex
	CoursesJS string
	Overviews map[string]string // cid -> page
	Folders   map[string]string // folder id -> page; "" is the course root
	Messages  string
	Reads     map[string]string // message id -> page
	Blobs     map[string][]byte // file id -> payload
	LoginPage string
	Semester  string
	hits      map[string]int

	// FolderGate, when set, runs before a folder listing is served.
	FolderGate func(folderID string)
}

// NewPortal starts a fake portal that is closed with the test.
func NewPortal(t *testing.T) *Portal {
	t.Helper()
	p := &Portal{
		Username:  "emuster",
		Password:  "geheim",
		Token:     "tok-123",
		CoursesJS: CoursesJSON,
		Overviews: map[string]string{},
		Folders:   map[string]string{},
		Messages:  MessagesPage,
		Reads:     map[string]string{},
		Blobs:     map[string][]byte{},
		LoginPage: LoginPage,
		hits:      map[string]int{},
	}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Server.Close)
	return p
}

// Host returns the base URL with a trailing slash.
func (p *Portal) Host() string {
	return p.Server.URL + "/"
}

// DownloadURL returns the absolute download link of a blob.
func (p *Portal) DownloadURL(fileID string) string {
	return p.Server.URL + "/sendfile.php?type=0&file_id=" + fileID
}

// SetBlob registers a downloadable payload.
func (p *Portal) SetBlob(fileID string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Blobs[fileID] = data
}

// Hits returns how often path was requested.
func (p *Portal) Hits(path string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hits[path]
}

func (p *Portal) authenticated(r *http.Request) bool {
	c, err := r.Cookie(SessionCookie)
	return err == nil && c.Value == p.Token
}

func (p *Portal) serve(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.hits[r.URL.Path]++
	p.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case path == "index.php" && r.Method == http.MethodGet:
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "pre-login", Path: "/"})
		writePage(w, p.LoginPage)
	case path == "index.php" && r.Method == http.MethodPost:
		p.login(w, r)
	case path == "sendfile.php":
		p.sendFile(w, r)
	case !p.authenticated(r):
		writePage(w, LoginPage)
	case path == "dispatch.php/profile":
		writePage(w, ProfilePage)
	case path == "dispatch.php/my_courses":
		writePage(w, MyCoursesPage(p.CoursesJS))
	case path == "dispatch.php/my_courses/set_semester":
		p.mu.Lock()
		p.Semester = r.URL.Query().Get("sem_select")
		p.mu.Unlock()
		writePage(w, MyCoursesPage(p.CoursesJS))
	case path == "dispatch.php/course/overview":
		p.lookup(w, p.Overviews, r.URL.Query().Get("cid"))
	case strings.HasPrefix(path, "dispatch.php/course/files/index/"):
		folderID := strings.TrimPrefix(path, "dispatch.php/course/files/index/")
		if p.FolderGate != nil {
			p.FolderGate(folderID)
		}
		p.lookup(w, p.Folders, folderID)
	case path == "dispatch.php/messages/overview":
		writePage(w, p.Messages)
	case strings.HasPrefix(path, "dispatch.php/messages/read/"):
		p.lookup(w, p.Reads, strings.TrimPrefix(path, "dispatch.php/messages/read/"))
	default:
		http.NotFound(w, r)
	}
}

func (p *Portal) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pre, err := r.Cookie(SessionCookie)
	ok := err == nil && pre.Value == "pre-login" &&
		r.PostForm.Get("security_token") == "c2VjdXJpdHk=" &&
		r.PostForm.Get("login_ticket") == "9f8e7d6c" &&
		r.PostForm.Get("loginname") == p.Username &&
		r.PostForm.Get("password") == p.Password
	if !ok {
		writePage(w, LoginPage)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: p.Token, Path: "/", HttpOnly: true})
	http.Redirect(w, r, "/dispatch.php/start", http.StatusFound)
}

func (p *Portal) sendFile(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	data, ok := p.Blobs[r.URL.Query().Get("file_id")]
	p.mu.Unlock()
	if !ok || !p.authenticated(r) {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	_, _ = w.Write(data)
}

func (p *Portal) lookup(w http.ResponseWriter, pages map[string]string, key string) {
	p.mu.Lock()
	page, ok := pages[key]
	p.mu.Unlock()
	if !ok {
		writePage(w, "<html><body>Nicht gefunden</body></html>")
		return
	}
	writePage(w, page)
}

func writePage(w http.ResponseWriter, page string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}
