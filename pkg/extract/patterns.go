// Package extract isolates substructures of the portal's server-rendered pages.
//
// Every function here is pure: it takes page text and returns raw substrings.
// Nothing is validated or converted; that happens in package mapper. The
// patterns are tied to one portal's markup and are expected to break when it
// changes, so each one lives behind its own function.
package extract

import "regexp"

// Most patterns are single-line on purpose: `.` does not cross newlines, which
// keeps a greedy match from running into unrelated regions of the page.
var (
	securityTokenPattern = regexp.MustCompile(`input type="hidden" name="security_token" value="(.*?)"`)
	loginTicketPattern   = regexp.MustCompile(`input type="hidden" name="login_ticket" value="(.*?)"`)

	coursesDataPattern = regexp.MustCompile(`(?m)window\.STUDIP\.MyCoursesData = (.*?);\s*$`)

	courseTitlePattern     = regexp.MustCompile(`<div id="context-title">\s*<img .*?>\s*(.*)`)
	timeslotBlockPattern   = regexp.MustCompile(`<dt>Zeit / Veranstaltungsort</dt>\s*<dd>\s*(.*?)\s*</dd>`)
	filesSupportedPattern  = regexp.MustCompile(`dispatch\.php/course/files`)
	timeslotDataPattern    = regexp.MustCompile(`(.*?): (\d*?):(\d*?) - (\d*?):(\d*?),.*<em>(.*?)</em>`)
	timeslotLocPattern     = regexp.MustCompile(`.*?index/(.*?)\?.*?">(.*?)<`)
	timeslotSimpleLocation = regexp.MustCompile(`Ort: (.*)`)

	announcementPattern         = regexp.MustCompile(`(<article.*news[\s\S]*?</article>)`)
	announcementTitlePattern    = regexp.MustCompile(`<img .*news\.svg.*?>\s*(.*?)\s*</a>`)
	announcementAuthorPattern   = regexp.MustCompile(`news_user.*username=(.*)".*\s*(.*?)\s*<`)
	announcementDatePattern     = regexp.MustCompile(`news_date.*\s*(\d*)\.(\d*)\.(\d*)`)
	announcementVisitsPattern   = regexp.MustCompile(`news_visits.*\s*(\d*)`)
	announcementCommentsPattern = regexp.MustCompile(`news_comments.*\s.*?>\s*(\d*)`)
	announcementBodyPattern     = regexp.MustCompile(`formatted-content.*?>(.*?)</div`)

	filesDataPattern   = regexp.MustCompile(`data-files="(\[.*])"`)
	foldersDataPattern = regexp.MustCompile(`data-folders="(\[.*])"`)
	usernamePattern    = regexp.MustCompile(`username=(.*)`)

	messageDatePattern       = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4})\s+(\d{1,2}):(\d{2})`)
	messageRecipientsCounter = regexp.MustCompile(`(\d+) Empfänger`)
)

// firstGroup returns the first capture group of re in s.
func firstGroup(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}
