package extract

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// RawMessage is one row of the inbox overview.
type RawMessage struct {
	ID             string
	Title          string
	AuthorUsername string
	AuthorFullName string
	Day            string
	Month          string
	Year           string
	Hour           string
	Minute         string
}

// RawMessageDetails is the body of a message read page.
type RawMessageDetails struct {
	Recipients int
	Content    string
}

// Messages returns every row of the inbox table. Rows are isolated with
// selectors; the date cell is matched with a pattern.
func Messages(page string) []RawMessage {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil
	}

	var out []RawMessage
	doc.Find(`tr[id^="message_"]`).Each(func(_ int, row *goquery.Selection) {
		id, _ := row.Attr("id")
		raw := RawMessage{
			ID:    strings.TrimPrefix(id, "message_"),
			Title: strings.TrimSpace(row.Find("td.title a").First().Text()),
		}

		author := row.Find(`a[href*="username="]`).First()
		if href, ok := author.Attr("href"); ok {
			raw.AuthorUsername, _ = AuthorUsername(href)
			raw.AuthorFullName = strings.TrimSpace(author.Text())
		}

		if m := messageDatePattern.FindStringSubmatch(row.Find("td.date").Text()); m != nil {
			raw.Day, raw.Month, raw.Year, raw.Hour, raw.Minute = m[1], m[2], m[3], m[4], m[5]
		}
		out = append(out, raw)
	})
	return out
}

// MessageDetails parses a message read page. It fails when no message body
// is present, which is also the case for the login form.
func MessageDetails(page string) (RawMessageDetails, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return RawMessageDetails{}, false
	}

	body := doc.Find(".message-content").First()
	if body.Length() == 0 {
		body = doc.Find(".formatted-content").First()
	}
	if body.Length() == 0 {
		return RawMessageDetails{}, false
	}
	content, err := body.Html()
	if err != nil {
		return RawMessageDetails{}, false
	}

	details := RawMessageDetails{Content: strings.TrimSpace(content)}
	details.Recipients = doc.Find(".message-recipients a").Length()
	if details.Recipients == 0 {
		if n, ok := firstGroup(messageRecipientsCounter, doc.Text()); ok {
			details.Recipients, _ = strconv.Atoi(n)
		}
	}
	return details, true
}
