// Package portaltest provides page fixtures and a fake portal server for tests.
package portaltest

import (
	"fmt"
	"strings"
)

// LoginPage is the portal's start page with a login form.
const LoginPage = `<!DOCTYPE html>
<html>
<body>
<form name="login" method="post" action="index.php">
    <input type="hidden" name="security_token" value="c2VjdXJpdHk=">
    <input type="hidden" name="login_ticket" value="9f8e7d6c">
    <input type="text" name="loginname">
    <input type="password" name="password">
</form>
</body>
</html>
`

// LoginPageWithoutToken lacks the security token field.
const LoginPageWithoutToken = `<!DOCTYPE html>
<html>
<body>
<form name="login" method="post" action="index.php">
    <input type="hidden" name="login_ticket" value="9f8e7d6c">
</form>
</body>
</html>
`

// ProfilePage is what an authenticated profile request returns.
const ProfilePage = `<!DOCTYPE html>
<html>
<body>
<div id="profile"><h1>Erika Musterfrau</h1></div>
</body>
</html>
`

// CoursesJSON is a MyCoursesData blob with two courses sharing a parent group.
const CoursesJSON = `{"courses":{` +
	`"c2":{"admission_binding":false,"avatar":"pictures/c2.png","children":[],"extra_navigation":false,"format":"Vorlesung","group":1,"id":"c2","is_deputy":false,"is_group":false,"is_hidden":false,"is_studygroup":false,"is_teacher":false,"name":"Lineare Algebra","navigation":[false,{"attr":{"title":"Dateien"},"icon":{"role":"clickable","shape":"files"},"important":false,"url":"dispatch.php/course/files?cid=c2"}],"number":"LA-1","parent":null},` +
	`"c1":{"admission_binding":false,"avatar":"pictures/c1.png","children":[1,2],"extra_navigation":true,"format":"Seminar","group":2,"id":"c1","is_deputy":false,"is_group":false,"is_hidden":false,"is_studygroup":false,"is_teacher":true,"name":"Analysis; Teil 1","navigation":[{"attr":{"title":"Ankündigungen"},"icon":{"role":"attention","shape":"news"},"important":true,"url":"dispatch.php/course/overview?cid=c1"},false],"number":"AN-1",` +
	`"parent":{"admission_binding":false,"avatar":"pictures/g.png","children":[],"extra_navigation":false,"format":"Gruppe","group":0,"id":"g1","is_deputy":false,"is_group":true,"is_hidden":false,"is_studygroup":false,"is_teacher":false,"name":"Mathematik","navigation":[],"number":"","parent":null}}` +
	`}}`

// CoursesJSONMissingID has one course without an id.
const CoursesJSONMissingID = `{"courses":{"c1":{"admission_binding":false,"avatar":"","children":[],"extra_navigation":false,"format":"","group":0,"is_deputy":false,"is_group":false,"is_hidden":false,"is_studygroup":false,"is_teacher":false,"name":"Ohne ID","navigation":[],"number":"","parent":null}}}`

// MyCoursesPage embeds blob the way the course overview script does.
func MyCoursesPage(blob string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<script>
    window.STUDIP.MyCoursesData = %s;
    window.STUDIP.Other = 1;
</script>
</head>
<body></body>
</html>
`, blob)
}

// CourseOverviewPage has a title, four schedule fragments (three valid, one
// with an unknown weekday, plus free text) and three announcements of which
// only two are complete.
const CourseOverviewPage = `<!DOCTYPE html>
<html>
<body>
<div id="context-title">
    <img class="avatar-small" src="https://portal.example/pictures/course/nobody_small.png" alt="">
    Analysis   für     Informatiker
</div>
<nav><a href="https://portal.example/dispatch.php/course/files?cid=c1">Dateien</a></nav>
<dl>
<dt>Zeit / Veranstaltungsort</dt>
<dd>
    Montag: 10:15 - 11:45, wöchentlich (15x) <em>Vorlesung</em>, Ort: <a href="https://portal.example/dispatch.php/resources/room_index/r100?cid=c1">Hörsaal 1</a><br>Mittwoch: 08:00 - 09:30, wöchentlich <em>Übung</em>, Ort: Seminarraum 2<br>Blocktermin am 12.04.<br>Feiertag: 09:00 - 10:00, einmalig <em>Sondertermin</em><br>Sonntag: 14:00 - 16:00, einmalig <em>Exkursion</em>
</dd>
</dl>
<article class="studip toggle news" id="news_1">
    <header>
        <h1>
            <a href="https://portal.example/dispatch.php/course/overview?contentbox_open=1">
                <img src="https://portal.example/assets/images/icons/black/news.svg" alt="" class="icon-role-info">
                Klausurtermin &quot;Analysis&quot;
            </a>
        </h1>
        <nav>
            <a class="news_user" href="https://portal.example/dispatch.php/profile?username=mmuster">
                Max Mustermann
            </a>
            <span class="news_date" title="Ablaufdatum">
                03.04.2024
            </span>
            <span class="news_visits" title="Aufrufe">
                42
            </span>
            <span class="news_comments">
                <a href="https://portal.example/dispatch.php/course/overview?comments=1">
                    3
                </a>
            </span>
        </nav>
    </header>
    <section>
        <div class="formatted-content"><p>Die Klausur findet im Audimax statt.</p></div>
    </section>
</article>
<article class="studip toggle news" id="news_2">
    <header>
        <h1>
            <a href="https://portal.example/dispatch.php/course/overview?contentbox_open=2">
                <img src="https://portal.example/assets/images/icons/black/news.svg" alt="" class="icon-role-info">
                Ohne Datum
            </a>
        </h1>
        <nav>
            <a class="news_user" href="https://portal.example/dispatch.php/profile?username=mmuster">
                Max Mustermann
            </a>
            <span class="news_visits" title="Aufrufe">
                7
            </span>
        </nav>
    </header>
    <section>
        <div class="formatted-content"><p>Kaputt</p></div>
    </section>
</article>
<article class="studip toggle news" id="news_3">
    <header>
        <h1>
            <a href="https://portal.example/dispatch.php/course/overview?contentbox_open=3">
                <img src="https://portal.example/assets/images/icons/black/news.svg" alt="" class="icon-role-info">
                Tutorien
            </a>
        </h1>
        <nav>
            <a class="news_user" href="https://portal.example/dispatch.php/profile?username=emuster">
                Erika Musterfrau
            </a>
            <span class="news_date" title="Ablaufdatum">
                15.10.2023
            </span>
            <span class="news_visits" title="Aufrufe">
                120
            </span>
        </nav>
    </header>
    <section>
        <div class="formatted-content">Anmeldung ab Montag</div>
    </section>
</article>
</body>
</html>
`

// CourseOverviewWithoutSchedule has a title but no schedule block.
const CourseOverviewWithoutSchedule = `<!DOCTYPE html>
<html>
<body>
<div id="context-title">
    <img class="avatar-small" src="x.png" alt="">
    Ohne Termine
</div>
</body>
</html>
`

// EscapeAttr encodes s for an HTML attribute, the inverse of the portal's
// entity decoding.
func EscapeAttr(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return strings.ReplaceAll(s, `"`, "&quot;")
}

// FilesPage renders a folder listing. Either blob may be empty to omit the
// attribute. Each attribute sits on its own line like in the portal markup.
func FilesPage(filesJSON, foldersJSON string) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html>\n<body>\n<form id=\"files_table_form\"\n")
	if filesJSON != "" {
		fmt.Fprintf(&sb, "    data-files=\"%s\"\n", EscapeAttr(filesJSON))
	}
	if foldersJSON != "" {
		fmt.Fprintf(&sb, "    data-folders=\"%s\"\n", EscapeAttr(foldersJSON))
	}
	sb.WriteString(">\n</form>\n</body>\n</html>\n")
	return sb.String()
}

// FileJSON renders one entry of a data-files array.
func FileJSON(id, name string, size int64, downloadURL string) string {
	return fmt.Sprintf(`{"id":%q,"name":%q,"author_name":"Max Mustermann","author_url":"https://portal.example/dispatch.php/profile?username=mmuster","chdate":1712131200,"size":"%d","download_url":%q,"downloads":"17"}`,
		id, name, size, downloadURL)
}

// FolderJSON renders one entry of a data-folders array.
func FolderJSON(id, name string) string {
	return fmt.Sprintf(`{"id":%q,"name":%q,"author_name":"Erika Musterfrau","author_url":"https://portal.example/dispatch.php/profile?username=emuster","chdate":1700000000}`,
		id, name)
}

// Array joins entries into a JSON array.
func Array(entries ...string) string {
	return "[" + strings.Join(entries, ",") + "]"
}

// MessagesPage is an inbox with two well-formed rows and one without a date.
const MessagesPage = `<!DOCTYPE html>
<html>
<body>
<table class="default" id="messages">
<tbody>
<tr id="message_m1" class="unread">
    <td class="title"><a href="https://portal.example/dispatch.php/messages/read/m1">Raumänderung</a></td>
    <td class="author"><a href="https://portal.example/dispatch.php/profile?username=mmuster">Max Mustermann</a></td>
    <td class="date">12.03.2024 14:05</td>
</tr>
<tr id="message_m2">
    <td class="title"><a href="https://portal.example/dispatch.php/messages/read/m2">Sprechstunde</a></td>
    <td class="author"><a href="https://portal.example/dispatch.php/profile?username=emuster">Erika Musterfrau</a></td>
    <td class="date">01.02.2024 09:30</td>
</tr>
<tr id="message_m3">
    <td class="title"><a href="https://portal.example/dispatch.php/messages/read/m3">Kaputt</a></td>
    <td class="author"><a href="https://portal.example/dispatch.php/profile?username=emuster">Erika Musterfrau</a></td>
    <td class="date">gestern</td>
</tr>
</tbody>
</table>
</body>
</html>
`

// MessageReadPage is the detail page of message m1.
const MessageReadPage = `<!DOCTYPE html>
<html>
<body>
<table id="message_metadata">
<tr><td>An</td><td><ul class="message-recipients">
    <li><a href="https://portal.example/dispatch.php/profile?username=a">A</a></li>
    <li><a href="https://portal.example/dispatch.php/profile?username=b">B</a></li>
    <li><a href="https://portal.example/dispatch.php/profile?username=c">C</a></li>
</ul></td></tr>
</table>
<div class="message-content formatted-content">Hallo <b>alle</b>,<br>die Vorlesung fällt aus.</div>
</body>
</html>
`

// MessageReadPageCounter reports recipients only as a counter.
const MessageReadPageCounter = `<!DOCTYPE html>
<html>
<body>
<p>An: 25 Empfänger</p>
<div class="formatted-content">Rundmail</div>
</body>
</html>
`
