package extract

import "strings"

// entityReplacements are applied one after another. &amp; must come last,
// otherwise "&amp;quot;" would be decoded twice.
var entityReplacements = [][2]string{
	{"&quot;", `"`},
	{"&lt;", "<"},
	{"&gt;", ">"},
	{"&amp;", "&"},
}

// UnescapeEntities decodes the four entities the portal uses when it embeds
// JSON in an HTML attribute.
func UnescapeEntities(s string) string {
	for _, r := range entityReplacements {
		s = strings.ReplaceAll(s, r[0], r[1])
	}
	return s
}

// FilesData returns the decoded JSON array of the data-files attribute.
func FilesData(page string) (string, bool) {
	blob, ok := firstGroup(filesDataPattern, page)
	if !ok {
		return "", false
	}
	return UnescapeEntities(blob), true
}

// FoldersData returns the decoded JSON array of the data-folders attribute.
func FoldersData(page string) (string, bool) {
	blob, ok := firstGroup(foldersDataPattern, page)
	if !ok {
		return "", false
	}
	return UnescapeEntities(blob), true
}

// AuthorUsername recovers a username from a profile link. The file listing
// only exposes the link, not the username itself.
func AuthorUsername(profileURL string) (string, bool) {
	return nonEmpty(firstGroup(usernamePattern, profileURL))
}
