package format

import "regexp"

var markdownSpecial = regexp.MustCompile("([_*`\\[])")

// Markdown escapes user supplied text, such as category names and payees, for the legacy
// Markdown parse mode every reply is sent with.
func Markdown(text string) string {
	return markdownSpecial.ReplaceAllString(text, `\$1`)
}
