package docx

import (
	"html"
	"regexp"
)

var (
	// Word splits "{{" and "}}" across runs when the user edits a placeholder.
	splitOpen  = regexp.MustCompile(`\{(?:<[^>]*>)+([{%#])`)
	splitClose = regexp.MustCompile(`([}%#])(?:<[^>]*>)+\}`)
	tagBody    = regexp.MustCompile(`(?s)\{\{.*?\}\}|\{%.*?%\}|\{#.*?#\}`)
	runBreak   = regexp.MustCompile(`(?s)</w:t>.*?(?:<w:t>|<w:t [^>]*>)`)
	anyTag     = regexp.MustCompile(`<[^>]*>`)
)

// PatchXML joins template tags split across Word runs so the template engine
// sees each tag as one token. Text outside tags is left untouched.
func PatchXML(src string) string {
	src = splitOpen.ReplaceAllString(src, "{$1")
	src = splitClose.ReplaceAllString(src, "$1}")
	return tagBody.ReplaceAllStringFunc(src, func(tag string) string {
		tag = runBreak.ReplaceAllString(tag, "")
		tag = anyTag.ReplaceAllString(tag, "")
		return html.UnescapeString(tag)
	})
}
