package job

import "strings"

const fence = "```"

// CleanGeneratedText trims model output and removes a code fence only when
// it wraps the whole response: an opening fence line (with any language
// tag) and a closing fence on the last line. Anything else, including a
// response that merely ends in a code block, is returned trimmed.
func CleanGeneratedText(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, fence) {
		return text
	}

	nl := strings.IndexByte(text, '\n')
	if nl == -1 {
		return text
	}
	body := text[nl+1:]
	if !strings.HasSuffix(body, fence) {
		return text
	}
	body = strings.TrimSuffix(body, fence)
	if body != "" && !strings.HasSuffix(body, "\n") {
		return text
	}
	return strings.TrimSpace(body)
}
