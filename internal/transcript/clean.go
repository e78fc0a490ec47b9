package transcript

import (
	"regexp"
	"strings"
	"unicode"
)

// DefaultMaxChars is the transcript budget sent to the model.
const DefaultMaxChars = 12000

var (
	bracketed    = regexp.MustCompile(`\[.*?\]`)
	speakerLabel = regexp.MustCompile(`(?m)^[A-Za-z][A-Za-z0-9 _]{0,30}:\s*`)
	timeCode     = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
	whitespace   = regexp.MustCompile(`\s+`)

	fillers = []*regexp.Regexp{
		regexp.MustCompile(`(?i)subscribe\s+to\s+my\s+channel`),
		regexp.MustCompile(`(?i)like\s+and\s+subscribe`),
		regexp.MustCompile(`(?i)hit\s+the\s+notification\s+bell`),
		regexp.MustCompile(`(?i)follow\s+me\s+on\s+(instagram|twitter|facebook|tiktok)`),
		regexp.MustCompile(`(?i)check\s+out\s+my\s+(website|link\s+in\s+bio)`),
		regexp.MustCompile(`(?i)use\s+code\s+\w+\s+for\s+\d+%?\s+off`),
		regexp.MustCompile(`(?i)sponsored\s+by`),
		regexp.MustCompile(`(?i)this\s+video\s+is\s+brought\s+to\s+you\s+by`),
	}
)

// Clean strips bracketed annotations ([Music], [00:01:23]), leading speaker
// labels, standalone time codes and marketing filler, then collapses
// whitespace.
func Clean(raw string) string {
	text := bracketed.ReplaceAllString(raw, " ")
	text = speakerLabel.ReplaceAllString(text, "")
	text = timeCode.ReplaceAllString(text, " ")
	for _, re := range fillers {
		text = re.ReplaceAllString(text, " ")
	}
	text = whitespace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Truncate limits text to maxChars characters. When the hard cut leaves a
// period at or after 80% of the window, the text is cut just after it instead.
// A non-positive maxChars means no limit.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}

	cut := runes[:maxChars]
	last := -1
	for i := len(cut) - 1; i >= 0; i-- {
		if cut[i] == '.' {
			last = i
			break
		}
	}
	if last >= 0 && float64(last) >= 0.8*float64(maxChars) {
		cut = cut[:last+1]
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace)
}
