package speech

import (
	"regexp"
	"strings"
)

var (
	boldRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe = regexp.MustCompile(`\*(.*?)\*`)
	uscoreRe = regexp.MustCompile(`_(.*?)_`)
	codeRe   = regexp.MustCompile("`(.*?)`")
	emojiRe  = regexp.MustCompile(`[🎉🎯🎮🎧🎤📝📅📋📊📱👤👋✅❌🔒🔄🚀🏆💾🆕🗄️⚠️💭🤖🔊📄⏰🗓️]`)
	bulletRe = regexp.MustCompile(`(?m)^[•\-\*]\s*`)
	blanksRe = regexp.MustCompile(`\n\s*\n`)
	spacesRe = regexp.MustCompile(`\s+`)
)

// CleanForVoice strips markdown, emoji and list formatting so the text
// reads naturally when spoken aloud.
func CleanForVoice(text string) string {
	text = boldRe.ReplaceAllString(text, "$1")
	text = italicRe.ReplaceAllString(text, "$1")
	text = uscoreRe.ReplaceAllString(text, "$1")
	text = codeRe.ReplaceAllString(text, "$1")
	text = emojiRe.ReplaceAllString(text, "")
	text = bulletRe.ReplaceAllString(text, "")
	text = blanksRe.ReplaceAllString(text, "\n")
	text = spacesRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
