package utils

import (
	"strings"
	"unicode/utf8"
)

// quotePairs are the wrapping quote styles models put around a whole reply.
var quotePairs = [][2]string{
	{`"`, `"`},
	{"“", "”"},
	{"'", "'"},
}

// CleanReply trims a completion and removes artifacts that break character:
// a leading "Name:" speaker tag and quotes wrapping the entire text.
func CleanReply(raw, charName string) string {
	clean := strings.TrimSpace(raw)

	if charName != "" {
		for _, tag := range []string{charName + ":", "**" + charName + ":**", charName + "："} {
			if len(clean) > len(tag) && strings.EqualFold(clean[:len(tag)], tag) {
				clean = strings.TrimSpace(clean[len(tag):])
				break
			}
		}
	}

	for _, q := range quotePairs {
		if utf8.RuneCountInString(clean) < 2 {
			break
		}
		if strings.HasPrefix(clean, q[0]) && strings.HasSuffix(clean, q[1]) {
			inner := clean[len(q[0]) : len(clean)-len(q[1])]
			// Leave replies that merely start and end with separate quotes alone.
			if !strings.Contains(inner, q[0]) && !strings.Contains(inner, q[1]) {
				clean = strings.TrimSpace(inner)
			}
			break
		}
	}

	return clean
}
