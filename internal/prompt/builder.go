// Package prompt composes the system instruction sent to the completion provider.
package prompt

import (
	"bytes"
	"log/slog"
	"strings"

	"github.com/easeaico/liveroom/internal/mood"
	"github.com/easeaico/liveroom/internal/types"
	"github.com/easeaico/liveroom/internal/utils"
)

// ComposeInput contains all inputs for prompt composition.
type ComposeInput struct {
	Character *types.Character
	Mood      *mood.Mood
}

// Compose assembles the system prompt for one request. The output depends only
// on the input: identical inputs yield identical prompts.
func Compose(in ComposeInput) string {
	c := in.Character
	if c == nil {
		c = &types.Character{}
	}

	display := firstNonEmpty(c.DisplayName, c.Name, "your companion")
	base := strings.TrimSpace(utils.NormalizePromptText(c.SystemPrompt, display, "you"))
	if base == "" {
		base = "You are " + display + ", a seductive and engaging AI companion."
	}

	data := struct {
		Base       string
		Name       string
		Background string
		Style      string
		AgeRange   string
		Mood       *mood.Mood
	}{
		Base:       base,
		Name:       display,
		Background: firstNonEmpty(c.BackgroundStory, defaultBackground),
		Style:      firstNonEmpty(c.ConversationStyle, defaultStyle),
		AgeRange:   firstNonEmpty(c.AgeRange, defaultAgeRange),
		Mood:       in.Mood,
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, data); err != nil {
		slog.Error("failed to build prompt", "character", c.Name, "error", err.Error())
		return base
	}
	return buf.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
