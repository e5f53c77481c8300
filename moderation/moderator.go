// Package moderation masks configured words in chat content before it
// is persisted or broadcast.
package moderation

import (
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator matches censored words case-insensitively with an
// Aho-Corasick automaton and overwrites the matched runes in place,
// preserving message length and spacing.
type Moderator struct {
	matcher     *goahocorasick.Machine
	replacement rune
}

// NewModerator builds the automaton from the word list. Words are
// lowercased; empty entries are dropped.
func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(strings.ToLower(w))
		if w == "" {
			continue
		}
		patterns = append(patterns, []rune(w))
	}
	if len(patterns) == 0 {
		return nil, nil
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: m, replacement: replacement}, nil
}

// Censor replaces every censored word occurrence in content with the
// replacement rune. Matching is done on a lowercased copy; rune indices
// line up because unicode.ToLower maps rune to rune.
func (m *Moderator) Censor(content string) string {
	original := []rune(content)
	lowered := make([]rune, len(original))
	for i, r := range original {
		lowered[i] = unicode.ToLower(r)
	}

	spans := m.matcher.MultiPatternSearch(lowered, false)
	if len(spans) == 0 {
		return content
	}

	for _, span := range spans {
		for i := span.Pos; i < span.Pos+len(span.Word) && i < len(original); i++ {
			original[i] = m.replacement
		}
	}
	return string(original)
}
