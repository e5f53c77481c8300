package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModerator_CensorsConfiguredWords(t *testing.T) {
	req := require.New(t)
	m, err := NewModerator([]string{"heck", "darn"}, '*')
	req.NoError(err)
	req.NotNil(m)

	req.Equal("what the ****", m.Censor("what the heck"))
	req.Equal("**** it all", m.Censor("darn it all"))
}

func TestModerator_CaseInsensitive(t *testing.T) {
	req := require.New(t)
	m, err := NewModerator([]string{"heck"}, '*')
	req.NoError(err)

	req.Equal("****, ****, ****", m.Censor("HECK, Heck, hEcK"))
}

func TestModerator_CleanContentUntouched(t *testing.T) {
	req := require.New(t)
	m, err := NewModerator([]string{"heck"}, '*')
	req.NoError(err)

	content := "a perfectly polite message"
	req.Equal(content, m.Censor(content))
}

func TestModerator_EmptyWordListDisablesModeration(t *testing.T) {
	req := require.New(t)

	m, err := NewModerator([]string{"", "  "}, '*')

	req.NoError(err)
	req.Nil(m)
}
