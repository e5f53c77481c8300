package commands

import (
	"fmt"
	"log/slog"
	"testing"

	"tcpchat/domain"

	"github.com/stretchr/testify/require"
)

// fakeSession records what a command did to the issuing session.
type fakeSession struct {
	color      domain.Color
	broadcasts []string
	notices    []string
}

func (f *fakeSession) Color() domain.Color         { return f.color }
func (f *fakeSession) SetColor(c domain.Color)     { f.color = c }
func (f *fakeSession) Notify(content string) error { f.notices = append(f.notices, content); return nil }
func (f *fakeSession) BroadcastServerMessage(content string) error {
	f.broadcasts = append(f.broadcasts, content)
	return nil
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(slog.Default(), 4.5)

	result := d.Process(&fakeSession{}, []string{"bogus"})

	req.Equal(`Command "bogus" does not exist.`, result)
}

func TestDispatcher_EmptyTokensIsUsageFault(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(slog.Default(), 4.5)

	result := d.Process(&fakeSession{}, nil)

	req.Equal("Error while processing command.", result)
}

func TestDispatcher_AliasBehavesLikeCommand(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(slog.Default(), 4.5)
	sessDirect := &fakeSession{color: domain.Black}
	sessAlias := &fakeSession{color: domain.Black}

	direct := d.Process(sessDirect, []string{"reroll"})
	aliased := d.Process(sessAlias, []string{"newcolor"})

	// Both paths ran the same handler: color changed, confirmation given.
	req.Contains(direct, "Changed your color to")
	req.Contains(aliased, "Changed your color to")
	req.GreaterOrEqual(sessDirect.color.ContrastRatio(domain.White), 4.5)
	req.GreaterOrEqual(sessAlias.color.ContrastRatio(domain.White), 4.5)
}

func TestDispatcher_RegisterOverwrites(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(slog.Default(), 4.5)
	d.Register(func(Session, []string) (string, error) {
		return "replaced", nil
	}, "Reroll", "reroll", "something else")

	result := d.Process(&fakeSession{}, []string{"reroll"})

	req.Equal("replaced", result)
}

func TestDispatcher_HandlerPanicIsContained(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(slog.Default(), 4.5)
	d.Register(func(Session, []string) (string, error) {
		panic("boom")
	}, "Boom", "boom", "")

	result := d.Process(&fakeSession{}, []string{"boom"})

	// The panic is logged, the user only sees the generic string.
	req.Equal("A fatal error occurred while trying to process this command.", result)
}

func TestDispatcher_HandlerErrorIsGeneric(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(slog.Default(), 4.5)
	d.Register(func(Session, []string) (string, error) {
		return "", fmt.Errorf("internal detail that must not leak")
	}, "Fail", "fail", "")

	result := d.Process(&fakeSession{}, []string{"fail"})

	req.Equal("A fatal error occurred while trying to process this command.", result)
}

func TestReroll_AvoidsCurrentColor(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(slog.Default(), 4.5)
	sess := &fakeSession{color: domain.Black}

	// Bounded retries make a repeat unlikely; over many rolls at least
	// the invariant "result is legible" must always hold.
	for i := 0; i < 20; i++ {
		result := d.Process(sess, []string{"reroll"})
		req.Contains(result, "Changed your color to")
		req.Contains(result, sess.color.Hex)
		req.GreaterOrEqual(sess.color.ContrastRatio(domain.White), 4.5)
	}
}

func TestHelp_NoArgumentIsUsageError(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(slog.Default(), 4.5)

	result := d.Process(&fakeSession{}, []string{"help"})

	req.Equal("Usage: /help <command>", result)
}

func TestHelp_KnownCommandBroadcasts(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(slog.Default(), 4.5)
	sess := &fakeSession{}

	result := d.Process(sess, []string{"help", "reroll"})

	// help issues its own messages instead of returning one.
	req.Empty(result)
	req.Len(sess.broadcasts, 3)
	req.Equal("Reroll (/reroll)", sess.broadcasts[0])
	req.Equal("Description: Change your color to a random color.", sess.broadcasts[1])
	req.Equal("Aliases: newcolor", sess.broadcasts[2])
}

func TestHelp_ResolvesAliases(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(slog.Default(), 4.5)
	sess := &fakeSession{}

	result := d.Process(sess, []string{"about", "newcolor"})

	req.Empty(result)
	req.NotEmpty(sess.broadcasts)
	req.Equal("Reroll (/reroll)", sess.broadcasts[0])
}

func TestHelp_UnknownCommand(t *testing.T) {
	req := require.New(t)
	d := NewDispatcher(slog.Default(), 4.5)

	result := d.Process(&fakeSession{}, []string{"help", "missing"})

	req.Equal(`Command "missing" does not exist.`, result)
}
