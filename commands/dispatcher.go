// Package commands implements the slash-command extension mechanism.
//
// The command table is built once at server startup and shared by every
// session; handlers receive the invoking session explicitly instead of
// being bound to one.
package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"tcpchat/domain"
	"tcpchat/errors"
)

// Session is the surface a command handler may touch on the session
// that issued the command.
type Session interface {
	Color() domain.Color
	SetColor(domain.Color)
	// BroadcastServerMessage persists content as a server message and
	// fans it out to every live session.
	BroadcastServerMessage(content string) error
	// Notify pushes a direct, non-persisted server notice to this
	// session only.
	Notify(content string) error
}

// Handler runs one command invocation. A non-empty result is persisted
// and broadcast as a server message by the caller; an error is logged
// and surfaced to the user as a generic failure string.
type Handler func(sess Session, args []string) (string, error)

// Command is one registered entry of the dispatcher table.
type Command struct {
	Name        string // display name, e.g. "Reroll"
	CommandName string
	Description string
	Aliases     []string
	Handler     Handler
}

// User-visible strings for dispatcher-level faults. Internal errors are
// only logged, never echoed into chat.
const (
	msgProcessError = "Error while processing command."
	msgFatalError   = "A fatal error occurred while trying to process this command."
)

type Dispatcher struct {
	log      *slog.Logger
	commands map[string]Command
	aliases  map[string]string
}

// NewDispatcher builds the table with the built-in commands installed.
// minContrast is the legibility floor used by reroll.
func NewDispatcher(log *slog.Logger, minContrast float64) *Dispatcher {
	d := &Dispatcher{
		log:      log,
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
	d.Register(rerollHandler(minContrast), "Reroll", "reroll",
		"Change your color to a random color.", "newcolor")
	d.Register(d.helpHandler, "Help", "help",
		"Get info on a given commands functionality and more.", "about", "doc")
	return d
}

// Register adds an entry keyed by commandName (case-normalized) and maps
// every alias to it. Re-registering an existing commandName overwrites
// the previous entry.
func (d *Dispatcher) Register(handler Handler, name, commandName, description string, aliases ...string) {
	commandName = strings.ToLower(commandName)
	for _, alias := range aliases {
		d.aliases[strings.ToLower(alias)] = commandName
	}
	d.commands[commandName] = Command{
		Name:        name,
		CommandName: commandName,
		Description: description,
		Aliases:     aliases,
		Handler:     handler,
	}
}

// resolve maps a token to its command, trying the alias table first.
func (d *Dispatcher) resolve(token string) (Command, bool) {
	if canonical, ok := d.aliases[token]; ok {
		token = canonical
	}
	cmd, ok := d.commands[token]
	return cmd, ok
}

// Process runs the command named by tokens[0] with the remaining tokens
// as arguments. The returned string is what, if anything, should be
// echoed to chat as a server message; empty means nothing.
func (d *Dispatcher) Process(sess Session, tokens []string) string {
	if len(tokens) == 0 {
		// A dispatcher-level bug, not user error: callers only invoke
		// Process for non-empty command input.
		d.log.Error("Process called with zero tokens (no command given)")
		return msgProcessError
	}

	cmd, ok := d.resolve(tokens[0])
	if !ok {
		return fmt.Sprintf("Command %q does not exist.", tokens[0])
	}

	result, err := d.invoke(cmd, sess, tokens[1:])
	if err != nil {
		d.log.Error("Command failed", "command", cmd.CommandName, "err", err)
		return msgFatalError
	}
	return result
}

// invoke runs the handler with a recover guard so a panicking command
// cannot tear down the session goroutine.
func (d *Dispatcher) invoke(cmd Command, sess Session, args []string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrHandlerPanic, r)
		}
	}()
	return cmd.Handler(sess, args)
}
