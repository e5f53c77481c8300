package commands

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"tcpchat/domain"
	"tcpchat/repositories"
)

// rerollRetries bounds how often a draw equal to the current color is
// redrawn. Repeats get unlikely, not impossible.
const rerollRetries = 50

func rerollHandler(minContrast float64) Handler {
	return func(sess Session, _ []string) (string, error) {
		legible := domain.HasContrast(minContrast, domain.White)
		if len(legible) == 0 {
			return "", fmt.Errorf("no palette color reaches contrast %.2f", minContrast)
		}

		current := sess.Color()
		picked := legible[rand.Intn(len(legible))]
		for attempt := 0; attempt < rerollRetries && picked == current; attempt++ {
			picked = legible[rand.Intn(len(legible))]
		}
		sess.SetColor(picked)

		return fmt.Sprintf("Changed your color to %s (%s), contrast %.2f:1.",
			picked.Name, picked.Hex, picked.ContrastRatio(domain.White)), nil
	}
}

// helpHandler echoes a command's display name, description and aliases.
// It broadcasts instead of returning, so the info arrives as separate
// server messages.
func (d *Dispatcher) helpHandler(sess Session, args []string) (string, error) {
	if len(args) == 0 {
		return "Usage: /help <command>", nil
	}

	cmd, ok := d.resolve(strings.ToLower(args[0]))
	if !ok {
		return fmt.Sprintf("Command %q does not exist.", args[0]), nil
	}

	if err := sess.BroadcastServerMessage(fmt.Sprintf("%s (/%s)", cmd.Name, cmd.CommandName)); err != nil {
		return "", err
	}
	if cmd.Description != "" {
		if err := sess.BroadcastServerMessage("Description: " + cmd.Description); err != nil {
			return "", err
		}
	}
	if len(cmd.Aliases) > 0 {
		if err := sess.BroadcastServerMessage("Aliases: " + strings.Join(cmd.Aliases, ", ")); err != nil {
			return "", err
		}
	}
	return "", nil
}

const searchTimeout = 3 * time.Second

// SearchHandler returns the /search handler backed by the given index.
// Results go out as direct notices to the requester only, so a lookup
// never spams the shared room.
func SearchHandler(index *repositories.SearchIndex, limit int) Handler {
	return func(sess Session, args []string) (string, error) {
		if len(args) == 0 {
			return "Usage: /search <terms>", nil
		}
		terms := strings.Join(args, " ")

		ctx, cancel := context.WithTimeout(context.Background(), searchTimeout)
		defer cancel()

		hits, err := index.Search(ctx, terms, limit)
		if err != nil {
			return "", err
		}
		if len(hits) == 0 {
			return "", sess.Notify(fmt.Sprintf("No messages match %q.", terms))
		}

		if err := sess.Notify(fmt.Sprintf("%d message(s) match %q:", len(hits), terms)); err != nil {
			return "", err
		}
		for _, hit := range hits {
			if err := sess.Notify(fmt.Sprintf("#%d <%s> %s", hit.MessageID, hit.Nickname, hit.Content)); err != nil {
				return "", err
			}
		}
		return "", nil
	}
}
