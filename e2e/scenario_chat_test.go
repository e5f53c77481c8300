package e2e

import (
	"testing"

	"tcpchat/wire"

	"github.com/stretchr/testify/suite"
)

type testChatRelaySuite struct {
	BaseTCPSuite
}

func TestChatRelaySuite(t *testing.T) {
	suite.Run(t, &testChatRelaySuite{})
}

func (s *testChatRelaySuite) TestFullChatFlow() {
	alice := s.Dial(s.T(), "alice connects")
	bob := s.Dial(s.T(), "bob connects")

	// --- STEP 1: HANDSHAKE ---
	s.Run("Step 1: Both clients complete the nickname handshake", func() {
		alice.Join("alice")
		bob.Join("bob")
	})

	// --- STEP 2: RELAY ---
	var messageID int64
	s.Run("Step 2: A chat message reaches every client with one identifier", func() {
		alice.Send(wire.NewChatMessage("hello from alice"))

		isHello := func(env wire.Envelope) bool {
			return env.Type == wire.TypeMessage && env.Content == "hello from alice"
		}
		seenByAlice := alice.Expect(isHello)
		seenByBob := bob.Expect(isHello)

		s.Require().Equal("alice", seenByBob.Nickname)
		s.Require().Positive(seenByAlice.ID)
		s.Require().Equal(seenByAlice.ID, seenByBob.ID)
		messageID = seenByBob.ID
	})

	// --- STEP 3: ROSTER ---
	s.Run("Step 3: The roster lists both nicknames with legible colors", func() {
		bob.Send(wire.NewRequest(wire.RequestRefreshList))
		roster := bob.Expect(func(env wire.Envelope) bool {
			return env.Type == wire.TypeUserList && len(env.Users) == 2
		})
		nicknames := make([]string, 0, 2)
		for _, u := range roster.Users {
			nicknames = append(nicknames, u.Nickname)
			s.Require().NotEmpty(u.Color)
		}
		s.Require().ElementsMatch([]string{"alice", "bob"}, nicknames)
	})

	// --- STEP 4: DURABILITY ---
	s.Run("Step 4: History returns the relayed message", func() {
		bob.Send(wire.NewHistoryRequest(50, 1800))
		history := bob.Expect(func(env wire.Envelope) bool {
			return env.Type == wire.TypeMessageHistory
		})

		var found bool
		for _, m := range history.Messages {
			if m.ID == messageID {
				s.Require().Equal("alice", m.Nickname)
				s.Require().Equal("hello from alice", m.Content)
				found = true
			}
		}
		s.Require().True(found, "relayed message missing from history")
	})

	// --- STEP 5: COMMANDS ---
	s.Run("Step 5: A slash command is echoed then answered", func() {
		bob.Send(wire.NewChatMessage("/help reroll"))
		bob.Expect(func(env wire.Envelope) bool {
			return env.Type == wire.TypeMessage && env.Content == "/help reroll"
		})
		bob.Expect(func(env wire.Envelope) bool {
			return env.Type == wire.TypeMessage && env.Content == "Reroll (/reroll)"
		})
	})

	// --- STEP 6: DEPARTURE ---
	s.Run("Step 6: Disconnecting announces the departure to survivors", func() {
		alice.Close()
		bob.Expect(func(env wire.Envelope) bool {
			return env.Type == wire.TypeMessage && env.Content == "alice left!"
		})
		bob.Expect(func(env wire.Envelope) bool {
			return env.Type == wire.TypeUserList && len(env.Users) == 1
		})
	})
}
