package e2e

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"tcpchat/wire"
)

// ChatConn wraps one client connection with frame-level helpers.
type ChatConn struct {
	t     *testing.T
	suite *BaseTCPSuite
	conn  net.Conn
}

func (c *ChatConn) Close() {
	_ = c.conn.Close()
}

// Send writes one pre-encoded frame, accepting the (frame, err) pair of
// the wire constructors directly.
func (c *ChatConn) Send(frame []byte, err error) {
	c.t.Helper()
	c.suite.Require().NoError(err)
	_, err = c.conn.Write(frame)
	c.suite.Require().NoError(err)
	c.suite.debugFrame(c.t, "SENT", json.RawMessage(frame[wire.HeaderLength:]))
}

// Expect reads frames until one satisfies match, within the suite
// timeout. Frames it skips are still debug-logged.
func (c *ChatConn) Expect(match func(wire.Envelope) bool) wire.Envelope {
	c.t.Helper()
	deadline := time.Now().Add(frameTimeout)
	for {
		c.suite.Require().NoError(c.conn.SetReadDeadline(deadline))

		var env wire.Envelope
		err := wire.ReadFrame(c.conn, &env)
		c.suite.Require().NoError(err, "no matching frame before deadline")
		c.suite.debugFrame(c.t, "RECEIVED", env)

		if match(env) {
			return env
		}
	}
}

// Join answers the server's nickname request and waits for the join
// announcement to come back.
func (c *ChatConn) Join(nickname string) {
	c.t.Helper()
	c.Expect(func(env wire.Envelope) bool {
		return env.Type == wire.TypeRequest && env.Request == wire.RequestNick
	})
	c.Send(wire.NewNickname(nickname))
	c.Expect(func(env wire.Envelope) bool {
		return env.Type == wire.TypeMessage && env.Content == nickname+" joined!"
	})
}
