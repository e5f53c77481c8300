package wire

import (
	"bytes"
	"testing"

	"tcpchat/domain"

	"github.com/stretchr/testify/require"
)

func TestNewMessage_BroadcastForm(t *testing.T) {
	req := require.New(t)
	msg := domain.Message{
		ID:        7,
		Nickname:  "alice",
		ColorHex:  "#000080",
		Content:   "hi",
		Timestamp: 1700000000,
	}

	frame, err := NewMessage(msg)
	req.NoError(err)

	var env Envelope
	req.NoError(ReadFrame(bytes.NewReader(frame), &env))
	req.Equal(TypeMessage, env.Type)
	req.Equal("alice", env.Nickname)
	req.Equal("hi", env.Content)
	req.Equal("#000080", env.Color)
	req.Equal(int64(1700000000), env.Time)
	req.Equal(int64(7), env.ID)
}

func TestNewMessageHistory_KeepsOrder(t *testing.T) {
	req := require.New(t)
	messages := []domain.Message{
		{ID: 1, Nickname: "alice", Content: "first", Timestamp: 100},
		{ID: 2, Nickname: "bob", Content: "second", Timestamp: 200},
	}

	frame, err := NewMessageHistory(messages)
	req.NoError(err)

	var env Envelope
	req.NoError(ReadFrame(bytes.NewReader(frame), &env))
	req.Equal(TypeMessageHistory, env.Type)
	req.Len(env.Messages, 2)
	req.Equal("first", env.Messages[0].Content)
	req.Equal("second", env.Messages[1].Content)
	req.Equal(int64(2), env.Messages[1].ID)
}

func TestNewHistoryRequest_CarriesBounds(t *testing.T) {
	req := require.New(t)

	frame, err := NewHistoryRequest(50, 1800)
	req.NoError(err)

	var env Envelope
	req.NoError(ReadFrame(bytes.NewReader(frame), &env))
	req.Equal(TypeRequest, env.Type)
	req.Equal(RequestHistory, env.Request)
	req.NotNil(env.Limit)
	req.Equal(50, *env.Limit)
	req.NotNil(env.TimeLimit)
	req.Equal(int64(1800), *env.TimeLimit)
}
