package wire

import (
	"tcpchat/domain"

	"github.com/samber/lo"
)

// Frame types exchanged between server and client. Every body carries a
// mandatory "type" field holding one of these values.
const (
	TypeRequest        = "REQUEST"
	TypeNickname       = "NICKNAME"
	TypeMessage        = "MESSAGE"
	TypeUserList       = "USER_LIST"
	TypeMessageHistory = "MESSAGE_HISTORY"
	TypeServerMessage  = "SERVER_MESSAGE"
)

// Request names carried by REQUEST frames.
const (
	RequestNick        = "REQUEST_NICK"
	RequestRefreshList = "REFRESH_CLIENT_LIST"
	RequestHistory     = "GET_MESSAGE_HISTORY"
)

// Envelope is the minimal decode target for an incoming frame: every
// field any frame type can carry. Unknown types are ignored by readers.
type Envelope struct {
	Type      string        `json:"type"`
	Request   string        `json:"request,omitempty"`
	Nickname  string        `json:"nickname,omitempty"`
	Content   string        `json:"content,omitempty"`
	Limit     *int          `json:"limit,omitempty"`
	TimeLimit *int64        `json:"time_limit,omitempty"`
	Color     string        `json:"color,omitempty"`
	Time      int64         `json:"time,omitempty"`
	ID        int64         `json:"id,omitempty"`
	Users     []User        `json:"users,omitempty"`
	Messages  []MessageBody `json:"messages,omitempty"`
}

// User is one roster entry of a USER_LIST frame.
type User struct {
	Nickname string `json:"nickname"`
	Color    string `json:"color"`
}

// MessageBody is the server→client persisted form of a chat message.
type MessageBody struct {
	Type     string `json:"type"`
	Nickname string `json:"nickname"`
	Content  string `json:"content"`
	Color    string `json:"color"`
	Time     int64  `json:"time"`
	ID       int64  `json:"id"`
}

// NewRequest encodes a REQUEST frame.
func NewRequest(request string) ([]byte, error) {
	return Encode(map[string]string{"type": TypeRequest, "request": request})
}

// NewHistoryRequest encodes a GET_MESSAGE_HISTORY request with its
// optional bounds.
func NewHistoryRequest(limit int, timeLimit int64) ([]byte, error) {
	return Encode(map[string]any{
		"type":       TypeRequest,
		"request":    RequestHistory,
		"limit":      limit,
		"time_limit": timeLimit,
	})
}

// NewNickname encodes a NICKNAME frame.
func NewNickname(nickname string) ([]byte, error) {
	return Encode(map[string]string{"type": TypeNickname, "nickname": nickname})
}

// NewChatMessage encodes the client→server form of a chat message.
func NewChatMessage(content string) ([]byte, error) {
	return Encode(map[string]string{"type": TypeMessage, "content": content})
}

// NewMessage encodes the broadcast form of a message.
func NewMessage(m domain.Message) ([]byte, error) {
	return Encode(toBody(m))
}

// NewUserList encodes a USER_LIST roster frame.
func NewUserList(users []User) ([]byte, error) {
	return Encode(map[string]any{"type": TypeUserList, "users": users})
}

// NewMessageHistory encodes a MESSAGE_HISTORY frame.
func NewMessageHistory(messages []domain.Message) ([]byte, error) {
	bodies := lo.Map(messages, func(m domain.Message, _ int) MessageBody {
		return toBody(m)
	})
	return Encode(map[string]any{"type": TypeMessageHistory, "messages": bodies})
}

func toBody(m domain.Message) MessageBody {
	return MessageBody{
		Type:     TypeMessage,
		Nickname: m.Nickname,
		Content:  m.Content,
		Color:    m.ColorHex,
		Time:     m.Timestamp,
		ID:       m.ID,
	}
}
