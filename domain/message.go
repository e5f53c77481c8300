// Package domain contains core concepts of the chat relay.
// This file defines Message events and related rules.
// Messages are immutable and validated by the domain.
package domain

// SenderServer is the reserved identity used for server-authored
// broadcasts (join/leave notices, command feedback).
const SenderServer = "Server"

// DirectNoticeID marks a message pushed to a single session without
// ever touching the durable log. Persisted messages always carry a
// positive identifier assigned by the store.
const DirectNoticeID = -1

// Message represents one immutable chat event. ID is assigned by the
// message store, except for direct notices which carry DirectNoticeID.
// Nickname and ColorHex are snapshots taken at send time, not live
// references to the sender's session.
type Message struct {
	ID           int64
	Nickname     string
	ConnectionID string
	ColorHex     string
	Content      string
	Timestamp    int64
}
