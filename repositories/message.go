//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_store.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"tcpchat/domain"

	"github.com/dgraph-io/badger/v4"
)

type IMessageStore interface {
	AddMessage(nickname, connectionID, colorHex, content string, timestamp int64) (int64, error)
	QueryRecent(minTimestamp int64, limit int) ([]domain.Message, error)
}

// MessageStore is the durable, append-only chat log. Rows are never
// updated or deleted. A single mutex serializes writes so identifiers
// come out strictly increasing and gapless, starting at 1.
type MessageStore struct {
	db     *badger.DB
	log    *slog.Logger
	mu     sync.Mutex
	lastID int64
}

const messageSeqKey = "seq:message"

// storedMessage mirrors the durable log schema on disk.
type storedMessage struct {
	ID           int64  `json:"id"`
	Nickname     string `json:"nickname"`
	ConnectionID string `json:"connection_id"`
	Color        string `json:"color"`
	Message      string `json:"message"`
	Timestamp    int64  `json:"timestamp"`
}

// NewMessageStore loads the last assigned identifier so appends resume
// the sequence after a restart.
func NewMessageStore(db *badger.DB, log *slog.Logger) (*MessageStore, error) {
	store := &MessageStore{db: db, log: log}
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(messageSeqKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			_, err := fmt.Sscanf(string(value), "%d", &store.lastID)
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("loading message sequence: %w", err)
	}
	return store, nil
}

// messageKey orders rows by timestamp first, identifier second.
// 19-digit zero padding keeps lexicographic order equal to numeric
// order, so a prefix scan walks the log in chronological order.
func messageKey(timestamp, id int64) []byte {
	return []byte(fmt.Sprintf("msg:%019d:%020d", timestamp, id))
}

// AddMessage appends one row and returns its identifier. Safe under
// concurrent invocation from multiple session goroutines.
func (s *MessageStore) AddMessage(nickname, connectionID, colorHex, content string, timestamp int64) (int64, error) {
	if colorHex == "" {
		colorHex = domain.Black.Hex
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.lastID + 1
	row, err := json.Marshal(storedMessage{
		ID:           id,
		Nickname:     nickname,
		ConnectionID: connectionID,
		Color:        colorHex,
		Message:      content,
		Timestamp:    timestamp,
	})
	if err != nil {
		return 0, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageKey(timestamp, id), row); err != nil {
			return err
		}
		return txn.Set([]byte(messageSeqKey), []byte(fmt.Sprintf("%d", id)))
	})
	if err != nil {
		return 0, err
	}

	s.lastID = id
	s.log.Debug("Message recorded", "id", id, "nickname", nickname)
	return id, nil
}

// QueryRecent returns at most limit rows with timestamp >= minTimestamp,
// ascending by timestamp. Reads run in a snapshot transaction, so
// concurrent appends cannot corrupt a result set.
func (s *MessageStore) QueryRecent(minTimestamp int64, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		return nil, nil
	}
	if minTimestamp < 0 {
		minTimestamp = 0
	}

	var messages []domain.Message
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("msg:")
		seekKey := []byte(fmt.Sprintf("msg:%019d:", minTimestamp))
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(messages) == limit {
				break
			}
			var row storedMessage
			err := it.Item().Value(func(value []byte) error {
				return json.Unmarshal(value, &row)
			})
			if err != nil {
				return err
			}
			messages = append(messages, domain.Message{
				ID:           row.ID,
				Nickname:     row.Nickname,
				ConnectionID: row.ConnectionID,
				ColorHex:     row.Color,
				Content:      row.Message,
				Timestamp:    row.Timestamp,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}
