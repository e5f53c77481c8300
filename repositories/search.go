package repositories

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"tcpchat/domain"

	"github.com/blugelabs/bluge"
)

// SearchIndex maintains a full-text index over persisted chat messages.
// Indexing is best-effort: a failed index write never blocks the chat
// path, it only degrades /search results.
type SearchIndex struct {
	mu     sync.Mutex
	writer *bluge.Writer
	log    *slog.Logger
}

// SearchHit is one /search result.
type SearchHit struct {
	MessageID int64
	Nickname  string
	Content   string
}

func NewSearchIndex(writer *bluge.Writer, log *slog.Logger) *SearchIndex {
	return &SearchIndex{writer: writer, log: log}
}

// Index adds one persisted message to the index, keyed by its store
// identifier.
func (s *SearchIndex) Index(m domain.Message) error {
	doc := bluge.NewDocument(strconv.FormatInt(m.ID, 10)).
		AddField(bluge.NewTextField("content", m.Content).StoreValue()).
		AddField(bluge.NewKeywordField("nickname", m.Nickname).StoreValue())

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writer.Update(doc.ID(), doc)
}

// Search runs a match query over message content and returns up to
// limit hits, best match first.
func (s *SearchIndex) Search(ctx context.Context, terms string, limit int) ([]SearchHit, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.log.Warn("Closing search reader failed", "err", err)
		}
	}()

	query := bluge.NewMatchQuery(terms).SetField("content")
	request := bluge.NewTopNSearch(limit, query)

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			return hits, nil
		}

		var hit SearchHit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID, _ = strconv.ParseInt(string(value), 10, 64)
			case "nickname":
				hit.Nickname = string(value)
			case "content":
				hit.Content = string(value)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
}
