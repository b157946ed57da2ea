package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"chat-relay/domain"

	"github.com/dgraph-io/badger/v4"
)

type IMessageRepository interface {
	Insert(message domain.Message) error
	FindByChatOrdered(chatID string, limit, offset int) ([]domain.Message, error)
	Last(chatID string) (*domain.Message, error)
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

// messageKey formats "msg:<chatID>:<timestamp>:<uuid>" so that:
//  1. A prefix scan per chat yields chronological order, thanks to the
//     19-digit zero padding (lexicographical order).
//  2. Two messages landing on the same nanosecond cannot collide, the uuid
//     disambiguates.
func messageKey(m domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", m.ChatID, m.CreatedAt.UnixNano(), m.ID))
}

// Insert persists a message. This is the durability boundary of the send
// pipeline: once it returns nil the message exists whatever happens to the
// fan-out afterwards.
func (r *MessageRepository) Insert(message domain.Message) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(message), data)
	})
}

// FindByChatOrdered returns one page of a chat's history in chronological
// order. Offset counts backwards from the newest message, so page zero is
// the most recent window, mirroring how clients load history.
func (r *MessageRepository) FindByChatOrdered(chatID string, limit, offset int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	var page []domain.Message

	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", chatID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Reverse iteration must seek past the last possible key of the
		// prefix; 0xFF is above any digit the padded timestamp can hold.
		seekKey := append(append([]byte{}, prefix...), 0xFF)

		skipped := 0
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			if len(page) == limit {
				break
			}
			var message domain.Message
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &message)
			}); err != nil {
				return err
			}
			page = append(page, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The scan collected newest-first; flip to chronological.
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}
	return page, nil
}

// Last returns the most recent message of a chat, or nil when it has none.
func (r *MessageRepository) Last(chatID string) (*domain.Message, error) {
	var last *domain.Message

	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(fmt.Sprintf("msg:%s:", chatID))
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := append(append([]byte{}, prefix...), 0xFF)
		it.Seek(seekKey)
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		var message domain.Message
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &message)
		}); err != nil {
			return err
		}
		last = &message
		return nil
	})
	if err != nil {
		return nil, err
	}
	return last, nil
}
