package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/domain"

	"github.com/dgraph-io/badger/v4"
)

type IChatRepository interface {
	Create(chat domain.Chat) error
	GetByID(id string) (domain.Chat, error)
	GetByParticipant(userID string) ([]domain.Chat, error)
	FindDirect(userA, userB string) (domain.Chat, bool, error)
	Touch(id string, at time.Time) error
}

type ChatRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewChatRepository(db *badger.DB, log *slog.Logger) *ChatRepository {
	return &ChatRepository{db: db, log: log}
}

// Keys:
//
//	chat:<uuid>                  -> JSON record (primary)
//	member:<userID>:<chatID>     -> empty      (membership index)
//
// The membership index makes "chats of user X" a prefix scan instead of a
// full collection walk.
func chatKey(id string) []byte { return []byte("chat:" + id) }

func memberKey(userID, chatID string) []byte {
	return []byte(fmt.Sprintf("member:%s:%s", userID, chatID))
}

func (r *ChatRepository) Create(chat domain.Chat) error {
	data, err := json.Marshal(chat)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(chatKey(chat.ID), data); err != nil {
			return err
		}
		for _, userID := range chat.ParticipantIDs {
			if err := txn.Set(memberKey(userID, chat.ID), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ChatRepository) GetByID(id string) (domain.Chat, error) {
	var chat domain.Chat
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, chatKey(id), &chat)
	})
	if err != nil {
		return domain.Chat{}, err
	}
	return chat, nil
}

// GetByParticipant lists every chat the user belongs to, in index order.
// Callers sort by activity when presenting.
func (r *ChatRepository) GetByParticipant(userID string) ([]domain.Chat, error) {
	var ids []string
	prefix := []byte(fmt.Sprintf("member:%s:", userID))

	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	chats := make([]domain.Chat, 0, len(ids))
	err = r.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			var chat domain.Chat
			if err := getJSON(txn, chatKey(id), &chat); err != nil {
				return err
			}
			chats = append(chats, chat)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// FindDirect looks for an existing two-party chat between userA and userB.
// The scan is bounded by userA's own chats.
func (r *ChatRepository) FindDirect(userA, userB string) (domain.Chat, bool, error) {
	chats, err := r.GetByParticipant(userA)
	if err != nil {
		return domain.Chat{}, false, err
	}
	for _, chat := range chats {
		if chat.Type == domain.ChatDirect && chat.HasParticipant(userB) {
			return chat, true, nil
		}
	}
	return domain.Chat{}, false, nil
}

// Touch bumps the chat's last-activity timestamp. Read-modify-write inside
// one transaction; concurrent senders serialize on the badger commit.
func (r *ChatRepository) Touch(id string, at time.Time) error {
	return r.db.Update(func(txn *badger.Txn) error {
		var chat domain.Chat
		if err := getJSON(txn, chatKey(id), &chat); err != nil {
			return err
		}
		chat.UpdatedAt = at
		data, err := json.Marshal(chat)
		if err != nil {
			return err
		}
		return txn.Set(chatKey(id), data)
	})
}
