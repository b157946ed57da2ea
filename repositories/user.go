package repositories

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IUserRepository interface {
	Create(username, email, passwordHash string) (User, error)
	GetByID(id string) (User, error)
	GetByIDs(ids []string) ([]User, error)
	GetByEmail(email string) (User, error)
	Search(ctx context.Context, query string, limit int) ([]User, error)
}

// User is the stored account record. Only the repository layer ever sees
// the password hash; everything above works with domain.User.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u User) Public() domain.User {
	return domain.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type UserRepository struct {
	db    *badger.DB
	index *bluge.Writer
	log   *slog.Logger
}

func NewUserRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger) *UserRepository {
	return &UserRepository{db: db, index: index, log: log}
}

// Keys:
//
//	user:id:<uuid>       -> JSON record (primary)
//	user:email:<email>   -> uuid       (uniqueness + login lookup)
//	user:name:<username> -> uuid       (uniqueness)
//
// Username and email are additionally indexed in Bluge under the record's
// uuid so the users(search) query can match on either field.
func userKey(id string) []byte       { return []byte("user:id:" + id) }
func emailKey(email string) []byte   { return []byte("user:email:" + email) }
func nameKey(username string) []byte { return []byte("user:name:" + username) }

// Create persists a new account. Both email and username must be free;
// the check and the writes share one transaction so two concurrent
// registrations cannot both win.
func (r *UserRepository) Create(username, email, passwordHash string) (User, error) {
	now := time.Now().UTC()
	user := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	data, err := json.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("marshal failed: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(email)); err == nil {
			return fmt.Errorf("%w: email taken", errors.ErrUserAlreadyExists)
		}
		if _, err := txn.Get(nameKey(username)); err == nil {
			return fmt.Errorf("%w: username taken", errors.ErrUserAlreadyExists)
		}
		if err := txn.Set(userKey(user.ID), data); err != nil {
			return err
		}
		if err := txn.Set(emailKey(email), []byte(user.ID)); err != nil {
			return err
		}
		return txn.Set(nameKey(username), []byte(user.ID))
	})
	if err != nil {
		return User{}, err
	}

	doc := bluge.NewDocument(user.ID).
		AddField(bluge.NewTextField("username", user.Username)).
		AddField(bluge.NewTextField("email", user.Email))
	if err := r.index.Update(doc.ID(), doc); err != nil {
		// The record is durable; a missing index entry only degrades search.
		r.log.Warn("user search indexing failed", "user", user.ID, "err", err)
	}

	return user, nil
}

func (r *UserRepository) GetByID(id string) (User, error) {
	var user User
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKey(id), &user)
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// GetByIDs resolves a participant set. A dangling id is an error: chats only
// ever reference users that existed at creation time.
func (r *UserRepository) GetByIDs(ids []string) ([]User, error) {
	users := make([]User, 0, len(ids))
	err := r.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			var user User
			if err := getJSON(txn, userKey(id), &user); err != nil {
				return err
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) GetByEmail(email string) (User, error) {
	var user User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return mapKeyNotFound(err)
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, userKey(id), &user)
	})
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// Search matches the query against usernames and emails through the Bluge
// index. An empty query lists everyone, newest first not guaranteed; the
// caller owns ordering if it matters.
func (r *UserRepository) Search(ctx context.Context, query string, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 50
	}
	if query == "" {
		return r.all(limit)
	}

	q := bluge.NewBooleanQuery().
		AddShould(bluge.NewMatchQuery(query).SetField("username")).
		AddShould(bluge.NewMatchQuery(query).SetField("email")).
		SetMinShould(1)

	reader, err := r.index.Reader()
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}
	defer reader.Close()

	iter, err := reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	var ids []string
	for {
		match, err := iter.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	return r.GetByIDs(ids)
}

func (r *UserRepository) all(limit int) ([]User, error) {
	var users []User
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("user:id:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if len(users) == limit {
				break
			}
			var user User
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &user)
			}); err != nil {
				return err
			}
			users = append(users, user)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

func getJSON(txn *badger.Txn, key []byte, out any) error {
	item, err := txn.Get(key)
	if err != nil {
		return mapKeyNotFound(err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func mapKeyNotFound(err error) error {
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrNotFound
	}
	return err
}
