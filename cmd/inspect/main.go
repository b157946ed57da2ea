// Command inspect dumps the relay's badger store as tables: users, chats
// and messages. It opens the database read-only so it can run next to a
// live server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"chat-relay/domain"
	"chat-relay/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", "data/badger", "Path to badger DB")
	section := flag.String("section", "all", "What to dump: users, chats, messages or all")
	flag.Parse()

	// BypassLockGuard allows opening while the server holds the lock.
	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	sections := map[string]func(*badger.DB) error{
		"users":    dumpUsers,
		"chats":    dumpChats,
		"messages": dumpMessages,
	}

	if *section == "all" {
		for _, name := range []string{"users", "chats", "messages"} {
			if err := sections[name](db); err != nil {
				log.Fatalf("Dump %s failed: %v", name, err)
			}
		}
		return
	}

	dump, ok := sections[*section]
	if !ok {
		log.Fatalf("Unknown section %q", *section)
	}
	if err := dump(db); err != nil {
		log.Fatalf("Dump %s failed: %v", *section, err)
	}
}

func newTable(title string, headers []string) *tablewriter.Table {
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(" " + title + " "))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func dumpUsers(db *badger.DB) error {
	table := newTable("USERS", []string{"ID", "Username", "Email", "Created"})
	err := scan(db, "user:id:", func(_ string, val []byte) error {
		var user repositories.User
		if err := json.Unmarshal(val, &user); err != nil {
			return nil
		}
		table.Append([]string{
			shortID(user.ID), user.Username, user.Email,
			user.CreatedAt.Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

func dumpChats(db *badger.DB) error {
	table := newTable("CHATS", []string{"ID", "Type", "Name", "Participants", "Updated"})
	err := scan(db, "chat:", func(_ string, val []byte) error {
		var chat domain.Chat
		if err := json.Unmarshal(val, &chat); err != nil {
			return nil
		}
		participants := make([]string, 0, len(chat.ParticipantIDs))
		for _, id := range chat.ParticipantIDs {
			participants = append(participants, shortID(id))
		}
		table.Append([]string{
			shortID(chat.ID), string(chat.Type), chat.Name,
			strings.Join(participants, " "),
			chat.UpdatedAt.Format("2006-01-02 15:04:05"),
		})
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

func dumpMessages(db *badger.DB) error {
	table := newTable("MESSAGES", []string{"Chat", "Sender", "Lang", "At", "Content", "Image"})
	err := scan(db, "msg:", func(_ string, val []byte) error {
		var message domain.Message
		if err := json.Unmarshal(val, &message); err != nil {
			return nil
		}
		content := message.Content
		if len(content) > 60 {
			content = content[:57] + "..."
		}
		table.Append([]string{
			shortID(message.ChatID), shortID(message.SenderID), message.Lang,
			message.CreatedAt.Format("15:04:05"), content, message.ImageURL,
		})
		return nil
	})
	if err != nil {
		return err
	}
	table.Render()
	return nil
}

// scan walks a key prefix and hands each value to fn. Undecodable entries
// are fn's problem; the walk itself never stops for them.
func scan(db *badger.DB, prefix string, fn func(key string, val []byte) error) error {
	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if err := item.Value(func(v []byte) error {
				return fn(key, v)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// shortID keeps the first 8 characters of a uuid for readability.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
