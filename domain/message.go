package domain

import "time"

// Message is a persisted chat message. Immutable once stored.
// At least one of Content or ImageURL is present.
type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	SenderID  string    `json:"senderId"`
	Content   string    `json:"content,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	Lang      string    `json:"lang,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (m Message) HasBody() bool {
	return m.Content != "" || m.ImageURL != ""
}

// MessageEvent is the enriched form of a stored message: sender and chat are
// projected onto it so subscribers can render it without extra queries.
// It exists only during delivery; the stored Message is the source of truth.
type MessageEvent struct {
	Message
	Sender User     `json:"sender"`
	Chat   ChatView `json:"chat"`
}
