package domain

import (
	"fmt"
	"time"

	"chat-relay/errors"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type ChatType string

const (
	ChatDirect ChatType = "DIRECT"
	ChatGroup  ChatType = "GROUP"
)

// Chat is a conversation between a fixed set of participants.
// The participant set is immutable after creation.
type Chat struct {
	ID             string    `json:"id"`
	Name           string    `json:"name,omitempty"`
	Type           ChatType  `json:"type"`
	ParticipantIDs []string  `json:"participantIds"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (c Chat) HasParticipant(userID string) bool {
	return lo.Contains(c.ParticipantIDs, userID)
}

// NewDirectChat builds a two-party chat. Exactly two distinct participants.
func NewDirectChat(creatorID, otherID string, now time.Time) (Chat, error) {
	if creatorID == otherID {
		return Chat{}, fmt.Errorf("%w: cannot create a direct chat with yourself", errors.ErrValidation)
	}
	return Chat{
		ID:             uuid.NewString(),
		Type:           ChatDirect,
		ParticipantIDs: []string{creatorID, otherID},
		CreatedBy:      creatorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// NewGroupChat builds a group chat. The creator is always included and the
// deduplicated participant set must count at least three members.
func NewGroupChat(creatorID, name string, participantIDs []string, now time.Time) (Chat, error) {
	all := lo.Uniq(append([]string{creatorID}, participantIDs...))
	if len(all) < 3 {
		return Chat{}, fmt.Errorf("%w: a group chat needs at least 3 participants", errors.ErrValidation)
	}
	return Chat{
		ID:             uuid.NewString(),
		Name:           name,
		Type:           ChatGroup,
		ParticipantIDs: all,
		CreatedBy:      creatorID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ChatView projects a chat with its participants resolved, ready to be sent
// to a client without follow-up queries.
type ChatView struct {
	ID           string    `json:"id"`
	Name         string    `json:"name,omitempty"`
	Type         ChatType  `json:"type"`
	Participants []User    `json:"participants"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LastMessage  *Message  `json:"lastMessage,omitempty"`
}

// ChatTopic names the bus topic carrying one chat's events.
func ChatTopic(chatID string) string {
	return "chat:" + chatID
}
