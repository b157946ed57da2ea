package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"chat-relay/bus"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"

	"github.com/stretchr/testify/require"
)

func newMessageFixture(t *testing.T, users *stubUserRepo, chats *stubChatRepo) (*MessageService, *stubMessageRepo, *bus.Bus[domain.MessageEvent]) {
	t.Helper()

	messages := &stubMessageRepo{}
	events := bus.New[domain.MessageEvent](slog.Default(), 16)
	svc := NewMessageService(
		NewGuard(chats), chats, users, messages,
		nil, events, observability.NewMetrics(), slog.Default(),
	)
	return svc, messages, events
}

func directChat(t *testing.T, a, b string) domain.Chat {
	t.Helper()

	chat, err := domain.NewDirectChat(a, b, time.Now().UTC())
	require.NoError(t, err)
	return chat
}

func TestMessageService_Send_DeliversToSubscriber(t *testing.T) {
	req := require.New(t)

	// Given two participants and a third party subscribed to the chat topic
	alice := testUser("user-a", "alice")
	bob := testUser("user-b", "bob")
	chat := directChat(t, alice.ID, bob.ID)
	svc, messages, events := newMessageFixture(t, newStubUserRepo(alice, bob), newStubChatRepo(chat))

	sub := events.Subscribe(domain.ChatTopic(chat.ID))
	defer events.Unsubscribe(sub)

	// When alice sends a message
	event, err := svc.Send(context.Background(), alice.ID, SendMessage{ChatID: chat.ID, Content: "hi"})

	// Then it is persisted and bob's subscription receives exactly one enriched event
	req.NoError(err)
	req.Len(messages.inserted, 1)
	req.Equal("hi", messages.inserted[0].Content)

	select {
	case got := <-sub.Events():
		req.Equal("hi", got.Content)
		req.Equal(alice.ID, got.Sender.ID)
		req.Equal("alice", got.Sender.Username)
		req.Equal(chat.ID, got.Chat.ID)
		req.Len(got.Chat.Participants, 2)
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	req.Equal(event.ID, messages.inserted[0].ID)
}

func TestMessageService_Send_NonParticipantForbidden(t *testing.T) {
	req := require.New(t)

	// Given a chat between alice and bob
	alice := testUser("user-a", "alice")
	bob := testUser("user-b", "bob")
	mallory := testUser("user-c", "mallory")
	chat := directChat(t, alice.ID, bob.ID)
	svc, messages, _ := newMessageFixture(t, newStubUserRepo(alice, bob, mallory), newStubChatRepo(chat))

	// When an outsider tries to post
	_, err := svc.Send(context.Background(), mallory.ID, SendMessage{ChatID: chat.ID, Content: "let me in"})

	// Then the call is rejected and nothing is persisted
	req.ErrorIs(err, errors.ErrForbidden)
	req.Empty(messages.inserted)
}

func TestMessageService_Send_EmptyBodyRejected(t *testing.T) {
	req := require.New(t)

	alice := testUser("user-a", "alice")
	bob := testUser("user-b", "bob")
	chat := directChat(t, alice.ID, bob.ID)
	svc, messages, _ := newMessageFixture(t, newStubUserRepo(alice, bob), newStubChatRepo(chat))

	// When neither content nor image is supplied
	_, err := svc.Send(context.Background(), alice.ID, SendMessage{ChatID: chat.ID})

	// Then validation fails before any store access
	req.ErrorIs(err, errors.ErrValidation)
	req.Empty(messages.inserted)
}

func TestMessageService_Send_UnknownChat(t *testing.T) {
	req := require.New(t)

	alice := testUser("user-a", "alice")
	svc, messages, _ := newMessageFixture(t, newStubUserRepo(alice), newStubChatRepo())

	_, err := svc.Send(context.Background(), alice.ID, SendMessage{ChatID: "missing", Content: "hi"})

	req.ErrorIs(err, errors.ErrNotFound)
	req.Empty(messages.inserted)
}

func TestMessageService_Send_PersistsWithoutSubscribers(t *testing.T) {
	req := require.New(t)

	// Given nobody is listening on the chat topic
	alice := testUser("user-a", "alice")
	bob := testUser("user-b", "bob")
	chat := directChat(t, alice.ID, bob.ID)
	svc, messages, _ := newMessageFixture(t, newStubUserRepo(alice, bob), newStubChatRepo(chat))

	// When a message is sent
	_, err := svc.Send(context.Background(), alice.ID, SendMessage{ChatID: chat.ID, Content: "anyone?"})

	// Then it is still durable and shows up in the history
	req.NoError(err)
	req.Len(messages.inserted, 1)

	history, err := svc.History(context.Background(), alice.ID, chat.ID, 50, 0)
	req.NoError(err)
	req.Len(history, 1)
	req.Equal("anyone?", history[0].Content)
}

func TestMessageService_Send_CensorsContent(t *testing.T) {
	req := require.New(t)

	alice := testUser("user-a", "alice")
	bob := testUser("user-b", "bob")
	chat := directChat(t, alice.ID, bob.ID)
	users := newStubUserRepo(alice, bob)
	chats := newStubChatRepo(chat)

	moderator, err := moderation.NewModerator([]string{"damn"}, '*')
	require.NoError(t, err)

	messages := &stubMessageRepo{}
	events := bus.New[domain.MessageEvent](slog.Default(), 16)
	svc := NewMessageService(
		NewGuard(chats), chats, users, messages,
		&moderator, events, observability.NewMetrics(), slog.Default(),
	)

	// When the content contains a censored word
	event, err := svc.Send(context.Background(), alice.ID, SendMessage{ChatID: chat.ID, Content: "well damn"})

	// Then the stored and published copies are both masked
	req.NoError(err)
	req.Equal("well ****", event.Content)
	req.Equal("well ****", messages.inserted[0].Content)
}

func TestMessageService_Send_TouchesChat(t *testing.T) {
	req := require.New(t)

	alice := testUser("user-a", "alice")
	bob := testUser("user-b", "bob")
	chat := directChat(t, alice.ID, bob.ID)
	chats := newStubChatRepo(chat)
	svc, _, _ := newMessageFixture(t, newStubUserRepo(alice, bob), chats)

	event, err := svc.Send(context.Background(), alice.ID, SendMessage{ChatID: chat.ID, Content: "bump"})

	req.NoError(err)
	req.Equal(event.CreatedAt, chats.touched[chat.ID])
}

func TestMessageService_Send_TouchFailureIsNotFatal(t *testing.T) {
	req := require.New(t)

	// Given the activity timestamp update fails
	alice := testUser("user-a", "alice")
	bob := testUser("user-b", "bob")
	chat := directChat(t, alice.ID, bob.ID)
	chats := newStubChatRepo(chat)
	chats.touchErr = errors.ErrNotFound
	svc, messages, _ := newMessageFixture(t, newStubUserRepo(alice, bob), chats)

	// When a message is sent
	_, err := svc.Send(context.Background(), alice.ID, SendMessage{ChatID: chat.ID, Content: "still here"})

	// Then the message itself still goes through
	req.NoError(err)
	req.Len(messages.inserted, 1)
}

func TestMessageService_History_NonParticipantForbidden(t *testing.T) {
	req := require.New(t)

	alice := testUser("user-a", "alice")
	bob := testUser("user-b", "bob")
	mallory := testUser("user-c", "mallory")
	chat := directChat(t, alice.ID, bob.ID)
	svc, _, _ := newMessageFixture(t, newStubUserRepo(alice, bob, mallory), newStubChatRepo(chat))

	_, err := svc.History(context.Background(), mallory.ID, chat.ID, 50, 0)

	req.ErrorIs(err, errors.ErrForbidden)
}

var _ repositories.IMessageRepository = (*stubMessageRepo)(nil)
