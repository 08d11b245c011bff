package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nmanikumar5/Swappio-BE/internal/event"
	"github.com/nmanikumar5/Swappio-BE/internal/model"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeRegistry struct {
	occupancy  map[string]int
	broadcasts map[string][]event.WsEvent
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		occupancy:  make(map[string]int),
		broadcasts: make(map[string][]event.WsEvent),
	}
}

func (r *fakeRegistry) Occupancy(userID string) int {
	return r.occupancy[userID]
}

func (r *fakeRegistry) Broadcast(userID string, ev event.WsEvent) {
	r.broadcasts[userID] = append(r.broadcasts[userID], ev)
}

func (r *fakeRegistry) eventsFor(userID string) []string {
	names := make([]string, 0, len(r.broadcasts[userID]))
	for _, ev := range r.broadcasts[userID] {
		names = append(names, ev.Event)
	}
	return names
}

type fakeStore struct {
	inserted  []*model.Message
	delivered map[string]time.Time
	unread    map[string]int // "sender->receiver" -> unread count
	insertErr error
	markErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		delivered: make(map[string]time.Time),
		unread:    make(map[string]int),
	}
}

func (s *fakeStore) Insert(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if s.insertErr != nil {
		return nil, s.insertErr
	}
	msg.ID = primitive.NewObjectID()
	s.inserted = append(s.inserted, msg)
	s.unread[msg.SenderID+"->"+msg.ReceiverID]++
	return msg, nil
}

func (s *fakeStore) MarkDelivered(ctx context.Context, messageID string, at time.Time) error {
	if s.markErr != nil {
		return s.markErr
	}
	s.delivered[messageID] = at
	return nil
}

func (s *fakeStore) MarkPairRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	if s.markErr != nil {
		return 0, s.markErr
	}
	key := senderID + "->" + receiverID
	count := int64(s.unread[key])
	s.unread[key] = 0
	return count, nil
}

type fakeEnricher struct{}

func (fakeEnricher) Enrich(ctx context.Context, msg model.Message) model.EnrichedMessage {
	return model.EnrichedMessage{
		Message: msg,
		Sender:  &model.UserSummary{ID: msg.SenderID, Name: "sender"},
	}
}

type fakeEmitter struct {
	events []event.WsEvent
}

func (e *fakeEmitter) Emit(ev event.WsEvent) {
	e.events = append(e.events, ev)
}

func (e *fakeEmitter) names() []string {
	names := make([]string, 0, len(e.events))
	for _, ev := range e.events {
		names = append(names, ev.Event)
	}
	return names
}

func newTestDispatcher(registry *fakeRegistry, store *fakeStore) *Dispatcher {
	return NewDispatcher(registry, store, fakeEnricher{}, zap.NewNop())
}

func TestHandleSend_ReceiverOnline(t *testing.T) {
	req := require.New(t)
	registry := newFakeRegistry()
	store := newFakeStore()
	d := newTestDispatcher(registry, store)
	sender := &fakeEmitter{}

	// Given the receiver has one live connection
	registry.occupancy["bob"] = 1

	// When alice sends a message
	d.HandleSend(context.Background(), "alice", event.SendMessagePayload{
		ReceiverID: "bob",
		Text:       "Hello",
	}, sender)

	// Then the message is persisted and its delivery state is set
	req.Len(store.inserted, 1)
	msg := store.inserted[0]
	req.Equal("alice", msg.SenderID)
	req.Equal("bob", msg.ReceiverID)
	req.Contains(store.delivered, msg.ID.Hex())

	// And the receiver's room gets receive_message
	req.Equal([]string{event.EventReceiveMessage}, registry.eventsFor("bob"))

	var received model.EnrichedMessage
	req.NoError(json.Unmarshal(registry.broadcasts["bob"][0].Payload, &received))
	req.Equal("Hello", received.Text)
	req.True(received.IsDelivered)
	req.NotNil(received.DeliveredAt)
	req.NotNil(received.Sender)

	// And the sender's room gets the delivery receipt
	req.Equal([]string{event.EventMessageDelivered}, registry.eventsFor("alice"))

	var receipt event.MessageDeliveredPayload
	req.NoError(json.Unmarshal(registry.broadcasts["alice"][0].Payload, &receipt))
	req.Equal(msg.ID.Hex(), receipt.MessageID)
	req.NotEmpty(receipt.DeliveredAt)

	// And the sending connection gets its confirmation
	req.Equal([]string{event.EventMessageSent}, sender.names())
}

func TestHandleSend_ReceiverOffline(t *testing.T) {
	req := require.New(t)
	registry := newFakeRegistry()
	store := newFakeStore()
	d := newTestDispatcher(registry, store)
	sender := &fakeEmitter{}

	// When alice sends to an offline bob
	d.HandleSend(context.Background(), "alice", event.SendMessagePayload{
		ReceiverID: "bob",
		Text:       "Hello",
	}, sender)

	// Then the message is persisted undelivered
	req.Len(store.inserted, 1)
	msg := store.inserted[0]
	req.False(msg.IsDelivered)
	req.Nil(msg.DeliveredAt)
	req.Empty(store.delivered)

	// And no delivery receipt reaches the sender's room
	req.Empty(registry.eventsFor("alice"))

	// And the receiver-room broadcast is still issued (a no-op at zero occupancy)
	req.Equal([]string{event.EventReceiveMessage}, registry.eventsFor("bob"))

	var received model.EnrichedMessage
	req.NoError(json.Unmarshal(registry.broadcasts["bob"][0].Payload, &received))
	req.False(received.IsDelivered)

	// And the sender still gets message_sent
	req.Equal([]string{event.EventMessageSent}, sender.names())
}

func TestHandleSend_PersistenceFailure(t *testing.T) {
	req := require.New(t)
	registry := newFakeRegistry()
	store := newFakeStore()
	store.insertErr = errors.New("write concern failed")
	d := newTestDispatcher(registry, store)
	sender := &fakeEmitter{}

	registry.occupancy["bob"] = 1

	d.HandleSend(context.Background(), "alice", event.SendMessagePayload{
		ReceiverID: "bob",
		Text:       "Hello",
	}, sender)

	// Only the sending connection hears about it
	req.Equal([]string{event.EventMessageError}, sender.names())
	req.Empty(registry.broadcasts)
	req.Empty(store.inserted)
}

func TestHandleSend_Unauthenticated(t *testing.T) {
	req := require.New(t)
	registry := newFakeRegistry()
	store := newFakeStore()
	d := newTestDispatcher(registry, store)
	sender := &fakeEmitter{}

	d.HandleSend(context.Background(), "", event.SendMessagePayload{
		ReceiverID: "bob",
		Text:       "Hello",
	}, sender)

	req.Equal([]string{event.EventMessageError}, sender.names())
	req.Empty(store.inserted)
}

func TestHandleSend_TextBounds(t *testing.T) {
	req := require.New(t)
	registry := newFakeRegistry()
	store := newFakeStore()
	d := newTestDispatcher(registry, store)

	// Empty text is rejected
	sender := &fakeEmitter{}
	d.HandleSend(context.Background(), "alice", event.SendMessagePayload{ReceiverID: "bob", Text: ""}, sender)
	req.Equal([]string{event.EventMessageError}, sender.names())

	// Over 1000 characters is rejected
	sender = &fakeEmitter{}
	d.HandleSend(context.Background(), "alice", event.SendMessagePayload{
		ReceiverID: "bob",
		Text:       strings.Repeat("a", 1001),
	}, sender)
	req.Equal([]string{event.EventMessageError}, sender.names())

	// Exactly 1000 characters is fine
	sender = &fakeEmitter{}
	d.HandleSend(context.Background(), "alice", event.SendMessagePayload{
		ReceiverID: "bob",
		Text:       strings.Repeat("a", 1000),
	}, sender)
	req.Equal([]string{event.EventMessageSent}, sender.names())
	req.Len(store.inserted, 1)
}

func TestMarkRead_Idempotent(t *testing.T) {
	req := require.New(t)
	registry := newFakeRegistry()
	store := newFakeStore()
	d := newTestDispatcher(registry, store)
	sender := &fakeEmitter{}

	// Given two persisted messages from alice to bob
	d.HandleSend(context.Background(), "alice", event.SendMessagePayload{ReceiverID: "bob", Text: "one"}, sender)
	d.HandleSend(context.Background(), "alice", event.SendMessagePayload{ReceiverID: "bob", Text: "two"}, sender)
	req.Equal(2, store.unread["alice->bob"])

	// When bob marks the conversation read twice
	d.MarkRead(context.Background(), "bob", event.MarkReadPayload{SenderID: "alice"})
	d.MarkRead(context.Background(), "bob", event.MarkReadPayload{SenderID: "alice"})

	// Then the final state matches a single call
	req.Equal(0, store.unread["alice->bob"])

	// And alice's room is receipted each time
	req.Equal([]string{event.EventMessagesRead, event.EventMessagesRead}, registry.eventsFor("alice"))

	var receipt event.MessagesReadPayload
	req.NoError(json.Unmarshal(registry.broadcasts["alice"][0].Payload, &receipt))
	req.Equal("bob", receipt.ReadBy)
}

func TestTypingRelay(t *testing.T) {
	req := require.New(t)
	registry := newFakeRegistry()
	store := newFakeStore()
	d := newTestDispatcher(registry, store)

	d.Typing("alice", event.TypingPayload{ReceiverID: "bob"})
	d.StopTyping("alice", event.TypingPayload{ReceiverID: "bob"})

	req.Equal([]string{event.EventUserTyping, event.EventUserStopTyping}, registry.eventsFor("bob"))

	var p event.UserTypingPayload
	req.NoError(json.Unmarshal(registry.broadcasts["bob"][0].Payload, &p))
	req.Equal("alice", p.UserID)

	// Nothing is persisted for typing indicators
	req.Empty(store.inserted)
}
