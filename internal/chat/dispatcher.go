package chat

import (
	"context"
	"time"

	"github.com/nmanikumar5/Swappio-BE/internal/event"
	"github.com/nmanikumar5/Swappio-BE/internal/model"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// PresenceRegistry is the room layer the dispatcher fans out through. It is
// injected so the in-process hub can later be swapped for a distributed
// implementation without touching the send path.
type PresenceRegistry interface {
	// Occupancy returns the number of live connections bound to the identity.
	Occupancy(userID string) int

	// Broadcast delivers an event to every live connection in the identity's
	// room. Zero occupancy drops the event silently.
	Broadcast(userID string, ev event.WsEvent)
}

// Emitter is the single connection a client event arrived on. Confirmations
// and errors go here rather than to the whole room.
type Emitter interface {
	Emit(ev event.WsEvent)
}

// MessageStore is the persistence surface the dispatcher needs.
type MessageStore interface {
	Insert(ctx context.Context, msg *model.Message) (*model.Message, error)
	MarkDelivered(ctx context.Context, messageID string, at time.Time) error
	MarkPairRead(ctx context.Context, receiverID, senderID string) (int64, error)
}

// ReadModel produces the wire-facing projection of a stored message.
type ReadModel interface {
	// Enrich joins display fields into the message. Best effort: enrichment
	// failure degrades to the bare record, never to an error.
	Enrich(ctx context.Context, msg model.Message) model.EnrichedMessage
}

// Dispatcher runs the send state machine: persist, decide delivery from
// presence at send time, fan out to both parties. Delivery is decided exactly
// once; there is no retry and no deliver-on-reconnect.
type Dispatcher struct {
	registry PresenceRegistry
	store    MessageStore
	enricher ReadModel
	logger   *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewDispatcher(registry PresenceRegistry, store MessageStore, enricher ReadModel, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		store:    store,
		enricher: enricher,
		logger:   logger,
		validate: validator.New(),
		now:      time.Now,
	}
}

// HandleSend processes one send_message frame from the given sender.
func (d *Dispatcher) HandleSend(ctx context.Context, senderID string, p event.SendMessagePayload, sender Emitter) {
	// The hub never dispatches for an unbound connection; this is a guard
	// against future wiring mistakes.
	if senderID == "" {
		sender.Emit(event.Envelope(event.EventMessageError, model.ErrorPayload{Message: "Not authenticated"}))
		return
	}

	if err := d.validate.Var(p.Text, "required,max=1000"); err != nil {
		d.logger.Warn("rejected message payload", zap.String("sender_id", senderID), zap.Error(err))
		sender.Emit(event.Envelope(event.EventMessageError, model.ErrorPayload{Message: "Failed to send message"}))
		return
	}

	msg := &model.Message{
		SenderID:   senderID,
		ReceiverID: p.ReceiverID,
		Text:       p.Text,
		ListingID:  p.ListingID,
		CreatedAt:  d.now().UTC(),
	}

	persisted, err := d.store.Insert(ctx, msg)
	if err != nil {
		d.logger.Error("failed to persist message",
			zap.String("sender_id", senderID),
			zap.String("receiver_id", p.ReceiverID),
			zap.Error(err),
		)
		sender.Emit(event.Envelope(event.EventMessageError, model.ErrorPayload{Message: "Failed to send message"}))
		return
	}

	enriched := d.enricher.Enrich(ctx, *persisted)

	if d.registry.Occupancy(persisted.ReceiverID) > 0 {
		deliveredAt := d.now().UTC()
		if err := d.store.MarkDelivered(ctx, persisted.ID.Hex(), deliveredAt); err != nil {
			// Delivery was decided from presence; a lost flag update is logged,
			// not retried.
			d.logger.Warn("failed to persist delivery state",
				zap.String("message_id", persisted.ID.Hex()),
				zap.Error(err),
			)
		}
		persisted.IsDelivered = true
		persisted.DeliveredAt = &deliveredAt
		enriched = d.enricher.Enrich(ctx, *persisted)

		d.registry.Broadcast(persisted.ReceiverID, event.Envelope(event.EventReceiveMessage, enriched))
		d.registry.Broadcast(senderID, event.Envelope(event.EventMessageDelivered, event.MessageDeliveredPayload{
			MessageID:   persisted.ID.Hex(),
			DeliveredAt: deliveredAt.Format(time.RFC3339Nano),
		}))
		sender.Emit(event.Envelope(event.EventMessageSent, enriched))
		return
	}

	// Receiver offline: the broadcast is a deliberate no-op, kept so a queueing
	// registry can slot in behind the same call.
	d.registry.Broadcast(persisted.ReceiverID, event.Envelope(event.EventReceiveMessage, enriched))
	sender.Emit(event.Envelope(event.EventMessageSent, enriched))
}

// Typing relays a typing indicator to the receiver's room. No persistence.
func (d *Dispatcher) Typing(senderID string, p event.TypingPayload) {
	d.registry.Broadcast(p.ReceiverID, event.Envelope(event.EventUserTyping, event.UserTypingPayload{UserID: senderID}))
}

// StopTyping relays the end of a typing indicator.
func (d *Dispatcher) StopTyping(senderID string, p event.TypingPayload) {
	d.registry.Broadcast(p.ReceiverID, event.Envelope(event.EventUserStopTyping, event.UserTypingPayload{UserID: senderID}))
}

// MarkRead flips every unread message from the given sender to this user in a
// single set-based update, then receipts the original sender's room.
func (d *Dispatcher) MarkRead(ctx context.Context, selfID string, p event.MarkReadPayload) {
	count, err := d.store.MarkPairRead(ctx, selfID, p.SenderID)
	if err != nil {
		d.logger.Error("failed to mark messages read",
			zap.String("reader_id", selfID),
			zap.String("sender_id", p.SenderID),
			zap.Error(err),
		)
		return
	}

	d.logger.Debug("messages marked read",
		zap.String("reader_id", selfID),
		zap.String("sender_id", p.SenderID),
		zap.Int64("count", count),
	)

	d.registry.Broadcast(p.SenderID, event.Envelope(event.EventMessagesRead, event.MessagesReadPayload{ReadBy: selfID}))
}
