package event

import "encoding/json"

// Client to server events.
const (
	EventSendMessage = "send_message"
	EventTyping      = "typing"
	EventStopTyping  = "stop_typing"
	EventMarkRead    = "mark_read"
)

// Server to client events.
const (
	// EventReceiveMessage - deliver a new message to the receiver's room
	EventReceiveMessage = "receive_message"

	// EventMessageSent - confirmation to the sending connection
	EventMessageSent = "message_sent"

	// EventMessageDelivered - delivery receipt to the sender's room
	EventMessageDelivered = "message_delivered"

	// EventMessageError - send failure, scoped to the sending connection
	EventMessageError = "message_error"

	// EventUserTyping / EventUserStopTyping - typing indicator relay
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"

	// EventMessagesRead - read receipt to the original sender's room
	EventMessagesRead = "messages_read"
)

// WsEvent is the wire envelope for every frame in both directions.
type WsEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// SendMessagePayload is the body of a send_message frame.
type SendMessagePayload struct {
	ReceiverID string  `json:"receiverId"`
	Text       string  `json:"text"`
	ListingID  *string `json:"listingId,omitempty"`
}

// TypingPayload is the body of typing / stop_typing frames.
type TypingPayload struct {
	ReceiverID string `json:"receiverId"`
}

// UserTypingPayload is the body of user_typing / user_stop_typing frames.
type UserTypingPayload struct {
	UserID string `json:"userId"`
}

// MarkReadPayload is the body of a mark_read frame: the counterpart whose
// messages the client has just seen.
type MarkReadPayload struct {
	SenderID string `json:"senderId"`
}

// MessagesReadPayload is the body of a messages_read receipt.
type MessagesReadPayload struct {
	ReadBy string `json:"readBy"`
}

// MessageDeliveredPayload is the body of a message_delivered receipt.
type MessageDeliveredPayload struct {
	MessageID   string `json:"messageId"`
	DeliveredAt string `json:"deliveredAt"`
}

// Envelope marshals a payload into a ready-to-send WsEvent. Marshal failures
// collapse to an empty payload; every payload type here is marshal-safe.
func Envelope(name string, payload any) WsEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = nil
	}
	return WsEvent{Event: name, Payload: raw}
}
