package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message represents a chat message in MongoDB. A message is immutable after
// creation except for the read/delivered tracking fields.
type Message struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SenderID    string             `json:"senderId" bson:"sender_id"`
	ReceiverID  string             `json:"receiverId" bson:"receiver_id"`
	Text        string             `json:"text" bson:"text"`
	ListingID   *string            `json:"listingId,omitempty" bson:"listing_id,omitempty"`
	IsRead      bool               `json:"isRead" bson:"is_read"`
	IsDelivered bool               `json:"isDelivered" bson:"is_delivered"`
	DeliveredAt *time.Time         `json:"deliveredAt,omitempty" bson:"delivered_at,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
}

// EnrichedMessage is the wire-facing projection of a Message: the stored record
// joined with minimal sender/receiver display fields, and the listing preview
// when the conversation is about one. Enrichment is best-effort; a payload may
// carry nil summaries when the joins fail.
type EnrichedMessage struct {
	Message  `bson:",inline"`
	Sender   *UserSummary    `json:"sender,omitempty" bson:"sender,omitempty"`
	Receiver *UserSummary    `json:"receiver,omitempty" bson:"receiver,omitempty"`
	Listing  *ListingSummary `json:"listing,omitempty" bson:"listing,omitempty"`
}

// ErrorPayload represents an error response sent to a client via WebSocket.
type ErrorPayload struct {
	Message string `json:"message"`
}
