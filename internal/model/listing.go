package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Listing is the classifieds item a conversation may reference. Listing CRUD
// lives outside this service; the chat layer only reads it for enrichment.
type Listing struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	SellerID  string             `json:"sellerId" bson:"seller_id"`
	Title     string             `json:"title" bson:"title"`
	Price     float64            `json:"price" bson:"price"`
	Photos    []string           `json:"photos" bson:"photos"`
	IsActive  bool               `json:"isActive" bson:"is_active"`
	CreatedAt time.Time          `json:"createdAt" bson:"created_at"`
}

// ListingSummary is the preview joined into message payloads.
type ListingSummary struct {
	ID    string  `json:"id" bson:"listing_id"`
	Title string  `json:"title" bson:"title"`
	Price float64 `json:"price" bson:"price"`
	Photo string  `json:"photo" bson:"photo"`
}

// Summary projects a listing down to its preview fields.
func (l *Listing) Summary() *ListingSummary {
	photo := ""
	if len(l.Photos) > 0 {
		photo = l.Photos[0]
	}
	return &ListingSummary{
		ID:    l.ID.Hex(),
		Title: l.Title,
		Price: l.Price,
		Photo: photo,
	}
}
