package service

import (
	"context"

	"github.com/nmanikumar5/Swappio-BE/internal/model"
	"github.com/nmanikumar5/Swappio-BE/internal/repo"

	"go.uber.org/zap"
)

// Enricher is the read-model function that turns a stored Message into its
// wire projection. Joins are best effort: a failed lookup degrades to the
// bare record instead of failing the operation.
type Enricher struct {
	users    repo.UserRepository
	listings repo.ListingRepository
	logger   *zap.Logger
}

func NewEnricher(users repo.UserRepository, listings repo.ListingRepository, logger *zap.Logger) *Enricher {
	return &Enricher{
		users:    users,
		listings: listings,
		logger:   logger,
	}
}

func (e *Enricher) Enrich(ctx context.Context, msg model.Message) model.EnrichedMessage {
	enriched := model.EnrichedMessage{Message: msg}

	summaries, err := e.users.FindSummaries(ctx, []string{msg.SenderID, msg.ReceiverID})
	if err != nil {
		e.logger.Warn("message enrichment failed, sending bare record",
			zap.String("message_id", msg.ID.Hex()),
			zap.Error(err),
		)
	} else {
		enriched.Sender = summaries[msg.SenderID]
		enriched.Receiver = summaries[msg.ReceiverID]
	}

	if msg.ListingID != nil {
		listing, err := e.listings.FindSummary(ctx, *msg.ListingID)
		if err != nil {
			e.logger.Warn("listing enrichment failed",
				zap.String("listing_id", *msg.ListingID),
				zap.Error(err),
			)
		} else {
			enriched.Listing = listing
		}
	}

	return enriched
}
