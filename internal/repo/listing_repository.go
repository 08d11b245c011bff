package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/nmanikumar5/Swappio-BE/internal/db"
	"github.com/nmanikumar5/Swappio-BE/internal/model"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ListingRepository reads listings for message-context enrichment. Listing
// CRUD is owned by another service.
type ListingRepository interface {
	FindSummary(ctx context.Context, id string) (*model.ListingSummary, error)
}

type listingRepository struct {
	mongoRepo *db.Repository[model.Listing]
	logger    *zap.Logger
}

func NewListingRepository(repo *db.Repository[model.Listing], logger *zap.Logger) ListingRepository {
	return &listingRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

func (r *listingRepository) FindSummary(ctx context.Context, id string) (*model.ListingSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultReadTimeout)
	defer cancel()

	listing, err := r.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			r.logger.Debug("listing not found", zap.String("listing_id", id))
			return nil, nil
		}
		return nil, fmt.Errorf("find listing failed: %w", err)
	}
	return listing.Summary(), nil
}
