package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nmanikumar5/Swappio-BE/internal/db"
	"github.com/nmanikumar5/Swappio-BE/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	Create(ctx context.Context, user *model.User) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error)
}

type userRepository struct {
	mongoRepo *db.Repository[model.User]
	logger    *zap.Logger
}

func NewUserRepository(repo *db.Repository[model.User], logger *zap.Logger) UserRepository {
	return &userRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	user.CreatedAt = time.Now().UTC()
	user.IsActive = true

	result, err := r.mongoRepo.Create(ctx, *user)
	if err != nil {
		r.logger.Error("failed to create user", zap.String("email", user.Email), zap.Error(err))
		return nil, fmt.Errorf("create user failed: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid
	}
	return user, nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := r.mongoRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user failed: %w", err)
	}
	return user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultReadTimeout)
	defer cancel()

	user, err := r.mongoRepo.FindOne(ctx, db.NewFilter().Eq("email", email).Build())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user failed: %w", err)
	}
	return user, nil
}

// FindSummaries loads display projections for a set of user ids, keyed by hex
// id. Unknown ids are simply absent from the result.
func (r *userRepository) FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultReadTimeout)
	defer cancel()

	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		objectIDs = append(objectIDs, oid)
	}
	if len(objectIDs) == 0 {
		return map[string]*model.UserSummary{}, nil
	}

	users, err := r.mongoRepo.FindAll(ctx, db.NewFilter().In("_id", objectIDs).Build())
	if err != nil {
		return nil, fmt.Errorf("find user summaries failed: %w", err)
	}

	summaries := make(map[string]*model.UserSummary, len(users))
	for i := range users {
		summaries[users[i].ID.Hex()] = users[i].Summary()
	}
	return summaries, nil
}
