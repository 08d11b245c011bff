package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nmanikumar5/Swappio-BE/internal/db"
	"github.com/nmanikumar5/Swappio-BE/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

var (
	ErrInvalidMessage   = errors.New("invalid message: message cannot be nil")
	ErrInvalidUserID    = errors.New("invalid user ID: cannot be empty")
	ErrOperationTimeout = errors.New("operation timeout exceeded")
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultReadTimeout  = 30 * time.Second

	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second
)

type messageRepository struct {
	mongoRepo *db.Repository[model.Message]
	logger    *zap.Logger
}

type MessageRepository interface {
	Insert(ctx context.Context, msg *model.Message) (*model.Message, error)
	MarkDelivered(ctx context.Context, messageID string, at time.Time) error
	MarkPairRead(ctx context.Context, receiverID, senderID string) (int64, error)
	FindByParticipant(ctx context.Context, userID string) ([]model.Message, error)
	FindPairPage(ctx context.Context, selfID, counterpartID string, page, limit int64) (*db.PaginatedResult[model.Message], error)
}

func NewMessageRepository(repo *db.Repository[model.Message], logger *zap.Logger) MessageRepository {
	return &messageRepository{
		mongoRepo: repo,
		logger:    logger,
	}
}

// pairFilter matches every message exchanged between the two users, in either
// direction.
func pairFilter(a, b string) bson.M {
	return db.NewFilter().Or(
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	).Build()
}

// -----------------------------------------------------------------------------
// Insert
// -----------------------------------------------------------------------------

func (m *messageRepository) Insert(ctx context.Context, msg *model.Message) (*model.Message, error) {
	if err := m.validateMessage(msg); err != nil {
		return nil, err
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
		}

		result, err := m.mongoRepo.Create(ctx, *msg)
		if err == nil {
			if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
				msg.ID = oid
			}

			m.logger.Info("message inserted",
				zap.String("message_id", msg.ID.Hex()),
				zap.String("sender_id", msg.SenderID),
				zap.String("receiver_id", msg.ReceiverID),
				zap.Int("attempt", attempt+1),
			)
			return msg, nil
		}

		lastErr = err

		if !m.isRetryableError(err) {
			break
		}

		m.logger.Warn("insert attempt failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", maxRetries),
		)
	}

	m.logger.Error("failed to insert message after all retries",
		zap.Error(lastErr),
		zap.String("sender_id", msg.SenderID),
	)

	return nil, fmt.Errorf("insert message failed: %w", lastErr)
}

// -----------------------------------------------------------------------------
// Delivery / read-state updates
// -----------------------------------------------------------------------------

func (m *messageRepository) MarkDelivered(ctx context.Context, messageID string, at time.Time) error {
	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	_, err := m.mongoRepo.UpdateByID(ctx, messageID, bson.M{
		"is_delivered": true,
		"delivered_at": at,
	})
	if err != nil {
		m.logger.Error("failed to mark message delivered",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		return fmt.Errorf("mark delivered failed: %w", err)
	}
	return nil
}

func (m *messageRepository) MarkPairRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	if receiverID == "" || senderID == "" {
		return 0, ErrInvalidUserID
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultWriteTimeout)
	defer cancel()

	filter := db.NewFilter().
		Eq("receiver_id", receiverID).
		Eq("sender_id", senderID).
		Eq("is_read", false).
		Build()

	result, err := m.mongoRepo.UpdateMany(ctx, filter, bson.M{"is_read": true})
	if err != nil {
		m.logger.Error("failed to mark pair read",
			zap.String("receiver_id", receiverID),
			zap.String("sender_id", senderID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("mark read failed: %w", err)
	}
	return result.ModifiedCount, nil
}

// -----------------------------------------------------------------------------
// Read-side queries
// -----------------------------------------------------------------------------

// FindByParticipant returns every message the user sent or received. Feeds the
// conversation aggregation.
func (m *messageRepository) FindByParticipant(ctx context.Context, userID string) ([]model.Message, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	filter := db.NewFilter().Or(
		bson.M{"sender_id": userID},
		bson.M{"receiver_id": userID},
	).Build()

	msgs, err := m.mongoRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, m.handleReadError(err, userID)
	}

	m.logger.Debug("participant messages retrieved",
		zap.String("user_id", userID),
		zap.Int("count", len(msgs)),
	)
	return msgs, nil
}

// FindPairPage returns one page of a two-party conversation, newest first.
// Pagination walks backward from the most recent message.
func (m *messageRepository) FindPairPage(ctx context.Context, selfID, counterpartID string, page, limit int64) (*db.PaginatedResult[model.Message], error) {
	if selfID == "" || counterpartID == "" {
		return nil, ErrInvalidUserID
	}

	ctx, cancel := m.ensureTimeout(ctx, defaultReadTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := m.waitForRetry(ctx, attempt); err != nil {
				return nil, err
			}
			m.logger.Warn("retrying history page",
				zap.String("self_id", selfID),
				zap.String("counterpart_id", counterpartID),
				zap.Int("attempt", attempt+1),
			)
		}

		result, err := m.mongoRepo.FindWithPagination(ctx, pairFilter(selfID, counterpartID), db.PaginationParams{
			Page:     page,
			PageSize: limit,
			SortBy:   "created_at",
			SortDesc: true,
		})
		if err == nil {
			m.logger.Debug("history page retrieved",
				zap.String("self_id", selfID),
				zap.String("counterpart_id", counterpartID),
				zap.Int("count", len(result.Data)),
				zap.Int64("total", result.Total),
				zap.Int64("page", result.Page),
			)
			return result, nil
		}

		lastErr = err

		if !m.isRetryableError(err) {
			break
		}
	}

	return nil, m.handleReadError(lastErr, selfID)
}

// -----------------------------------------------------------------------------
// Private Helper Methods
// -----------------------------------------------------------------------------

func (m *messageRepository) validateMessage(msg *model.Message) error {
	if msg == nil {
		return ErrInvalidMessage
	}
	if msg.SenderID == "" || msg.ReceiverID == "" {
		return ErrInvalidUserID
	}
	return nil
}

func (m *messageRepository) ensureTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

func (m *messageRepository) waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (m *messageRepository) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// Context errors are not retryable
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return true
	}

	return false
}

func (m *messageRepository) handleReadError(err error, userID string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		m.logger.Error("read timeout", zap.String("user_id", userID))
		return ErrOperationTimeout
	}

	if errors.Is(err, context.Canceled) {
		m.logger.Debug("read cancelled", zap.String("user_id", userID))
		return err
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil // Not an error, just empty result
	}

	m.logger.Error("read failed", zap.Error(err), zap.String("user_id", userID))
	return fmt.Errorf("read messages failed: %w", err)
}
