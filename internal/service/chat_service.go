package service

import (
	"context"
	"sort"

	"github.com/nmanikumar5/Swappio-BE/internal/model"
	"github.com/nmanikumar5/Swappio-BE/internal/repo"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ChatService is the request/response read side of the chat subsystem: the
// conversation list and the paginated pair history.
type ChatService interface {
	ListConversations(ctx context.Context, userID string) ([]model.ConversationEntry, error)
	GetHistory(ctx context.Context, selfID, counterpartID string, page, limit int64) (*model.HistoryPage, error)
}

type chatService struct {
	messages repo.MessageRepository
	users    repo.UserRepository
	logger   *zap.Logger
}

func NewChatService(messages repo.MessageRepository, users repo.UserRepository, logger *zap.Logger) ChatService {
	return &chatService{
		messages: messages,
		users:    users,
		logger:   logger,
	}
}

// counterpartOf computes "the other party" of a message relative to a user.
// For a self-conversation both sides collapse to the user itself.
func counterpartOf(msg model.Message, userID string) string {
	if msg.SenderID == userID {
		return msg.ReceiverID
	}
	return msg.SenderID
}

// newerThan orders messages by (createdAt, id); the id tie-break keeps the
// aggregation deterministic for messages stored in the same instant.
func newerThan(a, b model.Message) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.Hex() > b.ID.Hex()
}

// ListConversations returns one entry per distinct counterpart, each holding
// only the most recent message of that pairing, newest pairing first.
func (s *chatService) ListConversations(ctx context.Context, userID string) ([]model.ConversationEntry, error) {
	msgs, err := s.messages.FindByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return []model.ConversationEntry{}, nil
	}

	grouped := lo.GroupBy(msgs, func(m model.Message) string {
		return counterpartOf(m, userID)
	})

	latest := lo.MapValues(grouped, func(group []model.Message, _ string) model.Message {
		return lo.MaxBy(group, newerThan)
	})

	// One display lookup for every party involved
	ids := lo.Uniq(lo.FlatMap(lo.Values(latest), func(m model.Message, _ int) []string {
		return []string{m.SenderID, m.ReceiverID}
	}))
	summaries, err := s.users.FindSummaries(ctx, ids)
	if err != nil {
		s.logger.Warn("conversation enrichment failed, sending bare records",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		summaries = map[string]*model.UserSummary{}
	}

	entries := make([]model.ConversationEntry, 0, len(latest))
	for counterpartID, msg := range latest {
		entries = append(entries, model.ConversationEntry{
			CounterpartID: counterpartID,
			Counterpart:   summaries[counterpartID],
			LastMessage: model.EnrichedMessage{
				Message:  msg,
				Sender:   summaries[msg.SenderID],
				Receiver: summaries[msg.ReceiverID],
			},
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return newerThan(entries[i].LastMessage.Message, entries[j].LastMessage.Message)
	})

	return entries, nil
}

// GetHistory returns one page of a two-party conversation, oldest-first within
// the page while pagination itself walks backward from the newest message.
// Fetching any page marks the entire unread set from the counterpart as read.
func (s *chatService) GetHistory(ctx context.Context, selfID, counterpartID string, page, limit int64) (*model.HistoryPage, error) {
	// Mark-read runs over the full match set before the page is loaded so the
	// returned records already carry the new read state.
	count, err := s.messages.MarkPairRead(ctx, selfID, counterpartID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		s.logger.Debug("conversation marked read on fetch",
			zap.String("reader_id", selfID),
			zap.String("counterpart_id", counterpartID),
			zap.Int64("count", count),
		)
	}

	result, err := s.messages.FindPairPage(ctx, selfID, counterpartID, page, limit)
	if err != nil {
		return nil, err
	}

	// The store hands the page back newest-first; present it chronologically.
	msgs := lo.Reverse(result.Data)

	return &model.HistoryPage{
		Messages:   msgs,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}
