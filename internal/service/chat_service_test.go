package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/nmanikumar5/Swappio-BE/internal/db"
	"github.com/nmanikumar5/Swappio-BE/internal/model"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memoryMessageRepo struct {
	msgs []*model.Message
}

func (r *memoryMessageRepo) Insert(ctx context.Context, msg *model.Message) (*model.Message, error) {
	msg.ID = primitive.NewObjectID()
	r.msgs = append(r.msgs, msg)
	return msg, nil
}

func (r *memoryMessageRepo) MarkDelivered(ctx context.Context, messageID string, at time.Time) error {
	for _, m := range r.msgs {
		if m.ID.Hex() == messageID {
			m.IsDelivered = true
			m.DeliveredAt = &at
		}
	}
	return nil
}

func (r *memoryMessageRepo) MarkPairRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	var count int64
	for _, m := range r.msgs {
		if m.ReceiverID == receiverID && m.SenderID == senderID && !m.IsRead {
			m.IsRead = true
			count++
		}
	}
	return count, nil
}

func (r *memoryMessageRepo) FindByParticipant(ctx context.Context, userID string) ([]model.Message, error) {
	var out []model.Message
	for _, m := range r.msgs {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *memoryMessageRepo) FindPairPage(ctx context.Context, selfID, counterpartID string, page, limit int64) (*db.PaginatedResult[model.Message], error) {
	var match []model.Message
	for _, m := range r.msgs {
		if (m.SenderID == selfID && m.ReceiverID == counterpartID) ||
			(m.SenderID == counterpartID && m.ReceiverID == selfID) {
			match = append(match, *m)
		}
	}

	// newest first, id tie-break, as the store sorts
	sort.Slice(match, func(i, j int) bool {
		if !match[i].CreatedAt.Equal(match[j].CreatedAt) {
			return match[i].CreatedAt.After(match[j].CreatedAt)
		}
		return match[i].ID.Hex() > match[j].ID.Hex()
	})

	total := int64(len(match))
	skip := (page - 1) * limit
	if skip > total {
		skip = total
	}
	end := skip + limit
	if end > total {
		end = total
	}

	totalPages := total / limit
	if total%limit > 0 {
		totalPages++
	}

	return &db.PaginatedResult[model.Message]{
		Data:       match[skip:end],
		Total:      total,
		Page:       page,
		PageSize:   limit,
		TotalPages: totalPages,
	}, nil
}

type memoryUserRepo struct {
	summaries map[string]*model.UserSummary
}

func (r *memoryUserRepo) Create(ctx context.Context, user *model.User) (*model.User, error) {
	return user, nil
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	return nil, nil
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, nil
}

func (r *memoryUserRepo) FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error) {
	out := make(map[string]*model.UserSummary)
	for _, id := range ids {
		if s, ok := r.summaries[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func newTestService(msgs *memoryMessageRepo) ChatService {
	users := &memoryUserRepo{summaries: map[string]*model.UserSummary{
		"alice": {ID: "alice", Name: "Alice"},
		"bob":   {ID: "bob", Name: "Bob"},
		"carol": {ID: "carol", Name: "Carol"},
	}}
	return NewChatService(msgs, users, zap.NewNop())
}

func seed(repo *memoryMessageRepo, sender, receiver, text string, at time.Time) *model.Message {
	msg := &model.Message{
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       text,
		CreatedAt:  at,
	}
	repo.Insert(context.Background(), msg)
	return msg
}

func TestListConversations_OneEntryPerCounterpart(t *testing.T) {
	req := require.New(t)
	msgs := &memoryMessageRepo{}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Given alice talked with bob and carol
	seed(msgs, "alice", "bob", "to bob 1", base)
	seed(msgs, "bob", "alice", "from bob", base.Add(1*time.Minute))
	seed(msgs, "alice", "bob", "to bob 2", base.Add(5*time.Minute))
	seed(msgs, "carol", "alice", "from carol", base.Add(3*time.Minute))

	svc := newTestService(msgs)

	// When alice lists her conversations
	entries, err := svc.ListConversations(context.Background(), "alice")
	req.NoError(err)

	// Then there is exactly one entry per counterpart, newest pairing first
	req.Len(entries, 2)
	req.Equal("bob", entries[0].CounterpartID)
	req.Equal("to bob 2", entries[0].LastMessage.Text)
	req.Equal("carol", entries[1].CounterpartID)
	req.Equal("from carol", entries[1].LastMessage.Text)

	// And entries carry display fields, never credentials
	req.Equal("Bob", entries[0].Counterpart.Name)
	req.Equal("Carol", entries[1].Counterpart.Name)
}

func TestListConversations_LastMessageIsMaxCreatedAt(t *testing.T) {
	req := require.New(t)
	msgs := &memoryMessageRepo{}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	seed(msgs, "alice", "bob", "old", base)
	latest := seed(msgs, "bob", "alice", "new", base.Add(time.Hour))
	seed(msgs, "alice", "bob", "middle", base.Add(time.Minute))

	svc := newTestService(msgs)

	entries, err := svc.ListConversations(context.Background(), "alice")
	req.NoError(err)
	req.Len(entries, 1)
	req.Equal(latest.ID, entries[0].LastMessage.ID)
	req.Equal(latest.CreatedAt, entries[0].LastMessage.CreatedAt)
}

func TestListConversations_TieBrokenByID(t *testing.T) {
	req := require.New(t)
	msgs := &memoryMessageRepo{}
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Two messages stored in the same instant
	a := seed(msgs, "alice", "bob", "first insert", at)
	b := seed(msgs, "alice", "bob", "second insert", at)

	want := a
	if b.ID.Hex() > a.ID.Hex() {
		want = b
	}

	svc := newTestService(msgs)

	entries, err := svc.ListConversations(context.Background(), "alice")
	req.NoError(err)
	req.Len(entries, 1)
	req.Equal(want.ID, entries[0].LastMessage.ID)
}

func TestListConversations_Empty(t *testing.T) {
	req := require.New(t)
	svc := newTestService(&memoryMessageRepo{})

	entries, err := svc.ListConversations(context.Background(), "alice")
	req.NoError(err)
	req.NotNil(entries)
	req.Empty(entries)
}

func TestGetHistory_Pagination(t *testing.T) {
	req := require.New(t)
	msgs := &memoryMessageRepo{}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Given five messages in a single pairing
	for i := 0; i < 5; i++ {
		seed(msgs, "alice", "bob", []string{"m1", "m2", "m3", "m4", "m5"}[i], base.Add(time.Duration(i)*time.Minute))
	}

	svc := newTestService(msgs)

	// When bob requests page 1 with limit 2
	page1, err := svc.GetHistory(context.Background(), "bob", "alice", 1, 2)
	req.NoError(err)

	// Then he gets the two most recent messages, oldest first within the page
	req.Len(page1.Messages, 2)
	req.Equal("m4", page1.Messages[0].Text)
	req.Equal("m5", page1.Messages[1].Text)
	req.Equal(int64(5), page1.Total)
	req.Equal(int64(3), page1.TotalPages)

	// And page 2 walks backward to the next-older pair
	page2, err := svc.GetHistory(context.Background(), "bob", "alice", 2, 2)
	req.NoError(err)
	req.Len(page2.Messages, 2)
	req.Equal("m2", page2.Messages[0].Text)
	req.Equal("m3", page2.Messages[1].Text)
}

func TestGetHistory_MarksWholeConversationRead(t *testing.T) {
	req := require.New(t)
	msgs := &memoryMessageRepo{}
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		seed(msgs, "alice", "bob", "msg", base.Add(time.Duration(i)*time.Minute))
	}
	own := seed(msgs, "bob", "alice", "own message", base.Add(10*time.Minute))

	svc := newTestService(msgs)

	// When bob fetches only the first page
	page, err := svc.GetHistory(context.Background(), "bob", "alice", 1, 2)
	req.NoError(err)

	// Then the fetched records already carry the new read state
	for _, m := range page.Messages {
		if m.ReceiverID == "bob" {
			req.True(m.IsRead)
		}
	}

	// And every message from alice to bob is read, even outside the page
	for _, m := range msgs.msgs {
		if m.SenderID == "alice" && m.ReceiverID == "bob" {
			req.True(m.IsRead)
		}
	}

	// And bob's own messages are untouched
	req.False(own.IsRead)
}

func TestGetHistory_OfflineSendStaysUndelivered(t *testing.T) {
	req := require.New(t)
	msgs := &memoryMessageRepo{}
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Given a message sent while bob was offline
	sent := seed(msgs, "alice", "bob", "Hello", at)
	req.False(sent.IsDelivered)

	svc := newTestService(msgs)

	// When bob later fetches the conversation
	page, err := svc.GetHistory(context.Background(), "bob", "alice", 1, 10)
	req.NoError(err)
	req.Len(page.Messages, 1)

	// Then the message is read but still not delivered
	req.True(page.Messages[0].IsRead)
	req.False(page.Messages[0].IsDelivered)
	req.Nil(page.Messages[0].DeliveredAt)
}
