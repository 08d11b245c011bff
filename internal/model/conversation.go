package model

// ConversationEntry is one row of the conversation list: a counterpart the
// user has exchanged at least one message with, carrying only the most recent
// message in that pairing.
type ConversationEntry struct {
	CounterpartID string          `json:"counterpartId"`
	Counterpart   *UserSummary    `json:"counterpart,omitempty"`
	LastMessage   EnrichedMessage `json:"lastMessage"`
}

// HistoryPage is one page of a two-party conversation, oldest-first within the
// page, plus the totals the client needs for pagination controls.
type HistoryPage struct {
	Messages   []Message `json:"messages"`
	Total      int64     `json:"total"`
	Page       int64     `json:"page"`
	PageSize   int64     `json:"pageSize"`
	TotalPages int64     `json:"totalPages"`
}
