package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/mathdrill/internal/session"
)

// ErrNotFound is returned, wrapped with the missing ID, by lookups of a
// single session or event.
var ErrNotFound = errors.New("not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// HistoryStats aggregates saved sessions.
type HistoryStats struct {
	Sessions     int
	Questions    int
	Correct      int
	MeanAccuracy float64 // mean of per-session accuracy, 0-100
	BestAccuracy float64
	TotalSeconds int
}

// HistoryRepo persists finished session summaries.
type HistoryRepo interface {
	// Save stores a finished session. Saving the same ID twice fails.
	Save(ctx context.Context, s *session.SessionSummary) error

	// Load returns sessions whose username contains nameFilter
	// (case-insensitive), newest first. An empty filter matches everything.
	Load(ctx context.Context, nameFilter string) ([]*session.SessionSummary, error)

	// Get returns one session by ID. A missing ID is ErrNotFound.
	Get(ctx context.Context, id string) (*session.SessionSummary, error)

	// Delete removes a session. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// Stats aggregates the sessions Load would return for nameFilter.
	Stats(ctx context.Context, nameFilter string) (HistoryStats, error)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	Images       int // answer images attached to the request
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEventRecord is a stored LLM request event.
type LLMRequestEventRecord struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// LLMUsageStats aggregates LLM calls for one purpose.
type LLMUsageStats struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// LLMModelUsage aggregates token usage for one model.
type LLMModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEventRecord, error)

	// GetLLMEvent returns one event by ID. A missing ID is ErrNotFound.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEventRecord, error)

	// LLMUsageByPurpose aggregates calls per purpose label.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStats, error)

	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]LLMModelUsage, error)
}
