package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/session"
)

const summariesTable = "session_summaries"

var summaryColumns = []string{
	"id", "timestamp_ms", "username", "score", "total", "accuracy",
	"elapsed_seconds", "details_json", "operations", "number_min", "number_max",
}

// historyRepo implements HistoryRepo.
type historyRepo struct {
	drv dialect.Driver
	seq *sequenceCounter
}

func (r *historyRepo) Save(ctx context.Context, s *session.SessionSummary) error {
	if s == nil {
		return fmt.Errorf("save session: nil summary")
	}
	if s.ID == "" {
		return fmt.Errorf("save session: missing id")
	}

	details, err := json.Marshal(detailsOrEmpty(s.Details))
	if err != nil {
		return fmt.Errorf("encode details: %w", err)
	}

	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	ins := entsql.Dialect(dialect.SQLite).
		Insert(summariesTable).
		Columns(append([]string{"sequence"}, summaryColumns...)...).
		Values(
			seqNum,
			s.ID,
			s.Timestamp.UnixMilli(),
			s.Username,
			s.Score,
			s.Total,
			s.Accuracy,
			s.ElapsedSeconds,
			string(details),
			joinOperations(s.Operations),
			s.NumberMin,
			s.NumberMax,
		)
	if _, err := exec(ctx, r.drv, ins); err != nil {
		return fmt.Errorf("save session %s: %w", s.ID, err)
	}
	return nil
}

func (r *historyRepo) Load(ctx context.Context, nameFilter string) ([]*session.SessionSummary, error) {
	sel := r.selectSummaries(nameFilter).
		OrderBy(entsql.Desc("timestamp_ms"), entsql.Desc("sequence"))
	rows, err := query(ctx, r.drv, sel)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []*session.SessionSummary
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *historyRepo) Get(ctx context.Context, id string) (*session.SessionSummary, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(summaryColumns...).
		From(entsql.Table(summariesTable)).
		Where(entsql.EQ("id", id))
	rows, err := query(ctx, r.drv, sel)
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get session %s: %w", id, err)
		}
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return scanSummary(rows)
}

func (r *historyRepo) Delete(ctx context.Context, id string) error {
	del := entsql.Dialect(dialect.SQLite).
		Delete(summariesTable).
		Where(entsql.EQ("id", id))
	if _, err := exec(ctx, r.drv, del); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (r *historyRepo) Stats(ctx context.Context, nameFilter string) (HistoryStats, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(
			entsql.Count("*"),
			entsql.Sum("total"),
			entsql.Sum("score"),
			entsql.Avg("accuracy"),
			entsql.Max("accuracy"),
			entsql.Sum("elapsed_seconds"),
		).
		From(entsql.Table(summariesTable))
	if p := nameFilterPredicate(nameFilter); p != nil {
		sel.Where(p)
	}

	rows, err := query(ctx, r.drv, sel)
	if err != nil {
		return HistoryStats{}, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var (
		st                       HistoryStats
		questions, correct, secs entsql.NullInt64
		mean, best               entsql.NullFloat64
	)
	if rows.Next() {
		if err := rows.Scan(&st.Sessions, &questions, &correct, &mean, &best, &secs); err != nil {
			return HistoryStats{}, fmt.Errorf("scan stats: %w", err)
		}
	}
	st.Questions = int(questions.Int64)
	st.Correct = int(correct.Int64)
	st.TotalSeconds = int(secs.Int64)
	st.MeanAccuracy = mean.Float64
	st.BestAccuracy = best.Float64
	return st, rows.Err()
}

func (r *historyRepo) selectSummaries(nameFilter string) *entsql.Selector {
	sel := entsql.Dialect(dialect.SQLite).
		Select(summaryColumns...).
		From(entsql.Table(summariesTable))
	if p := nameFilterPredicate(nameFilter); p != nil {
		sel.Where(p)
	}
	return sel
}

func nameFilterPredicate(nameFilter string) *entsql.Predicate {
	f := strings.TrimSpace(nameFilter)
	if f == "" {
		return nil
	}
	return entsql.ContainsFold("username", f)
}

func scanSummary(rows *entsql.Rows) (*session.SessionSummary, error) {
	var (
		s       session.SessionSummary
		tsMs    int64
		details string
		ops     string
	)
	err := rows.Scan(
		&s.ID, &tsMs, &s.Username, &s.Score, &s.Total, &s.Accuracy,
		&s.ElapsedSeconds, &details, &ops, &s.NumberMin, &s.NumberMax,
	)
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	s.Timestamp = time.UnixMilli(tsMs)
	s.Details = DecodeDetails(details)
	s.Operations = splitOperations(ops)
	return &s, nil
}

// DecodeDetails decodes a stored answer list. Malformed JSON yields an
// empty list; missing fields keep their zero values, so an absent user
// answer decodes as nil.
func DecodeDetails(raw string) []session.AnswerRecord {
	if strings.TrimSpace(raw) == "" {
		return []session.AnswerRecord{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []session.AnswerRecord{}
	}
	out := make([]session.AnswerRecord, 0, len(items))
	for _, item := range items {
		var rec session.AnswerRecord
		if err := json.Unmarshal(item, &rec); err != nil {
			// Skip entries with the wrong shape but keep the rest.
			continue
		}
		out = append(out, rec)
	}
	return out
}

func detailsOrEmpty(d []session.AnswerRecord) []session.AnswerRecord {
	if d == nil {
		return []session.AnswerRecord{}
	}
	return d
}

func joinOperations(ops []problemgen.Operation) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = string(op)
	}
	return strings.Join(parts, ",")
}

func splitOperations(s string) []problemgen.Operation {
	if s == "" {
		return nil
	}
	var ops []problemgen.Operation
	for _, p := range strings.Split(s, ",") {
		ops = append(ops, problemgen.Operation(p))
	}
	return ops
}
