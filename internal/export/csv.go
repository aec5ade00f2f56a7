package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/store"
)

// CSVHeader is the column layout of the legacy history file.
var CSVHeader = []string{
	"timestamp", "username", "score", "total", "accuracy", "elapsed_seconds", "details_json",
}

// WriteCSV writes summaries in the legacy history layout.
func WriteCSV(w io.Writer, summaries []*session.SessionSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range summaries {
		details := s.Details
		if details == nil {
			details = []session.AnswerRecord{}
		}
		raw, err := json.Marshal(details)
		if err != nil {
			return fmt.Errorf("encode details for %s: %w", s.ID, err)
		}
		rec := []string{
			s.Timestamp.Format(session.TimestampLayout),
			guardFormula(s.Username),
			strconv.Itoa(s.Score),
			strconv.Itoa(s.Total),
			strconv.FormatFloat(s.Accuracy, 'f', 2, 64),
			strconv.Itoa(s.ElapsedSeconds),
			string(raw),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s: %w", s.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// guardFormula prefixes cells that a spreadsheet would evaluate.
func guardFormula(field string) string {
	if field == "" {
		return field
	}
	switch field[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + field
	}
	return field
}

func unguardFormula(field string) string {
	if len(field) > 1 && field[0] == '\'' && guardFormula(field[1:]) != field[1:] {
		return field[1:]
	}
	return field
}

// ReadCSV parses a legacy history file. Rows are read leniently: bad
// numbers become zero, malformed details become an empty list and a
// missing timestamp becomes the zero time. Each row gets a fresh ID.
// Timestamps are interpreted in loc.
func ReadCSV(r io.Reader, loc *time.Location) ([]*session.SessionSummary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))] = i
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return rec[i]
	}

	var out []*session.SessionSummary
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		s := &session.SessionSummary{
			ID:             uuid.NewString(),
			Username:       unguardFormula(field(rec, "username")),
			Score:          atoi(field(rec, "score")),
			Total:          atoi(field(rec, "total")),
			ElapsedSeconds: atoi(field(rec, "elapsed_seconds")),
			Details:        store.DecodeDetails(field(rec, "details_json")),
		}
		s.Accuracy, _ = strconv.ParseFloat(strings.TrimSpace(field(rec, "accuracy")), 64)
		if ts := strings.TrimSpace(field(rec, "timestamp")); ts != "" {
			if t, err := time.ParseInLocation(session.TimestampLayout, ts, loc); err == nil {
				s.Timestamp = t
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
