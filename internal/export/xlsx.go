// Package export writes practice history to spreadsheet formats and reads
// the legacy CSV history file.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/mathdrill/internal/session"
)

// Sheet names in the workbook.
const (
	SessionsSheet = "Sessions"
	AnswersSheet  = "Answers"
)

var sessionHeaders = []any{
	"ID", "Timestamp", "User", "Score", "Total", "Accuracy %",
	"Elapsed (s)", "Operations", "Min", "Max",
}

var answerHeaders = []any{
	"Session ID", "#", "Question", "Your Answer", "Correct Answer", "Correct",
}

// WriteXLSX writes summaries as a workbook with one row per session on
// the Sessions sheet and one row per answer on the Answers sheet.
func WriteXLSX(w io.Writer, summaries []*session.SessionSummary) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", SessionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(AnswersSheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", AnswersSheet, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#f2f2f2"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "#000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	wrong, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#f8d7da"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create answer style: %w", err)
	}

	if err := writeHeader(f, SessionsSheet, sessionHeaders, headerStyle); err != nil {
		return err
	}
	if err := writeHeader(f, AnswersSheet, answerHeaders, headerStyle); err != nil {
		return err
	}

	answerRow := 2
	for i, s := range summaries {
		row := []any{
			s.ID,
			s.Timestamp.Format(session.TimestampLayout),
			s.Username,
			s.Score,
			s.Total,
			round2(s.Accuracy),
			s.ElapsedSeconds,
			operationsLabel(s),
			s.NumberMin,
			s.NumberMax,
		}
		if err := setRow(f, SessionsSheet, i+2, row); err != nil {
			return err
		}

		for n, d := range s.Details {
			var answer any = ""
			if d.UserAnswer != nil {
				answer = *d.UserAnswer
			}
			if err := setRow(f, AnswersSheet, answerRow, []any{
				s.ID, n + 1, d.Question, answer, d.CorrectAnswer, d.IsCorrect,
			}); err != nil {
				return err
			}
			if !d.IsCorrect {
				if err := styleRow(f, AnswersSheet, answerRow, len(answerHeaders), wrong); err != nil {
					return err
				}
			}
			answerRow++
		}
	}

	_ = f.SetColWidth(SessionsSheet, "A", "A", 38)
	_ = f.SetColWidth(SessionsSheet, "B", "B", 20)
	_ = f.SetColWidth(AnswersSheet, "A", "A", 38)
	_ = f.SetColWidth(AnswersSheet, "C", "C", 24)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []any, style int) error {
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	if err := styleRow(f, sheet, 1, len(headers), style); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header on %s: %w", sheet, err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(cols, row)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("style %s row %d: %w", sheet, row, err)
	}
	return nil
}

func operationsLabel(s *session.SessionSummary) string {
	parts := make([]string, len(s.Operations))
	for i, op := range s.Operations {
		parts[i] = string(op)
	}
	return strings.Join(parts, ", ")
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
