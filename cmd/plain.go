package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/mathdrill/internal/controller"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/recognize"
	"github.com/abhisek/mathdrill/internal/screens/summary"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/ui/layout"
)

// imagePrefix marks an answer line that names an image file to read.
const imagePrefix = "@"

// runPlain plays sessions line by line on in/out until the learner
// declines to repeat or input ends.
func runPlain(ctx context.Context, ctrl *controller.Controller, cfg problemgen.Config, in *bufio.Reader, out io.Writer) error {
	v, err := ctrl.StartPractice(cfg)
	if err != nil {
		return err
	}
	if rec := ctrl.Recognizer(); rec != nil && rec.Available() {
		fmt.Fprintf(out, "Answer with %s<path> to read a handwritten answer from an image.\n", imagePrefix)
	}

	for {
		line, err := promptLine(in, out, fmt.Sprintf("[%d/%d] %s = ", v.Number, v.Total, v.Expression))
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "\nInput closed; this session was not saved.")
				return nil
			}
			return err
		}

		if strings.HasPrefix(line, imagePrefix) {
			text, ok := recognizeFile(ctx, ctrl, strings.TrimPrefix(line, imagePrefix), out)
			if !ok {
				continue
			}
			line = text
		}

		res, err := ctrl.Submit(line)
		switch {
		case errors.Is(err, session.ErrEmptyAnswer):
			fmt.Fprintln(out, "Type an answer first.")
			continue
		case errors.Is(err, session.ErrInvalidAnswer):
			fmt.Fprintln(out, "Answers are whole numbers.")
			continue
		case err != nil:
			return err
		}
		if res.IsCorrect {
			fmt.Fprintln(out, "Correct!")
		} else {
			fmt.Fprintf(out, "Not quite. The answer is %d.\n", res.CorrectAnswer)
		}

		step, err := ctrl.Next(ctx)
		if !step.Done() {
			if err != nil {
				return err
			}
			v = *step.Question
			continue
		}

		printSummary(out, step.Summary)
		if err != nil {
			fmt.Fprintf(out, "Warning: %v\n", err)
		}
		again, err := promptLine(in, out, "Play again with the same settings? [y/N] ")
		if err != nil || !strings.EqualFold(again, "y") {
			return nil
		}
		if v, err = ctrl.Repeat(); err != nil {
			return err
		}
	}
}

func recognizeFile(ctx context.Context, ctrl *controller.Controller, path string, out io.Writer) (string, bool) {
	img, err := recognize.LoadImage(strings.TrimSpace(path))
	if err != nil {
		fmt.Fprintf(out, "Could not open that image: %v\n", err)
		return "", false
	}
	text, ok := ctrl.Recognize(ctx, img)
	if !ok {
		fmt.Fprintln(out, "No number found in the image. Type your answer.")
		return "", false
	}
	fmt.Fprintf(out, "Read %s from the image.\n", text)
	return text, true
}

func printSummary(out io.Writer, s *session.SessionSummary) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Well done, %s!\n", s.Username)
	fmt.Fprintf(out, "Score: %d/%d  Accuracy: %.1f%%  Time: %s\n",
		s.Score, s.Total, s.Accuracy, layout.FormatElapsed(s.ElapsedSeconds))
	for _, line := range summary.DetailLines(s.Details) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out)
}
