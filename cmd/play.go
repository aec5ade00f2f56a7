package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/abhisek/mathdrill/internal/app"
	"github.com/abhisek/mathdrill/internal/config"
	"github.com/abhisek/mathdrill/internal/controller"
	"github.com/abhisek/mathdrill/internal/llm"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/recognize"
	"github.com/abhisek/mathdrill/internal/screens/practice"
	"github.com/abhisek/mathdrill/internal/session"
	"github.com/abhisek/mathdrill/internal/store"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a practice session",
	Long: "Start a practice session. The terminal UI is used when stdin and stdout are " +
		"terminals; otherwise, or with --plain, questions are asked line by line.",
	RunE: runPlay,
}

func init() {
	addPlayFlags(playCmd.Flags())
}

func addPlayFlags(f *pflag.FlagSet) {
	ops := make([]string, 0, len(problemgen.AllOperations))
	for _, op := range problemgen.AllOperations {
		ops = append(ops, string(op))
	}

	f.StringP("user", "u", "", "Learner name recorded in history")
	f.StringSliceP("ops", "o", nil, "Operations to practice ("+strings.Join(ops, ", ")+")")
	f.StringP("difficulty", "d", "", "Number range preset (easy, medium, hard)")
	f.Int("min", 0, "Smallest operand (clears the difficulty preset)")
	f.Int("max", 0, "Largest operand (clears the difficulty preset)")
	f.IntP("count", "n", 0, "Number of questions")
	f.Int("mixed-ops", 0, "Operators per mixed expression (at least 2)")
	f.Bool("parens", false, "Allow parentheses in mixed expressions")
	f.Int("pairs", 0, "Maximum parenthesis pairs per mixed expression")
	f.String("recognizer", "", "Handwriting backend ("+strings.Join([]string{recognize.KeyNone, recognize.KeyLLM, recognize.KeyGoogleVision}, ", ")+")")
	f.String("llm-provider", "", "LLM provider for the llm recognizer ("+config.ProviderAuto+", "+strings.Join(llm.Providers, ", ")+")")
	f.Bool("plain", false, "Use line-by-line mode instead of the terminal UI")
	f.Uint64("seed", 0, "Random seed for reproducible questions (0 picks one)")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := cmd.Flags()

	// Explicit bounds replace the preset unless a preset was also given.
	if (f.Changed("min") || f.Changed("max")) && !f.Changed("difficulty") {
		settings.Practice.Difficulty = ""
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	seed, _ := f.GetUint64("seed")
	ctrl := newController(ctx, st, seed, cmd.ErrOrStderr())

	plain, _ := f.GetBool("plain")
	interactive := !plain && term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))

	in := bufio.NewReader(cmd.InOrStdin())
	username := settings.Practice.Username
	if strings.TrimSpace(username) == "" {
		if username, err = promptLine(in, cmd.OutOrStdout(), "Your name: "); err != nil {
			return err
		}
	}
	cfg, err := settings.PracticeConfig(username)
	if err != nil {
		return err
	}

	if interactive {
		return app.Run(ctx, practice.New(ctrl, cfg))
	}
	return runPlain(ctx, ctrl, cfg, in, cmd.OutOrStdout())
}

// newController wires the engine, history and recognizers from settings.
// A recognizer that cannot be used is reported on warn and typing stays
// available.
func newController(ctx context.Context, st *store.Store, seed uint64, warn io.Writer) *controller.Controller {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	gen := problemgen.New(problemgen.NewRand(seed), problemgen.DefaultOptions())
	engine := session.NewEngine(gen, session.SystemClock)

	registry := recognize.NewDefaultRegistry(settings.RecognizerSettings(st.EventRepo()))
	ctrl := controller.New(engine, st.HistoryRepo(), controller.WithRecognizers(registry))

	backend := settings.Recognizer.Backend
	if backend == "" {
		backend = recognize.KeyNone
	}
	rec, err := ctrl.SelectRecognizer(ctx, backend)
	switch {
	case err != nil:
		fmt.Fprintf(warn, "Handwriting recognition is off: %v\n", err)
		_, _ = ctrl.SelectRecognizer(ctx, recognize.KeyNone)
	case !rec.Available() && backend != recognize.KeyNone:
		fmt.Fprintf(warn, "Recognizer %s is not available; type your answers.\n", rec.Name())
	}
	return ctrl
}

func promptLine(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
