package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathdrill/internal/llm"
	"github.com/abhisek/mathdrill/internal/recognize"
	"github.com/abhisek/mathdrill/internal/store"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Read a handwritten number from an image",
	Long: "Read a handwritten number from a PNG, JPEG, GIF or WebP image with the " +
		"configured recognizer backend and print it.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := recognize.LoadImage(args[0])
		if err != nil {
			return err
		}

		return withStore(func(st *store.Store) error {
			registry := recognize.NewDefaultRegistry(settings.RecognizerSettings(st.EventRepo()))
			backend := settings.Recognizer.Backend
			if backend == "" || backend == recognize.KeyNone {
				return fmt.Errorf("no recognizer configured; use --recognizer (%v)", registry.Keys())
			}

			rec, err := registry.Get(cmd.Context(), backend)
			if err != nil {
				return err
			}
			if !rec.Available() {
				return fmt.Errorf("recognizer %s is not available", rec.Name())
			}

			n, ok := rec.Recognize(llm.WithPurpose(cmd.Context(), llm.PurposeCommand), img)
			if !ok {
				return errors.New("no number found in the image")
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		})
	},
}

func init() {
	recognizeCmd.Flags().String("recognizer", "", "Handwriting backend (llm, google-vision)")
	recognizeCmd.Flags().String("llm-provider", "", "LLM provider for the llm recognizer")
}
