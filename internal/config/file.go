package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ErrConfigExists is returned by WriteFile when the target exists and
// overwriting was not requested.
var ErrConfigExists = errors.New("config file already exists")

// Encode writes s as TOML.
func Encode(w io.Writer, s Settings) error {
	enc := toml.NewEncoder(w)
	enc.Indent = ""
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return nil
}

// WriteFile writes s to path, creating parent directories.
func WriteFile(path string, s Settings, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrConfigExists)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("stat %s: %w", path, err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	if err := Encode(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Redacted returns a copy of s with secrets masked, for display.
func (s Settings) Redacted() Settings {
	mask := func(k string) string {
		if k == "" {
			return ""
		}
		return "********"
	}
	s.Recognizer.GoogleVisionKey = mask(s.Recognizer.GoogleVisionKey)
	s.LLM.Anthropic.APIKey = mask(s.LLM.Anthropic.APIKey)
	s.LLM.OpenAI.APIKey = mask(s.LLM.OpenAI.APIKey)
	s.LLM.Gemini.APIKey = mask(s.LLM.Gemini.APIKey)
	s.LLM.OpenRouter.APIKey = mask(s.LLM.OpenRouter.APIKey)
	s.Practice.Operations = append([]string(nil), s.Practice.Operations...)
	return s
}
