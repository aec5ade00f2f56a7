package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
)

// LoadDotEnv copies KEY=VALUE pairs from a .env file into the process
// environment. Variables that are already set win. A missing file is not
// an error. It returns the names that were set, sorted.
//
// Names are exported upper case whatever their case in the file, since
// viper folds keys: "my_Key=1" sets MY_KEY.
func LoadDotEnv(path string) ([]string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	keys := v.AllKeys()
	slices.Sort(keys)

	var set []string
	for _, key := range keys {
		name := strings.ToUpper(key)
		if _, exists := os.LookupEnv(name); exists {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return set, fmt.Errorf("set %s: %w", name, err)
		}
		set = append(set, name)
	}
	return set, nil
}
