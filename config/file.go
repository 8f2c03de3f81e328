package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// LoadFile starts from Load() and overlays the JSON5 file name and its
// sibling name.local.ext, in that order. Non-zero file values override
// environment values. Missing files are skipped. Keys follow the Go field
// names, case-insensitively; durations are given in nanoseconds.
//
//	{
//	  site: { email: "me@example.com", password: "..." },
//	  store: { path: "judgetrack.db" },
//	}
func LoadFile(name string) (*Config, error) {
	cfg := Load()
	if name == "" {
		return cfg, nil
	}

	ext := filepath.Ext(name)
	local := strings.TrimSuffix(name, ext) + ".local" + ext

	for _, path := range []string{name, local} {
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}

		var overlay Config
		if err := json5.Unmarshal(data, &overlay); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		if err := mergo.Merge(cfg, overlay, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("config: merge %s: %w", path, err)
		}
		slog.Debug("config file applied", "path", path)
	}
	return cfg, nil
}
