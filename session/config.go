// Package session is the seam between this module's query-execution core
// and whatever sits in front of it (spec.md §1's out-of-scope "network
// listener and wire protocol", §9's net/sql_task_handler analogue). It
// owns the per-process Catalog/Engine pair, binds/plans/executes one
// already-parsed statement at a time, and tracks the one open explicit
// transaction a BEGIN/COMMIT/ROLLBACK sequence spans. Grounded on
// database/database.go's Config shape (YAML-loadable, one struct per
// connection) and net/sql_task_handler.cpp's HandleSql seam.
package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the YAML-loadable shape an embedding binary (cmd/miniqld)
// builds a Session from, mirroring database.ParseGeneratorConfig's
// file-or-defaults pattern.
type Config struct {
	BaseDir  string `yaml:"base_dir"`
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig matches what a fresh `miniqld --base-dir ./data` run uses
// when no YAML config file is given.
func DefaultConfig() Config {
	return Config{BaseDir: "./data", LogLevel: "info"}
}

// LoadConfig reads path as YAML, falling back to DefaultConfig for any
// field left unset so a minimal config file only needs to override what
// it cares about.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("session: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return Config{}, fmt.Errorf("session: parse config %s: %w", path, err)
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = DefaultConfig().BaseDir
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultConfig().LogLevel
	}
	return cfg, nil
}
