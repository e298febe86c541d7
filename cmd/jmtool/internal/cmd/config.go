package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/forestrie/go-jellyfish/ingest"
	"github.com/google/uuid"
)

const DefaultConfigFile = "jmtool.toml"

type LoggerConfig struct {
	Level string `toml:"level"`
}

type CheckpointConfig struct {
	// Every signs a checkpoint after this many mutations. 0 signs once per
	// run. Signing is disabled when KeyPath is empty.
	Every   uint64 `toml:"every"`
	KeyPath string `toml:"key_path"`
	KeyID   string `toml:"key_id"`
	Issuer  string `toml:"issuer"`
	Subject string `toml:"subject"`
	LogID   string `toml:"log_id"`
}

type Config struct {
	Logger LoggerConfig `toml:"logger"`
	// Input is the transfer CSV.
	Input      string `toml:"input"`
	ProofsDir  string `toml:"proofs_dir"`
	VerifyDir  string `toml:"verify_dir"`
	// ArchiveDir holds one archive per mode, in a subdirectory named after
	// the mode.
	ArchiveDir string `toml:"archive_dir"`
	// MaxProofs caps verify-only output.
	MaxProofs   int              `toml:"max_proofs"`
	Capacity    uint64           `toml:"capacity"`
	Concurrency int              `toml:"concurrency"`
	BatchSize   int              `toml:"batch_size"`
	CacheSize   int              `toml:"cache_size"`
	Checkpoint  CheckpointConfig `toml:"checkpoint"`
}

func DefaultConfig() *Config {
	return &Config{
		Logger:      LoggerConfig{Level: "INFO"},
		Input:       "art_blocks.csv",
		ProofsDir:   "proofs",
		VerifyDir:   "proofs-verify",
		ArchiveDir:  "archive",
		MaxProofs:   ingest.DefaultMaxProofs,
		Capacity:    100000000,
		Concurrency: 8,
		BatchSize:   ingest.DefaultBatchSize,
		CacheSize:   4096,
		Checkpoint: CheckpointConfig{
			Every:   1000,
			KeyPath: "checkpoint.pem",
			KeyID:   "checkpoint key 1",
			Issuer:  "jmtool",
			Subject: "jmt",
			LogID:   uuid.New().String(),
		},
	}
}

// LoadConfig reads path over the defaults, so a partial file is enough.
func LoadConfig(path string) (*Config, error) {
	conf := DefaultConfig()
	if _, err := toml.DecodeFile(path, conf); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if conf.Checkpoint.LogID != "" {
		if _, err := uuid.Parse(conf.Checkpoint.LogID); err != nil {
			return nil, fmt.Errorf("config %s: checkpoint.log_id: %w", path, err)
		}
	}
	return conf, nil
}

func SaveConfig(path string, conf *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(conf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// ArchivePath is the archive a run in mode resumes from.
func (c *Config) ArchivePath(mode ingest.Mode) string {
	return filepath.Join(c.ArchiveDir, mode.String())
}
