// Package migrate drives the batch migration of source records into
// embedded vector documents, with resumable checkpointed progress and
// post-migration validation.
package migrate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/CryptiqueAI/cryptique-mvp/engine/domain"
	"github.com/CryptiqueAI/cryptique-mvp/engine/provider"
)

// VectorCollection is where migrated vector documents land.
const VectorCollection = "vectordocuments"

// DefaultCheckpointFile is the default checkpoint path.
const DefaultCheckpointFile = "migration_checkpoint.json"

// Config is the immutable input to one migration run.
type Config struct {
	Sources              []domain.SourceType `yaml:"sources" json:"sources"`
	BatchSize            int                 `yaml:"batch_size" json:"batch_size"`
	MaxWorkers           int                 `yaml:"max_workers" json:"max_workers"`
	Model                provider.Model      `yaml:"model" json:"model"`
	ValidateData         bool                `yaml:"validate_data" json:"validate_data"`
	OptimizeEmbeddings   bool                `yaml:"optimize_embeddings" json:"optimize_embeddings"`
	BackupOriginal       bool                `yaml:"backup_original" json:"backup_original"`
	ResumeFromCheckpoint bool                `yaml:"resume_from_checkpoint" json:"resume_from_checkpoint"`

	// Optional scoping filters.
	SiteIDs   []string `yaml:"site_ids,omitempty" json:"site_ids,omitempty"`
	TeamIDs   []string `yaml:"team_ids,omitempty" json:"team_ids,omitempty"`
	StartDate string   `yaml:"start_date,omitempty" json:"start_date,omitempty"` // RFC 3339
	EndDate   string   `yaml:"end_date,omitempty" json:"end_date,omitempty"`

	CheckpointFile string `yaml:"checkpoint_file,omitempty" json:"checkpoint_file,omitempty"`
}

// DefaultConfig mirrors the historical migration defaults.
func DefaultConfig() Config {
	return Config{
		Sources:              domain.AllSources(),
		BatchSize:            100,
		MaxWorkers:           4,
		Model:                provider.ModelGemini,
		ValidateData:         true,
		OptimizeEmbeddings:   true,
		BackupOriginal:       true,
		ResumeFromCheckpoint: true,
		CheckpointFile:       DefaultCheckpointFile,
	}
}

// LoadConfig reads a YAML config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("migrate: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("migrate: parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configs that cannot drive a run.
func (c Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("migrate: config has no sources")
	}
	for _, s := range c.Sources {
		if !s.Valid() {
			return fmt.Errorf("migrate: config names unknown source %q", s)
		}
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("migrate: batch_size must be positive, got %d", c.BatchSize)
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("migrate: max_workers must be positive, got %d", c.MaxWorkers)
	}
	if _, err := provider.SpecFor(c.Model); err != nil {
		return fmt.Errorf("migrate: config model: %w", err)
	}
	return nil
}

// checkpointPath resolves the checkpoint file location.
func (c Config) checkpointPath() string {
	if c.CheckpointFile != "" {
		return c.CheckpointFile
	}
	return DefaultCheckpointFile
}
