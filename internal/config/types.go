package config

import "time"

// Config is the top-level configuration surface recognized by the control
// plane (§6). Durations are accepted as compound strings ("1d2h30m") and
// parsed via orchestrator.ParseDuration at load time.
type Config struct {
	XTimeBack         string `yaml:"x_time_back" validate:"required,duration"`
	Granularity       string `yaml:"granularity" validate:"required,duration"`
	GranularityOffset string `yaml:"granularity_offset" validate:"omitempty,duration"`
	Timezone          string `yaml:"timezone" validate:"required,iana_timezone"`

	Audit         AuditConfig         `yaml:"audit"`
	StageToTarget StageToTargetConfig `yaml:"stage_to_target"`
	Retry         RetryConfig         `yaml:"retry"`
	Sweeper       SweeperConfig       `yaml:"sweeper"`
	Lock          LockConfig          `yaml:"lock"`

	Triples []TripleConfig `yaml:"triples" validate:"required,min=1,dive"`
}

// AuditConfig configures the audit reconciliation loop (§4.11).
type AuditConfig struct {
	MaxWait      string `yaml:"max_wait" validate:"omitempty,duration"`
	InitialDelay string `yaml:"initial_delay" validate:"omitempty,duration"`
	MaxDelay     string `yaml:"max_delay" validate:"omitempty,duration"`
	Multiplier   float64 `yaml:"multiplier" validate:"omitempty,gt=1"`
}

// StageToTargetConfig configures the stage→target settle wait (§4.10).
type StageToTargetConfig struct {
	SettleInterval string `yaml:"settle_interval" validate:"omitempty,duration"`
}

// RetryConfig configures the retry harness (§4.5).
type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts" validate:"omitempty,min=1"`
	BaseDelay   string  `yaml:"base_delay" validate:"omitempty,duration"`
	Multiplier  float64 `yaml:"multiplier" validate:"omitempty,gt=1"`
}

// SweeperConfig configures the stale-lock sweeper (§4.12).
type SweeperConfig struct {
	StaleThreshold string `yaml:"stale_threshold" validate:"omitempty,duration"`
}

// LockConfig configures how dag_run_id values are minted for the local
// workflow-host stand-in.
type LockConfig struct {
	OwnerIDSource string `yaml:"owner_id_source" validate:"omitempty,oneof=uuid static"`
}

// TripleConfig is one configured (source, stage, target) identity, plus the
// local directories the reference localfs adapters operate against.
type TripleConfig struct {
	Source IdentitySide `yaml:"source" validate:"required"`
	Stage  IdentitySide `yaml:"stage" validate:"required"`
	Target IdentitySide `yaml:"target" validate:"required"`

	SourceDir string `yaml:"source_dir" validate:"required"`
	StageDir  string `yaml:"stage_dir" validate:"required"`
	TargetDir string `yaml:"target_dir" validate:"required"`
}

// IdentitySide is one side (source, stage, or target) of an identity triple.
type IdentitySide struct {
	ID          string `yaml:"id" validate:"required"`
	Name        string `yaml:"name" validate:"required"`
	Category    string `yaml:"category"`
	SubCategory string `yaml:"sub_category"`
}

// Defaults, matching §6.
const (
	DefaultMaxWait        = 30 * time.Minute
	DefaultInitialDelay   = 5 * time.Second
	DefaultMaxDelay       = time.Minute
	DefaultAuditMultiplier = 2.0

	DefaultSettleInterval = 120 * time.Second

	DefaultRetryMaxAttempts = 3
	DefaultRetryBaseDelay   = 4 * time.Second
	DefaultRetryMultiplier  = 2.0

	DefaultStaleThreshold = 2 * time.Hour
)
