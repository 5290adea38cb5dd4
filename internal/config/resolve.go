package config

import (
	"time"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
)

// Resolved is Config with every duration string parsed and every triple
// turned into an orchestrator.Identity, ready for the engine to consume.
type Resolved struct {
	Timezone          *time.Location
	XTimeBack         time.Duration
	Granularity       time.Duration
	GranularityOffset time.Duration

	AuditMaxWait      time.Duration
	AuditInitialDelay time.Duration
	AuditMaxDelay     time.Duration
	AuditMultiplier   float64

	SettleInterval time.Duration

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RetryMultiplier  float64

	StaleThreshold time.Duration

	LockOwnerIDSource string

	Triples []ResolvedTriple
}

// ResolvedTriple pairs an identity with the local directories the reference
// adapters read from and write to.
type ResolvedTriple struct {
	Identity  orchestrator.Identity
	SourceDir string
	StageDir  string
	TargetDir string
}

// Resolve parses every duration field and builds identity triples. Callers
// should run ValidateConfig first; Resolve assumes well-formed input.
func Resolve(cfg *Config) (*Resolved, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	xTimeBack, err := orchestrator.ParseDuration(cfg.XTimeBack)
	if err != nil {
		return nil, err
	}
	granularity, err := orchestrator.ParseDuration(cfg.Granularity)
	if err != nil {
		return nil, err
	}
	granularityOffset := time.Duration(0)
	if cfg.GranularityOffset != "" {
		granularityOffset, err = orchestrator.ParseDuration(cfg.GranularityOffset)
		if err != nil {
			return nil, err
		}
	}

	resolved := &Resolved{
		Timezone:          loc,
		XTimeBack:         xTimeBack,
		Granularity:       granularity,
		GranularityOffset: granularityOffset,

		AuditMaxWait:      parseOrDefault(cfg.Audit.MaxWait, DefaultMaxWait),
		AuditInitialDelay: parseOrDefault(cfg.Audit.InitialDelay, DefaultInitialDelay),
		AuditMaxDelay:     parseOrDefault(cfg.Audit.MaxDelay, DefaultMaxDelay),
		AuditMultiplier:   orDefaultFloat(cfg.Audit.Multiplier, DefaultAuditMultiplier),

		SettleInterval: parseOrDefault(cfg.StageToTarget.SettleInterval, DefaultSettleInterval),

		RetryMaxAttempts: orDefaultInt(cfg.Retry.MaxAttempts, DefaultRetryMaxAttempts),
		RetryBaseDelay:   parseOrDefault(cfg.Retry.BaseDelay, DefaultRetryBaseDelay),
		RetryMultiplier:  orDefaultFloat(cfg.Retry.Multiplier, DefaultRetryMultiplier),

		StaleThreshold: parseOrDefault(cfg.Sweeper.StaleThreshold, DefaultStaleThreshold),

		LockOwnerIDSource: cfg.Lock.OwnerIDSource,
	}

	for _, t := range cfg.Triples {
		resolved.Triples = append(resolved.Triples, ResolvedTriple{
			Identity: orchestrator.Identity{
				SourceID: t.Source.ID, SourceName: t.Source.Name, SourceCategory: t.Source.Category, SourceSubCategory: t.Source.SubCategory,
				StageID: t.Stage.ID, StageName: t.Stage.Name, StageCategory: t.Stage.Category, StageSubCategory: t.Stage.SubCategory,
				TargetID: t.Target.ID, TargetName: t.Target.Name, TargetCategory: t.Target.Category, TargetSubCategory: t.Target.SubCategory,
			},
			SourceDir: t.SourceDir,
			StageDir:  t.StageDir,
			TargetDir: t.TargetDir,
		})
	}

	return resolved, nil
}

func parseOrDefault(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := orchestrator.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

func orDefaultFloat(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
