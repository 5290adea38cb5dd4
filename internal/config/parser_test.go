package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/dataorch/pipeliner/pkg/errors"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

const validYAML = `
x_time_back: 1d
granularity: 1h
timezone: UTC
triples:
  - source: {id: s1, name: source}
    stage: {id: st1, name: stage}
    target: {id: t1, name: target}
    source_dir: /tmp/source
    stage_dir: /tmp/stage
    target_dir: /tmp/target
`

func TestParseConfigLoadsValidFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, validYAML)
	cfg, err := ParseConfig(path)
	require.NoError(t, err)
	require.Equal(t, "1d", cfg.XTimeBack)
	require.Len(t, cfg.Triples, 1)
}

func TestParseConfigMissingFileIsParseError(t *testing.T) {
	t.Parallel()

	_, err := ParseConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	var perr *apperrors.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseConfigMalformedYAMLIsParseError(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "x_time_back: [unterminated")
	_, err := ParseConfig(path)
	var perr *apperrors.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseConfigRunsValidation(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "x_time_back: 1d\ngranularity: 1h\ntimezone: UTC\n")
	_, err := ParseConfig(path)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "triples", verr.Field)
}
