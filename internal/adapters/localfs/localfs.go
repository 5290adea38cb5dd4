// Package localfs is a reference Source/Stage/Target/SourceToStageTransfer
// implementation over plain local directories. It exists so the control
// plane can be exercised end-to-end without a system-specific adapter;
// production deployments replace it with real source/stage/target
// collaborators per §1's Out-of-scope list.
package localfs

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dataorch/pipeliner/internal/domain/orchestrator"
	"github.com/dataorch/pipeliner/internal/ports"
)

// windowDir derives a deterministic directory for an identity+window pair,
// the same way across Source and Target so their counts are comparable:
// <base>/<sourceID>-<stageID>-<targetID>/<day>/<startHHMM>-<endHHMM>.
func windowDir(base string, identity orchestrator.Identity, window ports.Window) string {
	triple := fmt.Sprintf("%s-%s-%s", identity.SourceID, identity.StageID, identity.TargetID)
	day := window.Start.UTC().Format("2006-01-02")
	span := fmt.Sprintf("%s-%s", window.Start.UTC().Format("1504"), window.End.UTC().Format("1504"))
	return filepath.Join(base, triple, day, span)
}

func countFiles(dir string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	var n int64
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}
	return n, nil
}

func copyTree(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return copyFile(src, dst)
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// Source implements ports.Source over a directory of window-partitioned
// files. It does not know how the files got there; that is the concern of
// whatever seeds the base directory outside this control plane.
type Source struct {
	BaseDir string
}

var _ ports.Source = (*Source)(nil)

func (s *Source) Count(_ context.Context, identity orchestrator.Identity, window ports.Window) (int64, error) {
	return countFiles(windowDir(s.BaseDir, identity, window))
}

func (s *Source) CheckExists(_ context.Context, identity orchestrator.Identity, window ports.Window) (bool, error) {
	info, err := os.Stat(windowDir(s.BaseDir, identity, window))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

func (s *Source) Delete(_ context.Context, identity orchestrator.Identity, window ports.Window) error {
	return os.RemoveAll(windowDir(s.BaseDir, identity, window))
}

// Stage implements ports.Stage over an intermediate directory, addressed by
// the relative path the generator minted into miscellaneous.stage_path.
type Stage struct {
	BaseDir string
}

var _ ports.Stage = (*Stage)(nil)

func (s *Stage) Count(_ context.Context, path string) (int64, error) {
	return countFiles(filepath.Join(s.BaseDir, path))
}

func (s *Stage) Delete(_ context.Context, path string) error {
	return os.RemoveAll(filepath.Join(s.BaseDir, path))
}

// Target implements ports.Target. Load is synchronous here (a real target
// may be async; the audit's adaptive loop tolerates either).
type Target struct {
	BaseDir  string
	StageDir string
}

var _ ports.Target = (*Target)(nil)

func (t *Target) Load(_ context.Context, record *orchestrator.PipelineRecord) error {
	src := filepath.Join(t.StageDir, record.Miscellaneous.StagePath)
	dst := windowDir(t.BaseDir, record.Identity, ports.Window{Start: record.WindowStartTime, End: record.WindowEndTime})
	return copyTree(src, dst)
}

func (t *Target) Count(_ context.Context, identity orchestrator.Identity, window ports.Window) (int64, error) {
	return countFiles(windowDir(t.BaseDir, identity, window))
}

func (t *Target) Delete(_ context.Context, identity orchestrator.Identity, window ports.Window) error {
	return os.RemoveAll(windowDir(t.BaseDir, identity, window))
}

// Transfer implements ports.SourceToStageTransfer: it copies every file the
// Source adapter's window directory holds into the stage path the generator
// assigned.
type Transfer struct {
	SourceDir string
	StageDir  string
}

var _ ports.SourceToStageTransfer = (*Transfer)(nil)

func (tr *Transfer) Transfer(_ context.Context, record *orchestrator.PipelineRecord) error {
	src := windowDir(tr.SourceDir, record.Identity, ports.Window{Start: record.WindowStartTime, End: record.WindowEndTime})
	dst := filepath.Join(tr.StageDir, record.Miscellaneous.StagePath)
	return copyTree(src, dst)
}
