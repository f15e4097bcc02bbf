package workspace

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"mangarecap/internal/logging"
)

// DirPrefix marks run directories so stale cleanup never touches anything else.
const DirPrefix = "mangarecap-"

// Workspace is one run's scratch directory tree.
type Workspace struct {
	RunID  string
	Root   string
	Pages  string
	Panels string
	Audio  string
	Clips  string

	logger *slog.Logger
}

// Acquire creates a fresh run directory under parent, or under the system
// temp dir when parent is empty.
func Acquire(parent string, logger *slog.Logger) (*Workspace, error) {
	parent = strings.TrimSpace(parent)
	if parent == "" {
		parent = os.TempDir()
	}
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir parent: %w", err)
	}

	runID := uuid.NewString()
	root := filepath.Join(parent, DirPrefix+runID)
	ws := &Workspace{
		RunID:  runID,
		Root:   root,
		Pages:  filepath.Join(root, "pages"),
		Panels: filepath.Join(root, "panels"),
		Audio:  filepath.Join(root, "audio"),
		Clips:  filepath.Join(root, "clips"),
		logger: logging.NewComponentLogger(logger, "workspace"),
	}
	for _, dir := range []string{ws.Pages, ws.Panels, ws.Audio, ws.Clips} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			_ = os.RemoveAll(root)
			return nil, fmt.Errorf("create %s: %w", filepath.Base(dir), err)
		}
	}
	ws.logger.Debug("work directory created", logging.String("path", root))
	return ws, nil
}

// Cleanup removes the run directory. Safe to call more than once.
func (w *Workspace) Cleanup() error {
	if w == nil || w.Root == "" {
		return nil
	}
	if err := os.RemoveAll(w.Root); err != nil {
		w.logger.Warn("failed to remove work directory",
			logging.String("path", w.Root),
			logging.Error(err),
			logging.String(logging.FieldEventType, "workspace_cleanup_failed"),
			logging.String(logging.FieldErrorHint, "check paths.work_dir permissions"),
			logging.String(logging.FieldImpact, "disk space not reclaimed"),
		)
		return err
	}
	w.logger.Debug("work directory removed", logging.String("path", w.Root))
	return nil
}
