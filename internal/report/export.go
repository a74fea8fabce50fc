package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/paydesk/internal/config"
)

// Exporter stores an encoded report and returns where it went.
type Exporter interface {
	Export(ctx context.Context, name string, body []byte, contentType string) (string, error)
}

// ObjectName builds "<prefix>/report-<timestamp>-<uuid>.<ext>".
func ObjectName(prefix string, at time.Time, format string) string {
	name := fmt.Sprintf("report-%s-%s.%s", at.UTC().Format("20060102T150405Z"), uuid.NewString(), Extension(format))
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// NewExporter selects the exporter named by cfg.Driver.
func NewExporter(ctx context.Context, cfg config.ReportConfig) (Exporter, error) {
	switch strings.ToLower(cfg.Driver) {
	case config.ExportFile, "":
		return NewFileExporter(cfg.Dir), nil
	case config.ExportS3:
		return NewS3Exporter(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown report export driver %q", cfg.Driver)
	}
}

// FileExporter writes reports below a local directory.
type FileExporter struct {
	Dir string
}

func NewFileExporter(dir string) *FileExporter {
	if dir == "" {
		dir = "reports"
	}
	return &FileExporter{Dir: dir}
}

// Export writes body to Dir/name, creating parent directories.
func (f *FileExporter) Export(_ context.Context, name string, body []byte, _ string) (string, error) {
	target := filepath.Join(f.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(target, body, 0o640); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return target, nil
}
