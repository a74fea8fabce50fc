package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/paydesk/internal/config"
)

func TestNewExporter(t *testing.T) {
	exp, err := NewExporter(context.Background(), config.ReportConfig{Driver: config.ExportFile, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileExporter{}, exp)

	_, err = NewExporter(context.Background(), config.ReportConfig{Driver: config.ExportS3})
	assert.Error(t, err, "bucket is required")

	_, err = NewExporter(context.Background(), config.ReportConfig{Driver: "ftp"})
	assert.Error(t, err)
}
