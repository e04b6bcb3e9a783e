package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/couchcryptid/fluxtower-cf-etl/internal/domain"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/observability"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockConverter struct {
	mu     sync.Mutex
	calls  []string
	failOn map[string]error
}

func (m *mockConverter) ConvertFile(_ context.Context, inPath, outPath string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failOn[filepath.Base(inPath)]; err != nil {
		return 0, err
	}
	m.calls = append(m.calls, filepath.Base(inPath))
	if err := os.WriteFile(outPath, []byte("converted"), 0o644); err != nil {
		return 0, err
	}
	return 15, nil
}

func (m *mockConverter) converted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

type mockManifestLoader struct {
	mu        sync.Mutex
	published []domain.ConversionResult
	err       error
}

func (m *mockManifestLoader) Publish(_ context.Context, result domain.ConversionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, result)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func writeInputFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("raw"), 0o644))
	}
}

func newTestPipeline(t *testing.T, conv pipeline.FileConverter, loader pipeline.ManifestLoader, opts pipeline.Options) *pipeline.Pipeline {
	t.Helper()
	if opts.InputDir == "" {
		opts.InputDir = t.TempDir()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	return pipeline.New(conv, loader, slog.Default(), newTestMetrics(), opts)
}

// --- tests ---

func TestPipeline_Scan_ConvertsEveryFile(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	defer domain.SetClock(nil)

	inDir := t.TempDir()
	writeInputFiles(t, inDir, "US-WCr-2003.nc", "US-WCr-2004.nc", "notes.txt")

	conv := &mockConverter{}
	ldr := &mockManifestLoader{}
	p := newTestPipeline(t, conv, ldr, pipeline.Options{InputDir: inDir})

	require.NoError(t, p.Scan(context.Background()))

	if diff := cmp.Diff([]string{"US-WCr-2003.nc", "US-WCr-2004.nc"}, conv.converted()); diff != "" {
		t.Errorf("converted files mismatch (-want +got):\n%s", diff)
	}

	results := p.Results()
	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, domain.StatusConverted, r.Status)
		assert.Equal(t, 15, r.Variables)
		assert.Contains(t, r.OutputFile, ".CF.nc")
		assert.Equal(t, now, r.ProcessedAt)
	}
	assert.Len(t, ldr.published, 2)
}

func TestPipeline_Scan_IsolatesFailures(t *testing.T) {
	inDir := t.TempDir()
	writeInputFiles(t, inDir, "US-WCr-2003.nc", "US-WCr-2004.nc", "US-WCr-2005.nc")

	conv := &mockConverter{failOn: map[string]error{
		"US-WCr-2004.nc": errors.New("corrupt header"),
	}}
	p := newTestPipeline(t, conv, nil, pipeline.Options{InputDir: inDir})

	require.NoError(t, p.Scan(context.Background()))

	assert.Equal(t, []string{"US-WCr-2003.nc", "US-WCr-2005.nc"}, conv.converted())

	results := p.Results()
	require.Len(t, results, 3)
	assert.Equal(t, domain.StatusConverted, results[0].Status)
	assert.Equal(t, domain.StatusFailed, results[1].Status)
	assert.Contains(t, results[1].Error, "corrupt header")
	assert.Equal(t, domain.StatusConverted, results[2].Status)
}

func TestPipeline_Scan_SkipsExistingOutput(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeInputFiles(t, inDir, "US-WCr-2003.nc")
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "US-WCr-2003.CF.nc"), []byte("old"), 0o644))

	conv := &mockConverter{}
	p := newTestPipeline(t, conv, nil, pipeline.Options{InputDir: inDir, OutputDir: outDir})

	require.NoError(t, p.Scan(context.Background()))

	assert.Empty(t, conv.converted())
	results := p.Results()
	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusSkipped, results[0].Status)
}

func TestPipeline_Scan_OverwriteReconverts(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeInputFiles(t, inDir, "US-WCr-2003.nc")
	require.NoError(t, os.WriteFile(filepath.Join(outDir, "US-WCr-2003.CF.nc"), []byte("old"), 0o644))

	conv := &mockConverter{}
	p := newTestPipeline(t, conv, nil, pipeline.Options{InputDir: inDir, OutputDir: outDir, Overwrite: true})

	require.NoError(t, p.Scan(context.Background()))

	assert.Equal(t, []string{"US-WCr-2003.nc"}, conv.converted())
}

func TestPipeline_Run_OneShot(t *testing.T) {
	inDir := t.TempDir()
	writeInputFiles(t, inDir, "US-WCr-2003.nc")

	conv := &mockConverter{}
	p := newTestPipeline(t, conv, nil, pipeline.Options{InputDir: inDir})

	require.Error(t, p.CheckReadiness(context.Background()))
	require.NoError(t, p.Run(context.Background()))
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.Len(t, conv.converted(), 1)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	conv := &mockConverter{}
	p := newTestPipeline(t, conv, nil, pipeline.Options{ScanInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("pipeline did not stop on cancellation")
	}
}

func TestPipeline_Run_WatchModeRescans(t *testing.T) {
	inDir := t.TempDir()
	writeInputFiles(t, inDir, "US-WCr-2003.nc")

	conv := &mockConverter{}
	p := newTestPipeline(t, conv, nil, pipeline.Options{InputDir: inDir, ScanInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))

	// First pass converts, later passes skip the existing output.
	assert.Len(t, conv.converted(), 1)
	results := p.Results()
	require.Len(t, results, 1)
	assert.Equal(t, domain.StatusSkipped, results[0].Status)
}

func TestPipeline_PublishFailureDoesNotFailScan(t *testing.T) {
	inDir := t.TempDir()
	writeInputFiles(t, inDir, "US-WCr-2003.nc")

	conv := &mockConverter{}
	ldr := &mockManifestLoader{err: errors.New("broker down")}
	p := newTestPipeline(t, conv, ldr, pipeline.Options{InputDir: inDir})

	require.NoError(t, p.Scan(context.Background()))
	assert.Len(t, conv.converted(), 1)
}
