package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/fluxtower-cf-etl/internal/domain"
	"github.com/couchcryptid/fluxtower-cf-etl/internal/observability"
)

// FileConverter converts one input file into one output file and
// reports how many variables it wrote.
type FileConverter interface {
	ConvertFile(ctx context.Context, inPath, outPath string) (int, error)
}

// ManifestLoader publishes one manifest row per processed file.
type ManifestLoader interface {
	Publish(ctx context.Context, result domain.ConversionResult) error
}

// Options configures a Pipeline.
type Options struct {
	InputDir     string
	OutputDir    string
	Overwrite    bool
	ScanInterval time.Duration
}

// Pipeline scans the input directory for raw year files, converts each
// through the FileConverter, and records a manifest row per file. A
// file that fails to convert is logged and skipped so the remaining
// files in the batch still convert.
type Pipeline struct {
	converter FileConverter
	loader    ManifestLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options

	ready atomic.Bool

	mu      sync.Mutex
	results []domain.ConversionResult
}

// New creates a Pipeline. loader may be nil when manifest publishing is
// disabled.
func New(converter FileConverter, loader ManifestLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	return &Pipeline{
		converter: converter,
		loader:    loader,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
	}
}

// CheckReadiness returns nil once the pipeline has completed at least
// one directory scan.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a directory scan yet")
	}
	return nil
}

// Results returns the manifest rows from the most recent scan.
func (p *Pipeline) Results() []domain.ConversionResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ConversionResult, len(p.results))
	copy(out, p.results)
	return out
}

// Run executes the scan loop until the context is cancelled. A zero
// ScanInterval runs a single scan and returns.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started",
		"input_dir", p.opts.InputDir,
		"output_dir", p.opts.OutputDir,
		"scan_interval", p.opts.ScanInterval,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Applies only to scan-level failures such as an unreadable input
	// directory; per-file failures never stall the loop.
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	for {
		if err := p.Scan(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("directory scan failed", "error", err)
			if p.opts.ScanInterval <= 0 {
				return err
			}
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = 200 * time.Millisecond
		p.ready.Store(true)

		if p.opts.ScanInterval <= 0 {
			return nil
		}
		if !sleepWithContext(ctx, p.opts.ScanInterval) {
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// Scan converts every input file once, isolating per-file failures.
func (p *Pipeline) Scan(ctx context.Context) error {
	paths, err := filepath.Glob(filepath.Join(p.opts.InputDir, "*.nc"))
	if err != nil {
		return fmt.Errorf("scan %s: %w", p.opts.InputDir, err)
	}
	sort.Strings(paths)

	results := make([]domain.ConversionResult, 0, len(paths))
	for _, inPath := range paths {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		result := p.processFile(ctx, inPath)
		results = append(results, result)
		p.publish(ctx, result)
	}

	p.mu.Lock()
	p.results = results
	p.mu.Unlock()
	return nil
}

// processFile converts a single input file and returns its manifest row.
func (p *Pipeline) processFile(ctx context.Context, inPath string) domain.ConversionResult {
	outPath := p.outputPath(inPath)

	if !p.opts.Overwrite {
		if _, err := os.Stat(outPath); err == nil {
			p.metrics.FilesSkipped.Inc()
			p.logger.Debug("output exists, skipping", "input", inPath, "output", outPath)
			return domain.NewConversionResult(inPath, outPath, domain.StatusSkipped, 0, nil)
		}
	}

	start := time.Now()
	written, err := p.converter.ConvertFile(ctx, inPath, outPath)
	if err != nil {
		p.metrics.FilesFailed.Inc()
		p.logger.Error("conversion failed, skipping file", "input", inPath, "error", err)
		return domain.NewConversionResult(inPath, outPath, domain.StatusFailed, 0, err)
	}

	p.metrics.FilesConverted.Inc()
	p.metrics.VariablesWritten.Add(float64(written))
	p.metrics.ConversionDuration.Observe(time.Since(start).Seconds())
	p.logger.Info("converted file", "input", inPath, "output", outPath, "variables", written)
	return domain.NewConversionResult(inPath, outPath, domain.StatusConverted, written, nil)
}

func (p *Pipeline) publish(ctx context.Context, result domain.ConversionResult) {
	if p.loader == nil {
		return
	}
	if err := p.loader.Publish(ctx, result); err != nil {
		p.logger.Warn("manifest publish failed", "input", result.InputFile, "error", err)
	}
}

// outputPath maps an input file name to its converted counterpart,
// inserting a CF marker before the extension.
func (p *Pipeline) outputPath(inPath string) string {
	base := strings.TrimSuffix(filepath.Base(inPath), ".nc")
	return filepath.Join(p.opts.OutputDir, base+".CF.nc")
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
