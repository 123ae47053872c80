// Package export writes diagrams to disk in one or more formats at
// once. Rendering fans out across a bounded worker pool, so a request
// for every format costs roughly one render's wall time.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrmcauliffe00/flow-diagram/internal/render"
	"github.com/jrmcauliffe00/flow-diagram/internal/store"
	"github.com/jrmcauliffe00/flow-diagram/pkg/schema"
)

// extensions maps each exportable format to its file extension.
var extensions = map[string]string{
	"svg":     "svg",
	"html":    "html",
	"mermaid": "mmd",
	"json":    "json",
	"dot":     "dot",
	"png":     "png",
	"text":    "txt",
}

// Formats lists every format the exporter can write, in a stable order.
func Formats() []string {
	return []string{"svg", "html", "mermaid", "json", "dot", "png", "text"}
}

// Result names one file written by an export.
type Result struct {
	Format string `json:"format"`
	Path   string `json:"path"`
}

// Exporter renders diagrams to files through a shared worker pool.
type Exporter struct {
	pool   *WorkerPool
	logger *slog.Logger
}

// NewExporter creates an Exporter whose pool runs at most workers
// concurrent render jobs.
func NewExporter(workers int, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		pool:   NewWorkerPool(workers),
		logger: logger,
	}
}

// Close shuts the worker pool down, waiting for in-flight jobs.
func (e *Exporter) Close() {
	e.pool.Shutdown()
}

// Metrics returns a snapshot of the pool metrics.
func (e *Exporter) Metrics() PoolMetrics {
	return e.pool.Metrics()
}

// Export writes the diagram to dir as <baseName>.<ext> for every
// requested format. Formats render concurrently; the diagram is only
// read. Files that were written successfully are returned even when
// other formats failed, alongside the joined error.
func (e *Exporter) Export(ctx context.Context, d *store.Diagram, dir, baseName string, formats []string, opts render.Options) ([]Result, error) {
	if len(formats) == 0 {
		return nil, schema.NewError(schema.ErrCodeValidation, "no export formats requested")
	}
	for _, f := range formats {
		if _, ok := extensions[f]; !ok {
			return nil, schema.NewErrorf(schema.ErrCodeUnsupportedFormat, "unsupported export format: %s", f)
		}
	}
	if baseName == "" {
		baseName = "diagram"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "create export directory").WithCause(err)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(formats))
	written := make([]bool, len(formats))
	paths := make([]string, len(formats))

	for i, format := range formats {
		path := filepath.Join(dir, baseName+"."+extensions[format])
		paths[i] = path

		wg.Add(1)
		submitErr := e.pool.Submit(ctx, func(jobCtx context.Context) error {
			defer wg.Done()

			data, err := e.renderFile(jobCtx, d, format, opts)
			if err != nil {
				errs[i] = err
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				errs[i] = schema.NewErrorf(schema.ErrCodeStore, "write %s", path).WithCause(err)
				return errs[i]
			}
			written[i] = true
			return nil
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = fmt.Errorf("submit %s export: %w", format, submitErr)
		}
	}
	wg.Wait()

	var results []Result
	for i, format := range formats {
		if written[i] {
			results = append(results, Result{Format: format, Path: paths[i]})
		}
	}

	if err := errors.Join(errs...); err != nil {
		return results, err
	}

	e.logger.InfoContext(ctx, "diagram exported",
		slog.String("dir", dir),
		slog.Int("files", len(results)),
	)
	return results, nil
}

// renderFile produces the raw bytes for one format.
func (e *Exporter) renderFile(ctx context.Context, d *store.Diagram, format string, opts render.Options) ([]byte, error) {
	switch format {
	case "png":
		return render.Image(ctx, d, opts)
	case "text":
		return []byte(render.Summary(d)), nil
	default:
		opts.Format = render.Format(format)
		out, err := render.Render(d, opts)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	}
}
