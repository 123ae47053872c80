// gen-samples generates sample diagram outputs for README documentation.
// Run: go run ./cmd/gen-samples
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jrmcauliffe00/flow-diagram/internal/export"
	"github.com/jrmcauliffe00/flow-diagram/internal/flows"
	"github.com/jrmcauliffe00/flow-diagram/internal/layout"
	"github.com/jrmcauliffe00/flow-diagram/internal/render"
)

func main() {
	// Branching order flow: Start → in stock? → two branches → End.
	d, err := flows.BranchingFlow("Order Fulfillment", "Item in stock?", []flows.Branch{
		{When: "yes", Then: "Process payment"},
		{When: "no", Then: "Notify restock"},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build error: %v\n", err)
		os.Exit(1)
	}

	if err := layout.Apply(layout.AlgorithmHierarchical, d); err != nil {
		fmt.Fprintf(os.Stderr, "layout error: %v\n", err)
		os.Exit(1)
	}

	outDir := filepath.Join("docs", "assets")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	exporter := export.NewExporter(4, logger)
	defer exporter.Close()

	results, err := exporter.Export(context.Background(), d, outDir, "sample", export.Formats(), render.DefaultOptions())
	for _, r := range results {
		fmt.Printf("written: %s\n", r.Path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "export error: %v\n", err)
		os.Exit(1)
	}

	// Mermaid also goes to stdout so it can be pasted into a README.
	mermaid, err := render.Render(d, render.Options{Format: render.FormatMermaid})
	if err != nil {
		fmt.Fprintf(os.Stderr, "render error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("=== Mermaid ===")
	fmt.Println(mermaid)
}
