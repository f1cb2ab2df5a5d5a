// Package pipeline orchestrates one highlighting run: read the input
// archive, rewrite each HTML content document, and write the output
// archive. Everything is sequential; the first error aborts the run and,
// because the writer only runs after all transforms succeed and builds the
// archive in a temp file, a failed run never leaves an output file behind.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/euforicio/epubhl/internal/config"
	"github.com/euforicio/epubhl/internal/epub"
	"github.com/euforicio/epubhl/internal/highlight"
	"github.com/euforicio/epubhl/internal/transform"
)

// Result summarizes what a run changed.
type Result struct {
	Documents int
	Blocks    int
}

// Run executes the pipeline once. The style name is validated against the
// engine's registry before the input archive is opened.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "pipeline")

	if !highlight.StyleExists(cfg.Style) {
		return Result{}, fmt.Errorf("%w: %q", highlight.ErrUnknownStyle, cfg.Style)
	}

	logger.Info("reading archive", slog.String("path", cfg.Input))
	entries, err := epub.ReadArchive(cfg.Input)
	if err != nil {
		return Result{}, err
	}

	rewriter := transform.NewRewriter(highlight.New(!cfg.Classes), cfg.Style)
	replaced := make(map[string][]byte)
	var changed []string
	var res Result

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if !e.IsHTML() {
			continue
		}
		out, blocks, err := rewriter.Rewrite(e.Data)
		if err != nil {
			return Result{}, fmt.Errorf("transform %s: %w", e.Path, err)
		}
		if blocks == 0 {
			continue
		}
		logger.Info("rewrote document",
			slog.String("path", e.Path), slog.Int("blocks", blocks))
		replaced[e.Path] = out
		changed = append(changed, e.Path)
		res.Documents++
		res.Blocks += blocks
	}

	if cfg.Classes && res.Blocks > 0 {
		entries, err = injectStylesheet(entries, replaced, changed, cfg.Style, logger)
		if err != nil {
			return Result{}, err
		}
	}

	logger.Info("writing archive", slog.String("path", cfg.Output))
	if err := epub.WriteArchive(cfg.Output, entries, replaced); err != nil {
		return Result{}, err
	}
	return res, nil
}

// injectStylesheet amends the archive's stylesheet with the highlight rules
// and links it from every rewritten document. When the archive carries no
// stylesheet at all, a new entry is added; this is the only case where the
// output's entry set differs from the input's, and only in class mode.
func injectStylesheet(entries []epub.Entry, replaced map[string][]byte, changed []string, style string, logger *slog.Logger) ([]epub.Entry, error) {
	css, err := highlight.Stylesheet(style)
	if err != nil {
		return nil, err
	}

	cssPath, ok := transform.ChooseStylesheet(entries)
	if !ok {
		cssPath = transform.NewStylesheetPath(entries)
		entries = append(entries, epub.Entry{Path: cssPath})
		logger.Info("adding stylesheet entry", slog.String("path", cssPath))
	}

	var existing []byte
	for _, e := range entries {
		if e.Path == cssPath {
			existing = e.Data
			break
		}
	}
	replaced[cssPath] = transform.AppendHighlightCSS(existing, css)

	for _, docPath := range changed {
		href := transform.RelativeHref(docPath, cssPath)
		replaced[docPath] = transform.EnsureStylesheetLink(replaced[docPath], href)
	}
	return entries, nil
}
