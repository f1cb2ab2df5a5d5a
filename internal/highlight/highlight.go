// Package highlight renders Python source into styled HTML fragments.
//
// The actual tokenizing and styling is delegated to chroma. The Engine
// interface exists so the pipeline and transform packages can be tested
// against a stub without pulling a real lexer into every test.
package highlight

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Engine produces an HTML fragment of styled spans for a piece of Python
// source. Implementations must be deterministic and side-effect-free; the
// fragment carries no surrounding <pre> or <code> wrapper.
type Engine interface {
	Highlight(code, style string) (string, error)
}

// ErrUnknownStyle indicates a style name that the engine does not know.
var ErrUnknownStyle = fmt.Errorf("highlight: unknown style")

// knownStyles is the immutable style table, loaded once at init from
// chroma's registry.
var knownStyles = func() map[string]struct{} {
	m := make(map[string]struct{})
	for _, name := range styles.Names() {
		m[name] = struct{}{}
	}
	return m
}()

// StyleExists reports whether name is a registered style.
func StyleExists(name string) bool {
	_, ok := knownStyles[name]
	return ok
}

// Styles returns all registered style names, sorted.
func Styles() []string {
	names := make([]string, 0, len(knownStyles))
	for name := range knownStyles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Chroma is the chroma-backed Engine.
type Chroma struct {
	formatter *chromahtml.Formatter
	lexer     chroma.Lexer
}

// New constructs a Chroma engine. With inline set, token colors are emitted
// as style attributes on each span and no stylesheet is needed; otherwise
// spans carry chroma's short class names and the document must link CSS from
// Stylesheet.
func New(inline bool) *Chroma {
	return &Chroma{
		formatter: chromahtml.New(
			chromahtml.WithClasses(!inline),
			chromahtml.PreventSurroundingPre(true),
		),
		lexer: chroma.Coalesce(lexers.Get("python")),
	}
}

// Highlight tokenizes code as Python and renders it with the named style.
func (c *Chroma) Highlight(code, style string) (string, error) {
	if !StyleExists(style) {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
	it, err := c.lexer.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("highlight: tokenise: %w", err)
	}
	var buf bytes.Buffer
	if err := c.formatter.Format(&buf, styles.Get(style), it); err != nil {
		return "", fmt.Errorf("highlight: format: %w", err)
	}
	return buf.String(), nil
}

// Stylesheet returns the CSS rules for class-based output in the named
// style, scoped under the "chroma" class that Rewrite adds to <pre> tags.
func Stylesheet(style string) (string, error) {
	if !StyleExists(style) {
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, style)
	}
	formatter := chromahtml.New(chromahtml.WithClasses(true))
	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, styles.Get(style)); err != nil {
		return "", fmt.Errorf("highlight: write css: %w", err)
	}
	return buf.String(), nil
}
