// Package transform rewrites Python code blocks inside XHTML content
// documents with pre-rendered highlighting markup.
//
// Recognition is a fixed textual convention, not language detection: a
// <pre><code> pair where either opening tag marks the content as Python via
// a class token (language-python, python) or a data-language/data-lang
// attribute. Matching is textual on purpose. Re-serializing a parsed tree
// would perturb markup outside the matched regions, and documents without
// recognized blocks must round-trip byte-identical.
package transform

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/euforicio/epubhl/internal/highlight"
)

// blockRE matches a <pre ...><code ...>...</code></pre> region, spanning
// lines. Groups: pre open tag, code open tag, inner content, </code>, </pre>.
var blockRE = regexp.MustCompile(`(?is)(<pre\b[^>]*>)\s*(<code\b[^>]*>)(.*?)(</code>)\s*(</pre>)`)

// pythonHintRE recognizes the Python marker on an opening tag.
var pythonHintRE = regexp.MustCompile(
	`(?i)class\s*=\s*["'][^"']*\b(?:language-python|python)\b[^"']*["']` +
		`|data-lang(?:uage)?\s*=\s*["']python["']`)

// classAttrRE locates an existing class attribute on an opening tag.
var classAttrRE = regexp.MustCompile(`(?i)\bclass\s*=\s*(["'])([^"']*)(["'])`)

// Rewriter replaces recognized Python code blocks in a document with the
// engine's rendering, under one fixed style.
type Rewriter struct {
	engine highlight.Engine
	style  string
}

// NewRewriter binds an engine and a style name. The style is not validated
// here; the engine reports an unknown style on first use.
func NewRewriter(engine highlight.Engine, style string) *Rewriter {
	return &Rewriter{engine: engine, style: style}
}

// Rewrite returns doc with every recognized Python code block replaced by
// highlighted markup, plus the number of blocks rewritten. When nothing is
// rewritten the input slice is returned untouched. Blocks whose inner
// content already contains span markup are left alone, so running the tool
// over its own output changes nothing.
func (r *Rewriter) Rewrite(doc []byte) ([]byte, int, error) {
	matches := blockRE.FindAllSubmatchIndex(doc, -1)
	if len(matches) == 0 {
		return doc, 0, nil
	}

	var out bytes.Buffer
	last, rewritten := 0, 0
	for _, m := range matches {
		preOpen := string(doc[m[2]:m[3]])
		codeOpen := string(doc[m[4]:m[5]])
		inner := string(doc[m[6]:m[7]])

		if !isPythonBlock(preOpen, codeOpen) || strings.Contains(inner, "<span") {
			continue
		}

		frag, err := r.engine.Highlight(html.UnescapeString(inner), r.style)
		if err != nil {
			return nil, 0, err
		}

		out.Write(doc[last:m[0]])
		out.WriteString(addChromaClass(preOpen))
		out.WriteString(codeOpen)
		out.WriteString(frag)
		out.Write(doc[m[8]:m[9]])   // </code>
		out.Write(doc[m[10]:m[11]]) // </pre>
		last = m[1]
		rewritten++
	}
	if rewritten == 0 {
		return doc, 0, nil
	}
	out.Write(doc[last:])
	return out.Bytes(), rewritten, nil
}

// isPythonBlock reports whether either opening tag carries a Python hint.
func isPythonBlock(preOpen, codeOpen string) bool {
	return pythonHintRE.MatchString(preOpen) || pythonHintRE.MatchString(codeOpen)
}

// addChromaClass adds the "chroma" class to an opening tag, extending an
// existing class attribute or creating one.
func addChromaClass(tagOpen string) string {
	if m := classAttrRE.FindStringSubmatchIndex(tagOpen); m != nil {
		value := tagOpen[m[4]:m[5]]
		return tagOpen[:m[4]] + strings.TrimSpace(value+" chroma") + tagOpen[m[5]:]
	}
	return tagOpen[:len(tagOpen)-1] + ` class="chroma">`
}
