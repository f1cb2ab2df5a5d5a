package transform

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/euforicio/epubhl/internal/epub"
)

// cssMarker guards against appending the highlight rules twice.
const cssMarker = "/* epubhl syntax highlighting */"

// baseCSS gives code blocks reader-friendly framing independent of the
// chroma style.
const baseCSS = `pre.chroma {
  padding: 0.8em;
  border-radius: 6px;
  border: 1px solid #d0d7de;
  white-space: pre-wrap;
  word-wrap: break-word;
}
pre.chroma code {
  font-family: monospace;
}
`

var headCloseRE = regexp.MustCompile(`(?i)</head>`)

// ChooseStylesheet picks an existing CSS entry to receive the highlight
// rules: any entry named style.css wins, otherwise the first .css entry in
// archive order.
func ChooseStylesheet(entries []epub.Entry) (string, bool) {
	for _, e := range entries {
		if strings.EqualFold(path.Base(e.Path), "style.css") {
			return e.Path, true
		}
	}
	for _, e := range entries {
		if strings.EqualFold(path.Ext(e.Path), ".css") {
			return e.Path, true
		}
	}
	return "", false
}

// NewStylesheetPath decides where a fresh stylesheet entry goes when the
// archive has none: inside OEBPS/ when that tree exists, else the root.
func NewStylesheetPath(entries []epub.Entry) string {
	for _, e := range entries {
		if strings.HasPrefix(e.Path, "OEBPS/") {
			return "OEBPS/highlight.css"
		}
	}
	return "highlight.css"
}

// AppendHighlightCSS appends the base rules and the generated style CSS to
// a stylesheet, once. A stylesheet already carrying the marker is returned
// unchanged.
func AppendHighlightCSS(existing []byte, generated string) []byte {
	if bytes.Contains(existing, []byte(cssMarker)) {
		return existing
	}
	var buf bytes.Buffer
	buf.Write(existing)
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString("\n" + cssMarker + "\n")
	buf.WriteString(baseCSS)
	buf.WriteString(generated)
	if !strings.HasSuffix(generated, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// EnsureStylesheetLink makes sure doc's head links the stylesheet at href.
// Detection parses the document (attribute order and quoting vary across
// EPUB producers); insertion is a plain splice before </head> so the rest
// of the document keeps its exact bytes. Documents without a head are
// returned unchanged.
func EnsureStylesheetLink(doc []byte, href string) []byte {
	if hasStylesheetLink(doc, href) {
		return doc
	}
	loc := headCloseRE.FindIndex(doc)
	if loc == nil {
		return doc
	}
	link := fmt.Sprintf("<link rel=\"stylesheet\" type=\"text/css\" href=%q/>\n", href)
	out := make([]byte, 0, len(doc)+len(link))
	out = append(out, doc[:loc[0]]...)
	out = append(out, link...)
	out = append(out, doc[loc[0]:]...)
	return out
}

func hasStylesheetLink(doc []byte, href string) bool {
	gq, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return false
	}
	found := false
	gq.Find("link[href]").Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr("href"); ok && (v == href || path.Base(v) == path.Base(href)) {
			found = true
		}
	})
	return found
}

// RelativeHref builds the href from a content document to the stylesheet,
// both given as zip-internal paths.
func RelativeHref(docPath, cssPath string) string {
	docDir := path.Dir(docPath)
	if docDir == "." {
		return cssPath
	}
	docParts := strings.Split(docDir, "/")
	cssParts := strings.Split(cssPath, "/")
	common := 0
	for common < len(docParts) && common < len(cssParts)-1 && docParts[common] == cssParts[common] {
		common++
	}
	var b strings.Builder
	for range docParts[common:] {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(cssParts[common:], "/"))
	return b.String()
}
