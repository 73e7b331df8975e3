// Package serializer implements the Serializer (spec.md §4.6, component
// C6): a pass over the now-frozen CSS AST (internal/cssast) that builds a
// byte buffer plus an optional per-node source-map entry. The printer-loop
// shape — one method per node kind, an indent counter threaded down the
// recursion, a ChunkBuilder fed as text is appended — is adapted from the
// teacher's CSS printer
// (_examples/evanw-esbuild/internal/css_printer/css_printer.go), trimmed of
// concerns this evaluation core doesn't have (legal-comment extraction,
// line-length wrapping, symbol renaming) and extended with the two output
// styles and value-formatting contracts spec.md §4.6 specifies.
package serializer

import (
	"regexp"
	"strings"

	"github.com/sassy-go/sasscore/internal/cssast"
	"github.com/sassy-go/sasscore/internal/logger"
	"github.com/sassy-go/sasscore/internal/selector"
	"github.com/sassy-go/sasscore/internal/sourcemap"
	"github.com/sassy-go/sasscore/internal/value"
)

// Style selects between spec.md §4.6's two output modes.
type Style uint8

const (
	Expanded Style = iota
	Compressed
)

// LineFeed selects the newline sequence written between lines (spec.md §6
// `line_feed ∈ {lf, cr, crlf, lfcr}`).
type LineFeed uint8

const (
	LF LineFeed = iota
	CR
	CRLF
	LFCR
)

func (l LineFeed) text() string {
	switch l {
	case CR:
		return "\r"
	case CRLF:
		return "\r\n"
	case LFCR:
		return "\n\r"
	default:
		return "\n"
	}
}

// Options configures one Serialize call (spec.md §6 public API: `style`,
// `indent_width`, `use_tabs`, `line_feed`, `source_map`).
type Options struct {
	Style       Style
	IndentWidth int  // 0-10, ignored when UseTabs is set; 2 if left zero
	UseTabs     bool
	LineFeed    LineFeed
	SourceMap   bool
}

func (o Options) indentUnit() string {
	if o.UseTabs {
		return "\t"
	}
	width := o.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", width)
}

// Result is what Serialize returns (spec.md §6 `serialize(...) → { text,
// map?, source_files? }`).
type Result struct {
	CSS string
	Map *sourcemap.Map
}

type printer struct {
	opts     Options
	indent   string
	newline  string
	buf      []byte
	builder  sourcemap.ChunkBuilder
	nonASCII bool
}

// Serialize walks tree and renders it per opts. sources is every input
// source the compilation touched, indexed by logger.Source.Index, used to
// build the optional source map; pass nil when opts.SourceMap is false.
func Serialize(tree *cssast.Tree, opts Options, sources []*logger.Source) Result {
	var names []string
	tables := map[int][]sourcemap.LineOffsetTable{}
	for _, src := range sources {
		if src == nil {
			continue
		}
		idx := int(src.Index)
		for len(names) <= idx {
			names = append(names, "")
		}
		names[idx] = src.PrettyURL
		tables[idx] = sourcemap.GenerateLineOffsetTables(src.Contents)
	}

	p := &printer{
		opts:    opts,
		indent:  opts.indentUnit(),
		newline: opts.LineFeed.text(),
		builder: sourcemap.MakeChunkBuilder(names, tables),
	}
	root := tree.Root()
	for _, childID := range tree.Get(root).Children {
		p.printNode(tree, childID, 0)
	}

	css := string(p.buf)
	if p.nonASCII {
		if opts.Style == Compressed {
			css = "\uFEFF" + css
		} else {
			css = "@charset \"UTF-8\";" + p.newline + css
		}
	}

	result := Result{CSS: css}
	if opts.SourceMap {
		m := p.builder.GenerateMap(p.buf)
		result.Map = &m
	}
	return result
}

func (p *printer) print(s string) {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			p.nonASCII = true
			break
		}
	}
	p.buf = append(p.buf, s...)
}

func (p *printer) printIndent(depth int) {
	if p.opts.Style == Compressed {
		return
	}
	for i := 0; i < depth; i++ {
		p.print(p.indent)
	}
}

// recordSpan notes the current output offset against src/loc, skipping
// nodes with no recorded source (e.g. grafted or synthesized nodes).
func (p *printer) recordSpan(src *logger.Source, loc logger.Loc) {
	if !p.opts.SourceMap || src == nil {
		return
	}
	p.builder.AddSourceMapping(int(src.Index), loc, p.buf)
}

func (p *printer) printNode(tree *cssast.Tree, id cssast.NodeID, depth int) {
	node := tree.Get(id)
	compressed := p.opts.Style == Compressed

	switch node.Kind {
	case cssast.KindComment:
		p.printComment(node, depth)
		return

	case cssast.KindStyleRule:
		text := printSelectorList(node.SelectorList, compressed)
		if text == "" {
			return
		}
		p.printIndent(depth)
		p.recordSpan(node.Source, node.Loc)
		p.print(text)
		p.printBlockOpen()
		p.printChildren(tree, node, depth)
		p.printBlockClose(depth)

	case cssast.KindMediaRule:
		p.printIndent(depth)
		p.recordSpan(node.Source, node.Loc)
		p.print("@media")
		if node.Condition != "" {
			p.print(" ")
			p.print(node.Condition)
		}
		p.printBlockOpen()
		p.printChildren(tree, node, depth)
		p.printBlockClose(depth)

	case cssast.KindSupportsRule:
		p.printIndent(depth)
		p.recordSpan(node.Source, node.Loc)
		p.print("@supports")
		if node.Condition != "" {
			p.print(" ")
			p.print(node.Condition)
		}
		p.printBlockOpen()
		p.printChildren(tree, node, depth)
		p.printBlockClose(depth)

	case cssast.KindAtRule:
		p.printIndent(depth)
		p.recordSpan(node.Source, node.Loc)
		p.print("@")
		p.print(node.AtRuleName)
		if node.Prelude != "" {
			p.print(" ")
			p.print(node.Prelude)
		}
		if node.Childless {
			p.print(";")
			if !compressed {
				p.print(p.newline)
			}
			return
		}
		p.printBlockOpen()
		p.printChildren(tree, node, depth)
		p.printBlockClose(depth)

	case cssast.KindKeyframeBlock:
		p.printIndent(depth)
		p.recordSpan(node.Source, node.Loc)
		sep := ", "
		if compressed {
			sep = ","
		}
		p.print(strings.Join(node.Selectors, sep))
		p.printBlockOpen()
		p.printChildren(tree, node, depth)
		p.printBlockClose(depth)

	case cssast.KindImport:
		p.printIndent(depth)
		p.recordSpan(node.Source, node.Loc)
		p.print("@import ")
		p.print(serializeQuotedString(node.URL))
		if node.ImportMedia != "" {
			p.print(" ")
			p.print(node.ImportMedia)
		}
		p.print(";")
		if !compressed {
			p.print(p.newline)
		}

	case cssast.KindDeclaration:
		p.printDeclaration(node, depth)

	default:
		// KindStylesheet only ever appears as the root and is walked by its
		// caller, never recursed into directly.
	}
}

func (p *printer) printChildren(tree *cssast.Tree, node *cssast.Node, depth int) {
	for _, childID := range node.Children {
		p.printNode(tree, childID, depth+1)
	}
}

func (p *printer) printBlockOpen() {
	if p.opts.Style == Compressed {
		p.print("{")
		return
	}
	p.print(" {")
	p.print(p.newline)
}

func (p *printer) printBlockClose(depth int) {
	if p.opts.Style == Compressed && len(p.buf) > 0 && p.buf[len(p.buf)-1] == ';' {
		// Compressed output drops the semicolon before a closing brace.
		p.buf = p.buf[:len(p.buf)-1]
	}
	p.printIndent(depth)
	p.print("}")
	if p.opts.Style != Compressed {
		p.print(p.newline)
	}
}

func (p *printer) printComment(node *cssast.Node, depth int) {
	if p.opts.Style == Compressed && !strings.HasPrefix(node.Text, "!") {
		return
	}
	p.printIndent(depth)
	p.recordSpan(node.Source, node.Loc)
	p.print("/*")
	p.print(node.Text)
	p.print("*/")
	if p.opts.Style != Compressed {
		p.print(p.newline)
	}
}

func (p *printer) printDeclaration(node *cssast.Node, depth int) {
	compressed := p.opts.Style == Compressed

	p.printIndent(depth)
	p.recordSpan(node.Source, node.Loc)
	p.print(node.PropertyName)
	p.print(":")
	if !compressed {
		p.print(" ")
	}

	text := node.PropertyText
	if node.PropertyValue != nil {
		text = FormatValue(node.PropertyValue, compressed)
	}
	if node.CustomProp {
		text = reindentCustomProperty(text, strings.Repeat(p.indent, depth), compressed)
	}
	if compressed {
		text = collapseURLFunctions(text)
	}
	p.print(text)

	if node.Important {
		if !compressed {
			p.print(" ")
		}
		p.print("!important")
	}
	p.print(";")
	if !compressed {
		p.print(p.newline)
	}
}

// FormatValue renders v as CSS text per style (spec.md §6 `serialize_value`,
// minus the `inspect`/`quote` flags that only matter for the interactive
// evaluate_expression surface rather than AST serialization). Scalars
// delegate to internal/value; compound values walk their items.
func FormatValue(v value.Value, compressed bool) string {
	switch t := v.(type) {
	case value.Number:
		return value.FormatNumberForStyle(t, compressed)
	case value.Color:
		return value.ShortestColorText(t)
	default:
		return value.ToCssString(v, false)
	}
}

// QuoteString exposes the fewest-escapes quote selection printDeclaration
// uses for an @import URL to pkg/sassapi's SerializeValue, which needs the
// same quoting for a bare string value's non-inspect form (value.ToCssString
// never applies quoting itself — that's a rendering concern, not a value
// one).
func QuoteString(text string) string {
	return serializeQuotedString(text)
}

// printSelectorList renders a selector list per spec.md §4.6's compressed
// contract (no space after commas, `:not(%invisible)` collapses to
// nothing, an empty compound emits `*`).
func printSelectorList(l selector.SelectorList, compressed bool) string {
	sep := ", "
	if compressed {
		sep = ","
	}
	var parts []string
	for _, c := range l.Complexes {
		text := printComplexSelector(c, compressed)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, sep)
}

func printComplexSelector(c selector.ComplexSelector, compressed bool) string {
	type part struct {
		combinator selector.Combinator
		text       string
	}
	var parts []part
	for _, comp := range c.Components {
		text := comp.Compound.String()
		if text == ":not(%invisible)" {
			continue
		}
		if text == "" {
			text = "*"
		}
		parts = append(parts, part{combinator: comp.Combinator, text: text})
	}

	var b strings.Builder
	for i, pt := range parts {
		if i > 0 {
			if pt.combinator != selector.Descendant {
				if !compressed {
					b.WriteByte(' ')
				}
				b.WriteString(pt.combinator.String())
				if !compressed {
					b.WriteByte(' ')
				}
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(pt.text)
	}
	return b.String()
}

// reindentCustomProperty implements spec.md §4.6's custom-property
// contract: fold trailing spaces on every line, then realign the line with
// the least leading whitespace to currentIndent (compressed mode instead
// collapses every line feed to a single space), adapted from the teacher's
// multi-line comment reindent loop in printIndentedComment.
func reindentCustomProperty(text, currentIndent string, compressed bool) string {
	if !strings.Contains(text, "\n") {
		return strings.TrimRight(text, " \t")
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	if compressed {
		return strings.Join(lines, " ")
	}

	minIndent := -1
	for _, l := range lines[1:] {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " \t"))
		if minIndent == -1 || n < minIndent {
			minIndent = n
		}
	}
	if minIndent < 0 {
		minIndent = 0
	}

	out := make([]string, len(lines))
	out[0] = lines[0]
	for i := 1; i < len(lines); i++ {
		l := lines[i]
		if strings.TrimSpace(l) == "" {
			out[i] = ""
			continue
		}
		if len(l) > minIndent {
			l = l[minIndent:]
		}
		out[i] = currentIndent + l
	}
	return strings.Join(out, "\n")
}

// serializeQuotedString implements spec.md §4.6's string contract: pick
// whichever quote character needs fewer backslash escapes, backslash-hex-
// escape control characters and the BOM, with a mandatory trailing space
// when the escape could otherwise swallow the following character — adapted
// from the teacher's printQuotedWithQuote/printWithEscape pair.
func serializeQuotedString(text string) string {
	quote := bestQuoteChar(text)
	var b strings.Builder
	b.WriteByte(quote)
	runes := []rune(text)
	for i, c := range runes {
		switch {
		case c == rune(quote) || c == '\\':
			b.WriteByte('\\')
			b.WriteRune(c)
		case c < 0x20 || c == 0x7f || c == '\uFEFF':
			b.WriteString("\\")
			b.WriteString(hexRune(c))
			if i+1 < len(runes) && needsEscapeSpace(runes[i+1]) {
				b.WriteByte(' ')
			}
		default:
			b.WriteRune(c)
		}
	}
	b.WriteByte(quote)
	return b.String()
}

func hexRune(c rune) string {
	const hexDigits = "0123456789abcdef"
	if c == 0 {
		return "0"
	}
	var digits []byte
	for c > 0 {
		digits = append([]byte{hexDigits[c%16]}, digits...)
		c /= 16
	}
	return string(digits)
}

func needsEscapeSpace(r rune) bool {
	return r == ' ' || r == '\t' ||
		(r >= '0' && r <= '9') ||
		(r >= 'a' && r <= 'f') ||
		(r >= 'A' && r <= 'F')
}

func bestQuoteChar(text string) byte {
	single, double := 0, 0
	for _, c := range text {
		switch c {
		case '\'':
			single++
		case '"':
			double++
		}
	}
	if double > single {
		return '\''
	}
	return '"'
}

// collapseURLFunctions implements spec.md §4.6's compressed-mode contract
// that `url("…")` collapses to `url(…)` when its content is a bare
// identifier (no whitespace or quote-requiring characters). A regexp is
// used rather than a token-level rewrite because, by the time a value
// reaches the serializer, it is already flattened to its final CSS text
// (internal/value.ToCssString) with no retained token boundaries to walk;
// re-lexing the whole declaration value just to find url(...) calls would
// need a full CSS tokenizer for a single, narrow substitution.
var urlFunctionPattern = regexp.MustCompile(`(?i)url\(\s*(["'])([^"'\\]*)\1\s*\)`)

func collapseURLFunctions(text string) string {
	return urlFunctionPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := urlFunctionPattern.FindStringSubmatch(m)
		content := sub[2]
		if isBareURLIdent(content) {
			return "url(" + content + ")"
		}
		return m
	})
}

func isBareURLIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch c {
		case '(', ')', '\'', '"', '\\', ' ', '\t', '\n':
			return false
		}
	}
	return true
}
