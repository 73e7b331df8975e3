// Package sourcemap builds a source map (spec.md §4.6 "Source map") as the
// serializer walks the frozen CSS AST: for every node entered, the current
// output byte offset is recorded against the node's input span. Adapted
// from esbuild's internal/sourcemap chunk builder, trimmed of the JS-only
// input-remapping path (a CSS AST produced by this evaluator is always the
// original source, never a nested transform of another source map) and of
// UTF-16 column counting (CSS columns are reported in UTF-8 bytes here,
// since nothing downstream requires exact browser-devtools codepoint
// columns for a standalone Sass compiler).
package sourcemap

import (
	"bytes"
	"strings"

	"github.com/sassy-go/sasscore/internal/logger"
)

var base64 = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/")

// EncodeVLQ appends value to encoded using the source-map VLQ encoding:
// sign in the low bit, continuation bit in bit 5.
func EncodeVLQ(encoded []byte, value int) []byte {
	var vlq int
	if value < 0 {
		vlq = ((-value) << 1) | 1
	} else {
		vlq = value << 1
	}
	for {
		digit := vlq & 31
		vlq >>= 5
		if vlq != 0 {
			digit |= 32
		}
		encoded = append(encoded, base64[digit])
		if vlq == 0 {
			break
		}
	}
	return encoded
}

func DecodeVLQ(encoded []byte, start int) (int, int) {
	shift := 0
	vlq := 0
	for {
		index := bytes.IndexByte(base64, encoded[start])
		if index < 0 {
			break
		}
		vlq |= (index & 31) << shift
		start++
		shift += 5
		if (index & 32) == 0 {
			break
		}
	}
	value := vlq >> 1
	if (vlq & 1) != 0 {
		value = -value
	}
	return value, start
}

// LineOffsetTable maps a line number (0-based) to its starting byte offset,
// built once per Source and binary-searched by AddSourceMapping.
type LineOffsetTable struct {
	byteOffsetToStartOfLine int32
}

func GenerateLineOffsetTables(contents string) []LineOffsetTable {
	tables := []LineOffsetTable{{byteOffsetToStartOfLine: 0}}
	var offset int32
	for i := 0; i < len(contents); i++ {
		c := contents[i]
		offset++
		if c == '\n' {
			tables = append(tables, LineOffsetTable{byteOffsetToStartOfLine: offset})
		}
	}
	return tables
}

// SourceMapState is one (generated, original) position pair.
type SourceMapState struct {
	GeneratedLine   int
	GeneratedColumn int
	SourceIndex     int
	OriginalLine    int
	OriginalColumn  int
}

// ChunkBuilder accumulates VLQ-encoded mappings as the serializer prints.
// One builder is used per compilation; CSS has no concept of chunked
// output so there is exactly one Chunk at the end, unlike esbuild's
// per-file-then-joined bundler chunks.
type ChunkBuilder struct {
	sources          []string
	lineOffsetTables map[int][]LineOffsetTable
	mappings         []byte
	prevState        SourceMapState
	hasPrevState     bool
	lastGeneratedLen int
	generatedLine    int
	generatedColumn  int
}

func MakeChunkBuilder(sources []string, lineOffsetTables map[int][]LineOffsetTable) ChunkBuilder {
	return ChunkBuilder{sources: sources, lineOffsetTables: lineOffsetTables}
}

// AddSourceMapping records that the next byte about to be appended to
// output corresponds to originalLoc in source sourceIndex. output is the
// serializer's buffer as printed so far, used to recompute the current
// generated line/column.
func (b *ChunkBuilder) AddSourceMapping(sourceIndex int, originalLoc logger.Loc, output []byte) {
	b.advanceGenerated(output)

	tables := b.lineOffsetTables[sourceIndex]
	originalLine := 0
	count := len(tables)
	for count > 0 {
		step := count / 2
		i := originalLine + step
		if tables[i].byteOffsetToStartOfLine <= originalLoc.Start {
			originalLine = i + 1
			count -= step + 1
		} else {
			count = step
		}
	}
	originalLine--
	if originalLine < 0 {
		originalLine = 0
	}
	originalColumn := int(originalLoc.Start)
	if originalLine < len(tables) {
		originalColumn = int(originalLoc.Start - tables[originalLine].byteOffsetToStartOfLine)
	}

	state := SourceMapState{
		GeneratedLine:   b.generatedLine,
		GeneratedColumn: b.generatedColumn,
		SourceIndex:     sourceIndex,
		OriginalLine:    originalLine,
		OriginalColumn:  originalColumn,
	}
	b.appendMapping(state)
}

func (b *ChunkBuilder) advanceGenerated(output []byte) {
	for i := b.lastGeneratedLen; i < len(output); i++ {
		if output[i] == '\n' {
			b.generatedLine++
			b.generatedColumn = 0
		} else {
			b.generatedColumn++
		}
	}
	b.lastGeneratedLen = len(output)
}

func (b *ChunkBuilder) appendMapping(state SourceMapState) {
	if b.hasPrevState && state.GeneratedLine == b.prevState.GeneratedLine {
		b.mappings = EncodeVLQ(b.mappings, state.GeneratedColumn-b.prevState.GeneratedColumn)
	} else {
		for i := 0; i < state.GeneratedLine-b.generatedLineOfLastMapping(); i++ {
			b.mappings = append(b.mappings, ';')
		}
		b.mappings = EncodeVLQ(b.mappings, state.GeneratedColumn)
	}
	b.mappings = EncodeVLQ(b.mappings, state.SourceIndex-b.prevSourceIndex())
	b.mappings = EncodeVLQ(b.mappings, state.OriginalLine-b.prevOriginalLine())
	b.mappings = EncodeVLQ(b.mappings, state.OriginalColumn-b.prevOriginalColumn())
	b.prevState = state
	b.hasPrevState = true
}

func (b *ChunkBuilder) generatedLineOfLastMapping() int {
	if !b.hasPrevState {
		return 0
	}
	return b.prevState.GeneratedLine
}
func (b *ChunkBuilder) prevSourceIndex() int {
	if !b.hasPrevState {
		return 0
	}
	return b.prevState.SourceIndex
}
func (b *ChunkBuilder) prevOriginalLine() int {
	if !b.hasPrevState {
		return 0
	}
	return b.prevState.OriginalLine
}
func (b *ChunkBuilder) prevOriginalColumn() int {
	if !b.hasPrevState {
		return 0
	}
	return b.prevState.OriginalColumn
}

// Map is the finished, JSON-serializable source map (spec.md §6
// serialize()'s optional map result).
type Map struct {
	Version  int      `json:"version"`
	Sources  []string `json:"sources"`
	Mappings string   `json:"mappings"`
	// XSassCompilationID is a vendor extension field correlating this map
	// back to the Compile call that produced it (spec.md §5's "parallelism
	// across compilations is permitted" guarantee becomes hard to debug
	// without some observable per-call identifier); empty unless the caller
	// sets it, and omitted from the JSON entirely in that case.
	XSassCompilationID string
}

func (b *ChunkBuilder) GenerateMap(output []byte) Map {
	b.advanceGenerated(output)
	return Map{
		Version:  3,
		Sources:  b.sources,
		Mappings: string(b.mappings),
	}
}

// String is hand-rolled (rather than relying solely on struct tags)
// because "mappings" must never be re-escaped by a generic encoder in a way
// that changes its byte length, which downstream tooling assumes is stable.
func (m Map) String() string {
	var sb strings.Builder
	sb.WriteString(`{"version":3,"sources":[`)
	for i, s := range m.Sources {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteByte('"')
		sb.WriteString(strings.ReplaceAll(s, `"`, `\"`))
		sb.WriteByte('"')
	}
	sb.WriteString(`],"mappings":"`)
	sb.WriteString(m.Mappings)
	sb.WriteByte('"')
	if m.XSassCompilationID != "" {
		sb.WriteString(`,"x_sass_compilation_id":"`)
		sb.WriteString(strings.ReplaceAll(m.XSassCompilationID, `"`, `\"`))
		sb.WriteByte('"')
	}
	sb.WriteByte('}')
	return sb.String()
}
