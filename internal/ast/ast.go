// Package ast holds the handful of data-structure idioms shared across the
// evaluation core's trees (CSS AST, selector AST, module graph): an
// index type whose zero value is invalid, and an import-record shape used
// to track @import/@use/@forward URLs the way esbuild tracks ImportRecords
// for JS/CSS import statements, retargeted at Sass module URLs.
package ast

import "github.com/sassy-go/sasscore/internal/logger"

// Index32 stores a 32-bit index where the zero value is invalid. Flipping
// the bits means a freshly zeroed Index32 (e.g. in a struct literal) reads
// as invalid without callers having to remember an explicit sentinel.
type Index32 struct {
	flippedBits uint32
}

func MakeIndex32(index uint32) Index32 { return Index32{flippedBits: ^index} }
func (i Index32) IsValid() bool        { return i.flippedBits != 0 }
func (i Index32) GetIndex() uint32     { return ^i.flippedBits }

// ImportKind distinguishes how a URL reached the module loader, mirroring
// spec.md §4.3/§4.4's distinct load paths.
type ImportKind uint8

const (
	ImportUse ImportKind = iota
	ImportForward
	ImportDynamic  // legacy @import
	ImportPlainCSS // a literal @import of a URL that is not a module
)

type ImportRecord struct {
	URLText string
	Range   logger.Range
	Kind    ImportKind

	// Populated once the module loader resolves this record; invalid until then.
	ResolvedModule Index32
}
