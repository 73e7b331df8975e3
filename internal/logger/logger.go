// Package logger provides the diagnostics surface shared by every component
// of the evaluation core: byte-offset source positions, deferred message
// collection (it keeps every message; at-most-once warning deduplication
// is done by the evaluator before a message reaches it), and the stack-trace shape
// used to decorate errors at re-raise points.
package logger

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Loc is a 0-based byte offset from the start of a Source's contents.
type Loc struct {
	Start int32
}

// Range is a Loc plus a byte length, used for everything from a single
// token up to an entire declaration value.
type Range struct {
	Loc Loc
	Len int32
}

func (r Range) End() int32 { return r.Loc.Start + r.Len }

// Source is one loaded stylesheet: its canonical URL and full text. Spans
// are always relative to a particular Source.
type Source struct {
	Index        uint32
	CanonicalURL string
	PrettyURL    string
	Contents     string
}

func (s *Source) TextForRange(r Range) string {
	return s.Contents[r.Loc.Start : r.Loc.Start+r.Len]
}

// LineColumn converts a byte offset into a 1-based line and 0-based column,
// scanning the source text. Used only for diagnostic rendering, never for
// anything that affects compiled output.
func (s *Source) LineColumn(loc Loc) (line int, column int, lineText string) {
	line = 1
	lineStart := 0
	for i := 0; i < int(loc.Start) && i < len(s.Contents); i++ {
		if s.Contents[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	lineEnd := strings.IndexByte(s.Contents[lineStart:], '\n')
	if lineEnd == -1 {
		lineText = s.Contents[lineStart:]
	} else {
		lineText = s.Contents[lineStart : lineStart+lineEnd]
	}
	column = int(loc.Start) - lineStart
	return
}

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
	Debug
)

func (k MsgKind) String() string {
	switch k {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Debug:
		return "debug"
	default:
		panic("unreachable")
	}
}

// StackFrame is one entry of the evaluator's call stack (spec.md §4.4): a
// callable name and the span of the call site.
type StackFrame struct {
	MemberName string
	CallSite   Range
	Source     *Source
}

type MsgLocation struct {
	Source   *Source
	Range    Range
	Line     int
	Column   int
	LineText string
}

// DeprecationID tags a warning as belonging to a specific deprecated
// behavior so that a host can filter or enumerate them independently of the
// message text (spec.md §4.4).
type DeprecationID string

type MsgData struct {
	Text          string
	Location      *MsgLocation
	DeprecationID DeprecationID
}

type Msg struct {
	Kind       MsgKind
	Data       MsgData
	Trace      []StackFrame
	QuietDeps  bool // true if this originated from a dependency module
	Compilation string
}

type SortableMsgs []Msg

func (a SortableMsgs) Len() int      { return len(a) }
func (a SortableMsgs) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a SortableMsgs) Less(i, j int) bool {
	ai, aj := a[i], a[j]
	if ai.Kind != aj.Kind {
		return ai.Kind < aj.Kind
	}
	return ai.Data.Text < aj.Data.Text
}

// Log is the sink the evaluator (C1) writes diagnostics to. It mirrors the
// shape of esbuild's internal/logger.Log: a function value per concern
// rather than an interface, so callers can build ad hoc sinks in tests.
type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

// NewDeferLog collects every message in memory and returns it from Done;
// this is what backs spec.md §6's "Logger interface (consumed)" by default
// and what the public API hands back as part of a failed Compile.
func NewDeferLog() Log {
	var mutex sync.Mutex
	var msgs SortableMsgs
	var hasErrors bool

	return Log{
		AddMsg: func(msg Msg) {
			mutex.Lock()
			defer mutex.Unlock()
			if msg.Kind == Error {
				hasErrors = true
			}
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool {
			mutex.Lock()
			defer mutex.Unlock()
			return hasErrors
		},
		Done: func() []Msg {
			mutex.Lock()
			defer mutex.Unlock()
			sort.Stable(msgs)
			out := make([]Msg, len(msgs))
			copy(out, msgs)
			return out
		},
	}
}

func (m Msg) String() string {
	var b strings.Builder
	if loc := m.Data.Location; loc != nil && loc.Source != nil {
		fmt.Fprintf(&b, "%s:%d:%d: ", loc.Source.PrettyURL, loc.Line, loc.Column)
	}
	fmt.Fprintf(&b, "%s: %s", m.Kind.String(), m.Data.Text)
	return b.String()
}
