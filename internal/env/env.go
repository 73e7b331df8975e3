// Package env implements the lexical environment (spec.md §4.2, component
// C2): a scope stack plus a global scope, closures that snapshot the
// environment at declaration time, and first-class content blocks.
//
// The scope-chain shape is grounded on esbuild's js_ast.Scope
// (_examples/evanw-esbuild/internal/js_ast/js_ast.go: "Parent *Scope,
// Children []*Scope, Members map[string]ScopeMember") and the
// push/pop-scope idiom in internal/js_parser/js_parser.go
// (pushScopeForParsePass/popScope), retargeted from a parse-time scope
// tree to a run-time variable/function/mixin environment.
package env

import (
	"strings"

	"github.com/sassy-go/sasscore/internal/value"
)

// normalize implements spec.md §4.2's "underscores are equivalent to
// hyphens on lookup but preserved on declaration": names are stored and
// looked up under their normalized form, while the original spelling is
// the caller's concern (e.g. for deprecation messages).
func normalize(name string) string { return strings.ReplaceAll(name, "_", "-") }

// Content is a first-class @content block: the statements a mixin's
// caller supplied plus the environment captured at the call site
// (spec.md §4.2: "content blocks are stored as first-class callables with
// a reference to the environment at invocation").
type Content struct {
	Invoke func(args []value.Value) (value.Value, error)
}

type scope struct {
	parent     *scope
	variables  map[string]varEntry
	functions  map[string]value.Callable
	mixins     map[string]value.Callable
	semiGlobal bool
}

type varEntry struct {
	value value.Value
}

func newScope(parent *scope, semiGlobal bool) *scope {
	return &scope{
		parent:     parent,
		semiGlobal: semiGlobal,
		variables:  map[string]varEntry{},
		functions:  map[string]value.Callable{},
		mixins:     map[string]value.Callable{},
	}
}

// Module is the exported surface of an evaluated module, used for
// namespaced lookups (`namespace.$var`, `namespace.fn()`) and by
// forward_module (spec.md §3 "Module").
type Module struct {
	Variables map[string]value.Value
	Functions map[string]value.Callable
	Mixins    map[string]value.Callable
}

func NewModule() *Module {
	return &Module{
		Variables: map[string]value.Value{},
		Functions: map[string]value.Callable{},
		Mixins:    map[string]value.Callable{},
	}
}

// Environment is the evaluator's variable/function/mixin resolution
// context for one module under evaluation.
type Environment struct {
	global      *scope
	current     *scope
	modules     map[string]*Module // namespace -> module
	builtins    *Module
	contentStack []*Content
}

func New(builtins *Module) *Environment {
	g := newScope(nil, false)
	return &Environment{global: g, current: g, modules: map[string]*Module{}, builtins: builtins}
}

// Scope runs cb inside a new nested scope unless when is false, in which
// case cb runs directly in the current scope (spec.md §4.2: "when=false
// skips scope creation"). semiGlobal controls whether variable writes
// that don't shadow an existing binding are written through to the
// enclosing scope instead of the new one (used by @each/@for/@while/@if).
func (e *Environment) Scope(when, semiGlobal bool, cb func() error) error {
	if !when {
		return cb()
	}
	prev := e.current
	e.current = newScope(prev, semiGlobal)
	defer func() { e.current = prev }()
	return cb()
}

// SetVariable implements spec.md §4.2's set_variable. With global=true the
// assignment goes to the global scope; otherwise it updates an existing
// binding found up the semi-global chain, or creates the variable in the
// current scope when there is none. With a namespace it writes into that
// namespace's exported module instead.
func (e *Environment) SetVariable(name string, v value.Value, global bool, namespace string) {
	name = normalize(name)
	if namespace != "" {
		if m, ok := e.modules[namespace]; ok {
			m.Variables[name] = v
		}
		return
	}
	if global {
		e.global.variables[name] = varEntry{value: v}
		return
	}
	for s := e.current; s != nil; s = s.parent {
		if _, ok := s.variables[name]; ok {
			s.variables[name] = varEntry{value: v}
			return
		}
		if !s.semiGlobal {
			break
		}
	}
	if e.current.variables == nil {
		e.current.variables = map[string]varEntry{}
	}
	e.current.variables[name] = varEntry{value: v}
}

func (e *Environment) GetVariable(name, namespace string) (value.Value, bool) {
	name = normalize(name)
	if namespace != "" {
		if m, ok := e.modules[namespace]; ok {
			v, ok := m.Variables[name]
			return v, ok
		}
		return nil, false
	}
	for s := e.current; s != nil; s = s.parent {
		if entry, ok := s.variables[name]; ok {
			return entry.value, true
		}
	}
	return nil, false
}

func (e *Environment) DeclareFunction(name string, fn value.Callable) {
	name = normalize(name)
	if e.current.functions == nil {
		e.current.functions = map[string]value.Callable{}
	}
	e.current.functions[name] = fn
}

func (e *Environment) DeclareMixin(name string, fn value.Callable) {
	name = normalize(name)
	if e.current.mixins == nil {
		e.current.mixins = map[string]value.Callable{}
	}
	e.current.mixins[name] = fn
}

// GetFunction looks up through scopes, then imported modules, then the
// built-in table (spec.md §4.2).
func (e *Environment) GetFunction(name, namespace string) (value.Callable, bool) {
	name = normalize(name)
	if namespace != "" {
		if m, ok := e.modules[namespace]; ok {
			fn, ok := m.Functions[name]
			return fn, ok
		}
		return nil, false
	}
	for s := e.current; s != nil; s = s.parent {
		if fn, ok := s.functions[name]; ok {
			return fn, true
		}
	}
	if e.builtins != nil {
		if fn, ok := e.builtins.Functions[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

func (e *Environment) GetMixin(name, namespace string) (value.Callable, bool) {
	name = normalize(name)
	if namespace != "" {
		if m, ok := e.modules[namespace]; ok {
			fn, ok := m.Mixins[name]
			return fn, ok
		}
		return nil, false
	}
	for s := e.current; s != nil; s = s.parent {
		if fn, ok := s.mixins[name]; ok {
			return fn, true
		}
	}
	return nil, false
}

// RegisterModule makes an already-evaluated module's exports available
// under namespace (spec.md §4.3's load_module result feeding into @use).
func (e *Environment) RegisterModule(namespace string, m *Module) {
	e.modules[namespace] = m
}

// Closure returns a reference to the current environment suitable as the
// lexical enclosure of a callable (spec.md §4.2 "closure()"). Because
// scopes form a persistent chain and new sibling declarations only ever
// mutate the scope they're declared into, capturing the *scope pointer is
// enough: subsequent declarations in parent scopes after this point won't
// retroactively appear, matching lexical-scoping semantics.
type Closure struct {
	capturedScope *scope
	env           *Environment
}

func (e *Environment) Closure() Closure {
	return Closure{capturedScope: e.current, env: e}
}

// Invoke runs cb with the environment's current scope temporarily
// rewound to the closure's captured scope, then pushes one extra scope
// layer so the callable's own declarations don't leak into the captured
// chain (spec.md §4.2: "a call into this closure performs an extra layer
// of scope").
func (c Closure) Invoke(cb func() error) error {
	prevCurrent := c.env.current
	c.env.current = newScope(c.capturedScope, false)
	defer func() { c.env.current = prevCurrent }()
	return cb()
}

// WithContent runs cb with content installed as the current @content
// target (spec.md §4.2 "with_content").
func (e *Environment) WithContent(content *Content, cb func() error) error {
	e.contentStack = append(e.contentStack, content)
	defer func() { e.contentStack = e.contentStack[:len(e.contentStack)-1] }()
	return cb()
}

// CurrentContent returns the innermost @content target, if any (consumed
// by the evaluator's @content statement handling, spec.md §4.4).
func (e *Environment) CurrentContent() (*Content, bool) {
	if len(e.contentStack) == 0 {
		return nil, false
	}
	return e.contentStack[len(e.contentStack)-1], true
}

// ForwardModule re-exports m's members into the current environment,
// filtered by show/hide and prefixed, per spec.md §4.2 "forward_module".
func (e *Environment) ForwardModule(m *Module, prefix string, show, hide map[string]bool) {
	filter := func(name string) bool {
		if len(show) > 0 {
			return show[name]
		}
		if len(hide) > 0 {
			return !hide[name]
		}
		return true
	}
	for name, v := range m.Variables {
		if filter(name) {
			e.global.variables[prefix+name] = varEntry{value: v}
		}
	}
	for name, fn := range m.Functions {
		if filter(name) {
			if e.global.functions == nil {
				e.global.functions = map[string]value.Callable{}
			}
			e.global.functions[prefix+name] = fn
		}
	}
	for name, fn := range m.Mixins {
		if filter(name) {
			if e.global.mixins == nil {
				e.global.mixins = map[string]value.Callable{}
			}
			e.global.mixins[prefix+name] = fn
		}
	}
}

// ImportForwards splices an imported (legacy @import) stylesheet's own
// forwarded members directly into the current global scope, with no
// namespace and no prefix (spec.md §4.2 "import_forwards").
func (e *Environment) ImportForwards(m *Module) {
	for name, v := range m.Variables {
		e.global.variables[name] = varEntry{value: v}
	}
	for name, fn := range m.Functions {
		if e.global.functions == nil {
			e.global.functions = map[string]value.Callable{}
		}
		e.global.functions[name] = fn
	}
	for name, fn := range m.Mixins {
		if e.global.mixins == nil {
			e.global.mixins = map[string]value.Callable{}
		}
		e.global.mixins[name] = fn
	}
}

// ExportAll snapshots the environment's global scope into a Module, used
// once a module finishes evaluating (spec.md §3 "Module").
func (e *Environment) ExportAll() *Module {
	m := NewModule()
	for name, entry := range e.global.variables {
		m.Variables[name] = entry.value
	}
	for name, fn := range e.global.functions {
		m.Functions[name] = fn
	}
	for name, fn := range e.global.mixins {
		m.Mixins[name] = fn
	}
	return m
}
