// Package sassast defines the shape the external parser interface
// (spec.md §6 "Parser interface (consumed)") must hand back from
// parse_stylesheet: the Sass statement/expression trees the Evaluator (C1)
// walks. This package owns no parsing logic — the spec treats parsing as
// an external collaborator — only the data shape, matching esbuild's
// convention of a pure-data js_ast/css_ast package separate from its
// js_parser/css_parser packages
// (_examples/evanw-esbuild/internal/js_ast/js_ast.go).
package sassast

import "github.com/sassy-go/sasscore/internal/logger"

// Statement is implemented by every statement-level node (spec.md §4.4's
// "selected rules" list).
type Statement interface {
	isStatement()
	Span() logger.Range
}

type base struct{ Range logger.Range }

func (b base) Span() logger.Range { return b.Range }

type Stylesheet struct {
	base
	Children []Statement
	URL      string
}

func (Stylesheet) isStatement() {}

type StyleRule struct {
	base
	SelectorInterpolation Expression
	Children              []Statement
}

func (StyleRule) isStatement() {}

// AtRule is the generic unknown-at-rule shape (spec.md: "childless?").
type AtRule struct {
	base
	Name     string
	Value    Expression // prelude interpolation, may be nil
	Children []Statement
	Childless bool
}

func (AtRule) isStatement() {}

type MediaRule struct {
	base
	QueryInterpolation Expression
	Children           []Statement
}

func (MediaRule) isStatement() {}

type SupportsRule struct {
	base
	ConditionInterpolation Expression
	Children               []Statement
}

func (SupportsRule) isStatement() {}

type Declaration struct {
	base
	NameInterpolation  Expression
	ValueExpr          Expression
	NestedChildren     []Statement // `x: { y: z }` nested-declaration notation
	ParsedAsCustomProp bool
}

func (Declaration) isStatement() {}

type VariableDeclaration struct {
	base
	Name      string
	Namespace string
	ValueExpr Expression
	Global    bool
	Default   bool
}

func (VariableDeclaration) isStatement() {}

type ImportStatement struct {
	base
	URL string
}

func (ImportStatement) isStatement() {}

type UseStatement struct {
	base
	URL          string
	Namespace    string // "" means use the default basename; "*" means no namespace
	Configuration []ConfigEntry
}

func (UseStatement) isStatement() {}

type ForwardStatement struct {
	base
	URL           string
	Prefix        string
	Show          []string
	Hide          []string
	Configuration []ConfigEntry
}

func (ForwardStatement) isStatement() {}

type ConfigEntry struct {
	Name      string
	ValueExpr Expression
	Default   bool
}

type ExtendStatement struct {
	base
	TargetInterpolation Expression
	Optional            bool
}

func (ExtendStatement) isStatement() {}

type EachStatement struct {
	base
	Variables []string
	ListExpr  Expression
	Children  []Statement
}

func (EachStatement) isStatement() {}

type ForStatement struct {
	base
	Variable  string
	FromExpr  Expression
	ToExpr    Expression
	Exclusive bool
	Children  []Statement
}

func (ForStatement) isStatement() {}

type WhileStatement struct {
	base
	ConditionExpr Expression
	Children      []Statement
}

func (WhileStatement) isStatement() {}

type IfClause struct {
	ConditionExpr Expression // nil for the trailing @else
	Children      []Statement
}

type IfStatement struct {
	base
	Clauses []IfClause
}

func (IfStatement) isStatement() {}

type Argument struct {
	Name      string // "" for positional
	ValueExpr Expression
	Default   Expression // nil if required
	IsRest    bool
}

type FunctionDecl struct {
	base
	Name      string
	Arguments []Argument
	Children  []Statement
}

func (FunctionDecl) isStatement() {}

type MixinDecl struct {
	base
	Name         string
	Arguments    []Argument
	AcceptsContent bool
	Children     []Statement
}

func (MixinDecl) isStatement() {}

type CallArgument struct {
	Name      string
	ValueExpr Expression
	IsSpread  bool
}

type IncludeStatement struct {
	base
	Name          string
	Namespace     string
	Arguments     []CallArgument
	ContentBlock  []Statement
	ContentArgs   []Argument
}

func (IncludeStatement) isStatement() {}

type ContentStatement struct {
	base
	Arguments []CallArgument
}

func (ContentStatement) isStatement() {}

type ReturnStatement struct {
	base
	ValueExpr Expression
}

func (ReturnStatement) isStatement() {}

type WarnStatement struct {
	base
	MessageExpr Expression
}

func (WarnStatement) isStatement() {}

type ErrorStatement struct {
	base
	MessageExpr Expression
}

func (ErrorStatement) isStatement() {}

type DebugStatement struct {
	base
	MessageExpr Expression
}

func (DebugStatement) isStatement() {}

type AtRootStatement struct {
	base
	QueryText string
	Children  []Statement
}

func (AtRootStatement) isStatement() {}

type CommentStatement struct {
	base
	Text      string
	Preserved bool
}

func (CommentStatement) isStatement() {}

// --- Expressions --------------------------------------------------------

type Expression interface {
	isExpression()
	Span() logger.Range
}

type NumberLiteral struct {
	base
	Value float64
	Unit  string
}

func (NumberLiteral) isExpression() {}

type StringLiteral struct {
	base
	Parts  []interface{} // string or Expression, for interpolated strings
	Quoted bool
}

func (StringLiteral) isExpression() {}

type ColorLiteral struct {
	base
	Text string
}

func (ColorLiteral) isExpression() {}

type BoolLiteral struct {
	base
	Value bool
}

func (BoolLiteral) isExpression() {}

type NullLiteral struct{ base }

func (NullLiteral) isExpression() {}

type ListLiteral struct {
	base
	Items     []Expression
	Separator string // "space", "comma", "slash", "undecided"
	Brackets  bool
}

func (ListLiteral) isExpression() {}

type MapLiteral struct {
	base
	Keys   []Expression
	Values []Expression
}

func (MapLiteral) isExpression() {}

type VariableRef struct {
	base
	Name      string
	Namespace string
}

func (VariableRef) isExpression() {}

type FunctionCallArgument struct {
	Name      string
	ValueExpr Expression
	IsSpread  bool
}

type FunctionCall struct {
	base
	Name      string
	Namespace string
	Arguments []FunctionCallArgument
}

func (FunctionCall) isExpression() {}

type BinaryOp struct {
	base
	Op          string // "+","-","*","/","%","==","!=","<","<=",">",">=","and","or"
	Left, Right Expression
}

func (BinaryOp) isExpression() {}

type UnaryOp struct {
	base
	Op      string // "-","+","/","not"
	Operand Expression
}

func (UnaryOp) isExpression() {}

type ParenExpr struct {
	base
	Inner Expression
}

func (ParenExpr) isExpression() {}

// Interpolation is `#{expr}` embedded inside otherwise-literal text; used
// for selector/at-rule preludes, property names, and string contents.
type Interpolation struct {
	base
	Parts []interface{} // string or Expression
}

func (Interpolation) isExpression() {}

// ParentSelectorRef is the bare `&` used inside an expression context
// (e.g. `#{&}`).
type ParentSelectorRef struct{ base }

func (ParentSelectorRef) isExpression() {}

type TernaryIf struct {
	base
	ConditionExpr, ThenExpr, ElseExpr Expression
}

func (TernaryIf) isExpression() {}
