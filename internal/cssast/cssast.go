// Package cssast is the output CSS tree (spec.md §3 "CSS AST" and §9
// design notes): what the evaluator (C1) builds, the extender (C5)
// mutates in place, and the serializer (C6) walks.
//
// Nodes live in a single Tree arena addressed by NodeID rather than
// holding parent pointers directly, so a child can find its ancestor
// chain (Ancestors, EnclosingMediaConditions) without the reference
// cycles a naive
// parent-pointer tree would create in Go, where the garbage collector
// would rather not see them. The shape generalizes esbuild's flat,
// index-addressed `js_ast.Ref`/`Scope.Children` style
// (_examples/evanw-esbuild/internal/js_ast/js_ast.go) from scope trees
// to an output document tree.
package cssast

import (
	"github.com/sassy-go/sasscore/internal/extend"
	"github.com/sassy-go/sasscore/internal/logger"
	"github.com/sassy-go/sasscore/internal/selector"
	"github.com/sassy-go/sasscore/internal/value"
)

type NodeID uint32

const InvalidNode NodeID = ^NodeID(0)

// NodeKind distinguishes the variant stored at a given arena slot, mirroring
// esbuild's css_ast.R closed-interface idiom but using an explicit tag so
// the arena can store nodes by value without a separate marker-method
// interface per variant.
type NodeKind uint8

const (
	KindStylesheet NodeKind = iota
	KindStyleRule
	KindAtRule
	KindMediaRule
	KindSupportsRule
	KindDeclaration
	KindImport
	KindComment
	KindKeyframeBlock
)

// Node is one arena slot. Only the fields relevant to Kind are populated;
// this mirrors a tagged union more than idiomatic separate types because
// the extender and serializer both need O(1) parent/children traversal
// across all kinds uniformly.
type Node struct {
	Kind     NodeKind
	Parent   NodeID
	Children []NodeID

	// StyleRule selector. ExtendHandle is the extend.RuleHandle this rule
	// was registered under (spec.md §4.5); @extend rewrites a handle's
	// SelectorList in place by reference, so this node's own SelectorList
	// (copied at Append time) can go stale once an extension registered
	// after this rule was built applies to it. Tree.SyncExtensions
	// refreshes every style rule's SelectorList from its handle once all
	// modules have finished registering extensions. Nil for style-rule
	// copies synthesized without their own handle (e.g. the bubbled copy
	// @media/@supports insert alongside an enclosing style rule).
	SelectorList selector.SelectorList
	ExtendHandle *extend.RuleHandle

	// AtRule
	AtRuleName string
	Prelude    string
	// Childless marks an at-rule written with a trailing ";" rather than a
	// "{ }" block (e.g. `@use`-derived passthrough at-rules), distinguishing
	// it from a block-form at-rule that simply happens to have no children
	// (e.g. `@font-face {}`), which the serializer must still print as "{}".
	Childless bool

	// MediaRule / SupportsRule
	Condition string

	// Declaration. PropertyValue is the value this declaration's text was
	// rendered from, kept alongside PropertyText so the serializer (C6) can
	// re-render it per output style (number/color compaction) instead of
	// re-parsing PropertyText; nil for declarations synthesized without a
	// live value (e.g. grafted from another tree).
	PropertyName  string
	PropertyText  string
	PropertyValue value.Value
	Important     bool
	CustomProp    bool

	// Import
	URL         string
	ImportMedia string

	// Comment
	Text string

	// KeyframeBlock
	Selectors []string

	// Source span this node was produced from, for source-map emission
	// (spec.md §4.6).
	Loc    logger.Loc
	Source *logger.Source
}

// Tree is the arena. NodeID 0 is always the root stylesheet node, created
// by NewTree.
type Tree struct {
	Nodes []Node
}

func NewTree() *Tree {
	t := &Tree{}
	t.Nodes = append(t.Nodes, Node{Kind: KindStylesheet, Parent: InvalidNode})
	return t
}

func (t *Tree) Root() NodeID { return NodeID(0) }

func (t *Tree) Get(id NodeID) *Node { return &t.Nodes[id] }

// Append adds node as a new arena slot and wires it as a child of parent,
// returning its new NodeID.
func (t *Tree) Append(parent NodeID, node Node) NodeID {
	node.Parent = parent
	id := NodeID(len(t.Nodes))
	t.Nodes = append(t.Nodes, node)
	if parent != InvalidNode {
		t.Nodes[parent].Children = append(t.Nodes[parent].Children, id)
	}
	return id
}

// Ancestors walks from id up to (and including) the root; it backs
// EnclosingMediaConditions. The extender does not walk the tree: it
// compares the media conditions recorded on its own rule handles.
func (t *Tree) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	for id != InvalidNode {
		out = append(out, id)
		id = t.Nodes[id].Parent
	}
	return out
}

// EnclosingMediaConditions collects the Condition text of every MediaRule
// ancestor of id, outermost first.
func (t *Tree) EnclosingMediaConditions(id NodeID) []string {
	var out []string
	ancestors := t.Ancestors(id)
	for i := len(ancestors) - 1; i >= 0; i-- {
		n := t.Nodes[ancestors[i]]
		if n.Kind == KindMediaRule {
			out = append(out, n.Condition)
		}
	}
	return out
}

// RemoveChild detaches child from parent's children list without
// compacting the arena (nodes are never physically deleted, only
// unlinked, since other structures may still reference their NodeID).
func (t *Tree) RemoveChild(parent, child NodeID) {
	children := t.Nodes[parent].Children
	for i, c := range children {
		if c == child {
			t.Nodes[parent].Children = append(children[:i], children[i+1:]...)
			return
		}
	}
}

// Graft copies the subtree rooted at srcID (from this tree, or another
// tree entirely) as a new child of destParent, used by @import's splicing
// of an imported module's generated CSS into the importing stylesheet at
// the import site (spec.md §4.4).
func (t *Tree) Graft(destParent NodeID, src *Tree, srcID NodeID) NodeID {
	srcNode := src.Nodes[srcID]
	copy := srcNode
	copy.Children = nil
	newID := t.Append(destParent, copy)
	for _, childID := range srcNode.Children {
		t.Graft(newID, src, childID)
	}
	return newID
}

// SyncExtensions refreshes every KindStyleRule node's SelectorList from its
// ExtendHandle, once all modules in a compilation have finished registering
// their @extend rules (spec.md §4.5: extension application is a whole-
// compilation concern, not a per-statement one, since a downstream module
// can register an extension that rewrites a rule an upstream module already
// produced). Call this once, after the entry stylesheet and every module it
// pulls in have finished evaluating, and before serialization.
func (t *Tree) SyncExtensions() {
	for i := range t.Nodes {
		if t.Nodes[i].Kind == KindStyleRule && t.Nodes[i].ExtendHandle != nil {
			t.Nodes[i].SelectorList = t.Nodes[i].ExtendHandle.SelectorList
		}
	}
}

// IsEmpty reports whether id has no children, used by the evaluator to
// drop style rules and @media/@supports blocks that ended up empty
// (spec.md §4.1 "empty rules are omitted from output") and to skip a
// loaded module's CSS when it produced none.
func (t *Tree) IsEmpty(id NodeID) bool {
	return len(t.Nodes[id].Children) == 0
}
