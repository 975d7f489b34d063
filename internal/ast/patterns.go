package ast

import "github.com/pepl-lang/pepl/internal/token"

// WildcardPattern is `_`, matching anything and binding nothing.
type WildcardPattern struct {
	Sp token.Span
}

func (p *WildcardPattern) patternNode()     {}
func (p *WildcardPattern) Span() token.Span { return p.Sp }
func (p *WildcardPattern) String() string   { return "_" }

// LiteralPattern matches a number, string, bool, or nil literal exactly.
type LiteralPattern struct {
	Value Expression
	Sp    token.Span
}

func (p *LiteralPattern) patternNode()     {}
func (p *LiteralPattern) Span() token.Span { return p.Sp }
func (p *LiteralPattern) String() string   { return p.Value.String() }

// VariantPattern matches a sum-type variant (or Result's Ok/Err), binding
// its payload (if any) to Binding.
type VariantPattern struct {
	Name    string
	Binding string // "" when the variant has no payload or the payload is discarded
	Sp      token.Span
}

func (p *VariantPattern) patternNode()     {}
func (p *VariantPattern) Span() token.Span { return p.Sp }
func (p *VariantPattern) String() string {
	if p.Binding == "" {
		return p.Name
	}
	return p.Name + "(" + p.Binding + ")"
}

// IdentPattern binds the whole scrutinee value to a new name; used as a
// catch-all arm that also names the value (spec.md §3 match semantics).
type IdentPattern struct {
	Name string
	Sp   token.Span
}

func (p *IdentPattern) patternNode()     {}
func (p *IdentPattern) Span() token.Span { return p.Sp }
func (p *IdentPattern) String() string   { return p.Name }
