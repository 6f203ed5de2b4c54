package cc

import "github.com/mpvl/ncc/internal/backend"

// TypeStack mirrors the backend's runtime value stack one-for-one: every
// backend push/pop the expression parser issues has a matching Type push/pop
// here, so the parser always knows the static type of whatever the backend
// currently has on top without asking the backend (spec.md §4.2's "shadow
// stack" design).
type TypeStack struct {
	items []Type
}

func (s *TypeStack) Push(t Type) { s.items = append(s.items, t) }

func (s *TypeStack) Pop() Type {
	n := len(s.items)
	t := s.items[n-1]
	s.items = s.items[:n-1]
	return t
}

func (s *TypeStack) Top() Type { return s.items[len(s.items)-1] }

func (s *TypeStack) Set(t Type) { s.items[len(s.items)-1] = t }

func (s *TypeStack) Depth() int { return len(s.items) }

// Swap mirrors backend.TmpSwap.
func (s *TypeStack) Swap() {
	n := len(s.items)
	s.items[n-1], s.items[n-2] = s.items[n-2], s.items[n-1]
}

// Copy mirrors backend.TmpCopy.
func (s *TypeStack) Copy() { s.Push(s.Top()) }

// Drop mirrors backend.TmpDrop.
func (s *TypeStack) Drop() { s.Pop() }

// deref turns an addr-carrying Type (the lvalue sitting on top of the
// stack as an address) into a plain value Type, emitting the load the
// addr-flag promised. Calling it on a non-addr Type is a no-op, matching
// ts_de's idempotence in the original design so callers can apply it
// defensively. Arrays are never loaded: an array's value IS its address
// (spec.md §4.4's subscript rule), so an addr-carrying array field stays
// as it is and decays wherever the context calls for a pointer.
func (p *Parser) deref() {
	t := p.ts.Top()
	if t.IsArray() || !t.Addr {
		return
	}
	bt := p.scalarBT(t)
	p.be.Load(bt)
	t.Addr = false
	p.ts.Set(t)
}

// scalarBT returns the base type to use when loading/storing a value of t:
// pointers and arrays-decayed-to-pointers load as a full word, aggregates
// are never loaded through Deref/Load (callers use Memcpy for those), and
// everything else uses its own width.
func (p *Parser) scalarBT(t Type) backend.BaseType {
	if t.IsPtr() {
		return backend.Word
	}
	return t.Base
}
