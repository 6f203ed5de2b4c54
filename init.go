package cc

import (
	"github.com/mpvl/ncc/internal/backend"
	"github.com/mpvl/ncc/internal/tok"
)

// encodeInt little-endian encodes a constant of the given byte width, the
// layout DSSet/DSCpy expect for a data-segment initializer (SPEC_FULL.md
// §4.6).
func encodeInt(v int64, size int) []byte {
	b := make([]byte, size)
	u := uint64(v)
	for i := 0; i < size; i++ {
		b[i] = byte(u)
		u >>= 8
	}
	return b
}

// scanInitCount rewinds after counting the top-level comma-separated
// elements of the upcoming "{ ... }" initializer list, the lookahead an
// incomplete array's bound ("int a[] = {1,2,3}") is inferred from. Nested
// brace groups are skipped as a single element. A top-level "[n] =" index
// designator rebinds the running element counter so "{[5]=1, 2}" reports
// 7, matching spec.md §4.6's "tracking `[n] = …` designators for maximum
// index."
func (p *Parser) scanInitCount() (int, error) {
	mark := p.toks.Addr()
	defer p.toks.Jump(mark)

	if _, err := p.expect(tok.LBrace); err != nil {
		return 0, err
	}
	if p.see() == tok.RBrace {
		return 0, nil
	}
	idx := 0
	maxIdx := -1
	depth := 0
	atElemStart := true
	for {
		if depth == 0 && atElemStart && p.see() == tok.LBrack {
			p.get()
			n, err := p.constExpr()
			if err != nil {
				return 0, err
			}
			if _, err := p.expect(tok.RBrack); err != nil {
				return 0, err
			}
			if _, err := p.expect(tok.Assign); err != nil {
				return 0, err
			}
			idx = int(n)
			atElemStart = false
			continue
		}
		atElemStart = false
		switch p.see() {
		case tok.EOF:
			return 0, p.errSyntax("unterminated initializer")
		case tok.LBrace:
			depth++
		case tok.RBrace:
			if depth == 0 {
				if idx > maxIdx {
					maxIdx = idx
				}
				return maxIdx + 1, nil
			}
			depth--
		case tok.Comma:
			if depth == 0 {
				if idx > maxIdx {
					maxIdx = idx
				}
				idx++
				atElemStart = true
			}
		}
		p.get()
		if depth == 0 && p.see() == tok.RBrace {
			if idx > maxIdx {
				maxIdx = idx
			}
			return maxIdx + 1, nil
		}
	}
}

// resolveIncompleteArray fixes an incomplete top-level array bound (len 0)
// from the brace-enclosed initializer that follows, without disturbing the
// token stream the real initializer parse still needs to consume.
func (p *Parser) resolveIncompleteArray(t Type) (Type, error) {
	if !t.IsArray() {
		return t, nil
	}
	d := p.sym.Arrays[t.ID]
	if d.Len != 0 {
		return t, nil
	}
	if p.see() == tok.STRING {
		d.Len = len(p.cur().Bytes) // literal bytes include the trailing NUL
		id := p.sym.InternArray(d)
		return Type{Flags: FlagArray, ID: id}, nil
	}
	if p.see() != tok.LBrace {
		return t, nil
	}
	n, err := p.scanInitCount()
	if err != nil {
		return t, err
	}
	d.Len = n
	id := p.sym.InternArray(d)
	return Type{Flags: FlagArray, ID: id}, nil
}

// --- global initializers: folded directly into the data segment ---

// parseGlobalInit parses a global variable's initializer and writes its
// constant bytes into the data segment symbol sym, which the caller has
// already DSNew'd at TypeSize(t)'s width.
func (p *Parser) parseGlobalInit(t Type, sym int) error {
	return p.globalInitAt(t, sym, 0)
}

func (p *Parser) globalInitAt(t Type, sym int, off int) error {
	switch {
	case t.IsArray():
		d := p.sym.Arrays[t.ID]
		elemSize := TypeSize(d.Elem, p.sym.Arrays, p.sym.Structs)
		if p.see() == tok.STRING && d.Elem.Base.Size == 1 && !d.Elem.IsPtr() {
			tk := p.get()
			p.be.DSCpy(sym, off, tk.Bytes)
			return nil
		}
		if _, err := p.expect(tok.LBrace); err != nil {
			return err
		}
		i := 0
		for p.see() != tok.RBrace {
			if p.jmp(tok.LBrack) {
				n, err := p.constExpr()
				if err != nil {
					return err
				}
				if _, err := p.expect(tok.RBrack); err != nil {
					return err
				}
				if _, err := p.expect(tok.Assign); err != nil {
					return err
				}
				i = int(n)
			}
			if err := p.globalInitAt(d.Elem, sym, off+i*elemSize); err != nil {
				return err
			}
			i++
			if !p.jmp(tok.Comma) {
				break
			}
		}
		_, err := p.expect(tok.RBrace)
		return err
	case t.Flags&FlagStruct != 0:
		sd := p.sym.Structs[t.ID]
		if _, err := p.expect(tok.LBrace); err != nil {
			return err
		}
		i := 0
		for p.see() != tok.RBrace {
			if p.jmp(tok.Dot) {
				name, err := p.expectIdent()
				if err != nil {
					return err
				}
				idx := sd.Field(name)
				if idx < 0 {
					return p.errNoField(name, sd.Tag)
				}
				if _, err := p.expect(tok.Assign); err != nil {
					return err
				}
				i = idx
			}
			if i >= len(sd.Fields) {
				return p.errSyntax("too many initializers for %q", sd.Tag)
			}
			f := sd.Fields[i]
			if err := p.globalInitAt(f.Type, sym, off+f.Off); err != nil {
				return err
			}
			i++
			if !p.jmp(tok.Comma) {
				break
			}
		}
		_, err := p.expect(tok.RBrace)
		return err
	default:
		// A scalar global initializer is either an integer constant or an
		// address constant (a string literal, &global, a decayed array, a
		// function name). Parse it with emission suppressed and ask the
		// backend's fold stack which one it turned out to be.
		size := TypeSize(t, p.sym.Arrays, p.sym.Structs)
		return p.withNogen(func() error {
			if err := p.parseAssignment(); err != nil {
				return err
			}
			p.deref()
			p.ts.Pop()
			if v, ok := p.be.Popnum(); ok {
				p.be.DSSet(sym, off, encodeInt(v, size))
				return nil
			}
			if name, addend, ok := p.be.Popsym(); ok {
				p.be.DSSetSym(sym, off, name, addend, size)
				return nil
			}
			return p.errConstRequired()
		})
	}
}

// --- local initializers: real store instructions, evaluated in order ---

// parseLocalInit parses a local variable's initializer and emits the
// assignments needed to build it at runtime; name must already be
// registered in p.sym.Locals by the caller.
func (p *Parser) parseLocalInit(name string, t Type) error {
	n, ok := p.sym.FindLocal(name)
	if !ok {
		return p.errUndeclared(name)
	}
	return p.localInitInto(t, n)
}

// localInitInto emits the address of the destination named by n (a local
// or promoted-static Name) plus a byte offset, then recurses per aggregate
// member or stores a scalar.
func (p *Parser) localInitInto(t Type, n Name) error {
	return p.localInitAt(t, n, 0)
}

func (p *Parser) localAddr(n Name, off int) {
	if n.IsLocal {
		p.be.Local(n.LocalID)
	} else {
		p.be.Sym(n.EmitName)
	}
	if off != 0 {
		p.be.Num(int64(off), backend.Word)
		p.be.Bop(backend.Add, backend.Word)
	}
}

// zeroFillLocal emits a memset of size zero bytes at n+off. Memset fully
// consumes the address it's given and leaves nothing on the backend stack
// (unlike Memcpy, which leaves dst for chaining), so no trailing TmpDrop.
func (p *Parser) zeroFillLocal(n Name, off, size int) {
	if size == 0 {
		return
	}
	p.localAddr(n, off)
	p.be.Memset(size)
}

func (p *Parser) localInitAt(t Type, n Name, off int) error {
	switch {
	case t.IsArray():
		d := p.sym.Arrays[t.ID]
		elemSize := TypeSize(d.Elem, p.sym.Arrays, p.sym.Structs)
		if p.see() == tok.STRING && d.Elem.Base.Size == 1 && !d.Elem.IsPtr() {
			tk := p.get()
			name := p.anonName("strinit")
			sym := p.be.DSNew(name, len(tk.Bytes))
			p.be.DSCpy(sym, 0, tk.Bytes)
			p.localAddr(n, off)
			p.be.Sym(name)
			p.be.Memcpy(len(tk.Bytes))
			p.be.TmpDrop()
			return nil
		}
		if _, err := p.expect(tok.LBrace); err != nil {
			return err
		}
		// Zero the whole array first (spec.md §4.6): a designator can leave
		// earlier or later elements unwritten, and those must read as 0.
		p.zeroFillLocal(n, off, d.Len*elemSize)
		i := 0
		for p.see() != tok.RBrace {
			if p.jmp(tok.LBrack) {
				idx, err := p.constExpr()
				if err != nil {
					return err
				}
				if _, err := p.expect(tok.RBrack); err != nil {
					return err
				}
				if _, err := p.expect(tok.Assign); err != nil {
					return err
				}
				i = int(idx)
			}
			if err := p.localInitAt(d.Elem, n, off+i*elemSize); err != nil {
				return err
			}
			i++
			if !p.jmp(tok.Comma) {
				break
			}
		}
		if _, err := p.expect(tok.RBrace); err != nil {
			return err
		}
		return nil
	case t.Flags&FlagStruct != 0:
		sd := p.sym.Structs[t.ID]
		if _, err := p.expect(tok.LBrace); err != nil {
			return err
		}
		p.zeroFillLocal(n, off, sd.Size)
		i := 0
		for p.see() != tok.RBrace {
			if p.jmp(tok.Dot) {
				name, err := p.expectIdent()
				if err != nil {
					return err
				}
				idx := sd.Field(name)
				if idx < 0 {
					return p.errNoField(name, sd.Tag)
				}
				if _, err := p.expect(tok.Assign); err != nil {
					return err
				}
				i = idx
			}
			if i >= len(sd.Fields) {
				return p.errSyntax("too many initializers for %q", sd.Tag)
			}
			f := sd.Fields[i]
			if err := p.localInitAt(f.Type, n, off+f.Off); err != nil {
				return err
			}
			i++
			if !p.jmp(tok.Comma) {
				break
			}
		}
		_, err := p.expect(tok.RBrace)
		return err
	default:
		bt := p.scalarBT(t)
		p.localAddr(n, off)
		if err := p.parseAssignment(); err != nil {
			return err
		}
		p.deref()
		p.ts.Pop()
		p.be.Assign(bt)
		p.be.TmpDrop()
		return nil
	}
}
