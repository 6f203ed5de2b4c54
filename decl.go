package cc

import (
	"github.com/mpvl/ncc/internal/tok"
)

// storageClass is the subset of C storage-class specifiers this front end
// distinguishes; const/volatile/register/inline/restrict never reach the
// parser at all because the preprocessor erases them textually (see
// internal/cpp's erasedQualifiers), so they need no representation here.
type storageClass int

const (
	scNone storageClass = iota
	scTypedef
	scStatic
	scExtern
)

// isTypeStart reports whether the current token can begin a declaration
// specifier: a storage-class keyword, a builtin type keyword,
// struct/union/enum, or a typedef name.
func (p *Parser) isTypeStart() bool {
	switch p.see() {
	case tok.KwStatic, tok.KwExtern, tok.KwTypedef, tok.KwAuto,
		tok.KwVoid, tok.KwChar, tok.KwShort, tok.KwInt, tok.KwLong,
		tok.KwSigned, tok.KwUnsigned, tok.KwStruct, tok.KwUnion, tok.KwEnum:
		return true
	case tok.IDENT:
		_, ok := p.sym.FindTypedef(p.cur().Text)
		return ok
	}
	return false
}

// declSpec parses a declaration-specifier sequence: an optional storage
// class, and exactly one base type (struct/union/enum/typedef-name, or a
// combination of void/char/short/int/long/signed/unsigned keywords).
func (p *Parser) declSpec() (Type, storageClass, error) {
	sc := scNone
	var (
		sawVoid, sawChar, sawShort, sawLong, sawInt bool
		unsigned                                    bool
		sawSign                                     bool
		base                                        Type
		sawAggregate                                bool
	)
loop:
	for {
		switch p.see() {
		case tok.KwTypedef:
			p.get()
			sc = scTypedef
		case tok.KwStatic:
			p.get()
			sc = scStatic
		case tok.KwExtern:
			p.get()
			sc = scExtern
		case tok.KwAuto:
			p.get()
		case tok.KwVoid:
			p.get()
			sawVoid = true
		case tok.KwChar:
			p.get()
			sawChar = true
		case tok.KwShort:
			p.get()
			sawShort = true
		case tok.KwInt:
			p.get()
			sawInt = true
		case tok.KwLong:
			p.get()
			sawLong = true
		case tok.KwSigned:
			p.get()
			sawSign = true
		case tok.KwUnsigned:
			p.get()
			unsigned, sawSign = true, true
		case tok.KwStruct, tok.KwUnion:
			t, err := p.readAggregate()
			if err != nil {
				return Type{}, sc, err
			}
			base = t
			sawAggregate = true
		case tok.KwEnum:
			t, err := p.readEnum()
			if err != nil {
				return Type{}, sc, err
			}
			base = t
			sawAggregate = true
		case tok.IDENT:
			if sawAggregate || sawVoid || sawChar || sawShort || sawInt || sawLong || sawSign {
				break loop
			}
			if n, ok := p.sym.FindTypedef(p.cur().Text); ok {
				p.get()
				base = n.Type
				sawAggregate = true
				continue
			}
			break loop
		default:
			break loop
		}
	}
	if sawAggregate {
		return base, sc, nil
	}
	if sawVoid {
		return VoidType, sc, nil
	}
	if sawChar {
		if unsigned {
			return UCharType, sc, nil
		}
		return CharType, sc, nil
	}
	if sawShort {
		if unsigned {
			return UShortType, sc, nil
		}
		return ShortType, sc, nil
	}
	if sawLong {
		if unsigned {
			return ULongType, sc, nil
		}
		return LongType, sc, nil
	}
	if sawInt || sawSign {
		if unsigned {
			return UIntType, sc, nil
		}
		return IntType, sc, nil
	}
	// No type keyword at all: implicit int, the classic K&R default.
	return IntType, sc, nil
}

// readAggregate parses a struct/union specifier, either a reference to an
// existing (possibly forward-declared) tag or a full body that fixes the
// tag's field layout.
func (p *Parser) readAggregate() (Type, error) {
	union := p.see() == tok.KwUnion
	p.get() // struct/union
	tag := ""
	if p.see() == tok.IDENT {
		tag = p.get().Text
	} else {
		tag = p.anonName("tag")
	}
	id := p.sym.InternStruct(tag, union)
	if p.jmp(tok.LBrace) {
		var fields []Field
		for !p.jmp(tok.RBrace) {
			base, _, err := p.declSpec()
			if err != nil {
				return Type{}, err
			}
			for {
				d, err := p.readName(base)
				if err != nil {
					return Type{}, err
				}
				fields = append(fields, Field{Name: d.Name, Type: d.Type})
				if !p.jmp(tok.Comma) {
					break
				}
			}
			if _, err := p.expect(tok.Semi); err != nil {
				return Type{}, err
			}
		}
		p.sym.Structs[id].Fields = fields
		FieldLayout(&p.sym.Structs[id], p.sym.Arrays, p.sym.Structs)
	}
	return Type{Flags: FlagStruct, ID: id}, nil
}

// readEnum parses an enum specifier, assigning sequential values to
// enumerators unless a "= constant" initializer overrides the counter.
func (p *Parser) readEnum() (Type, error) {
	p.get() // enum
	if p.see() == tok.IDENT {
		p.get() // tag name; enums don't need a side table entry beyond the constants
	}
	if p.jmp(tok.LBrace) {
		var next int64
		for !p.jmp(tok.RBrace) {
			name, err := p.expectIdent()
			if err != nil {
				return Type{}, err
			}
			if p.jmp(tok.Assign) {
				v, err := p.constExpr()
				if err != nil {
					return Type{}, err
				}
				next = v
			}
			p.sym.Enums = append(p.sym.Enums, EnumConst{Ident: name, Value: next})
			next++
			if !p.jmp(tok.Comma) {
				break
			}
		}
		if _, err := p.expect(tok.RBrace); err != nil {
			return Type{}, err
		}
	}
	return IntType, nil
}

// readPtrs consumes leading '*' tokens, returning base with pointer depth
// incremented accordingly.
func (p *Parser) readPtrs(base Type) Type {
	for p.jmp(tok.Star) {
		base.Ptr++
	}
	return base
}

// readArraysInner consumes zero or more "[size]" or "[]" suffixes,
// composing an array-of-array Type with the last-written dimension binding
// tightest (innermost), matching C's declarator semantics for
// "int a[3][4]", and also reports the innermost created array
// descriptor's index (or -1 if no brackets were read), so a parenthesized
// declarator can redirect into that descriptor's element field once the
// type "outside" the parens becomes known — the same redirection
// _examples/original_source/ncc.c:1848-1850's "inner" pointer performs for
// declarators like "int (*fp[10])(int)".
func (p *Parser) readArraysInner(base Type) (t Type, innerID int, hasArr bool, err error) {
	var dims []int
	for p.jmp(tok.LBrack) {
		if p.jmp(tok.RBrack) {
			dims = append(dims, 0)
			continue
		}
		n, cerr := p.constExpr()
		if cerr != nil {
			return Type{}, -1, false, cerr
		}
		if _, cerr := p.expect(tok.RBrack); cerr != nil {
			return Type{}, -1, false, cerr
		}
		dims = append(dims, int(n))
	}
	if len(dims) == 0 {
		return base, -1, false, nil
	}
	t = base
	innerID = -1
	for i := len(dims) - 1; i >= 0; i-- {
		id := p.sym.InternArray(ArrayDesc{Elem: t, Len: dims[i]})
		if innerID == -1 {
			innerID = id
		}
		t = Type{Flags: FlagArray, ID: id}
	}
	return t, innerID, true, nil
}

// declSlot is a settable reference to the type-under-construction readName
// threads through a parenthesized sub-declarator (ncc.c's "ptype"):
// either a local variable (a plain "(*p)" grouping) or the element field
// of an array descriptor already interned into the symbol table (a
// "(*p[n])" grouping, redirected the way ncc.c's "inner" pointer
// redirects ptype). It resolves by array index rather than holding a raw
// *Type across further array interning (e.g. array-typed function
// parameters parsed afterward), which could grow p.sym.Arrays and
// invalidate a captured pointer into its backing storage.
type declSlot struct {
	local *Type
	arrID int // >= 0 when this redirects into p.sym.Arrays[arrID].Elem
}

func (r *declSlot) get(p *Parser) Type {
	if r.arrID >= 0 {
		return p.sym.Arrays[r.arrID].Elem
	}
	return *r.local
}

func (r *declSlot) set(p *Parser, t Type) {
	if r.arrID >= 0 {
		p.sym.Arrays[r.arrID].Elem = t
		return
	}
	*r.local = t
}

// Declarator is one parsed name: its final Type, and — for a function
// declarator — the signature readArgs built.
type Declarator struct {
	Name   string
	Type   Type
	IsFunc bool
	Sig    FuncSig
	KRArgs []string // non-nil when this is an old-style K&R parameter list
}

// readName parses a single declarator: pointers, an optional parenthesized
// sub-declarator grouping, an identifier, and then either one argument list
// (a function) or array suffixes (spec.md §4.3; original_source/ncc.c:1821-
// 1875's readname(), which maintains a small pool of three type slots and
// tracks btype — the type "outside" an open paren — and ptype — the type
// "inside" it). The grouping lets a '*' bind to the name before an array or
// function suffix applies to the group as a whole rather than just its
// innermost piece: "int (*fp)(int)" declares fp as a pointer to a function,
// "int (*fp[10])(int)" as an array of such pointers, as opposed to
// "int *fp(int)", a function returning int*. On a closing paren, an inner
// array or function specifier replaces ptype; btype becomes the
// element/return type once the whole declarator is known.
func (p *Parser) readName(base Type) (Declarator, error) {
	t := p.readPtrs(base)

	var btype *Type
	var ptype *declSlot
	if p.jmp(tok.LParen) {
		outer := t
		btype = &outer
		inner := p.readPtrs(Type{})
		ptype = &declSlot{local: &inner, arrID: -1}
		t = inner
	}

	name := ""
	if p.see() == tok.IDENT {
		name = p.get().Text
	}

	arrT, innerID, hasArr, err := p.readArraysInner(t)
	if err != nil {
		return Declarator{}, err
	}
	if ptype != nil && hasArr {
		ptype = &declSlot{arrID: innerID}
	}
	t = arrT
	if ptype != nil {
		if _, err := p.expect(tok.RParen); err != nil {
			return Declarator{}, err
		}
	}

	if p.jmp(tok.LParen) {
		sig, krArgs, err := p.readArgs()
		if err != nil {
			return Declarator{}, err
		}
		if ptype == nil {
			// No grouping: this is a plain top-level function declarator,
			// "name(args)" — the caller (driver.go, funcdrv.go) drives
			// prototype/definition registration from Sig/IsFunc directly.
			sig.Name = name
			sig.Ret = t
			return Declarator{Name: name, IsFunc: true, Sig: sig, KRArgs: krArgs}, nil
		}
		// Grouped: fp (or fp's array element) is a pointer to this function,
		// not the function itself. Graft the signature onto ptype in place,
		// keeping whatever pointer depth it already carries from the '*'s
		// read inside the parens.
		sig.Ret = *btype
		funcT := ptype.get(p)
		funcT.Flags = FlagFunc
		funcT.ID = p.sym.InternFuncSig(sig)
		ptype.set(p, funcT)
		if !hasArr {
			t = funcT
		}
		return Declarator{Name: name, Type: t}, nil
	}

	if ptype != nil && !hasArr {
		// A parenthesized pointer grouping followed by a trailing array
		// suffix outside the parens, e.g. "int (*p)[5]": p is a pointer to
		// an array of 5 ints, not an array of 5 pointers. btype supplies the
		// array's element type; the pointer depth captured inside the
		// parens applies to the array as a whole.
		elem := t
		if btype != nil {
			elem = *btype
		}
		arr2, _, hasArr2, err := p.readArraysInner(elem)
		if err != nil {
			return Declarator{}, err
		}
		if hasArr2 {
			arr2.Ptr += t.Ptr
			t = arr2
		}
	}

	return Declarator{Name: name, Type: t}, nil
}

// readArgs parses a parenthesized parameter list, already past "(". It
// supports four forms: "()" (unspecified args), "(void)" (explicitly
// none), ANSI "(type name, type name, ...)" with optional trailing
// "...", and old-style K&R "(a, b, c)" bare names whose types are declared
// by the caller between ")" and the function body.
func (p *Parser) readArgs() (FuncSig, []string, error) {
	var sig FuncSig
	if p.jmp(tok.RParen) {
		return sig, nil, nil
	}
	if p.see() == tok.KwVoid {
		// Distinguish "(void)" from a parameter named with a typedef called void
		// (never happens: void is a reserved keyword) — always the empty list.
		p.get()
		if _, err := p.expect(tok.RParen); err != nil {
			return sig, nil, err
		}
		return sig, nil, nil
	}
	if !p.isTypeStart() {
		// K&R bare-name parameter list.
		var names []string
		for {
			n, err := p.expectIdent()
			if err != nil {
				return sig, nil, err
			}
			names = append(names, n)
			if !p.jmp(tok.Comma) {
				break
			}
		}
		if _, err := p.expect(tok.RParen); err != nil {
			return sig, nil, err
		}
		return sig, names, nil
	}
	for {
		if p.jmp(tok.Ellipsis) {
			sig.Variadic = true
			break
		}
		base, _, err := p.declSpec()
		if err != nil {
			return sig, nil, err
		}
		d, err := p.readName(base)
		if err != nil {
			return sig, nil, err
		}
		argT := d.Type
		if argT.IsArray() {
			argT = ArrayToPtr(argT, p.sym.Arrays)
		}
		sig.ArgTypes = append(sig.ArgTypes, argT)
		sig.ArgNames = append(sig.ArgNames, d.Name)
		sig.Argc++
		if !p.jmp(tok.Comma) {
			break
		}
	}
	if _, err := p.expect(tok.RParen); err != nil {
		return sig, nil, err
	}
	return sig, nil, nil
}
