package cc

import (
	"github.com/mpvl/ncc/internal/backend"
	"github.com/mpvl/ncc/internal/tok"
)

// parseExpression parses a full comma expression: a sequence of
// assignment-expressions, each evaluated for effect except the last, whose
// value (and type) is the expression's result.
func (p *Parser) parseExpression() error {
	if err := p.parseAssignment(); err != nil {
		return err
	}
	for p.jmp(tok.Comma) {
		p.deref()
		p.be.TmpDrop()
		p.ts.Drop()
		if err := p.parseAssignment(); err != nil {
			return err
		}
	}
	return nil
}

var compoundOps = map[tok.Kind]backend.Op{
	tok.AddAssign: backend.Add, tok.SubAssign: backend.Sub,
	tok.MulAssign: backend.Mul, tok.DivAssign: backend.Div, tok.ModAssign: backend.Mod,
	tok.ShlAssign: backend.Shl, tok.ShrAssign: backend.Shr,
	tok.AndAssign: backend.BitAnd, tok.OrAssign: backend.BitOr, tok.XorAssign: backend.BitXor,
}

// parseAssignment parses an assignment-expression: a conditional-expression,
// optionally followed by "=" or a compound-assignment operator and a
// right-associative recursive assignment-expression.
func (p *Parser) parseAssignment() error {
	if err := p.parseConditional(); err != nil {
		return err
	}
	lhsT := p.ts.Top()
	switch p.see() {
	case tok.Assign:
		p.get()
		if !lhsT.Addr || lhsT.IsArray() {
			return p.errNotLvalue()
		}
		if err := p.parseAssignment(); err != nil {
			return err
		}
		if lhsT.Flags&FlagStruct != 0 && lhsT.Ptr == 0 {
			// Whole-struct assignment: keep the RHS as an address and copy.
			rhsT := p.ts.Pop()
			p.ts.Pop() // lhs addr type
			size := TypeSize(lhsT, p.sym.Arrays, p.sym.Structs)
			p.be.Memcpy(size)
			lhsT.Addr = false
			_ = rhsT
			p.ts.Push(lhsT)
			return nil
		}
		p.deref()
		rhsT := p.ts.Pop()
		_ = rhsT
		p.ts.Pop() // lhs addr type
		bt := p.scalarBT(lhsT)
		p.be.Assign(bt)
		lhsT.Addr = false
		p.ts.Push(lhsT)
		return nil
	default:
		if op, ok := compoundOps[p.see()]; ok {
			p.get()
			if !lhsT.Addr || lhsT.IsArray() {
				return p.errNotLvalue()
			}
			return p.compoundAssign(op, lhsT)
		}
	}
	return nil
}

// compoundAssign implements "lhs op= rhs" for scalar/pointer lhs, using the
// TmpCopy/Load/Bop/Assign sequence: dup the address, load the current
// value, evaluate rhs, combine, and store — no scratch locals needed since
// the address never leaves the bottom of this 2-3 deep sub-stack.
func (p *Parser) compoundAssign(op backend.Op, lhsT Type) error {
	bt := p.scalarBT(lhsT)
	p.be.TmpCopy()
	p.ts.Copy()
	p.deref()
	p.ts.Pop() // the loaded copy's type, consumed by the coming Bop

	if err := p.parseAssignment(); err != nil {
		return err
	}
	p.deref()
	rhsT := p.ts.Pop()

	if lhsT.IsPtr() && (op == backend.Add || op == backend.Sub) {
		elemSize := DerefSize(lhsT, p.sym.Arrays, p.sym.Structs)
		if elemSize != 1 {
			p.be.Num(int64(elemSize), backend.Word)
			p.be.Bop(backend.Mul, backend.Word)
		}
		p.be.Bop(op, backend.Word)
	} else {
		combinedBT := binopType(bt, rhsT.Base)
		if op == backend.Div || op == backend.Mod {
			combinedBT.Signed = bt.Signed
		}
		p.be.Bop(op, combinedBT)
	}
	p.ts.Pop() // lhs addr type
	p.be.Assign(bt)
	lhsT.Addr = false
	p.ts.Push(lhsT)
	return nil
}

// parseConditional parses "logical-or-expr [ '?' expr ':' conditional-expr ]",
// suppressing code emission for whichever arm a constant condition rules
// out (spec.md §4.8).
func (p *Parser) parseConditional() error {
	if err := p.parseLogicalOr(); err != nil {
		return err
	}
	if !p.jmp(tok.Question) {
		return nil
	}
	p.deref()
	condVal, isConst := p.be.Popnum()
	p.ts.Pop()

	if isConst {
		return p.parseConstConditional(condVal)
	}

	p.be.Fork()
	elseLabel := p.be.Label()
	endLabel := p.be.Label()
	p.be.Jz(elseLabel)

	if err := p.parseAssignment(); err != nil {
		return err
	}
	p.deref()
	trueT := p.ts.Pop()
	p.be.Jmp(endLabel)

	if _, err := p.expect(tok.Colon); err != nil {
		return err
	}
	p.be.PlaceLabel(elseLabel)
	if err := p.parseConditional(); err != nil {
		return err
	}
	p.deref()
	falseT := p.ts.Pop()
	p.be.PlaceLabel(endLabel)
	p.be.ForkJoin()

	p.ts.Push(mergeCondTypes(trueT, falseT))
	return nil
}

func (p *Parser) parseConstConditional(condVal int64) error {
	trueDead := condVal == 0
	if trueDead {
		p.be.PushNogen()
	}
	if err := p.parseAssignment(); err != nil {
		return err
	}
	p.deref()
	trueT := p.ts.Pop()
	if trueDead {
		p.be.PopNogen()
	}
	if _, err := p.expect(tok.Colon); err != nil {
		return err
	}
	falseDead := condVal != 0
	if falseDead {
		p.be.PushNogen()
	}
	if err := p.parseConditional(); err != nil {
		return err
	}
	p.deref()
	falseT := p.ts.Pop()
	if falseDead {
		p.be.PopNogen()
	}
	if condVal != 0 {
		p.ts.Push(trueT)
	} else {
		p.ts.Push(falseT)
	}
	return nil
}

func mergeCondTypes(a, b Type) Type {
	if a.IsPtr() || a.Flags&(FlagStruct|FlagArray) != 0 {
		a.Addr = false
		return a
	}
	return Type{Base: binopType(a.Base, b.Base)}
}

func (p *Parser) parseLogicalOr() error {
	if err := p.parseLogicalAnd(); err != nil {
		return err
	}
	for p.see() == tok.OrOr {
		p.get()
		p.deref()
		p.be.Fork()
		trueLabel := p.be.Label()
		endLabel := p.be.Label()
		p.be.Jnz(trueLabel)
		p.ts.Pop()
		if err := p.parseLogicalAnd(); err != nil {
			return err
		}
		p.deref()
		p.ts.Pop()
		p.be.Num(0, backend.Word)
		p.be.Bop(backend.Neq, backend.Word)
		p.be.Jmp(endLabel)
		p.be.PlaceLabel(trueLabel)
		p.be.ForkPush(1)
		p.be.PlaceLabel(endLabel)
		p.be.ForkJoin()
		p.ts.Push(IntType)
	}
	return nil
}

func (p *Parser) parseLogicalAnd() error {
	if err := p.parseBitOr(); err != nil {
		return err
	}
	for p.see() == tok.AndAnd {
		p.get()
		p.deref()
		p.be.Fork()
		falseLabel := p.be.Label()
		endLabel := p.be.Label()
		p.be.Jz(falseLabel)
		p.ts.Pop()
		if err := p.parseBitOr(); err != nil {
			return err
		}
		p.deref()
		p.ts.Pop()
		p.be.Num(0, backend.Word)
		p.be.Bop(backend.Neq, backend.Word)
		p.be.Jmp(endLabel)
		p.be.PlaceLabel(falseLabel)
		p.be.ForkPush(0)
		p.be.PlaceLabel(endLabel)
		p.be.ForkJoin()
		p.ts.Push(IntType)
	}
	return nil
}

// applyBinop pops the two operand types, computes the result type (int for
// comparisons, the usual-conversions type otherwise), and emits the op.
func (p *Parser) applyBinop(op backend.Op, isCompare bool) {
	rhsT := p.ts.Pop()
	lhsT := p.ts.Pop()
	bt := binopType(lhsT.Base, rhsT.Base)
	if op == backend.Div || op == backend.Mod {
		bt.Signed = rhsT.Base.Signed
	}
	p.be.Bop(op, bt)
	if isCompare {
		p.ts.Push(IntType)
		return
	}
	p.ts.Push(Type{Base: bt})
}

func (p *Parser) binLevel(next func() error, ops map[tok.Kind]backend.Op, compare bool) error {
	if err := next(); err != nil {
		return err
	}
	for {
		op, ok := ops[p.see()]
		if !ok {
			return nil
		}
		p.get()
		p.deref()
		if err := next(); err != nil {
			return err
		}
		p.deref()
		p.applyBinop(op, compare)
	}
}

var bitOrOps = map[tok.Kind]backend.Op{tok.Pipe: backend.BitOr}
var bitXorOps = map[tok.Kind]backend.Op{tok.Caret: backend.BitXor}
var bitAndOps = map[tok.Kind]backend.Op{tok.Amp: backend.BitAnd}
var eqOps = map[tok.Kind]backend.Op{tok.Eq: backend.Eq, tok.Neq: backend.Neq}
var relOps = map[tok.Kind]backend.Op{tok.Lt: backend.Lt, tok.Gt: backend.Gt, tok.Leq: backend.Leq, tok.Geq: backend.Geq}
var shiftOps = map[tok.Kind]backend.Op{tok.Shl: backend.Shl, tok.Shr: backend.Shr}
var mulOps = map[tok.Kind]backend.Op{tok.Star: backend.Mul, tok.Slash: backend.Div, tok.Percent: backend.Mod}

func (p *Parser) parseBitOr() error  { return p.binLevel(p.parseBitXor, bitOrOps, false) }
func (p *Parser) parseBitXor() error { return p.binLevel(p.parseBitAnd, bitXorOps, false) }
func (p *Parser) parseBitAnd() error { return p.binLevel(p.parseEquality, bitAndOps, false) }
func (p *Parser) parseEquality() error {
	return p.binLevel(p.parseRelational, eqOps, true)
}
func (p *Parser) parseRelational() error { return p.binLevel(p.parseShift, relOps, true) }
func (p *Parser) parseShift() error      { return p.binLevel(p.parseAdditive, shiftOps, false) }
func (p *Parser) parseMultiplicative() error {
	return p.binLevel(p.parseCast, mulOps, false)
}

// parseAdditive handles pointer arithmetic scaling, which the generic
// binLevel/applyBinop machinery doesn't model (spec.md §4.1's binop_type
// override for '+'/'-' against a pointer operand).
func (p *Parser) parseAdditive() error {
	if err := p.parseMultiplicative(); err != nil {
		return err
	}
	for p.see() == tok.Plus || p.see() == tok.Minus {
		isAdd := p.see() == tok.Plus
		p.get()
		p.deref()
		if err := p.parseMultiplicative(); err != nil {
			return err
		}
		p.deref()
		rhsT := ArrayToPtr(p.ts.Pop(), p.sym.Arrays)
		lhsT := ArrayToPtr(p.ts.Pop(), p.sym.Arrays)

		switch {
		case lhsT.IsPtr() && rhsT.IsPtr() && !isAdd:
			p.be.Bop(backend.Sub, backend.Word)
			elemSize := DerefSize(lhsT, p.sym.Arrays, p.sym.Structs)
			if elemSize > 1 {
				p.be.Num(int64(elemSize), backend.Word)
				p.be.Bop(backend.Div, backend.Word)
			}
			p.ts.Push(LongType)
		case lhsT.IsPtr():
			elemSize := DerefSize(lhsT, p.sym.Arrays, p.sym.Structs)
			if elemSize != 1 {
				p.be.Num(int64(elemSize), backend.Word)
				p.be.Bop(backend.Mul, backend.Word)
			}
			op := backend.Add
			if !isAdd {
				op = backend.Sub
			}
			p.be.Bop(op, backend.Word)
			p.ts.Push(lhsT)
		case rhsT.IsPtr() && isAdd:
			p.be.TmpSwap()
			elemSize := DerefSize(rhsT, p.sym.Arrays, p.sym.Structs)
			if elemSize != 1 {
				p.be.Num(int64(elemSize), backend.Word)
				p.be.Bop(backend.Mul, backend.Word)
			}
			p.be.Bop(backend.Add, backend.Word)
			p.ts.Push(rhsT)
		default:
			bt := binopType(lhsT.Base, rhsT.Base)
			op := backend.Add
			if !isAdd {
				op = backend.Sub
			}
			p.be.Bop(op, bt)
			p.ts.Push(Type{Base: bt})
		}
	}
	return nil
}

// parseCast parses a cast-expression: "(" type-name ")" cast-expression, or
// a unary-expression.
func (p *Parser) parseCast() error {
	if p.see() == tok.LParen {
		mark := p.toks.Addr()
		p.get()
		if p.isTypeStart() {
			base, _, err := p.declSpec()
			if err != nil {
				return err
			}
			target := p.readPtrs(base)
			if _, err := p.expect(tok.RParen); err != nil {
				return err
			}
			if err := p.parseCast(); err != nil {
				return err
			}
			p.deref()
			p.ts.Pop()
			p.be.Cast(p.scalarBT(target))
			target.Addr = false
			p.ts.Push(target)
			return nil
		}
		p.toks.Jump(mark)
	}
	return p.parseUnary()
}

// parseUnary parses prefix ++/--, unary +/-/!/~, '*', '&', and sizeof; it
// otherwise falls through to a postfix-expression.
func (p *Parser) parseUnary() error {
	switch p.see() {
	case tok.Inc, tok.Dec:
		delta := int64(1)
		if p.see() == tok.Dec {
			delta = -1
		}
		p.get()
		if err := p.parseUnary(); err != nil {
			return err
		}
		if t := p.ts.Top(); !t.Addr || t.IsArray() {
			return p.errNotLvalue()
		}
		return p.preIncDec(delta)
	case tok.Plus:
		p.get()
		if err := p.parseCast(); err != nil {
			return err
		}
		p.deref()
		t := Promote(p.ts.Pop())
		p.ts.Push(t)
		return nil
	case tok.Minus:
		p.get()
		if err := p.parseCast(); err != nil {
			return err
		}
		p.deref()
		t := Promote(p.ts.Pop())
		p.be.Uop(backend.Neg, t.Base)
		p.ts.Push(t)
		return nil
	case tok.Not:
		p.get()
		if err := p.parseCast(); err != nil {
			return err
		}
		p.deref()
		t := p.ts.Pop()
		p.be.Uop(backend.Not, p.scalarBT(t))
		p.ts.Push(IntType)
		return nil
	case tok.Tilde:
		p.get()
		if err := p.parseCast(); err != nil {
			return err
		}
		p.deref()
		t := Promote(p.ts.Pop())
		p.be.Uop(backend.Compl, t.Base)
		p.ts.Push(t)
		return nil
	case tok.Star:
		p.get()
		if err := p.parseCast(); err != nil {
			return err
		}
		p.deref()
		t := p.ts.Pop()
		if !t.IsPtr() {
			return p.errSyntax("indirection requires a pointer operand")
		}
		t.Ptr--
		t.Addr = true
		p.ts.Push(t)
		return nil
	case tok.Amp:
		p.get()
		if err := p.parseCast(); err != nil {
			return err
		}
		t := p.ts.Top()
		if !t.Addr {
			return p.errNotLvalue()
		}
		t.Addr = false
		t.Ptr++
		p.ts.Set(t)
		return nil
	case tok.KwSizeof:
		return p.parseSizeof()
	}
	return p.parsePostfix()
}

func (p *Parser) parseSizeof() error {
	p.get() // sizeof
	var t Type
	if p.see() == tok.LParen {
		mark := p.toks.Addr()
		p.get()
		if p.isTypeStart() {
			base, _, err := p.declSpec()
			if err != nil {
				return err
			}
			target := p.readPtrs(base)
			if _, err := p.expect(tok.RParen); err != nil {
				return err
			}
			t = target
		} else {
			p.toks.Jump(mark)
			if err := p.withNogen(p.parseUnary); err != nil {
				return err
			}
			t = p.ts.Pop()
		}
	} else {
		if err := p.withNogen(p.parseUnary); err != nil {
			return err
		}
		t = p.ts.Pop()
	}
	size := TypeSize(t, p.sym.Arrays, p.sym.Structs)
	p.be.Num(int64(size), ULongType.Base)
	p.ts.Push(ULongType)
	return nil
}

// preIncDec implements prefix ++/-- (spec.md §4.4): address stays at the
// bottom of a 2-deep sub-stack the whole time, so no scratch local is
// needed — only the post-fix form requires one, to keep the old value
// alive under the store.
func (p *Parser) preIncDec(delta int64) error {
	t := p.ts.Pop()
	bt := p.scalarBT(t)
	p.be.TmpCopy()
	p.deref2(bt)
	scaled := delta
	if t.IsPtr() {
		scaled = delta * int64(DerefSize(t, p.sym.Arrays, p.sym.Structs))
	}
	p.be.Num(scaled, bt)
	p.be.Bop(backend.Add, bt)
	p.be.Assign(bt)
	t.Addr = false
	p.ts.Push(t)
	return nil
}

// postIncDec implements postfix ++/-- (spec.md §4.4), returning the value
// before the update via a scratch local: the old value has to end up beneath
// the address and the new value, a 3-deep reorder that TmpSwap's
// adjacent-pair swap alone can't perform.
func (p *Parser) postIncDec(delta int64) error {
	t := p.ts.Pop()
	bt := p.scalarBT(t)
	p.be.TmpCopy()
	p.deref2(bt)
	oldLocal := p.be.Mklocal(bt.Size)
	p.be.TmpCopy()
	p.be.Local(oldLocal)
	p.be.TmpSwap()
	p.be.Assign(bt)
	p.be.TmpDrop()
	scaled := delta
	if t.IsPtr() {
		scaled = delta * int64(DerefSize(t, p.sym.Arrays, p.sym.Structs))
	}
	p.be.Num(scaled, bt)
	p.be.Bop(backend.Add, bt)
	p.be.Assign(bt)
	p.be.TmpDrop()
	p.be.Local(oldLocal)
	p.be.Load(bt)
	t.Addr = false
	p.ts.Push(t)
	return nil
}

// deref2 is Load without touching the type stack, used by the inc/dec
// helpers which manage ts bookkeeping themselves at the net-effect level.
func (p *Parser) deref2(bt backend.BaseType) { p.be.Load(bt) }

func (p *Parser) parsePostfix() error {
	if err := p.parsePrimary(); err != nil {
		return err
	}
	for {
		switch p.see() {
		case tok.LBrack:
			p.get()
			if err := p.parseSubscript(); err != nil {
				return err
			}
		case tok.Dot:
			p.get()
			if err := p.parseField(false); err != nil {
				return err
			}
		case tok.Arrow:
			p.get()
			if err := p.parseField(true); err != nil {
				return err
			}
		case tok.LParen:
			p.get()
			if err := p.parseCall(); err != nil {
				return err
			}
		case tok.Inc:
			p.get()
			if t := p.ts.Top(); !t.Addr || t.IsArray() {
				return p.errNotLvalue()
			}
			if err := p.postIncDec(1); err != nil {
				return err
			}
		case tok.Dec:
			p.get()
			if t := p.ts.Top(); !t.Addr || t.IsArray() {
				return p.errNotLvalue()
			}
			if err := p.postIncDec(-1); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (p *Parser) parseSubscript() error {
	p.deref()
	baseT := p.ts.Pop()
	if err := p.parseExpression(); err != nil {
		return err
	}
	p.deref()
	p.ts.Pop()
	if _, err := p.expect(tok.RBrack); err != nil {
		return err
	}
	var elemT Type
	switch {
	case baseT.IsArray():
		elemT = ArrayToPtr(baseT, p.sym.Arrays)
		elemT.Ptr--
	case baseT.IsPtr():
		elemT = baseT
		elemT.Ptr--
	default:
		return p.errSyntax("subscript of non-pointer, non-array value")
	}
	elemSize := TypeSize(elemT, p.sym.Arrays, p.sym.Structs)
	if elemSize != 1 {
		p.be.Num(int64(elemSize), backend.Word)
		p.be.Bop(backend.Mul, backend.Word)
	}
	p.be.Bop(backend.Add, backend.Word)
	elemT.Addr = true
	p.ts.Push(elemT)
	return nil
}

func (p *Parser) parseField(arrow bool) error {
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	if arrow {
		p.deref()
	}
	t := p.ts.Pop()
	wantPtr := 0
	if arrow {
		wantPtr = 1
	}
	if t.Flags&FlagStruct == 0 || t.Ptr != wantPtr {
		return p.errSyntax("member reference on a non-struct value")
	}
	sd := &p.sym.Structs[t.ID]
	idx := sd.Field(name)
	if idx < 0 {
		return p.errNoField(name, sd.Tag)
	}
	f := sd.Fields[idx]
	if f.Off != 0 {
		p.be.Num(int64(f.Off), backend.Word)
		p.be.Bop(backend.Add, backend.Word)
	}
	ft := f.Type
	ft.Addr = true
	p.ts.Push(ft)
	return nil
}

func (p *Parser) parseCall() error {
	calleeT := p.ts.Top()
	if calleeT.Addr {
		p.deref()
	}
	calleeT = p.ts.Pop()
	if calleeT.Flags&FlagFunc == 0 {
		return p.errSyntax("called object is not a function")
	}
	var sig FuncSig
	if calleeT.ID < len(p.sym.Funcs) {
		sig = p.sym.Funcs[calleeT.ID]
	}
	argc := 0
	if !p.jmp(tok.RParen) {
		for {
			if err := p.parseAssignment(); err != nil {
				return err
			}
			p.deref()
			p.ts.Pop()
			argc++
			if !p.jmp(tok.Comma) {
				break
			}
		}
		if _, err := p.expect(tok.RParen); err != nil {
			return err
		}
	}
	retBT := backend.Word
	if !sig.Ret.Void {
		retBT = p.scalarBT(sig.Ret)
	}
	p.be.Call(argc, retBT)
	retT := sig.Ret
	retT.Addr = false
	p.ts.Push(retT)
	return nil
}

func (p *Parser) parsePrimary() error {
	switch p.see() {
	case tok.NUMBER:
		t := p.get()
		bt := backend.BaseType{Size: t.Size, Signed: t.Signed}
		if bt.Size == 0 {
			bt = IntType.Base
		}
		p.be.Num(t.IVal, bt)
		p.ts.Push(Type{Base: bt})
		return nil
	case tok.CHAR:
		t := p.get()
		p.be.Num(t.IVal, CharType.Base)
		p.ts.Push(CharType)
		return nil
	case tok.STRING:
		return p.parseStringLit()
	case tok.IDENT:
		return p.parseIdent()
	case tok.LParen:
		p.get()
		if err := p.parseExpression(); err != nil {
			return err
		}
		_, err := p.expect(tok.RParen)
		return err
	}
	return p.errSyntax("unexpected token %s", p.cur().Kind)
}

func (p *Parser) parseStringLit() error {
	t := p.get()
	name := p.anonName("str")
	// t.Bytes already carries the terminating NUL (the tok_str contract).
	sym := p.be.DSNew(name, len(t.Bytes))
	p.be.DSCpy(sym, 0, t.Bytes)
	arrID := p.sym.InternArray(ArrayDesc{Elem: CharType, Len: len(t.Bytes)})
	p.be.Sym(name)
	p.ts.Push(Type{Flags: FlagArray, ID: arrID})
	return nil
}

func (p *Parser) parseIdent() error {
	name := p.get().Text
	if n, ok := p.sym.FindName(name); ok {
		if n.Type.IsFunc() {
			// A function identifier itself (not a function-pointer
			// variable, which n.Type.IsFunc() excludes via its Ptr == 0
			// check): referenced by symbol directly, callable with no
			// addr/deref step.
			p.be.Sym(n.EmitName)
			p.ts.Push(n.Type)
			return nil
		}
		if n.IsLocal {
			p.be.Local(n.LocalID)
		} else {
			p.be.Sym(n.EmitName)
		}
		t := n.Type
		if !t.IsArray() {
			t.Addr = true
		}
		p.ts.Push(t)
		return nil
	}
	if ec, ok := p.sym.FindEnum(name); ok {
		p.be.Num(ec.Value, IntType.Base)
		p.ts.Push(IntType)
		return nil
	}
	if p.see() == tok.LParen {
		// Undeclared identifier used in call position: recovered as an
		// implicit "extern int name()" per spec.md §3/§7, the classic K&R
		// "calling an undeclared function" convention.
		t := p.implicitDeclareFunc(name)
		p.be.Sym(name)
		p.ts.Push(t)
		return nil
	}
	return p.errUndeclared(name)
}

// implicitDeclareFunc registers name as an extern function of unknown
// signature (variadic, returns int) the first time it is called without a
// prior prototype or definition, and returns the function-flagged Type
// pointing at its table entry.
func (p *Parser) implicitDeclareFunc(name string) Type {
	idx := p.registerFunc(FuncSig{Name: name, Ret: IntType, Variadic: true, Implicit: true})
	return Type{Flags: FlagFunc, ID: idx}
}
