package cc

import (
	"github.com/mpvl/ncc/internal/backend"
	"github.com/mpvl/ncc/internal/tok"
)

type caseEntry struct {
	val   int64
	label int
}

type switchCtx struct {
	cases        []caseEntry
	idx          int
	defaultLabel int // -1 if none
}

// parseStatement parses one statement, the unit spec.md §4.5 describes:
// compound blocks, the usual control-flow forms, jumps, and a bare
// expression or declaration followed by ';'.
func (p *Parser) parseStatement() error {
	switch p.see() {
	case tok.LBrace:
		return p.parseCompound()
	case tok.KwIf:
		return p.parseIf()
	case tok.KwWhile:
		return p.parseWhile()
	case tok.KwDo:
		return p.parseDoWhile()
	case tok.KwFor:
		return p.parseFor()
	case tok.KwSwitch:
		return p.parseSwitch()
	case tok.KwReturn:
		return p.parseReturn()
	case tok.KwBreak:
		p.get()
		if _, err := p.expect(tok.Semi); err != nil {
			return err
		}
		if len(p.breakStack) == 0 {
			return p.errSyntax("break statement not within a loop or switch")
		}
		p.be.Jmp(p.breakStack[len(p.breakStack)-1])
		return nil
	case tok.KwContinue:
		p.get()
		if _, err := p.expect(tok.Semi); err != nil {
			return err
		}
		if len(p.continueStack) == 0 {
			return p.errSyntax("continue statement not within a loop")
		}
		p.be.Jmp(p.continueStack[len(p.continueStack)-1])
		return nil
	case tok.KwGoto:
		p.get()
		name, err := p.expectIdent()
		if err != nil {
			return err
		}
		if _, err := p.expect(tok.Semi); err != nil {
			return err
		}
		p.be.Jmp(p.getLabel(name))
		return nil
	case tok.KwCase:
		return p.parseCaseLabel()
	case tok.KwDefault:
		return p.parseDefaultLabel()
	case tok.Semi:
		p.get()
		return nil
	case tok.IDENT:
		if p.peekIsColon() {
			name := p.get().Text
			p.get() // ':'
			p.be.PlaceLabel(p.getLabel(name))
			return nil
		}
	}
	if p.isTypeStart() {
		return p.parseDeclStatement()
	}
	if err := p.parseExpression(); err != nil {
		return err
	}
	p.be.TmpDrop()
	p.ts.Drop()
	_, err := p.expect(tok.Semi)
	return err
}

// peekIsColon reports whether the token after the current identifier is
// ':', the lookahead a label statement needs. Cheap: the token stream is
// fully pre-tokenized, so peeking is a cursor save/restore, not a re-scan.
func (p *Parser) peekIsColon() bool {
	mark := p.toks.Addr()
	p.toks.Get()
	isColon := p.toks.See() == tok.Colon
	p.toks.Jump(mark)
	return isColon
}

func (p *Parser) getLabel(name string) int {
	if id, ok := p.gotoLabels[name]; ok {
		return id
	}
	id := p.be.Label()
	p.gotoLabels[name] = id
	return id
}

// parseCompound parses "{" block-item* "}", truncating the local scope on
// exit (spec.md §3.2's block-scope discipline).
func (p *Parser) parseCompound() error {
	if _, err := p.expect(tok.LBrace); err != nil {
		return err
	}
	return p.parseCompoundBody()
}

// parseCompoundBody parses block items up to and including the closing
// brace; the caller is expected to have already consumed the opening one
// (parseSwitch reuses this directly after its own dispatch-table setup).
func (p *Parser) parseCompoundBody() error {
	mark := p.sym.MarkScope()
	for !p.jmp(tok.RBrace) {
		if p.see() == tok.EOF {
			return p.errSyntax("unterminated block")
		}
		if err := p.parseStatement(); err != nil {
			return err
		}
	}
	p.sym.RestoreScope(mark)
	return nil
}

// parseDeclStatement parses a local variable declaration with optional
// initializers, one of the block-item forms.
func (p *Parser) parseDeclStatement() error {
	base, sc, err := p.declSpec()
	if err != nil {
		return err
	}
	if sc == scTypedef {
		return p.parseTypedefDecl(base)
	}
	for {
		d, err := p.readName(base)
		if err != nil {
			return err
		}
		if d.Name == "" && !d.IsFunc {
			break // bare tag declaration, e.g. "struct P { ... };"
		}
		if d.IsFunc {
			return p.errSyntax("nested function declarations are not supported")
		}
		if sc == scStatic {
			if err := p.declareStaticLocal(d.Name, d.Type); err != nil {
				return err
			}
		} else {
			hasInit := p.see() == tok.Assign
			t := d.Type
			if hasInit {
				p.get()
				if t.IsArray() && (p.see() == tok.LBrace || p.see() == tok.STRING) {
					t2, err := p.resolveIncompleteArray(t)
					if err != nil {
						return err
					}
					t = t2
				}
			}
			if err := p.declareLocal(d.Name, t, sc); err != nil {
				return err
			}
			if hasInit {
				if err := p.parseLocalInit(d.Name, t); err != nil {
					return err
				}
			}
		}
		if !p.jmp(tok.Comma) {
			break
		}
	}
	_, err = p.expect(tok.Semi)
	return err
}

func (p *Parser) parseTypedefDecl(base Type) error {
	for {
		d, err := p.readName(base)
		if err != nil {
			return err
		}
		p.sym.Typedefs = append(p.sym.Typedefs, Name{Ident: d.Name, Type: d.Type})
		if !p.jmp(tok.Comma) {
			break
		}
	}
	_, err := p.expect(tok.Semi)
	return err
}

// declareStaticLocal gives a "static" local its own uniquely-named global
// storage, so its value survives across calls. Its initializer (if any)
// must be a compile-time constant and is folded directly into the data
// segment at declaration time — never re-run as call-time code, unlike an
// ordinary local's initializer.
func (p *Parser) declareStaticLocal(name string, t Type) error {
	if p.see() == tok.LBrace || p.see() == tok.STRING {
		t2, err := p.resolveIncompleteArray(t)
		if err != nil {
			return err
		}
		t = t2
	}
	emit := p.anonName("static_" + name)
	size := TypeSize(t, p.sym.Arrays, p.sym.Structs)
	if p.jmp(tok.Assign) {
		sym := p.be.DSNew(emit, size)
		if err := p.parseGlobalInit(t, sym); err != nil {
			return err
		}
	} else {
		p.be.BSNew(emit, size)
	}
	p.sym.Locals = append(p.sym.Locals, Name{Ident: name, Type: t, EmitName: emit})
	return nil
}

// declareLocal allocates backend storage for an automatic local and records
// it in the symbol table.
func (p *Parser) declareLocal(name string, t Type, sc storageClass) error {
	size := TypeSize(t, p.sym.Arrays, p.sym.Structs)
	id := p.be.Mklocal(size)
	p.sym.Locals = append(p.sym.Locals, Name{Ident: name, Type: t, IsLocal: true, LocalID: id})
	return nil
}

func (p *Parser) parseIf() error {
	p.get()
	if _, err := p.expect(tok.LParen); err != nil {
		return err
	}
	if err := p.parseExpression(); err != nil {
		return err
	}
	p.deref()
	p.ts.Pop()
	if _, err := p.expect(tok.RParen); err != nil {
		return err
	}
	elseLabel := p.be.Label()
	p.be.Jz(elseLabel)
	if err := p.parseStatement(); err != nil {
		return err
	}
	if p.jmp(tok.KwElse) {
		endLabel := p.be.Label()
		p.be.Jmp(endLabel)
		p.be.PlaceLabel(elseLabel)
		if err := p.parseStatement(); err != nil {
			return err
		}
		p.be.PlaceLabel(endLabel)
		return nil
	}
	p.be.PlaceLabel(elseLabel)
	return nil
}

func (p *Parser) parseWhile() error {
	p.get()
	topLabel := p.be.Label()
	endLabel := p.be.Label()
	p.be.PlaceLabel(topLabel)
	if _, err := p.expect(tok.LParen); err != nil {
		return err
	}
	if err := p.parseExpression(); err != nil {
		return err
	}
	p.deref()
	p.ts.Pop()
	if _, err := p.expect(tok.RParen); err != nil {
		return err
	}
	p.be.Jz(endLabel)
	p.breakStack = append(p.breakStack, endLabel)
	p.continueStack = append(p.continueStack, topLabel)
	err := p.parseStatement()
	p.breakStack = p.breakStack[:len(p.breakStack)-1]
	p.continueStack = p.continueStack[:len(p.continueStack)-1]
	if err != nil {
		return err
	}
	p.be.Jmp(topLabel)
	p.be.PlaceLabel(endLabel)
	return nil
}

func (p *Parser) parseDoWhile() error {
	p.get()
	topLabel := p.be.Label()
	contLabel := p.be.Label()
	endLabel := p.be.Label()
	p.be.PlaceLabel(topLabel)
	p.breakStack = append(p.breakStack, endLabel)
	p.continueStack = append(p.continueStack, contLabel)
	err := p.parseStatement()
	p.breakStack = p.breakStack[:len(p.breakStack)-1]
	p.continueStack = p.continueStack[:len(p.continueStack)-1]
	if err != nil {
		return err
	}
	if _, err := p.expect(tok.KwWhile); err != nil {
		return err
	}
	if _, err := p.expect(tok.LParen); err != nil {
		return err
	}
	p.be.PlaceLabel(contLabel)
	if err := p.parseExpression(); err != nil {
		return err
	}
	p.deref()
	p.ts.Pop()
	if _, err := p.expect(tok.RParen); err != nil {
		return err
	}
	if _, err := p.expect(tok.Semi); err != nil {
		return err
	}
	p.be.Jnz(topLabel)
	p.be.PlaceLabel(endLabel)
	return nil
}

func (p *Parser) parseFor() error {
	p.get()
	if _, err := p.expect(tok.LParen); err != nil {
		return err
	}
	mark := p.sym.MarkScope()
	if !p.jmp(tok.Semi) {
		if p.isTypeStart() {
			if err := p.parseDeclStatement(); err != nil {
				return err
			}
		} else {
			if err := p.parseExpression(); err != nil {
				return err
			}
			p.be.TmpDrop()
			p.ts.Drop()
			if _, err := p.expect(tok.Semi); err != nil {
				return err
			}
		}
	}
	topLabel := p.be.Label()
	endLabel := p.be.Label()
	contLabel := p.be.Label()
	p.be.PlaceLabel(topLabel)
	if p.see() != tok.Semi {
		if err := p.parseExpression(); err != nil {
			return err
		}
		p.deref()
		p.ts.Pop()
		p.be.Jz(endLabel)
	}
	if _, err := p.expect(tok.Semi); err != nil {
		return err
	}
	postStart := p.toks.Addr()
	hasPost := p.see() != tok.RParen
	if hasPost {
		if err := p.withNogen(p.parseExpression); err != nil {
			return err
		}
		p.ts.Drop()
	}
	if _, err := p.expect(tok.RParen); err != nil {
		return err
	}
	p.breakStack = append(p.breakStack, endLabel)
	p.continueStack = append(p.continueStack, contLabel)
	err := p.parseStatement()
	p.breakStack = p.breakStack[:len(p.breakStack)-1]
	p.continueStack = p.continueStack[:len(p.continueStack)-1]
	if err != nil {
		return err
	}
	afterBody := p.toks.Addr()
	p.be.PlaceLabel(contLabel)
	if hasPost {
		p.toks.Jump(postStart)
		if err := p.parseExpression(); err != nil {
			return err
		}
		p.be.TmpDrop()
		p.ts.Drop()
		p.toks.Jump(afterBody)
	}
	p.be.Jmp(topLabel)
	p.be.PlaceLabel(endLabel)
	p.sym.RestoreScope(mark)
	return nil
}

func (p *Parser) parseReturn() error {
	p.get()
	if p.jmp(tok.Semi) {
		p.be.Ret(false)
		return nil
	}
	if err := p.parseExpression(); err != nil {
		return err
	}
	p.deref()
	retT := p.ts.Pop()
	if !p.curFuncRet.Void && retT.Base != p.curFuncRet.Base {
		p.be.Cast(p.scalarBT(p.curFuncRet))
	}
	p.be.Ret(true)
	if _, err := p.expect(tok.Semi); err != nil {
		return err
	}
	return nil
}

func (p *Parser) parseCaseLabel() error {
	p.get()
	if _, err := p.constExpr(); err != nil {
		return err
	}
	if _, err := p.expect(tok.Colon); err != nil {
		return err
	}
	if len(p.switches) == 0 {
		return p.errSyntax("case label not within a switch")
	}
	sc := &p.switches[len(p.switches)-1]
	if sc.idx >= len(sc.cases) {
		return p.errSyntax("case label scan mismatch")
	}
	p.be.PlaceLabel(sc.cases[sc.idx].label)
	sc.idx++
	return nil
}

func (p *Parser) parseDefaultLabel() error {
	p.get()
	if _, err := p.expect(tok.Colon); err != nil {
		return err
	}
	if len(p.switches) == 0 {
		return p.errSyntax("default label not within a switch")
	}
	sc := &p.switches[len(p.switches)-1]
	if sc.defaultLabel < 0 {
		return p.errSyntax("unexpected default label")
	}
	p.be.PlaceLabel(sc.defaultLabel)
	return nil
}

// parseSwitch implements switch/case/default/fallthrough (spec.md §4.5) by
// pre-scanning the body once (rewinding the token stream afterward) to
// allocate one label per case/default and record each case's constant
// value, then emitting a linear compare-and-dispatch chain up front, and
// finally parsing the body for real: each "case"/"default" encountered
// there just places its pre-allocated label, so fallthrough between cases
// is the ordinary absence of a jump — no special-casing needed.
func (p *Parser) parseSwitch() error {
	p.get()
	if _, err := p.expect(tok.LParen); err != nil {
		return err
	}
	if err := p.parseExpression(); err != nil {
		return err
	}
	p.deref()
	swT := p.ts.Pop()
	bt := p.scalarBT(swT)
	if _, err := p.expect(tok.RParen); err != nil {
		return err
	}
	if p.see() != tok.LBrace {
		return p.errSyntax("switch body must be a compound statement")
	}

	cases, defaultLabel, err := p.scanSwitchCases()
	if err != nil {
		return err
	}

	endLabel := p.be.Label()
	tmp := p.be.Mklocal(bt.Size)
	p.be.Local(tmp)
	p.be.TmpSwap()
	p.be.Assign(bt)
	p.be.TmpDrop()

	for _, c := range cases {
		p.be.Local(tmp)
		p.be.Load(bt)
		p.be.Num(c.val, bt)
		p.be.Bop(backend.Eq, bt)
		p.be.Jnz(c.label)
	}
	if defaultLabel >= 0 {
		p.be.Jmp(defaultLabel)
	} else {
		p.be.Jmp(endLabel)
	}

	p.switches = append(p.switches, switchCtx{cases: cases, defaultLabel: defaultLabel})
	p.breakStack = append(p.breakStack, endLabel)
	p.get() // '{'
	err = p.parseCompoundBody()
	p.breakStack = p.breakStack[:len(p.breakStack)-1]
	p.switches = p.switches[:len(p.switches)-1]
	if err != nil {
		return err
	}
	p.be.PlaceLabel(endLabel)
	return nil
}

// scanSwitchCases walks the upcoming "{...}" block once purely to discover
// case/default labels belonging to THIS switch (nested switches' own cases
// are skipped), reserving one backend label per entry, then rewinds the
// token stream back to where it started.
func (p *Parser) scanSwitchCases() ([]caseEntry, int, error) {
	mark := p.toks.Addr()
	defer p.toks.Jump(mark)

	defaultLabel := -1
	var cases []caseEntry
	var switchStack []bool // true at each open brace that belongs to a nested switch
	pendingSwitch := false

	p.get() // consume the body's own '{'
	depth := 1
	for depth > 0 {
		switch p.see() {
		case tok.EOF:
			return nil, -1, p.errSyntax("unterminated switch body")
		case tok.LBrace:
			switchStack = append(switchStack, pendingSwitch)
			pendingSwitch = false
			depth++
			p.get()
		case tok.RBrace:
			depth--
			p.get()
			if depth == 0 {
				return cases, defaultLabel, nil
			}
			switchStack = switchStack[:len(switchStack)-1]
		case tok.KwSwitch:
			p.get()
			if _, err := p.expect(tok.LParen); err != nil {
				return nil, -1, err
			}
			pd := 1
			for pd > 0 {
				switch p.see() {
				case tok.LParen:
					pd++
				case tok.RParen:
					pd--
				case tok.EOF:
					return nil, -1, p.errSyntax("unterminated switch condition")
				}
				p.get()
			}
			pendingSwitch = true
		case tok.KwCase:
			p.get()
			v, err := p.constExpr()
			if err != nil {
				return nil, -1, err
			}
			if _, err := p.expect(tok.Colon); err != nil {
				return nil, -1, err
			}
			if !nestedSwitch(switchStack) {
				cases = append(cases, caseEntry{val: v, label: p.be.Label()})
			}
		case tok.KwDefault:
			p.get()
			if _, err := p.expect(tok.Colon); err != nil {
				return nil, -1, err
			}
			if !nestedSwitch(switchStack) {
				defaultLabel = p.be.Label()
			}
		default:
			p.get()
		}
	}
	return cases, defaultLabel, nil
}

func nestedSwitch(stack []bool) bool {
	for _, v := range stack {
		if v {
			return true
		}
	}
	return false
}
