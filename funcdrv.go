package cc

import "github.com/mpvl/ncc/internal/tok"

// parseFuncBody drives a function definition through the backend's
// two-pass contract (SPEC_FULL.md §6): the whole body is parsed twice
// from the same token position. Pass 1 (backend.Pass1) walks the body
// purely to register locals, labels, and forward-referenced sizes without
// emitting any code; pass 2 (backend.Pass2) discards that first pass's
// bookkeeping (resetting the instruction stream, the label counter, and
// the fold stack — see vm.go's Pass2) and re-walks the IDENTICAL token
// sequence to emit real code. Re-parsing deterministically assigns the
// same locals in the same declaration order both times, so the backend
// handles are consistent within each pass even though pass 1's now-unused
// local slots are never reclaimed (Rmlocal is a documented no-op).
//
// Two passes over ONE function's own body is unrelated to forward
// reference across functions: driver.go's translation-unit loop is a
// single left-to-right sweep, not a pre-scan, so a global must already be
// declared before anything later in the file reads it. A call to a
// function not yet declared is accepted as an implicit declaration (see
// expr.go's implicitDeclareFunc).
func (p *Parser) parseFuncBody(sig FuncSig, argNames []string, global bool) error {
	p.be.FuncBeg(sig.Name, sig.Argc, global, sig.Variadic)
	p.curFuncRet = sig.Ret

	bodyStart := p.toks.Addr()

	p.be.Pass1()
	p.gotoLabels = map[string]int{}
	if err := p.walkFuncBody(sig, argNames); err != nil {
		return err
	}

	p.toks.Jump(bodyStart)
	p.be.Pass2()
	p.gotoLabels = map[string]int{}
	if err := p.walkFuncBody(sig, argNames); err != nil {
		return err
	}

	p.be.FuncEnd()
	return nil
}

// walkFuncBody registers the function's parameters in a fresh scope, then
// parses the "{ ... }" body, restoring the scope on exit. Called once per
// pass; the caller rewinds the token stream and resets backend/parser
// pass-local state between calls.
func (p *Parser) walkFuncBody(sig FuncSig, argNames []string) error {
	mark := p.sym.MarkScope()
	for i, t := range sig.ArgTypes {
		name := sig.ArgName(i, argNames)
		loc := p.be.Arg2Loc(i)
		p.sym.Locals = append(p.sym.Locals, Name{Ident: name, Type: t, IsLocal: true, LocalID: loc})
	}
	err := p.parseCompound()
	p.sym.RestoreScope(mark)
	return err
}

// ArgName resolves parameter i's identifier, preferring the ANSI
// declarator's own ArgNames but falling back to the caller-supplied list
// (the K&R path, where readArgs only has bare names at declaration time
// and the types are attached afterward by readKRParamTypes).
func (s FuncSig) ArgName(i int, fallback []string) string {
	if i < len(s.ArgNames) && s.ArgNames[i] != "" {
		return s.ArgNames[i]
	}
	if i < len(fallback) {
		return fallback[i]
	}
	return ""
}

// readKRParamTypes parses the old-style parameter-type declarations a K&R
// function header leaves between ")" and "{" (e.g. "f(a, b) int a; char b; {")
// and fills in sig.ArgTypes in krArgs' order; any name left undeclared
// defaults to int, the K&R rule.
func (p *Parser) readKRParamTypes(sig *FuncSig, krArgs []string) error {
	types := make(map[string]Type, len(krArgs))
	for p.isTypeStart() {
		base, _, err := p.declSpec()
		if err != nil {
			return err
		}
		for {
			d, err := p.readName(base)
			if err != nil {
				return err
			}
			t := d.Type
			if t.IsArray() {
				t = ArrayToPtr(t, p.sym.Arrays)
			}
			types[d.Name] = t
			if !p.jmp(tok.Comma) {
				break
			}
		}
		if _, err := p.expect(tok.Semi); err != nil {
			return err
		}
	}
	sig.ArgTypes = make([]Type, len(krArgs))
	sig.ArgNames = append([]string(nil), krArgs...)
	sig.Argc = len(krArgs)
	for i, name := range krArgs {
		if t, ok := types[name]; ok {
			sig.ArgTypes[i] = t
		} else {
			sig.ArgTypes[i] = IntType
		}
	}
	return nil
}
