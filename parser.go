// Package cc is the C front end itself: a recursive-descent parser with a
// precedence-climbing expression grammar, a six-table symbol environment, a
// parser-side type stack that shadows the backend's runtime value stack,
// and a two-pass-per-function driver, all parameterized over a
// backend.Backend code generator so the parser never depends on a concrete
// machine target (SPEC_FULL.md §6).
package cc

import (
	"fmt"

	"github.com/mpvl/ncc/internal/backend"
	"github.com/mpvl/ncc/internal/tok"
)

// Parser holds all state threaded through a single translation unit's
// compilation: the rewindable token stream, the backend, the symbol
// environment, the type stack, and bookkeeping for the statement currently
// being parsed (break/continue targets, switch case labels, the enclosing
// function's return type).
type Parser struct {
	toks *tok.Stream
	be   backend.Backend
	sym  *SymTab
	ts   *TypeStack

	curFuncRet Type

	// breakStack/continueStack hold the enclosing loops' and switches'
	// jump targets; break resolves against the innermost of either, so
	// both loops and switch push onto breakStack, while only loops push
	// onto continueStack. switches tracks the current switch's case
	// labels (see stmt.go's scanSwitchCases) so "case"/"default" inside
	// the body can find the id scanSwitchCases already reserved for them.
	breakStack    []int
	continueStack []int
	switches      []switchCtx

	gotoLabels map[string]int // label name -> backend.Label() id, lazily created
	strCount   int
}

// NewParser builds a parser over an already-tokenized source file and a
// backend ready to receive a translation unit's worth of code.
func NewParser(toks *tok.Stream, be backend.Backend) *Parser {
	return &Parser{
		toks:       toks,
		be:         be,
		sym:        NewSymTab(),
		ts:         &TypeStack{},
		gotoLabels: map[string]int{},
	}
}

func (p *Parser) loc() string { return p.toks.Loc(p.toks.Cur().Pos.Off) }

func (p *Parser) see() tok.Kind  { return p.toks.See() }
func (p *Parser) cur() tok.Token { return p.toks.Cur() }
func (p *Parser) get() tok.Token { return p.toks.Get() }

// jmp consumes and returns true if the current token matches k.
func (p *Parser) jmp(k tok.Kind) bool { return p.toks.Jmp(k) == 0 }

// expect consumes a token of kind k or reports a syntax error.
func (p *Parser) expect(k tok.Kind) (tok.Token, error) {
	t, err := p.toks.Expect(k)
	if err != nil {
		return t, p.errSyntax("expected %s, found %s", k, p.cur().Kind)
	}
	return t, nil
}

// expectIdent consumes an identifier token.
func (p *Parser) expectIdent() (string, error) {
	if p.see() != tok.IDENT {
		return "", p.errSyntax("expected identifier, found %s", p.cur().Kind)
	}
	return p.get().Text, nil
}

// anonName synthesizes an internal name for string literals and anonymous
// struct/union tags, in the style of a compiler-generated emitted symbol.
func (p *Parser) anonName(prefix string) string {
	p.strCount++
	return fmt.Sprintf(".%s%d", prefix, p.strCount)
}
