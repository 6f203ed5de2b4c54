package cc

import "fmt"

// CompileError is the error type the parser returns: a location-tagged
// message, formatted "path:line: message" with no further recovery or
// multi-error accumulation (SPEC_FULL.md §7 — one error per compile, abort
// immediately). Tokenizer errors from tok.New are passed through as plain
// errors that already carry the same "path:line: " prefix.
type CompileError struct {
	Loc string // "path:line", already resolved via tok.Stream.Loc
	Msg string
}

func (e *CompileError) Error() string { return fmt.Sprintf("%s: %s", e.Loc, e.Msg) }

func newError(loc, format string, args ...interface{}) *CompileError {
	return &CompileError{Loc: loc, Msg: fmt.Sprintf(format, args...)}
}

// errSyntax reports an unexpected token.
func (p *Parser) errSyntax(format string, args ...interface{}) *CompileError {
	return newError(p.loc(), format, args...)
}

// errCapacity reports a growable table that refused to grow further. None
// of this front end's six symbol tables are actually bounded (they're Go
// slices), so this exists for parity with the table overflow the original
// fixed-capacity arrays could raise, surfaced here only if a future bound is
// added. Nothing calls it.
func (p *Parser) errCapacity(table string) *CompileError {
	return newError(p.loc(), "%s table exhausted", table)
}

func (p *Parser) errUndeclared(name string) *CompileError {
	return newError(p.loc(), "undeclared identifier %q", name)
}

func (p *Parser) errNotLvalue() *CompileError {
	return newError(p.loc(), "expression is not assignable")
}

func (p *Parser) errNoField(field, tag string) *CompileError {
	return newError(p.loc(), "struct %q has no field %q", tag, field)
}

func (p *Parser) errConstRequired() *CompileError {
	return newError(p.loc(), "constant expression required")
}

func (p *Parser) errRedeclared(name string) *CompileError {
	return newError(p.loc(), "%q redeclared", name)
}
