package cc

// withNogen runs f with the backend's suppressed-emission scope held open,
// used for sizeof operands, the for-loop post-expression pre-scan, global
// initializers and constExpr (spec.md §4.4, §4.8); a dead ternary arm gets
// the same scope from parseConstConditional directly. The parser must still
// walk those
// tokens for their side effects on the symbol table and type stack, but
// none of it may reach the instruction stream.
func (p *Parser) withNogen(f func() error) error {
	p.be.PushNogen()
	err := f()
	p.be.PopNogen()
	return err
}

// constExpr parses one conditional-expression and requires it to fold to a
// compile-time constant, as array bounds, enum values, and case labels
// all do. It never emits code even if the backend isn't already in a
// nogen scope.
func (p *Parser) constExpr() (int64, error) {
	var val int64
	err := p.withNogen(func() error {
		if err := p.parseConditional(); err != nil {
			return err
		}
		p.derefTop()
		v, ok := p.be.Popnum()
		p.ts.Pop()
		if !ok {
			return p.errConstRequired()
		}
		val = v
		return nil
	})
	return val, err
}

// derefTop is deref's free function form, usable before the type-stack
// Set/Top dance is otherwise convenient.
func (p *Parser) derefTop() { p.deref() }
