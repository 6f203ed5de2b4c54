package cc

import (
	"github.com/mpvl/ncc/internal/backend"
	"github.com/mpvl/ncc/internal/tok"
)

// Compile parses one preprocessed translation unit, top to bottom, driving
// be for every declaration and function definition it finds (C9, the
// top-level driver in SPEC_FULL.md §10's layout). filename and src are the preprocessed source
// to tokenize; be must be a fresh backend.
func Compile(filename string, src []byte, be backend.Backend) error {
	_, err := CompileUnit(filename, src, be)
	return err
}

// CompileUnit is Compile, but also returns the symbol environment the
// translation unit built, so a caller that wants to inspect it afterward
// (cmd/ncc's -dump-symbols, via internal/symdump) doesn't have to re-parse.
func CompileUnit(filename string, src []byte, be backend.Backend) (*SymTab, error) {
	toks, err := tok.New(filename, src)
	if err != nil {
		return nil, err
	}
	p := NewParser(toks, be)
	if err := p.parseTranslationUnit(); err != nil {
		return p.sym, err
	}
	return p.sym, nil
}

// parseTranslationUnit is the C9 top-level loop: each iteration reads one
// declaration-specifier sequence followed by one or more declarators, and
// dispatches on what each declarator turns out to be (typedef, function
// prototype, function definition, or global variable).
func (p *Parser) parseTranslationUnit() error {
	for p.see() != tok.EOF {
		if p.jmp(tok.Semi) {
			continue // stray top-level ";"
		}
		base, sc, err := p.declSpec()
		if err != nil {
			return err
		}
		if sc == scTypedef {
			if err := p.parseTypedefDecl(base); err != nil {
				return err
			}
			continue
		}
		if err := p.parseTopDeclarators(base, sc); err != nil {
			return err
		}
	}
	return nil
}

// parseTopDeclarators parses the comma-separated declarator list following
// one declaration-specifier sequence, handling the function-definition case
// specially since it consumes the rest of the statement itself (no
// trailing ';' or additional comma-separated declarators follow a body).
func (p *Parser) parseTopDeclarators(base Type, sc storageClass) error {
	for {
		d, err := p.readName(base)
		if err != nil {
			return err
		}
		if d.Name == "" && !d.IsFunc {
			// A bare tag declaration, "struct P { ... };" or "enum { ... };":
			// its whole effect is the side table entry declSpec interned.
			break
		}
		if d.IsFunc {
			if d.KRArgs != nil {
				if err := p.readKRParamTypes(&d.Sig, d.KRArgs); err != nil {
					return err
				}
			}
			idx := p.registerFunc(d.Sig)
			if p.see() == tok.LBrace {
				if err := p.parseFuncBody(p.sym.Funcs[idx], d.Sig.ArgNames, sc != scStatic); err != nil {
					return err
				}
				return nil
			}
			_, err := p.expect(tok.Semi)
			return err
		}
		if err := p.declareGlobal(d.Name, d.Type, sc); err != nil {
			return err
		}
		if !p.jmp(tok.Comma) {
			break
		}
	}
	_, err := p.expect(tok.Semi)
	return err
}

// registerFunc finds-or-creates sig's entry in the function table (a
// prototype followed later by its definition must resolve to the same
// index both times — the convention expr.go's parseCall relies on: a
// function-flagged Type carries its p.sym.Funcs index in its ID field,
// just like struct and array Types do for their own side tables), and
// binds the name in Globals. "static" only affects linkage in a
// multi-file build, which this single-translation-unit compiler never
// performs, so a static function's emitted name is its bare C name like
// any other — no mangling needed, unlike a static local's shared
// storage-per-identifier concern.
func (p *Parser) registerFunc(sig FuncSig) int {
	for i, s := range p.sym.Funcs {
		if s.Name == sig.Name {
			switch {
			case s.Implicit && !sig.Implicit:
				// A real prototype/definition supersedes the implicit stub
				// a bare call fabricated earlier in the file.
				p.sym.Funcs[i] = sig
			case len(sig.ArgNames) > len(p.sym.Funcs[i].ArgNames):
				p.sym.Funcs[i].ArgNames = sig.ArgNames
			}
			return i
		}
	}
	idx := len(p.sym.Funcs)
	p.sym.Funcs = append(p.sym.Funcs, sig)
	p.sym.Globals = append(p.sym.Globals, Name{
		Ident: sig.Name, EmitName: sig.Name,
		Type: Type{Flags: FlagFunc, ID: idx},
	})
	return idx
}

// declareGlobal registers a file-scope variable and, unless it's a bare
// "extern" declaration, allocates its backend storage: constant bytes via
// DSNew/parseGlobalInit if initialized, zeroed BSS via BSNew otherwise.
func (p *Parser) declareGlobal(name string, t Type, sc storageClass) error {
	if sc == scExtern && p.see() != tok.Assign {
		p.sym.Globals = append(p.sym.Globals, Name{Ident: name, Type: t, EmitName: name})
		return nil
	}

	emit := name
	if sc == scStatic {
		emit = p.anonName("static_" + name)
	}

	if p.jmp(tok.Assign) {
		if t.IsArray() && (p.see() == tok.LBrace || p.see() == tok.STRING) {
			t2, err := p.resolveIncompleteArray(t)
			if err != nil {
				return err
			}
			t = t2
		}
		size := TypeSize(t, p.sym.Arrays, p.sym.Structs)
		sym := p.be.DSNew(emit, size)
		if err := p.parseGlobalInit(t, sym); err != nil {
			return err
		}
	} else {
		size := TypeSize(t, p.sym.Arrays, p.sym.Structs)
		p.be.BSNew(emit, size)
	}
	p.sym.Globals = append(p.sym.Globals, Name{Ident: name, Type: t, EmitName: emit})
	return nil
}
