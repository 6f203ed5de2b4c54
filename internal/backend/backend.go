// Package backend declares the code generator contract spec.md §6 assigns
// to an external collaborator: a runtime value stack, local allocation,
// label resolution, two-pass support, constant folding, and object output.
// The parser (package cc) is written only against this interface, never
// against a concrete implementation, so swapping backends never changes
// parser behavior — exactly the property spec.md §6 requires ("The parser
// never inspects backend state directly; all coordination is via these
// calls plus the mirrored type stack").
package backend

import "io"

// Op identifies a source-level C operator the backend must implement,
// named instead of left as the raw opcode characters neatcc multiplexes
// through (spec.md §9's "Design Notes" calls this out as a pure style
// choice, not a behavior change).
type Op int

const (
	Add Op = iota
	Sub
	Mul
	Div
	Mod
	Shl
	Shr
	BitAnd
	BitOr
	BitXor
	Eq
	Neq
	Lt
	Leq
	Gt
	Geq

	Neg   // unary -
	Not   // unary !
	Compl // unary ~
)

// BaseType is the packed width+signedness of an integer scalar (spec.md's
// "bt"). Size is 1, 2, 4, or 8.
type BaseType struct {
	Size   int
	Signed bool
}

// Word is the pointer-sized, signed base type used for addresses and
// pointer-difference results.
var Word = BaseType{Size: 8, Signed: true}

// Backend is the code-emission contract. Every method corresponds to one
// opcode family from spec.md §6.
type Backend interface {
	// Literals and names
	Num(v int64, bt BaseType)
	Sym(name string)
	Local(id int)
	DSNew(name string, size int) int
	DSSet(sym int, off int, data []byte)
	// DSSetSym pokes the address of name (plus addend) into sym at off,
	// as a size-byte little-endian word resolved when the module is
	// linked. Global initializers like `char *s = "hi"` or `int *p = &g`
	// need it: the initializing value is an address constant, not an
	// integer one.
	DSSetSym(sym int, off int, name string, addend int64, size int)
	DSCpy(sym int, off int, data []byte)
	BSNew(name string, size int) int

	// Stack manipulation
	TmpCopy()
	TmpSwap()
	TmpDrop()

	// Operators
	Bop(op Op, bt BaseType)
	Uop(op Op, bt BaseType)
	Cast(bt BaseType)
	Assign(bt BaseType)
	Deref(bt BaseType)
	Load(bt BaseType)
	// Memcpy consumes [dst, src] (dst pushed first, src on top) and pushes
	// dst back; size bytes are copied src->dst. Used for whole-struct
	// assignment and for copying a string literal into a local char array.
	Memcpy(size int)
	Memset(size int)

	// Control flow. Label reserves a fresh label id without marking any
	// position; PlaceLabel marks id as pointing at the current position.
	// Splitting reservation from placement is what makes forward jumps
	// (if/else, the tail of a loop condition, switch dispatch) possible
	// from a single left-to-right pass: the id is known before its target
	// position is reached.
	Label() int
	PlaceLabel(id int)
	Jmp(label int)
	Jz(label int)
	Jnz(label int)
	// Fork/ForkPush/ForkJoin implement the phi pattern short-circuit
	// operators and the ternary need: two control paths each push one
	// value, and ForkJoin reconciles them into a single top-of-stack.
	// Fork opens the region, ForkPush pushes the literal result of one
	// path, and ForkJoin accounts for the fact that only one of the two
	// pushes executes at runtime.
	Fork()
	ForkPush(v int64)
	ForkJoin()

	// Calls/functions
	Call(argc int, retBT BaseType)
	Ret(hasValue bool)
	FuncBeg(name string, argc int, global bool, variadic bool)
	FuncEnd()
	Arg2Loc(i int) int
	Mklocal(size int) int
	Rmlocal(id int)

	// Folding. Popnum pops the top of the value stack when it is a folded
	// integer constant; Popsym pops it when it is a folded address
	// constant (a symbol plus a constant byte offset). Both leave the
	// stack untouched and report false otherwise.
	Popnum() (int64, bool)
	Popsym() (name string, addend int64, ok bool)

	// Nogen is the suppressed-emission scope used for sizeof operands and
	// dead ternary arms (spec.md §4.4, §4.8). Nestable: PopNogen must be
	// called once per PushNogen.
	PushNogen()
	PopNogen()

	// Passes
	Pass1()
	Pass2()

	// Finalize
	Write(w io.Writer) error
}
