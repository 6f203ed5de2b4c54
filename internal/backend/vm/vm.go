// Package vm is the reference Backend implementation: a tagged-stack
// virtual machine grounded in the frame-stack design of the teacher
// toolkit's own bytecode VM (vm.go/vm_stack.go), repurposed from matching
// PEG grammars to interpreting compiled C. It tracks a real runtime value
// stack conceptually, but records it as a flat instruction list per
// function (Code) plus a parallel compile-time "fold stack" that lets
// Popnum answer constant-folding queries without ever running anything.
package vm

import (
	"fmt"

	"github.com/mpvl/ncc/internal/backend"
)

// DataSym is one entry of the data or bss section.
type DataSym struct {
	Name  string
	Size  int
	BSS   bool
	Pokes []poke // only meaningful when !BSS
}

// poke is one deferred write into a data symbol: either raw bytes, or
// (when Sym is non-empty) the address of another symbol plus Addend,
// stored as a Size-byte little-endian word once Link has assigned
// addresses.
type poke struct {
	Off  int
	Data []byte

	Sym    string
	Addend int64
	Size   int
}

// Func is one compiled function: its preallocated argument locals, its
// general local slots, and the instruction stream pass 2 produced.
type Func struct {
	Name     string
	Global   bool
	Variadic bool
	Argc     int

	ArgLocal []int
	Locals   []localSlot
	Code     []Instr

	nextLabel int

	FrameSize int64
	LocalOff  []int64 // parallel to Locals, computed at FuncEnd
}

type localSlot struct {
	Size int
}

// Module is the fully-constructed program: every function plus the data
// and bss sections, in declaration order.
type Module struct {
	Funcs     []*Func
	funcIndex map[string]int
	Data      []*DataSym
	dataIndex map[string]int
}

func newModule() *Module {
	return &Module{funcIndex: map[string]int{}, dataIndex: map[string]int{}}
}

// Func looks up a function by name.
func (m *Module) Func(name string) *Func {
	if i, ok := m.funcIndex[name]; ok {
		return m.Funcs[i]
	}
	return nil
}

// foldVal is the compile-time shadow value used purely to answer Popnum/
// Popsym, TmpCopy/TmpSwap/TmpDrop, and fork/join bookkeeping without
// executing anything. A value is a folded integer constant (isConst), a
// folded address constant (sym plus iv as the byte addend), or opaque.
type foldVal struct {
	isConst bool
	iv      int64
	sym     string
}

// VM implements backend.Backend.
type VM struct {
	mod *Module
	cur *Func

	fold []foldVal

	nogen     int   // nestable suppression counter
	nogenMark []int // fold height at each PushNogen, truncated back on PopNogen
	pass      int   // 0 before Pass1, 1 during pass 1, 2 during pass 2
}

// New returns a fresh VM ready to compile one translation unit.
func New() *VM {
	return &VM{mod: newModule()}
}

func (v *VM) emitting() bool { return v.pass == 2 && v.nogen == 0 }

func (v *VM) push(f foldVal, mk func() Instr) {
	v.fold = append(v.fold, f)
	if v.emitting() {
		v.cur.Code = append(v.cur.Code, mk())
	}
}

func (v *VM) pop() foldVal {
	n := len(v.fold)
	f := v.fold[n-1]
	v.fold = v.fold[:n-1]
	return f
}

func (v *VM) top() foldVal { return v.fold[len(v.fold)-1] }

// dropEmitted removes the single most recent instruction, used when a
// folded constant is consumed by Popnum without ever needing to run: the
// invariant this backend keeps is that a const foldVal always corresponds
// to exactly one already-emitted iPushK, so un-emitting it is just a pop.
func (v *VM) dropEmitted() {
	if v.emitting() {
		v.cur.Code = v.cur.Code[:len(v.cur.Code)-1]
	}
}

// --- literals and names ---

func (v *VM) Num(val int64, bt backend.BaseType) {
	v.push(foldVal{isConst: true, iv: truncate(val, bt)}, func() Instr {
		return Instr{Op: iPushK, I: truncate(val, bt), BT: bt}
	})
}

// Sym resolves name against the functions registered so far to decide
// whether to push a function address or a data address. Because FuncBeg
// registers a function before its body is parsed, direct and self-recursive
// calls get a function-address push. A name not yet registered gets a
// data-address push instead; both resolve by name at run time against the
// linked Image's symbol table, which holds function addresses too, so a
// call to a function defined later in the translation unit still reaches it.
func (v *VM) Sym(name string) {
	if _, ok := v.mod.funcIndex[name]; ok {
		v.push(foldVal{sym: name}, func() Instr { return Instr{Op: iPushFuncAddr, S: name} })
		return
	}
	v.push(foldVal{sym: name}, func() Instr { return Instr{Op: iPushGlobalAddr, S: name} })
}

func (v *VM) Local(id int) {
	v.push(foldVal{}, func() Instr { return Instr{Op: iPushLocalAddr, I: int64(id)} })
}

func (v *VM) DSNew(name string, size int) int {
	ds := &DataSym{Name: name, Size: size}
	v.mod.Data = append(v.mod.Data, ds)
	idx := len(v.mod.Data) - 1
	v.mod.dataIndex[name] = idx
	return idx
}

func (v *VM) DSSet(sym int, off int, data []byte) {
	ds := v.mod.Data[sym]
	ds.Pokes = append(ds.Pokes, poke{Off: off, Data: append([]byte(nil), data...)})
}

func (v *VM) DSSetSym(sym int, off int, name string, addend int64, size int) {
	ds := v.mod.Data[sym]
	ds.Pokes = append(ds.Pokes, poke{Off: off, Sym: name, Addend: addend, Size: size})
}

func (v *VM) DSCpy(sym int, off int, data []byte) { v.DSSet(sym, off, data) }

func (v *VM) BSNew(name string, size int) int {
	ds := &DataSym{Name: name, Size: size, BSS: true}
	v.mod.Data = append(v.mod.Data, ds)
	idx := len(v.mod.Data) - 1
	v.mod.dataIndex[name] = idx
	return idx
}

// --- stack manipulation ---

func (v *VM) TmpCopy() {
	f := v.top()
	v.push(f, func() Instr { return Instr{Op: iDup} })
}

// TmpSwap exchanges the top two entries. While emitting, both become opaque:
// the most recent instruction is now the iSwap, so neither value's push can
// be un-emitted by dropEmitted any more.
func (v *VM) TmpSwap() {
	n := len(v.fold)
	v.fold[n-1], v.fold[n-2] = v.fold[n-2], v.fold[n-1]
	if v.emitting() {
		v.cur.Code = append(v.cur.Code, Instr{Op: iSwap})
		v.fold[n-1], v.fold[n-2] = foldVal{}, foldVal{}
	}
}

func (v *VM) TmpDrop() {
	v.pop()
	if v.emitting() {
		v.cur.Code = append(v.cur.Code, Instr{Op: iDrop})
	}
}

// --- operators ---

func foldBinop(op backend.Op, a, b int64, bt backend.BaseType) int64 {
	var r int64
	switch op {
	case backend.Add:
		r = a + b
	case backend.Sub:
		r = a - b
	case backend.Mul:
		r = a * b
	case backend.Div:
		if b == 0 {
			return 0
		}
		r = a / b
	case backend.Mod:
		if b == 0 {
			return 0
		}
		r = a % b
	case backend.Shl:
		r = a << uint(b)
	case backend.Shr:
		r = a >> uint(b)
	case backend.BitAnd:
		r = a & b
	case backend.BitOr:
		r = a | b
	case backend.BitXor:
		r = a ^ b
	case backend.Eq:
		r = boolInt(a == b)
	case backend.Neq:
		r = boolInt(a != b)
	case backend.Lt:
		r = boolInt(a < b)
	case backend.Leq:
		r = boolInt(a <= b)
	case backend.Gt:
		r = boolInt(a > b)
	case backend.Geq:
		r = boolInt(a >= b)
	}
	return truncate(r, bt)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func truncate(v int64, bt backend.BaseType) int64 {
	switch bt.Size {
	case 1:
		if bt.Signed {
			return int64(int8(v))
		}
		return int64(uint8(v))
	case 2:
		if bt.Signed {
			return int64(int16(v))
		}
		return int64(uint16(v))
	case 4:
		if bt.Signed {
			return int64(int32(v))
		}
		return int64(uint32(v))
	default:
		return v
	}
}

func (v *VM) Bop(op backend.Op, bt backend.BaseType) {
	rhs := v.pop()
	lhs := v.pop()
	if lhs.isConst && rhs.isConst {
		v.dropEmitted() // rhs's pushK
		v.dropEmitted() // lhs's pushK
		res := foldBinop(op, lhs.iv, rhs.iv, bt)
		v.push(foldVal{isConst: true, iv: res}, func() Instr {
			return Instr{Op: iPushK, I: res, BT: bt}
		})
		return
	}
	// Address constants fold through +/- with an integer constant, so a
	// global initializer can be `&arr[2]` or `name + 4`. Only tracked in
	// suppressed/pre-pass contexts; while emitting, the real Binop below
	// computes the same value at runtime and the fold shadow stays opaque.
	if !v.emitting() && (op == backend.Add || op == backend.Sub) {
		if s, k, ok := symAddendPair(op, lhs, rhs); ok {
			v.fold = append(v.fold, foldVal{sym: s.sym, iv: k})
			return
		}
	}
	v.push(foldVal{}, func() Instr { return Instr{Op: iBinop, Sub: op, BT: bt} })
}

// symAddendPair recognizes sym+const, const+sym, and sym-const.
func symAddendPair(op backend.Op, lhs, rhs foldVal) (foldVal, int64, bool) {
	if lhs.sym != "" && rhs.isConst {
		if op == backend.Sub {
			return lhs, lhs.iv - rhs.iv, true
		}
		return lhs, lhs.iv + rhs.iv, true
	}
	if rhs.sym != "" && lhs.isConst && op == backend.Add {
		return rhs, rhs.iv + lhs.iv, true
	}
	return foldVal{}, 0, false
}

func foldUnop(op backend.Op, a int64, bt backend.BaseType) int64 {
	var r int64
	switch op {
	case backend.Neg:
		r = -a
	case backend.Not:
		r = boolInt(a == 0)
	case backend.Compl:
		r = ^a
	default:
		r = a
	}
	return truncate(r, bt)
}

func (v *VM) Uop(op backend.Op, bt backend.BaseType) {
	x := v.pop()
	if x.isConst {
		v.dropEmitted()
		res := foldUnop(op, x.iv, bt)
		v.push(foldVal{isConst: true, iv: res}, func() Instr {
			return Instr{Op: iPushK, I: res, BT: bt}
		})
		return
	}
	v.push(foldVal{}, func() Instr { return Instr{Op: iUnop, Sub: op, BT: bt} })
}

func (v *VM) Cast(bt backend.BaseType) {
	x := v.pop()
	if x.isConst {
		v.dropEmitted()
		res := truncate(x.iv, bt)
		v.push(foldVal{isConst: true, iv: res}, func() Instr { return Instr{Op: iPushK, I: res, BT: bt} })
		return
	}
	v.push(foldVal{}, func() Instr { return Instr{Op: iCast, BT: bt} })
}

// Assign's result is never a foldable constant, even when the stored
// value is: Popnum's un-emit discipline (a const foldVal corresponds to
// exactly one trailing push instruction) cannot hold for a store, which
// must execute for its side effect.
func (v *VM) Assign(bt backend.BaseType) {
	v.pop() // value
	v.pop() // address
	v.push(foldVal{}, func() Instr {
		return Instr{Op: iAssign, BT: bt}
	})
}

func (v *VM) Deref(bt backend.BaseType) {
	v.pop()
	v.push(foldVal{}, func() Instr { return Instr{Op: iDeref, BT: bt} })
}

func (v *VM) Load(bt backend.BaseType) {
	v.pop()
	v.push(foldVal{}, func() Instr { return Instr{Op: iLoad, BT: bt} })
}

// Memcpy expects the stack to already hold [dst, src] (dst pushed first,
// src on top); size is a call parameter, not a stack value, matching
// iMemcpy's interpreter handling.
func (v *VM) Memcpy(size int) {
	v.pop() // src
	v.pop() // dst
	v.push(foldVal{}, func() Instr { return Instr{Op: iMemcpy, I: int64(size)} })
}

func (v *VM) Memset(size int) {
	v.pop() // addr
	if v.emitting() {
		v.cur.Code = append(v.cur.Code, Instr{Op: iMemset, I: int64(size)})
	}
}

// --- control flow ---

// Label reserves a fresh label id; it does not mark a position. Call
// PlaceLabel(id) at the point the label should target.
func (v *VM) Label() int {
	id := v.cur.nextLabel
	v.cur.nextLabel++
	return id
}

func (v *VM) PlaceLabel(id int) {
	if v.emitting() {
		v.cur.Code = append(v.cur.Code, Instr{Op: iLabel, I: int64(id)})
	}
}

func (v *VM) Jmp(label int) {
	if v.emitting() {
		v.cur.Code = append(v.cur.Code, Instr{Op: iJmp, I: int64(label)})
	}
}

func (v *VM) Jz(label int) {
	v.pop()
	if v.emitting() {
		v.cur.Code = append(v.cur.Code, Instr{Op: iJz, I: int64(label)})
	}
}

func (v *VM) Jnz(label int) {
	v.pop()
	if v.emitting() {
		v.cur.Code = append(v.cur.Code, Instr{Op: iJnz, I: int64(label)})
	}
}

// Fork opens a phi region. The label-based jumps the parser emits around
// it already express the control flow, so nothing needs recording here.
func (v *VM) Fork() {}

// ForkPush pushes the literal result of one phi path.
func (v *VM) ForkPush(val int64) {
	v.push(foldVal{isConst: true, iv: val}, func() Instr {
		return Instr{Op: iPushK, I: val, BT: backend.BaseType{Size: 4, Signed: true}}
	})
}

// ForkJoin reconciles the two phi paths. Both paths pushed one value each
// at compile time, but only one of the pushes executes at runtime, so the
// fold shadow drops one entry; the survivor is opaque (which path ran is
// unknowable), so any constness it carried is cleared.
func (v *VM) ForkJoin() {
	v.pop()
	if n := len(v.fold); n > 0 {
		v.fold[n-1] = foldVal{}
	}
}

// --- calls/functions ---

func (v *VM) Call(argc int, retBT backend.BaseType) {
	for i := 0; i < argc; i++ {
		v.pop()
	}
	v.pop() // callee
	v.push(foldVal{}, func() Instr { return Instr{Op: iCall, Argc: argc, BT: retBT} })
}

func (v *VM) Ret(hasValue bool) {
	if hasValue {
		v.pop()
	}
	if v.emitting() {
		v.cur.Code = append(v.cur.Code, Instr{Op: iRet, HasV: hasValue})
	}
}

func (v *VM) FuncBeg(name string, argc int, global bool, variadic bool) {
	f := &Func{Name: name, Argc: argc, Global: global, Variadic: variadic}
	for i := 0; i < argc; i++ {
		f.Locals = append(f.Locals, localSlot{Size: 8})
		f.ArgLocal = append(f.ArgLocal, len(f.Locals)-1)
	}
	v.mod.Funcs = append(v.mod.Funcs, f)
	v.mod.funcIndex[name] = len(v.mod.Funcs) - 1
	v.cur = f
	v.pass = 0
}

func (v *VM) FuncEnd() {
	var off int64
	f := v.cur
	f.LocalOff = make([]int64, len(f.Locals))
	for i, l := range f.Locals {
		f.LocalOff[i] = off
		off += int64(l.Size)
		if off%8 != 0 {
			off += 8 - off%8
		}
	}
	f.FrameSize = off
	v.cur = nil
}

func (v *VM) Arg2Loc(i int) int { return v.cur.ArgLocal[i] }

func (v *VM) Mklocal(size int) int {
	v.cur.Locals = append(v.cur.Locals, localSlot{Size: size})
	return len(v.cur.Locals) - 1
}

func (v *VM) Rmlocal(id int) {
	// This reference backend never reuses freed slots (documented
	// simplification, see DESIGN.md); Rmlocal is a bookkeeping no-op.
	_ = id
}

// --- folding ---

func (v *VM) Popnum() (int64, bool) {
	f := v.top()
	if !f.isConst {
		return 0, false
	}
	v.pop()
	v.dropEmitted()
	return f.iv, true
}

func (v *VM) Popsym() (string, int64, bool) {
	f := v.top()
	if f.sym == "" {
		return "", 0, false
	}
	v.pop()
	v.dropEmitted()
	return f.sym, f.iv, true
}

// --- passes ---

func (v *VM) Pass1() {
	v.pass = 1
	v.fold = v.fold[:0]
}

func (v *VM) Pass2() {
	v.cur.Code = nil
	v.cur.nextLabel = 0
	v.fold = v.fold[:0]
	v.pass = 2
}

// Module returns the constructed module once the translation unit is fully
// parsed; it is what the interpreter and the object writer both consume.
func (v *VM) Module() *Module { return v.mod }

// PushNogen opens a suppressed-emission scope and snapshots the fold
// height; PopNogen truncates back to it, discarding whatever shadow
// values the suppressed region pushed. A sizeof operand or a dead
// ternary arm produces no runtime value, so its fold entries must not
// linger under later, real ones.
func (v *VM) PushNogen() {
	v.nogen++
	v.nogenMark = append(v.nogenMark, len(v.fold))
}

func (v *VM) PopNogen() {
	if v.nogen == 0 {
		panic(fmt.Sprintf("nogen underflow"))
	}
	v.nogen--
	mark := v.nogenMark[len(v.nogenMark)-1]
	v.nogenMark = v.nogenMark[:len(v.nogenMark)-1]
	if len(v.fold) > mark {
		v.fold = v.fold[:mark]
	}
}

func (v *VM) InNogen() bool { return v.nogen > 0 }
