package vm

import (
	"encoding/binary"
	"fmt"

	"github.com/mpvl/ncc/internal/backend"
)

// Image is a linked, runnable snapshot of a Module: data and bss symbols
// have been assigned addresses in one flat byte arena, and function
// addresses have been assigned in a disjoint range so indirect calls
// through function pointers still dispatch correctly.
type Image struct {
	mod      *Module
	mem      []byte
	heapTop  int64
	symAddr  map[string]int64
	funcAddr map[int64]*Func
}

const funcAddrBase = int64(1) << 40

// Link assigns addresses to every data/bss symbol and every function,
// producing a runnable Image. It is the closest analogue this reference
// backend has to a real linker's symbol resolution pass.
func Link(m *Module) *Image {
	img := &Image{mod: m, symAddr: map[string]int64{}, funcAddr: map[int64]*Func{}}
	for _, ds := range m.Data {
		img.symAddr[ds.Name] = int64(len(img.mem))
		img.mem = append(img.mem, make([]byte, ds.Size)...)
	}
	img.heapTop = int64(len(img.mem))
	for i, f := range m.Funcs {
		addr := funcAddrBase + int64(i)
		img.symAddr[f.Name] = addr
		img.funcAddr[addr] = f
	}
	// Apply pokes only once every symbol has an address: a data symbol's
	// initializer may hold the address of a symbol defined later in the
	// translation unit (or of a function).
	for _, ds := range m.Data {
		if ds.BSS {
			continue
		}
		base := int(img.symAddr[ds.Name])
		for _, p := range ds.Pokes {
			if p.Sym == "" {
				copy(img.mem[base+p.Off:], p.Data)
				continue
			}
			target := img.symAddr[p.Sym] + p.Addend
			var word [8]byte
			binary.LittleEndian.PutUint64(word[:], uint64(target))
			copy(img.mem[base+p.Off:], word[:p.Size])
		}
	}
	return img
}

func (img *Image) ensure(addr int64, n int) {
	need := addr + int64(n)
	if need > int64(len(img.mem)) {
		img.mem = append(img.mem, make([]byte, need-int64(len(img.mem)))...)
	}
}

func (img *Image) load(addr int64, bt backend.BaseType) int64 {
	img.ensure(addr, bt.Size)
	b := img.mem[addr : addr+int64(bt.Size)]
	var u uint64
	switch bt.Size {
	case 1:
		u = uint64(b[0])
	case 2:
		u = uint64(binary.LittleEndian.Uint16(b))
	case 4:
		u = uint64(binary.LittleEndian.Uint32(b))
	default:
		u = binary.LittleEndian.Uint64(b)
	}
	return signExtend(u, bt)
}

func signExtend(u uint64, bt backend.BaseType) int64 {
	if !bt.Signed {
		return int64(u)
	}
	switch bt.Size {
	case 1:
		return int64(int8(u))
	case 2:
		return int64(int16(u))
	case 4:
		return int64(int32(u))
	default:
		return int64(u)
	}
}

func (img *Image) store(addr int64, v int64, bt backend.BaseType) {
	img.ensure(addr, bt.Size)
	b := img.mem[addr : addr+int64(bt.Size)]
	switch bt.Size {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	default:
		binary.LittleEndian.PutUint64(b, uint64(v))
	}
}

// frame is one call's local-variable storage: a bump-allocated, never
// reclaimed region of the shared arena. Because each call gets disjoint
// addresses, recursive calls (S2's factorial) never alias each other.
type frame struct {
	base int64
}

func (img *Image) newFrame(size int64) frame {
	base := img.heapTop
	img.heapTop += size
	img.ensure(img.heapTop, 0)
	return frame{base: base}
}

// Run interprets fn with the given argument values and returns its return
// value (0 if it returns void).
func (img *Image) Run(name string, args ...int64) (int64, error) {
	fn := img.mod.Func(name)
	if fn == nil {
		return 0, fmt.Errorf("vm: no such function %q", name)
	}
	return img.call(fn, args)
}

func (img *Image) call(fn *Func, args []int64) (int64, error) {
	fr := img.newFrame(fn.FrameSize)
	for i, a := range args {
		if i >= len(fn.ArgLocal) {
			break
		}
		off := fn.LocalOff[fn.ArgLocal[i]]
		img.store(fr.base+off, a, backend.Word)
	}

	var stack []int64
	labels := map[int64]int{}
	for pc, in := range fn.Code {
		if in.Op == iLabel {
			labels[in.I] = pc
		}
	}

	pop := func() int64 {
		n := len(stack)
		v := stack[n-1]
		stack = stack[:n-1]
		return v
	}
	push := func(v int64) { stack = append(stack, v) }

	pc := 0
	for pc < len(fn.Code) {
		in := fn.Code[pc]
		switch in.Op {
		case iPushK:
			push(in.I)
		case iPushGlobalAddr:
			addr, ok := img.symAddr[in.S]
			if !ok {
				return 0, fmt.Errorf("vm: undefined symbol %q", in.S)
			}
			push(addr)
		case iPushFuncAddr:
			addr, ok := img.symAddr[in.S]
			if !ok {
				return 0, fmt.Errorf("vm: undefined function %q", in.S)
			}
			push(addr)
		case iPushLocalAddr:
			push(fr.base + fn.LocalOff[in.I])
		case iDup:
			push(stack[len(stack)-1])
		case iSwap:
			n := len(stack)
			stack[n-1], stack[n-2] = stack[n-2], stack[n-1]
		case iDrop:
			pop()
		case iBinop:
			b := pop()
			a := pop()
			push(runBinop(in.Sub, a, b, in.BT))
		case iUnop:
			a := pop()
			push(runUnop(in.Sub, a, in.BT))
		case iCast:
			push(img.truncate(pop(), in.BT))
		case iAssign:
			val := pop()
			addr := pop()
			img.store(addr, val, in.BT)
			push(val)
		case iDeref, iLoad:
			addr := pop()
			push(img.load(addr, in.BT))
		case iMemcpy:
			size := in.I
			src := pop()
			dst := pop()
			copy(img.mem[dst:dst+size], img.mem[src:src+size])
			push(dst)
		case iMemset:
			addr := pop()
			size := in.I
			for i := int64(0); i < size; i++ {
				img.mem[addr+i] = 0
			}
		case iLabel:
			// no-op at runtime; only used to build the label table above
		case iJmp:
			pc = labels[in.I]
			continue
		case iJz:
			if pop() == 0 {
				pc = labels[in.I]
				continue
			}
		case iJnz:
			if pop() != 0 {
				pc = labels[in.I]
				continue
			}
		case iCall:
			callArgs := make([]int64, in.Argc)
			for i := in.Argc - 1; i >= 0; i-- {
				callArgs[i] = pop()
			}
			calleeAddr := pop()
			callee, ok := img.funcAddr[calleeAddr]
			if !ok {
				return 0, fmt.Errorf("vm: call to unresolved address %d", calleeAddr)
			}
			ret, err := img.call(callee, callArgs)
			if err != nil {
				return 0, err
			}
			push(img.truncate(ret, in.BT))
		case iRet:
			if in.HasV {
				return pop(), nil
			}
			return 0, nil
		}
		pc++
	}
	if len(stack) > 0 {
		return stack[len(stack)-1], nil
	}
	return 0, nil
}

func (img *Image) truncate(v int64, bt backend.BaseType) int64 { return truncate(v, bt) }

func runBinop(op backend.Op, a, b int64, bt backend.BaseType) int64 { return foldBinop(op, a, b, bt) }
func runUnop(op backend.Op, a int64, bt backend.BaseType) int64     { return foldUnop(op, a, bt) }
