package vm

import "github.com/mpvl/ncc/internal/backend"

type iop int

const (
	iPushK iop = iota
	iPushGlobalAddr
	iPushLocalAddr
	iPushFuncAddr
	iDup
	iSwap
	iDrop
	iBinop
	iUnop
	iCast
	iAssign
	iDeref
	iLoad
	iMemcpy
	iMemset
	iLabel
	iJmp
	iJz
	iJnz
	iCall
	iRet
)

// Instr is one instruction of the reference backend's stack bytecode. Not
// every field is used by every opcode.
type Instr struct {
	Op   iop
	I    int64            // immediate / symbol index / local id / label id
	S    string           // symbol name (iPushGlobalAddr, iPushFuncAddr)
	BT   backend.BaseType // width/sign for loads, stores, casts, binops
	Sub  backend.Op       // which operator for iBinop/iUnop
	Argc int              // iCall argument count
	HasV bool             // iRet: whether a value is returned
}
