package cc

import "github.com/mpvl/ncc/internal/backend"

// TypeFlag marks a type's category. At most one of these is ever set
// (spec.md §3's invariant); pointer depth > 0 can still coexist with any of
// them (function pointers remain callable, array-of-pointer decays like any
// other array, and so on).
type TypeFlag uint8

const (
	FlagArray TypeFlag = 1 << iota
	FlagStruct
	FlagFunc
)

// Type is spec.md §3's typed-expression representation: a base kind, a
// pointer depth, a category flag, an index into the matching side table,
// and the transient addr-carrying bit ts_de consumes.
type Type struct {
	Void  bool
	Base  backend.BaseType // width/sign for scalar and pointer base handling
	Ptr   int
	Flags TypeFlag
	ID    int  // index into Arrays/Structs/Funcs, when the matching flag is set
	Addr  bool // transient: value on the generator stack is this type's address
}

func (t Type) IsArray() bool  { return t.Flags&FlagArray != 0 && t.Ptr == 0 }
func (t Type) IsStruct() bool { return t.Flags&FlagStruct != 0 && t.Ptr == 0 }
func (t Type) IsFunc() bool   { return t.Flags&FlagFunc != 0 && t.Ptr == 0 }
func (t Type) IsPtr() bool    { return t.Ptr > 0 }

// Scalar integer/pointer base types used throughout the parser.
var (
	VoidType   = Type{Void: true}
	CharType   = Type{Base: backend.BaseType{Size: 1, Signed: true}}
	UCharType  = Type{Base: backend.BaseType{Size: 1, Signed: false}}
	ShortType  = Type{Base: backend.BaseType{Size: 2, Signed: true}}
	UShortType = Type{Base: backend.BaseType{Size: 2, Signed: false}}
	IntType    = Type{Base: backend.BaseType{Size: 4, Signed: true}}
	UIntType   = Type{Base: backend.BaseType{Size: 4, Signed: false}}
	LongType   = Type{Base: backend.BaseType{Size: 8, Signed: true}}
	ULongType  = Type{Base: backend.BaseType{Size: 8, Signed: false}}
)

// WordSize is the pointer / long width of the target (x86-64).
const WordSize = 8

// Field is one struct or union member.
type Field struct {
	Name string
	Type Type
	Off  int
}

// ArrayDesc is the {element type, length} descriptor spec.md §3 names.
// Length 0 means "incomplete, to be fixed from an initializer" (C6).
type ArrayDesc struct {
	Elem Type
	Len  int
}

// StructDesc is the {tag, union?, size, fields} descriptor.
type StructDesc struct {
	Tag    string
	Union  bool
	Size   int
	Align  int
	Fields []Field
}

// Field looks up a member by name, returning its index or -1.
func (s *StructDesc) Field(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// FuncSig is the {return type, argc, variadic?, arg types, arg names,
// declared name} descriptor.
type FuncSig struct {
	Name     string
	Ret      Type
	Argc     int
	Variadic bool
	ArgTypes []Type
	ArgNames []string
	// Implicit marks a stub signature fabricated for a call to a name with
	// no prior prototype or definition (spec.md §7's implicit-extern
	// recovery); a real prototype or definition for the same name later in
	// the file replaces it wholesale instead of merging with it.
	Implicit bool
}

// promote is the C integer promotion rule specialized to this front end:
// any integer narrower than 4 bytes becomes a signed 4-byte int.
func promote(bt backend.BaseType) backend.BaseType {
	if bt.Size < 4 {
		return backend.BaseType{Size: 4, Signed: true}
	}
	return bt
}

// Promote applies integer promotion to a scalar/pointer Type's base.
func Promote(t Type) Type {
	if t.IsPtr() || t.Void {
		return t
	}
	t.Base = promote(t.Base)
	return t
}

// binopType computes the usual-arithmetic-conversions result for a plain
// binary operator: widest size, signed if either operand is signed.
func binopType(a, b backend.BaseType) backend.BaseType {
	size := a.Size
	if b.Size > size {
		size = b.Size
	}
	if size < 4 {
		size = 4
	}
	return backend.BaseType{Size: size, Signed: a.Signed || b.Signed}
}

// BinopType implements spec.md §4.1's binop_type contract, including the
// div/mod override where the result's sign follows the right operand.
func BinopType(op backend.Op, a, b Type) Type {
	bt := binopType(a.Base, b.Base)
	if op == backend.Div || op == backend.Mod {
		bt.Signed = b.Base.Signed
	}
	return Type{Base: bt}
}

// ArrayToPtr implements array-to-pointer decay: an array (not already a
// pointer) becomes a pointer to its element type, pointer depth + 1.
func ArrayToPtr(t Type, arrays []ArrayDesc) Type {
	if !t.IsArray() {
		return t
	}
	elem := arrays[t.ID].Elem
	r := elem
	r.Ptr++
	return r
}

// DerefSize returns the size of *t, used to scale pointer arithmetic.
func DerefSize(t Type, arrays []ArrayDesc, structs []StructDesc) int {
	if t.Ptr > 1 {
		return WordSize
	}
	inner := t
	inner.Ptr = 0
	return TypeSize(inner, arrays, structs)
}

// TypeSize implements spec.md §4.1's type_size contract.
func TypeSize(t Type, arrays []ArrayDesc, structs []StructDesc) int {
	if t.IsPtr() {
		return WordSize
	}
	if t.IsArray() {
		d := arrays[t.ID]
		return d.Len * TypeSize(d.Elem, arrays, structs)
	}
	if t.IsStruct() {
		return structs[t.ID].Size
	}
	if t.Void {
		return 1
	}
	return t.Base.Size
}

// Alignment implements spec.md §4.1's alignment contract.
func Alignment(t Type, arrays []ArrayDesc, structs []StructDesc) int {
	if t.IsPtr() {
		return WordSize
	}
	if t.IsStruct() {
		sd := structs[t.ID]
		if len(sd.Fields) == 0 {
			return 1
		}
		return Alignment(sd.Fields[0].Type, arrays, structs)
	}
	if t.IsArray() {
		return Alignment(arrays[t.ID].Elem, arrays, structs)
	}
	if t.Void {
		return 1
	}
	sz := t.Base.Size
	if sz > WordSize {
		sz = WordSize
	}
	return sz
}

// alignUp rounds off up to a multiple of align (align must be a power of two).
func alignUp(off, align int) int {
	if align <= 1 {
		return off
	}
	rem := off % align
	if rem == 0 {
		return off
	}
	return off + (align - rem)
}

// FieldLayout lays fields out in declaration order, aligning each by its
// own alignment; union members all sit at offset 0 and the overall size is
// the widest member. There is no trailing struct padding beyond what each
// field's own alignment forces, matching spec.md §4.1's explicit field-loop
// size rule.
func FieldLayout(sd *StructDesc, arrays []ArrayDesc, structs []StructDesc) {
	if sd.Union {
		max := 0
		for i := range sd.Fields {
			sd.Fields[i].Off = 0
			if sz := TypeSize(sd.Fields[i].Type, arrays, structs); sz > max {
				max = sz
			}
		}
		sd.Size = max
		if len(sd.Fields) > 0 {
			sd.Align = Alignment(sd.Fields[0].Type, arrays, structs)
		} else {
			sd.Align = 1
		}
		return
	}
	off := 0
	for i := range sd.Fields {
		a := Alignment(sd.Fields[i].Type, arrays, structs)
		off = alignUp(off, a)
		sd.Fields[i].Off = off
		off += TypeSize(sd.Fields[i].Type, arrays, structs)
	}
	sd.Size = off
	if len(sd.Fields) > 0 {
		sd.Align = Alignment(sd.Fields[0].Type, arrays, structs)
	} else {
		sd.Align = 1
	}
}
