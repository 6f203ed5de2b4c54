package vm

import (
	"encoding/binary"
	"io"

	"github.com/google/uuid"
	"github.com/mpvl/ncc/internal/membuf"
)

// objMagic tags the custom container this reference backend writes instead
// of a real ELF/Mach-O/PE object (see SPEC_FULL.md §8): the parser's
// contract with the backend ends at Write(io.Writer) error, and what bytes
// land on disk is entirely the backend's business.
var objMagic = [4]byte{'N', 'C', 'C', '1'}

// Write serializes the module as: magic, a random build-id (so two builds
// of identical source are still distinguishable on disk, per SPEC_FULL.md's
// uuid wiring), the data/bss symbol table, and each function's raw
// instruction stream encoded as one record per instruction; each record
// carries a length-prefixed symbol-name string, so records vary in width.
func (v *VM) Write(w io.Writer) error {
	var buf membuf.Buf

	buf.Put(objMagic[:])
	id := uuid.New()
	idBytes, _ := id.MarshalBinary()
	buf.Put(idBytes)

	putU32(&buf, uint32(len(v.mod.Data)))
	for _, ds := range v.mod.Data {
		putString(&buf, ds.Name)
		putU32(&buf, uint32(ds.Size))
		if ds.BSS {
			buf.PutByte(1)
		} else {
			buf.PutByte(0)
		}
		putU32(&buf, uint32(len(ds.Pokes)))
		for _, p := range ds.Pokes {
			putU32(&buf, uint32(p.Off))
			if p.Sym != "" {
				// Relocation record: the linker of this container fills
				// in p.Sym's address plus the addend at load time.
				buf.PutByte(1)
				putString(&buf, p.Sym)
				putI64(&buf, p.Addend)
				putU32(&buf, uint32(p.Size))
				continue
			}
			buf.PutByte(0)
			putU32(&buf, uint32(len(p.Data)))
			buf.Put(p.Data)
		}
	}

	putU32(&buf, uint32(len(v.mod.Funcs)))
	for _, f := range v.mod.Funcs {
		putString(&buf, f.Name)
		putU32(&buf, uint32(f.Argc))
		if f.Global {
			buf.PutByte(1)
		} else {
			buf.PutByte(0)
		}
		if f.Variadic {
			buf.PutByte(1)
		} else {
			buf.PutByte(0)
		}
		putU32(&buf, uint32(len(f.Locals)))
		for _, l := range f.Locals {
			putU32(&buf, uint32(l.Size))
		}
		putU32(&buf, uint32(len(f.Code)))
		for _, in := range f.Code {
			putU32(&buf, uint32(in.Op))
			putI64(&buf, in.I)
			putString(&buf, in.S)
			putU32(&buf, uint32(in.BT.Size))
			if in.BT.Signed {
				buf.PutByte(1)
			} else {
				buf.PutByte(0)
			}
			putU32(&buf, uint32(in.Sub))
			putU32(&buf, uint32(in.Argc))
			if in.HasV {
				buf.PutByte(1)
			} else {
				buf.PutByte(0)
			}
		}
	}

	_, err := w.Write(buf.Bytes())
	return err
}

func putU32(b *membuf.Buf, v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.Put(tmp[:])
}

func putI64(b *membuf.Buf, v int64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(v))
	b.Put(tmp[:])
}

func putString(b *membuf.Buf, s string) {
	putU32(b, uint32(len(s)))
	b.Put([]byte(s))
}
