// Package symdump renders a translation unit's symbol environment as a
// deterministic, sorted text report for debug tracing (SPEC_FULL.md §8's
// -dump-symbols flag). It depends only on the exported shape of the root
// package's SymTab, so it stays a leaf package the CLI alone imports.
package symdump

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/mpvl/ncc"
)

// Dump formats sym's globals, functions, typedefs, enum constants and
// struct/union tags as one human-readable report; locals and the array side
// table get no section of their own. Every table is rendered through a name->text map
// and golang.org/x/exp/maps.Keys so the line order never depends on
// declaration order or map iteration order, only on the sorted identifier —
// the same report for the same program, run twice.
func Dump(sym *cc.SymTab) string {
	var b strings.Builder

	writeSection(&b, "globals", globalsByName(sym))
	writeSection(&b, "functions", funcsByName(sym))
	writeSection(&b, "typedefs", typedefsByName(sym))
	writeSection(&b, "enums", enumsByName(sym))
	writeSection(&b, "structs", structsByName(sym))

	return b.String()
}

func writeSection(b *strings.Builder, title string, byName map[string]string) {
	fmt.Fprintf(b, "%s:\n", title)
	names := maps.Keys(byName)
	sort.Strings(names)
	for _, n := range names {
		fmt.Fprintf(b, "  %s: %s\n", n, byName[n])
	}
}

func globalsByName(sym *cc.SymTab) map[string]string {
	m := make(map[string]string, len(sym.Globals))
	for _, g := range sym.Globals {
		if g.Type.IsFunc() {
			continue // reported under "functions"
		}
		m[g.Ident] = typeString(g.Type, sym) + " -> " + g.EmitName
	}
	return m
}

func funcsByName(sym *cc.SymTab) map[string]string {
	m := make(map[string]string, len(sym.Funcs))
	for _, f := range sym.Funcs {
		args := make([]string, len(f.ArgTypes))
		for i, t := range f.ArgTypes {
			args[i] = typeString(t, sym)
		}
		variadic := ""
		if f.Variadic {
			variadic = ", ..."
		}
		m[f.Name] = fmt.Sprintf("%s(%s%s) -> %s", typeString(f.Ret, sym), strings.Join(args, ", "), variadic, f.Name)
	}
	return m
}

func typedefsByName(sym *cc.SymTab) map[string]string {
	m := make(map[string]string, len(sym.Typedefs))
	for _, t := range sym.Typedefs {
		m[t.Ident] = typeString(t.Type, sym)
	}
	return m
}

func enumsByName(sym *cc.SymTab) map[string]string {
	m := make(map[string]string, len(sym.Enums))
	for _, e := range sym.Enums {
		m[e.Ident] = fmt.Sprintf("%d", e.Value)
	}
	return m
}

func structsByName(sym *cc.SymTab) map[string]string {
	m := make(map[string]string, len(sym.Structs))
	for i, sd := range sym.Structs {
		if sd.Tag == "" {
			continue
		}
		kind := "struct"
		if sd.Union {
			kind = "union"
		}
		fields := make([]string, len(sd.Fields))
		for j, f := range sd.Fields {
			fields[j] = f.Name + " " + typeString(f.Type, sym)
		}
		m[fmt.Sprintf("%s %s#%d", kind, sd.Tag, i)] = fmt.Sprintf("size=%d align=%d {%s}", sd.Size, sd.Align, strings.Join(fields, ", "))
	}
	return m
}

// typeString renders a Type well enough for debug output: base width/sign,
// pointer depth, and the array/struct/function category it carries.
func typeString(t cc.Type, sym *cc.SymTab) string {
	switch {
	case t.Void:
		return ptrSuffix("void", t.Ptr)
	case t.IsArray():
		d := sym.Arrays[t.ID]
		return fmt.Sprintf("%s[%d]", typeString(d.Elem, sym), d.Len)
	case t.IsStruct():
		sd := sym.Structs[t.ID]
		kind := "struct"
		if sd.Union {
			kind = "union"
		}
		return fmt.Sprintf("%s %s", kind, sd.Tag)
	case t.IsFunc():
		return "func"
	default:
		name := fmt.Sprintf("i%d", t.Base.Size*8)
		if !t.Base.Signed {
			name = "u" + name
		}
		return ptrSuffix(name, t.Ptr)
	}
}

func ptrSuffix(base string, ptr int) string {
	return base + strings.Repeat("*", ptr)
}
