// Package cpp is the preprocessor front door spec.md §6 calls out as an
// external collaborator. It predefines the compiler's standard macro set,
// accepts -I/-D from the CLI, and performs straight-line object-like macro
// substitution before the translation unit reaches the tokenizer. Full
// #include splicing and function-like macros are out of scope for this
// front end (see DESIGN.md); single-file translation units with object-like
// macros and the qualifier-erasure macros spec.md names are what's needed to
// drive the parser.
package cpp

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ArchTag is the predefined architecture tag macro value (I_ARCH in
// spec.md §6). This front end targets x86-64 Linux exclusively.
const ArchTag = "__x86_64__"

// erasedQualifiers are defined away to nothing, matching the keywords
// spec.md §6 lists as stripped by #define at the preprocessor layer.
var erasedQualifiers = []string{
	"const", "register", "volatile", "inline", "restrict",
	"__inline__", "__restrict__",
}

// Preprocessor holds macro state for one compilation.
type Preprocessor struct {
	defines      map[string]string
	includePaths []string
}

// New returns a Preprocessor primed with the predefined macro set.
func New() *Preprocessor {
	p := &Preprocessor{defines: map[string]string{}}
	p.Define("__STDC__", "1")
	p.Define("__linux__", "1")
	p.Define(ArchTag, "1")
	p.Define("__builtin_va_list__", "long")
	for _, q := range erasedQualifiers {
		p.Define(q, "")
	}
	p.Define("__attribute__", "") // erased as a function-like no-op, see eraseAttribute
	return p
}

// AddIncludePath appends a -I search path.
func (p *Preprocessor) AddIncludePath(path string) {
	p.includePaths = append(p.includePaths, path)
}

// IncludePaths returns the accumulated -I search paths, in order.
func (p *Preprocessor) IncludePaths() []string {
	return append([]string(nil), p.includePaths...)
}

// Define records a -Dname[=value] macro, or an internal predefined one.
func (p *Preprocessor) Define(nameEq, value string) {
	name := nameEq
	if i := strings.IndexByte(nameEq, '='); i >= 0 {
		name = nameEq[:i]
		value = nameEq[i+1:]
	}
	p.defines[name] = value
}

// DefineFlag parses a CLI -Dname[=value] argument in one call.
func (p *Preprocessor) DefineFlag(arg string) {
	if i := strings.IndexByte(arg, '='); i >= 0 {
		p.defines[arg[:i]] = arg[i+1:]
	} else {
		p.defines[arg] = "1"
	}
}

// Run reads file, expands object-like macros and the __attribute__((...))
// eraser, and returns the resulting translation unit bytes. Line numbers are
// preserved exactly because substitution never inserts or removes newlines.
func (p *Preprocessor) Run(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out strings.Builder
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		out.WriteString(p.expandLine(sc.Text()))
		out.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return []byte(out.String()), nil
}

// expandLine substitutes whole-word object-like macro occurrences and
// erases __attribute__((...)) spans, keeping the line's length behavior
// irrelevant to downstream line counting (only '\n' is tracked).
func (p *Preprocessor) expandLine(line string) string {
	line = eraseAttribute(line)
	return substituteWords(line, p.defines)
}

func eraseAttribute(line string) string {
	for {
		i := strings.Index(line, "__attribute__")
		if i < 0 {
			return line
		}
		j := i + len("__attribute__")
		depth := 0
		k := j
		started := false
		for k < len(line) {
			if line[k] == '(' {
				depth++
				started = true
			} else if line[k] == ')' {
				depth--
				if started && depth == 0 {
					k++
					break
				}
			}
			k++
		}
		line = line[:i] + line[k:]
	}
}

func substituteWords(line string, defines map[string]string) string {
	var out strings.Builder
	i := 0
	for i < len(line) {
		c := line[i]
		if c == '"' || c == '\'' {
			// Literal contents are never macro-expanded.
			j := i + 1
			for j < len(line) && line[j] != c {
				if line[j] == '\\' && j+1 < len(line) {
					j++
				}
				j++
			}
			if j < len(line) {
				j++
			}
			out.WriteString(line[i:j])
			i = j
			continue
		}
		if isIdentStart(c) {
			j := i + 1
			for j < len(line) && isIdentCont(line[j]) {
				j++
			}
			word := line[i:j]
			if val, ok := defines[word]; ok {
				out.WriteString(val)
			} else {
				out.WriteString(word)
			}
			i = j
			continue
		}
		out.WriteByte(c)
		i++
	}
	return out.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentCont(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }
