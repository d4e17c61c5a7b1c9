package layout

import (
	"fmt"
	"strings"

	"github.com/wippyai/lispjit/ir"
)

// ClosureArgs is a closure entrypoint's argument signature: either a
// concrete positional list of statically typed arguments, or the
// variadic generic form every closure's slot 0 always has.
type ClosureArgs struct {
	Variadic bool
	Types    []ir.Type // meaningful only when !Variadic
}

func Variadic() ClosureArgs           { return ClosureArgs{Variadic: true} }
func Specified(ts []ir.Type) ClosureArgs { return ClosureArgs{Types: ts} }

func (a ClosureArgs) encode() string {
	if a.Variadic {
		return "variadic"
	}
	var b strings.Builder
	b.WriteString("specified:")
	for i, t := range a.Types {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%s", t)
	}
	return b.String()
}

func (a ClosureArgs) String() string {
	if a.Variadic {
		return "variadic"
	}
	parts := make([]string, len(a.Types))
	for i, t := range a.Types {
		parts[i] = t.String()
	}
	return "specified(" + strings.Join(parts, ", ") + ")"
}

// ClosureGlobalLayout maps a closure argument signature to an index in
// every closure's fixed-size entrypoint table. Index 0 is always
// Variadic and always present. Unlike BBIndexManager, "instantiated" is
// tracked separately from "has an index": a signature can be assigned an
// index (so call sites agree on where it lives) before any stub has
// actually been installed there, and the first ToIdx call that notices
// this still reports NewInstance so the caller knows to emit the stub.
type ClosureGlobalLayout struct {
	limits        Limits
	args          []ClosureArgs
	byKey         map[string]int
	instantiated  map[int]bool
}

func NewClosureGlobalLayout(limits Limits) *ClosureGlobalLayout {
	l := &ClosureGlobalLayout{
		limits:       limits,
		byKey:        make(map[string]int),
		args:         []ClosureArgs{Variadic()},
		instantiated: make(map[int]bool),
	}
	l.byKey[Variadic().encode()] = limits.DefaultIndex
	l.instantiated[limits.DefaultIndex] = true
	return l
}

// ToIdx returns the dense index for args, minting one if args is new and
// the layout has room. flag is NewInstance both when the index itself is
// freshly minted and when an existing index has never been marked
// instantiated yet; ok is false only when args is new and the layout is
// already at MaxSize.
func (l *ClosureGlobalLayout) ToIdx(args ClosureArgs) (index int, flag IndexFlag, ok bool) {
	enc := args.encode()
	if idx, found := l.byKey[enc]; found {
		if !l.instantiated[idx] {
			l.instantiated[idx] = true
			return idx, NewInstance, true
		}
		return idx, ExistingInstance, true
	}
	if len(l.args) >= l.limits.MaxSize {
		return 0, 0, false
	}
	idx := len(l.args)
	l.args = append(l.args, args)
	l.byKey[enc] = idx
	l.instantiated[idx] = true
	return idx, NewInstance, true
}

// FromIdx returns the ClosureArgs a given entrypoint index was assigned.
func (l *ClosureGlobalLayout) FromIdx(index int) (ClosureArgs, bool) {
	if index < 0 || index >= len(l.args) {
		return ClosureArgs{}, false
	}
	return l.args[index], true
}

func (l *ClosureGlobalLayout) Len() int { return len(l.args) }
