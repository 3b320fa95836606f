package statemachine

import "fmt"

type op uint8

const (
	opSet op = iota
	opPush
	opReplace
	opRestore
)

func (o op) String() string {
	switch o {
	case opSet:
		return "set"
	case opPush:
		return "push"
	case opReplace:
		return "replace"
	case opRestore:
		return "restore"
	default:
		return "unknown"
	}
}

// Target is the outcome of a matched rule.
type Target[S any] struct {
	op    op
	state S
}

// Set makes s the new root. All history is discarded.
func Set[S any](s S) Target[S] {
	return Target[S]{op: opSet, state: s}
}

// Push moves to s and remembers the current state for Restore.
func Push[S any](s S) Target[S] {
	return Target[S]{op: opPush, state: s}
}

// Replace swaps the current state for s. The remembered state is kept, so a
// later Restore skips the replaced state.
func Replace[S any](s S) Target[S] {
	return Target[S]{op: opReplace, state: s}
}

// Restore returns to the state the current one was pushed from.
func Restore[S any]() Target[S] {
	return Target[S]{op: opRestore}
}

func (t Target[S]) String() string {
	if t.op == opRestore {
		return "restore"
	}
	return fmt.Sprintf("%s(%v)", t.op, t.state)
}
