package mir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const minimalMIR = `
fn main() -> () {
    let _1: std::sync::Mutex<i32>;
    let _2: std::sync::MutexGuard<'_, i32>;
    bb0: {
        _2 = std::sync::Mutex::<i32>::lock(move _1) -> [return: bb1, unwind: bb2];
    }
    bb1: {
        drop(_2) -> [return: bb2, unwind: bb2];
    }
    bb2: {
        return;
    }
}
`

func TestParse_FunctionName(t *testing.T) {
	funcs, err := Parse(minimalMIR)
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	require.Equal(t, "main", funcs[0].Name)
}

func TestParse_BasicBlocks(t *testing.T) {
	funcs, err := Parse(minimalMIR)
	require.NoError(t, err)

	var ids []int
	for _, bb := range funcs[0].BasicBlocks {
		ids = append(ids, bb.ID)
	}
	require.ElementsMatch(t, []int{0, 1, 2}, ids)
}

func TestParse_CallTerminator(t *testing.T) {
	funcs, err := Parse(minimalMIR)
	require.NoError(t, err)

	bb0 := findBB(t, funcs[0], 0)
	require.NotNil(t, bb0.Terminator)
	require.Equal(t, TerminatorCall, bb0.Terminator.Kind)
	require.Equal(t, "_2", bb0.Terminator.CallLHS)
	require.Contains(t, bb0.Terminator.Callee, "Mutex")
	require.Contains(t, bb0.Terminator.Callee, "lock")
	require.Contains(t, bb0.Terminator.Args, "_1")
	require.Equal(t, 1, bb0.Terminator.ReturnTarget)
}

func TestParse_DropTerminator(t *testing.T) {
	funcs, err := Parse(minimalMIR)
	require.NoError(t, err)

	bb1 := findBB(t, funcs[0], 1)
	require.NotNil(t, bb1.Terminator)
	require.Equal(t, TerminatorDrop, bb1.Terminator.Kind)
	require.Equal(t, "_2", bb1.Terminator.DropLocal)
	require.Equal(t, 2, bb1.Terminator.ReturnTarget)
}

func TestParse_ReturnTerminator(t *testing.T) {
	funcs, err := Parse(minimalMIR)
	require.NoError(t, err)

	bb2 := findBB(t, funcs[0], 2)
	require.NotNil(t, bb2.Terminator)
	require.Equal(t, TerminatorReturn, bb2.Terminator.Kind)
}

func TestParse_GuardBinding(t *testing.T) {
	funcs, err := Parse(minimalMIR)
	require.NoError(t, err)

	fn := funcs[0]
	require.Equal(t, "_1", fn.GuardToMutexKey["_2"])
}

// Reference aliasing resolves through one level.
func TestParse_ReferenceAliasing(t *testing.T) {
	const src = `
fn main() -> () {
    let _1: std::sync::Mutex<i32>;
    let _2: std::sync::MutexGuard<'_, i32>;
    let _3: &std::sync::Mutex<i32>;
    bb0: {
        _3 = &_1;
        _2 = std::sync::Mutex::lock(move _3) -> [return: bb1, unwind: bb2];
    }
    bb1: {
        drop(_2) -> [return: bb2, unwind: bb2];
    }
    bb2: {
        return;
    }
}
`
	funcs, err := Parse(src)
	require.NoError(t, err)
	fn := funcs[0]
	require.Equal(t, "_1", fn.RefToBase["_3"])
	require.Equal(t, "_1", fn.GuardToMutexKey["_2"], "guard key must resolve through ref_to_base, not stay at _3")
}

// unwrap/expect propagation.
func TestParse_UnwrapPropagation(t *testing.T) {
	const src = `
fn main() -> () {
    let _1: std::sync::Mutex<i32>;
    let _2: std::sync::LockResult<std::sync::MutexGuard<'_, i32>>;
    let _5: std::sync::MutexGuard<'_, i32>;
    bb0: {
        _2 = std::sync::Mutex::<i32>::lock(move _1) -> [return: bb1, unwind: bb2];
    }
    bb1: {
        _5 = std::result::Result::unwrap(move _2) -> [return: bb2, unwind: bb2];
    }
    bb2: {
        drop(_5) -> [return: bb3, unwind: bb3];
    }
    bb3: {
        return;
    }
}
`
	funcs, err := Parse(src)
	require.NoError(t, err)
	fn := funcs[0]
	require.Equal(t, "_1", fn.GuardToMutexKey["_2"])
	require.Equal(t, "_1", fn.GuardToMutexKey["_5"], "unwrap() must propagate guard provenance")
}

// switchInt fan-out preserves order and duplicates.
func TestParse_SwitchIntTargets(t *testing.T) {
	const src = `
fn main() -> () {
    let _4: i32;
    bb0: {
        switchInt(move _4) -> [0: bb1, 1: bb2, otherwise: bb3];
    }
    bb1: {
        return;
    }
    bb2: {
        return;
    }
    bb3: {
        return;
    }
}
`
	funcs, err := Parse(src)
	require.NoError(t, err)
	bb0 := findBB(t, funcs[0], 0)
	require.Equal(t, TerminatorSwitchInt, bb0.Terminator.Kind)
	require.Equal(t, []int{1, 2, 3}, bb0.Terminator.Targets)
}

func TestParse_MissingTerminatorYieldsNilNotError(t *testing.T) {
	const src = `
fn main() -> () {
    bb0: {
        _1 = foo();
    }
}
`
	funcs, err := Parse(src)
	require.NoError(t, err)
	bb0 := findBB(t, funcs[0], 0)
	require.Nil(t, bb0.Terminator)
}

func TestParse_UnbalancedBracesIsFatal(t *testing.T) {
	const src = `fn main() -> () {
    bb0: {
        return;
    }
`
	_, err := Parse(src)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "main", pe.Function)
}

func TestParse_CleanupFlag(t *testing.T) {
	const src = `
fn main() -> () {
    bb0: {
        return;
    }
    bb1 (cleanup): {
        return;
    }
}
`
	funcs, err := Parse(src)
	require.NoError(t, err)
	bb1 := findBB(t, funcs[0], 1)
	require.True(t, bb1.IsCleanup)
}

// Structural equality: re-parsing identical input yields equal models
// modulo nothing — the model has no non-deterministic fields.
func TestParse_StructurallyDeterministic(t *testing.T) {
	a, err := Parse(minimalMIR)
	require.NoError(t, err)
	b, err := Parse(minimalMIR)
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("parsing the same input twice produced different functions (-first +second):\n%s", diff)
	}
}

func findBB(t *testing.T, fn *MirFunction, id int) BasicBlock {
	t.Helper()
	for _, bb := range fn.BasicBlocks {
		if bb.ID == id {
			return bb
		}
	}
	t.Fatalf("basic block bb%d not found", id)
	return BasicBlock{}
}
