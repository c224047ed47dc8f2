package petrinet

import (
	"fmt"
	"sort"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/aledsdavies/mir2pnml/internal/mir"
)

// knownLockSignatures seeds the "did you mean" hint attached to warnings
// about an unrecognized callee: a small set of lock-acquisition shapes a
// MIR dump is likely to contain, used purely to enrich the warning text —
// it never changes classification.
var knownLockSignatures = []string{
	"std::sync::Mutex::<T>::lock",
	"std::sync::Mutex::lock",
	"parking_lot::Mutex::lock",
	"std::sync::RwLock::read",
	"std::sync::RwLock::write",
}

// builder accumulates a PetriNet across one or more functions, keeping the
// id-keyed sets that make place/transition insertion idempotent and the
// single monotonic counter that mints arc ids.
type builder struct {
	net         *PetriNet
	seenPlace   map[string]bool
	seenTrans   map[string]bool
	arcCounter  int
}

// Build lowers a list of parsed MIR functions into a single PetriNet. It is
// deterministic: the same functions in the same order always produce
// byte-identical net ordering.
func Build(functions []*mir.MirFunction, entryFn string, maxFns int) *PetriNet {
	b := &builder{
		net:       newPetriNet(),
		seenPlace: make(map[string]bool),
		seenTrans: make(map[string]bool),
	}

	toProcess := functions
	if maxFns > 0 && maxFns < len(functions) {
		toProcess = functions[:maxFns]
	}

	for _, fn := range toProcess {
		b.buildFunction(fn, entryFn)
	}

	return b.net
}

func (b *builder) nextArcID() string {
	b.arcCounter++
	return fmt.Sprintf("arc_%d", b.arcCounter)
}

func (b *builder) addPlace(p Place) {
	if b.seenPlace[p.ID] {
		return
	}
	b.seenPlace[p.ID] = true
	b.net.Places = append(b.net.Places, p)
	if p.InitTokens > 0 {
		b.net.InitialMarking[p.ID] = p.InitTokens
	}
}

func (b *builder) addTransition(t Transition) {
	if b.seenTrans[t.ID] {
		return
	}
	b.seenTrans[t.ID] = true
	b.net.Transitions = append(b.net.Transitions, t)
}

func (b *builder) addArc(source, target string) {
	b.net.Arcs = append(b.net.Arcs, Arc{
		ID:     b.nextArcID(),
		Source: source,
		Target: target,
		Weight: 1,
	})
}

func (b *builder) warn(w Warning) {
	b.net.Warnings = append(b.net.Warnings, w)
}

// ensureMutexPlaces creates the free/held place pair for key the first time
// it is seen, with initial tokens (1, 0).
func (b *builder) ensureMutexPlaces(key string) {
	b.addPlace(Place{ID: mutexFreeID(key), Name: "mutex_" + key + "_free", Kind: PlaceMutexFree, InitTokens: 1})
	b.addPlace(Place{ID: mutexHeldID(key), Name: "mutex_" + key + "_held", Kind: PlaceMutexHeld, InitTokens: 0})
}

func mutexFreeID(key string) string { return "p_mutex_" + key + "_free" }
func mutexHeldID(key string) string { return "p_mutex_" + key + "_held" }

func (b *builder) buildFunction(fn *mir.MirFunction, entryFn string) {
	f := fn.Name
	isEntry := f == entryFn

	pEntry := Place{ID: "p_" + f + "_entry", Name: f + "_entry", Kind: PlaceCFG}
	if isEntry {
		pEntry.InitTokens = 1
	}
	b.addPlace(pEntry)

	pExit := Place{ID: "p_" + f + "_exit", Name: f + "_exit", Kind: PlaceCFG}
	b.addPlace(pExit)

	bbToPlace := make(map[int]string)
	var firstNonCleanup *mir.BasicBlock
	for i := range fn.BasicBlocks {
		bb := &fn.BasicBlocks[i]
		if bb.IsCleanup {
			continue
		}
		pid := fmt.Sprintf("p_%s_bb%d", f, bb.ID)
		bbToPlace[bb.ID] = pid
		b.addPlace(Place{ID: pid, Name: fmt.Sprintf("%s_bb%d", f, bb.ID), Kind: PlaceCFG})
		if firstNonCleanup == nil {
			firstNonCleanup = bb
		}
	}

	if firstNonCleanup != nil {
		tStart := Transition{ID: "t_" + f + "_start", Name: f + "_start", Kind: TransitionCFG}
		b.addTransition(tStart)
		b.addArc(pEntry.ID, tStart.ID)
		b.addArc(tStart.ID, bbToPlace[firstNonCleanup.ID])
	}

	for i := range fn.BasicBlocks {
		bb := &fn.BasicBlocks[i]
		if bb.IsCleanup {
			continue
		}
		srcPlace, ok := bbToPlace[bb.ID]
		if !ok {
			continue
		}
		bbLabel := fmt.Sprintf("bb%d", bb.ID)

		term := bb.Terminator
		if term == nil {
			b.warn(Warning{Function: f, BasicBlock: bbLabel, Line: bb.Line, Reason: "no terminator found"})
			continue
		}

		var targets []int
		var lockKey, unlockKey string

		switch term.Kind {
		case mir.TerminatorGoto:
			targets = []int{term.Target}
		case mir.TerminatorReturn:
			// no CFG successor; handled separately below via exit transition
		case mir.TerminatorSwitchInt:
			targets = term.Targets
		case mir.TerminatorDrop:
			targets = []int{term.ReturnTarget}
			if key, known := fn.GuardToMutexKey[term.DropLocal]; known {
				unlockKey = key
			} else {
				b.warn(Warning{
					Function: f, BasicBlock: bbLabel, Line: bb.Line,
					Reason: fmt.Sprintf("drop(%s) not in guard binding table", term.DropLocal),
					Callee: "drop",
				})
			}
		case mir.TerminatorCall:
			targets = []int{term.ReturnTarget}
			if mir.IsMutexLockCallee(term.Callee) {
				if first, ok := mir.ExtractFirstLocal(term.Args); ok {
					lockKey = fn.RefToBase[first]
					if lockKey == "" {
						lockKey = first
					}
				} else {
					b.warn(Warning{
						Function: f, BasicBlock: bbLabel, Line: bb.Line,
						Reason: "Mutex::lock call but no local in args",
						Callee: term.Callee,
					})
				}
			} else {
				b.warn(Warning{
					Function: f, BasicBlock: bbLabel, Line: bb.Line,
					Reason: unrecognizedCalleeReason(term.Callee),
					Callee: term.Callee,
				})
			}
		}

		for _, targetBB := range targets {
			kind := TransitionCFG
			op := ""
			switch {
			case lockKey != "":
				kind, op = TransitionLock, lockKey
			case unlockKey != "":
				kind, op = TransitionUnlock, unlockKey
			}

			tID := fmt.Sprintf("t_%s_bb%d_to_bb%d", f, bb.ID, targetBB)
			t := Transition{ID: tID, Name: fmt.Sprintf("%s_bb%d_to_bb%d", f, bb.ID, targetBB), Kind: kind, Op: op}
			b.addTransition(t)
			b.addArc(srcPlace, t.ID)
			if dst, ok := bbToPlace[targetBB]; ok {
				b.addArc(t.ID, dst)
			}

			if lockKey != "" {
				b.ensureMutexPlaces(lockKey)
				b.addArc(mutexFreeID(lockKey), t.ID)
				b.addArc(t.ID, mutexHeldID(lockKey))
			}
			if unlockKey != "" {
				b.ensureMutexPlaces(unlockKey)
				b.addArc(mutexHeldID(unlockKey), t.ID)
				b.addArc(t.ID, mutexFreeID(unlockKey))
			}
		}

		if term.Kind == mir.TerminatorReturn {
			tReturn := Transition{ID: fmt.Sprintf("t_%s_bb%d_return", f, bb.ID), Name: fmt.Sprintf("%s_bb%d_return", f, bb.ID), Kind: TransitionCFG}
			b.addTransition(tReturn)
			b.addArc(srcPlace, tReturn.ID)
			b.addArc(tReturn.ID, pExit.ID)
		}
	}
}

// unrecognizedCalleeReason builds the standard warning reason for a call
// terminator whose callee isn't the mutex-lock shape, with an optional
// fuzzy "did you mean" hint against a small set of known lock signatures.
func unrecognizedCalleeReason(callee string) string {
	const reason = "unrecognized call, treated as CFG edge"
	ranks := fuzzy.RankFindNormalizedFold(callee, knownLockSignatures)
	if len(ranks) == 0 {
		return reason
	}
	sort.Sort(ranks)
	best := ranks[0]
	if best.Distance > len(best.Target)/2 {
		return reason
	}
	return fmt.Sprintf("%s (did you mean %q?)", reason, best.Target)
}
