package mir

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	fnPattern     = regexp.MustCompile(`fn\s+(\w+)\s*\([^)]*\)\s*->\s*[^{]*\{`)
	letPattern    = regexp.MustCompile(`^let\s+(mut\s+)?(_\d+)\s*:\s*([^;]+);`)
	refPattern    = regexp.MustCompile(`(_\d+)\s*=\s*&(_\d+)\s*;`)
	bbPattern     = regexp.MustCompile(`^bb(\d+)\s*(\(cleanup\))?\s*:\s*\{`)
	gotoPattern   = regexp.MustCompile(`goto\s*->\s*bb(\d+)\s*;`)
	returnPattern = regexp.MustCompile(`^return\s*;`)
	dropPattern   = regexp.MustCompile(`drop\s*\(([^)]+)\)\s*->\s*\[return:\s*bb(\d+)(?:,\s*unwind:\s*(?:bb(\d+)|continue|terminate[^\]]*))?\]\s*;`)
	switchPattern = regexp.MustCompile(`switchInt\s*\([^)]*\)\s*->\s*\[([^\]]+)\]\s*;`)
	callPattern   = regexp.MustCompile(`^(?:(\w+)\s*=\s*)?([^(]+)\(([^)]*)\)\s*->\s*\[return:\s*bb(\d+)(?:,\s*unwind:\s*(?:bb(\d+)|continue|terminate[^\]]*))?\]\s*;`)
	scopePattern  = regexp.MustCompile(`^scope\s+\d+`)
	debugPattern  = regexp.MustCompile(`^debug\s+`)
	bbTargetRe    = regexp.MustCompile(`bb(\d+)`)
	firstLocalRe  = regexp.MustCompile(`(?:^|,)\s*(?:move\s+)?(_\d+)\b`)
)

// Parse recovers a list of MirFunction from a free-form textual MIR dump.
// It fails only on structural catastrophe (a function header whose braces
// never balance); local irregularities are tolerated and surface later as
// warnings on the built net.
func Parse(text string) ([]*MirFunction, error) {
	var functions []*MirFunction
	pos := 0
	for {
		loc := fnPattern.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		// Adjust indices back to absolute offsets.
		for i := range loc {
			if loc[i] >= 0 {
				loc[i] += pos
			}
		}
		fnName := text[loc[2]:loc[3]]
		fnStartLine := strings.Count(text[:loc[0]], "\n") + 1

		bodyStart := loc[1] // position right after the opening '{'
		depth := 1
		i := bodyStart
		for i < len(text) && depth > 0 {
			switch text[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			i++
		}
		if depth != 0 {
			return nil, newParseError(text, fnName, "", fnStartLine,
				"unbalanced braces: function body never closes")
		}
		body := text[bodyStart : i-1]

		fn := parseFunctionBody(fnName, body, fnStartLine)
		functions = append(functions, fn)
		pos = i
	}
	return functions, nil
}

func parseFunctionBody(name, body string, fnStartLine int) *MirFunction {
	fn := newMirFunction(name)

	lines := strings.Split(body, "\n")
	seenBB := false
	i := 0
	for i < len(lines) {
		stripped := strings.TrimSpace(lines[i])

		if scopePattern.MatchString(stripped) || debugPattern.MatchString(stripped) {
			i++
			continue
		}

		if m := letPattern.FindStringSubmatch(stripped); m != nil && !seenBB {
			fn.Locals = append(fn.Locals, LocalDecl{
				Name:  m[2],
				Type:  strings.TrimSpace(m[3]),
				IsMut: m[1] != "",
			})
			i++
			continue
		}

		if m := bbPattern.FindStringSubmatch(stripped); m != nil {
			seenBB = true
			bbID, _ := strconv.Atoi(m[1])
			isCleanup := m[2] != ""
			lineStart := fnStartLine + i + 1

			var blockLines []string
			j := i + 1
			for j < len(lines) {
				bl := lines[j]
				blStripped := strings.TrimSpace(bl)
				if bbPattern.MatchString(blStripped) {
					break
				}
				if blStripped == "}" {
					j++
					break
				}
				blockLines = append(blockLines, bl)
				if refM := refPattern.FindStringSubmatch(blStripped); refM != nil {
					fn.bindRef(refM[1], refM[2])
				}
				j++
			}

			terminator := findTerminator(blockLines, fn)
			fn.BasicBlocks = append(fn.BasicBlocks, BasicBlock{
				ID:         bbID,
				IsCleanup:  isCleanup,
				Statements: blockLines,
				Terminator: terminator,
				Line:       lineStart,
			})
			i = j
			continue
		}

		i++
	}

	return fn
}

// findTerminator scans a block's statement lines in reverse, adopting the
// last line that matches any terminator pattern — a fixed priority order
// applies per candidate line, not across the block.
func findTerminator(blockLines []string, fn *MirFunction) *Terminator {
	for k := len(blockLines) - 1; k >= 0; k-- {
		line := strings.TrimSpace(blockLines[k])

		if m := gotoPattern.FindStringSubmatch(line); m != nil {
			target, _ := strconv.Atoi(m[1])
			return &Terminator{Kind: TerminatorGoto, Target: target}
		}
		if returnPattern.MatchString(line) {
			return &Terminator{Kind: TerminatorReturn}
		}
		if m := dropPattern.FindStringSubmatch(line); m != nil {
			t := &Terminator{Kind: TerminatorDrop, DropLocal: strings.TrimSpace(m[1])}
			t.ReturnTarget, _ = strconv.Atoi(m[2])
			if m[3] != "" {
				t.HasUnwind = true
				t.UnwindTarget, _ = strconv.Atoi(m[3])
			}
			return t
		}
		if m := switchPattern.FindStringSubmatch(line); m != nil {
			var targets []int
			for _, tm := range bbTargetRe.FindAllStringSubmatch(m[1], -1) {
				n, _ := strconv.Atoi(tm[1])
				targets = append(targets, n)
			}
			return &Terminator{Kind: TerminatorSwitchInt, Targets: targets}
		}
		if m := callPattern.FindStringSubmatch(line); m != nil {
			t := &Terminator{
				Kind:       TerminatorCall,
				CallLHS:    m[1],
				HasCallLHS: m[1] != "",
				Callee:     strings.TrimSpace(m[2]),
				Args:       strings.TrimSpace(m[3]),
			}
			t.ReturnTarget, _ = strconv.Atoi(m[4])
			if m[5] != "" {
				t.HasUnwind = true
				t.UnwindTarget, _ = strconv.Atoi(m[5])
			}
			bindGuardIfApplicable(fn, t)
			return t
		}
	}
	return nil
}

// IsMutexLockCallee reports whether callee matches the mutex-lock shape:
// substrings "Mutex" and "lock", or the literal "mutex::lock" (any case).
func IsMutexLockCallee(callee string) bool {
	if strings.Contains(callee, "Mutex") && strings.Contains(callee, "lock") {
		return true
	}
	return strings.Contains(strings.ToLower(callee), "mutex::lock")
}

// IsUnwrapOrExpectCallee reports whether callee is a `.unwrap()`/`.expect()`
// style call that might be consuming a LockResult into its guard.
func IsUnwrapOrExpectCallee(callee string) bool {
	return strings.Contains(callee, "::unwrap") || strings.Contains(callee, "::expect")
}

// ExtractFirstLocal returns the first local (e.g. "_4") found in an argument
// list such as "move _4" or "_1, const 0".
func ExtractFirstLocal(args string) (string, bool) {
	m := firstLocalRe.FindStringSubmatch(strings.TrimSpace(args))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// bindGuardIfApplicable performs the guard-to-mutex-key binding analysis on
// a Call terminator: direct lock acquisition, or unwrap/expect provenance
// propagation through an already-known guard.
func bindGuardIfApplicable(fn *MirFunction, t *Terminator) {
	switch {
	case IsMutexLockCallee(t.Callee):
		first, ok := ExtractFirstLocal(t.Args)
		if !ok || !t.HasCallLHS {
			return
		}
		fn.bindGuard(t.CallLHS, fn.resolveRef(first))
	case IsUnwrapOrExpectCallee(t.Callee) && t.HasCallLHS:
		first, ok := ExtractFirstLocal(t.Args)
		if !ok {
			return
		}
		if key, known := fn.GuardToMutexKey[first]; known {
			fn.bindGuard(t.CallLHS, key)
		}
	}
}
