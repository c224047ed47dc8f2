package mir

import (
	"fmt"
	"strings"
)

// ParseError is raised only for structural catastrophe — an unbalanced
// function body brace-count that prevents extracting a function at all.
// Everything else the parser meets is tolerated and surfaces as a Warning
// on the net instead (see §4.B / §7 of the design).
type ParseError struct {
	Function   string
	BasicBlock string
	Line       int
	Message    string
	input      string // source text, for the optional snippet
}

func (e *ParseError) Error() string {
	var parts []string
	if e.Function != "" {
		parts = append(parts, fmt.Sprintf("function %s", e.Function))
	}
	if e.BasicBlock != "" {
		parts = append(parts, fmt.Sprintf("basic block %s", e.BasicBlock))
	}
	if e.Line > 0 {
		parts = append(parts, fmt.Sprintf("near line %d", e.Line))
	}

	msg := e.Message
	if len(parts) > 0 {
		msg = fmt.Sprintf("%s (in %s)", msg, strings.Join(parts, " / "))
	}
	if snippet := e.snippet(); snippet != "" {
		msg = msg + "\n" + snippet
	}
	return msg
}

// snippet renders the offending source line under a "--> line N" header,
// Rust/Clang style, when the error carries enough location information to
// do so. ParseError has no column, so no caret marks a position in the line.
func (e *ParseError) snippet() string {
	if e.input == "" || e.Line <= 0 {
		return ""
	}
	lines := strings.Split(e.input, "\n")
	if e.Line > len(lines) {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "  --> line %d\n", e.Line)
	b.WriteString("   |\n")
	fmt.Fprintf(&b, "%2d | %s\n", e.Line, lines[e.Line-1])
	return b.String()
}

func newParseError(input, function, basicBlock string, line int, message string) *ParseError {
	return &ParseError{
		Function:   function,
		BasicBlock: basicBlock,
		Line:       line,
		Message:    message,
		input:      input,
	}
}
