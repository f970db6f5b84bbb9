// errors.go: user-facing error wrapping and caret-snippet rendering
//
// What this file does
// -------------------
// Turns low-level lexer/parser diagnostics into readable error snippets
// with a caret pointing at the offending column. The primary entry point is
// `WrapErrorWithSource`, which recognizes `*LexError` (from lexer.go) and
// `*ParseError` (from parser.go), formats them, and returns a new `error`
// that contains a multi-line snippet:
//
//	PARSE ERROR at 3:12: expected ')'
//
//	   2 | let {x: i32} = add32(1i32
//	   3 |              )
//	       |            ^
//	   4 | in
//
// The snippet includes up to one line of context before and after the
// error, numbers the lines, and places a caret under the 1-based column.
//
// Behavior guarantees
// -------------------
//   - If `err` is a `*LexError` or `*ParseError`, the returned error's
//     message is a fully formatted, plain-text snippet (no ANSI colors).
//   - If `err` is anything else, it is returned unchanged.
//   - Line/column are treated as 1-based. If out of range, they are clamped
//     so the caret can be rendered safely. Empty/short sources are handled.
package loom

import (
	"fmt"
	"strings"
)

/* ===========================
   PUBLIC API
   =========================== */

// WrapErrorWithSource returns an error augmented with a caret-annotated
// snippet of the provided source. It recognizes lexer/parser errors and
// leaves other errors untouched.
func WrapErrorWithSource(err error, src string) error {
	// Fall back to a name-less header (won't show "in <src>").
	return WrapErrorWithName(err, "", src)
}

// WrapErrorWithName is WrapErrorWithSource with a source label (usually the
// file name) included in the header.
func WrapErrorWithName(err error, srcName string, src string) error {
	switch e := err.(type) {
	case *LexError:
		// Lex/parse Col are 0-based; render as 1-based.
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "LEXICAL ERROR", srcName, e.Line, e.Col+1, e.Msg))
	case *ParseError:
		return fmt.Errorf("%s", prettyErrorStringLabeled(src, "PARSE ERROR", srcName, e.Line, e.Col+1, e.Msg))
	default:
		return err
	}
}

//// END_OF_PUBLIC

/* ===========================
   PRIVATE: helpers & rendering
   =========================== */

// prettyErrorStringLabeled builds a snippet with a header and a caret. It
// shows at most one previous and one next line when available. Coordinates
// are treated as 1-based and clamped to the source bounds.
func prettyErrorStringLabeled(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line > len(lines) {
		line = len(lines)
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad < 0 {
		caretPad = 0
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
