package diag

import (
	"fmt"
	"strings"

	"github.com/pepl-lang/pepl/internal/token"
)

// Diagnostic is the structured error/warning type produced by every
// compiler phase. It carries everything needed to render a terminal
// message or serialize the stable JSON shape from spec.md §6.
type Diagnostic struct {
	Code       string
	Message    string
	Span       token.Span
	Severity   Severity
	Category   Category
	Suggestion string
	SourceLine string
}

// JSON is the stable wire shape from spec.md §6:
//
//	{ code, message, line, column, end_line, end_column, severity, category, suggestion?, source_line }
type JSON struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	Line        int    `json:"line"`
	Column      int    `json:"column"`
	EndLine     int    `json:"end_line"`
	EndColumn   int    `json:"end_column"`
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	Suggestion  string `json:"suggestion,omitempty"`
	SourceLine  string `json:"source_line"`
}

// ToJSON converts a Diagnostic into its stable wire shape.
func (d Diagnostic) ToJSON() JSON {
	return JSON{
		Code:       d.Code,
		Message:    d.Message,
		Line:       d.Span.Start.Line,
		Column:     d.Span.Start.Column,
		EndLine:    d.Span.End.Line,
		EndColumn:  d.Span.End.Column,
		Severity:   string(d.Severity),
		Category:   string(d.Category),
		Suggestion: d.Suggestion,
		SourceLine: d.SourceLine,
	}
}

// Format renders the diagnostic the way the teacher's CompilerError does:
// a header line, the source line with a line-number gutter, and a caret
// pointing at the offending column. When color is true, ANSI codes
// highlight the caret and severity.
func (d Diagnostic) Format(color bool) string {
	var sb strings.Builder

	sevWord := "error"
	if d.Severity == SeverityWarning {
		sevWord = "warning"
	}

	fmt.Fprintf(&sb, "%s[%s]: %s\n", sevWord, d.Code, d.Message)
	fmt.Fprintf(&sb, "  --> %s:%d:%d\n", d.Span.File, d.Span.Start.Line, d.Span.Start.Column)

	if d.SourceLine != "" {
		gutter := fmt.Sprintf("%4d | ", d.Span.Start.Line)
		sb.WriteString(gutter)
		sb.WriteString(d.SourceLine)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(gutter)+max(0, d.Span.Start.Column-1)))
		if color {
			if d.Severity == SeverityWarning {
				sb.WriteString("\033[1;33m")
			} else {
				sb.WriteString("\033[1;31m")
			}
		}
		width := d.Span.End.Column - d.Span.Start.Column
		if width < 1 {
			width = 1
		}
		sb.WriteString(strings.Repeat("^", width))
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if d.Suggestion != "" {
		fmt.Fprintf(&sb, "  = help: %s\n", d.Suggestion)
	}

	return sb.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// sourceLineOf extracts the 1-indexed line from source text, used by
// callers that build a Diagnostic from a Span plus the original buffer.
func sourceLineOf(source string, line int) string {
	if line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// New builds a Diagnostic, filling SourceLine from source text.
func New(code, message string, span token.Span, severity Severity, category Category, source string) Diagnostic {
	return Diagnostic{
		Code:       code,
		Message:    message,
		Span:       span,
		Severity:   severity,
		Category:   category,
		SourceLine: sourceLineOf(source, span.Start.Line),
	}
}

// WithSuggestion returns a copy of d with Suggestion set.
func (d Diagnostic) WithSuggestion(s string) Diagnostic {
	d.Suggestion = s
	return d
}
