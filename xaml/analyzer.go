// Package xaml analyzes XAML UI markup without involving the language
// server: a tree walk over the parsed document plus a handful of regex
// heuristics for markup extensions.
package xaml

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

// Severity mirrors diagnostic severities so tool output reads uniformly.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is one analyzer result. Line/Column are 1-based.
type Finding struct {
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

var (
	bindingRe        = regexp.MustCompile(`\{Binding\b([^}]*)\}`)
	staticResourceRe = regexp.MustCompile(`\{(?:StaticResource|DynamicResource)\s+([A-Za-z_][\w.]*)\s*\}`)
	eventHandlerRe   = regexp.MustCompile(`^(?:Click|Loaded|Unloaded|Checked|Unchecked|SelectionChanged|TextChanged|MouseDown|MouseUp|KeyDown|KeyUp|GotFocus|LostFocus)$`)
)

// AnalyzeFile reads and analyzes one XAML document.
func AnalyzeFile(path string) ([]Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read xaml file: %w", err)
	}
	return Analyze(string(data)), nil
}

// Analyze inspects XAML source and reports structural and heuristic issues:
// malformed markup, duplicate x:Name values, suspicious bindings, and
// references to resources the document never defines.
func Analyze(source string) []Finding {
	var findings []Finding

	decoder := xml.NewDecoder(strings.NewReader(source))

	names := map[string]int{}        // x:Name -> first line seen
	resourceKeys := map[string]bool{} // x:Key values defined in the document
	var handlers []Finding

	for {
		tok, err := decoder.Token()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				line, col := position(source, decoder.InputOffset())
				findings = append(findings, Finding{
					Line:     line,
					Column:   col,
					Severity: SeverityError,
					Code:     "XAML001",
					Message:  "malformed markup: " + err.Error(),
				})
			}
			break
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		line, col := position(source, decoder.InputOffset())

		for _, attr := range start.Attr {
			switch {
			case attr.Name.Local == "Name" && isXNamespace(attr.Name.Space):
				if firstLine, seen := names[attr.Value]; seen {
					findings = append(findings, Finding{
						Line:     line,
						Column:   col,
						Severity: SeverityError,
						Code:     "XAML002",
						Message:  fmt.Sprintf("duplicate x:Name %q (first declared near line %d)", attr.Value, firstLine),
					})
				} else {
					names[attr.Value] = line
				}

			case attr.Name.Local == "Key" && isXNamespace(attr.Name.Space):
				resourceKeys[attr.Value] = true

			case eventHandlerRe.MatchString(attr.Name.Local):
				handlers = append(handlers, Finding{
					Line:     line,
					Column:   col,
					Severity: SeverityInfo,
					Code:     "XAML010",
					Message:  fmt.Sprintf("event handler %s=%q requires a code-behind method", attr.Name.Local, attr.Value),
				})
			}

			findings = append(findings, checkBinding(attr, line, col)...)
		}
	}

	findings = append(findings, checkResourceReferences(source, resourceKeys)...)
	findings = append(findings, handlers...)
	return findings
}

// checkBinding flags empty and malformed binding expressions.
func checkBinding(attr xml.Attr, line, col int) []Finding {
	var findings []Finding
	for _, m := range bindingRe.FindAllStringSubmatch(attr.Value, -1) {
		body := strings.TrimSpace(m[1])
		if body == "" {
			findings = append(findings, Finding{
				Line:     line,
				Column:   col,
				Severity: SeverityWarning,
				Code:     "XAML020",
				Message:  fmt.Sprintf("empty {Binding} on %s binds to the DataContext itself; specify a Path if that is not intended", attr.Name.Local),
			})
			continue
		}
		if strings.HasPrefix(body, ",") {
			findings = append(findings, Finding{
				Line:     line,
				Column:   col,
				Severity: SeverityWarning,
				Code:     "XAML021",
				Message:  fmt.Sprintf("binding on %s has no path before its options: {Binding%s}", attr.Name.Local, m[1]),
			})
		}
	}
	return findings
}

// checkResourceReferences reports StaticResource/DynamicResource lookups with
// no matching x:Key in the same document. Cross-dictionary references are a
// fact of life in XAML, so this is a warning, not an error.
func checkResourceReferences(source string, defined map[string]bool) []Finding {
	var findings []Finding
	reported := map[string]bool{}

	for _, loc := range staticResourceRe.FindAllStringSubmatchIndex(source, -1) {
		key := source[loc[2]:loc[3]]
		if defined[key] || reported[key] {
			continue
		}
		reported[key] = true
		line, col := position(source, int64(loc[0]))
		findings = append(findings, Finding{
			Line:     line,
			Column:   col,
			Severity: SeverityWarning,
			Code:     "XAML030",
			Message:  fmt.Sprintf("resource %q is not defined in this document (may come from a merged dictionary)", key),
		})
	}
	return findings
}

func isXNamespace(space string) bool {
	return space == "http://schemas.microsoft.com/winfx/2006/xaml" || space == "x"
}

// position converts a byte offset into 1-based line/column.
func position(source string, offset int64) (line, col int) {
	if offset > int64(len(source)) {
		offset = int64(len(source))
	}
	prefix := source[:offset]
	line = strings.Count(prefix, "\n") + 1
	lastNL := strings.LastIndex(prefix, "\n")
	col = int(offset) - lastNL
	return line, col
}
