package parser

import (
	"strings"

	"github.com/unkn0wn-root/httpfile/internal/restfile"
	"github.com/unkn0wn-root/httpfile/internal/scanner"
)

// parsePreRequestScript consumes '< {% ... %}' inline script blocks or
// '< path/to/script.js' file references before the request line.
func parsePreRequestScript(sc *scanner.Scanner) (*restfile.ScriptRef, *restfile.Diag) {
	sc.Take('<')
	start := sc.Pos()
	sc.SkipWS()

	if !sc.Match("{%") {
		line, ok := sc.ReadLine()
		path := strings.TrimSpace(line)
		if !ok || path == "" {
			d := restfile.NewDiagDetail(restfile.DiagMissingPreRequestScript, line, start)
			d.End = sc.Pos()
			return nil, &d
		}
		return &restfile.ScriptRef{FilePath: path}, nil
	}

	code, ok := collectScriptBlock(sc)
	if !ok {
		d := restfile.NewDiagSpan(restfile.DiagMissingPreRequestScriptClose, start, sc.Pos())
		return nil, &d
	}
	return &restfile.ScriptRef{Code: code}, nil
}

// parseResponseHandler consumes '> {% ... %}' or '> path' after the body.
// A '>>' redirect is left alone for parseRedirect. Returns nil when no
// handler is present.
func parseResponseHandler(sc *scanner.Scanner) (*restfile.ScriptRef, *restfile.Diag) {
	sc.SkipEmptyLines()
	sc.SkipWS()

	two, ok := sc.PeekN(2)
	if !ok || two[0] != '>' || two[1] == '>' {
		return nil, nil
	}
	sc.Take('>')
	sc.SkipWS()
	sc.SkipEmptyLines()

	start := sc.Pos()
	if sc.Match("{%") {
		code, ok := collectScriptBlock(sc)
		if !ok {
			d := restfile.NewDiagSpan(restfile.DiagMissingResponseHandlerClose, start, sc.Pos())
			return nil, &d
		}
		return &restfile.ScriptRef{Code: code}, nil
	}

	line, ok := sc.ReadLine()
	path := strings.TrimSpace(line)
	if !ok || path == "" {
		d := restfile.NewDiag(restfile.DiagMissingResponseHandlerClose, start)
		return nil, &d
	}
	return &restfile.ScriptRef{FilePath: path}, nil
}

// collectScriptBlock gathers lines after an opening '{%' until the line
// carrying '%}'. The closing line contributes its text before the marker.
// Collection fails at end of input and at a separator line, which stays
// unconsumed for resynchronization.
func collectScriptBlock(sc *scanner.Scanner) (string, bool) {
	var lines []string
	for {
		if peek, ok := sc.PeekLine(); ok && strings.HasPrefix(peek, RequestSeparator) {
			return "", false
		}
		if caps, ok := sc.MatchRegexp(scriptCloseRe); ok {
			lines = append(lines, caps[0])
			sc.SkipToNextLine()
			return strings.Join(lines, "\n"), true
		}
		line, ok := sc.ReadLine()
		if !ok {
			return "", false
		}
		lines = append(lines, line)
	}
}

// applyPlaceholders substitutes '{{id}}' markers in an absolute target
// with values assigned via request.variables.set in the inline pre-request
// script. Unknown placeholders stay as written; the first assignment of an
// id wins.
func applyPlaceholders(line *restfile.RequestLine, script *restfile.ScriptRef) {
	if script == nil || script.FromFile() {
		return
	}
	if line.Target.Kind != restfile.TargetAbsolute {
		return
	}
	if !strings.Contains(script.Code, "request.variables.set") {
		return
	}

	vars := make(map[string]string)
	for _, m := range varSetRe.FindAllStringSubmatch(script.Code, -1) {
		if _, seen := vars[m[1]]; !seen {
			vars[m[1]] = m[2]
		}
	}
	if len(vars) == 0 {
		return
	}

	line.Target.Value = placeholderRe.ReplaceAllStringFunc(line.Target.Value, func(ph string) string {
		id := ph[2 : len(ph)-2]
		if v, ok := vars[id]; ok {
			return v
		}
		return ph
	})
}
