package parser

import (
	"strings"

	"github.com/unkn0wn-root/httpfile/internal/restfile"
	"github.com/unkn0wn-root/httpfile/internal/scanner"
)

// parseRequestLine reads the request line including indented continuation
// lines. Continuations are trimmed and concatenated without a separator,
// so a URL may be split across lines and the version may sit on the last
// one. The third return value is a fatal diagnostic; the slice carries
// recoverable ones.
func parseRequestLine(sc *scanner.Scanner) (restfile.RequestLine, []restfile.Diag, *restfile.Diag) {
	lineStart := sc.Pos()

	first, ok := sc.ReadLine()
	if !ok {
		d := restfile.NewDiag(restfile.DiagMissingRequestTargetLine, lineStart)
		return restfile.RequestLine{}, nil, &d
	}

	folded := strings.TrimSpace(first)
	for {
		next, ok := sc.PeekLine()
		if !ok || next == "" {
			break
		}
		if next[0] != ' ' && next[0] != '\t' {
			break
		}
		cont, _ := sc.ReadLine()
		folded += strings.TrimSpace(cont)
	}
	lineEnd := sc.Pos()

	tokens := strings.Fields(folded)

	// a header field where the request line should be means the target
	// line is missing entirely
	if len(tokens) >= 2 && strings.Contains(tokens[0], ":") {
		d := restfile.NewDiagDetail(restfile.DiagMissingRequestTargetLine, folded, lineStart)
		return restfile.RequestLine{}, nil, &d
	}

	var line restfile.RequestLine
	var diags []restfile.Diag

	switch len(tokens) {
	case 0:
		d := restfile.NewDiag(restfile.DiagMissingRequestTargetLine, lineStart)
		return restfile.RequestLine{}, nil, &d
	case 1:
		line.Target = restfile.TargetFrom(tokens[0])
	case 2:
		line.Method = restfile.Some(tokens[0])
		line.Target = restfile.TargetFrom(tokens[1])
	default:
		line.Method = restfile.Some(tokens[0])
		line.Target = restfile.TargetFrom(tokens[1])
		if httpVersionRe.MatchString(tokens[2]) {
			line.Version = restfile.Some(tokens[2])
		} else if len(tokens) == 3 {
			diags = append(diags, restfile.NewDiagSpan(restfile.DiagInvalidHTTPVersion, lineStart, lineEnd))
		}
		if len(tokens) > 3 {
			d := restfile.NewDiagDetail(restfile.DiagTooManyElementsOnRequestLine, strings.Join(tokens[3:], ","), lineStart)
			d.End = lineEnd
			diags = append(diags, d)
		}
	}
	return line, diags, nil
}
