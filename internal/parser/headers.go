package parser

import (
	"github.com/unkn0wn-root/httpfile/internal/restfile"
	"github.com/unkn0wn-root/httpfile/internal/scanner"
)

// parseHeaders reads 'Key: Value' lines until a blank line or end of
// input. Keys keep their exact spelling; values lose surrounding
// whitespace. Any non-matching line is fatal.
func parseHeaders(sc *scanner.Scanner) ([]restfile.Header, *restfile.Diag) {
	var headers []restfile.Header
	for {
		if sc.IsDone() {
			return headers, nil
		}
		if ch, ok := sc.Peek(); ok && ch == '\n' {
			return headers, nil
		}

		start := sc.Pos()
		line, _ := sc.ReadLine()
		m := headerFieldRe.FindStringSubmatch(line)
		if m == nil {
			d := restfile.NewDiagDetail(restfile.DiagInvalidHeaderField, line, start)
			return headers, &d
		}
		headers = append(headers, restfile.Header{Key: m[1], Value: m[2]})
	}
}
