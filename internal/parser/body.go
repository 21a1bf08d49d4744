package parser

import (
	"fmt"
	"strings"

	"github.com/unkn0wn-root/httpfile/internal/restfile"
	"github.com/unkn0wn-root/httpfile/internal/scanner"
)

// parseBody dispatches on the Content-Type header. multipart/form-data and
// application/x-www-form-urlencoded get structured parses, everything else
// is raw text. A Content-Type with no following content yields an empty
// raw body rather than none.
func parseBody(sc *scanner.Scanner, headers []restfile.Header) (restfile.Body, []restfile.Diag, *restfile.Diag) {
	var contentType string
	var hasContentType bool
	for _, h := range headers {
		if h.Key == "Content-Type" {
			contentType = h.Value
			hasContentType = true
			break
		}
	}

	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		return parseMultipartBody(sc, contentType)
	case contentType == "application/x-www-form-urlencoded":
		return parseURLEncodedBody(sc), nil, nil
	default:
		body := parseRawBody(sc)
		if hasContentType && body.Kind == restfile.BodyNone {
			body = restfile.Body{Kind: restfile.BodyRaw, Raw: restfile.DataSource{Text: ""}}
		}
		return body, nil, nil
	}
}

func parseRawBody(sc *scanner.Scanner) restfile.Body {
	if sc.IsDone() {
		return restfile.Body{Kind: restfile.BodyNone}
	}

	start := sc.Pos()
	for {
		peek, ok := sc.PeekLine()
		if !ok {
			break
		}
		if strings.HasPrefix(peek, RequestSeparator) {
			break
		}
		// response handler or redirect; a single blank line before it is
		// presentation, not body content
		if strings.HasPrefix(peek, ">") {
			if prev, ok := sc.PrevLine(); ok && strings.TrimSpace(prev) == "" {
				sc.StepToPreviousLineStart()
			}
			break
		}
		sc.SkipToNextLine()
	}
	end := sc.Pos()
	if end < start {
		end = start
	}

	bodyStr := sc.Slice(start, end)
	switch trimmed := strings.TrimSpace(bodyStr); {
	case strings.HasPrefix(trimmed, "<"):
		path := strings.TrimSpace(strings.SplitN(trimmed, "<", 2)[1])
		return restfile.Body{Kind: restfile.BodyRaw, Raw: restfile.DataSource{FilePath: path}}
	case bodyStr != "":
		// trailing newlines are not body content
		return restfile.Body{Kind: restfile.BodyRaw, Raw: restfile.DataSource{Text: strings.TrimRight(bodyStr, "\n")}}
	default:
		return restfile.Body{Kind: restfile.BodyNone}
	}
}

func parseURLEncodedBody(sc *scanner.Scanner) restfile.Body {
	body := restfile.Body{Kind: restfile.BodyURLEncoded}

	line, ok := sc.PeekLine()
	if !ok {
		return body
	}
	line = strings.TrimSpace(line)
	if strings.HasPrefix(line, RequestSeparator) {
		return body
	}
	sc.SkipToNextLine()

	for _, pair := range strings.Split(line, "&") {
		kv := strings.Split(pair, "=")
		param := restfile.FormParam{Key: kv[0]}
		if len(kv) > 1 {
			param.Value = kv[1]
		}
		body.Params = append(body.Params, param)
	}
	return body
}

func parseMultipartBody(sc *scanner.Scanner, contentType string) (restfile.Body, []restfile.Diag, *restfile.Diag) {
	var diags []restfile.Diag
	boundary := DefaultMultipartBoundary

	if m := boundaryDefRe.FindStringSubmatch(contentType); m != nil && m[1] != "" {
		boundary = m[1]
		if strings.HasPrefix(boundary, `"`) && strings.HasSuffix(boundary, `"`) {
			boundary = boundary[1 : len(boundary)-1]
		}
	} else {
		diags = append(diags, restfile.NewDiagDetail(
			restfile.DiagMissingMultipartHeaderBoundaryDefinition, DefaultMultipartBoundary, sc.Pos()))
	}
	if d := validateBoundary(boundary); d != nil {
		diags = append(diags, *d)
	}

	parts, partDiags, fatal := parseMultipartParts(sc, boundary)
	diags = append(diags, partDiags...)
	if fatal != nil {
		return restfile.Body{Kind: restfile.BodyNone}, diags, fatal
	}
	return restfile.Body{Kind: restfile.BodyMultipart, Boundary: boundary, Parts: parts}, diags, nil
}

// validateBoundary enforces RFC 2046 section 5.1.1: one to seventy
// characters from the bcharsnospace alphabet.
func validateBoundary(boundary string) *restfile.Diag {
	if len(boundary) < 1 || len(boundary) > 70 {
		d := restfile.NewDiag(restfile.DiagInvalidMultipartBoundaryLength, restfile.NoPos)
		return &d
	}
	for i := 0; i < len(boundary); i++ {
		switch c := boundary[i]; {
		case c >= '0' && c <= '9',
			c >= 'a' && c <= 'z',
			c >= 'A' && c <= 'Z':
		case strings.IndexByte(`'()+,-./:=?`, c) >= 0:
		default:
			d := restfile.NewDiagDetail(restfile.DiagInvalidMultipartBoundaryCharacter, string(c), restfile.NoPos)
			return &d
		}
	}
	return nil
}

func parseMultipartParts(sc *scanner.Scanner, boundary string) ([]restfile.Part, []restfile.Diag, *restfile.Diag) {
	sc.SkipEmptyLines()

	boundaryLine := "--" + boundary
	endLine := boundaryLine + "--"

	var parts []restfile.Part
	var diags []restfile.Diag
	for {
		part, partDiags, fatal := parseMultipartPart(sc, boundary)
		diags = append(diags, partDiags...)
		if fatal != nil {
			return nil, diags, fatal
		}
		parts = append(parts, part)

		if sc.IsDone() {
			return parts, diags, nil
		}
		peek, _ := sc.PeekLine()
		if peek == endLine {
			sc.SkipToNextLine()
			return parts, diags, nil
		}
		if strings.HasPrefix(peek, boundaryLine) {
			continue
		}
		if strings.HasPrefix(peek, RequestSeparator) {
			d := restfile.NewDiagDetail(restfile.DiagMultipartShouldBeEndedWithBoundary, endLine, sc.Pos())
			return nil, diags, &d
		}
		d := restfile.NewDiagDetail(restfile.DiagMissingMultipartBoundary,
			fmt.Sprintf("%s or %s", boundaryLine, endLine), sc.Pos())
		return nil, diags, &d
	}
}

func parseMultipartPart(sc *scanner.Scanner, boundary string) (restfile.Part, []restfile.Diag, *restfile.Diag) {
	boundaryLine := "--" + boundary
	endLine := boundaryLine + "--"

	if !sc.Match(boundaryLine) {
		d := restfile.NewDiag(restfile.DiagMissingMultipartStartingBoundary, sc.Pos())
		return restfile.Part{}, nil, &d
	}
	sc.SkipToNextLine()

	start := sc.Pos()
	partHeaders, headerFatal := parseHeaders(sc)
	if headerFatal != nil {
		d := restfile.NewDiagDetail(restfile.DiagInvalidSingleMultipartHeaders, headerFatal.Message(), sc.Pos())
		return restfile.Part{}, nil, &d
	}
	end := sc.Pos()

	if len(partHeaders) == 0 {
		d := restfile.NewDiagSpan(restfile.DiagMissingSingleMultipartContentDispositionHeader, start, end)
		return restfile.Part{}, nil, &d
	}

	disposition, rest, dispFatal := parseDisposition(partHeaders, start, end)
	if dispFatal != nil {
		return restfile.Part{}, nil, dispFatal
	}

	part := restfile.Part{Disposition: disposition, Headers: rest}

	var diags []restfile.Diag
	if disposition.Name == "" {
		joined := make([]string, len(rest))
		for i, h := range rest {
			joined[i] = h.String()
		}
		d := restfile.NewDiagDetail(restfile.DiagSingleMultipartNameMissing,
			"["+strings.Join(joined, ", ")+"]", start)
		d.End = end
		diags = append(diags, d)
	}

	if !sc.Match("\n") {
		d := restfile.NewDiag(restfile.DiagSingleMultipartMissingEmptyLine, sc.Pos())
		return restfile.Part{}, diags, &d
	}

	peek, ok := sc.PeekLine()
	if !ok {
		d := restfile.NewDiagDetail(restfile.DiagMultipartShouldBeEndedWithBoundary, endLine, restfile.NoPos)
		return restfile.Part{}, diags, &d
	}

	// a part reading its data from a file is a single '< path' line
	if strings.HasPrefix(peek, "<") {
		line, _ := sc.ReadLine()
		line = strings.TrimSpace(line)
		part.Data = restfile.DataSource{FilePath: strings.TrimSpace(line[1:])}
		return part, diags, nil
	}

	var text strings.Builder
	for {
		peek, ok := sc.PeekLine()
		if !ok {
			d := restfile.NewDiagDetail(restfile.DiagMultipartShouldBeEndedWithBoundary, endLine, restfile.NoPos)
			return restfile.Part{}, diags, &d
		}
		if peek == boundaryLine || peek == endLine {
			part.Data = restfile.DataSource{Text: text.String()}
			return part, diags, nil
		}
		// a separator means the body ran out without its end boundary;
		// leave it unconsumed so the driver can resynchronize
		if strings.HasPrefix(peek, RequestSeparator) {
			d := restfile.NewDiagDetail(restfile.DiagMultipartShouldBeEndedWithBoundary, endLine, sc.Pos())
			return restfile.Part{}, diags, &d
		}
		line, _ := sc.ReadLine()
		text.WriteString(line)
		if next, ok := sc.PeekLine(); !ok || !strings.HasPrefix(next, boundaryLine) {
			text.WriteString("\n")
		}
	}
}

// parseDisposition splits a Content-Disposition header into its typed
// fields. Only the form-data disposition type is accepted.
func parseDisposition(headers []restfile.Header, start, end int) (restfile.Disposition, []restfile.Header, *restfile.Diag) {
	first, rest := headers[0], headers[1:]
	if first.Key != "Content-Disposition" {
		d := restfile.NewDiagDetail(restfile.DiagWrongMultipartContentDispositionHeader, first.Key, start)
		d.End = end
		return restfile.Disposition{}, nil, &d
	}

	pieces := strings.Split(first.Value, ";")
	dispType := strings.TrimSpace(pieces[0])
	if dispType != "form-data" {
		d := restfile.NewDiagDetail(restfile.DiagInvalidMultipartContentDispositionFormData, dispType, start)
		d.End = end
		return restfile.Disposition{}, nil, &d
	}

	var field restfile.Disposition
	for _, piece := range pieces[1:] {
		kv := strings.Split(piece, "=")
		if len(kv) != 2 {
			d := restfile.NewDiagDetail(restfile.DiagMalformedContentDispositionEntries, piece, restfile.NoPos)
			return restfile.Disposition{}, nil, &d
		}
		key, value := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
			value = value[1 : len(value)-1]
		}
		switch key {
		case "name":
			field.Name = value
		case "filename":
			field.Filename = value
		case "filename*":
			field.FilenameStar = value
		}
	}
	return field, rest, nil
}
