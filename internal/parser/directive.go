package parser

import (
	"strings"

	"github.com/unkn0wn-root/httpfile/internal/restfile"
	"github.com/unkn0wn-root/httpfile/internal/scanner"
)

// parseComment consumes one comment line of any marker flavor. Returns
// ok=false without consuming anything when no comment marker is present.
func parseComment(sc *scanner.Scanner) (restfile.Comment, bool, *restfile.Diag) {
	sc.SkipEmptyLines()
	sc.SkipWS()

	var kind restfile.CommentKind
	switch {
	case sc.Match(RequestSeparator):
		kind = restfile.CommentSeparator
	case sc.Match(commentSlash):
		kind = restfile.CommentSlash
	case sc.Match(commentTag):
		kind = restfile.CommentTag
	default:
		return restfile.Comment{}, false, nil
	}
	return parseCommentLine(sc, kind)
}

// parseCommentLine reads the comment text after an already consumed
// marker. Trailing whitespace stays part of the text.
func parseCommentLine(sc *scanner.Scanner, kind restfile.CommentKind) (restfile.Comment, bool, *restfile.Diag) {
	sc.SkipWS()
	text, ok := sc.SeekThrough('\n')
	if !ok {
		d := restfile.NewDiag(restfile.DiagMissingRequestTargetLine, sc.Pos())
		return restfile.Comment{}, false, &d
	}
	return restfile.Comment{Text: text, Kind: kind}, true, nil
}

// metaEntry is one parsed meta-directive line, either a request name or a
// settings toggle.
type metaEntry struct {
	name   string
	toggle func(*restfile.Settings)
}

func (e metaEntry) apply(st *requestState) {
	if e.toggle != nil {
		e.toggle(&st.settings)
		return
	}
	if e.name != "" {
		st.name = e.name
	}
}

// parseMetaCommentLine recognizes '# @name = ...' and the settings
// directives. A plain comment line is left untouched for parseComment.
func parseMetaCommentLine(sc *scanner.Scanner) (metaEntry, bool) {
	sc.SkipWS()
	line, ok := sc.PeekLine()
	if !ok {
		return metaEntry{}, false
	}

	// probe on a sub-cursor so a regular comment keeps its position
	sub := scanner.New(line)
	sub.SkipWS()
	if !sub.Match(commentSlash) && !sub.Match(commentTag) {
		return metaEntry{}, false
	}

	if caps, ok := sub.MatchRegexp(metaNameRe); ok {
		sc.SkipToNextLine()
		return metaEntry{name: strings.TrimSpace(caps[0])}, true
	}

	rest, ok := sub.PeekLine()
	if !ok {
		return metaEntry{}, false
	}
	var toggle func(*restfile.Settings)
	switch strings.TrimSpace(rest) {
	case "@no-cookie-jar":
		toggle = func(s *restfile.Settings) { s.NoCookieJar = true }
	case "@no-redirect":
		toggle = func(s *restfile.Settings) { s.NoRedirect = true }
	case "@no-log":
		toggle = func(s *restfile.Settings) { s.NoLog = true }
	default:
		return metaEntry{}, false
	}
	sc.SkipToNextLine()
	return metaEntry{toggle: toggle}, true
}

// parseRedirect consumes a '>> path' or '>>! path' response redirect.
// Returns nil when the cursor does not sit on a redirect.
func parseRedirect(sc *scanner.Scanner) (*restfile.SaveResponse, *restfile.Diag) {
	sc.SkipEmptyLines()
	start := sc.Pos()
	if !sc.Match(">>") {
		return nil, nil
	}
	overwrite := sc.Take('!')

	line, ok := sc.ReadLine()
	path := strings.TrimSpace(line)
	if !ok || path == "" {
		d := restfile.NewDiagSpan(restfile.DiagMissingResponseOutputPath, start, sc.Pos())
		return nil, &d
	}
	return &restfile.SaveResponse{Path: path, Overwrite: overwrite}, nil
}
