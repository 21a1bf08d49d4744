// Package parser turns request-file text into the restfile document model.
// One malformed request never aborts the file: the driver collects a
// partial request plus diagnostics and resynchronizes at the next '###'
// separator line.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/unkn0wn-root/httpfile/internal/restfile"
	"github.com/unkn0wn-root/httpfile/internal/scanner"
)

const (
	RequestSeparator = "###"
	commentSlash     = "//"
	commentTag       = "#"

	// DefaultMultipartBoundary substitutes for a multipart Content-Type
	// that omits its boundary definition.
	DefaultMultipartBoundary = "--boundary--"
)

var (
	metaNameRe    = regexp.MustCompile(`^\s*@name\s*=\s*(.*)`)
	httpVersionRe = regexp.MustCompile(`^HTTP/\d+\.\d+$`)
	headerFieldRe = regexp.MustCompile(`^([^:]+):\s*(.+?)\s*$`)
	boundaryDefRe = regexp.MustCompile(`^multipart/form-data\s*(?:;\s*boundary\s*=\s*(.+))?`)
	scriptCloseRe = regexp.MustCompile(`(.*)%}`)
	varSetRe      = regexp.MustCompile(`request\.variables\.set\("(\w+)", "(\w+)"\)`)
	placeholderRe = regexp.MustCompile(`\{\{(\w+)\}\}`)
)

// DiagSink receives rendered diagnostics. The parser never writes to a
// terminal itself.
type DiagSink interface {
	Emit(string)
}

type SinkFunc func(string)

func (f SinkFunc) Emit(s string) { f(s) }

// Parse consumes the whole text and returns successful requests and
// failure records in source order. When sink is non-nil, a rendered
// summary of every collected diagnostic is emitted to it, the
// recoverable ones of successful requests included.
func Parse(text string, sink DiagSink) *restfile.Document {
	text = normalizeNewlines(text)
	sc := scanner.New(text)
	doc := &restfile.Document{}

	for {
		sc.SkipEmptyLinesAndWS()
		if sc.IsDone() {
			break
		}

		req, fail := ParseRequest(sc)
		if fail != nil {
			doc.Failures = append(doc.Failures, *fail)
		} else {
			doc.Requests = append(doc.Requests, req)
		}

		sc.SkipEmptyLines()
		sc.SkipWS()
		if sc.IsDone() {
			break
		}

		// resynchronize at the next separator that starts a request
		for {
			line, ok := sc.PeekLine()
			if !ok || strings.HasPrefix(strings.TrimLeft(line, scanner.WSChars), RequestSeparator) {
				break
			}
			sc.SkipToNextLine()
		}

		sc.SkipEmptyLines()
		sc.SkipWS()
		if sc.IsDone() {
			break
		}
	}

	if sink != nil {
		var diags []restfile.Diag
		for _, req := range doc.Requests {
			diags = append(diags, req.Diags...)
		}
		for _, failure := range doc.Failures {
			diags = append(diags, failure.Diags...)
		}
		if len(diags) > 0 {
			sink.Emit(FormatDiags(text, diags))
		}
	}
	return doc
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}

// requestState accumulates one request across the parse stages so a fatal
// error can still hand back everything parsed so far.
type requestState struct {
	name      string
	comments  []restfile.Comment
	settings  restfile.Settings
	preScript *restfile.ScriptRef
	line      *restfile.RequestLine
	headers   []restfile.Header
	body      *restfile.Body
	handler   *restfile.ScriptRef
	save      *restfile.SaveResponse

	diags []restfile.Diag
	fatal bool
}

func (st *requestState) push(d restfile.Diag) {
	st.diags = append(st.diags, d)
}

func (st *requestState) pushFatal(d restfile.Diag) {
	st.diags = append(st.diags, d)
	st.fatal = true
}

func (st *requestState) partial() restfile.PartialRequest {
	return restfile.PartialRequest{
		Name:             st.name,
		Comments:         st.comments,
		Settings:         st.settings,
		PreRequestScript: st.preScript,
		Line:             st.line,
		Headers:          st.headers,
		Body:             st.body,
		ResponseHandler:  st.handler,
		SaveResponse:     st.save,
	}
}

func (st *requestState) failure() *restfile.Failure {
	return &restfile.Failure{Partial: st.partial(), Diags: st.diags}
}

// ParseRequest parses a single request from the cursor, stopping at end of
// input or just before the next separator line. Callers managing their own
// cursor can use it directly; Parse drives it across a whole file.
func ParseRequest(sc *scanner.Scanner) (*restfile.Request, *restfile.Failure) {
	st := &requestState{}

	sc.SkipEmptyLines()

	// directive loop: pre-request script, meta-directives and comments in
	// any order until the request line begins.
	for {
		if ch, ok := sc.Peek(); ok && ch == '<' {
			script, diag := parsePreRequestScript(sc)
			if diag != nil {
				st.pushFatal(*diag)
				return nil, st.failure()
			}
			st.preScript = script
			continue
		}

		if entry, ok := parseMetaCommentLine(sc); ok {
			entry.apply(st)
			continue
		}

		comment, ok, diag := parseComment(sc)
		if diag != nil {
			st.pushFatal(*diag)
			break
		}
		if !ok {
			break
		}
		st.comments = append(st.comments, comment)
	}

	// only comments and no request content
	if sc.IsDone() {
		st.pushFatal(restfile.NewDiag(restfile.DiagMissingRequestTargetLine, sc.Pos()))
		return nil, st.failure()
	}

	// without an explicit @name the first separator comment becomes the
	// request name and leaves the comment list
	if st.name == "" {
		for i, c := range st.comments {
			if c.Kind != restfile.CommentSeparator {
				continue
			}
			text := strings.TrimSpace(c.Text)
			st.comments = append(st.comments[:i], st.comments[i+1:]...)
			if text != "" {
				st.name = text
			}
			break
		}
	}

	line, lineDiags, lineFatal := parseRequestLine(sc)
	if lineFatal != nil {
		st.pushFatal(*lineFatal)
	} else {
		st.diags = append(st.diags, lineDiags...)
		applyPlaceholders(&line, st.preScript)
		st.line = &line
	}

	// a separator directly after the request line ends the request with
	// empty headers and no body
	if peek, ok := sc.PeekLine(); ok && strings.HasPrefix(strings.TrimSpace(peek), RequestSeparator) {
		if st.line == nil || st.fatal {
			return nil, st.failure()
		}
		return st.build(), nil
	}

	headers, headerFatal := parseHeaders(sc)
	st.headers = headers
	if headerFatal != nil {
		st.pushFatal(*headerFatal)
		return nil, st.failure()
	}

	sc.SkipEmptyLines()

	body, bodyDiags, bodyFatal := parseBody(sc, headers)
	st.diags = append(st.diags, bodyDiags...)
	if bodyFatal != nil {
		// the body slot still carries a best-effort value; later stages
		// may add more context before the failure is returned
		st.pushFatal(*bodyFatal)
	}
	st.body = &body

	handler, handlerFatal := parseResponseHandler(sc)
	if handlerFatal != nil {
		st.pushFatal(*handlerFatal)
		return nil, st.failure()
	}
	st.handler = handler

	sc.SkipEmptyLines()

	save, saveFatal := parseRedirect(sc)
	if saveFatal != nil {
		st.pushFatal(*saveFatal)
		return nil, st.failure()
	}
	st.save = save

	sc.SkipEmptyLines()

	if st.fatal {
		return nil, st.failure()
	}
	return st.build(), nil
}

// build converts the accumulated state into an immutable Request. Only
// called once every required field parsed without a fatal diagnostic.
func (st *requestState) build() *restfile.Request {
	req := &restfile.Request{
		Name:             st.name,
		Comments:         st.comments,
		Settings:         st.settings,
		PreRequestScript: st.preScript,
		Line:             *st.line,
		ResponseHandler:  st.handler,
		SaveResponse:     st.save,
		Diags:            st.diags,
	}
	if st.headers != nil {
		req.Headers = st.headers
	}
	if st.body != nil {
		req.Body = *st.body
	}

	// last naming fallback: the first comment without a meta '@' sign
	if req.Name == "" {
		for i, c := range req.Comments {
			if strings.Contains(c.Text, "@") {
				continue
			}
			req.Name = c.Text
			req.Comments = append(req.Comments[:i], req.Comments[i+1:]...)
			break
		}
	}
	return req
}

const diagSeparatorWidth = 50

// FormatFailures renders every diagnostic of every failure.
func FormatFailures(src string, failures []restfile.Failure) string {
	var diags []restfile.Diag
	for _, failure := range failures {
		diags = append(diags, failure.Diags...)
	}
	return FormatDiags(src, diags)
}

// FormatDiags renders each diagnostic with its position and source
// excerpt, joined by a dashed separator line.
func FormatDiags(src string, diags []restfile.Diag) string {
	src = normalizeNewlines(src)
	sc := scanner.New(src)

	var rendered []string
	for _, d := range diags {
		rendered = append(rendered, formatDiag(sc, d))
	}
	sep := fmt.Sprintf("\n%s\n", strings.Repeat("-", diagSeparatorWidth))
	return strings.Join(rendered, sep)
}

func formatDiag(sc *scanner.Scanner, d restfile.Diag) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Error: %s\n", d.Message())
	if d.HasStart() {
		end := d.End
		if !d.HasEnd() {
			end = d.Start
		}
		ctx := sc.ErrorContext(d.Start, end)
		fmt.Fprintf(&b, "Position: %d:%d\n", ctx.Line, ctx.Column)
		b.WriteString(ctx.Excerpt)
	}
	return b.String()
}
