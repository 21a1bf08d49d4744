package restfile

import "fmt"

// DiagKind is the closed set of parse diagnostics. Kinds that carry a
// variable part (offending text, defaulted value) put it in Diag.Detail.
type DiagKind int

const (
	DiagUnknown DiagKind = iota
	DiagMissingRequestTargetLine
	DiagTooManyElementsOnRequestLine
	DiagInvalidHTTPVersion
	DiagInvalidHeaderField
	DiagMissingMultipartHeaderBoundaryDefinition
	DiagInvalidMultipartBoundaryLength
	DiagInvalidMultipartBoundaryCharacter
	DiagMissingMultipartStartingBoundary
	DiagMissingMultipartBoundary
	DiagInvalidSingleMultipartHeaders
	DiagMissingSingleMultipartContentDispositionHeader
	DiagWrongMultipartContentDispositionHeader
	DiagInvalidMultipartContentDispositionFormData
	DiagMalformedContentDispositionEntries
	DiagSingleMultipartNameMissing
	DiagSingleMultipartMissingEmptyLine
	DiagMultipartShouldBeEndedWithBoundary
	DiagMissingPreRequestScript
	DiagMissingPreRequestScriptClose
	DiagMissingResponseHandlerClose
	DiagMissingResponseOutputPath
	DiagCouldNotReadRequestFile
)

// NoPos marks an offset the parser could not determine.
const NoPos = -1

// Diag is one diagnostic: a closed kind, an optional elaboration and
// optional start/end byte offsets into the source text.
type Diag struct {
	Kind   DiagKind
	Detail string
	Start  int
	End    int
}

func NewDiag(kind DiagKind, start int) Diag {
	return Diag{Kind: kind, Start: start, End: NoPos}
}

func NewDiagSpan(kind DiagKind, start, end int) Diag {
	return Diag{Kind: kind, Start: start, End: end}
}

func NewDiagDetail(kind DiagKind, detail string, start int) Diag {
	return Diag{Kind: kind, Detail: detail, Start: start, End: NoPos}
}

func (d Diag) HasStart() bool {
	return d.Start != NoPos
}

func (d Diag) HasEnd() bool {
	return d.End != NoPos
}

func (d Diag) Message() string {
	base := d.Kind.message()
	if d.Detail == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, d.Detail)
}

func (k DiagKind) message() string {
	switch k {
	case DiagMissingRequestTargetLine:
		return "missing request target line"
	case DiagTooManyElementsOnRequestLine:
		return "too many elements on the request line, expected '[method] target [version]'"
	case DiagInvalidHTTPVersion:
		return "invalid http version, expected the form HTTP/<major>.<minor>"
	case DiagInvalidHeaderField:
		return "invalid header field, expected '<key>: <value>'"
	case DiagMissingMultipartHeaderBoundaryDefinition:
		return "multipart content type is missing its boundary definition, using default"
	case DiagInvalidMultipartBoundaryLength:
		return "multipart boundary must be between 1 and 70 characters long"
	case DiagInvalidMultipartBoundaryCharacter:
		return "multipart boundary contains an invalid character"
	case DiagMissingMultipartStartingBoundary:
		return "multipart part does not start with its boundary line"
	case DiagMissingMultipartBoundary:
		return "expected a multipart boundary or end boundary after the part"
	case DiagInvalidSingleMultipartHeaders:
		return "invalid headers within multipart part"
	case DiagMissingSingleMultipartContentDispositionHeader:
		return "multipart part requires a Content-Disposition header"
	case DiagWrongMultipartContentDispositionHeader:
		return "first header of a multipart part must be Content-Disposition"
	case DiagInvalidMultipartContentDispositionFormData:
		return "multipart Content-Disposition must have primary value 'form-data'"
	case DiagMalformedContentDispositionEntries:
		return "malformed Content-Disposition parameters"
	case DiagSingleMultipartNameMissing:
		return "multipart part has an empty 'name' disposition field"
	case DiagSingleMultipartMissingEmptyLine:
		return "multipart part headers must be followed by a blank line"
	case DiagMultipartShouldBeEndedWithBoundary:
		return "multipart body must be closed with its end boundary"
	case DiagMissingPreRequestScript:
		return "expected a '{% %}' block or a file path after '<'"
	case DiagMissingPreRequestScriptClose:
		return "pre-request script block is missing its '%}' close"
	case DiagMissingResponseHandlerClose:
		return "response handler is missing its script block or file path"
	case DiagMissingResponseOutputPath:
		return "redirect is missing its output path"
	case DiagCouldNotReadRequestFile:
		return "could not read request file"
	default:
		return "unknown parse error"
	}
}
