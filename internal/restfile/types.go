package restfile

import "strings"

const (
	DefaultMethod      = "GET"
	DefaultHTTPVersion = "HTTP/1.1"
)

// Opt distinguishes a value the author wrote from one that was defaulted
// because it was omitted. Serializers must never print defaulted values.
type Opt[T any] struct {
	Val T
	Set bool
}

func Some[T any](v T) Opt[T] {
	return Opt[T]{Val: v, Set: true}
}

func (o Opt[T]) Or(def T) T {
	if o.Set {
		return o.Val
	}
	return def
}

type CommentKind int

const (
	CommentSeparator CommentKind = iota
	CommentSlash
	CommentTag
)

func (k CommentKind) Marker() string {
	switch k {
	case CommentSeparator:
		return "###"
	case CommentSlash:
		return "//"
	default:
		return "#"
	}
}

type Comment struct {
	Text string
	Kind CommentKind
}

// Settings are toggled incrementally by meta-directives; the zero value
// means no directive was present.
type Settings struct {
	NoCookieJar bool
	NoRedirect  bool
	NoLog       bool
}

type TargetKind int

const (
	// TargetAbsolute covers both scheme-qualified URIs and the bare
	// host[:port][/path] shorthand clients accept without a scheme.
	TargetAbsolute TargetKind = iota
	// TargetOrigin is an origin-relative path starting with '/'.
	TargetOrigin
	// TargetAsterisk is the '*' form used with OPTIONS.
	TargetAsterisk
)

type Target struct {
	Kind  TargetKind
	Value string
}

func TargetFrom(raw string) Target {
	switch {
	case raw == "*":
		return Target{Kind: TargetAsterisk, Value: raw}
	case strings.HasPrefix(raw, "/"):
		return Target{Kind: TargetOrigin, Value: raw}
	default:
		return Target{Kind: TargetAbsolute, Value: raw}
	}
}

type RequestLine struct {
	Method  Opt[string]
	Target  Target
	Version Opt[string]
}

type Header struct {
	Key   string
	Value string
}

func (h Header) String() string {
	return h.Key + ": " + h.Value
}

// DataSource is either inline text or a reference to an external file.
// Resolving the reference to bytes happens outside the parser.
type DataSource struct {
	Text     string
	FilePath string
}

func (d DataSource) FromFile() bool {
	return d.FilePath != ""
}

type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyRaw
	BodyURLEncoded
	BodyMultipart
)

type FormParam struct {
	Key   string
	Value string
}

type Disposition struct {
	Name         string
	Filename     string
	FilenameStar string
}

type Part struct {
	Disposition Disposition
	Headers     []Header
	Data        DataSource
}

type Body struct {
	Kind     BodyKind
	Raw      DataSource
	Params   []FormParam
	Boundary string
	Parts    []Part
}

// ScriptRef holds an opaque script slot: inline code when FilePath is
// empty, otherwise a path reference. The code is never evaluated here.
type ScriptRef struct {
	Code     string
	FilePath string
}

func (s ScriptRef) FromFile() bool {
	return s.FilePath != ""
}

type SaveResponse struct {
	Path      string
	Overwrite bool
}

type Request struct {
	Name             string
	Comments         []Comment
	Settings         Settings
	PreRequestScript *ScriptRef
	Line             RequestLine
	Headers          []Header
	Body             Body
	ResponseHandler  *ScriptRef
	SaveResponse     *SaveResponse

	// Diags carries the non-fatal diagnostics gathered while this request
	// parsed successfully.
	Diags []Diag
}

// PartialRequest mirrors every Request field as optional. It is populated
// stage by stage so a fatal error still returns everything parsed so far.
type PartialRequest struct {
	Name             string
	Comments         []Comment
	Settings         Settings
	PreRequestScript *ScriptRef
	Line             *RequestLine
	Headers          []Header
	Body             *Body
	ResponseHandler  *ScriptRef
	SaveResponse     *SaveResponse
}

type Failure struct {
	Partial PartialRequest
	Diags   []Diag
}

// Document is the parse result for one request file: successful requests
// and failure records, both in source order. Immutable once produced.
type Document struct {
	Path     string
	Requests []*Request
	Failures []Failure
}
