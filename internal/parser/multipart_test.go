package parser

import (
	"strings"
	"testing"

	"github.com/MakeNowJust/heredoc"

	"github.com/unkn0wn-root/httpfile/internal/restfile"
)

func TestMultipartPartsInOrder(t *testing.T) {
	src := heredoc.Doc(`
		POST https://example.com/upload
		Content-Type: multipart/form-data; boundary=xyz

		--xyz
		Content-Disposition: form-data; name="field1"

		value1
		--xyz
		Content-Disposition: form-data; name="file"; filename="a.txt"
		Content-Type: text/plain

		< ./a.txt
		--xyz--
	`)
	req := singleRequest(t, src)

	if req.Body.Kind != restfile.BodyMultipart {
		t.Fatalf("expected multipart body, got %v", req.Body.Kind)
	}
	if req.Body.Boundary != "xyz" {
		t.Fatalf("unexpected boundary %q", req.Body.Boundary)
	}
	if len(req.Body.Parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(req.Body.Parts))
	}

	first := req.Body.Parts[0]
	if first.Disposition.Name != "field1" {
		t.Fatalf("unexpected first part name %q", first.Disposition.Name)
	}
	if first.Data.Text != "value1" {
		t.Fatalf("unexpected first part data %q", first.Data.Text)
	}

	second := req.Body.Parts[1]
	if second.Disposition.Filename != "a.txt" {
		t.Fatalf("unexpected filename %q", second.Disposition.Filename)
	}
	if len(second.Headers) != 1 || second.Headers[0].Key != "Content-Type" {
		t.Fatalf("expected extra part header, got %+v", second.Headers)
	}
	if !second.Data.FromFile() || second.Data.FilePath != "./a.txt" {
		t.Fatalf("expected file-backed part, got %+v", second.Data)
	}
}

func TestMultipartMultilinePartData(t *testing.T) {
	src := heredoc.Doc(`
		POST https://example.com/upload
		Content-Type: multipart/form-data; boundary=xyz

		--xyz
		Content-Disposition: form-data; name="text"

		line one
		line two
		--xyz--
	`)
	req := singleRequest(t, src)
	if got := req.Body.Parts[0].Data.Text; got != "line one\nline two" {
		t.Fatalf("unexpected part data %q", got)
	}
}

func TestMultipartQuotedBoundary(t *testing.T) {
	src := heredoc.Doc(`
		POST https://example.com/upload
		Content-Type: multipart/form-data; boundary="quoted boundary?"

		--quoted boundary?
		Content-Disposition: form-data; name="f"

		v
		--quoted boundary?--
	`)
	doc := parseAll(t, src)
	if len(doc.Requests) != 1 {
		t.Fatalf("expected success, got %+v", doc.Failures)
	}
	req := doc.Requests[0]
	if req.Body.Boundary != "quoted boundary?" {
		t.Fatalf("quotes must be stripped, got %q", req.Body.Boundary)
	}
	// the space violates the boundary alphabet but stays recoverable
	if len(req.Diags) != 1 || req.Diags[0].Kind != restfile.DiagInvalidMultipartBoundaryCharacter {
		t.Fatalf("expected boundary character diagnostic, got %+v", req.Diags)
	}
}

func TestMultipartOmittedBoundaryUsesDefault(t *testing.T) {
	src := heredoc.Doc(`
		POST https://example.com/upload
		Content-Type: multipart/form-data

		----boundary--
		Content-Disposition: form-data; name="f"

		v
		----boundary----
	`)
	req := singleRequest(t, src)

	if req.Body.Kind != restfile.BodyMultipart {
		t.Fatalf("expected multipart body, got %+v", req.Body)
	}
	if req.Body.Boundary != DefaultMultipartBoundary {
		t.Fatalf("expected default boundary, got %q", req.Body.Boundary)
	}
	if len(req.Diags) != 1 || req.Diags[0].Kind != restfile.DiagMissingMultipartHeaderBoundaryDefinition {
		t.Fatalf("expected missing-boundary diagnostic, got %+v", req.Diags)
	}
}

func TestMultipartMissingPartName(t *testing.T) {
	src := heredoc.Doc(`
		POST https://example.com/upload
		Content-Type: multipart/form-data; boundary=xyz

		--xyz
		Content-Disposition: form-data; filename="a.txt"
		Content-Type: text/plain

		data
		--xyz--
	`)
	req := singleRequest(t, src)
	if len(req.Diags) != 1 || req.Diags[0].Kind != restfile.DiagSingleMultipartNameMissing {
		t.Fatalf("expected part-name diagnostic, got %+v", req.Diags)
	}
	if req.Diags[0].Detail != "[Content-Type: text/plain]" {
		t.Fatalf("unexpected diagnostic detail %q", req.Diags[0].Detail)
	}
}

func TestMultipartMissingEndBoundary(t *testing.T) {
	src := heredoc.Doc(`
		POST https://example.com/upload
		Content-Type: multipart/form-data; boundary=xyz

		--xyz
		Content-Disposition: form-data; name="f"

		data
	`)
	doc := parseAll(t, src)
	if len(doc.Failures) != 1 {
		t.Fatalf("expected failure, got %+v", doc.Requests)
	}
	if !hasDiag(doc.Failures[0].Diags, restfile.DiagMultipartShouldBeEndedWithBoundary) {
		t.Fatalf("expected missing-end-boundary diagnostic, got %+v", doc.Failures[0].Diags)
	}
}

func TestMultipartBoundaryTooLong(t *testing.T) {
	boundary := strings.Repeat("a", 71)
	src := "POST https://example.com/upload\n" +
		"Content-Type: multipart/form-data; boundary=" + boundary + "\n\n" +
		"--" + boundary + "\n" +
		`Content-Disposition: form-data; name="f"` + "\n\n" +
		"v\n" +
		"--" + boundary + "--\n"
	req := singleRequest(t, src)

	if req.Body.Kind != restfile.BodyMultipart {
		t.Fatalf("expected multipart body, got %v", req.Body.Kind)
	}
	if len(req.Diags) != 1 || req.Diags[0].Kind != restfile.DiagInvalidMultipartBoundaryLength {
		t.Fatalf("expected boundary length diagnostic, got %+v", req.Diags)
	}
}

func TestMalformedMultipartDoesNotSwallowNextRequest(t *testing.T) {
	src := heredoc.Doc(`
		GET https://example.com/one

		###
		POST https://example.com/upload
		Content-Type: multipart/form-data; boundary=xyz

		--xyz
		Content-Disposition: form-data; name="f"

		data without a closing boundary

		###
		GET https://example.com/three
	`)
	doc := parseAll(t, src)

	if len(doc.Requests) != 2 {
		t.Fatalf("expected 2 requests, got %d (%+v)", len(doc.Requests), doc.Failures)
	}
	if len(doc.Failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(doc.Failures))
	}
	if !hasDiag(doc.Failures[0].Diags, restfile.DiagMultipartShouldBeEndedWithBoundary) {
		t.Fatalf("expected missing-end-boundary diagnostic, got %+v", doc.Failures[0].Diags)
	}
	if got := doc.Requests[1].Line.Target.Value; got != "https://example.com/three" {
		t.Fatalf("request after the malformed one lost, got %q", got)
	}
}

func TestMultipartMissingBlankLineAfterHeaders(t *testing.T) {
	src := heredoc.Doc(`
		POST https://example.com/upload
		Content-Type: multipart/form-data; boundary=xyz

		--xyz
		Content-Disposition: form-data; name="f"
		data
		--xyz--
	`)
	doc := parseAll(t, src)
	if len(doc.Failures) != 1 {
		t.Fatalf("expected failure, got %+v", doc.Requests)
	}
	if !hasDiag(doc.Failures[0].Diags, restfile.DiagInvalidSingleMultipartHeaders) {
		t.Fatalf("expected part-header diagnostic, got %+v", doc.Failures[0].Diags)
	}
}

func TestMultipartWrongFirstHeader(t *testing.T) {
	src := heredoc.Doc(`
		POST https://example.com/upload
		Content-Type: multipart/form-data; boundary=xyz

		--xyz
		Content-Type: text/plain

		data
		--xyz--
	`)
	doc := parseAll(t, src)
	if len(doc.Failures) != 1 {
		t.Fatalf("expected failure, got %+v", doc.Requests)
	}
	diags := doc.Failures[0].Diags
	if !hasDiag(diags, restfile.DiagWrongMultipartContentDispositionHeader) {
		t.Fatalf("expected wrong-disposition diagnostic, got %+v", diags)
	}
}

func hasDiag(diags []restfile.Diag, kind restfile.DiagKind) bool {
	for _, d := range diags {
		if d.Kind == kind {
			return true
		}
	}
	return false
}
