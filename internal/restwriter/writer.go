// Package restwriter serializes a parsed document back into request-file
// text. Rendered output parses back to an equivalent document.
package restwriter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/unkn0wn-root/httpfile/internal/restfile"
)

type Options struct {
	OverwriteExisting bool
	HeaderComment     string
}

func WriteDocument(ctx context.Context, doc *restfile.Document, dst string, opts Options) error {
	if doc == nil {
		return errors.New("writer: document is nil")
	}
	if strings.TrimSpace(dst) == "" {
		return errors.New("writer: destination path is empty")
	}

	content := Render(doc, opts)
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeFile(dst, content, opts.OverwriteExisting)
}

func writeFile(dst, content string, overwrite bool) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("writer: create directory: %w", err)
	}

	if !overwrite {
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("writer: destination %s already exists", dst)
		}
	}

	tmp, err := os.CreateTemp(dir, "httpfile-*.http")
	if err != nil {
		return fmt.Errorf("writer: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := io.WriteString(tmp, content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writer: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writer: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		return fmt.Errorf("writer: rename temp file: %w", err)
	}
	return nil
}

func Render(doc *restfile.Document, opts Options) string {
	var b strings.Builder

	renderHeader(&b, opts.HeaderComment)

	for i, req := range doc.Requests {
		if req == nil {
			continue
		}
		if i > 0 {
			b.WriteString("\n")
		}
		renderRequest(&b, req)
	}

	return b.String()
}

func renderHeader(b *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("# ")
		b.WriteString(strings.TrimSpace(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func renderRequest(b *strings.Builder, req *restfile.Request) {
	b.WriteString("###")
	if req.Name != "" {
		b.WriteString(" ")
		b.WriteString(req.Name)
	}
	b.WriteString("\n")

	for _, c := range req.Comments {
		b.WriteString(c.Kind.Marker())
		b.WriteString(" ")
		b.WriteString(c.Text)
		b.WriteString("\n")
	}

	renderSettings(b, req.Settings)
	renderScript(b, "<", req.PreRequestScript)

	b.WriteString(reqLine(req.Line))
	for _, h := range req.Headers {
		b.WriteString(h.String())
		b.WriteString("\n")
	}
	renderBody(b, req.Body)
	renderScript(b, ">", req.ResponseHandler)
	renderSave(b, req.SaveResponse)
}

func renderSettings(b *strings.Builder, set restfile.Settings) {
	if set.NoCookieJar {
		b.WriteString("# @no-cookie-jar\n")
	}
	if set.NoRedirect {
		b.WriteString("# @no-redirect\n")
	}
	if set.NoLog {
		b.WriteString("# @no-log\n")
	}
}

func reqLine(line restfile.RequestLine) string {
	parts := make([]string, 0, 3)
	if line.Method.Set {
		parts = append(parts, line.Method.Val)
	}
	parts = append(parts, line.Target.Value)
	if line.Version.Set {
		parts = append(parts, line.Version.Val)
	}
	return strings.Join(parts, " ") + "\n"
}

func renderBody(b *strings.Builder, body restfile.Body) {
	switch body.Kind {
	case restfile.BodyRaw:
		b.WriteString("\n")
		if body.Raw.FromFile() {
			b.WriteString("< ")
			b.WriteString(body.Raw.FilePath)
			b.WriteString("\n")
		} else {
			b.WriteString(body.Raw.Text)
			if !strings.HasSuffix(body.Raw.Text, "\n") {
				b.WriteString("\n")
			}
		}
	case restfile.BodyURLEncoded:
		if len(body.Params) == 0 {
			return
		}
		pairs := make([]string, len(body.Params))
		for i, p := range body.Params {
			pairs[i] = p.Key + "=" + p.Value
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(pairs, "&"))
		b.WriteString("\n")
	case restfile.BodyMultipart:
		renderMultipart(b, body)
	}
}

func renderMultipart(b *strings.Builder, body restfile.Body) {
	b.WriteString("\n")
	for _, part := range body.Parts {
		b.WriteString("--")
		b.WriteString(body.Boundary)
		b.WriteString("\n")
		b.WriteString(dispositionLine(part.Disposition))
		for _, h := range part.Headers {
			b.WriteString(h.String())
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if part.Data.FromFile() {
			b.WriteString("< ")
			b.WriteString(part.Data.FilePath)
			b.WriteString("\n")
		} else {
			b.WriteString(part.Data.Text)
			if !strings.HasSuffix(part.Data.Text, "\n") {
				b.WriteString("\n")
			}
		}
	}
	b.WriteString("--")
	b.WriteString(body.Boundary)
	b.WriteString("--\n")
}

func dispositionLine(d restfile.Disposition) string {
	var sb strings.Builder
	sb.WriteString("Content-Disposition: form-data")
	if d.Name != "" {
		fmt.Fprintf(&sb, "; name=%q", d.Name)
	}
	if d.Filename != "" {
		fmt.Fprintf(&sb, "; filename=%q", d.Filename)
	}
	if d.FilenameStar != "" {
		fmt.Fprintf(&sb, "; filename*=%s", d.FilenameStar)
	}
	sb.WriteString("\n")
	return sb.String()
}

func renderScript(b *strings.Builder, marker string, script *restfile.ScriptRef) {
	if script == nil {
		return
	}
	if marker == ">" {
		b.WriteString("\n")
	}
	b.WriteString(marker)
	b.WriteString(" ")
	if script.FromFile() {
		b.WriteString(script.FilePath)
		b.WriteString("\n")
		return
	}
	b.WriteString("{%\n")
	b.WriteString(script.Code)
	b.WriteString("\n%}\n")
}

func renderSave(b *strings.Builder, save *restfile.SaveResponse) {
	if save == nil {
		return
	}
	b.WriteString("\n>>")
	if save.Overwrite {
		b.WriteString("!")
	}
	b.WriteString(" ")
	b.WriteString(save.Path)
	b.WriteString("\n")
}
