// Package filesvc locates and loads request files from disk.
package filesvc

import (
	"os"

	"github.com/unkn0wn-root/httpfile/internal/errdef"
	"github.com/unkn0wn-root/httpfile/internal/parser"
	"github.com/unkn0wn-root/httpfile/internal/restfile"
)

// LoadFile reads and parses one request file. An unreadable file returns
// an error alongside a document holding a single failure so callers can
// render it like any other diagnostic.
func LoadFile(path string, sink parser.DiagSink) (*restfile.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		doc := &restfile.Document{
			Path: path,
			Failures: []restfile.Failure{{
				Diags: []restfile.Diag{
					restfile.NewDiagDetail(restfile.DiagCouldNotReadRequestFile, path, restfile.NoPos),
				},
			}},
		}
		return doc, errdef.Wrap(errdef.CodeFilesystem, err, "read request file %q", path)
	}

	doc := parser.Parse(string(data), sink)
	doc.Path = path
	return doc, nil
}
