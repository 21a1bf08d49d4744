package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/httpfile/internal/config"
	"github.com/unkn0wn-root/httpfile/internal/filesvc"
	"github.com/unkn0wn-root/httpfile/internal/parser"
	"github.com/unkn0wn-root/httpfile/internal/restfile"
	"github.com/unkn0wn-root/httpfile/internal/restwriter"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		filePath    string
		workspace   string
		recursive   bool
		render      bool
		dumpFormat  string
		noColor     bool
		showVersion bool
	)

	settings, _, settingsErr := config.LoadSettings()
	if settingsErr != nil {
		log.Printf("settings: %v", settingsErr)
		settings = config.DefaultSettings()
	}

	flag.StringVar(&filePath, "file", "", "Path to .http/.rest file to parse")
	flag.StringVar(&workspace, "workspace", "", "Workspace directory to scan for request files")
	flag.BoolVar(&recursive, "recursive", settings.Recursive, "Recursively scan workspace for request files")
	flag.BoolVar(&render, "render", false, "Serialize parsed requests back to request-file text")
	flag.StringVar(&dumpFormat, "dump", "", "Dump the parsed document as json or yaml")
	flag.BoolVar(&noColor, "no-color", settings.Color == config.ColorModeNever, "Disable colored diagnostics")
	flag.BoolVar(&showVersion, "version", false, "Show httpfile version")
	flag.Parse()

	if showVersion {
		fmt.Printf("httpfile %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		os.Exit(0)
	}

	if dumpFormat == "" {
		dumpFormat = string(settings.DumpFormat)
	}

	paths, err := collectPaths(filePath, workspace, recursive, flag.Args())
	if err != nil {
		log.Fatalf("httpfile: %v", err)
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "httpfile: no request files given, use -file, -workspace or positional paths")
		flag.Usage()
		os.Exit(2)
	}

	st := newStyles(noColor)
	failed := false
	for _, path := range paths {
		doc, err := filesvc.LoadFile(path, diagPrinter(st))
		if err != nil {
			fmt.Fprintln(os.Stderr, st.errLabel.Render("error:"), err)
			failed = true
			continue
		}
		if len(doc.Failures) > 0 {
			failed = true
		}

		switch {
		case render:
			fmt.Print(restwriter.Render(doc, restwriter.Options{}))
		default:
			if err := dumpDocument(os.Stdout, doc, dumpFormat); err != nil {
				log.Fatalf("httpfile: %v", err)
			}
		}
	}

	if failed {
		os.Exit(1)
	}
}

func collectPaths(filePath, workspace string, recursive bool, args []string) ([]string, error) {
	var paths []string
	if filePath != "" {
		paths = append(paths, filePath)
	}
	for _, arg := range args {
		paths = append(paths, arg)
	}
	if workspace != "" {
		entries, err := filesvc.ListRequestFiles(workspace, recursive)
		if err != nil {
			return nil, fmt.Errorf("scan workspace %q: %w", workspace, err)
		}
		for _, entry := range entries {
			paths = append(paths, entry.Path)
		}
	}
	for _, path := range paths {
		if !filesvc.IsRequestFile(path) {
			return nil, fmt.Errorf("%q is not a request file (.http/.rest)", path)
		}
	}
	return paths, nil
}

type styles struct {
	errLabel lipgloss.Style
	position lipgloss.Style
	excerpt  lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{errLabel: plain, position: plain, excerpt: plain}
	}
	return styles{
		errLabel: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		position: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		excerpt:  lipgloss.NewStyle().Faint(true),
	}
}

// diagPrinter styles the rendered diagnostics line by line: the error and
// position lines get color, excerpt lines stay dim.
func diagPrinter(st styles) parser.DiagSink {
	return parser.SinkFunc(func(block string) {
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "Error:"):
				fmt.Fprintln(os.Stderr, st.errLabel.Render(line))
			case strings.HasPrefix(line, "Position:"):
				fmt.Fprintln(os.Stderr, st.position.Render(line))
			default:
				fmt.Fprintln(os.Stderr, st.excerpt.Render(line))
			}
		}
	})
}

type documentView struct {
	Path     string        `json:"path,omitempty"  yaml:"path,omitempty"`
	Requests []requestView `json:"requests"        yaml:"requests"`
	Failures int           `json:"failures"        yaml:"failures"`
}

type requestView struct {
	Name    string   `json:"name,omitempty"    yaml:"name,omitempty"`
	Method  string   `json:"method"            yaml:"method"`
	Target  string   `json:"target"            yaml:"target"`
	Version string   `json:"version"           yaml:"version"`
	Headers []string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    string   `json:"body"              yaml:"body"`
	Diags   []string `json:"diags,omitempty"   yaml:"diags,omitempty"`
}

func dumpDocument(w *os.File, doc *restfile.Document, format string) error {
	view := documentView{Path: doc.Path, Failures: len(doc.Failures)}
	for _, req := range doc.Requests {
		view.Requests = append(view.Requests, newRequestView(req))
	}

	switch config.DumpFormat(strings.ToLower(format)) {
	case config.DumpFormatYAML:
		return yaml.NewEncoder(w).Encode(view)
	case config.DumpFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	default:
		return fmt.Errorf("unsupported dump format %q", format)
	}
}

func newRequestView(req *restfile.Request) requestView {
	rv := requestView{
		Name:    req.Name,
		Method:  req.Line.Method.Or(restfile.DefaultMethod),
		Target:  req.Line.Target.Value,
		Version: req.Line.Version.Or(restfile.DefaultHTTPVersion),
		Body:    bodyKindName(req.Body.Kind),
	}
	for _, h := range req.Headers {
		rv.Headers = append(rv.Headers, h.String())
	}
	for _, d := range req.Diags {
		rv.Diags = append(rv.Diags, d.Message())
	}
	return rv
}

func bodyKindName(kind restfile.BodyKind) string {
	switch kind {
	case restfile.BodyRaw:
		return "raw"
	case restfile.BodyURLEncoded:
		return "urlencoded"
	case restfile.BodyMultipart:
		return "multipart"
	default:
		return "none"
	}
}
