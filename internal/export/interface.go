package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/agrichat/internal"
)

// Exporter writes one conversation in a file format
type Exporter interface {
	Export(session *internal.Session, w io.Writer) error
	Extension() string
}

// Formats lists the accepted --format values
var Formats = []string{"jsonl", "md", "yaml", "json"}

// NewExporter returns the exporter for format. Matching ignores case; "markdown" and "yml" are aliases
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %q (supported: %s)", format, strings.Join(Formats, ", "))
	}
}
