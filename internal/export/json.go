package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/agrichat/internal"
)

// JSONExporter writes a conversation as one indented JSON document
type JSONExporter struct{}

// Export writes session with its messages. Apostrophes and angle brackets in French replies stay unescaped
func (e *JSONExporter) Export(session *internal.Session, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(session)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
