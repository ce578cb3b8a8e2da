package export

import (
	"io"

	"github.com/iksnae/agrichat/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter writes a conversation as a YAML document with two-space indentation
type YAMLExporter struct{}

// Export writes session with its messages
func (e *YAMLExporter) Export(session *internal.Session, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(session); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
