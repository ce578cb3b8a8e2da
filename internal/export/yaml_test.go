package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/agrichat/internal"
	"gopkg.in/yaml.v3"
)

func TestYAMLExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		session *internal.Session
		wantErr bool
	}{
		{
			name:    "basic session",
			session: internal.CreateTestSession("test1"),
			wantErr: false,
		},
		{
			name:    "empty session",
			session: internal.CreateTestSessionWithMessages("test2", []internal.Message{}),
			wantErr: false,
		},
		{
			name: "session with all fields",
			session: &internal.Session{
				ID:    "test3",
				Title: "Test",
				Messages: []internal.Message{
					internal.CreateTestMessage("m1", internal.SenderUser, "Hello", time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
				},
				CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
				UpdatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &YAMLExporter{}

			err := exporter.Export(tt.session, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("YAMLExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				output := buf.String()
				// Verify it's valid YAML
				var session internal.Session
				if err := yaml.Unmarshal([]byte(output), &session); err != nil {
					t.Errorf("Output is not valid YAML: %v\nOutput: %s", err, output)
					return
				}

				if len(session.Messages) != len(tt.session.Messages) {
					t.Errorf("Decoded %d messages, want %d", len(session.Messages), len(tt.session.Messages))
				}

				// Verify session ID is present
				if !strings.Contains(output, tt.session.ID) {
					t.Errorf("Output should contain session ID %q", tt.session.ID)
				}
			}
		})
	}
}

func TestYAMLExporter_Extension(t *testing.T) {
	exporter := &YAMLExporter{}
	if got := exporter.Extension(); got != "yaml" {
		t.Errorf("YAMLExporter.Extension() = %v, want yaml", got)
	}
}
