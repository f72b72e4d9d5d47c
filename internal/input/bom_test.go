package input

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/JonMunkholm/userdata/internal/core"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"with BOM", []byte("\xEF\xBB\xBFname=Alice"), "name=Alice"},
		{"without BOM", []byte("name=Alice"), "name=Alice"},
		{"only BOM", []byte("\xEF\xBB\xBF"), ""},
		{"partial BOM", []byte("\xEF\xBB"), "\xEF\xBB"},
		{"empty", nil, ""},
		{"BOM later in stream", []byte("a\xEF\xBB\xBF"), "a\xEF\xBB\xBF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(newBOMSkippingReader(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("ReadAll() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadFile_WithBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bom.env")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFNAME=Alice\nAGE=30\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if v, err := f.Supply(core.FieldName); err != nil || v != "Alice" {
		t.Errorf("Supply(name) = %q, %v, want %q", v, err, "Alice")
	}
}
