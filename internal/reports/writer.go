package reports

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	pkgerrors "github.com/angelmondragon/wb-sheets-sync/pkg/errors"
)

// Writer persists report payloads as <dir>/<id>.csv.
type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}
	return &Writer{dir: dir}
}

// Path returns the file a report with the given id is written to.
func (w *Writer) Path(id string) string {
	return filepath.Join(w.dir, id+".csv")
}

// Write stores the payload, replacing any previous file for the same id.
func (w *Writer) Write(d Descriptor) (string, error) {
	id := strings.TrimSpace(d.ID)
	if id == "" || id != filepath.Base(id) || id == "." || id == ".." {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid report id %q", d.ID))
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}
	path := w.Path(id)
	if err := os.WriteFile(path, []byte(d.Payload), 0o644); err != nil {
		return "", fmt.Errorf("write report %s: %w", id, err)
	}
	return path, nil
}
