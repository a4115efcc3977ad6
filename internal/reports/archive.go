package reports

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	pkgerrors "github.com/angelmondragon/wb-sheets-sync/pkg/errors"
)

// ExtractCSV returns the text of the first .csv entry of a zip archive.
// found is false when the archive holds no csv entry.
func ExtractCSV(archive []byte) (payload string, found bool, err error) {
	reader, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return "", false, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "open report archive")
	}
	for _, file := range reader.File {
		if file.FileInfo().IsDir() || !strings.HasSuffix(strings.ToLower(file.Name), ".csv") {
			continue
		}
		text, err := decodeEntry(file)
		if err != nil {
			return "", false, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, fmt.Sprintf("read archive entry %q", file.Name))
		}
		return text, true, nil
	}
	return "", false, nil
}

func decodeEntry(file *zip.File) (string, error) {
	rc, err := file.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	decoded, err := io.ReadAll(transform.NewReader(rc, unicode.UTF8BOM.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
