package engine

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/turtacn/molscore/pkg/errors"
)

// Extract reads the engine output at path and returns the first data row's
// value in column label.
func Extract(path, label string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEmptyResult, "scoring engine output is not readable")
	}
	defer f.Close()
	return ExtractFrom(f, label)
}

// ExtractFrom reads a header-delimited CSV from r.  Only the header and the
// first data row are consumed.  A missing data row yields EmptyResult; a row
// without label yields MissingColumn.
func ExtractFrom(r io.Reader, label string) (string, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return "", errors.New(errors.ErrCodeEmptyResult, "scoring engine output is empty")
	}
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEmptyResult, "scoring engine output header is malformed")
	}

	row, err := reader.Read()
	if err == io.EOF {
		return "", errors.New(errors.ErrCodeEmptyResult, "scoring engine output has no data row")
	}
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeEmptyResult, "scoring engine output row is malformed")
	}

	col := -1
	for i, name := range header {
		if cleanCell(name) == label {
			col = i
			break
		}
	}
	if col < 0 || col >= len(row) {
		return "", errors.Newf(errors.ErrCodeMissingColumn, "column %q not in scoring engine output", label).
			WithDetail("columns: " + strings.Join(cleanCells(header), ", "))
	}
	return strings.TrimSpace(row[col]), nil
}

func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\ufeff")
	return strings.TrimSpace(v)
}

func cleanCells(vs []string) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = cleanCell(v)
	}
	return out
}

//Personal.AI order the ending
