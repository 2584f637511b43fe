package etl

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
)

// Encode formats a value as indented JSON, leaving non-ASCII and HTML characters
// unescaped so that the files are readable as is.
func Encode(v any) ([]byte, error) {
	var b bytes.Buffer

	e := json.NewEncoder(&b)
	e.SetEscapeHTML(false)
	e.SetIndent("", "    ")

	if err := e.Encode(v); err != nil {
		return nil, err
	}

	return separators(b.Bytes()), nil
}

// separators replaces the \u2028 and \u2029 escapes that encoding/json always emits
// with the literal line and paragraph separators. Escaped backslashes are skipped
// so that a literal '\u2028' in a value is left as is.
func separators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}

	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}

		if s := b[i:min(i+6, len(b))]; bytes.Equal(s, []byte(`\u2028`)) || bytes.Equal(s, []byte(`\u2029`)) {
			if s[5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}

		out = append(out, b[i], b[i+1])
		i++
	}

	return out
}

// WriteTSV writes a table as tab separated values, with the column names as the
// first record.
func WriteTSV(f io.Writer, table *Table) error {
	w := csv.NewWriter(f)
	w.Comma = '\t'

	if err := w.Write(table.Columns); err != nil {
		return err
	}

	for _, record := range table.Rows {
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()

	return w.Error()
}

// WriteFile replaces a file by writing to a temporary file in the same directory
// and then renaming it.
func WriteFile(file string, b []byte) error {
	dir := filepath.Dir(file)
	if err := os.MkdirAll(dir, 0770); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(file)+".*")
	if err != nil {
		return err
	}

	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(b); err != nil {
		return err
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmp.Name(), 0660); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), file)
}
