package corpus

import (
	"bufio"
	"bytes"
	"crypto/md5"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Supported formats.
const (
	FormatCSV   = "csv"
	FormatTSV   = "tsv"
	FormatJSONL = "jsonl"
)

// Options control loading.
type Options struct {
	Format         string // empty means detect from the file extension
	DropDuplicates bool   // keep the first of several identical texts
}

// DefaultOptions returns the default load options.
func DefaultOptions() Options {
	return Options{DropDuplicates: true}
}

// DetectFormat picks a format from a file extension.
func DetectFormat(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".tsv", ".tab":
		return FormatTSV, nil
	case ".jsonl", ".ndjson":
		return FormatJSONL, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownFormat, path)
}

// Load reads a corpus file.
func Load(path string, opts Options) ([]Document, error) {
	format := opts.Format
	if format == "" {
		var err error
		if format, err = DetectFormat(path); err != nil {
			return nil, err
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	defer f.Close()

	docs, err := Read(f, format, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// Read parses a corpus in the given format.
func Read(r io.Reader, format string, opts Options) ([]Document, error) {
	var docs []Document
	var err error
	switch format {
	case FormatCSV:
		docs, err = readDelimited(r, ',')
	case FormatTSV:
		docs, err = readDelimited(r, '\t')
	case FormatJSONL:
		docs, err = readJSONL(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if opts.DropDuplicates {
		docs = dropDuplicates(docs)
	}
	return docs, nil
}

// readDelimited reads label,text rows. A header naming the label and text
// columns may reorder them.
func readDelimited(r io.Reader, comma rune) ([]Document, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	labelCol, textCol := 0, 1
	var docs []Document
	first := true
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
		line, _ := cr.FieldPos(0)

		if first {
			first = false
			if l, t, ok := headerColumns(record); ok {
				labelCol, textCol = l, t
				continue
			}
		}
		if len(record) <= max(labelCol, textCol) {
			return nil, fmt.Errorf("%w: line %d: want label and text columns, got %d fields", ErrMalformedRecord, line, len(record))
		}
		label, err := ParseLabel(record[labelCol])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err)
		}
		docs = append(docs, Document{Text: record[textCol], Label: label})
	}
	return docs, nil
}

func headerColumns(record []string) (label, text int, ok bool) {
	label, text = -1, -1
	for i, name := range record {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "label", "class", "category":
			label = i
		case "text", "message", "body":
			text = i
		}
	}
	return label, text, label >= 0 && text >= 0
}

type jsonRecord struct {
	Text  *string         `json:"text"`
	Label json.RawMessage `json:"label"`
}

func readJSONL(r io.Reader) ([]Document, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var docs []Document
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec jsonRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err)
		}
		if rec.Text == nil {
			return nil, fmt.Errorf("%w: line %d: missing text", ErrMalformedRecord, line)
		}
		label, err := ParseLabel(strings.Trim(string(rec.Label), `"`))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrMalformedRecord, line, err)
		}
		docs = append(docs, Document{Text: *rec.Text, Label: label})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}
	return docs, nil
}

// dropDuplicates removes repeated texts by content hash; the first one wins.
func dropDuplicates(docs []Document) []Document {
	seen := make(map[string]bool, len(docs))
	out := docs[:0:0]
	for _, d := range docs {
		hash := fmt.Sprintf("%x", md5.Sum([]byte(d.Text)))
		if seen[hash] {
			continue
		}
		seen[hash] = true
		out = append(out, d)
	}
	if dropped := len(docs) - len(out); dropped > 0 {
		slog.Debug("Dropped duplicate documents", "count", dropped)
	}
	return out
}

// Write writes docs as label,text CSV with a header row.
func Write(w io.Writer, docs []Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"label", "text"}); err != nil {
		return err
	}
	for _, d := range docs {
		if err := cw.Write([]string{ClassName(d.Label), d.Text}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
