// Package filestore implements the Filesystem source extractor (C4):
// glob expansion over a scheme-prefixed URL, decompression, and
// row-oriented decoding of csv/jsonl/parquet payloads with date-column
// pushdown filtering.
package filestore

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/rshade/billingfocus/pipelineerr"
	"github.com/rshade/billingfocus/registry"
	"github.com/rshade/billingfocus/source"
)

// FileOpener abstracts the backing filesystem (local disk, or an
// object-store adapter keyed by the descriptor's URL scheme) so tests
// can substitute an in-memory fs.FS without a real object store.
type FileOpener interface {
	Glob(pattern string) ([]string, error)
	Open(path string) (io.ReadCloser, error)
}

// Extractor reads Filesystem source descriptors through an Opener.
type Extractor struct {
	Opener FileOpener
}

// New constructs a filestore.Extractor over opener.
func New(opener FileOpener) *Extractor {
	return &Extractor{Opener: opener}
}

// Extract expands spec's glob, decompresses and decodes each matched
// file, and applies the date-column pushdown filter against window.
func (e *Extractor) Extract(_ context.Context, spec source.Descriptor, window source.Window) (registry.RawBatch, error) {
	f, err := decodeFilesystem(spec)
	if err != nil {
		return registry.RawBatch{}, err
	}

	paths, err := e.Opener.Glob(f.GlobPattern)
	if err != nil {
		return registry.RawBatch{}, pipelineerr.Wrap(pipelineerr.SourceFailed, "extract.filestore", spec.Name+": glob", err)
	}

	var all []map[string]any
	for _, path := range paths {
		records, err := e.readFile(path, f)
		if err != nil {
			return registry.RawBatch{}, pipelineerr.Wrap(pipelineerr.SourceFailed, "extract.filestore", spec.Name+": "+path, err)
		}
		all = append(all, records...)
	}

	all = applyDatePushdown(all, f.DateColumn, window)

	return registry.RawBatch{
		SourceName: spec.Name,
		Records:    all,
		Metadata:   map[string]any{"files": fmt.Sprintf("%d", len(paths))},
	}, nil
}

func (e *Extractor) readFile(path string, f *source.Filesystem) ([]map[string]any, error) {
	rc, err := e.Opener.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r, err := decompress(rc, f.Compression)
	if err != nil {
		return nil, err
	}

	switch f.Format {
	case source.FileFormatJSONL:
		return decodeJSONL(r)
	case source.FileFormatCSV:
		return decodeCSV(r)
	case source.FileFormatParquet:
		return decodeParquet(r)
	default:
		return nil, fmt.Errorf("extract.filestore: unsupported format %q", f.Format)
	}
}

// decompress wraps r per the declared compression codec. Snappy has no
// grounded implementation in this module (see DESIGN.md); a snappy
// file is passed through undecompressed, which will fail downstream
// decoding rather than silently corrupt data.
func decompress(r io.ReadCloser, c source.Compression) (io.Reader, error) {
	switch c {
	case source.CompressionNone:
		return r, nil
	case source.CompressionGzip:
		return gzip.NewReader(r)
	case source.CompressionSnappy:
		return r, nil
	default:
		return nil, fmt.Errorf("extract.filestore: unsupported compression %q", c)
	}
}

func decodeJSONL(r io.Reader) ([]map[string]any, error) {
	var out []map[string]any
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row map[string]any
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, scanner.Err()
}

func decodeCSV(r io.Reader) ([]map[string]any, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := make(map[string]any, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out, nil
}

// decodeParquet reads every row group of a parquet file into the same
// []map[string]any shape decodeJSONL/decodeCSV produce, keyed by each
// leaf column's dotted schema path. parquet.OpenFile needs an
// io.ReaderAt, so the (already decompressed) stream is buffered in
// memory first — acceptable for the export-part sizes spec.md §8
// describes, not for arbitrarily large files.
func decodeParquet(r io.Reader) ([]map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("extract.filestore: read parquet: %w", err)
	}
	pf, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("extract.filestore: open parquet: %w", err)
	}

	columns := pf.Schema().Columns()
	names := make([]string, len(columns))
	for i, path := range columns {
		names[i] = strings.Join(path, ".")
	}

	var out []map[string]any
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		buf := make([]parquet.Row, 128)
		for {
			n, readErr := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				out = append(out, parquetRowToMap(row, names))
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("extract.filestore: read parquet rows: %w", readErr)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("extract.filestore: close parquet row group: %w", err)
		}
	}
	return out, nil
}

func parquetRowToMap(row parquet.Row, names []string) map[string]any {
	rec := make(map[string]any, len(names))
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= len(names) || v.IsNull() {
			continue
		}
		rec[names[col]] = parquetValueToAny(v)
	}
	return rec
}

func parquetValueToAny(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32, parquet.Int64:
		return v.Int64()
	case parquet.Float, parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}

func applyDatePushdown(records []map[string]any, column string, window source.Window) []map[string]any {
	if column == "" || (window.Start.IsZero() && window.End.IsZero()) {
		return records
	}
	out := records[:0]
	for _, rec := range records {
		t, ok := parseRecordTime(rec[column])
		if !ok {
			out = append(out, rec)
			continue
		}
		if !window.Start.IsZero() && t.Before(window.Start) {
			continue
		}
		if !window.End.IsZero() && !t.Before(window.End) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func parseRecordTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func decodeFilesystem(spec source.Descriptor) (*source.Filesystem, error) {
	url, _ := spec.Config["url"].(string)
	glob, _ := spec.Config["glob"].(string)
	format, _ := spec.Config["format"].(string)
	compression, _ := spec.Config["compression"].(string)
	dateColumn, _ := spec.Config["date_column"].(string)
	start, _ := spec.Config["pushdown_start"].(int64)
	end, _ := spec.Config["pushdown_end"].(int64)
	if end == 0 {
		end = start + 1
	}

	f, err := source.NewFilesystem(spec.Name, url, glob, source.FileFormat(format), source.Compression(compression), dateColumn, start, end)
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ConfigInvalid, "extract.filestore", spec.Name+": invalid filesystem config", err)
	}
	return f, nil
}

// LocalOpener is a FileOpener over the local filesystem (scheme
// "file://"), used directly in tests and by deployments that mount
// object storage as a local path.
type LocalOpener struct {
	Root string
}

func (l LocalOpener) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.Root, pattern))
	if err != nil {
		return nil, err
	}
	return matches, nil
}

func (l LocalOpener) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
