// Package sqlsource implements the SqlDatabase source extractor (C4):
// a chunked, driver-agnostic database/sql reader. No concrete SQL
// driver is imported here, consistent with the teacher's own
// driver-agnostic sdk/go layering — callers register a driver
// (pgx, mysql, sqlite) and pass an *sql.DB into New.
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rshade/billingfocus/pipelineerr"
	"github.com/rshade/billingfocus/registry"
	"github.com/rshade/billingfocus/source"
)

// Extractor reads SqlDatabase source descriptors via db.
type Extractor struct {
	DB *sql.DB
}

// New constructs a sqlsource.Extractor over an already-opened *sql.DB.
func New(db *sql.DB) *Extractor {
	return &Extractor{DB: db}
}

// Extract renders spec's query template for window and fetches rows in
// chunks of s.ChunkSize, using OFFSET/LIMIT pagination.
func (e *Extractor) Extract(ctx context.Context, spec source.Descriptor, window source.Window) (registry.RawBatch, error) {
	s, err := decodeSqlDatabase(spec)
	if err != nil {
		return registry.RawBatch{}, err
	}

	query := renderTemplate(s.QueryTemplate, s.Table, window)

	var all []map[string]any
	for offset := 0; ; offset += s.ChunkSize {
		rows, err := e.fetchChunk(ctx, query, s.ChunkSize, offset)
		if err != nil {
			return registry.RawBatch{}, pipelineerr.Wrap(pipelineerr.SourceFailed, "extract.sqlsource", spec.Name+": chunk fetch", err)
		}
		all = append(all, rows...)
		if len(rows) < s.ChunkSize {
			break
		}
	}

	return registry.RawBatch{
		SourceName: spec.Name,
		Records:    all,
		Metadata:   map[string]any{"table": s.Table},
	}, nil
}

func (e *Extractor) fetchChunk(ctx context.Context, query string, limit, offset int) ([]map[string]any, error) {
	chunked := fmt.Sprintf("%s LIMIT %d OFFSET %d", query, limit, offset)
	rows, err := e.DB.QueryContext(ctx, chunked)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rec := make(map[string]any, len(cols))
		for i, col := range cols {
			rec[col] = values[i]
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// renderTemplate substitutes {{start}}, {{end}}, {{table}} in a query
// template. This is a deliberately minimal substitution, not a general
// templating engine: SqlDatabase.QueryTemplate is validated to
// reference only these three placeholders.
func renderTemplate(tmpl, table string, window source.Window) string {
	replacer := strings.NewReplacer(
		"{{table}}", table,
		"{{start}}", quoteTime(window.Start),
		"{{end}}", quoteTime(window.End),
	)
	return replacer.Replace(tmpl)
}

func quoteTime(t time.Time) string {
	if t.IsZero() {
		return "NULL"
	}
	return "'" + t.UTC().Format(time.RFC3339) + "'"
}

func decodeSqlDatabase(spec source.Descriptor) (*source.SqlDatabase, error) {
	query, _ := spec.Config["query"].(string)
	table, _ := spec.Config["table"].(string)
	chunkSize := chunkSizeFrom(spec.Config["chunk_size"])

	s, err := source.NewSqlDatabase(spec.Name, query, table, chunkSize)
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ConfigInvalid, "extract.sqlsource", spec.Name+": invalid sql_database config", err)
	}
	return s, nil
}

func chunkSizeFrom(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		parsed, err := strconv.Atoi(n)
		if err == nil {
			return parsed
		}
	}
	return 1000
}
