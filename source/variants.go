package source

import "fmt"

// PaginationPolicy is how a RestApi source follows multi-page responses.
type PaginationPolicy string

const (
	PaginationNone       PaginationPolicy = "none"
	PaginationHeaderLink PaginationPolicy = "header_link"
	PaginationCursor     PaginationPolicy = "cursor"
	PaginationPageNumber PaginationPolicy = "page_number"
)

// RestApi describes one REST endpoint to extract from.
type RestApi struct {
	Descriptor

	Path             string
	Method           string
	QueryParams      map[string]string
	ResponseSelector string // JSON-pointer-like path to the record array
	Pagination       PaginationPolicy
	PrimaryKeyFields []string
}

// NewRestApi builds and validates a RestApi descriptor.
func NewRestApi(name, path, method, responseSelector string, pagination PaginationPolicy) (*RestApi, error) {
	r := &RestApi{
		Descriptor: Descriptor{
			Name:       name,
			SourceType: TypeRestApi,
			Config:     map[string]any{"path": path, "method": method},
		},
		Path:             path,
		Method:           method,
		ResponseSelector: responseSelector,
		Pagination:       pagination,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks RestApi-specific invariants in addition to the
// embedded Descriptor's.
func (r RestApi) Validate() error {
	if err := r.Descriptor.Validate(); err != nil {
		return err
	}
	if r.Path == "" {
		return fmt.Errorf("source: rest_api %q: path is required", r.Name)
	}
	if r.Method == "" {
		return fmt.Errorf("source: rest_api %q: method is required", r.Name)
	}
	if r.ResponseSelector == "" {
		return fmt.Errorf("source: rest_api %q: response_selector is required", r.Name)
	}
	switch r.Pagination {
	case PaginationNone, PaginationHeaderLink, PaginationCursor, PaginationPageNumber:
	default:
		return fmt.Errorf("source: rest_api %q: unrecognized pagination policy %q", r.Name, r.Pagination)
	}
	return nil
}

// FileFormat is the encoding of files a Filesystem source reads.
type FileFormat string

const (
	FileFormatParquet FileFormat = "parquet"
	FileFormatCSV     FileFormat = "csv"
	FileFormatJSONL   FileFormat = "jsonl"
)

// Compression is the compression codec applied to a Filesystem source's files.
type Compression string

const (
	CompressionNone   Compression = "none"
	CompressionGzip   Compression = "gzip"
	CompressionSnappy Compression = "snappy"
)

// Filesystem describes a glob of files under a URL to extract from.
type Filesystem struct {
	Descriptor

	URL             string // s3://, az://, gs://, file://
	GlobPattern     string
	Format          FileFormat
	Compression     Compression
	DateColumn      string
	PushdownStart   int64 // unix seconds, inclusive
	PushdownEnd     int64 // unix seconds, exclusive
}

// NewFilesystem builds and validates a Filesystem descriptor.
func NewFilesystem(name, url, glob string, format FileFormat, compression Compression, dateColumn string, start, end int64) (*Filesystem, error) {
	f := &Filesystem{
		Descriptor: Descriptor{
			Name:       name,
			SourceType: TypeFilesystem,
			Config:     map[string]any{"url": url, "glob": glob},
		},
		URL:           url,
		GlobPattern:   glob,
		Format:        format,
		Compression:   compression,
		DateColumn:    dateColumn,
		PushdownStart: start,
		PushdownEnd:   end,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks Filesystem-specific invariants.
func (f Filesystem) Validate() error {
	if err := f.Descriptor.Validate(); err != nil {
		return err
	}
	if f.URL == "" {
		return fmt.Errorf("source: filesystem %q: url is required", f.Name)
	}
	if scheme := urlScheme(f.URL); scheme == "" {
		return fmt.Errorf("source: filesystem %q: url %q has no recognized scheme", f.Name, f.URL)
	}
	if f.GlobPattern == "" {
		return fmt.Errorf("source: filesystem %q: glob pattern is required", f.Name)
	}
	switch f.Format {
	case FileFormatParquet, FileFormatCSV, FileFormatJSONL:
	default:
		return fmt.Errorf("source: filesystem %q: unrecognized format %q", f.Name, f.Format)
	}
	switch f.Compression {
	case CompressionNone, CompressionGzip, CompressionSnappy:
	default:
		return fmt.Errorf("source: filesystem %q: unrecognized compression %q", f.Name, f.Compression)
	}
	if f.PushdownEnd <= f.PushdownStart {
		return fmt.Errorf("source: filesystem %q: pushdown end must be after start", f.Name)
	}
	return nil
}

// urlScheme extracts the scheme prefix ("s3", "az", "gs", "file") from a
// source URL, or "" if none of the recognized schemes match. A small,
// dependency-free parse is preferred here over a general URL library
// since only the scheme discriminator is ever needed.
func urlScheme(url string) string {
	for _, scheme := range []string{"s3", "az", "gs", "file"} {
		prefix := scheme + "://"
		if len(url) >= len(prefix) && url[:len(prefix)] == prefix {
			return scheme
		}
	}
	return ""
}

// SqlDatabase describes a parameterized query to extract rows from.
type SqlDatabase struct {
	Descriptor

	QueryTemplate string // may reference only {{start}}, {{end}}, {{table}}
	Table         string
	ChunkSize     int
}

// NewSqlDatabase builds and validates a SqlDatabase descriptor.
func NewSqlDatabase(name, queryTemplate, table string, chunkSize int) (*SqlDatabase, error) {
	s := &SqlDatabase{
		Descriptor: Descriptor{
			Name:       name,
			SourceType: TypeSqlDatabase,
			Config:     map[string]any{"query": queryTemplate, "table": table},
		},
		QueryTemplate: queryTemplate,
		Table:         table,
		ChunkSize:     chunkSize,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks SqlDatabase-specific invariants.
func (s SqlDatabase) Validate() error {
	if err := s.Descriptor.Validate(); err != nil {
		return err
	}
	if s.QueryTemplate == "" {
		return fmt.Errorf("source: sql_database %q: query template is required", s.Name)
	}
	if s.Table == "" {
		return fmt.Errorf("source: sql_database %q: table is required", s.Name)
	}
	if s.ChunkSize <= 0 {
		return fmt.Errorf("source: sql_database %q: chunk size must be positive", s.Name)
	}
	return nil
}
