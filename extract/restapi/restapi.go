// Package restapi implements the RestApi source extractor (C4):
// bounded, retried HTTP calls following header-link/cursor/page-number
// pagination until the response stops yielding records.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rshade/billingfocus/extract"
	"github.com/rshade/billingfocus/pipelineerr"
	"github.com/rshade/billingfocus/registry"
	"github.com/rshade/billingfocus/source"
)

// AuthHeader is injected per request; callers resolve it once from an
// auth.Config before constructing an Extractor.
type AuthHeader struct {
	Name  string
	Value string
}

// Extractor pulls records from a RestApi source descriptor.
type Extractor struct {
	Client   *http.Client
	BaseURL  string
	Auth     AuthHeader
	Timeout  time.Duration
	Backoff  extract.BackoffPolicy
	MaxPages int
}

// New constructs an Extractor with spec.md §4.4's default request
// timeout and retry policy.
func New(baseURL string, auth AuthHeader) *Extractor {
	return &Extractor{
		Client:   &http.Client{},
		BaseURL:  baseURL,
		Auth:     auth,
		Timeout:  extract.DefaultRequestTimeout,
		Backoff:  extract.DefaultBackoff,
		MaxPages: 1000,
	}
}

type pageRequest struct {
	path   string
	query  map[string]string
	cursor string
	page   int
}

// Extract follows spec.Pagination until a page returns zero records,
// retrying transient failures per e.Backoff.
func (e *Extractor) Extract(ctx context.Context, spec source.Descriptor, window source.Window) (registry.RawBatch, error) {
	r, err := decodeRestApi(spec)
	if err != nil {
		return registry.RawBatch{}, err
	}

	var all []map[string]any
	req := pageRequest{path: r.Path, query: cloneQuery(r.QueryParams), page: 1}

	for pages := 0; ; pages++ {
		if pages >= e.MaxPages {
			return registry.RawBatch{}, pipelineerr.New(pipelineerr.SourceFailed, "extract.restapi",
				fmt.Sprintf("%s: exceeded max page count %d", spec.Name, e.MaxPages))
		}

		page, next, err := e.fetchPage(ctx, spec.Name, r, req, window)
		if err != nil {
			return registry.RawBatch{}, err
		}
		all = append(all, page...)
		if len(page) == 0 || next == nil {
			break
		}
		req = *next
	}

	return registry.RawBatch{
		SourceName: spec.Name,
		Records:    all,
		Metadata:   map[string]any{"path": r.Path, "pages": fmt.Sprintf("%d", len(all))},
	}, nil
}

func (e *Extractor) fetchPage(ctx context.Context, name string, r *source.RestApi, req pageRequest, window source.Window) ([]map[string]any, *pageRequest, error) {
	var page []map[string]any
	var nextReq *pageRequest

	err := e.Backoff.Do(ctx, isTransient, func(ctx context.Context) error {
		reqCtx, cancel := context.WithTimeout(ctx, e.Timeout)
		defer cancel()

		httpReq, err := e.buildRequest(reqCtx, r, req, window)
		if err != nil {
			return pipelineerr.Wrap(pipelineerr.SourceFailed, "extract.restapi", name+": build request", err)
		}

		resp, err := e.Client.Do(httpReq)
		if err != nil {
			return pipelineerr.Wrap(pipelineerr.SourceTransient, "extract.restapi", name+": request failed", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return pipelineerr.Wrap(pipelineerr.SourceTransient, "extract.restapi", name+": read body", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			transientErr := pipelineerr.New(pipelineerr.SourceTransient, "extract.restapi",
				fmt.Sprintf("%s: status %d", name, resp.StatusCode))
			if d, ok := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now); ok {
				transientErr.WithRetryAfter(d)
			}
			return transientErr
		}
		if resp.StatusCode >= 400 {
			return pipelineerr.New(pipelineerr.SourceFailed, "extract.restapi",
				fmt.Sprintf("%s: status %d", name, resp.StatusCode))
		}

		records, err := selectRecords(body, r.ResponseSelector)
		if err != nil {
			return pipelineerr.Wrap(pipelineerr.SourceFailed, "extract.restapi", name+": parse response", err)
		}
		page = records
		nextReq = e.nextPageRequest(resp, req, r.Pagination, len(records))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return page, nextReq, nil
}

func (e *Extractor) buildRequest(ctx context.Context, r *source.RestApi, req pageRequest, window source.Window) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, orDefault(r.Method, http.MethodGet), e.BaseURL+req.path, bytes.NewReader(nil))
	if err != nil {
		return nil, err
	}
	q := httpReq.URL.Query()
	for k, v := range req.query {
		q.Set(k, v)
	}
	if !window.Start.IsZero() {
		q.Set("start", window.Start.UTC().Format(time.RFC3339))
	}
	if !window.End.IsZero() {
		q.Set("end", window.End.UTC().Format(time.RFC3339))
	}
	switch r.Pagination {
	case source.PaginationCursor:
		if req.cursor != "" {
			q.Set("cursor", req.cursor)
		}
	case source.PaginationPageNumber:
		q.Set("page", strconv.Itoa(req.page))
	}
	httpReq.URL.RawQuery = q.Encode()
	if e.Auth.Name != "" {
		httpReq.Header.Set(e.Auth.Name, e.Auth.Value)
	}
	httpReq.Header.Set("Accept", "application/json")
	return httpReq, nil
}

func (e *Extractor) nextPageRequest(resp *http.Response, prev pageRequest, policy source.PaginationPolicy, received int) *pageRequest {
	switch policy {
	case source.PaginationNone:
		return nil
	case source.PaginationHeaderLink:
		link := resp.Header.Get("Link")
		next := parseNextLink(link)
		if next == "" {
			return nil
		}
		return &pageRequest{path: next, query: prev.query}
	case source.PaginationCursor:
		cursor := resp.Header.Get("X-Next-Cursor")
		if cursor == "" {
			return nil
		}
		return &pageRequest{path: prev.path, query: prev.query, cursor: cursor}
	case source.PaginationPageNumber:
		if received == 0 {
			return nil
		}
		return &pageRequest{path: prev.path, query: prev.query, page: prev.page + 1}
	default:
		return nil
	}
}

// parseRetryAfter decodes an HTTP Retry-After header value per RFC 7231
// §7.1.3: either a delta-seconds integer or an HTTP-date. now is
// injectable for deterministic tests.
func parseRetryAfter(value string, now func() time.Time) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	when, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}
	d := when.Sub(now())
	if d < 0 {
		return 0, false
	}
	return d, true
}

func isTransient(err error) bool {
	var pErr *pipelineerr.Error
	if !errors.As(err, &pErr) {
		return false
	}
	return pErr.Kind == pipelineerr.SourceTransient
}

func selectRecords(body []byte, selector string) ([]map[string]any, error) {
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	selected, err := jsonPointer(doc, selector)
	if err != nil {
		return nil, err
	}
	arr, ok := selected.([]any)
	if !ok {
		return nil, fmt.Errorf("extract.restapi: response_selector %q did not select an array", selector)
	}
	out := make([]map[string]any, 0, len(arr))
	for _, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("extract.restapi: response_selector %q selected a non-object element", selector)
		}
		out = append(out, m)
	}
	return out, nil
}

// jsonPointer resolves a simple "/" or "/a/b" path into a decoded JSON
// document. An empty selector (or "/") selects the root document.
func jsonPointer(doc any, selector string) (any, error) {
	if selector == "" || selector == "/" {
		return doc, nil
	}
	cur := doc
	for _, part := range splitPointer(selector) {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("extract.restapi: cannot descend into %q of non-object", part)
		}
		next, ok := m[part]
		if !ok {
			return nil, fmt.Errorf("extract.restapi: response_selector segment %q not found", part)
		}
		cur = next
	}
	return cur, nil
}

func splitPointer(selector string) []string {
	var parts []string
	start := 0
	for i, c := range selector {
		if c == '/' {
			if i > start {
				parts = append(parts, selector[start:i])
			}
			start = i + 1
		}
	}
	if start < len(selector) {
		parts = append(parts, selector[start:])
	}
	return parts
}

// parseNextLink extracts the rel="next" target from an RFC 5988 Link header.
func parseNextLink(header string) string {
	for _, part := range splitLinkHeader(header) {
		if containsRelNext(part) {
			return extractURL(part)
		}
	}
	return ""
}

func splitLinkHeader(header string) []string {
	var parts []string
	start := 0
	for i, c := range header {
		if c == ',' {
			parts = append(parts, header[start:i])
			start = i + 1
		}
	}
	if start < len(header) {
		parts = append(parts, header[start:])
	}
	return parts
}

func containsRelNext(part string) bool {
	return indexOf(part, `rel="next"`) >= 0
}

func extractURL(part string) string {
	start := indexOf(part, "<")
	end := indexOf(part, ">")
	if start < 0 || end < 0 || end <= start {
		return ""
	}
	return part[start+1 : end]
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func cloneQuery(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func decodeRestApi(spec source.Descriptor) (*source.RestApi, error) {
	path, _ := spec.Config["path"].(string)
	method, _ := spec.Config["method"].(string)
	selector, _ := spec.Config["response_selector"].(string)
	pagination, _ := spec.Config["pagination"].(string)
	if pagination == "" {
		pagination = string(source.PaginationNone)
	}
	r, err := source.NewRestApi(spec.Name, path, method, selector, source.PaginationPolicy(pagination))
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.ConfigInvalid, "extract.restapi", spec.Name+": invalid rest_api config", err)
	}
	if qp, ok := spec.Config["query_params"].(map[string]string); ok {
		r.QueryParams = qp
	}
	if pk, ok := spec.Config["primary_key_fields"].([]string); ok {
		r.PrimaryKeyFields = pk
	}
	return r, nil
}
