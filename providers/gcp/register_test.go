package gcp_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rshade/billingfocus/providers/gcp"
	"github.com/rshade/billingfocus/registry"
	"github.com/rshade/billingfocus/source"
)

func TestRegister_WiresFactories(t *testing.T) {
	t.Parallel()
	reg := registry.New(nil)
	gcp.Register(reg)

	metadata, err := reg.GetMetadata(gcp.Tag)
	if err != nil {
		t.Fatal(err)
	}
	if metadata.DisplayName != "Google Cloud Platform" {
		t.Errorf("DisplayName = %q", metadata.DisplayName)
	}
}

func TestStaticSource_Descriptors_QueryTemplateShape(t *testing.T) {
	t.Parallel()
	reg := registry.New(nil)
	gcp.Register(reg)

	src, err := reg.NewSource(gcp.Tag, map[string]any{"table": "project.dataset.table", "chunk_size": 10000})
	if err != nil {
		t.Fatal(err)
	}

	window := source.Window{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	descriptors, err := src.Descriptors(context.Background(), window)
	if err != nil {
		t.Fatal(err)
	}
	if len(descriptors) != 1 {
		t.Fatalf("len(descriptors) = %d, want 1", len(descriptors))
	}

	d := descriptors[0]
	if d.Name != "billing_export" || d.SourceType != source.TypeSqlDatabase {
		t.Errorf("descriptor = %+v", d)
	}
	query, _ := d.Config["query"].(string)
	if !strings.Contains(query, "FROM {{table}}") {
		t.Errorf("query template missing {{table}} placeholder: %q", query)
	}
	if !strings.Contains(query, "ORDER BY usage_start_time") {
		t.Errorf("query template missing ordering clause: %q", query)
	}
	if d.Config["chunk_size"] != 10000 {
		t.Errorf("chunk_size = %v, want 10000", d.Config["chunk_size"])
	}
}
