package aws_test

import (
	"context"
	"testing"
	"time"

	"github.com/rshade/billingfocus/providers/aws"
	"github.com/rshade/billingfocus/registry"
	"github.com/rshade/billingfocus/source"
)

func TestRegister_WiresFactories(t *testing.T) {
	t.Parallel()
	reg := registry.New(nil)
	aws.Register(reg)

	metadata, err := reg.GetMetadata(aws.Tag)
	if err != nil {
		t.Fatal(err)
	}
	if metadata.DisplayName != "Amazon Web Services" {
		t.Errorf("DisplayName = %q", metadata.DisplayName)
	}

	if _, err := reg.NewExtractor(aws.Tag, nil); err == nil {
		t.Error("expected newExtractor to report the missing s3:// opener")
	}

	if _, err := reg.NewMapper(aws.Tag, nil); err != nil {
		t.Fatal(err)
	}
}

func TestStaticSource_Descriptors_ParquetSnappyExport(t *testing.T) {
	t.Parallel()
	reg := registry.New(nil)
	aws.Register(reg)

	src, err := reg.NewSource(aws.Tag, map[string]any{"bucket_name": "s3://my-cur-bucket"})
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
	if d.Config["format"] != string(source.FileFormatParquet) || d.Config["compression"] != string(source.CompressionSnappy) {
		t.Errorf("descriptor config = %+v", d.Config)
	}
	if d.Config["date_column"] != "ChargePeriodStart" {
		t.Errorf("date_column = %v, want ChargePeriodStart", d.Config["date_column"])
	}
}
