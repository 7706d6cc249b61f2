package core

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestSamples_PreviewAsValid(t *testing.T) {
	for _, format := range []string{FormatCSV, FormatXLSX} {
		t.Run(format, func(t *testing.T) {
			data, contentType, err := Sample(format)
			if err != nil {
				t.Fatalf("Sample(%s): %v", format, err)
			}
			if contentType == "" {
				t.Error("empty content type")
			}

			res, err := newTestService(&fakeStore{}).Preview(context.Background(), "sample."+format, data)
			if err != nil {
				t.Fatalf("Preview: %v", err)
			}
			if res.Summary.ValidRows != len(sampleRows) || res.Summary.ErrorRows != 0 {
				t.Errorf("Summary = %+v, errors = %+v", res.Summary, res.ErrorRows)
			}
			for i, f := range res.FieldMapping {
				if f == nil {
					t.Errorf("sample column %d is not recognized", i)
				}
			}
		})
	}
}

func TestSampleCSV_HasBOM(t *testing.T) {
	data, err := SampleCSV()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		t.Error("sample CSV should start with a UTF-8 BOM")
	}
}

func TestSample_UnknownFormat(t *testing.T) {
	if _, _, err := Sample("ods"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Sample(ods) error = %v, want ErrUnsupportedFormat", err)
	}
}
