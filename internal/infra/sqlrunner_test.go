package infra

import "testing"

func TestExtractMarker(t *testing.T) {
	query := "--sql 2caa5b21-4c2b-4b72-8a36-7d3d0f9b77a1\nselect 1;\n"
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		t.Fatalf("extractMarker returned error: %v", err)
	}
	if marker != "2caa5b21-4c2b-4b72-8a36-7d3d0f9b77a1" {
		t.Fatalf("marker = %q", marker)
	}
	if trimmed != "select 1;" {
		t.Fatalf("trimmed = %q", trimmed)
	}
}

func TestExtractMarkerRejectsUntaggedQuery(t *testing.T) {
	if _, _, err := extractMarker("select 1;\n"); err == nil {
		t.Fatal("expected error for untagged query")
	}
	if _, _, err := extractMarker("-- just a comment\nselect 1;"); err == nil {
		t.Fatal("expected error for invalid marker")
	}
}
