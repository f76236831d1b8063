package race

import (
	"encoding/json"
	"testing"
)

func TestTypeListUnmarshalScalarAndArray(t *testing.T) {
	var scalar TypeList
	if err := json.Unmarshal([]byte(`"OCR"`), &scalar); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scalar) != 1 || scalar[0] != "OCR" {
		t.Fatalf("expected singleton list, got %+v", scalar)
	}

	var many TypeList
	if err := json.Unmarshal([]byte(`["OCR","Trail"]`), &many); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(many) != 2 || many[0] != "OCR" || many[1] != "Trail" {
		t.Fatalf("expected two labels in order, got %+v", many)
	}

	var empty TypeList
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty string to yield no labels, got %+v", empty)
	}

	if err := json.Unmarshal([]byte(`42`), &empty); err == nil {
		t.Fatal("expected error for non-string, non-array value")
	}
}

func TestTypeListMarshalAlwaysArray(t *testing.T) {
	out, err := json.Marshal(Race{ID: "1", Types: TypeList{"OCR"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := decoded["race_type"].([]interface{}); !ok {
		t.Fatalf("race_type must marshal as an array, got %T", decoded["race_type"])
	}
}
