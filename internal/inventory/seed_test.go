package inventory

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSnapshotJSON_PreservesOrder(t *testing.T) {
	in := `{"b": {"z": 1, "a": 2}, "a": {}, "c": {"x": 0}}`
	var snap Snapshot
	if err := json.Unmarshal([]byte(in), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	var ids []string
	for _, a := range snap {
		ids = append(ids, a.ID)
	}
	if !reflect.DeepEqual(ids, []string{"b", "a", "c"}) {
		t.Fatalf("article order lost: %v", ids)
	}
	if snap[0].Colors[0].Color != "z" || snap[0].Colors[1].Color != "a" {
		t.Fatalf("color order lost: %+v", snap[0].Colors)
	}
	out, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `{"b":{"z":1,"a":2},"a":{},"c":{"x":0}}` {
		t.Fatalf("unexpected encoding: %s", out)
	}
}

func TestSnapshotJSON_RejectsNonInteger(t *testing.T) {
	var snap Snapshot
	if err := json.Unmarshal([]byte(`{"a": {"x": "lots"}}`), &snap); err == nil {
		t.Fatalf("expected error, got %+v", snap)
	}
	if err := json.Unmarshal([]byte(`{"a": {"x": 1.5}}`), &snap); err == nil {
		t.Fatalf("expected error for fractional quantity")
	}
}

func TestLoadSeed(t *testing.T) {
	dir := t.TempDir()
	if snap, err := LoadSeed(filepath.Join(dir, "none.json")); err != nil || len(snap) != 0 {
		t.Fatalf("missing seed: %+v %v", snap, err)
	}
	p := filepath.Join(dir, "initial_inventory.json")
	_ = os.WriteFile(p, []byte(`{"715-44": ["Black", " White ", "Black"], "100": []}`), 0o644)
	snap, err := LoadSeed(p)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	want := Snapshot{
		{ID: "715-44", Colors: []Variant{{"Black", 0}, {"White", 0}}},
		{ID: "100"},
	}
	if !reflect.DeepEqual(snap, want) {
		t.Fatalf("got %+v", snap)
	}
}

func TestParseBulk(t *testing.T) {
	text := "/massadd\n715-44: Black, White\nnot a line\n100:  Red ,, \n715-44: Blue"
	snap, lines := ParseBulk(text)
	if lines != 3 {
		t.Fatalf("want 3 lines, got %d", lines)
	}
	want := Snapshot{
		{ID: "715-44", Colors: []Variant{{"Black", 0}, {"White", 0}, {"Blue", 0}}},
		{ID: "100", Colors: []Variant{{"Red", 0}}},
	}
	if !reflect.DeepEqual(snap, want) {
		t.Fatalf("got %+v", snap)
	}
}
