package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ppiankov/teachload/internal/schema"
)

func TestValue_Text(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{String("Алгебра"), "Алгебра"},
		{Number(5), "5"},
		{Number(0.25), "0.25"},
		{Number(0), "0"},
	}

	for _, tt := range tests {
		if got := tt.v.Text(); got != tt.want {
			t.Errorf("Text() = %q, want %q", got, tt.want)
		}
	}
}

func TestNewRecord_WidthMismatch(t *testing.T) {
	s := schema.MustNew([]string{"id", "name"}, []string{"id"})

	if _, err := NewRecord(s, []Value{Number(1)}); err == nil {
		t.Error("expected error for short record")
	}
}

func TestRecord_MarshalJSON_KeepsSchemaOrder(t *testing.T) {
	s := schema.MustNew([]string{"z", "a", "m"}, []string{"a"})
	r, err := NewRecord(s, []Value{String("last"), Number(3), String("")})
	if err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	want := `{"z":"last","a":3,"m":""}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}
}

func TestRecord_Get(t *testing.T) {
	s := schema.MustNew([]string{"id", "name"}, []string{"id"})
	r, _ := NewRecord(s, []Value{Number(7), String("Физика")})

	v, ok := r.Get("name")
	if !ok || v.Str != "Физика" {
		t.Errorf("Get(name) = %+v, %v", v, ok)
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("expected missing field lookup to fail")
	}

	m := r.Map()
	if len(m) != 2 || m["id"] != float64(7) {
		t.Errorf("unexpected map: %v", m)
	}
}

func TestSummary_AddProblem(t *testing.T) {
	var s Summary
	s.AddProblem(ReasonShape)
	s.AddProblem(ReasonShape)
	s.AddProblem(ReasonIndex)

	if s.Problematic != 3 || s.ByReason[ReasonShape] != 2 || s.ByReason[ReasonIndex] != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != ModeText {
		t.Errorf("expected text mode, got %s", cfg.Mode)
	}
	if strings.Join(cfg.Output.Formats, ",") != "csv,json" {
		t.Errorf("unexpected formats: %v", cfg.Output.Formats)
	}
	if !cfg.Grid.DetectHeader {
		t.Error("expected header detection on by default")
	}
	if cfg.Extract.Workers < 1 {
		t.Errorf("expected at least one worker, got %d", cfg.Extract.Workers)
	}
}
