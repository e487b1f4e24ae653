package model

import (
	"encoding/json"
	"testing"
)

func TestStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{"good", StatusGood, true},
		{"bad", StatusBad, true},
		{"damaged", StatusDamaged, true},
		{"damaged without accent", Status("abime"), false},
		{"enum name instead of token", Status("GOOD"), false},
		{"empty", Status(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusValues(t *testing.T) {
	want := map[string]string{
		"GOOD":    "bon",
		"BAD":     "mauvais",
		"DAMAGED": "abîmé",
	}

	if len(StatusValues) != len(want) {
		t.Fatalf("StatusValues has %d entries, want %d", len(StatusValues), len(want))
	}
	for name, token := range want {
		if got := string(StatusValues[name]); got != token {
			t.Errorf("StatusValues[%q] = %q, want %q", name, got, token)
		}
	}
}

func TestMaterialInput_ApplyTo(t *testing.T) {
	// Arrange
	m := Material{ID: 7, Name: "Trombone", Status: StatusGood, Quantity: 30}
	quantity := 12

	// Act
	MaterialInput{Quantity: &quantity}.ApplyTo(&m)

	// Assert
	want := Material{ID: 7, Name: "Trombone", Status: StatusGood, Quantity: 12}
	if m != want {
		t.Errorf("ApplyTo() = %+v, want %+v", m, want)
	}
}

func TestMaterialInput_Empty(t *testing.T) {
	name := "Stylo"

	if !(MaterialInput{}).Empty() {
		t.Error("zero input should be empty")
	}
	if (MaterialInput{Name: &name}).Empty() {
		t.Error("input with a name should not be empty")
	}
}

func TestMaterial_JSON(t *testing.T) {
	// Arrange
	m := Material{ID: 3, Name: "Crayon", Status: StatusDamaged, Quantity: 10}

	// Act
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	// Assert
	want := `{"id":3,"name":"Crayon","status":"abîmé","quantity":10}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestSnapshot_JSONLayout(t *testing.T) {
	snap := Snapshot{
		Materials: []Material{{ID: 1, Name: "Stylo", Status: StatusGood, Quantity: 50}},
		LastID:    15,
	}

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `{"materials":[{"id":1,"name":"Stylo","status":"bon","quantity":50}],"lastId":15}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestSnapshot_Clone(t *testing.T) {
	// Arrange
	original := Snapshot{
		Materials: []Material{{ID: 1, Name: "Stylo", Status: StatusGood, Quantity: 50}},
		LastID:    1,
	}

	// Act
	clone := original.Clone()
	clone.Materials[0].Quantity = 0

	// Assert
	if original.Materials[0].Quantity != 50 {
		t.Error("Clone() should not share the materials backing array")
	}
}

func TestSummarize(t *testing.T) {
	materials := []Material{
		{ID: 1, Status: StatusGood, Quantity: 50},
		{ID: 2, Status: StatusGood, Quantity: 20},
		{ID: 3, Status: StatusDamaged, Quantity: 10},
		{ID: 4, Status: StatusBad, Quantity: 5},
		{ID: 5, Status: Status("perdu"), Quantity: 4},
	}

	got := Summarize(materials)

	want := Summary{Total: 89, Good: 70, Bad: 5, Damaged: 10}
	if got != want {
		t.Errorf("Summarize() = %+v, want %+v", got, want)
	}
}

func TestNewLedgerMessage(t *testing.T) {
	snap := Snapshot{
		Materials: []Material{{ID: 1, Name: "Stylo", Status: StatusGood, Quantity: 50}},
		LastID:    1,
	}

	msg := NewLedgerMessage(WSMessageTypeChanged, snap, Summarize(snap.Materials))

	if msg.Type != WSMessageTypeChanged {
		t.Errorf("Type = %s, want %s", msg.Type, WSMessageTypeChanged)
	}
	if msg.State == nil {
		t.Fatal("State should be set")
	}
	if msg.State.Summary.Good != 50 {
		t.Errorf("Summary.Good = %d, want 50", msg.State.Summary.Good)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
}

func TestAPIResponse(t *testing.T) {
	ok := NewSuccessResponse(Summary{Total: 1})
	if !ok.Success || ok.Data.Total != 1 {
		t.Errorf("NewSuccessResponse() = %+v", ok)
	}

	failed := NewErrorResponse[Summary]("boom")
	if failed.Success || failed.Error != "boom" {
		t.Errorf("NewErrorResponse() = %+v", failed)
	}
}
