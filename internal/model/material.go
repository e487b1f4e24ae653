// Package model defines data structures used throughout the application.
package model

// Status is the condition of a material, serialized as a localized token.
type Status string

// Material status tokens. The wire values are fixed and must not change.
const (
	StatusGood    Status = "bon"
	StatusBad     Status = "mauvais"
	StatusDamaged Status = "abîmé"
)

// StatusValues maps the status names to their tokens, for populating
// selectable status options in a client.
var StatusValues = map[string]Status{
	"GOOD":    StatusGood,
	"BAD":     StatusBad,
	"DAMAGED": StatusDamaged,
}

// Valid reports whether s is one of the recognized tokens.
func (s Status) Valid() bool {
	switch s {
	case StatusGood, StatusBad, StatusDamaged:
		return true
	default:
		return false
	}
}

// Material is a tracked inventory record: one condition bucket of an item type.
type Material struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Status   Status `json:"status" yaml:"status"`
	Quantity int    `json:"quantity" yaml:"quantity"`
}

// MaterialInput carries the fields of a create or update request.
// A nil field is absent and left untouched.
type MaterialInput struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Status   *Status `json:"status,omitempty" validate:"omitempty,material_status"`
	Quantity *int    `json:"quantity,omitempty" validate:"omitempty,min=0"`
}

// ApplyTo overwrites every present field of in onto m.
func (in MaterialInput) ApplyTo(m *Material) {
	if in.Name != nil {
		m.Name = *in.Name
	}
	if in.Status != nil {
		m.Status = *in.Status
	}
	if in.Quantity != nil {
		m.Quantity = *in.Quantity
	}
}

// Empty reports whether no field is present.
func (in MaterialInput) Empty() bool {
	return in.Name == nil && in.Status == nil && in.Quantity == nil
}

// NewMaterialInput builds an input with every field present.
func NewMaterialInput(name string, status Status, quantity int) MaterialInput {
	return MaterialInput{
		Name:     &name,
		Status:   &status,
		Quantity: &quantity,
	}
}

// Snapshot is the persisted form of the ledger.
type Snapshot struct {
	Materials []Material `json:"materials" yaml:"materials"`
	LastID    int        `json:"lastId" yaml:"lastId"`
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	materials := make([]Material, len(s.Materials))
	copy(materials, s.Materials)
	return Snapshot{Materials: materials, LastID: s.LastID}
}

// Summary holds the derived quantity aggregates of the ledger.
type Summary struct {
	Total   int `json:"total"`
	Good    int `json:"good"`
	Bad     int `json:"bad"`
	Damaged int `json:"damaged"`
}

// Summarize computes the quantity aggregates of materials.
// Materials with an unrecognized status only contribute to Total.
func Summarize(materials []Material) Summary {
	var s Summary
	for _, m := range materials {
		s.Total += m.Quantity
		switch m.Status {
		case StatusGood:
			s.Good += m.Quantity
		case StatusBad:
			s.Bad += m.Quantity
		case StatusDamaged:
			s.Damaged += m.Quantity
		}
	}
	return s
}
