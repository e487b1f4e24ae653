package handler

import (
	"errors"
	"strings"
	"testing"

	"github.com/vyrodovalexey/material-ledger/internal/model"
)

func ptr[T any](v T) *T {
	return &v
}

func TestValidator_Struct(t *testing.T) {
	tests := []struct {
		name       string
		strict     bool
		dest       any
		wantFields []string
	}{
		{
			name:   "complete create",
			strict: true,
			dest: &createMaterialRequest{
				Name:     ptr("Stylo"),
				Status:   ptr(model.StatusGood),
				Quantity: ptr(0),
			},
		},
		{
			name:       "empty create",
			strict:     true,
			dest:       &createMaterialRequest{},
			wantFields: []string{"name", "status", "quantity"},
		},
		{
			name:   "long name",
			strict: true,
			dest: &createMaterialRequest{
				Name:     ptr(strings.Repeat("a", 256)),
				Status:   ptr(model.StatusBad),
				Quantity: ptr(1),
			},
			wantFields: []string{"name"},
		},
		{
			name:   "empty update",
			strict: true,
			dest:   &model.MaterialInput{},
		},
		{
			name:       "update with bad status",
			strict:     true,
			dest:       &model.MaterialInput{Status: ptr(model.Status("new"))},
			wantFields: []string{"status"},
		},
		{
			name:   "lenient accepts anything",
			strict: false,
			dest:   &createMaterialRequest{Quantity: ptr(-3)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			v := NewValidator(tt.strict)

			// Act
			err := v.Struct(tt.dest)

			// Assert
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("Struct() error = %v", err)
				}
				return
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("Struct() error = %v, want %v", err, ErrValidation)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Struct() error type = %T", err)
			}
			if len(verr.Fields) != len(tt.wantFields) {
				t.Errorf("fields = %v, want %v", verr.Fields, tt.wantFields)
			}
			for _, field := range tt.wantFields {
				if _, ok := verr.Fields[field]; !ok {
					t.Errorf("missing field %q in %v", field, verr.Fields)
				}
			}
		})
	}
}

func TestValidator_StatusMessage(t *testing.T) {
	err := NewValidator(true).Struct(&model.MaterialInput{Status: ptr(model.Status("x"))})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Struct() error = %v", err)
	}
	want := `must be one of "bon", "mauvais", "abîmé"`
	if verr.Fields["status"] != want {
		t.Errorf("status message = %q, want %q", verr.Fields["status"], want)
	}
}
