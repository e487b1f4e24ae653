// Package handler provides HTTP request handlers for the ledger API.
package handler

import "github.com/vyrodovalexey/material-ledger/internal/model"

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// StatusesResponse lists the status tokens a client may submit.
type StatusesResponse struct {
	Statuses map[string]model.Status `json:"statuses"`
}

// createMaterialRequest is the strict form of a create body: every field
// must be present.
type createMaterialRequest struct {
	Name     *string       `json:"name" validate:"required,min=1,max=255"`
	Status   *model.Status `json:"status" validate:"required,material_status"`
	Quantity *int          `json:"quantity" validate:"required,min=0"`
}

func (r createMaterialRequest) input() model.MaterialInput {
	return model.MaterialInput{
		Name:     r.Name,
		Status:   r.Status,
		Quantity: r.Quantity,
	}
}
