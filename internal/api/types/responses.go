package types

import "github.com/navin3756/shipit/internal/models"

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *Meta     `json:"meta,omitempty"`
}

type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details string         `json:"details,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

type Meta struct {
	RequestID string `json:"request_id,omitempty"`
	Page      int    `json:"page,omitempty"`
	PageSize  int    `json:"page_size,omitempty"`
	Total     int64  `json:"total,omitempty"`
}

// ValueResponse is the live-session ticker of a project.
type ValueResponse struct {
	ProjectID      string               `json:"projectId"`
	Status         models.ProjectStatus `json:"status"`
	ValueDelivered float64              `json:"valueDelivered"`
	BookingTotal   float64              `json:"bookingTotal"`
}

// PlanResponse reports whether selecting a plan upgraded a project.
type PlanResponse struct {
	Upgraded bool            `json:"upgraded"`
	Project  *models.Project `json:"project,omitempty"`
}
