package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type createIncidentRequest struct {
	Title       string `json:"title"       validate:"required"`
	Location    string `json:"location"    validate:"required"`
	Description string `json:"description" validate:"required"`
	Type        string `json:"type"        validate:"omitempty,oneof=General Sanitation Infrastructure Traffic Water"`
	IsAnonymous bool   `json:"isAnonymous"`
	ImageURL    string `json:"imageUrl"    validate:"omitempty,url"`
}

// updateIncidentRequest is deliberately restricted to the status field:
// title, location, description, type, user and createdAt are immutable after
// creation and cannot be overwritten through PUT.
type updateIncidentRequest struct {
	Status string `json:"status" validate:"required,oneof=Open 'In Progress' Resolved"`
}
