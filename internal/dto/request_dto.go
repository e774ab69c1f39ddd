package dto

type SubmitContactRequestInput struct {
	TargetID string `json:"target_id" binding:"required,uuid"`
	Message  string `json:"message" binding:"max=2000"`
}

type SubmitJobRequestInput struct {
	JobID   string `json:"job_id" binding:"required,uuid"`
	Message string `json:"message" binding:"max=2000"`
}

type DecideRequestInput struct {
	Reason string `json:"reason" binding:"max=2000"`
}

type RequestFilter struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	Kind   string `form:"kind"`
	PageQuery
}

type ContactStatusResponse struct {
	// Status is one of none, pending_sent, pending_received, approved,
	// rejected or self.
	Status    string `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}
