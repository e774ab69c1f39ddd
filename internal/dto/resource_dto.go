package dto

type CreateResourceInput struct {
	Kind  string `json:"kind" binding:"required,oneof=job event bulletin article"`
	Title string `json:"title" binding:"required,max=200"`
	Body  string `json:"body" binding:"max=20000"`
}

type UpdateResourceInput struct {
	Title string `json:"title" binding:"required,max=200"`
	Body  string `json:"body" binding:"max=20000"`
}

type RejectResourceInput struct {
	Reason string `json:"reason" binding:"required,max=2000"`
}

type ResourceFilter struct {
	Kind   string `form:"kind" binding:"omitempty,oneof=job event bulletin article"`
	Status string `form:"status" binding:"omitempty,oneof=draft pending published rejected archived closed"`
	PageQuery
}
