package dto

type NotificationFilter struct {
	Status string `form:"status" binding:"omitempty,oneof=unread read archived"`
	Type   string `form:"type"`
	PageQuery
}

type UnreadCountResponse struct {
	General  int64 `json:"general"`
	Messages int64 `json:"messages"`
	// PollIntervalSeconds tells the client how often to re-poll this
	// endpoint. Delivery is pull-based only.
	PollIntervalSeconds int `json:"poll_interval_seconds"`
}
