package dto

// ChatRequest payload. The portal sends isFollowUp; is_follow_up is accepted as well.
type ChatRequest struct {
	Message         string `json:"message"`
	IsFollowUp      bool   `json:"isFollowUp"`
	IsFollowUpSnake bool   `json:"is_follow_up"`
}

// FollowUp reports whether either hint field was set.
func (r ChatRequest) FollowUp() bool {
	return r.IsFollowUp || r.IsFollowUpSnake
}
