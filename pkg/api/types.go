package api

// QuotaResponse reports a user's daily quota standing.
type QuotaResponse struct {
	UserID    string `json:"user_id"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

// MonthlyResponse reports the shared monthly counter.
type MonthlyResponse struct {
	Total     int `json:"total"`
	Cap       int `json:"cap"`
	Remaining int `json:"remaining"`
}

// StatsEntry is one user's count in a daily stats snapshot.
type StatsEntry struct {
	UserID string `json:"user_id"`
	Count  int    `json:"count"`
}

// StatsResponse reports today's usage across all users.
type StatsResponse struct {
	Total int          `json:"total"`
	Users []StatsEntry `json:"users"`
}

// SetLimitRequest is the body for the set-limit admin endpoint.
type SetLimitRequest struct {
	UserID string `json:"user_id"`
	Limit  int    `json:"limit"`
}

// ResetRequest is the body for the reset-daily admin endpoint.
type ResetRequest struct {
	UserID string `json:"user_id"`
}
