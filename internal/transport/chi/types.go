package chi

import "time"

type experienceJSON struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Location    string   `json:"location"`
	Price       float64  `json:"price"`
	Tags        []string `json:"tags"`
}

type matchResultJSON struct {
	Experience experienceJSON `json:"experience"`
	Reason     string         `json:"reason"`
	Score      float64        `json:"score"`
}

type searchResponse struct {
	Results []matchResultJSON `json:"results"`
	Message string            `json:"message,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}

type experiencesResponse struct {
	Experiences []experienceJSON `json:"experiences"`
}

type usageMetrics struct {
	Tokens int64 `json:"tokens"`
}

type budgetStatus struct {
	TokensLimit     int64      `json:"tokens_limit"`
	TokensRemaining int64      `json:"tokens_remaining"`
	IsExhausted     bool       `json:"is_exhausted"`
	ResetsAt        *time.Time `json:"resets_at,omitempty"`
}

type usageResponse struct {
	Period        string       `json:"period"`
	Provider      string       `json:"provider,omitempty"`
	PeriodStartAt *time.Time   `json:"period_start_at,omitempty"`
	PeriodEndAt   *time.Time   `json:"period_end_at,omitempty"`
	Usage         usageMetrics `json:"usage"`
	Budget        budgetStatus `json:"budget"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
