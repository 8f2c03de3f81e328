package models

// SearchResponse is the response for POST /api/v1/judges/search.
type SearchResponse struct {
	// Success is false when the search ended with an error. Records may
	// still be present in that case.
	Success bool `json:"success"`

	Query      string        `json:"query"`
	JudgeID    string        `json:"judge_id,omitempty"`
	JudgeName  string        `json:"judge_name,omitempty"`
	ProfileURL string        `json:"profile_url,omitempty"`
	Records    []JudgeRecord `json:"records"`

	// Stored is the number of records written to the store.
	Stored int `json:"stored"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent on a request.
type TimingInfo struct {
	// TotalMs is the end-to-end duration in milliseconds.
	TotalMs int64 `json:"total_ms"`
}

// ErrorResponse is the body of every failed request that has no richer
// response type.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}

// NewErrorResponse builds a failed ErrorResponse.
func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{Error: &ErrorDetail{Code: code, Message: message}}
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`

	// StoredRecords is -1 when no store is configured.
	StoredRecords int    `json:"stored_records"`
	CachedResults int    `json:"cached_results"`
	Version       string `json:"version"`
}

// PoolStats reports the state of the session provider.
type PoolStats struct {
	Engine        string `json:"engine"`
	MaxHandles    int    `json:"max_handles"`
	ActiveHandles int    `json:"active_handles"`
	LiveHandles   int    `json:"live_handles"`
	LoggedIn      bool   `json:"logged_in"`
}
