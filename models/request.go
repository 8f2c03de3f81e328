package models

// SearchRequest is the payload for POST /api/v1/judges/search.
type SearchRequest struct {
	// Name is the judge's full name as shown on tabroom. Required.
	Name string `json:"name" binding:"required"`

	// MaxAge is the oldest cached result to accept, in seconds.
	// 0 skips the cache lookup.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0,max=604800"`

	// Save persists the records in the store when one is configured.
	// Default: true.
	Save *bool `json:"save,omitempty"`
}

// Defaults applies default values to unset fields.
func (r *SearchRequest) Defaults() {
	if r.Save == nil {
		t := true
		r.Save = &t
	}
}

// TournamentRequest is the payload for POST /api/v1/tournaments/scrape.
type TournamentRequest struct {
	// URL is the tournament judge list page. Required.
	URL string `json:"url" binding:"required,url"`

	// MaxJudges truncates the judge list. 0 means no limit.
	MaxJudges int `json:"max_judges,omitempty" binding:"omitempty,min=0"`

	// Workers is the number of judges processed at once.
	// 0 uses the server default. Max: 8.
	Workers int `json:"workers,omitempty" binding:"omitempty,min=0,max=8"`

	// SkipExisting leaves out judges that already have stored records.
	SkipExisting bool `json:"skip_existing,omitempty"`

	// WebhookURL receives a tournament.completed or tournament.failed
	// event when the job ends.
	WebhookURL string `json:"webhook_url,omitempty" binding:"omitempty,url"`

	// WebhookSecret signs webhook bodies with HMAC-SHA256.
	WebhookSecret string `json:"webhook_secret,omitempty"`
}
