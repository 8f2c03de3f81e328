package models

// JudgeRecord is one judged round as listed on a judge's record page,
// optionally enriched with entry names and speaker points.
type JudgeRecord struct {
	JudgeID    string `json:"judge_id"`
	JudgeName  string `json:"judge_name"`
	Tournament string `json:"tournament"`
	Level      string `json:"level"`

	// Date is YYYY-MM-DD or empty when the cell had no ISO date.
	Date  string `json:"date"`
	Event string `json:"event"`
	Round string `json:"round"`

	AffCode string `json:"aff_code"`
	NegCode string `json:"neg_code"`

	// Vote keeps the source casing; compare lowercased.
	Vote   string `json:"vote"`
	Result string `json:"result"`

	// Entry names and points are empty when correlation fails.
	// Points are absent for elimination rounds.
	AffName   string `json:"aff_name"`
	AffPoints string `json:"aff_points"`
	NegName   string `json:"neg_name"`
	NegPoints string `json:"neg_points"`

	// Filled only for records produced by a tournament run.
	TournamentName     string `json:"tournament_name,omitempty"`
	TournamentYear     string `json:"tournament_year,omitempty"`
	TournamentLocation string `json:"tournament_location,omitempty"`
}

// WithTournament returns a copy of r annotated with info.
func (r JudgeRecord) WithTournament(info TournamentInfo) JudgeRecord {
	r.TournamentName = info.Name
	r.TournamentYear = info.Year
	r.TournamentLocation = info.Location
	return r
}

// Candidate is a judge search result row.
type Candidate struct {
	FullName   string `json:"full_name"`
	ProfileURL string `json:"profile_url"`
}

// TournamentInfo describes the tournament a batch run was taken from.
type TournamentInfo struct {
	Name     string `json:"name"`
	Year     string `json:"year"`
	Location string `json:"location"`
}

// JudgeListEntry is one judge row on a tournament judge list.
type JudgeListEntry struct {
	JudgeID    string `json:"judge_id"`
	JudgeName  string `json:"judge_name"`
	ProfileURL string `json:"profile_url"`
}

// JudgeResult is the outcome of a judge search or a single profile
// extraction. Records may be non-empty even when Err is set.
type JudgeResult struct {
	Query      string        `json:"query,omitempty"`
	JudgeID    string        `json:"judge_id"`
	JudgeName  string        `json:"judge_name"`
	ProfileURL string        `json:"profile_url"`
	Records    []JudgeRecord `json:"records"`
	Err        *ScrapeError  `json:"-"`
}

// JudgeOutcome summarises one judge of a tournament run.
type JudgeOutcome struct {
	JudgeID    string       `json:"judge_id"`
	JudgeName  string       `json:"judge_name"`
	ProfileURL string       `json:"profile_url"`
	Records    int          `json:"records"`
	Skipped    bool         `json:"skipped,omitempty"`
	Err        *ScrapeError `json:"-"`
	Error      *ErrorDetail `json:"error,omitempty"`
}

// TournamentResult aggregates every judge of a tournament run.
// Partial success is normal: failed judges appear in Judges with Err set.
type TournamentResult struct {
	URL     string         `json:"url"`
	Info    TournamentInfo `json:"info"`
	Records []JudgeRecord  `json:"records"`
	Judges  []JudgeOutcome `json:"judges"`
	Err     *ScrapeError   `json:"-"`
}

// Failed returns the number of judges that ended with an error. Judges
// whose record table was simply empty do not count.
func (r *TournamentResult) Failed() int {
	n := 0
	for _, j := range r.Judges {
		if j.Err != nil && j.Err.Code != ErrCodeNoRecords {
			n++
		}
	}
	return n
}
