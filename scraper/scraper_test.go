package scraper

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/judgetrack/models"
)

func janeDoeRecords(correlated bool) []models.JudgeRecord {
	base := models.JudgeRecord{JudgeID: "1", JudgeName: "Jane Doe", Level: "HS", Event: "LD"}
	r1 := base
	r1.Tournament, r1.Date, r1.Round = "Alpha Invitational", "2024-03-15", "1"
	r1.AffCode, r1.NegCode, r1.Vote, r1.Result = "Lincoln AB", "Central CD", "Aff", "AFF"
	if correlated {
		r1.AffName, r1.AffPoints = "Lincoln AB: Ann Smith & Bo Lee", "28.5"
		r1.NegName, r1.NegPoints = "Central CD", "27.5"
	}
	r2 := base
	r2.Tournament, r2.Date, r2.Round = "Alpha Invitational", "2024-03-15", "2"
	r2.AffCode, r2.NegCode, r2.Vote, r2.Result = "Lincoln AB", "North EF", "Neg", "NEG"
	r3 := base
	r3.Tournament, r3.Date, r3.Round = "Alpha Invitational", "2024-03-16", "Semis"
	r3.AffCode, r3.NegCode, r3.Vote, r3.Result = "Lincoln AB", "North EF", "Aff", "2-1 AFF"
	return []models.JudgeRecord{r1, r2, r3}
}

func TestExtractJudge_SkipsHeaderAndShortRows(t *testing.T) {
	srv := newFakeSite(t)
	s, p := newTestScraper(t, srv, false)
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	require.NoError(t, err)
	defer p.Release(h)

	res := s.ExtractJudge(ctx, h, srv.URL+"/index/paradigm.mhtml?judge_person_id=1", true)
	require.Nil(t, res.Err)
	assert.Equal(t, "1", res.JudgeID)
	assert.Equal(t, "Jane Doe", res.JudgeName)
	if diff := cmp.Diff(janeDoeRecords(false), res.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractJudge_CorrelatesBothLayouts(t *testing.T) {
	srv := newFakeSite(t)
	s, p := newTestScraper(t, srv, true)
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	require.NoError(t, err)
	defer p.Release(h)

	profile := srv.URL + "/index/paradigm.mhtml?judge_person_id=1"
	res := s.ExtractJudge(ctx, h, profile, true)
	require.Nil(t, res.Err)
	if diff := cmp.Diff(janeDoeRecords(true), res.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, profile, h.CurrentURL(), "handle must be back on the profile page")
}

func TestCorrelateEntry_MissingEntryReturnsToProfile(t *testing.T) {
	srv := newFakeSite(t)
	s, p := newTestScraper(t, srv, true)
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	require.NoError(t, err)
	defer p.Release(h)

	profile := srv.URL + "/index/paradigm.mhtml?judge_person_id=1"
	require.NoError(t, h.Navigate(ctx, profile))

	name, points := s.CorrelateEntry(ctx, h, srv.URL+"/entry?entry_id=999", "Jane Doe", "1", "Central CD")
	assert.Empty(t, name)
	assert.Empty(t, points)
	assert.Equal(t, profile, h.CurrentURL(), "handle must be back on the profile page")
}

func TestExtractJudge_Idempotent(t *testing.T) {
	srv := newFakeSite(t)
	s, p := newTestScraper(t, srv, true)
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	require.NoError(t, err)
	defer p.Release(h)

	profile := srv.URL + "/index/paradigm.mhtml?judge_person_id=1"
	first := s.ExtractJudge(ctx, h, profile, true)
	second := s.ExtractJudge(ctx, h, profile, false)
	if diff := cmp.Diff(first.Records, second.Records); diff != "" {
		t.Errorf("second extraction differs (-first +second):\n%s", diff)
	}
}

func TestExtractJudge_MissingTable(t *testing.T) {
	srv := newFakeSite(t)
	s, p := newTestScraper(t, srv, false)
	ctx := context.Background()

	h, err := p.Acquire(ctx)
	require.NoError(t, err)
	defer p.Release(h)

	res := s.ExtractJudge(ctx, h, srv.URL+"/index/paradigm.mhtml", true)
	require.NotNil(t, res.Err)
	assert.Equal(t, models.ErrCodeNoRecords, res.Err.Code)
	assert.Empty(t, res.Records)
}

func TestSearchJudge_DirectMatchNavigatesOnce(t *testing.T) {
	srv := newFakeSite(t)
	s, p := newTestScraper(t, srv, false)

	res := s.SearchJudge(context.Background(), "solo  judge")
	require.Nil(t, res.Err)
	assert.Equal(t, "solo judge", res.Query)
	assert.Equal(t, "Solo Judge", res.JudgeName)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Gamma Classic", res.Records[0].Tournament)

	assert.Equal(t, int32(1), p.navigations.Load())
	assert.Equal(t, int32(1), p.acquired.Load())
	assert.Equal(t, int32(1), p.released.Load())
}

func TestSearchJudge_PicksExactCandidate(t *testing.T) {
	srv := newFakeSite(t)
	s, p := newTestScraper(t, srv, true)

	res := s.SearchJudge(context.Background(), "Jane Doe")
	require.Nil(t, res.Err)
	assert.Equal(t, "1", res.JudgeID)
	assert.Equal(t, "Jane Doe", res.JudgeName)
	assert.Equal(t, srv.URL+"/index/paradigm.mhtml?judge_person_id=1", res.ProfileURL)
	if diff := cmp.Diff(janeDoeRecords(true), res.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, p.acquired.Load(), p.released.Load())
}

func TestSearchJudge_NoExactMatch(t *testing.T) {
	srv := newFakeSite(t)
	s, p := newTestScraper(t, srv, false)

	res := s.SearchJudge(context.Background(), "Janet Doe")
	require.NotNil(t, res.Err)
	assert.Equal(t, models.ErrCodeJudgeNotFound, res.Err.Code)
	assert.Contains(t, res.Err.Message, "Jane Doe")
	assert.Empty(t, res.Records)
	assert.Equal(t, int32(1), p.released.Load())
}

func TestSearchJudge_EmptyName(t *testing.T) {
	srv := newFakeSite(t)
	s, p := newTestScraper(t, srv, false)

	res := s.SearchJudge(context.Background(), "   ")
	require.NotNil(t, res.Err)
	assert.Equal(t, models.ErrCodeInvalidInput, res.Err.Code)
	assert.Equal(t, int32(0), p.acquired.Load())
}

func TestSearchJudge_CanceledContextReleases(t *testing.T) {
	srv := newFakeSite(t)
	s, p := newTestScraper(t, srv, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := s.SearchJudge(ctx, "Jane Doe")
	require.NotNil(t, res.Err)
	assert.Empty(t, res.Records)
	assert.Equal(t, p.acquired.Load(), p.released.Load())
}

func TestScrapeTournament_FailingJudgeDoesNotAbort(t *testing.T) {
	srv := newFakeSite(t, "2")
	s, p := newTestScraper(t, srv, false)

	var mu sync.Mutex
	backups := map[string]int{}
	res := s.ScrapeTournament(context.Background(), srv.URL+"/index/tourn/judges.mhtml", TournamentOptions{
		OnJudge: func(j models.JudgeListEntry, recs []models.JudgeRecord) {
			mu.Lock()
			defer mu.Unlock()
			backups[j.JudgeID] = len(recs)
		},
	})
	require.Nil(t, res.Err)

	assert.Equal(t, models.TournamentInfo{Name: "Test Invitational", Year: "2025", Location: "Atlanta, GA/US"}, res.Info)
	require.Len(t, res.Judges, 5)
	assert.Equal(t, models.ErrCodeNavigation, res.Judges[1].Err.Code)
	assert.Equal(t, 1, res.Failed())

	var ids []string
	for _, r := range res.Records {
		if len(ids) == 0 || ids[len(ids)-1] != r.JudgeID {
			ids = append(ids, r.JudgeID)
		}
		assert.Equal(t, "Test Invitational", r.TournamentName)
		assert.Equal(t, "2025", r.TournamentYear)
	}
	assert.Equal(t, []string{"1", "3", "4", "5"}, ids)
	assert.Len(t, res.Records, 6)
	assert.Equal(t, map[string]int{"1": 3, "3": 1, "4": 1, "5": 1}, backups)
	assert.Equal(t, p.acquired.Load(), p.released.Load())
}

func TestScrapeTournament_PanicIsContained(t *testing.T) {
	srv := newFakeSite(t)
	s, _ := newTestScraper(t, srv, false)

	res := s.ScrapeTournament(context.Background(), srv.URL+"/index/tourn/judges.mhtml", TournamentOptions{
		Workers: 2,
		OnJudge: func(j models.JudgeListEntry, _ []models.JudgeRecord) {
			if j.JudgeID == "2" {
				panic("backup disk full")
			}
		},
	})
	require.Nil(t, res.Err)
	require.Len(t, res.Judges, 5)
	assert.Equal(t, models.ErrCodeInternal, res.Judges[1].Err.Code)
	assert.Equal(t, 0, res.Judges[1].Records)

	var ids []string
	for _, r := range res.Records {
		ids = append(ids, r.JudgeID)
	}
	assert.Equal(t, []string{"1", "1", "1", "3", "4", "5"}, ids)
}

func TestScrapeTournament_SkipAndCap(t *testing.T) {
	srv := newFakeSite(t)
	s, _ := newTestScraper(t, srv, false)

	var last, total atomic.Int32
	res := s.ScrapeTournament(context.Background(), srv.URL+"/index/tourn/judges.mhtml", TournamentOptions{
		MaxJudges: 3,
		Skip:      func(_ context.Context, id string) bool { return id == "1" },
		Progress: func(done, n int) {
			last.Store(int32(done))
			total.Store(int32(n))
		},
	})
	require.Len(t, res.Judges, 3)
	assert.Equal(t, int32(3), last.Load())
	assert.Equal(t, int32(3), total.Load())
	assert.True(t, res.Judges[0].Skipped)
	assert.Equal(t, "Jane Doe", res.Judges[0].JudgeName)
	assert.Len(t, res.Records, 2)
}

func TestNotFoundMessage_RanksByName(t *testing.T) {
	cands := []candidate{
		{Candidate: models.Candidate{FullName: "Zed Quux"}},
		{Candidate: models.Candidate{FullName: "Jane Doer"}},
		{Candidate: models.Candidate{FullName: "Jane Doer"}},
	}
	msg := notFoundMessage("Jane Doe", cands)
	assert.Equal(t, `no judge named "Jane Doe" in search results; closest: Jane Doer, Zed Quux`, msg)
}

func TestScrapeTournament_CorrelatesWithListName(t *testing.T) {
	srv := newFakeSite(t)
	s, _ := newTestScraper(t, srv, true)

	res := s.ScrapeTournament(context.Background(), srv.URL+"/index/tourn/judges.mhtml?ids=6", TournamentOptions{})
	require.Nil(t, res.Err)
	require.Len(t, res.Judges, 1)
	require.Len(t, res.Records, 1)

	rec := res.Records[0]
	assert.Equal(t, "6", rec.JudgeID)
	assert.Equal(t, "Jane Doe", rec.JudgeName)
	assert.Equal(t, "28.5", rec.AffPoints)
	assert.Equal(t, "Central CD", rec.NegName)
	assert.Equal(t, "27.5", rec.NegPoints)
}
