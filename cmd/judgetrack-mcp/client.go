package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/use-agent/judgetrack/api/handler"
	"github.com/use-agent/judgetrack/models"
)

// apiClient talks to a running judgetrack server.
type apiClient struct {
	http         *resty.Client
	pollInterval time.Duration
}

func newAPIClient(apiURL, apiKey string) *apiClient {
	client := resty.New()
	client.SetBaseURL(apiURL)
	client.SetHeader("X-API-Key", apiKey)
	client.SetHeader("Accept", "application/json")
	// Searches sit through the site's settle wait and can run for minutes.
	client.SetTimeout(10 * time.Minute)
	return &apiClient{http: client, pollInterval: 2 * time.Second}
}

// apiError formats a failed response, preferring the server's error body.
func apiError(resp *resty.Response, body *models.ErrorResponse) error {
	if body != nil && body.Error != nil {
		return fmt.Errorf("%s: %s", body.Error.Code, body.Error.Message)
	}
	return fmt.Errorf("API returned %s", resp.Status())
}

func (c *apiClient) searchJudge(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	var out models.SearchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/api/v1/judges/search")
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	if resp.IsError() && out.Error == nil {
		return nil, apiError(resp, nil)
	}
	return &out, nil
}

func (c *apiClient) judgeStats(ctx context.Context, judgeID, team string) (*handler.JudgeStatsResponse, error) {
	var (
		out    handler.JudgeStatsResponse
		failed models.ErrorResponse
	)
	r := c.http.R().SetContext(ctx).SetResult(&out).SetError(&failed).SetPathParam("id", judgeID)
	if team != "" {
		r.SetQueryParam("team", team)
	}
	resp, err := r.Get("/api/v1/judges/{id}/stats")
	if err != nil {
		return nil, fmt.Errorf("stats request failed: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp, &failed)
	}
	return &out, nil
}

func (c *apiClient) startTournament(ctx context.Context, req models.TournamentRequest) (*models.TournamentJobResponse, error) {
	var (
		out    models.TournamentJobResponse
		failed models.ErrorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&failed).
		Post("/api/v1/tournaments/scrape")
	if err != nil {
		return nil, fmt.Errorf("tournament request failed: %w", err)
	}
	if resp.IsError() {
		return nil, apiError(resp, &failed)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("tournament job creation failed")
	}
	return &out, nil
}

// pollJobCompletion polls a tournament job until status is no longer
// "processing" or ctx is cancelled.
func (c *apiClient) pollJobCompletion(ctx context.Context, jobID string) (*models.TournamentStatusResponse, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			var (
				status models.TournamentStatusResponse
				failed models.ErrorResponse
			)
			resp, err := c.http.R().
				SetContext(ctx).
				SetResult(&status).
				SetError(&failed).
				SetPathParam("id", jobID).
				Get("/api/v1/tournaments/{id}")
			if err != nil {
				return nil, fmt.Errorf("poll request failed: %w", err)
			}
			if resp.IsError() {
				return nil, apiError(resp, &failed)
			}
			if status.Status != models.JobProcessing {
				return &status, nil
			}
		}
	}
}
