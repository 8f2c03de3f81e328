package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/judgetrack/models"
)

func main() {
	apiURL := os.Getenv("JUDGETRACK_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("JUDGETRACK_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "JUDGETRACK_API_KEY is required")
		os.Exit(1)
	}

	if err := server.ServeStdio(newServer(newAPIClient(apiURL, apiKey))); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(client *apiClient) *server.MCPServer {
	s := server.NewMCPServer(
		"judgetrack",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	searchJudgeTool := mcp.NewTool("search_judge",
		mcp.WithDescription("Look up a debate judge on tabroom by full name and return every round they judged, with entry names and speaker points where available."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("The judge's full name, e.g. 'Jane Doe'"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Accept a cached result up to this many seconds old (default: 0, always scrape)"),
		),
	)
	s.AddTool(searchJudgeTool, handleSearchJudge(client))

	// scrape_tournament tool
	scrapeTournamentTool := mcp.NewTool("scrape_tournament",
		mcp.WithDescription("Scrape the records of every judge on a tournament's judge list. Runs as a background job and waits for it to finish; large tournaments take a long time."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The tournament judge list URL"),
		),
		mcp.WithNumber("max_judges",
			mcp.Description("Only process the first N judges (default: all)"),
		),
		mcp.WithBoolean("skip_existing",
			mcp.Description("Skip judges whose records are already stored (default: false)"),
		),
	)
	s.AddTool(scrapeTournamentTool, handleScrapeTournament(client))

	// judge_stats tool
	judgeStatsTool := mcp.NewTool("judge_stats",
		mcp.WithDescription("Summarise a stored judge's tendencies: rounds judged, aff win rate and squirrel rate (how often they dissent on a panel). Optionally break down rounds involving one team."),
		mcp.WithString("judge_id",
			mcp.Required(),
			mcp.Description("The tabroom judge ID (judge_person_id)"),
		),
		mcp.WithString("team",
			mcp.Description("School or entry code prefix, e.g. 'Lincoln'"),
		),
	)
	s.AddTool(judgeStatsTool, handleJudgeStats(client))

	return s
}

func handleSearchJudge(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil || strings.TrimSpace(name) == "" {
			return mcp.NewToolResultError("name is required"), nil
		}

		resp, err := client.searchJudge(ctx, models.SearchRequest{
			Name:   name,
			MaxAge: request.GetInt("max_age", 0),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			errMsg := "judge search failed"
			if resp.Error != nil {
				errMsg = fmt.Sprintf("%s: %s", resp.Error.Code, resp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "# %s", resp.JudgeName)
		if resp.JudgeID != "" {
			fmt.Fprintf(&sb, " (judge %s)", resp.JudgeID)
		}
		fmt.Fprintf(&sb, "\n\n%d rounds judged\n\n", len(resp.Records))
		writeRecords(&sb, resp.Records)
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleScrapeTournament(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		job, err := client.startTournament(ctx, models.TournamentRequest{
			URL:          url,
			MaxJudges:    request.GetInt("max_judges", 0),
			SkipExisting: request.GetBool("skip_existing", false),
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		status, err := client.pollJobCompletion(ctx, job.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling tournament job failed: %v", err)), nil
		}
		if status.Error != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %s", status.Error.Code, status.Error.Message)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "# %s\n\n", status.Info.Name)
		if status.Info.Year != "" || status.Info.Location != "" {
			fmt.Fprintf(&sb, "%s %s\n\n", status.Info.Year, status.Info.Location)
		}
		fmt.Fprintf(&sb, "Job %s: %s. %d judges, %d failed, %d records, %d stored.\n\n",
			status.ID, status.Status, status.Total, status.Failed, status.Records, status.Stored)
		for _, j := range status.Judges {
			switch {
			case j.Skipped:
				fmt.Fprintf(&sb, "- %s (%s): skipped\n", j.JudgeName, j.JudgeID)
			case j.Error != nil:
				fmt.Fprintf(&sb, "- %s (%s): %s %s\n", j.JudgeName, j.JudgeID, j.Error.Code, j.Error.Message)
			default:
				fmt.Fprintf(&sb, "- %s (%s): %d records\n", j.JudgeName, j.JudgeID, j.Records)
			}
		}
		fmt.Fprintf(&sb, "\nCSV: /api/v1/tournaments/%s/export\n", status.ID)
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleJudgeStats(client *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		judgeID, err := request.RequireString("judge_id")
		if err != nil {
			return mcp.NewToolResultError("judge_id is required"), nil
		}

		resp, err := client.judgeStats(ctx, judgeID, request.GetString("team", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		j := resp.Judge
		var sb strings.Builder
		fmt.Fprintf(&sb, "# %s (judge %s)\n\n", j.JudgeName, j.JudgeID)
		fmt.Fprintf(&sb, "- Rounds judged: %d\n", j.RoundsJudged)
		fmt.Fprintf(&sb, "- Aff win rate: %.1f%%\n", j.AffWinRate)
		fmt.Fprintf(&sb, "- Squirrel rate: %.1f%% of %d panel rounds\n", j.SquirrelRate, j.PanelRounds)
		for _, t := range resp.Team {
			fmt.Fprintf(&sb, "\n## Rounds with %s\n\n", t.Team)
			fmt.Fprintf(&sb, "- Rounds judged: %d\n", t.RoundsJudged)
			fmt.Fprintf(&sb, "- Aff win rate: %.1f%%\n", t.AffWinRate)
			fmt.Fprintf(&sb, "- Neg win rate: %.1f%%\n", t.NegWinRate)
			fmt.Fprintf(&sb, "- Squirrel rate: %.1f%%\n", t.SquirrelRate)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// writeRecords renders records as a markdown table.
func writeRecords(sb *strings.Builder, records []models.JudgeRecord) {
	if len(records) == 0 {
		return
	}
	sb.WriteString("| Date | Tournament | Ev | Rd | Aff | Neg | Vote | Result | Aff pts | Neg pts |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|---|---|\n")
	for _, r := range records {
		fmt.Fprintf(sb, "| %s | %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
			r.Date, r.Tournament, r.Event, r.Round, r.AffCode, r.NegCode, r.Vote, r.Result, r.AffPoints, r.NegPoints)
	}
}
