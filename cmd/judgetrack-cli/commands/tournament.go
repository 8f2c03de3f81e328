package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/judgetrack/export"
	"github.com/use-agent/judgetrack/models"
	"github.com/use-agent/judgetrack/scraper"
)

var (
	tournMaxJudges    int
	tournWorkers      int
	tournSkipExisting bool
)

func init() {
	tournamentCmd.Flags().IntVar(&tournMaxJudges, "max-judges", 0, "only process the first N judges")
	tournamentCmd.Flags().IntVar(&tournWorkers, "workers", 0, "judges processed at once (default from config)")
	tournamentCmd.Flags().BoolVar(&tournSkipExisting, "skip-existing", false, "skip judges already in the record store")
	rootCmd.AddCommand(tournamentCmd)
}

var tournamentCmd = &cobra.Command{
	Use:   "tournament <judge list url>",
	Short: "Scrapes the record of every judge on a tournament judge list.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sc, closeProvider, err := newScraper()
		if err != nil {
			return err
		}
		defer closeProvider()

		st, err := openStore(tournSkipExisting)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}

		out := cmd.OutOrStdout()
		opts := scraper.TournamentOptions{
			MaxJudges: tournMaxJudges,
			Workers:   tournWorkers,
			Progress: func(done, total int) {
				slog.Info("judge finished", "done", done, "total", total)
			},
			OnJudge: func(judge models.JudgeListEntry, records []models.JudgeRecord) {
				if st != nil {
					if _, err := st.Save(cmd.Context(), records); err != nil {
						slog.Warn("judge records not stored", "judge", judge.JudgeName, "error", err)
					}
				}
				if cfg.Output.BackupDir != "" {
					name := export.JudgeBackupFilename(judge.JudgeID, judge.JudgeName)
					if _, err := export.SaveCSV(cfg.Output.BackupDir, name, records, true); err != nil {
						slog.Warn("judge backup not written", "judge", judge.JudgeName, "error", err)
					}
				}
			},
		}
		if tournSkipExisting {
			opts.Skip = func(ctx context.Context, judgeID string) bool {
				has, err := st.HasJudge(ctx, judgeID)
				return err == nil && has
			}
		}

		res := sc.ScrapeTournament(cmd.Context(), args[0], opts)
		if res.Err != nil {
			return res.Err
		}

		fmt.Fprintf(out, "%s %s %s\n", res.Info.Name, res.Info.Year, res.Info.Location)
		renderOutcomes(out, res.Judges)
		fmt.Fprintf(out, "%d judges, %d failed, %d records\n", len(res.Judges), res.Failed(), len(res.Records))
		if len(res.Records) == 0 {
			return nil
		}

		path, err := export.SaveCSV(cfg.Output.Dir, export.Filename("tournament", res.Info.Name, time.Now()), res.Records, true)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %s\n", path)
		return nil
	},
}
