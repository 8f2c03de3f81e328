package commands

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/use-agent/judgetrack/export"
	"github.com/use-agent/judgetrack/models"
)

func init() {
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <judge name>",
	Short: "Searches tabroom for a judge and prints and saves their record.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")

		sc, closeProvider, err := newScraper()
		if err != nil {
			return err
		}
		defer closeProvider()

		st, err := openStore(false)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}

		res := sc.SearchJudge(cmd.Context(), name)
		if res.Err != nil && res.Err.Code != models.ErrCodeNoRecords {
			if len(res.Records) == 0 {
				return res.Err
			}
			slog.Warn("search incomplete", "judge", name, "error", res.Err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s (judge %s)\n", res.JudgeName, res.JudgeID)
		renderRecords(out, res.Records)
		if len(res.Records) == 0 {
			return nil
		}

		if st != nil {
			n, err := st.Save(cmd.Context(), res.Records)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "stored %d records in %s\n", n, cfg.Store.Path)
		}
		path, err := export.SaveCSV(cfg.Output.Dir, export.Filename("judge", res.JudgeName, time.Now()), res.Records, false)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "saved %s\n", path)
		return nil
	},
}
