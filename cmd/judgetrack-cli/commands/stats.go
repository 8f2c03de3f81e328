package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/use-agent/judgetrack/metrics"
	"github.com/use-agent/judgetrack/models"
)

var (
	statsTeam string
	statsName string
)

func init() {
	statsCmd.Flags().StringVar(&statsTeam, "team", "", "also break down rounds where an entry code starts with this")
	statsCmd.Flags().StringVar(&statsName, "name", "", "select judges by name substring instead of ID")
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats [judge id] [--name <name>] [--team <school>]",
	Short: "Prints judging tendencies from the record store.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(true)
		if err != nil {
			return err
		}
		defer st.Close()

		var records []models.JudgeRecord
		switch {
		case len(args) == 1:
			records, err = st.ByJudge(cmd.Context(), args[0])
		case statsName != "":
			records, err = st.SearchByName(cmd.Context(), statsName)
		default:
			records, err = st.All(cmd.Context())
		}
		if err != nil {
			return err
		}

		stats := metrics.PerJudge(records)
		if len(stats) == 0 {
			return fmt.Errorf("no decided rounds stored for that selection")
		}

		out := cmd.OutOrStdout()
		renderJudgeStats(out, stats)
		if statsTeam != "" {
			team := metrics.ForTeam(records, statsTeam)
			if len(team) == 0 {
				fmt.Fprintf(out, "no rounds involving %q\n", statsTeam)
				return nil
			}
			renderTeamStats(out, team)
		}
		return nil
	},
}
