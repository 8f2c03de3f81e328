// Package metrics summarises judging tendencies from judge records.
//
// Only rounds with a vote of "aff" or "neg" (any casing) count. A panel
// round is one whose Result contains a dash ("AFF 2-1"); its overall
// decision is the first word of Result.
package metrics

import (
	"math"
	"sort"
	"strings"

	"github.com/use-agent/judgetrack/models"
)

// JudgeStats are a judge's tendencies across all rounds.
type JudgeStats struct {
	JudgeID      string  `json:"judge_id"`
	JudgeName    string  `json:"judge_name"`
	RoundsJudged int     `json:"rounds_judged"`
	AffWinRate   float64 `json:"aff_win_rate"`
	SquirrelRate float64 `json:"squirrel_rate"`
	PanelRounds  int     `json:"panel_rounds"`
}

// TeamStats are a judge's decisions in rounds involving one team.
type TeamStats struct {
	JudgeID      string  `json:"judge_id"`
	JudgeName    string  `json:"judge_name"`
	Team         string  `json:"team"`
	RoundsJudged int     `json:"rounds_judged"`
	AffWinRate   float64 `json:"aff_win_rate"`
	NegWinRate   float64 `json:"neg_win_rate"`
	SquirrelRate float64 `json:"squirrel_rate"`
}

type judgeKey struct{ id, name string }

// PerJudge computes JudgeStats for every judge in records, ordered by
// judge ID then name. Judges without a valid vote are omitted.
func PerJudge(records []models.JudgeRecord) []JudgeStats {
	groups, keys := group(records, nil)

	out := make([]JudgeStats, 0, len(keys))
	for _, k := range keys {
		rows := groups[k]
		var aff, panel, squirrel int
		for _, r := range rows {
			vote := normVote(r.Vote)
			if vote == "aff" {
				aff++
			}
			if isPanel(r.Result) {
				panel++
				if vote != panelDecision(r.Result) {
					squirrel++
				}
			}
		}
		out = append(out, JudgeStats{
			JudgeID:      k.id,
			JudgeName:    k.name,
			RoundsJudged: len(rows),
			AffWinRate:   percent(aff, len(rows)),
			SquirrelRate: percent(squirrel, panel),
			PanelRounds:  panel,
		})
	}
	return out
}

// ForTeam computes TeamStats per judge over rounds where either entry
// code starts with team (case-insensitive). Win rates use the overall
// decision of a panel, or the judge's own vote otherwise.
func ForTeam(records []models.JudgeRecord, team string) []TeamStats {
	prefix := strings.ToLower(strings.TrimSpace(team))
	if prefix == "" {
		return []TeamStats{}
	}
	onAff := func(r models.JudgeRecord) bool { return hasPrefixFold(r.AffCode, prefix) }
	onNeg := func(r models.JudgeRecord) bool { return hasPrefixFold(r.NegCode, prefix) }

	groups, keys := group(records, func(r models.JudgeRecord) bool { return onAff(r) || onNeg(r) })

	out := make([]TeamStats, 0, len(keys))
	for _, k := range keys {
		rows := groups[k]
		var affTotal, affWins, negTotal, negWins, panel, squirrel int
		for _, r := range rows {
			outcome := Outcome(r)
			if onAff(r) {
				affTotal++
				if outcome == "aff" {
					affWins++
				}
			}
			if onNeg(r) {
				negTotal++
				if outcome == "neg" {
					negWins++
				}
			}
			if isPanel(r.Result) {
				panel++
				if normVote(r.Vote) != outcome {
					squirrel++
				}
			}
		}
		out = append(out, TeamStats{
			JudgeID:      k.id,
			JudgeName:    k.name,
			Team:         strings.TrimSpace(team),
			RoundsJudged: len(rows),
			AffWinRate:   percent(affWins, affTotal),
			NegWinRate:   percent(negWins, negTotal),
			SquirrelRate: percent(squirrel, panel),
		})
	}
	return out
}

// Outcome is the overall decision of a round: the panel decision when
// the round was paneled, else the judge's vote. Lowercased.
func Outcome(r models.JudgeRecord) string {
	if isPanel(r.Result) {
		return panelDecision(r.Result)
	}
	return normVote(r.Vote)
}

func group(records []models.JudgeRecord, keep func(models.JudgeRecord) bool) (map[judgeKey][]models.JudgeRecord, []judgeKey) {
	groups := make(map[judgeKey][]models.JudgeRecord)
	var keys []judgeKey
	for _, r := range records {
		if v := normVote(r.Vote); v != "aff" && v != "neg" {
			continue
		}
		if keep != nil && !keep(r) {
			continue
		}
		k := judgeKey{r.JudgeID, r.JudgeName}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].id != keys[j].id {
			return keys[i].id < keys[j].id
		}
		return keys[i].name < keys[j].name
	})
	return groups, keys
}

func normVote(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

func isPanel(result string) bool {
	return strings.Contains(strings.TrimSpace(result), "-")
}

func panelDecision(result string) string {
	f := strings.Fields(result)
	if len(f) == 0 {
		return ""
	}
	return strings.ToLower(f[0])
}

func hasPrefixFold(s, lowerPrefix string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), lowerPrefix)
}

// percent rounds to one decimal place; a zero denominator gives 0.
func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}
