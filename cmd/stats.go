package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/gemtutor-ai/gemtutor/internal/history"
	"github.com/gemtutor-ai/gemtutor/internal/logging"
)

func newStatsCmd() *cobra.Command {
	var recent int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show learner progress: level, XP, skills, and study time",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(recent)
		},
	}
	cmd.Flags().IntVarP(&recent, "recent", "n", 10, "number of recent sessions to list")
	return cmd
}

func runStats(recent int) error {
	cfg, dataDir, err := setup()
	if err != nil {
		return err
	}
	defer logging.Sync()

	state := loadProfile(cfg, dataDir)

	fmt.Printf("Level %d, %d/%d XP\n", state.Level, state.XP, state.XPForNextLevel())
	fmt.Printf("Language: %s\n", state.Language)

	if len(state.Skills) > 0 {
		fmt.Printf("\nSkills (%d):\n", len(state.Skills))
		for _, sk := range state.Skills {
			fmt.Println("  -", sk)
		}
	}

	if len(state.TimePerTopic) > 0 {
		topics := make([]string, 0, len(state.TimePerTopic))
		for t := range state.TimePerTopic {
			topics = append(topics, t)
		}
		sort.Slice(topics, func(i, j int) bool {
			return state.TimePerTopic[topics[i]] > state.TimePerTopic[topics[j]]
		})

		fmt.Println("\nStudy time:")
		for _, t := range topics {
			d := time.Duration(state.TimePerTopic[t] * float64(time.Second))
			fmt.Printf("  %-40s %s\n", t, d.Round(time.Second))
		}
	}

	archive, err := history.Open(history.DefaultDBPath(dataDir))
	if err != nil {
		return err
	}
	defer archive.Close()

	recs, err := archive.List(recent)
	if err != nil {
		return err
	}
	if len(recs) > 0 {
		fmt.Println("\nRecent sessions:")
		for _, r := range recs {
			line := fmt.Sprintf("  %-10s %-30s %s", r.Kind, r.Topic, r.CreatedAt)
			if r.Evaluation != "" {
				line += "  [" + r.Evaluation + "]"
			}
			fmt.Println(strings.TrimRight(line, " "))
		}
	}
	return nil
}
