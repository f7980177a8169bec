package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	sqlitestore "enfoque/internal/storage/sqlite"

	"github.com/spf13/cobra"
)

// statsCmd reads the session history straight from the database, so it
// works whether or not the daemon is up.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize completed focus sessions",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if dbPath == "" {
			dbPath = "enfoque.db"
		}
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			log.Fatalf("Error: Database file not found at %s. Ensure the enfoque daemon has run or specify path with --db.", dbPath)
		} else if err != nil {
			log.Fatalf("Error accessing database file %s: %v", dbPath, err)
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		days, _ := cmd.Flags().GetInt("days")

		endTime := time.Now()
		startTime := endTime.AddDate(0, 0, -days)

		store := sqlitestore.NewSQLiteStore(dbPath)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Init(ctx); err != nil {
			log.Fatalf("Failed to initialize storage connection: %v", err)
		}
		defer store.Close()

		sessions, err := store.GetSessions(ctx, startTime, endTime)
		if err != nil {
			log.Fatalf("Failed to fetch sessions: %v", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions recorded for the specified period.")
			return
		}

		var completed int
		var totalFocus time.Duration
		taskTime := make(map[string]time.Duration)
		for _, s := range sessions {
			if s.Completed {
				completed++
			}
			d := time.Duration(s.ActualSeconds) * time.Second
			totalFocus += d
			taskTime[s.TaskLabel] += d
		}

		fmt.Printf("Sessions (%s to %s)\n", startTime.Format("2006-01-02"), endTime.Format("2006-01-02"))
		fmt.Printf("  Total:     %d\n", len(sessions))
		fmt.Printf("  Completed: %d\n", completed)
		fmt.Printf("  Focus time: %s\n\n", formatDurationHuman(totalFocus))

		// Top tasks by accumulated focus time
		type taskDur struct {
			Label string
			Dur   time.Duration
		}
		taskDurs := make([]taskDur, 0, len(taskTime))
		for label, dur := range taskTime {
			taskDurs = append(taskDurs, taskDur{label, dur})
		}
		sort.Slice(taskDurs, func(i, j int) bool {
			return taskDurs[i].Dur > taskDurs[j].Dur
		})
		fmt.Println("By task:")
		for _, td := range taskDurs {
			if td.Dur < time.Minute {
				continue
			}
			fmt.Printf("  %-40s %s\n", td.Label, formatDurationHuman(td.Dur))
		}
	},
}

func formatDurationHuman(d time.Duration) string {
	d = d.Round(time.Minute) // Round to nearest minute for summary
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute

	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func init() {
	statsCmd.Flags().IntP("days", "d", 7, "Number of past days to include")
	statsCmd.PersistentFlags().StringVar(&dbPath, "db", "enfoque.db", "Path to the Enfoque database file")
}
