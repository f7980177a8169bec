package main

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"enfoque/internal/ipc"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
)

// watchCmd is the focus screen: a full-terminal live countdown polling the
// daemon once per second. 'q' or Esc quits; the session keeps running in
// the daemon either way.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the running session as a live countdown",
	Run: func(cmd *cobra.Command, args []string) {
		// Fail fast if the daemon isn't reachable before taking the terminal.
		if _, err := dial(ipc.Command{Name: ipc.CmdPing}); err != nil {
			log.Fatal(err)
		}

		app := tview.NewApplication()
		view := tview.NewTextView().
			SetTextAlign(tview.AlignCenter).
			SetDynamicColors(true)
		view.SetBorder(true).SetTitle(" ¡Enfoque! ")

		view.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
			if ev.Key() == tcell.KeyEscape || ev.Rune() == 'q' {
				app.Stop()
				return nil
			}
			return ev
		})

		stop := make(chan struct{})
		go func() {
			ticker := time.NewTicker(1 * time.Second)
			defer ticker.Stop()
			for {
				text := renderStatus()
				app.QueueUpdateDraw(func() {
					view.SetText(text)
				})
				select {
				case <-stop:
					return
				case <-ticker.C:
				}
			}
		}()

		err := app.SetRoot(view, true).Run()
		close(stop)
		if err != nil {
			log.Fatalf("Error running watch view: %v", err)
		}
	},
}

func renderStatus() string {
	resp, err := dial(ipc.Command{Name: ipc.CmdGetStatus})
	if err != nil || !resp.Success {
		return "\n\n[red]Daemon unreachable[-]"
	}
	var st ipc.StatusData
	raw, err := json.Marshal(resp.Data)
	if err == nil {
		err = json.Unmarshal(raw, &st)
	}
	if err != nil {
		return "\n\n[red]Bad status payload[-]"
	}

	if st.DurationSeconds == 0 {
		return "\n\nNo session.\n\nStart one with 'enfoque-cli session start'."
	}

	state := "[yellow]paused[-]"
	if st.Running {
		state = "[green]running[-]"
	}
	if st.Suspended {
		state += " (suspended)"
	}
	return fmt.Sprintf("\n\n[::b]%s[::-]\n\n[::b]%s[::-]\n\n%s\n\nPress q to quit.",
		st.TaskLabel, formatClock(st.RemainingSeconds), state)
}
