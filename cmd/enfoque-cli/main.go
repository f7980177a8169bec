package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"time"

	"enfoque/internal/ipc"

	"github.com/spf13/cobra"
)

var (
	socketPath string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "enfoque-cli",
	Short: "CLI tool to interact with the Enfoque daemon",
	Long:  `A command-line interface for the Enfoque focus timer: start sessions, manage break activities and completion sounds, and watch the countdown, all by sending commands to the running daemon via its Unix socket.`,
}

// --- Client Helper Functions ---

// dial sends one command and returns the decoded response.
func dial(cmd ipc.Command) (ipc.Response, error) {
	var resp ipc.Response

	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return resp, fmt.Errorf("error connecting to daemon socket (%s): %w\nIs the Enfoque daemon running?", socketPath, err)
	}
	defer conn.Close()

	// Set deadlines
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second)) // For response

	encoder := json.NewEncoder(conn)
	decoder := json.NewDecoder(conn)

	if err := encoder.Encode(cmd); err != nil {
		return resp, fmt.Errorf("error sending command: %w", err)
	}
	if err := decoder.Decode(&resp); err != nil {
		return resp, fmt.Errorf("error receiving response: %w", err)
	}
	return resp, nil
}

// sendCommand dials, prints the outcome, and exits non-zero on failure.
func sendCommand(cmd ipc.Command) ipc.Response {
	resp, err := dial(cmd)
	if err != nil {
		log.Fatal(err)
	}
	if !resp.Success {
		fmt.Fprintf(os.Stderr, "Error: %s\n", resp.Message)
		os.Exit(1)
	}
	if resp.Message != "" {
		fmt.Println(resp.Message)
	}
	return resp
}

// decodeData re-marshals the loosely-typed response data into a struct.
func decodeData(resp ipc.Response, out interface{}) {
	raw, err := json.Marshal(resp.Data)
	if err == nil {
		err = json.Unmarshal(raw, out)
	}
	if err != nil {
		log.Fatalf("Error decoding response data: %v", err)
	}
}

// --- Command Definitions ---

// Ping Command
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check if the Enfoque daemon is running",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdPing})
	},
}

// Session Command Group
var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Control the focus session countdown",
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a focus session for a named task",
	Run: func(cmd *cobra.Command, args []string) {
		task, _ := cmd.Flags().GetString("task")
		seconds, _ := cmd.Flags().GetInt("seconds")
		minutes, _ := cmd.Flags().GetInt("minutes")
		if seconds == 0 && minutes > 0 {
			seconds = minutes * 60
		}
		sendCommand(ipc.Command{
			Name: ipc.CmdStartSession,
			Args: ipc.StartSessionArgs{TaskLabel: task, DurationSeconds: seconds},
		})
	},
}

var sessionPauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the running session, keeping the remaining time",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdPauseSession})
	},
}

var sessionResumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused session",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdResumeSession})
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the stopped session to a fresh duration",
	Run: func(cmd *cobra.Command, args []string) {
		seconds, _ := cmd.Flags().GetInt("seconds")
		minutes, _ := cmd.Flags().GetInt("minutes")
		if seconds == 0 && minutes > 0 {
			seconds = minutes * 60
		}
		sendCommand(ipc.Command{
			Name: ipc.CmdResetSession,
			Args: ipc.ResetSessionArgs{DurationSeconds: seconds},
		})
	},
}

var sessionSuspendCmd = &cobra.Command{
	Use:   "suspend",
	Short: "Record that ticking is about to stop (machine suspend hook)",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdSuspendSession})
	},
}

var sessionWakeCmd = &cobra.Command{
	Use:   "wake",
	Short: "Compensate the countdown for time spent suspended (resume hook)",
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdWakeSession})
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Get the current session status from the daemon",
	Run: func(cmd *cobra.Command, args []string) {
		resp := sendCommand(ipc.Command{Name: ipc.CmdGetStatus})
		var st ipc.StatusData
		decodeData(resp, &st)
		if st.DurationSeconds == 0 {
			fmt.Println("No session.")
			return
		}
		state := "paused"
		if st.Running {
			state = "running"
		}
		if st.Suspended {
			state += " (suspended)"
		}
		fmt.Printf("Task:      %s\nRemaining: %s\nState:     %s\n",
			st.TaskLabel, formatClock(st.RemainingSeconds), state)
	},
}

// Activity Command Group
var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Manage the break activity pool",
}

var activityAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a break activity",
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		category, _ := cmd.Flags().GetString("category")
		emoji, _ := cmd.Flags().GetString("emoji")
		sendCommand(ipc.Command{
			Name: ipc.CmdAddActivity,
			Args: ipc.AddActivityArgs{Name: name, Category: category, Emoji: emoji},
		})
	},
}

var activityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List break activities",
	Run: func(cmd *cobra.Command, args []string) {
		resp := sendCommand(ipc.Command{Name: ipc.CmdListActivities})
		var data ipc.ActivityListData
		decodeData(resp, &data)
		if len(data.Activities) == 0 {
			fmt.Println("No activities yet. Add one with 'enfoque-cli activity add'.")
			return
		}
		for _, a := range data.Activities {
			fmt.Printf("%-36s  %s %s", a.ID, a.Emoji, a.Name)
			if a.Category != "" {
				fmt.Printf("  [%s]", a.Category)
			}
			fmt.Println()
		}
	},
}

var activityRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a break activity",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdRemoveActivity, Args: ipc.RemoveArgs{ID: args[0]}})
	},
}

// Sound Command Group
var soundCmd = &cobra.Command{
	Use:   "sound",
	Short: "Manage completion sounds",
}

var soundAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Upload an audio file as a custom completion sound",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		path, err := absPath(args[0])
		if err != nil {
			log.Fatalf("Error resolving file path: %v", err)
		}
		sendCommand(ipc.Command{Name: ipc.CmdAddSound, Args: ipc.AddSoundArgs{Path: path, Name: name}})
	},
}

var soundListCmd = &cobra.Command{
	Use:   "list",
	Short: "List completion sounds",
	Run: func(cmd *cobra.Command, args []string) {
		resp := sendCommand(ipc.Command{Name: ipc.CmdListSounds})
		var data ipc.SoundListData
		decodeData(resp, &data)
		for _, s := range data.Sounds {
			marker := " "
			if s.ID == data.SelectedID {
				marker = "*"
			}
			kind := "custom"
			if s.IsDefault {
				kind = "default"
			}
			fmt.Printf("%s %-36s  %-8s %s\n", marker, s.ID, kind, s.Name)
		}
	},
}

var soundSelectCmd = &cobra.Command{
	Use:   "select <id>",
	Short: "Select the completion sound",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdSelectSound, Args: ipc.SelectSoundArgs{ID: args[0]}})
	},
}

var soundRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a custom completion sound",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdRemoveSound, Args: ipc.RemoveArgs{ID: args[0]}})
	},
}

// Reward Command
var rewardCmd = &cobra.Command{
	Use:   "reward",
	Short: "Get a break activity suggestion (re-run to re-roll)",
	Run: func(cmd *cobra.Command, args []string) {
		resp := sendCommand(ipc.Command{Name: ipc.CmdNextReward})
		var data ipc.RewardData
		decodeData(resp, &data)
		if data.Activity != nil {
			fmt.Printf("%s %s %s\n", data.Message, data.Activity.Emoji, data.Activity.Name)
			return
		}
		fmt.Println(data.Message)
	},
}

// Config Command Group
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage persisted user settings",
}

var setBackgroundCmd = &cobra.Command{
	Use:   "set-background <uri>",
	Short: "Set the background image reference",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdSetBackground, Args: ipc.SetSettingArgs{Value: args[0]}})
	},
}

var setLanguageCmd = &cobra.Command{
	Use:   "set-language <code>",
	Short: "Set the UI language (es, en)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sendCommand(ipc.Command{Name: ipc.CmdSetLanguage, Args: ipc.SetSettingArgs{Value: args[0]}})
	},
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Show persisted user settings",
	Run: func(cmd *cobra.Command, args []string) {
		resp := sendCommand(ipc.Command{Name: ipc.CmdGetSettings})
		var data ipc.SettingsData
		decodeData(resp, &data)
		fmt.Printf("Language:         %s\nSelected sound:   %s\nBackground image: %s\n",
			data.Language, valueOr(data.SelectedSoundID, "(default)"), valueOr(data.BackgroundImage, "(none)"))
	},
}

// absPath resolves a user-supplied path so the daemon, which may run from
// a different working directory, can find the file.
func absPath(path string) (string, error) {
	return filepath.Abs(path)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func formatClock(totalSeconds int) string {
	if totalSeconds < 0 {
		totalSeconds = 0
	}
	h := totalSeconds / 3600
	m := (totalSeconds % 3600) / 60
	s := totalSeconds % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

func main() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", ipc.SocketPath, "Path to the Enfoque daemon socket")

	// --- Session Commands ---
	sessionStartCmd.Flags().StringP("task", "t", "", "Task label for the session (required)")
	sessionStartCmd.Flags().IntP("seconds", "s", 0, "Session duration in seconds")
	sessionStartCmd.Flags().IntP("minutes", "m", 0, "Session duration in minutes")
	sessionStartCmd.MarkFlagRequired("task")
	sessionResetCmd.Flags().IntP("seconds", "s", 0, "New duration in seconds")
	sessionResetCmd.Flags().IntP("minutes", "m", 0, "New duration in minutes")
	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionPauseCmd)
	sessionCmd.AddCommand(sessionResumeCmd)
	sessionCmd.AddCommand(sessionResetCmd)
	sessionCmd.AddCommand(sessionSuspendCmd)
	sessionCmd.AddCommand(sessionWakeCmd)
	rootCmd.AddCommand(sessionCmd)

	// --- Activity Commands ---
	activityAddCmd.Flags().StringP("name", "n", "", "Activity name (required)")
	activityAddCmd.Flags().StringP("category", "c", "", "Activity category")
	activityAddCmd.Flags().StringP("emoji", "e", "", "Emoji shown with the activity")
	activityAddCmd.MarkFlagRequired("name")
	activityCmd.AddCommand(activityAddCmd)
	activityCmd.AddCommand(activityListCmd)
	activityCmd.AddCommand(activityRemoveCmd)
	rootCmd.AddCommand(activityCmd)

	// --- Sound Commands ---
	soundAddCmd.Flags().StringP("name", "n", "", "Display name (defaults to the file name)")
	soundCmd.AddCommand(soundAddCmd)
	soundCmd.AddCommand(soundListCmd)
	soundCmd.AddCommand(soundSelectCmd)
	soundCmd.AddCommand(soundRemoveCmd)
	rootCmd.AddCommand(soundCmd)

	// --- Config Commands ---
	configCmd.AddCommand(setBackgroundCmd)
	configCmd.AddCommand(setLanguageCmd)
	configCmd.AddCommand(showConfigCmd)
	rootCmd.AddCommand(configCmd)

	// --- Other Commands ---
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(rewardCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(watchCmd)

	// --- Execute ---
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}
