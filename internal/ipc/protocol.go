package ipc

import "enfoque/internal/model"

const SocketPath = "/tmp/enfoque.sock"

// Command represents a command sent over the socket
type Command struct {
	Name string      `json:"name"`
	Args interface{} `json:"args,omitempty"`
}

// Response represents a response sent back over the socket
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"` // Optional data in response
}

// --- Command Argument Structs ---

type StartSessionArgs struct {
	TaskLabel       string `json:"task_label"`
	DurationSeconds int    `json:"duration_seconds"`
}

type ResetSessionArgs struct {
	DurationSeconds int `json:"duration_seconds"`
}

type AddActivityArgs struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Emoji    string `json:"emoji"`
}

type RemoveArgs struct {
	ID string `json:"id"`
}

type AddSoundArgs struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

type SelectSoundArgs struct {
	ID string `json:"id"`
}

type SetSettingArgs struct {
	Value string `json:"value"`
}

// --- Command Names (Constants) ---

const (
	CmdPing           = "ping"
	CmdStartSession   = "start_session"
	CmdPauseSession   = "pause_session"
	CmdResumeSession  = "resume_session"
	CmdResetSession   = "reset_session"
	CmdSuspendSession = "suspend_session"
	CmdWakeSession    = "wake_session"
	CmdGetStatus      = "get_status"

	CmdAddActivity    = "add_activity"
	CmdListActivities = "list_activities"
	CmdRemoveActivity = "remove_activity"

	CmdAddSound    = "add_sound"
	CmdListSounds  = "list_sounds"
	CmdSelectSound = "select_sound"
	CmdRemoveSound = "remove_sound"

	CmdNextReward = "next_reward"

	CmdSetBackground = "set_background"
	CmdSetLanguage   = "set_language"
	CmdGetSettings   = "get_settings"
)

// --- Response Data ---

type StatusData struct {
	TaskLabel        string `json:"task_label"`
	RemainingSeconds int    `json:"remaining_seconds"`
	DurationSeconds  int    `json:"duration_seconds"`
	Running          bool   `json:"running"`
	Suspended        bool   `json:"suspended"`
}

type ActivityListData struct {
	Activities []model.Activity `json:"activities"`
}

type SoundListData struct {
	Sounds     []model.SoundOption `json:"sounds"`
	SelectedID string              `json:"selected_id"`
}

// RewardData carries either one activity or, for an empty pool, a
// localized encouragement message.
type RewardData struct {
	Activity *model.Activity `json:"activity,omitempty"`
	Message  string          `json:"message,omitempty"`
}

type SettingsData struct {
	SelectedSoundID string `json:"selected_sound_id"`
	BackgroundImage string `json:"background_image"`
	Language        string `json:"language"`
}
