package model

import "time"

// Activity is one entry in the user-managed reward pool. The timer never
// mutates activities; it only draws from them after a completed session.
type Activity struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Category  string    `db:"category"`
	Emoji     string    `db:"emoji"`
	CreatedAt time.Time `db:"created_at"`
}

// SoundOption is a catalog entry for a playable completion cue.
// Default entries have no URI (bundled asset or synthesized tone);
// custom entries point at a user-supplied audio file.
type SoundOption struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	URI       string    `db:"uri"`
	IsDefault bool      `db:"is_default"`
	CreatedAt time.Time `db:"created_at"`
}

// SessionRecord is the persisted outcome of one focus session.
type SessionRecord struct {
	ID             int64     `db:"id"`
	TaskLabel      string    `db:"task_label"`
	PlannedSeconds int       `db:"planned_seconds"`
	ActualSeconds  int       `db:"actual_seconds"`
	Completed      bool      `db:"completed"`
	StartedAt      time.Time `db:"started_at"`
	EndedAt        time.Time `db:"ended_at"`
}

// Settings keys stored in the key-value table.
const (
	SettingSelectedSound   = "selected_sound_id"
	SettingBackgroundImage = "background_image"
	SettingLanguage        = "language"

	// SettingLegacyCustomSound is the pre-catalog single-URI key. It is read
	// once during migration and never written again.
	SettingLegacyCustomSound = "custom_sound_uri"
)
