package storage

import (
	"context"
	"enfoque/internal/model"
	"time"
)

// Storage is the local persistence boundary: the activity pool, the sound
// catalog, loose settings, and completed-session history. Implementations
// are best effort; callers treat read failures as "no prior value" and log
// write failures instead of surfacing them.
type Storage interface {
	Init(ctx context.Context) error
	Close() error

	AddActivity(ctx context.Context, a model.Activity) error
	ListActivities(ctx context.Context) ([]model.Activity, error)
	RemoveActivity(ctx context.Context, id string) error

	AddSoundOption(ctx context.Context, s model.SoundOption) error
	ListSoundOptions(ctx context.Context) ([]model.SoundOption, error)
	GetSoundOption(ctx context.Context, id string) (*model.SoundOption, error)
	RemoveSoundOption(ctx context.Context, id string) error

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	DeleteSetting(ctx context.Context, key string) error

	SaveSession(ctx context.Context, rec model.SessionRecord) (int64, error)
	GetSessions(ctx context.Context, start, end time.Time) ([]model.SessionRecord, error)
}
