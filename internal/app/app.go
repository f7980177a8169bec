package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"enfoque/internal/config"
	"enfoque/internal/i18n"
	"enfoque/internal/ipc"
	"enfoque/internal/keepawake"
	"enfoque/internal/model"
	"enfoque/internal/notify"
	"enfoque/internal/reward"
	"enfoque/internal/session"
	"enfoque/internal/sound"
	"enfoque/internal/storage"

	sqlitestore "enfoque/internal/storage/sqlite"

	"github.com/google/uuid"
)

type App struct {
	cfg      *config.Config
	storage  storage.Storage
	engine   *session.Engine
	catalog  *sound.Catalog
	notifier *notify.Notifier
	keeper   keepawake.Keeper

	// --- Socket Handling ---
	socketPath string
	listener   *net.UnixListener

	updateChan chan interface{}

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	// Cached session status for the status command
	currentStatus session.Status
	statusMutex   sync.RWMutex

	selector    *reward.Selector
	rewardMutex sync.Mutex
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	a := &App{
		cfg:        cfg,
		updateChan: make(chan interface{}, 50),
		socketPath: cfg.SocketPath,
		ctx:        ctx,
		cancel:     cancel,
		selector:   reward.NewSelector(rand.New(rand.NewSource(time.Now().UnixNano()))),
	}

	// Initialize Storage
	a.storage = sqlitestore.NewSQLiteStore(cfg.DatabasePath)
	if err := a.storage.Init(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize keep-awake (falls back to no-op without a display)
	if keeper, err := keepawake.NewX11Keeper(cfg.Session.KeepAwakeInterval()); err != nil {
		log.Printf("Warning: Failed to initialize X11 keep-awake: %v. Screen may blank during sessions.", err)
		a.keeper = keepawake.Noop{}
	} else {
		a.keeper = keeper
	}

	// Initialize the completion notifier cascade
	var player notify.Player
	if p, err := notify.NewExecPlayer(cfg.Player); err != nil {
		log.Printf("Warning: %v. Audio cues disabled, falling back to bell/notification.", err)
	} else {
		player = p
	}
	bell := notify.X11Bell()
	if bell == nil {
		log.Println("Warning: No X display for the completion bell.")
	}
	post := notify.DesktopPost()
	if post == nil {
		log.Println("Warning: notify-send not found, desktop notifications disabled.")
	}
	// Scratch dir for materialized tones, kept beside the database so two
	// daemons (or users sharing /tmp) never clobber each other's files.
	cacheDir := filepath.Join(filepath.Dir(cfg.DatabasePath), "cache")
	if err := os.MkdirAll(cacheDir, 0750); err != nil {
		log.Printf("Warning: failed to create cache directory %s: %v. Using a private temporary one.", cacheDir, err)
		if tmp, tmpErr := os.MkdirTemp("", "enfoque-cache-"); tmpErr == nil {
			cacheDir = tmp
		} else {
			cacheDir = os.TempDir()
		}
	}
	a.notifier = notify.New(player, bell, post, cacheDir)

	a.catalog = sound.NewCatalog(a.storage, cfg.SoundsDir)
	a.engine = session.NewEngine(a.keeper, a.updateChan)

	return a, nil
}

// setupSocket checks for existing socket and creates the listener
func (a *App) setupSocket() error {
	// Check if socket file exists and try connecting
	if _, err := os.Stat(a.socketPath); err == nil {
		// Socket file exists, try to connect
		conn, err := net.DialTimeout("unix", a.socketPath, 1*time.Second)
		if err == nil {
			// Connection successful - another instance is likely running
			conn.Close()
			return fmt.Errorf("socket %s already active, another instance might be running", a.socketPath)
		}
		// Connection failed - socket file is stale, remove it
		log.Printf("Stale socket file found at %s, removing.", a.socketPath)
		if err := os.Remove(a.socketPath); err != nil {
			return fmt.Errorf("failed to remove stale socket file %s: %w", a.socketPath, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking socket file %s: %w", a.socketPath, err)
	}

	// Resolve the address
	addr, err := net.ResolveUnixAddr("unix", a.socketPath)
	if err != nil {
		return fmt.Errorf("failed to resolve unix addr %s: %w", a.socketPath, err)
	}

	// Listen on the socket
	listener, err := net.ListenUnix("unix", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on socket %s: %w", a.socketPath, err)
	}

	a.listener = listener
	log.Printf("Listening for commands on %s", a.socketPath)
	return nil
}

// listenForCommands accepts connections and handles them
func (a *App) listenForCommands() {
	defer a.wg.Done()
	defer log.Println("Socket command listener stopped.")

	if a.listener == nil {
		log.Println("Error: Socket listener not initialized.")
		return
	}

	for {
		conn, err := a.listener.AcceptUnix()
		if err != nil {
			// Check if the error is due to the listener being closed
			select {
			case <-a.ctx.Done():
				log.Println("Listener closing due to context cancellation.")
				return // Expected error on shutdown
			default:
				log.Printf("Failed to accept connection: %v", err)
				// Avoid tight loop on persistent error
				if ne, ok := err.(net.Error); ok && !ne.Temporary() {
					log.Printf("Non-temporary accept error, stopping listener.")
					return
				}
				time.Sleep(100 * time.Millisecond) // Small delay before retrying
			}
			continue
		}
		// Handle each connection in a new goroutine
		a.wg.Add(1)
		go a.handleConnection(conn)
	}
}

// handleConnection reads command, processes it, and sends response
func (a *App) handleConnection(conn *net.UnixConn) {
	defer conn.Close()
	defer a.wg.Done()

	// Set a deadline for reading the command
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	var cmd ipc.Command
	if err := decoder.Decode(&cmd); err != nil {
		if err != io.EOF {
			log.Printf("Failed to decode command: %v", err)
		}
		_ = encoder.Encode(ipc.Response{Success: false, Message: "Failed to decode command: " + err.Error()})
		return
	}

	// Reset read deadline
	conn.SetReadDeadline(time.Time{})
	// Set write deadline for response
	conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	log.Printf("Received command: %s", cmd.Name)

	// Process command
	response := a.processCommand(cmd)

	// Send response
	if err := encoder.Encode(response); err != nil {
		log.Printf("Failed to send response: %v", err)
	}
}

// processCommand routes the command to the correct handler
func (a *App) processCommand(cmd ipc.Command) ipc.Response {
	switch cmd.Name {
	case ipc.CmdPing:
		return ipc.Response{Success: true, Message: "pong"}

	case ipc.CmdStartSession:
		var args ipc.StartSessionArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if args.DurationSeconds == 0 {
			args.DurationSeconds = int(a.cfg.Session.DefaultDuration() / time.Second)
		}
		err := a.engine.StartSession(session.Config{
			TaskLabel:       args.TaskLabel,
			DurationSeconds: args.DurationSeconds,
		})
		if err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return ipc.Response{Success: true, Message: fmt.Sprintf("Session started: %q (%ds)", args.TaskLabel, args.DurationSeconds)}

	case ipc.CmdPauseSession:
		a.engine.PauseSession()
		return ipc.Response{Success: true, Message: "Session paused"}

	case ipc.CmdResumeSession:
		if err := a.engine.ResumeSession(); err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return ipc.Response{Success: true, Message: "Session resumed"}

	case ipc.CmdResetSession:
		var args ipc.ResetSessionArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if args.DurationSeconds == 0 {
			args.DurationSeconds = int(a.cfg.Session.DefaultDuration() / time.Second)
		}
		if err := a.engine.ResetSession(args.DurationSeconds); err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return ipc.Response{Success: true, Message: fmt.Sprintf("Session reset to %ds", args.DurationSeconds)}

	case ipc.CmdSuspendSession:
		a.engine.SuspendSession()
		return ipc.Response{Success: true, Message: "Suspension recorded"}

	case ipc.CmdWakeSession:
		a.engine.WakeSession()
		return ipc.Response{Success: true, Message: "Compensated for suspended time"}

	case ipc.CmdGetStatus:
		a.statusMutex.RLock()
		st := a.currentStatus
		a.statusMutex.RUnlock()
		return ipc.Response{Success: true, Data: ipc.StatusData{
			TaskLabel:        st.TaskLabel,
			RemainingSeconds: st.RemainingSeconds,
			DurationSeconds:  st.DurationSeconds,
			Running:          st.Running,
			Suspended:        st.Suspended,
		}}

	case ipc.CmdAddActivity:
		var args ipc.AddActivityArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if args.Name == "" {
			return ipc.Response{Success: false, Message: "Activity name cannot be empty"}
		}
		activity := model.Activity{
			ID:        uuid.NewString(),
			Name:      args.Name,
			Category:  args.Category,
			Emoji:     args.Emoji,
			CreatedAt: time.Now().UTC(),
		}
		if err := a.storage.AddActivity(a.ctx, activity); err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return ipc.Response{Success: true, Message: fmt.Sprintf("Activity %q added (%s)", args.Name, activity.ID)}

	case ipc.CmdListActivities:
		activities, err := a.storage.ListActivities(a.ctx)
		if err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return ipc.Response{Success: true, Data: ipc.ActivityListData{Activities: activities}}

	case ipc.CmdRemoveActivity:
		var args ipc.RemoveArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if err := a.storage.RemoveActivity(a.ctx, args.ID); err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return ipc.Response{Success: true, Message: "Activity removed"}

	case ipc.CmdAddSound:
		var args ipc.AddSoundArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		opt, err := a.catalog.Add(a.ctx, args.Path, args.Name)
		if err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return ipc.Response{Success: true, Message: fmt.Sprintf("Sound %q added (%s)", opt.Name, opt.ID)}

	case ipc.CmdListSounds:
		sounds, err := a.catalog.List(a.ctx)
		if err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		selected, _ := a.storage.GetSetting(a.ctx, model.SettingSelectedSound)
		if selected == "" {
			selected = sqlitestore.DefaultSoundID
		}
		return ipc.Response{Success: true, Data: ipc.SoundListData{Sounds: sounds, SelectedID: selected}}

	case ipc.CmdSelectSound:
		var args ipc.SelectSoundArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if err := a.catalog.Select(a.ctx, args.ID); err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return ipc.Response{Success: true, Message: "Sound selected"}

	case ipc.CmdRemoveSound:
		var args ipc.RemoveArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if err := a.catalog.Remove(a.ctx, args.ID); err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return ipc.Response{Success: true, Message: "Sound removed"}

	case ipc.CmdNextReward:
		return a.nextReward()

	case ipc.CmdSetBackground:
		var args ipc.SetSettingArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if err := a.storage.SetSetting(a.ctx, model.SettingBackgroundImage, args.Value); err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return ipc.Response{Success: true, Message: "Background image updated"}

	case ipc.CmdSetLanguage:
		var args ipc.SetSettingArgs
		if err := mapToStruct(cmd.Args, &args); err != nil {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Invalid args for %s: %v", cmd.Name, err)}
		}
		if !i18n.Valid(args.Value) {
			return ipc.Response{Success: false, Message: fmt.Sprintf("Unsupported language %q (use 'es' or 'en')", args.Value)}
		}
		if err := a.storage.SetSetting(a.ctx, model.SettingLanguage, args.Value); err != nil {
			return ipc.Response{Success: false, Message: err.Error()}
		}
		return ipc.Response{Success: true, Message: "Language updated"}

	case ipc.CmdGetSettings:
		selected, _ := a.storage.GetSetting(a.ctx, model.SettingSelectedSound)
		background, _ := a.storage.GetSetting(a.ctx, model.SettingBackgroundImage)
		return ipc.Response{Success: true, Data: ipc.SettingsData{
			SelectedSoundID: selected,
			BackgroundImage: background,
			Language:        a.language(),
		}}

	default:
		return ipc.Response{Success: false, Message: fmt.Sprintf("Unknown command: %s", cmd.Name)}
	}
}

// nextReward picks one break activity, never repeating the previous pick
// while more than one is available. Empty pool gets the encouragement
// message instead.
func (a *App) nextReward() ipc.Response {
	activities, err := a.storage.ListActivities(a.ctx)
	if err != nil {
		log.Printf("Warning: failed to load activity pool: %v", err)
		activities = nil
	}

	a.rewardMutex.Lock()
	pick, ok := a.selector.Next(activities)
	a.rewardMutex.Unlock()

	if !ok {
		return ipc.Response{Success: true, Data: ipc.RewardData{Message: i18n.T(a.language(), i18n.MsgEncouragement)}}
	}
	return ipc.Response{Success: true, Data: ipc.RewardData{
		Activity: pick,
		Message:  i18n.T(a.language(), i18n.MsgRewardPrompt),
	}}
}

func (a *App) language() string {
	lang, err := a.storage.GetSetting(a.ctx, model.SettingLanguage)
	if err != nil || lang == "" {
		return i18n.LangSpanish
	}
	return lang
}

// Helper function to convert map[string]interface{} (from json unmarshal) to struct
func mapToStruct(input interface{}, output interface{}) error {
	if input == nil {
		return nil // No args provided, might be okay for some commands
	}
	// Convert map to JSON bytes
	jsonBytes, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal args map: %w", err)
	}
	// Unmarshal JSON bytes into the target struct
	if err := json.Unmarshal(jsonBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal args into struct: %w", err)
	}
	return nil
}

func (a *App) Run() error {
	defer a.cleanup() // Ensure cleanup runs

	log.Println("Starting Enfoque daemon...")
	log.Printf("Config: %+v", a.cfg)

	// --- Setup Socket ---
	if err := a.setupSocket(); err != nil {
		return err
	}

	// Start signal handling
	a.handleSignals()

	// Start the session engine
	a.engine.Start()

	// Start main application loop (handles engine updates, completion pipeline)
	a.wg.Add(1)
	go a.mainLoop()

	// Keep the sound catalog in sync with the sounds directory
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.catalog.WatchDir(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Sounds watcher stopped: %v", err)
		}
	}()

	// --- Start Socket Listener ---
	a.wg.Add(1)
	go a.listenForCommands()

	log.Println("Enfoque daemon running. Send commands via enfoque-cli or socket.")
	<-a.ctx.Done() // Block here until context is cancelled

	log.Println("Shutdown signal received, waiting for components...")

	// Close the listener *before* waiting for goroutines to allow accept() to return
	if a.listener != nil {
		log.Println("Closing command socket listener...")
		if err := a.listener.Close(); err != nil {
			log.Printf("Error closing socket listener: %v", err)
		}
	}

	waitChan := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(waitChan)
	}()

	select {
	case <-waitChan:
		log.Println("All application goroutines finished.")
	case <-time.After(5 * time.Second):
		log.Println("Warning: Timeout waiting for application goroutines to stop.")
	}

	log.Println("Enfoque daemon finished.")
	return nil
}

// mainLoop consumes updates from the session engine: status ticks refresh
// the cached status, completions drive the notification cascade and
// history record.
func (a *App) mainLoop() {
	defer a.wg.Done()
	defer log.Println("Main application loop stopped.")

	for {
		select {
		case <-a.ctx.Done():
			return // Exit loop on context cancellation

		case update := <-a.updateChan:
			switch u := update.(type) {
			case session.Status:
				a.statusMutex.Lock()
				a.currentStatus = u
				a.statusMutex.Unlock()

			case session.Completed:
				log.Printf("Session complete: task=%q planned=%ds", u.Config.TaskLabel, u.Config.DurationSeconds)
				a.statusMutex.Lock()
				a.currentStatus = session.Status{
					TaskLabel:       u.Config.TaskLabel,
					DurationSeconds: u.Config.DurationSeconds,
				}
				a.statusMutex.Unlock()
				a.handleCompletion(u)

			default:
				log.Printf("Unknown update type from session engine: %T", u)
			}
		}
	}
}

// handleCompletion records the session and runs the notification cascade.
// Neither failure mode may disturb the engine, so everything here is
// logged-and-continue.
func (a *App) handleCompletion(done session.Completed) {
	rec := model.SessionRecord{
		TaskLabel:      done.Config.TaskLabel,
		PlannedSeconds: done.Config.DurationSeconds,
		ActualSeconds:  done.Outcome.ActualSeconds,
		Completed:      done.Outcome.Completed,
		StartedAt:      done.Outcome.StartedAt,
		EndedAt:        done.Outcome.EndedAt,
	}
	if _, err := a.storage.SaveSession(a.ctx, rec); err != nil {
		log.Printf("Warning: Failed to save session record: %v", err)
	}

	lang := a.language()
	cue := notify.Cue{
		Title: i18n.T(lang, i18n.MsgCompletionTitle),
		Body:  i18n.T(lang, i18n.MsgCompletionBody),
	}
	if opt := a.catalog.Selected(a.ctx); opt != nil && !opt.IsDefault {
		cue.CustomURI = opt.URI
	}
	a.notifier.Notify(a.ctx, cue)
}

// handleSignals triggers graceful shutdown on SIGINT/SIGTERM
func (a *App) handleSignals() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v. Initiating shutdown...", sig)
		a.cancel() // Trigger context cancellation for graceful shutdown
	}()
}

// cleanup stops the engine (releasing any keep-awake hold), closes storage
// and removes the socket file.
func (a *App) cleanup() {
	log.Println("Running cleanup...")

	if a.engine != nil {
		a.engine.Stop()
	}

	// Close storage
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			log.Printf("Error closing storage: %v", err)
		}
	}

	// --- Remove Socket File ---
	// Note: Listener is closed in Run() before wg.Wait()
	if _, err := os.Stat(a.socketPath); err == nil {
		log.Printf("Removing socket file: %s", a.socketPath)
		if err := os.Remove(a.socketPath); err != nil {
			log.Printf("Warning: Failed to remove socket file %s: %v", a.socketPath, err)
		}
	}

	log.Println("Cleanup finished.")
}
