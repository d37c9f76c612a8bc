package telegram

import (
	"errors"
	"log"
	"strconv"
	"strings"

	"rollcall/backend/internal/models"
	"rollcall/backend/internal/storage"
	"rollcall/backend/internal/tracker"
)

// RollTracker is the subset of the tracker the dispatcher drives.
type RollTracker interface {
	Start(groupID string, minutes int) (bool, error)
	Pause(groupID string) (bool, error)
	Lock(groupID string) (bool, error)
	Unlock(groupID string) (bool, error)
	StartBreak(groupID string) (bool, error)
	Resume(groupID string) (bool, error)
	Stop(groupID string) (bool, error)
	FinalizeStep(groupID string) (tracker.FinalizeResult, error)
	ClearRollData(groupID string)
	Status(groupID string) models.SessionStatus
	StatusReport(groupID string) string
	RoundReport(groupID string) string
}

// GroupSettings is the storage the dispatcher needs for authorization and language.
type GroupSettings interface {
	GetGroup(groupID string) (*models.Group, error)
	IsGroupAdmin(groupID, userID string) (bool, error)
}

// Translator resolves reply strings.
type Translator interface {
	GetString(lang, key string) string
	Format(lang, key string, args ...any) string
}

// Command is one operator command issued in a group chat.
type Command struct {
	GroupID string
	UserID  string
	// Name is the command without the leading slash or bot mention, e.g. "roll_start".
	Name string
	Args string
}

// commands that any member may run; everything else needs a group admin.
var publicCommands = map[string]bool{
	"roll_status": true,
	"roll_report": true,
	"roll_help":   true,
}

// IsRollCommand reports whether name belongs to the roll command set.
func IsRollCommand(name string) bool {
	return strings.HasPrefix(name, "roll_")
}

// CommandDispatcher maps operator commands to tracker operations and
// renders the outcome as a localized reply.
type CommandDispatcher struct {
	Tracker         RollTracker
	Settings        GroupSettings
	Localizer       Translator
	DefaultLanguage string
}

// NewCommandDispatcher creates a dispatcher.
func NewCommandDispatcher(t RollTracker, s GroupSettings, l Translator, defaultLang string) *CommandDispatcher {
	return &CommandDispatcher{
		Tracker:         t,
		Settings:        s,
		Localizer:       l,
		DefaultLanguage: defaultLang,
	}
}

// Dispatch executes cmd and returns the reply text.
func (d *CommandDispatcher) Dispatch(cmd Command) string {
	lang := d.language(cmd.GroupID)

	if !publicCommands[cmd.Name] {
		ok, err := d.Settings.IsGroupAdmin(cmd.GroupID, cmd.UserID)
		if err != nil {
			log.Printf("ERROR: Failed to check admin %s in group %s: %v", cmd.UserID, cmd.GroupID, err)
			return d.Localizer.GetString(lang, "internal_error")
		}
		if !ok {
			return d.Localizer.GetString(lang, "not_admin")
		}
	}

	g := cmd.GroupID
	switch cmd.Name {
	case "roll_start":
		minutes, err := strconv.Atoi(strings.TrimSpace(cmd.Args))
		if err != nil {
			return d.Localizer.GetString(lang, "usage_start")
		}
		changed, err := d.Tracker.Start(g, minutes)
		if err != nil {
			return d.errorReply(lang, err)
		}
		if !changed {
			return d.Localizer.GetString(lang, "roll_already_running")
		}
		log.Printf("INFO: roll started in group %s by %s, window %d min", g, cmd.UserID, minutes)
		return d.Localizer.Format(lang, "roll_started", minutes)
	case "roll_pause":
		return d.transition(lang, cmd, d.Tracker.Pause, "roll_paused")
	case "roll_lock":
		return d.transition(lang, cmd, d.Tracker.Lock, "roll_locked")
	case "roll_unlock":
		return d.transition(lang, cmd, d.Tracker.Unlock, "roll_unlocked")
	case "roll_break":
		return d.transition(lang, cmd, d.Tracker.StartBreak, "roll_break")
	case "roll_resume":
		return d.transition(lang, cmd, d.Tracker.Resume, "roll_resumed")
	case "roll_stop":
		return d.transition(lang, cmd, d.Tracker.Stop, "roll_stopped")
	case "roll_save":
		res, err := d.Tracker.FinalizeStep(g)
		if err != nil {
			return d.errorReply(lang, err)
		}
		log.Printf("INFO: round %d saved in group %s by %s", res.RoundNumber, g, cmd.UserID)
		return d.Localizer.Format(lang, "round_saved", res.RoundNumber, res.Participants)
	case "roll_clear":
		d.Tracker.ClearRollData(g)
		log.Printf("INFO: roll data cleared in group %s by %s", g, cmd.UserID)
		return d.Localizer.GetString(lang, "roll_cleared")
	case "roll_status":
		return d.Tracker.StatusReport(g)
	case "roll_report":
		return d.Tracker.RoundReport(g)
	default:
		return d.Localizer.GetString(lang, "help")
	}
}

func (d *CommandDispatcher) transition(lang string, cmd Command, op func(string) (bool, error), okKey string) string {
	changed, err := op(cmd.GroupID)
	if err != nil {
		return d.errorReply(lang, err)
	}
	if !changed {
		return d.Localizer.Format(lang, "no_change", d.Tracker.Status(cmd.GroupID))
	}
	log.Printf("INFO: %s in group %s by %s", cmd.Name, cmd.GroupID, cmd.UserID)
	return d.Localizer.GetString(lang, okKey)
}

func (d *CommandDispatcher) errorReply(lang string, err error) string {
	switch {
	case errors.Is(err, tracker.ErrNotRunning):
		return d.Localizer.GetString(lang, "not_running")
	case errors.Is(err, tracker.ErrNothingToSave):
		return d.Localizer.GetString(lang, "nothing_to_save")
	case errors.Is(err, tracker.ErrInvalidDuration):
		return d.Localizer.GetString(lang, "usage_start")
	default:
		log.Printf("ERROR: roll command failed: %v", err)
		return d.Localizer.GetString(lang, "internal_error")
	}
}

func (d *CommandDispatcher) language(groupID string) string {
	group, err := d.Settings.GetGroup(groupID)
	if err != nil {
		if !errors.Is(err, storage.ErrGroupNotFound) {
			log.Printf("WARN: Failed to load settings of group %s: %v", groupID, err)
		}
		return d.DefaultLanguage
	}
	if group.Language == "" {
		return d.DefaultLanguage
	}
	return group.Language
}
