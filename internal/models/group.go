package models

import (
	"slices"
	"time"

	"github.com/lib/pq"
)

// Group stores per-chat settings that outlive the in-memory tracker:
// who may operate the roll and which language replies use.
type Group struct {
	// GroupID is the messaging platform chat identifier.
	GroupID string `gorm:"primaryKey" json:"group_id"`
	// Title is the last known chat title.
	Title string `json:"title"`
	// AdminIDs lists the user IDs allowed to issue roll commands.
	AdminIDs pq.StringArray `gorm:"type:text[]" json:"admin_ids"`
	// Language selects the reply translations (e.g. "en", "uk").
	Language  string    `gorm:"default:en" json:"language"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAdmin reports whether userID is on the group's admin roster.
func (g *Group) HasAdmin(userID string) bool {
	if g == nil {
		return false
	}
	return slices.Contains(g.AdminIDs, userID)
}

// AddAdmin appends userID to the roster. It returns false if already present.
func (g *Group) AddAdmin(userID string) bool {
	if g.HasAdmin(userID) {
		return false
	}
	g.AdminIDs = append(g.AdminIDs, userID)
	return true
}

// RemoveAdmin drops userID from the roster. It returns false if it was absent.
func (g *Group) RemoveAdmin(userID string) bool {
	idx := slices.Index(g.AdminIDs, userID)
	if idx < 0 {
		return false
	}
	g.AdminIDs = slices.Delete(g.AdminIDs, idx, idx+1)
	return true
}
