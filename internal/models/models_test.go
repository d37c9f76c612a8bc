package models_test

import (
	"reflect"
	"testing"

	"github.com/lib/pq"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	"rollcall/backend/internal/models"
)

func TestMessageEventDisplayName(t *testing.T) {
	tests := []struct {
		name      string
		username  *string
		firstName *string
		want      string
	}{
		{name: "username wins", username: lo.ToPtr("alice"), firstName: lo.ToPtr("Alice"), want: "@alice"},
		{name: "username already prefixed", username: lo.ToPtr("@alice"), want: "@alice"},
		{name: "blank username falls back", username: lo.ToPtr("  "), firstName: lo.ToPtr("Alice"), want: "Alice"},
		{name: "first name only", firstName: lo.ToPtr("Оксана"), want: "Оксана"},
		{name: "nothing", want: models.FallbackDisplayName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := models.MessageEvent{GroupID: "g", UserID: "u", Username: tt.username, FirstName: tt.firstName}
			assert.Equal(t, tt.want, ev.DisplayName())
		})
	}
}

func TestGroupAdminRoster(t *testing.T) {
	// Arrange
	g := &models.Group{GroupID: "-100", AdminIDs: pq.StringArray{"1"}}

	// Act & Assert
	assert.True(t, g.HasAdmin("1"))
	assert.False(t, g.HasAdmin("2"))

	assert.True(t, g.AddAdmin("2"))
	assert.False(t, g.AddAdmin("2"), "duplicate grant is a no-op")
	assert.Equal(t, pq.StringArray{"1", "2"}, g.AdminIDs)

	assert.True(t, g.RemoveAdmin("1"))
	assert.False(t, g.RemoveAdmin("1"))
	assert.Equal(t, pq.StringArray{"2"}, g.AdminIDs)
}

func TestGroupHasAdmin_NilGroup(t *testing.T) {
	var g *models.Group
	assert.False(t, g.HasAdmin("1"))
}

// TestGroupStructTags guards the gorm tags the storage layer depends on.
func TestGroupStructTags(t *testing.T) {
	groupType := reflect.TypeOf(models.Group{})

	idField, found := groupType.FieldByName("GroupID")
	assert.True(t, found)
	assert.Contains(t, idField.Tag.Get("gorm"), "primaryKey")

	adminsField, found := groupType.FieldByName("AdminIDs")
	assert.True(t, found)
	assert.Contains(t, adminsField.Tag.Get("gorm"), "type:text[]", "AdminIDs should use PostgreSQL array type")
}

func TestNewRound(t *testing.T) {
	r := models.NewRound(4)

	assert.Equal(t, 4, r.Number)
	assert.NotNil(t, r.Participants)
	assert.Empty(t, r.Participants)
}
