// Package storage persists group settings (admin rosters, reply language) in
// PostgreSQL. Roll state itself is never persisted.
package storage

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"rollcall/backend/internal/models"
)

// ErrGroupNotFound is returned when a group has no stored settings.
var ErrGroupNotFound = errors.New("group not found")

type Storage interface {
	GetGroup(groupID string) (*models.Group, error)
	SaveGroup(group *models.Group) error
	IsGroupAdmin(groupID, userID string) (bool, error)
	GrantAdmin(groupID, userID string) error
	RevokeAdmin(groupID, userID string) error
}

type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Migrate creates or updates the tables owned by this package.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(&models.Group{})
}

// GetGroup loads the settings of a group.
func (s *Service) GetGroup(groupID string) (*models.Group, error) {
	var group models.Group
	err := s.DB.Where("group_id = ?", groupID).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	if err != nil {
		log.Printf("ERROR: Failed to get group %s: %v", groupID, err)
		return nil, err
	}
	return &group, nil
}

// SaveGroup upserts a group.
func (s *Service) SaveGroup(group *models.Group) error {
	return s.DB.Save(group).Error
}

// IsGroupAdmin reports whether userID may operate the roll in groupID.
// Unknown groups have no admins.
func (s *Service) IsGroupAdmin(groupID, userID string) (bool, error) {
	group, err := s.GetGroup(groupID)
	if errors.Is(err, ErrGroupNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return group.HasAdmin(userID), nil
}

// GrantAdmin adds userID to the roster of groupID, creating the group if needed.
func (s *Service) GrantAdmin(groupID, userID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var group models.Group
		if err := tx.Where(models.Group{GroupID: groupID}).FirstOrCreate(&group).Error; err != nil {
			return err
		}
		if !group.AddAdmin(userID) {
			return nil
		}
		if err := tx.Save(&group).Error; err != nil {
			return err
		}
		log.Printf("INFO: user %s granted roll admin in group %s", userID, groupID)
		return nil
	})
}

// RevokeAdmin removes userID from the roster of groupID.
func (s *Service) RevokeAdmin(groupID, userID string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var group models.Group
		err := tx.Where("group_id = ?", groupID).First(&group).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		if err != nil {
			return err
		}
		if !group.RemoveAdmin(userID) {
			return nil
		}
		if err := tx.Save(&group).Error; err != nil {
			return err
		}
		log.Printf("INFO: user %s revoked as roll admin in group %s", userID, groupID)
		return nil
	})
}
