package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"rollcall/backend/internal/api/handler"
	"rollcall/backend/internal/config"
	"rollcall/backend/internal/localization"
	"rollcall/backend/internal/models"
	"rollcall/backend/internal/storage"
)

const usage = `Usage: admin <command> [args]
  grant <group_id> <user_id>       allow a user to run roll commands in a group
  revoke <group_id> <user_id>      remove a roll admin
  language <group_id> <lang>       set the reply language of a group
  token <operator> <group_id|*>... issue an operator API token`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	cfg, err := config.Read()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	command, args := os.Args[1], os.Args[2:]
	switch command {
	case "grant":
		if len(args) != 2 {
			fmt.Println("Usage: admin grant <group_id> <user_id>")
			os.Exit(1)
		}
		if err := openStorage(cfg).GrantAdmin(args[0], args[1]); err != nil {
			log.Fatalf("Error granting admin: %v", err)
		}
		fmt.Printf("User %s is now a roll admin of group %s.\n", args[1], args[0])
	case "revoke":
		if len(args) != 2 {
			fmt.Println("Usage: admin revoke <group_id> <user_id>")
			os.Exit(1)
		}
		err := openStorage(cfg).RevokeAdmin(args[0], args[1])
		if errors.Is(err, storage.ErrGroupNotFound) {
			fmt.Printf("Group %s has no settings.\n", args[0])
			os.Exit(1)
		}
		if err != nil {
			log.Fatalf("Error revoking admin: %v", err)
		}
		fmt.Printf("User %s is no longer a roll admin of group %s.\n", args[1], args[0])
	case "language":
		if len(args) != 2 {
			fmt.Println("Usage: admin language <group_id> <lang>")
			os.Exit(1)
		}
		if err := setLanguage(cfg, openStorage(cfg), args[0], args[1]); err != nil {
			log.Fatalf("Error setting language: %v", err)
		}
		fmt.Printf("Group %s now uses %s.\n", args[0], args[1])
	case "token":
		if len(args) < 2 {
			fmt.Println("Usage: admin token <operator> <group_id|*>...")
			os.Exit(1)
		}
		token, err := handler.GenerateToken([]byte(cfg.JWTSecret), args[0], args[1:], time.Now())
		if err != nil {
			log.Fatalf("Error issuing token: %v", err)
		}
		fmt.Println(token)
	default:
		fmt.Println("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func openStorage(cfg *config.Config) *storage.Service {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	s := storage.NewStorageService(db)
	if err := s.Migrate(); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}
	return s
}

func setLanguage(cfg *config.Config, s storage.Storage, groupID, lang string) error {
	l, err := localization.NewLocalizer(cfg.LocalesDir)
	if err != nil {
		return err
	}
	if !slices.Contains(l.Languages(), lang) {
		return fmt.Errorf("unknown language %q, available: %s", lang, strings.Join(l.Languages(), ", "))
	}

	group, err := s.GetGroup(groupID)
	if errors.Is(err, storage.ErrGroupNotFound) {
		group = &models.Group{GroupID: groupID}
	} else if err != nil {
		return err
	}
	group.Language = lang
	return s.SaveGroup(group)
}
