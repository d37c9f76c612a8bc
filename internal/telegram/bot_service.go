// Package telegram connects the roll tracker to the Telegram Bot API.
// Group messages become tracker events; /roll_* commands from group admins
// are dispatched to tracker operations and answered in the chat.
package telegram

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rollcall/backend/internal/models"
	"rollcall/backend/internal/tracker"
)

// Sender delivers outgoing messages. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// BotService receives Telegram updates and routes them to the dispatcher or the ingestor.
type BotService struct {
	BotAPI     *tgbotapi.BotAPI
	Sender     Sender
	Dispatcher *CommandDispatcher
	Ingestor   tracker.Ingestor
	Localizer  Translator
	// DefaultLanguage is used for replies outside of groups.
	DefaultLanguage string

	// the bot API's update receiver can only be shut down once per process.
	stopOnce sync.Once
}

// NewBotService authorizes the bot and creates a BotService.
func NewBotService(token string, d *CommandDispatcher, ing tracker.Ingestor) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)

	return &BotService{
		BotAPI:          bot,
		Sender:          bot,
		Dispatcher:      d,
		Ingestor:        ing,
		Localizer:       d.Localizer,
		DefaultLanguage: d.DefaultLanguage,
	}, nil
}

// extractMessageContent uniformly extracts text or a caption from a message.
func extractMessageContent(msg *tgbotapi.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

func isGroupChat(chat tgbotapi.Chat) bool {
	return chat.Type == "group" || chat.Type == "supergroup"
}

// toEvent converts a group message into a tracker event.
func toEvent(msg *tgbotapi.Message) models.MessageEvent {
	ev := models.MessageEvent{
		GroupID:    strconv.FormatInt(msg.Chat.ID, 10),
		UserID:     strconv.FormatInt(msg.From.ID, 10),
		Text:       extractMessageContent(msg),
		ReceivedAt: time.Unix(int64(msg.Date), 0).UTC(),
	}
	if msg.From.UserName != "" {
		username := msg.From.UserName
		ev.Username = &username
	}
	if msg.From.FirstName != "" {
		firstName := msg.From.FirstName
		ev.FirstName = &firstName
	}
	return ev
}

// HandleUpdate processes one update.
func (s *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}

	if msg.IsCommand() && IsRollCommand(msg.Command()) {
		s.handleRollCommand(msg)
		return
	}

	if !isGroupChat(msg.Chat) {
		return
	}
	if err := s.Ingestor.Ingest(ctx, toEvent(msg)); err != nil {
		log.Printf("ERROR: Failed to ingest message %d in chat %d: %v", msg.MessageID, msg.Chat.ID, err)
	}
}

func (s *BotService) handleRollCommand(msg *tgbotapi.Message) {
	var text string
	if !isGroupChat(msg.Chat) {
		text = s.Localizer.GetString(s.DefaultLanguage, "group_only")
	} else {
		text = s.Dispatcher.Dispatch(Command{
			GroupID: strconv.FormatInt(msg.Chat.ID, 10),
			UserID:  strconv.FormatInt(msg.From.ID, 10),
			Name:    msg.Command(),
			Args:    msg.CommandArguments(),
		})
	}
	s.reply(msg.Chat.ID, text)
}

func (s *BotService) reply(chatID int64, text string) {
	if _, err := s.Sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("ERROR: Failed to send reply to chat %d: %v", chatID, err)
	}
}

// Run consumes updates until ctx is done.
func (s *BotService) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)
	log.Println("Telegram update loop started.")

	for {
		select {
		case <-ctx.Done():
			s.stopOnce.Do(s.BotAPI.StopReceivingUpdates)
			log.Println("Telegram update loop stopped.")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.HandleUpdate(ctx, update)
		}
	}
}
