package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/pkg/errors"

	"github.com/mounirtms/techno-etl/internal/config"
	"github.com/mounirtms/techno-etl/pkg/logging"
)

var (
	bot    *tgbotapi.BotAPI
	chatID int64
)

// Init connects the notification bot. With an empty token the package
// stays silent and every send is a no-op.
func Init(cfg *config.Config) error {
	logger := logging.GetLogger()

	if cfg.TELEGRAM.BotToken == "" {
		logger.Debug("telegram notifications disabled")
		return nil
	}

	b, err := tgbotapi.NewBotAPI(cfg.TELEGRAM.BotToken)
	if err != nil {
		return errors.Wrap(err, "failed in telegram.Init")
	}
	bot = b
	chatID = cfg.TELEGRAM.ChatID
	logger.Infof("telegram notifications enabled for @%s", b.Self.UserName)
	return nil
}

func SendMessage(text string) error {
	if bot == nil {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := bot.Send(msg)
	return errors.Wrap(err, "failed in SendMessage")
}

// SendMessageWithLogError sends and only logs a delivery failure;
// reporting must never break the pipeline.
func SendMessageWithLogError(text string) {
	if err := SendMessage(text); err != nil {
		logging.GetLogger().Errorf("telegram send failed: %v", err)
	}
}
