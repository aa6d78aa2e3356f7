// Copyright (c) 2025 BVK Chaitanya

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
)

type TelegramSecrets struct {
	BotToken string `json:"token" yaml:"botToken"`
	ChatID   int64  `json:"chat_id" yaml:"chatID"`
}

func (v *TelegramSecrets) Check() error {
	if len(v.BotToken) == 0 {
		return fmt.Errorf("bot token cannot be empty")
	}
	if v.ChatID == 0 {
		return fmt.Errorf("chat id cannot be zero")
	}
	return nil
}

// Telegram sends messages to a single chat through a telegram bot.
type Telegram struct {
	bot *bot.Bot

	chatID int64
}

// NewTelegram creates a telegram notifier. Optional bot options are passed
// to the bot client.
func NewTelegram(secrets *TelegramSecrets, opts ...bot.Option) (*Telegram, error) {
	if err := secrets.Check(); err != nil {
		return nil, err
	}
	opts = append([]bot.Option{bot.WithSkipGetMe()}, opts...)
	b, err := bot.New(secrets.BotToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not create telegram bot: %w", err)
	}
	return &Telegram{bot: b, chatID: secrets.ChatID}, nil
}

func (c *Telegram) SendMessage(ctx context.Context, at time.Time, text string) error {
	m := &bot.SendMessageParams{
		ChatID: c.chatID,
		Text:   at.Format("2006-01-02 15:04:05 MST") + " " + text,
	}
	if _, err := c.bot.SendMessage(ctx, m); err != nil {
		return fmt.Errorf("could not send telegram message: %w", err)
	}
	return nil
}
