// Package config defines Telegram Bot API limit constants.
package config

// Telegram Bot API constraints.
// https://core.telegram.org/bots/api
const (
	// TelegramMaxMessageLength is the maximum text message length.
	TelegramMaxMessageLength = 4096

	// TelegramMaxCallbackDataLength is the maximum callback_data size
	// for inline keyboard buttons.
	TelegramMaxCallbackDataLength = 64

	// TelegramMaxCaptionLength is the maximum media caption length.
	TelegramMaxCaptionLength = 1024
)
