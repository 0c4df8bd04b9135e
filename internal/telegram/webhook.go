package telegram

import (
	"context"
	"fmt"

	tgbot "github.com/go-telegram/bot"
)

// RegisterWebhook points the bot at the public webhook URL. Any
// previously registered webhook is dropped first so stale pending
// updates do not replay against the new endpoint.
func RegisterWebhook(ctx context.Context, b *tgbot.Bot, url, secretToken string) error {
	if _, err := b.DeleteWebhook(ctx, &tgbot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
		return fmt.Errorf("deleting previous webhook: %w", err)
	}
	ok, err := b.SetWebhook(ctx, &tgbot.SetWebhookParams{
		URL:         url,
		SecretToken: secretToken,
	})
	if err != nil {
		return fmt.Errorf("setting webhook: %w", err)
	}
	if !ok {
		return fmt.Errorf("setting webhook: telegram refused %s", url)
	}
	return nil
}
