package app

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/domainmart/internal/config"
)

func TestSenders(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	assert.Empty(t, senders(config.NotifyConfig{}, logger))

	got := senders(config.NotifyConfig{
		LogEnabled:        true,
		TelegramToken:     "tok",
		DiscordWebhookURL: "https://discord.example/hook",
	}, logger)
	names := make([]string, len(got))
	for i, s := range got {
		names[i] = s.Name()
	}
	assert.Equal(t, []string{"log", "discord"}, names, "telegram needs a chat id")
}

func TestNeedsRedis(t *testing.T) {
	assert.True(t, needsRedis("server"))
	assert.True(t, needsRedis("import"))
	assert.False(t, needsRedis("migrate"))
}
