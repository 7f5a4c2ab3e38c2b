// Package telegram provides a client for sending operational alerts via
// Telegram Bot API. High-confidence delay predictions are formatted into
// human-readable messages and delivered with retry logic for reliability.
//
// The client supports Markdown formatting and includes error handling for
// common Telegram API issues like rate limiting and network failures.
package telegram

import (
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/flightontime/flightontime/internal/models"
)

// Client handles Telegram notifications
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// ShouldAlert reports whether a prediction warrants an operational alert.
// Only delayed predictions at the highest confidence tier page anyone.
func ShouldAlert(result *models.PredictionResult) bool {
	return result.Prediction == models.LabelDelayed && result.Confidence == models.ConfidenceVeryHigh
}

// SendDelayAlert sends a notification for a high-confidence delay prediction
func (c *Client) SendDelayAlert(flightKey string, result *models.PredictionResult) error {
	message := formatDelayAlert(flightKey, result, time.Now())

	// Create message
	msg := tgbotapi.NewMessage(c.chatID, message)
	msg.ParseMode = "MarkdownV2" // Use MarkdownV2 for better escaping support

	// Send with retry
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		_, err := c.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}

	return fmt.Errorf("failed to send message after %d retries: %w", c.maxRetries, lastErr)
}

// formatDelayAlert formats a prediction into a Telegram message
func formatDelayAlert(flightKey string, result *models.PredictionResult, at time.Time) string {
	message := "🚨 *High\\-Confidence Delay Predicted*\n\n"

	dateStr := escapeMarkdownV2(at.Format("2006-01-02 15:04:05"))
	message += fmt.Sprintf("📅 Detected: %s\n", dateStr)
	message += fmt.Sprintf("✈️ Flight: %s\n", escapeMarkdownV2(flightKey))

	probStr := escapeMarkdownV2(fmt.Sprintf("%.1f%%", result.ProbabilityDelay*100))
	message += fmt.Sprintf("📊 Delay probability: *%s* \\(%s\\)\n\n", probStr, escapeMarkdownV2(result.Confidence))

	if len(result.TopFactors) > 0 {
		message += "Top factors:\n"
		for i, factor := range result.TopFactors {
			message += fmt.Sprintf("%d\\. %s\n", i+1, escapeMarkdownV2(factor))
		}
		message += "\n"
	}

	if len(result.Recommendations) > 0 {
		message += "Recommended actions:\n"
		for _, rec := range result.Recommendations {
			message += fmt.Sprintf("• %s\n", escapeMarkdownV2(rec))
		}
	}

	return message
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	// Characters that need escaping in MarkdownV2:
	// _ * [ ] ( ) ~ ` > # + - = | { } . !
	// Note: We escape all of them with \ prefix

	result := ""
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			result += "\\" + string(char)
		default:
			result += string(char)
		}
	}
	return result
}
