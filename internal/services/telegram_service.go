package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/perfumatch/internal/importer"
	"github.com/example/perfumatch/internal/pkg/logger"
)

// TelegramNotifier posts batch job summaries to an admin chat.
type TelegramNotifier struct {
	botToken    string
	adminChatID string
	apiBase     string
	client      *http.Client
	log         *logger.Logger
}

// NewTelegramNotifier creates a notifier. Missing credentials turn every
// send into a no-op.
func NewTelegramNotifier(botToken, adminChatID string, log *logger.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		botToken:    botToken,
		adminChatID: adminChatID,
		apiBase:     "https://api.telegram.org",
		client:      &http.Client{Timeout: 10 * time.Second},
		log:         log.With("service", "telegram"),
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends an HTML message to chatID.
func (s *TelegramNotifier) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		s.log.Debug("bot token not configured")
		return nil
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.apiBase, s.botToken)

	body, err := json.Marshal(telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	resp, err := s.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		s.log.Warn("failed to send message", "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.log.Warn("unexpected status", "status", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramNotifier) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		s.log.Debug("admin chat id not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// NotifyImport reports per-source import counts.
func (s *TelegramNotifier) NotifyImport(results []importer.Result) error {
	var rows strings.Builder
	for _, r := range results {
		fmt.Fprintf(&rows, "• <b>%s</b>: %d new, %d skipped, %d failed\n", r.Source, r.Created, r.Skipped, r.Failed)
	}
	message := fmt.Sprintf("<b>📦 Catalog import finished</b>\n%s━━━━━━━━━━━━━━━━━━", rows.String())
	return s.SendToAdmin(strings.TrimSpace(message))
}

// NotifySimilarities reports a similarity batch run.
func (s *TelegramNotifier) NotifySimilarities(res ComputeResult) error {
	message := fmt.Sprintf(`<b>🧪 Similarities computed</b>
<b>Pairs:</b> %d
<b>New edges:</b> %d
<b>Already stored:</b> %d
<b>Below threshold:</b> %d
━━━━━━━━━━━━━━━━━━`,
		res.Pairs,
		res.NewEdges,
		res.SkippedExisting,
		res.BelowThreshold,
	)
	return s.SendToAdmin(strings.TrimSpace(message))
}
