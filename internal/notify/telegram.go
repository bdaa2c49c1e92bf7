package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"FlowICT/internal/domain/models"
	domrepo "FlowICT/internal/domain/repository"
	xhttp "FlowICT/pkg/http"
	applogger "FlowICT/pkg/logger"
)

const telegramAPIBase = "https://api.telegram.org"

// TelegramSink pushes emitted signals to a chat through the Bot API
// sendMessage endpoint.
type TelegramSink struct {
	url    string
	chatID string
	client *xhttp.Client
	l      *applogger.Logger
}

var _ domrepo.SignalPublisher = (*TelegramSink)(nil)

func NewTelegramSink(botToken, chatID string, timeout time.Duration) *TelegramSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramSink{
		url:    fmt.Sprintf("%s/bot%s/sendMessage", telegramAPIBase, botToken),
		chatID: chatID,
		client: xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// SetLogger injects a structured logger.
func (t *TelegramSink) SetLogger(l *applogger.Logger) { t.l = l }

type telegramMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *TelegramSink) Publish(ctx context.Context, s *models.Signal) error {
	msg := &telegramMessage{
		ChatID:                t.chatID,
		Text:                  FormatSignalMessage(s),
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	}

	var resp telegramResponse
	err := t.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     t.url,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    msg,
	}, &resp)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	if !resp.OK {
		return fmt.Errorf("telegram send: %s", resp.Description)
	}
	if t.l != nil {
		t.l.Debug("telegram signal sent",
			applogger.String("symbol", s.Symbol),
			applogger.String("signal_id", s.ID),
		)
	}
	return nil
}

func (t *TelegramSink) Close() error { return nil }

// FormatSignalMessage renders a signal as the Markdown push message.
func FormatSignalMessage(s *models.Signal) string {
	emoji := "🟢"
	if s.TradeType == models.TradeSell {
		emoji = "🔴"
	}
	stars := strings.Repeat("⭐", confidenceStars(s.Confidence))

	var b strings.Builder
	b.WriteString("🚨 *FlowICT Signal* 🚨\n\n")
	fmt.Fprintf(&b, "%s *%s* %s · %s\n", emoji, strings.ToUpper(string(s.TradeType)), s.Symbol, s.Timeframe)
	fmt.Fprintf(&b, "⭐ *Confidence:* %.0f%% %s\n\n", s.Confidence*100, stars)

	fmt.Fprintf(&b, "💰 *Entry:* %s\n", fp(s.PriceLevel))
	fmt.Fprintf(&b, "🛑 *Stop:* %s\n", fp(s.StopLoss))
	if len(s.Targets) > 0 {
		fmt.Fprintf(&b, "🎯 *Targets:* %s\n", strings.Join(s.Targets, ", "))
	}

	b.WriteString("\n📊 *Context:*\n")
	fmt.Fprintf(&b, "🔹 Setup: %s\n", s.Kind)
	fmt.Fprintf(&b, "🔹 HTF bias: %s\n", s.HTFBias)
	fmt.Fprintf(&b, "🔹 RSI: %.1f\n", s.RSI)
	if s.Reason != "" {
		fmt.Fprintf(&b, "🔹 %s\n", s.Reason)
	}
	if len(s.Obstacles) > 0 {
		fmt.Fprintf(&b, "\n⚠️ *Obstacles:* %s\n", strings.Join(s.Obstacles, ", "))
	}

	fmt.Fprintf(&b, "\n⏰ %s", s.Timestamp.UTC().Format("2006-01-02 15:04 MST"))
	return b.String()
}

// confidenceStars maps confidence to 0..5 stars.
func confidenceStars(conf float64) int {
	n := int(conf * 5)
	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return n
}

// fp prints a price with the shortest exact decimal form, which keeps both
// 2-decimal metals and 5-decimal FX quotes readable.
func fp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
