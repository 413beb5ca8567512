package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/kirinyoku/raffle-go/internal/domain"
)

// Timeout bounds one notification sent with Async.
const Timeout = 10 * time.Second

type Notifier interface {
	Notify(ctx context.Context, text string) error
}

type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// Async sends text on its own goroutine so the caller never waits on the
// chat API. The send outlives ctx cancellation but not Timeout. Failures are
// logged with attrs. The returned channel closes once the send is over.
func Async(ctx context.Context, n Notifier, logger *slog.Logger, text string, attrs ...any) <-chan struct{} {
	done := make(chan struct{})
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), Timeout)

	go func() {
		defer close(done)
		defer cancel()

		if err := n.Notify(ctx, text); err != nil {
			logger.Warn("notification failed", append(attrs, "error", err)...)
		}
	}()

	return done
}

// Telegram sends admin notifications to a single chat.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger *slog.Logger
}

func NewTelegram(token string, chatID int64, logger *slog.Logger) (*Telegram, error) {
	const op = "notify.NewTelegram"

	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: Timeout})
	if err != nil {
		return nil, fmt.Errorf("%s:%w", op, err)
	}

	logger.Info("telegram bot authorized", "username", bot.Self.UserName)

	return &Telegram{bot: bot, chatID: chatID, logger: logger}, nil
}

func (t *Telegram) Notify(ctx context.Context, text string) error {
	const op = "notify.Telegram.Notify"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("%s:%w", op, err)
	}

	return nil
}

func PurchaseConfirmed(r *domain.Raffle, p *domain.Purchase) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Purchase confirmed: %s\n", r.Title)
	fmt.Fprintf(&b, "Numbers: %s\n", joinNumbers(p.Numbers))
	fmt.Fprintf(&b, "Buyer: %s (%s, %s)\n", p.Buyer.Name, p.Buyer.Phone, p.Buyer.Email)
	fmt.Fprintf(&b, "Total: %s %s", FormatCents(p.TotalCents), strings.ToUpper(p.Currency))
	return b.String()
}

func LatePayment(p *domain.Purchase) string {
	return fmt.Sprintf(
		"Payment received after reservation was released, refund required.\nPurchase: %s\nBuyer: %s (%s)\nTotal: %s %s",
		p.ID, p.Buyer.Name, p.Buyer.Email, FormatCents(p.TotalCents), strings.ToUpper(p.Currency),
	)
}

func DrawCompleted(r *domain.Raffle, res *domain.DrawResult) string {
	return fmt.Sprintf(
		"Draw completed: %s\nWinning number: %d\nWinner: %s (%s, %s)\nSold numbers: %d\nDigest: %s",
		r.Title, res.WinnerNumber, res.Winner.Name, res.Winner.Phone, res.Winner.Email, res.SoldCount, res.Digest,
	)
}

func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func joinNumbers(nums []int) string {
	parts := make([]string, len(nums))
	for i, n := range nums {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return strings.Join(parts, ", ")
}
