package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"shop/internal/domain/model"
)

// Notification は購入者に送るメッセージ。
type Notification struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// OrderConfirmation は注文確定メールを組み立てる。
func OrderConfirmation(order model.Order) Notification {
	var b strings.Builder
	fmt.Fprintf(&b, "Thank you for your order %s.\n\n", order.ID)
	for _, l := range order.Lines {
		fmt.Fprintf(&b, "%s - %d x $%s\n", l.Title, l.Quantity, l.Price.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal Price: $%s\n", order.Total().StringFixed(2))

	return Notification{
		To:      order.Email,
		Subject: "Order confirmed",
		Body:    b.String(),
	}
}

// LogNotifier はブローカー未設定時の代替。送信内容をログに残すだけ。
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Notification) error {
	n.logger.InfoContext(ctx, "notification",
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
