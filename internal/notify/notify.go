// Package notify formats finished leads and fans them out to the
// registered operators.
package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rksstudio/detailbot/internal/domain"
	"github.com/rksstudio/detailbot/internal/sanitize"
)

// Sender delivers one text message to a chat. The Telegram adapter
// implements it; tests use a fake.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Notifier dispatches lead summaries to operators.
type Notifier struct {
	sender Sender
	logger *zap.Logger
}

// New creates a Notifier.
func New(sender Sender, logger *zap.Logger) *Notifier {
	return &Notifier{sender: sender, logger: logger}
}

// Deliver sends the formatted lead to every operator independently and
// returns how many were actually reached. A failure for one operator
// (typically: the operator never opened a chat with the bot) is logged and
// skipped; it never aborts delivery to the rest.
func (n *Notifier) Deliver(ctx context.Context, lead *domain.Lead, operators []*domain.Operator) int {
	if len(operators) == 0 {
		n.logger.Warn("no operators registered, lead not dispatched",
			zap.String("lead_id", lead.ID.String()))
		return 0
	}

	text := Format(lead)
	delivered := 0
	for _, op := range operators {
		if err := n.sender.SendMessage(ctx, op.UserID, text); err != nil {
			n.logger.Warn("lead delivery to operator failed",
				zap.String("lead_id", lead.ID.String()),
				zap.Int64("operator_id", op.UserID),
				zap.Error(err),
			)
			continue
		}
		delivered++
	}

	n.logger.Info("lead dispatched",
		zap.String("lead_id", lead.ID.String()),
		zap.String("temperature", string(lead.Temperature)),
		zap.String("phone", sanitize.MaskPhone(lead.Phone)),
		zap.Int("operators_total", len(operators)),
		zap.Int("operators_reached", delivered),
	)
	return delivered
}

var temperatureBadge = map[domain.Temperature]string{
	domain.TemperatureHot:  "🔥 ГОРЯЧИЙ",
	domain.TemperatureWarm: "🌤 ТЁПЛЫЙ",
	domain.TemperatureCold: "❄️ ХОЛОДНЫЙ",
}

var contactLabel = map[domain.ContactMethod]string{
	domain.ContactCall:     "Звонок",
	domain.ContactWhatsApp: "WhatsApp",
	domain.ContactTelegram: "Telegram (переписка)",
}

// Format renders the lead as a plain-text, field-per-line operator message
// with sub-answers indented beneath their service line.
func Format(lead *domain.Lead) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Новая заявка RKS Studio — %s\n", temperatureBadge[lead.Temperature])
	fmt.Fprintf(&b, "ID: %s\n", lead.ID)
	fmt.Fprintf(&b, "Имя: %s\n", lead.Name)
	fmt.Fprintf(&b, "Авто: %s\n", lead.Car)

	phone := lead.Phone
	if phone == "" {
		phone = "—"
	}
	fmt.Fprintf(&b, "Телефон: %s\n", phone)
	fmt.Fprintf(&b, "Связь: %s\n", contactLabel[lead.Contact])

	when := lead.WhenText
	if lead.WhenAt != nil {
		when = fmt.Sprintf("%s (%s)", lead.WhenText, lead.WhenAt.Format("02.01.2006 15:04"))
	}
	fmt.Fprintf(&b, "Когда: %s\n", when)

	b.WriteString("Услуги:\n")
	for _, svc := range lead.Services {
		fmt.Fprintf(&b, "  • %s\n", svc.Label)
		for _, sub := range svc.Answers {
			fmt.Fprintf(&b, "      %s — %s\n", sub.Question, sub.Answer)
		}
	}

	if lead.Username != "" {
		fmt.Fprintf(&b, "TG: @%s\n", lead.Username)
	}
	return b.String()
}
