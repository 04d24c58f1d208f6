package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rksstudio/detailbot/internal/domain"
)

type mockSender struct {
	sent    []int64
	failFor map[int64]error
}

func (m *mockSender) SendMessage(_ context.Context, chatID int64, _ string) error {
	m.sent = append(m.sent, chatID)
	if err, ok := m.failFor[chatID]; ok {
		return err
	}
	return nil
}

func testLead() *domain.Lead {
	when := time.Date(2024, 3, 16, 10, 0, 0, 0, time.UTC)
	return &domain.Lead{
		ID:       uuid.New(),
		UserID:   100,
		Username: "ivan",
		Name:     "Иван",
		Car:      "BMW X5 2019",
		Services: []domain.LeadService{
			{Code: "polish", Label: "Полировка кузова", Answers: []domain.SubAnswer{
				{Question: "Какая полировка нужна?", Answer: "Глубокая (царапины, паутинка)"},
			}},
			{Code: "tint", Label: "Тонировка"},
		},
		WhenText:    "завтра 10:00",
		WhenAt:      &when,
		Contact:     domain.ContactCall,
		Phone:       "+79991234567",
		Temperature: domain.TemperatureHot,
		Source:      "telegram_bot",
		CreatedAt:   time.Now().UTC(),
	}
}

func operators(ids ...int64) []*domain.Operator {
	ops := make([]*domain.Operator, 0, len(ids))
	for _, id := range ids {
		ops = append(ops, &domain.Operator{UserID: id})
	}
	return ops
}

func TestDeliverReachesAllOperators(t *testing.T) {
	sender := &mockSender{}
	n := New(sender, zap.NewNop())

	got := n.Deliver(context.Background(), testLead(), operators(1, 2, 3))

	if got != 3 {
		t.Fatalf("delivered = %d, want 3", got)
	}
	if len(sender.sent) != 3 {
		t.Fatalf("send attempts = %d, want 3", len(sender.sent))
	}
}

func TestDeliverSkipsFailedOperator(t *testing.T) {
	sender := &mockSender{failFor: map[int64]error{
		2: errors.New("Forbidden: bot can't initiate conversation with a user"),
	}}
	n := New(sender, zap.NewNop())

	got := n.Deliver(context.Background(), testLead(), operators(1, 2, 3))

	if got != 2 {
		t.Fatalf("delivered = %d, want 2", got)
	}
	// The failure must not short-circuit delivery to the remaining operators.
	if len(sender.sent) != 3 {
		t.Fatalf("send attempts = %d, want 3", len(sender.sent))
	}
	if sender.sent[2] != 3 {
		t.Fatalf("operator 3 was not attempted after the failure")
	}
}

func TestDeliverNoOperators(t *testing.T) {
	sender := &mockSender{}
	n := New(sender, zap.NewNop())

	if got := n.Deliver(context.Background(), testLead(), nil); got != 0 {
		t.Fatalf("delivered = %d, want 0", got)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("sender was called with no operators registered")
	}
}

func TestFormat(t *testing.T) {
	lead := testLead()
	text := Format(lead)

	for _, want := range []string{
		"🔥 ГОРЯЧИЙ",
		"Имя: Иван",
		"Авто: BMW X5 2019",
		"Телефон: +79991234567",
		"Связь: Звонок",
		"Когда: завтра 10:00 (16.03.2024 10:00)",
		"• Полировка кузова",
		"Какая полировка нужна? — Глубокая (царапины, паутинка)",
		"• Тонировка",
		"TG: @ivan",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Format() missing %q in:\n%s", want, text)
		}
	}

	// Sub-answers are indented beneath their service line.
	lines := strings.Split(text, "\n")
	var svcIdx, subIdx int
	for i, line := range lines {
		if strings.Contains(line, "Полировка кузова") {
			svcIdx = i
		}
		if strings.Contains(line, "Какая полировка") {
			subIdx = i
		}
	}
	if subIdx != svcIdx+1 {
		t.Errorf("sub-answer not directly under its service line:\n%s", text)
	}
}

func TestFormatChatOnlyLead(t *testing.T) {
	lead := testLead()
	lead.Phone = ""
	lead.Contact = domain.ContactTelegram
	lead.Username = ""
	lead.WhenAt = nil
	lead.Temperature = domain.TemperatureCold

	text := Format(lead)

	if !strings.Contains(text, "Телефон: —") {
		t.Errorf("empty phone not rendered as dash:\n%s", text)
	}
	if !strings.Contains(text, "Связь: Telegram (переписка)") {
		t.Errorf("contact method missing:\n%s", text)
	}
	if !strings.Contains(text, "Когда: завтра 10:00\n") {
		t.Errorf("when without parsed time should be raw text only:\n%s", text)
	}
	if strings.Contains(text, "TG: @") {
		t.Errorf("username line rendered for lead without username:\n%s", text)
	}
	if !strings.Contains(text, "❄️ ХОЛОДНЫЙ") {
		t.Errorf("cold badge missing:\n%s", text)
	}
}
