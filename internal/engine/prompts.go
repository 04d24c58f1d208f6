package engine

import (
	"strconv"
	"strings"

	"github.com/rksstudio/detailbot/internal/catalog"
	"github.com/rksstudio/detailbot/internal/domain"
)

// User-facing dialogue texts. The bot speaks Russian, informal register,
// matching the studio's social media tone.
const (
	textGreeting = "Привет! Я помогу быстро понять, что лучше сделать с машиной.\n\n" +
		"Нажми кнопку ниже — пройдём мини-диагностику за пару минут 👇"
	textStartButton = "Начать диагностику"

	textAskName      = "Как тебя зовут?"
	textNameTooShort = "Напиши имя чуть понятнее 🙂"

	textAskCar      = "Какая машина? (марка/модель)"
	textCarTooShort = "Напиши марку и модель (например: Camry / Solaris)"

	textPickServices   = "Какие услуги интересуют? Можно выбрать несколько, потом нажми «Готово ✅»"
	textServicesNone   = "Выбери хотя бы одну услугу 🙂"
	textServiceDone    = "Готово ✅"
	textMultiDone      = "Дальше ➡️"
	textMultiPickCount = "Отметь хотя бы один вариант 🙂"
	textAnswerTooShort = "Напиши чуть подробнее 🙂"

	textAskTime = "Когда планируешь приехать? Напиши, например: «завтра 15:00» или «25.12 10:30»"
	textBadTime = "Не получилось разобрать время 😅 Напиши в формате «сегодня 18:00», " +
		"«завтра 12:30» или «25.12 10:00» — и минимум на 5 минут вперёд."

	textAskContact = "Оставь номер телефона — передам заявку мастеру.\n\n" +
		"Можно нажать «Отправить контакт», написать номер текстом " +
		"или ответить «в телеграме», если удобнее переписка."
	textContactButton = "Отправить контакт"
	textBadPhone      = "Не похоже на номер 🤔 Напиши ещё раз или нажми «Отправить контакт»."

	textSubmitted = "✅ Заявка отправлена! Мастер свяжется с тобой в ближайшее время.\n" +
		"Если что-то срочное — пиши прямо сюда."
	textNoOperators = "⚠️ Сейчас никого из мастеров нет на связи, но заявка сохранена — " +
		"мы вернёмся к тебе, как только увидим её."

	textCancelled = "Ок, отменил. Если захочешь начать заново — жми /start"

	textOperatorAskPassword = "Введи пароль оператора (одним сообщением):"
	textOperatorBadPassword = "Пароль неверный ❌ Попробуй ещё раз или напиши /start"
	textOperatorAdded       = "✅ Готово, теперь заявки будут приходить тебе в личку."
	textOperatorRemoved     = "Ок, убрал тебя из списка операторов ✅"

	textUnknown = "Не понял 🙂 Нажми /start, чтобы начать диагностику."
)

// NoOperatorsText is the warning shown to the client when no operator could
// be reached. Exposed for the transport layer, which learns the delivery
// count only after the engine has finished.
const NoOperatorsText = textNoOperators

func startKeyboard() Keyboard {
	return Keyboard{Rows: [][]Button{{
		{Label: textStartButton, Data: encodeAction(nsFlow, verbStart)},
	}}}
}

// servicesKeyboard renders the multi-select picker with toggle marks.
func servicesKeyboard(cat *catalog.Catalog, selected map[string]bool) Keyboard {
	var rows [][]Button
	for _, svc := range cat.Services() {
		label := svc.Label
		if selected[svc.Code] {
			label = "✅ " + label
		}
		rows = append(rows, []Button{{
			Label: label,
			Data:  encodeAction(nsService, verbToggle, svc.Code),
		}})
	}
	rows = append(rows, []Button{{
		Label: textServiceDone,
		Data:  encodeAction(nsService, verbDone),
	}})
	return Keyboard{Rows: rows}
}

// questionKeyboard renders a choice sub-question. The cursor position is
// baked into every action code so a stale button press from an earlier
// question cannot be mistaken for an answer to the current one.
func questionKeyboard(q catalog.Question, svcIdx, qIdx int, picked map[string]bool) Keyboard {
	si := strconv.Itoa(svcIdx)
	qi := strconv.Itoa(qIdx)

	var rows [][]Button
	for _, opt := range q.Options {
		label := opt.Label
		if q.Kind == catalog.KindMulti && picked[opt.Value] {
			label = "✅ " + label
		}
		verb := verbPick
		if q.Kind == catalog.KindMulti {
			verb = verbToggle
		}
		rows = append(rows, []Button{{
			Label: label,
			Data:  encodeAction(nsQuestion, verb, si, qi, opt.Value),
		}})
	}
	if q.Kind == catalog.KindMulti {
		rows = append(rows, []Button{{
			Label: textMultiDone,
			Data:  encodeAction(nsQuestion, verbDone, si, qi),
		}})
	}
	return Keyboard{Rows: rows}
}

func contactKeyboard() Keyboard {
	return Keyboard{RequestContact: true, ContactLabel: textContactButton}
}

func removeKeyboard() Keyboard {
	return Keyboard{Remove: true}
}

// chat keywords that mean "contact me right here" instead of a phone number.
var chatKeywords = []string{"телеграм", "telegram", "тг", "tg", "здесь", "тут", "чат", "переписк"}

// whatsappKeywords mark a phone answer as preferring WhatsApp.
var whatsappKeywords = []string{"whatsapp", "ватсап", "вотсап", "whats app"}

func contactMethodFor(text string, hasPhone bool) domain.ContactMethod {
	if !hasPhone {
		return domain.ContactTelegram
	}
	lower := strings.ToLower(text)
	for _, w := range whatsappKeywords {
		if strings.Contains(lower, w) {
			return domain.ContactWhatsApp
		}
	}
	return domain.ContactCall
}

func isChatRequest(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range chatKeywords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
