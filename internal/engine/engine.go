// Package engine implements the questionnaire state machine. A single
// transition function consumes (session, event) and yields effects plus,
// on completion, a finished lead. It knows nothing about Telegram: the
// transport adapter renders effects and feeds events back in.
package engine

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/rksstudio/detailbot/internal/catalog"
	"github.com/rksstudio/detailbot/internal/clock"
	"github.com/rksstudio/detailbot/internal/domain"
	"github.com/rksstudio/detailbot/internal/normalize"
)

// minAnswerLen is the minimum rune count for name/car/free-text answers.
const minAnswerLen = 2

// ErrBadSecret is returned by a Registrar when the shared secret is wrong.
var ErrBadSecret = errors.New("operator secret mismatch")

// Registrar manages the operator registry on behalf of the engine.
type Registrar interface {
	// Register adds the user as an operator after checking the shared
	// secret; returns ErrBadSecret on mismatch.
	Register(ctx context.Context, userID int64, username, name, secret string) error

	// Unregister removes the user from the registry.
	Unregister(ctx context.Context, userID int64) error
}

// Engine walks sessions through the questionnaire.
type Engine struct {
	catalog   *catalog.Catalog
	registrar Registrar
	clock     clock.Clock
	logger    *zap.Logger
}

// New creates an engine over the given catalog.
func New(cat *catalog.Catalog, registrar Registrar, clk clock.Clock, logger *zap.Logger) *Engine {
	if clk == nil {
		clk = clock.New()
	}
	return &Engine{
		catalog:   cat,
		registrar: registrar,
		clock:     clk,
		logger:    logger,
	}
}

// Handle advances a session by one event. Validation failures never escape:
// they turn into corrective re-prompt effects on the same step.
func (e *Engine) Handle(ctx context.Context, sess *domain.Session, ev Event) Result {
	if ev.Kind == EventCommand {
		return e.handleCommand(ctx, sess, ev.Text)
	}

	switch sess.Step {
	case domain.StepIdle:
		return e.handleIdle(sess, ev)
	case domain.StepName:
		return e.handleName(sess, ev)
	case domain.StepCar:
		return e.handleCar(sess, ev)
	case domain.StepServices:
		return e.handleServices(sess, ev)
	case domain.StepSubQuestions:
		return e.handleSubQuestion(sess, ev)
	case domain.StepTime:
		return e.handleTime(sess, ev)
	case domain.StepContact:
		return e.handleContact(sess, ev)
	case domain.StepOperatorPassword:
		return e.handleOperatorPassword(ctx, sess, ev)
	default:
		e.logger.Warn("session in unknown step, resetting",
			zap.Int64("user_id", sess.UserID),
			zap.String("step", string(sess.Step)),
		)
		sess.Reset()
		return Result{Effects: []Effect{messageWithKeyboard(textGreeting, startKeyboard())}}
	}
}

func (e *Engine) handleCommand(ctx context.Context, sess *domain.Session, name string) Result {
	switch name {
	case "start":
		// Restart semantics: drop anything in progress, greet again.
		sess.Reset()
		return Result{Effects: []Effect{messageWithKeyboard(textGreeting, startKeyboard())}}
	case "cancel":
		sess.Reset()
		return Result{Effects: []Effect{messageWithKeyboard(textCancelled, removeKeyboard())}}
	case "operator":
		sess.Reset()
		sess.Step = domain.StepOperatorPassword
		return Result{Effects: []Effect{messageWithKeyboard(textOperatorAskPassword, removeKeyboard())}}
	case "unoperator":
		if err := e.registrar.Unregister(ctx, sess.UserID); err != nil {
			e.logger.Error("operator unregister failed",
				zap.Int64("user_id", sess.UserID), zap.Error(err))
		}
		return Result{Effects: []Effect{message(textOperatorRemoved)}}
	default:
		return Result{Effects: []Effect{message(textUnknown)}}
	}
}

func (e *Engine) handleIdle(sess *domain.Session, ev Event) Result {
	if ev.Kind == EventCallback {
		if act, ok := decodeAction(ev.Data); ok && act.ns == nsFlow && act.verb == verbStart {
			sess.Reset()
			sess.Step = domain.StepName
			return Result{Effects: []Effect{messageWithKeyboard(textAskName, removeKeyboard())}}
		}
	}
	return Result{Effects: []Effect{messageWithKeyboard(textGreeting, startKeyboard())}}
}

func (e *Engine) handleName(sess *domain.Session, ev Event) Result {
	name := strings.TrimSpace(ev.Text)
	if ev.Kind != EventText || len([]rune(name)) < minAnswerLen {
		return Result{Effects: []Effect{message(textNameTooShort)}}
	}
	sess.Name = name
	sess.Step = domain.StepCar
	return Result{Effects: []Effect{message(textAskCar)}}
}

func (e *Engine) handleCar(sess *domain.Session, ev Event) Result {
	car := strings.TrimSpace(ev.Text)
	if ev.Kind != EventText || len([]rune(car)) < minAnswerLen {
		return Result{Effects: []Effect{message(textCarTooShort)}}
	}
	sess.Car = car
	sess.Step = domain.StepServices
	return Result{Effects: []Effect{
		messageWithKeyboard(textPickServices, servicesKeyboard(e.catalog, sess.Selected)),
	}}
}

func (e *Engine) handleServices(sess *domain.Session, ev Event) Result {
	act, ok := decodeAction(ev.Data)
	if ev.Kind != EventCallback || !ok || act.ns != nsService {
		return Result{Effects: []Effect{
			messageWithKeyboard(textPickServices, servicesKeyboard(e.catalog, sess.Selected)),
		}}
	}

	switch act.verb {
	case verbToggle:
		code := act.arg(0)
		if _, known := e.catalog.Get(code); !known {
			return Result{}
		}
		sess.ToggleService(code)
		return Result{Effects: []Effect{editKeyboard(servicesKeyboard(e.catalog, sess.Selected))}}

	case verbDone:
		if len(sess.Selected) == 0 {
			return Result{Effects: []Effect{
				messageWithKeyboard(textServicesNone, servicesKeyboard(e.catalog, sess.Selected)),
			}}
		}
		sess.ServiceIndex = 0
		sess.QuestionIndex = 0
		return e.enterSubQuestions(sess)

	default:
		return Result{}
	}
}

// enterSubQuestions positions the cursor on the first selected service that
// declares questions, or skips straight to the time step.
func (e *Engine) enterSubQuestions(sess *domain.Session) Result {
	ordered := e.catalog.Ordered(sess.Selected)
	for i := sess.ServiceIndex; i < len(ordered); i++ {
		if ordered[i].HasQuestions() {
			sess.Step = domain.StepSubQuestions
			sess.ServiceIndex = i
			sess.QuestionIndex = 0
			sess.Picked = make(map[string]bool)
			return Result{Effects: []Effect{e.promptCurrentQuestion(sess)}}
		}
	}
	sess.Step = domain.StepTime
	return Result{Effects: []Effect{message(textAskTime)}}
}

func (e *Engine) promptCurrentQuestion(sess *domain.Session) Effect {
	svc, q := e.currentQuestion(sess)
	prompt := svc.Label + ": " + q.Prompt
	if q.Kind == catalog.KindText {
		return message(prompt)
	}
	return messageWithKeyboard(prompt,
		questionKeyboard(q, sess.ServiceIndex, sess.QuestionIndex, sess.Picked))
}

func (e *Engine) currentQuestion(sess *domain.Session) (catalog.Service, catalog.Question) {
	ordered := e.catalog.Ordered(sess.Selected)
	svc := ordered[sess.ServiceIndex]
	return svc, svc.Questions[sess.QuestionIndex]
}

func (e *Engine) handleSubQuestion(sess *domain.Session, ev Event) Result {
	svc, q := e.currentQuestion(sess)

	switch q.Kind {
	case catalog.KindText:
		answer := strings.TrimSpace(ev.Text)
		if ev.Kind != EventText || len([]rune(answer)) < minAnswerLen {
			return Result{Effects: []Effect{message(textAnswerTooShort)}}
		}
		sess.RecordSubAnswer(svc.Code, q.Key, answer)
		return e.advanceQuestion(sess)

	case catalog.KindSingle, catalog.KindMulti:
		act, ok := decodeAction(ev.Data)
		if ev.Kind != EventCallback || !ok || act.ns != nsQuestion || !e.cursorMatches(sess, act) {
			// Stale button or off-step input: show the question again.
			return Result{Effects: []Effect{e.promptCurrentQuestion(sess)}}
		}
		return e.handleQuestionAction(sess, svc, q, act)

	default:
		return e.advanceQuestion(sess)
	}
}

// cursorMatches rejects actions minted for a different cursor position.
func (e *Engine) cursorMatches(sess *domain.Session, act action) bool {
	si, err1 := strconv.Atoi(act.arg(0))
	qi, err2 := strconv.Atoi(act.arg(1))
	return err1 == nil && err2 == nil && si == sess.ServiceIndex && qi == sess.QuestionIndex
}

func (e *Engine) handleQuestionAction(sess *domain.Session, svc catalog.Service, q catalog.Question, act action) Result {
	switch {
	case q.Kind == catalog.KindSingle && act.verb == verbPick:
		opt, ok := q.OptionByValue(act.arg(2))
		if !ok {
			return Result{Effects: []Effect{e.promptCurrentQuestion(sess)}}
		}
		sess.RecordSubAnswer(svc.Code, q.Key, opt.Label)
		// Advisory rules match on values, keep those too.
		sess.RecordSubAnswer(svc.Code, q.Key+".value", opt.Value)
		return e.advanceQuestion(sess)

	case q.Kind == catalog.KindMulti && act.verb == verbToggle:
		value := act.arg(2)
		if _, ok := q.OptionByValue(value); !ok {
			return Result{}
		}
		if sess.Picked[value] {
			delete(sess.Picked, value)
		} else {
			sess.Picked[value] = true
		}
		return Result{Effects: []Effect{editKeyboard(
			questionKeyboard(q, sess.ServiceIndex, sess.QuestionIndex, sess.Picked),
		)}}

	case q.Kind == catalog.KindMulti && act.verb == verbDone:
		if len(sess.Picked) == 0 {
			return Result{Effects: []Effect{messageWithKeyboard(textMultiPickCount,
				questionKeyboard(q, sess.ServiceIndex, sess.QuestionIndex, sess.Picked))}}
		}
		// Join labels in option declaration order for a stable answer.
		var labels []string
		for _, opt := range q.Options {
			if sess.Picked[opt.Value] {
				labels = append(labels, opt.Label)
			}
		}
		sess.RecordSubAnswer(svc.Code, q.Key, strings.Join(labels, ", "))
		sess.Picked = make(map[string]bool)
		return e.advanceQuestion(sess)

	default:
		return Result{Effects: []Effect{e.promptCurrentQuestion(sess)}}
	}
}

// advanceQuestion moves the cursor one question forward, emitting service
// advisories at the service boundary, and falls through to the time step
// after the last selected service.
func (e *Engine) advanceQuestion(sess *domain.Session) Result {
	ordered := e.catalog.Ordered(sess.Selected)
	svc := ordered[sess.ServiceIndex]

	sess.QuestionIndex++
	if sess.QuestionIndex < len(svc.Questions) {
		return Result{Effects: []Effect{e.promptCurrentQuestion(sess)}}
	}

	// Service finished: collect its advisories, deduplicated per session.
	var effects []Effect
	for _, advice := range e.catalog.AdviceFor(svc.Code, e.advisoryAnswers(sess, svc.Code)) {
		if sess.ShownAdvice[advice] {
			continue
		}
		sess.ShownAdvice[advice] = true
		effects = append(effects, message("💡 "+advice))
	}

	sess.ServiceIndex++
	sess.QuestionIndex = 0
	next := e.enterSubQuestions(sess)
	next.Effects = append(effects, next.Effects...)
	return next
}

// advisoryAnswers exposes recorded answers keyed by question key with the
// raw option value, the shape advisory When clauses match on.
func (e *Engine) advisoryAnswers(sess *domain.Session, code string) map[string]string {
	answers := make(map[string]string)
	for key, val := range sess.SubAnswers[code] {
		if strings.HasSuffix(key, ".value") {
			answers[strings.TrimSuffix(key, ".value")] = val
		}
	}
	return answers
}

func (e *Engine) handleTime(sess *domain.Session, ev Event) Result {
	if ev.Kind != EventText {
		return Result{Effects: []Effect{message(textAskTime)}}
	}
	raw := strings.TrimSpace(ev.Text)
	at, ok := normalize.When(raw, e.clock.Now())
	if !ok {
		return Result{Effects: []Effect{message(textBadTime)}}
	}
	sess.WhenText = raw
	sess.WhenAt = &at
	sess.Step = domain.StepContact
	return Result{Effects: []Effect{messageWithKeyboard(textAskContact, contactKeyboard())}}
}

func (e *Engine) handleContact(sess *domain.Session, ev Event) Result {
	switch ev.Kind {
	case EventContact:
		phone, ok := normalize.Phone(ev.Phone)
		if !ok {
			// A platform contact card is trusted even when it does not
			// normalize (foreign formats); keep it raw.
			phone = strings.TrimSpace(ev.Phone)
		}
		sess.Phone = phone
		sess.Contact = domain.ContactCall
		return e.finalize(sess)

	case EventText:
		text := strings.TrimSpace(ev.Text)
		if isChatRequest(text) {
			sess.Phone = ""
			sess.Contact = domain.ContactTelegram
			return e.finalize(sess)
		}
		phone, ok := normalize.Phone(text)
		if !ok {
			return Result{Effects: []Effect{messageWithKeyboard(textBadPhone, contactKeyboard())}}
		}
		sess.Phone = phone
		sess.Contact = contactMethodFor(text, true)
		return e.finalize(sess)

	default:
		return Result{Effects: []Effect{messageWithKeyboard(textAskContact, contactKeyboard())}}
	}
}

// finalize assembles the lead from the session and resets the session for
// the next conversation. Scoring, persistence and operator delivery are the
// caller's concern.
func (e *Engine) finalize(sess *domain.Session) Result {
	lead := domain.NewLead(sess.UserID, sess.Username)
	lead.Name = sess.Name
	lead.Car = sess.Car
	lead.WhenText = sess.WhenText
	lead.WhenAt = sess.WhenAt
	lead.Contact = sess.Contact
	lead.Phone = sess.Phone

	for _, svc := range e.catalog.Ordered(sess.Selected) {
		ls := domain.LeadService{Code: svc.Code, Label: svc.Label}
		for _, q := range svc.Questions {
			if answer, ok := sess.SubAnswers[svc.Code][q.Key]; ok {
				ls.Answers = append(ls.Answers, domain.SubAnswer{
					Question: q.Prompt,
					Answer:   answer,
				})
			}
		}
		lead.Services = append(lead.Services, ls)
	}

	sess.Reset()

	return Result{
		Effects: []Effect{messageWithKeyboard(textSubmitted, removeKeyboard())},
		Lead:    lead,
	}
}

func (e *Engine) handleOperatorPassword(ctx context.Context, sess *domain.Session, ev Event) Result {
	if ev.Kind != EventText {
		return Result{Effects: []Effect{message(textOperatorAskPassword)}}
	}
	secret := strings.TrimSpace(ev.Text)

	err := e.registrar.Register(ctx, sess.UserID, sess.Username, sess.Name, secret)
	switch {
	case err == nil:
		sess.Reset()
		return Result{Effects: []Effect{message(textOperatorAdded)}}
	case errors.Is(err, ErrBadSecret):
		return Result{Effects: []Effect{message(textOperatorBadPassword)}}
	default:
		e.logger.Error("operator registration failed",
			zap.Int64("user_id", sess.UserID), zap.Error(err))
		sess.Reset()
		return Result{Effects: []Effect{message(textUnknown)}}
	}
}
