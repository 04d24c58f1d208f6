package domain

import "time"

// Step identifies the active questionnaire step of a session.
type Step string

const (
	// StepIdle means no questionnaire is running for the user.
	StepIdle Step = "idle"
	// StepName asks for the client's name.
	StepName Step = "ask_name"
	// StepCar asks for the car make/model.
	StepCar Step = "ask_car"
	// StepServices shows the multi-select service picker.
	StepServices Step = "pick_services"
	// StepSubQuestions walks the per-service follow-up questions.
	StepSubQuestions Step = "service_questions"
	// StepTime asks for the preferred appointment time.
	StepTime Step = "ask_time"
	// StepContact asks how to reach the client.
	StepContact Step = "ask_contact"
	// StepOperatorPassword awaits the operator shared secret.
	StepOperatorPassword Step = "operator_password"
)

// Session holds one user's in-progress questionnaire state.
// Exactly one step is active at a time; answers accumulate until the
// session is submitted, cancelled or restarted.
type Session struct {
	UserID   int64
	Username string
	Step     Step

	Name string
	Car  string

	// Selected is the toggled service set on the picker step.
	Selected map[string]bool
	// SubAnswers maps service code -> question key -> recorded answer label.
	SubAnswers map[string]map[string]string
	// Picked accumulates options of the multi-choice question in progress.
	Picked map[string]bool
	// ServiceIndex/QuestionIndex form the sub-question cursor over the
	// selected services in catalog order.
	ServiceIndex  int
	QuestionIndex int
	// ShownAdvice dedupes advisory messages within the session.
	ShownAdvice map[string]bool

	WhenText string
	WhenAt   *time.Time
	Phone    string
	Contact  ContactMethod

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession creates an empty idle session for a user.
func NewSession(userID int64, username string) *Session {
	now := time.Now().UTC()
	return &Session{
		UserID:      userID,
		Username:    username,
		Step:        StepIdle,
		Selected:    make(map[string]bool),
		SubAnswers:  make(map[string]map[string]string),
		Picked:      make(map[string]bool),
		ShownAdvice: make(map[string]bool),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Reset clears all collected answers and returns the session to idle.
// Identity and CreatedAt survive so the store key stays stable.
func (s *Session) Reset() {
	s.Step = StepIdle
	s.Name = ""
	s.Car = ""
	s.Selected = make(map[string]bool)
	s.SubAnswers = make(map[string]map[string]string)
	s.Picked = make(map[string]bool)
	s.ServiceIndex = 0
	s.QuestionIndex = 0
	s.ShownAdvice = make(map[string]bool)
	s.WhenText = ""
	s.WhenAt = nil
	s.Phone = ""
	s.Contact = ""
	s.UpdatedAt = time.Now().UTC()
}

// Touch records activity at now for TTL accounting.
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now
}

// IdleSince reports how long the session has been untouched.
func (s *Session) IdleSince(now time.Time) time.Duration {
	return now.Sub(s.UpdatedAt)
}

// ToggleService flips membership of a service code in the selected set.
func (s *Session) ToggleService(code string) {
	if s.Selected[code] {
		delete(s.Selected, code)
		return
	}
	s.Selected[code] = true
}

// RecordSubAnswer stores an answer for a service follow-up question.
func (s *Session) RecordSubAnswer(serviceCode, questionKey, answer string) {
	if s.SubAnswers[serviceCode] == nil {
		s.SubAnswers[serviceCode] = make(map[string]string)
	}
	s.SubAnswers[serviceCode][questionKey] = answer
}
