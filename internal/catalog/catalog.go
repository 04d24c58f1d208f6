// Package catalog defines the static table of sellable detailing services,
// their follow-up questions and advisory texts. The engine is generic over
// any catalog; per-service behavior is data here, not code.
package catalog

// Kind is the answer mode of a follow-up question.
type Kind string

const (
	// KindSingle advances immediately on one selected option.
	KindSingle Kind = "single"
	// KindMulti toggles options and requires at least one before "done".
	KindMulti Kind = "multi"
	// KindText accepts a free-text answer.
	KindText Kind = "text"
)

// Option is one selectable answer of a choice question.
type Option struct {
	Label string
	Value string
}

// Question is a follow-up question declared by a service.
type Question struct {
	Key     string
	Kind    Kind
	Prompt  string
	Options []Option // empty for KindText
}

// OptionByValue finds an option by its callback value.
func (q Question) OptionByValue(value string) (Option, bool) {
	for _, o := range q.Options {
		if o.Value == value {
			return o, true
		}
	}
	return Option{}, false
}

// Advisory is a canned upsell/advice text emitted after a service's
// questions when every When condition matches the recorded answers.
type Advisory struct {
	// When maps question key to the required answer value.
	// An empty map matches unconditionally.
	When map[string]string
	Text string
}

// Service is one catalog entry.
type Service struct {
	Code       string
	Label      string
	Questions  []Question
	Advisories []Advisory
}

// HasQuestions reports whether the service declares follow-up questions.
func (s Service) HasQuestions() bool {
	return len(s.Questions) > 0
}

// Catalog holds services in declaration order.
type Catalog struct {
	services []Service
	byCode   map[string]int
}

// New builds a catalog from the given services. Declaration order is
// preserved and drives the sub-question flow.
func New(services []Service) *Catalog {
	c := &Catalog{
		services: services,
		byCode:   make(map[string]int, len(services)),
	}
	for i, s := range services {
		c.byCode[s.Code] = i
	}
	return c
}

// Services returns all catalog entries in declaration order.
func (c *Catalog) Services() []Service {
	return c.services
}

// Get looks up a service by code.
func (c *Catalog) Get(code string) (Service, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return Service{}, false
	}
	return c.services[i], true
}

// Ordered returns the selected services in catalog declaration order,
// regardless of the order codes were toggled. Unknown codes are ignored.
func (c *Catalog) Ordered(selected map[string]bool) []Service {
	out := make([]Service, 0, len(selected))
	for _, s := range c.services {
		if selected[s.Code] {
			out = append(out, s)
		}
	}
	return out
}

// AdviceFor evaluates a service's advisory rules against recorded answers
// and returns the matching texts in declaration order.
func (c *Catalog) AdviceFor(code string, answers map[string]string) []string {
	svc, ok := c.Get(code)
	if !ok {
		return nil
	}
	var out []string
	for _, adv := range svc.Advisories {
		matched := true
		for key, want := range adv.When {
			if answers[key] != want {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, adv.Text)
		}
	}
	return out
}

// Service codes of the default detailing catalog. The polish + protect
// pair is the high-value combination the scorer rewards.
const (
	CodePolish     = "polish"
	CodeProtect    = "protect"
	CodeInterior   = "interior"
	CodeTint       = "tint"
	CodeHeadlights = "headlights"
	CodeGlass      = "glass"
	CodeWaterspots = "waterspots"
)

// Default returns the RKS Studio service catalog.
func Default() *Catalog {
	return New([]Service{
		{
			Code:  CodePolish,
			Label: "Полировка кузова",
			Questions: []Question{
				{
					Key:    "depth",
					Kind:   KindSingle,
					Prompt: "Какая полировка нужна?",
					Options: []Option{
						{Label: "Лёгкая (вернуть блеск)", Value: "light"},
						{Label: "Глубокая (царапины, паутинка)", Value: "deep"},
					},
				},
			},
			Advisories: []Advisory{
				{
					When: map[string]string{"depth": "deep"},
					Text: "После глубокой полировки советуем закрепить результат защитным покрытием — так блеск держится в разы дольше 👍",
				},
			},
		},
		{
			Code:  CodeProtect,
			Label: "Защитное покрытие",
			Questions: []Question{
				{
					Key:    "coating",
					Kind:   KindSingle,
					Prompt: "Какое покрытие рассматриваешь?",
					Options: []Option{
						{Label: "Керамика", Value: "ceramic"},
						{Label: "Жидкое стекло", Value: "liquid_glass"},
						{Label: "Воск", Value: "wax"},
						{Label: "Посоветуйте", Value: "advise"},
					},
				},
			},
		},
		{
			Code:  CodeInterior,
			Label: "Химчистка салона",
			Questions: []Question{
				{
					Key:    "zones",
					Kind:   KindMulti,
					Prompt: "Что чистим? (можно несколько)",
					Options: []Option{
						{Label: "Сиденья", Value: "seats"},
						{Label: "Потолок", Value: "ceiling"},
						{Label: "Багажник", Value: "trunk"},
						{Label: "Кожа (уход)", Value: "leather"},
						{Label: "Весь салон", Value: "full"},
					},
				},
			},
			Advisories: []Advisory{
				{
					When: map[string]string{},
					Text: "Кстати, после химчистки хорошо работает озонирование — убирает запахи полностью.",
				},
			},
		},
		{
			Code:  CodeTint,
			Label: "Тонировка по ГОСТ",
		},
		{
			Code:  CodeHeadlights,
			Label: "Восстановление фар",
		},
		{
			Code:  CodeGlass,
			Label: "Полировка стёкол",
			Questions: []Question{
				{
					Key:    "which",
					Kind:   KindText,
					Prompt: "Какие стёкла беспокоят? (лобовое, боковые...)",
				},
			},
		},
		{
			Code:  CodeWaterspots,
			Label: "Водный камень + антидождь",
		},
	})
}
