package engine

import "github.com/rksstudio/detailbot/internal/domain"

// EventKind discriminates inbound user interactions.
type EventKind string

const (
	// EventText is a free-text message addressed to the active step.
	EventText EventKind = "text"
	// EventCallback is a button press carrying an action code.
	EventCallback EventKind = "callback"
	// EventContact is a platform-native contact card share.
	EventContact EventKind = "contact"
	// EventCommand is a slash command without the leading slash.
	EventCommand EventKind = "command"
)

// Event is one inbound user interaction, already detached from the transport.
type Event struct {
	Kind  EventKind
	Text  string // free text or command name
	Data  string // callback action code
	Phone string // phone number from a contact card
}

// Text creates a free-text event.
func Text(s string) Event { return Event{Kind: EventText, Text: s} }

// Callback creates a button-press event.
func Callback(data string) Event { return Event{Kind: EventCallback, Data: data} }

// Contact creates a contact-card event.
func Contact(phone string) Event { return Event{Kind: EventContact, Phone: phone} }

// Command creates a command event ("start", "cancel", ...).
func Command(name string) Event { return Event{Kind: EventCommand, Text: name} }

// Button is one rendered keyboard button.
type Button struct {
	Label string
	Data  string // callback action code; must round-trip through decode
}

// Keyboard describes the reply surface of an effect without committing to a
// transport representation.
type Keyboard struct {
	// Inline rows of callback buttons.
	Rows [][]Button
	// RequestContact asks the platform to render a share-contact button.
	RequestContact bool
	// ContactLabel is the share-contact button caption.
	ContactLabel string
	// Remove clears any previously shown reply keyboard.
	Remove bool
}

// Effect is a transport-agnostic outbound instruction.
type Effect struct {
	Text     string
	Keyboard *Keyboard
	// EditKeyboard re-renders the keyboard of the message the button was
	// pressed on instead of sending a new message.
	EditKeyboard bool
}

// Result is the outcome of handling one event.
type Result struct {
	Effects []Effect
	// Lead is set when the questionnaire completed on this event. The
	// caller scores, persists and dispatches it.
	Lead *domain.Lead
}

func message(text string) Effect {
	return Effect{Text: text}
}

func messageWithKeyboard(text string, kb Keyboard) Effect {
	return Effect{Text: text, Keyboard: &kb}
}

func editKeyboard(kb Keyboard) Effect {
	return Effect{Keyboard: &kb, EditKeyboard: true}
}
