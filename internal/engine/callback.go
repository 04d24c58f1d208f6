package engine

import "strings"

// Button action codes are colon-delimited tuples: namespace, verb, then
// verb-specific arguments. The encoding is an internal contract between the
// engine and its own keyboards; nothing else parses it.
const (
	nsFlow     = "flow"
	nsService  = "svc"
	nsQuestion = "q"

	verbStart  = "start"
	verbToggle = "toggle"
	verbPick   = "pick"
	verbDone   = "done"
)

// action is a decoded button press.
type action struct {
	ns   string
	verb string
	args []string
}

func (a action) arg(i int) string {
	if i >= len(a.args) {
		return ""
	}
	return a.args[i]
}

func encodeAction(ns, verb string, args ...string) string {
	parts := append([]string{ns, verb}, args...)
	return strings.Join(parts, ":")
}

func decodeAction(data string) (action, bool) {
	parts := strings.Split(data, ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return action{}, false
	}
	return action{ns: parts[0], verb: parts[1], args: parts[2:]}, true
}
