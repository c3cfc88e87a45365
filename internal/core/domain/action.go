package domain

import (
	"fmt"
	"strings"
)

// Action is a parsed action descriptor of the form "verb@target",
// e.g. "lock@<device-uuid>" or "usercontrol@<user-id>". The verb set is
// open: menu-level verbs exist alongside task types, and the dispatch
// path revalidates the verb against TaskTypes.
type Action struct {
	Verb   string
	Target string
}

// ParseAction splits a raw action descriptor. Both verb and target must be
// non-empty; anything else is ErrBadAction.
func ParseAction(s string) (Action, error) {
	verb, target, ok := strings.Cut(s, "@")
	if !ok || verb == "" || target == "" {
		return Action{}, fmt.Errorf("parse action %q: %w", s, ErrBadAction)
	}
	return Action{Verb: verb, Target: target}, nil
}

// String renders the descriptor back to its wire form.
func (a Action) String() string {
	return a.Verb + "@" + a.Target
}
