package routing

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/OrcaBus/service-bclconvert-manager/internal/errs"
)

// Event is an EventBridge event envelope.
type Event struct {
	ID         string         `json:"id,omitempty"`
	Source     string         `json:"source"`
	DetailType string         `json:"detail-type"`
	Time       string         `json:"time,omitempty"`
	Detail     map[string]any `json:"detail"`
}

// ParseEvent decodes an event envelope.
func ParseEvent(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, errs.Wrap(errs.KindRouting, errs.CodeMalformedEvent, "", err)
	}
	if e.Source == "" || e.DetailType == "" {
		return Event{}, errs.Routing(errs.CodeMalformedEvent, "event needs source and detail-type")
	}
	if e.Detail == nil {
		e.Detail = map[string]any{}
	}
	return e, nil
}

// Field returns the value at a dotted path inside the detail.
func (e Event) Field(path string) (any, bool) {
	var cur any = e.Detail
	for _, k := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// memberOf reports whether v, or any element of v when v is a list, equals
// one of the literals.
func memberOf(v any, literals []string) bool {
	if list, ok := v.([]any); ok {
		for _, item := range list {
			if memberOf(item, literals) {
				return true
			}
		}
		return false
	}

	var s string
	switch t := v.(type) {
	case string:
		s = t
	case bool, float64:
		s = fmt.Sprint(t)
	default:
		return false
	}
	for _, lit := range literals {
		if s == lit {
			return true
		}
	}
	return false
}
