package models

import "encoding/json"

// CardState is the persisted record for one outbound interactive card,
// keyed by the platform-assigned message ID of the sent card. It is
// created when the card is first sent and read-modified-written on every
// subsequent button callback.
type CardState struct {
	MessageID string `json:"message_id"`
	SessionID string `json:"session_id"`
	// UpMessageID is the ID of the original upstream message this card
	// answers; feedback events for button clicks target it.
	UpMessageID  string `json:"up_message_id"`
	CardTemplate Card   `json:"card_template"`
	RefDoc       string `json:"ref_doc,omitempty"`
}

// Card is the structured body of an interactive message: an ordered
// sequence of elements, some static content and some actionable controls.
// Header and Config are carried opaquely so unknown card chrome survives
// a round trip through the store.
type Card struct {
	Config   json.RawMessage `json:"config,omitempty"`
	Header   json.RawMessage `json:"header,omitempty"`
	Elements []CardElement   `json:"elements"`
}

// CardElement is one entry in a card's element sequence. Tag selects the
// shape: "div"/"markdown" carry content, "hr" is a separator, "action"
// carries the clickable controls.
type CardElement struct {
	Tag     string       `json:"tag"`
	Content string       `json:"content,omitempty"`
	Text    *CardText    `json:"text,omitempty"`
	Actions []CardAction `json:"actions,omitempty"`
}

// CardText is a text node inside an element or button.
type CardText struct {
	Tag     string `json:"tag,omitempty"`
	Content string `json:"content"`
}

// CardAction is a clickable control. Value carries the small state that
// comes back on the button callback.
type CardAction struct {
	Tag   string      `json:"tag,omitempty"`
	Text  CardText    `json:"text"`
	Value ActionValue `json:"value"`
}

// ActionValue is the per-control state embedded in a button. Exactly one
// field is set on any given control.
type ActionValue struct {
	Thumbup   string `json:"thumbup,omitempty"`
	Thumbdown string `json:"thumbdown,omitempty"`
	Checkref  string `json:"checkref,omitempty"`
}

// Action states carried in ActionValue and in normalized Actions.
const (
	ActionClick  = "click"
	ActionCancel = "cancel"
)

// Action is the normalized user intent derived from a card callback.
// At most one field is set per event.
type Action struct {
	Thumbup   string `json:"thumbup,omitempty"`
	Thumbdown string `json:"thumbdown,omitempty"`
	Checkref  string `json:"checkref,omitempty"`
}

// Zero reports whether no action field is set.
func (a Action) Zero() bool {
	return a.Thumbup == "" && a.Thumbdown == "" && a.Checkref == ""
}

// Clone returns a deep copy of the card. The element slice, nested
// actions and raw chrome are all copied so mutating the clone never
// touches the receiver.
func (c Card) Clone() Card {
	out := Card{
		Config: append(json.RawMessage(nil), c.Config...),
		Header: append(json.RawMessage(nil), c.Header...),
	}
	if c.Elements != nil {
		out.Elements = make([]CardElement, len(c.Elements))
		for i, el := range c.Elements {
			out.Elements[i] = el.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the element.
func (e CardElement) Clone() CardElement {
	out := CardElement{Tag: e.Tag, Content: e.Content}
	if e.Text != nil {
		t := *e.Text
		out.Text = &t
	}
	if e.Actions != nil {
		out.Actions = make([]CardAction, len(e.Actions))
		copy(out.Actions, e.Actions)
	}
	return out
}
