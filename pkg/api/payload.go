package api

import (
	"encoding/json"

	"cardrelay/pkg/models"
)

// Platform event envelope. url_verification handshakes carry type and
// challenge at the top level; real events carry a header plus an
// event-type specific event body.
type envelope struct {
	Type      string          `json:"type"`
	Challenge string          `json:"challenge"`
	Header    eventHeader     `json:"header"`
	Event     json.RawMessage `json:"event"`
}

type eventHeader struct {
	EventType string `json:"event_type"`
	Token     string `json:"token"`
}

type userIDs struct {
	OpenID string `json:"open_id"`
	UserID string `json:"user_id"`
}

// im.message.receive_v1
type messageEvent struct {
	Sender struct {
		SenderID userIDs `json:"sender_id"`
	} `json:"sender"`
	Message struct {
		MessageID   string `json:"message_id"`
		ChatID      string `json:"chat_id"`
		ChatType    string `json:"chat_type"`
		MessageType string `json:"message_type"`
		Content     string `json:"content"`
	} `json:"message"`
}

// im.message.reaction.created_v1 / deleted_v1
type reactionEvent struct {
	MessageID    string  `json:"message_id"`
	UserID       userIDs `json:"user_id"`
	ReactionType struct {
		EmojiType string `json:"emoji_type"`
	} `json:"reaction_type"`
}

// im.chat.member.user.added_v1
type memberAddedEvent struct {
	ChatID string `json:"chat_id"`
	Users  []struct {
		Name   string  `json:"name"`
		UserID userIDs `json:"user_id"`
	} `json:"users"`
}

// Card button callback posted to /webhook/feedback.
type cardCallback struct {
	Type          string `json:"type"`
	Challenge     string `json:"challenge"`
	UserID        string `json:"user_id"`
	OpenMessageID string `json:"open_message_id"`
	Action        struct {
		Value models.ActionValue `json:"value"`
	} `json:"action"`
}
