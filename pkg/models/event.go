package models

// Feedback methods accepted by the forwarder.
const (
	FeedbackPost   = "post"
	FeedbackDelete = "delete"
)

// Feedback action labels for the thumb controls. Reaction events forward
// the raw emoji type instead.
const (
	FeedbackThumbsUp   = "thumbs-up"
	FeedbackThumbsDown = "thumbs-down"
)

// FeedbackBody is the payload body handed to the downstream feedback
// function. A post carries the full set; a delete carries only the
// message and session identifiers.
type FeedbackBody struct {
	MsgID     string `json:"msgid"`
	Username  string `json:"username,omitempty"`
	SessionID string `json:"session_id"`
	Action    string `json:"action,omitempty"`
	Feedback  string `json:"feedback,omitempty"`
}

// FeedbackEvent is the normalized record of user approval or disapproval
// forwarded downstream. Method is post (register) or delete (retract).
type FeedbackEvent struct {
	Method   string       `json:"method"`
	Resource string       `json:"resource"`
	Body     FeedbackBody `json:"body"`
}

// InboundMessage is a newly received chat message published to the
// async channel for downstream conversational handling.
type InboundMessage struct {
	MsgType    string `json:"msg_type"`
	Msg        string `json:"msg"`
	SessionID  string `json:"session_id"`
	OpenChatID string `json:"open_chat_id"`
	MessageID  string `json:"message_id"`
	OpenID     string `json:"open_id"`
	ChatType   string `json:"chat_type"`
}

// SessionID derives the deterministic session identifier for a chat
// message, so repeated messages from the same user in the same chat map
// to the same downstream session.
func SessionID(chatType, chatID, userID string) string {
	return "lark_chat_" + chatType + "_" + chatID + "_" + userID
}
