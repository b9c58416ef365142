package lark

import (
	"bytes"
	"encoding/json"
)

// TextContent builds the JSON content payload for a text message.
// HTML escaping is disabled so mention markup survives verbatim.
func TextContent(text string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(map[string]string{"text": text})
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}

// AtUser renders the mention markup for a user inside a text message.
func AtUser(userID string) string {
	return `<at user_id="` + userID + `"></at>`
}
