package lark

import (
	"encoding/json"
	"testing"
)

func TestTextContentKeepsMentionMarkup(t *testing.T) {
	got := TextContent(AtUser("u_1") + " hello")
	if got != `{"text":"<at user_id=\"u_1\"></at> hello"}` {
		t.Fatalf("content = %s", got)
	}
	var out struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(got), &out); err != nil {
		t.Fatalf("content is not valid JSON: %v", err)
	}
	if out.Text != `<at user_id="u_1"></at> hello` {
		t.Fatalf("decoded text = %q", out.Text)
	}
}
