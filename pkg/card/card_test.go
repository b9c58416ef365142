package card

import (
	"encoding/json"
	"testing"

	"cardrelay/pkg/models"
)

// baseCard builds a card in its initial rendering: an answer div at
// elements[0] and the three controls on the actions row.
func baseCard() models.Card {
	return models.Card{
		Elements: []models.CardElement{
			{Tag: "div", Text: &models.CardText{Tag: "plain_text", Content: "answer body"}},
			{Tag: "action", Actions: []models.CardAction{
				{Tag: "button", Text: models.CardText{Content: LabelThumbUp}, Value: models.ActionValue{Thumbup: models.ActionClick}},
				{Tag: "button", Text: models.CardText{Content: LabelThumbDown}, Value: models.ActionValue{Thumbdown: models.ActionClick}},
				{Tag: "button", Text: models.CardText{Content: LabelShowRef}, Value: models.ActionValue{Checkref: models.ActionClick}},
			}},
		},
	}
}

func actions(c models.Card) []models.CardAction {
	return c.Elements[1].Actions
}

func TestNextDoesNotMutateInput(t *testing.T) {
	in := baseCard()
	before, _ := json.Marshal(in)

	_ = Next(in, "ref", models.Action{Thumbup: models.ActionClick})
	_ = Next(in, "ref", models.Action{Checkref: models.ActionClick})

	after, _ := json.Marshal(in)
	if string(before) != string(after) {
		t.Fatalf("input card mutated:\nbefore %s\nafter  %s", before, after)
	}
}

func TestThumbUpClick(t *testing.T) {
	got := Next(baseCard(), "", models.Action{Thumbup: models.ActionClick})
	acts := actions(got)
	if acts[0].Text.Content != LabelLiked {
		t.Fatalf("up label = %q, want %q", acts[0].Text.Content, LabelLiked)
	}
	if acts[0].Value.Thumbup != models.ActionCancel {
		t.Fatalf("up value = %q, want cancel", acts[0].Value.Thumbup)
	}
	// the down control must be back in its initial rendering
	if acts[1].Text.Content != LabelThumbDown || acts[1].Value.Thumbdown != models.ActionClick {
		t.Fatalf("down control not reset: %+v", acts[1])
	}
}

func TestThumbDownClickResetsUp(t *testing.T) {
	liked := Next(baseCard(), "", models.Action{Thumbup: models.ActionClick})
	got := Next(liked, "", models.Action{Thumbdown: models.ActionClick})
	acts := actions(got)
	if acts[1].Text.Content != LabelDisliked || acts[1].Value.Thumbdown != models.ActionCancel {
		t.Fatalf("down control wrong after dislike: %+v", acts[1])
	}
	if acts[0].Text.Content != LabelThumbUp || acts[0].Value.Thumbup != models.ActionClick {
		t.Fatalf("up control not reset after dislike: %+v", acts[0])
	}
}

func TestThumbCancelRestoresInitial(t *testing.T) {
	liked := Next(baseCard(), "", models.Action{Thumbup: models.ActionClick})
	got := Next(liked, "", models.Action{Thumbup: models.ActionCancel})
	acts := actions(got)
	if acts[0].Text.Content != LabelThumbUp || acts[0].Value.Thumbup != models.ActionClick {
		t.Fatalf("up control not restored: %+v", acts[0])
	}

	disliked := Next(baseCard(), "", models.Action{Thumbdown: models.ActionClick})
	got = Next(disliked, "", models.Action{Thumbdown: models.ActionCancel})
	acts = actions(got)
	if acts[1].Text.Content != LabelThumbDown || acts[1].Value.Thumbdown != models.ActionClick {
		t.Fatalf("down control not restored: %+v", acts[1])
	}
}

func TestCheckrefClickSplicesReference(t *testing.T) {
	got := Next(baseCard(), "see [doc]", models.Action{Checkref: models.ActionClick})
	if len(got.Elements) != 4 {
		t.Fatalf("elements = %d, want 4", len(got.Elements))
	}
	if got.Elements[2].Tag != "hr" {
		t.Fatalf("elements[2].tag = %q, want hr", got.Elements[2].Tag)
	}
	if got.Elements[3].Tag != "markdown" || got.Elements[3].Content != "see [doc]" {
		t.Fatalf("elements[3] = %+v, want markdown with ref text", got.Elements[3])
	}
	acts := actions(got)
	if acts[2].Text.Content != LabelHideRef || acts[2].Value.Checkref != models.ActionCancel {
		t.Fatalf("ref control wrong after show: %+v", acts[2])
	}
}

func TestCheckrefRoundTrip(t *testing.T) {
	in := baseCard()
	shown := Next(in, "ref text", models.Action{Checkref: models.ActionClick})
	hidden := Next(shown, "ref text", models.Action{Checkref: models.ActionCancel})

	want, _ := json.Marshal(in)
	got, _ := json.Marshal(hidden)
	if string(want) != string(got) {
		t.Fatalf("show/hide round trip changed the card:\nwant %s\ngot  %s", want, got)
	}
}

func TestVoteWhileReferenceShown(t *testing.T) {
	shown := Next(baseCard(), "ref", models.Action{Checkref: models.ActionClick})
	got := Next(shown, "ref", models.Action{Thumbup: models.ActionClick})
	// reference block stays in place; only the vote controls change
	if len(got.Elements) != 4 || got.Elements[2].Tag != "hr" {
		t.Fatalf("reference block disturbed by vote: %+v", got.Elements)
	}
	if actions(got)[0].Text.Content != LabelLiked {
		t.Fatalf("up label = %q, want %q", actions(got)[0].Text.Content, LabelLiked)
	}
}

func TestMalformedGeometryReturnedUnchanged(t *testing.T) {
	in := models.Card{Elements: []models.CardElement{{Tag: "div", Content: "only"}}}
	got := Next(in, "ref", models.Action{Thumbup: models.ActionClick})
	want, _ := json.Marshal(in)
	b, _ := json.Marshal(got)
	if string(want) != string(b) {
		t.Fatalf("malformed card changed: %s", b)
	}
}

func TestZeroActionIsNoOp(t *testing.T) {
	in := baseCard()
	got := Next(in, "ref", models.Action{})
	want, _ := json.Marshal(in)
	b, _ := json.Marshal(got)
	if string(want) != string(b) {
		t.Fatalf("zero action changed the card: %s", b)
	}
}
