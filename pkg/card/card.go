// Package card implements the pure transition function that computes the
// next rendering of an interactive card from its current state and a
// normalized user action.
package card

import "cardrelay/pkg/models"

// Control labels. The thumb controls flip between the bare emoji and the
// "already voted" caption; the reference control flips between show and
// hide captions.
const (
	LabelThumbUp   = "👍"
	LabelThumbDown = "👎"
	LabelLiked     = "已赞😊"
	LabelDisliked  = "已踩😭"
	LabelShowRef   = "查看引用"
	LabelHideRef   = "隐藏引用"
)

// Fixed card geometry: the actions row sits at elements[1] with the up,
// down and reference controls at actions[0..2]. The reference block is
// spliced in as a separator at elements[2] followed by a markdown element
// at elements[3], directly after the actions row.
const (
	actionsRow = 1
	upControl  = 0
	downBtn    = 1
	refControl = 2
	refHrIdx   = 2
	refDocIdx  = 3
)

// Next returns the card rendering that follows from applying action to
// current. It never mutates current; callers may keep references to the
// pre-transition card. refDoc is the reference text spliced in on a
// checkref click.
//
// Exactly one transition fires per call, selected by the single active
// action field. A card whose element layout does not match the expected
// geometry is returned unchanged (as a copy).
func Next(current models.Card, refDoc string, action models.Action) models.Card {
	next := current.Clone()
	if len(next.Elements) <= actionsRow || len(next.Elements[actionsRow].Actions) <= refControl {
		return next
	}
	acts := next.Elements[actionsRow].Actions

	switch {
	case action.Thumbup == models.ActionClick:
		// liking resets any down-vote rendering; up and down are mutually
		// exclusive on screen
		acts[upControl].Text.Content = LabelLiked
		acts[upControl].Value.Thumbup = models.ActionCancel
		acts[downBtn].Text.Content = LabelThumbDown
		acts[downBtn].Value.Thumbdown = models.ActionClick
	case action.Thumbdown == models.ActionClick:
		acts[downBtn].Text.Content = LabelDisliked
		acts[downBtn].Value.Thumbdown = models.ActionCancel
		acts[upControl].Text.Content = LabelThumbUp
		acts[upControl].Value.Thumbup = models.ActionClick
	case action.Thumbup == models.ActionCancel:
		acts[upControl].Text.Content = LabelThumbUp
		acts[upControl].Value.Thumbup = models.ActionClick
	case action.Thumbdown == models.ActionCancel:
		acts[downBtn].Text.Content = LabelThumbDown
		acts[downBtn].Value.Thumbdown = models.ActionClick
	case action.Checkref == models.ActionClick:
		acts[refControl].Text.Content = LabelHideRef
		acts[refControl].Value.Checkref = models.ActionCancel
		next.Elements = insertAt(next.Elements, refHrIdx, models.CardElement{Tag: "hr"})
		next.Elements = insertAt(next.Elements, refDocIdx, models.CardElement{Tag: "markdown", Content: refDoc})
	case action.Checkref == models.ActionCancel:
		acts[refControl].Text.Content = LabelShowRef
		acts[refControl].Value.Checkref = models.ActionClick
		if len(next.Elements) > refDocIdx {
			next.Elements = removeAt(next.Elements, refDocIdx)
			next.Elements = removeAt(next.Elements, refHrIdx)
		}
	}
	return next
}

// insertAt splices el into s at index i, shifting the tail right.
func insertAt(s []models.CardElement, i int, el models.CardElement) []models.CardElement {
	s = append(s, models.CardElement{})
	copy(s[i+1:], s[i:])
	s[i] = el
	return s
}

// removeAt splices out the element at index i.
func removeAt(s []models.CardElement, i int) []models.CardElement {
	return append(s[:i], s[i+1:]...)
}
