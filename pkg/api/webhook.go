package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"cardrelay/pkg/card"
	"cardrelay/pkg/feedback"
	"cardrelay/pkg/ingest"
	"cardrelay/pkg/lark"
	"cardrelay/pkg/logger"
	"cardrelay/pkg/models"
	"cardrelay/pkg/store"
	"cardrelay/pkg/telemetry"
	"cardrelay/pkg/utils"

	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	eventMessageReceive  = "im.message.receive_v1"
	eventReactionCreated = "im.message.reaction.created_v1"
	eventReactionDeleted = "im.message.reaction.deleted_v1"
	eventMemberAdded     = "im.chat.member.user.added_v1"

	dedupCacheSize = 2048
	dedupTTL       = 10 * time.Minute
)

// Dispatcher terminates the platform webhook: it verifies callbacks,
// classifies events and routes each to the matching component.
type Dispatcher struct {
	token     string
	welcome   string
	forwarder *feedback.Forwarder
	fanout    *ingest.Fanout
	messenger lark.Messenger
	seen      *lru.Cache[string, time.Time]
}

// NewDispatcher builds a Dispatcher. token is the verification token
// expected in event headers; welcome is the group-join greeting.
func NewDispatcher(token, welcome string, fw *feedback.Forwarder, fo *ingest.Fanout, m lark.Messenger) *Dispatcher {
	seen, _ := lru.New[string, time.Time](dedupCacheSize)
	return &Dispatcher{
		token:     token,
		welcome:   welcome,
		forwarder: fw,
		fanout:    fo,
		messenger: m,
		seen:      seen,
	}
}

// Register mounts the webhook endpoints on the router.
func (d *Dispatcher) Register(r *mux.Router) {
	r.HandleFunc("/webhook/event", d.handleEvent).Methods(http.MethodPost)
	r.HandleFunc("/webhook/feedback", d.handleFeedback).Methods(http.MethodPost)
}

// handleEvent processes the generic event callback.
func (d *Dispatcher) handleEvent(w http.ResponseWriter, r *http.Request) {
	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	// Echo the verification handshake before any token check so the
	// endpoint can be registered with the platform.
	if env.Type == "url_verification" {
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"challenge": env.Challenge})
		return
	}

	if env.Header.Token != d.token {
		logger.Warn("webhook_token_mismatch", "event_type", env.Header.EventType, "remote", r.RemoteAddr)
		utils.JSONError(w, http.StatusBadRequest, "invalid token")
		return
	}

	telemetry.EventsReceived.WithLabelValues(env.Header.EventType).Inc()

	switch env.Header.EventType {
	case eventMessageReceive:
		d.onMessageReceive(env.Event)
	case eventReactionCreated:
		d.onReaction(env.Event, models.FeedbackPost)
	case eventReactionDeleted:
		d.onReaction(env.Event, models.FeedbackDelete)
	case eventMemberAdded:
		d.onMemberAdded(env.Event)
	default:
		logger.Debug("webhook_event_ignored", "event_type", env.Header.EventType)
	}

	// Downstream failures are handled inside the branches; the platform
	// always gets an ack so it stops retrying.
	w.WriteHeader(http.StatusOK)
}

func (d *Dispatcher) onMessageReceive(raw json.RawMessage) {
	var ev messageEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		logger.Warn("message_event_malformed", "error", err.Error())
		return
	}

	// The platform redelivers events it considers unacknowledged; drop
	// message IDs seen within the dedup window.
	if id := ev.Message.MessageID; id != "" {
		now := time.Now()
		if ts, ok := d.seen.Get(id); ok && now.Sub(ts) <= dedupTTL {
			logger.Debug("message_duplicate_dropped", "message_id", id)
			return
		}
		d.seen.Add(id, now)
	}

	in := models.InboundMessage{
		MsgType:    ev.Message.MessageType,
		Msg:        ev.Message.Content,
		SessionID:  models.SessionID(ev.Message.ChatType, ev.Message.ChatID, ev.Sender.SenderID.UserID),
		OpenChatID: ev.Message.ChatID,
		MessageID:  ev.Message.MessageID,
		OpenID:     ev.Sender.SenderID.OpenID,
		ChatType:   ev.Message.ChatType,
	}
	payload, err := json.Marshal(in)
	if err != nil {
		logger.Error("inbound_marshal_failed", "message_id", in.MessageID, "error", err.Error())
		return
	}
	d.fanout.Submit(&ingest.Msg{
		SessionID: in.SessionID,
		MessageID: in.MessageID,
		ChatID:    in.OpenChatID,
		UserID:    ev.Sender.SenderID.UserID,
		Payload:   payload,
	})
	logger.Info("message_submitted", "session", in.SessionID, "message_id", in.MessageID)
}

func (d *Dispatcher) onReaction(raw json.RawMessage, method string) {
	var ev reactionEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		logger.Warn("reaction_event_malformed", "error", err.Error())
		return
	}
	st, ok := store.GetCardState(ev.MessageID)
	if !ok {
		logger.Warn("reaction_state_missing", "message_id", ev.MessageID)
		return
	}
	d.forwarder.Forward(method, st.SessionID, ev.MessageID, ev.ReactionType.EmojiType, ev.UserID.UserID)
}

func (d *Dispatcher) onMemberAdded(raw json.RawMessage) {
	var ev memberAddedEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		logger.Warn("member_event_malformed", "error", err.Error())
		return
	}
	for _, u := range ev.Users {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		text := lark.AtUser(u.UserID.UserID) + " " + d.welcome
		if err := d.messenger.SendText(ctx, ev.ChatID, lark.TextContent(text)); err != nil {
			logger.Warn("welcome_send_failed", "chat_id", ev.ChatID, "user_id", u.UserID.UserID, "error", err.Error())
		}
		cancel()
	}
}

// handleFeedback processes card button callbacks: it forwards the
// feedback intent downstream, recomputes the card rendering and
// persists the new state.
func (d *Dispatcher) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var cb cardCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	if cb.Type == "url_verification" {
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"challenge": cb.Challenge})
		return
	}

	st, ok := store.GetCardState(cb.OpenMessageID)
	if !ok {
		logger.Warn("card_state_missing", "message_id", cb.OpenMessageID)
		utils.JSONError(w, http.StatusNotFound, "unknown message")
		return
	}

	action := models.Action{
		Thumbup:   cb.Action.Value.Thumbup,
		Thumbdown: cb.Action.Value.Thumbdown,
		Checkref:  cb.Action.Value.Checkref,
	}

	switch {
	case action.Thumbup == models.ActionClick || action.Thumbdown == models.ActionClick:
		fb := models.FeedbackThumbsUp
		if action.Thumbdown == models.ActionClick {
			fb = models.FeedbackThumbsDown
		}
		d.forwarder.Forward(models.FeedbackPost, st.SessionID, st.UpMessageID, fb, cb.UserID)
	case action.Thumbup == models.ActionCancel || action.Thumbdown == models.ActionCancel:
		fb := models.FeedbackThumbsUp
		if action.Thumbdown == models.ActionCancel {
			fb = models.FeedbackThumbsDown
		}
		d.forwarder.Forward(models.FeedbackDelete, st.SessionID, st.UpMessageID, fb, cb.UserID)
	}

	updated := card.Next(st.CardTemplate, st.RefDoc, action)
	st.CardTemplate = updated
	if err := store.SaveCardState(cb.OpenMessageID, st); err != nil {
		logger.Error("card_state_save_failed", "message_id", cb.OpenMessageID, "error", err.Error())
	} else {
		telemetry.CardUpdates.Inc()
	}

	_ = utils.JSONWrite(w, http.StatusOK, updated)
}
