package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"roboclub/clubhouse/internal/apperr"
	"roboclub/clubhouse/internal/auth"
	"roboclub/clubhouse/internal/chat"
	"roboclub/clubhouse/internal/common"
	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/logging"
	"roboclub/clubhouse/internal/models/dtos/requests"
	"roboclub/clubhouse/internal/models/dtos/responses"
	models "roboclub/clubhouse/internal/models/gorm"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const (
	conversationLimit = 200
	wsWriteWait       = 10 * time.Second
	wsPongWait        = 60 * time.Second
	wsPingPeriod      = wsPongWait * 9 / 10
)

// Thread picks the member whose conversation the caller is working on:
// their own for members, the {memberID} path param for admins.
type Thread func(r *http.Request) (memberID string, admin bool, ok bool)

func MemberThread(r *http.Request) (string, bool, bool) {
	claims, ok := callerClaims(r)
	if !ok {
		return "", false, false
	}
	return claims.UserID(), false, true
}

func AdminThread(r *http.Request) (string, bool, bool) {
	id := chi.URLParam(r, "memberID")
	return id, true, id != ""
}

// ConversationHandler handles GET .../chat with optional ?since= and ?limit=
func (h *Handlers) ConversationHandler(pick Thread) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		memberID, _, ok := pick(r)
		if !ok {
			common.RespondError(w, initTime, nil, constants.MsgNotAuthenticated, http.StatusUnauthorized)
			return
		}
		since, err := sinceParam(r)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedLoadChat)
			return
		}

		msgs, err := h.deps.Services.Chat.Conversation(r.Context(), memberID, since, limitParam(r, conversationLimit))
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedLoadChat)
			return
		}
		common.RespondSuccess(w, initTime, "Messages loaded", nonNilMessages(msgs))
	}
}

// SendMessageHandler handles POST .../chat
func (h *Handlers) SendMessageHandler(pick Thread) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims, ok := caller(w, r, initTime)
		if !ok {
			return
		}
		memberID, admin, ok := pick(r)
		if !ok {
			common.RespondAppError(w, initTime, apperr.New(apperr.KindValidation, "api.SendMessage", "recipient is required"), constants.MsgFailedSendMessage)
			return
		}

		var req requests.SendMessageRequest
		if err := decode(r, &req); err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSendMessage)
			return
		}

		msg, err := h.deps.Services.Chat.Send(r.Context(), claims.UserID(), admin, memberID, req.Content)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedSendMessage)
			return
		}
		common.RespondSuccess(w, initTime, "Message sent", msg, http.StatusCreated)
	}
}

// MarkReadHandler handles POST .../chat/read
func (h *Handlers) MarkReadHandler(pick Thread) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		memberID, admin, ok := pick(r)
		if !ok {
			common.RespondError(w, initTime, nil, constants.MsgNotAuthenticated, http.StatusUnauthorized)
			return
		}

		n, err := h.deps.Services.Chat.MarkRead(r.Context(), memberID, admin)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedLoadChat)
			return
		}
		common.RespondSuccess(w, initTime, "Messages marked read", responses.AffectedResponse{Affected: n})
	}
}

// InboxHandler handles GET /api/v1/admin/chat/inbox
func (h *Handlers) InboxHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		inbox, err := h.deps.Services.Chat.AdminInbox(r.Context())
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedLoadChat)
			return
		}
		common.RespondSuccess(w, initTime, "Inbox loaded", inbox)
	}
}

// PollHandler handles GET .../chat/poll?since=. It answers at once when
// newer messages exist, otherwise it holds the request until the poller
// finds some or the wait runs out, then answers with what it has.
func (h *Handlers) PollHandler(pick Thread) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		memberID, _, ok := pick(r)
		if !ok {
			common.RespondError(w, initTime, nil, constants.MsgNotAuthenticated, http.StatusUnauthorized)
			return
		}
		since, err := sinceParam(r)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedLoadChat)
			return
		}

		// The caller already holds the messages stamped exactly at since.
		msgs, err := h.deps.Services.Chat.ConversationFrom(r.Context(), memberID, since)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedLoadChat)
			return
		}
		fresh, cur := chat.CursorAt(since, msgs).Advance(msgs)
		if len(fresh) > 0 {
			common.RespondSuccess(w, initTime, "Messages loaded", fresh)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), h.pollWait)
		defer cancel()

		var batch []models.ChatMessage
		err = h.deps.Services.Chat.Poller(memberID).Run(ctx, cur, func(found []models.ChatMessage) {
			batch = found
			cancel()
		})
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			common.RespondAppError(w, initTime, err, constants.MsgFailedLoadChat)
			return
		}
		if r.Context().Err() != nil {
			return
		}
		common.RespondSuccess(w, initTime, "Messages loaded", nonNilMessages(batch))
	}
}

// StreamHandler handles GET .../chat/stream. Every message published on
// the member's channel, or on the admin channel for admins, is written to
// the socket as JSON. The socket is closed when the session signs out.
func (h *Handlers) StreamHandler(admin bool) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(h.deps.Config.AllowedOrigins),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		claims, ok := caller(w, r, initTime)
		if !ok {
			return
		}

		sub, err := h.deps.Services.Chat.Subscribe(r.Context(), claims.UserID(), admin)
		if err != nil {
			common.RespondAppError(w, initTime, err, constants.MsgFailedLoadChat)
			return
		}
		defer sub.Close()

		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logging.Warn("Failed to upgrade chat socket", "user_id", claims.UserID(), "error", err)
			return
		}
		defer ws.Close()

		if h.deps.Metrics != nil {
			h.deps.Metrics.ChatSubscribers.Inc()
			defer h.deps.Metrics.ChatSubscribers.Dec()
		}

		// A nil channel never fires for callers without a session context.
		var signedOut <-chan struct{}
		if sc := auth.GetSessionContext(r.Context()); sc != nil {
			signedOut = sc.SignedOut()
		}

		quit := make(chan struct{})
		go readUntilClose(ws, claims.UserID(), quit)

		ping := time.NewTicker(wsPingPeriod)
		defer ping.Stop()

		for {
			select {
			case <-quit:
				return
			case <-r.Context().Done():
				return
			case <-signedOut:
				_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, constants.MsgNotAuthenticated), time.Now().Add(wsWriteWait))
				return
			case payload, open := <-sub.Messages():
				if !open {
					_ = ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(wsWriteWait))
					return
				}
				_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
				if err := ws.WriteMessage(websocket.TextMessage, payload); err != nil {
					logging.Debug("Chat socket write failed", "user_id", claims.UserID(), "error", err)
					return
				}
			case <-ping.C:
				if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
					return
				}
			}
		}
	}
}

// readUntilClose drains client frames so pongs and close frames are
// processed. It closes quit when the client goes away.
func readUntilClose(ws *websocket.Conn, userID string, quit chan<- struct{}) {
	defer close(quit)

	_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) && (closeErr.Code == websocket.CloseNormalClosure || closeErr.Code == websocket.CloseGoingAway) {
				return
			}
			logging.Debug("Chat socket read ended", "user_id", userID, "error", err)
			return
		}
	}
}

// originChecker allows requests without an Origin header and origins on
// the CORS list. A trailing "*" matches any suffix.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
			if strings.HasSuffix(a, "*") && strings.HasPrefix(origin, strings.TrimSuffix(a, "*")) {
				return true
			}
		}
		return false
	}
}

func nonNilMessages(msgs []models.ChatMessage) []models.ChatMessage {
	if msgs == nil {
		return []models.ChatMessage{}
	}
	return msgs
}
