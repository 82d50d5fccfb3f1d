package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"studio/internal/agent"
	"studio/internal/auth"
	"studio/internal/config"
	"studio/internal/studio"
	"studio/internal/studio/session"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GuestCookie identifies an ephemeral guest session. It is separate from the
// auth cookie; a logged-in request ignores it.
const GuestCookie = "studio_guest"

const apologyMessage = "I'm sorry, I'm having trouble reaching my creative brain right now. Please try again in a moment."

type ChatHandler struct {
	DB       *gorm.DB
	Sessions *session.Registry
	Cfg      config.Config
	Logger   *zap.Logger
}

type chatReq struct {
	Message        string                 `json:"message"`
	ConversationID *uint64                `json:"conversation_id"`
	Preferences    agent.GuestPreferences `json:"preferences"`
}

type chatResp struct {
	Response       string              `json:"response"`
	ToolCalls      studio.ToolCallList `json:"tool_calls"`
	ConversationID *uint64             `json:"conversation_id"`
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message required")
		return
	}

	var st studio.Store
	var userCtx string

	uid, authed := auth.UserIDFromContext(r.Context())
	if authed {
		var u auth.User
		if err := h.DB.WithContext(r.Context()).First(&u, uid).Error; err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		st = studio.NewDBStore(h.DB, uid)
		userCtx = agent.UserContext(&u)
	} else {
		var sid string
		if c, err := r.Cookie(GuestCookie); err == nil {
			sid = c.Value
		}
		newID, guest := h.Sessions.Acquire(sid)
		if newID != sid {
			http.SetCookie(w, &http.Cookie{
				Name:     GuestCookie,
				Value:    newID,
				Path:     "/",
				MaxAge:   int(h.Cfg.GuestSessionTTL.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		st = guest
		userCtx = agent.GuestContext(req.Preferences)
	}

	// History is loaded before the incoming message is appended so the
	// transcript does not carry it twice.
	var history []studio.Message
	if req.ConversationID != nil {
		msgs, err := st.ListMessages(r.Context(), *req.ConversationID)
		if err != nil {
			storeError(w, err)
			return
		}
		history = msgs
	}

	conv, _, err := st.AppendMessage(r.Context(), studio.AppendMessageInput{
		ConversationID: req.ConversationID,
		Role:           studio.RoleUser,
		Content:        req.Message,
	})
	if err != nil {
		storeError(w, err)
		return
	}
	convID := conv.ID

	a := &agent.Agent{
		APIKey:      h.Cfg.OpenRouterAPIKey,
		Model:       h.Cfg.OpenRouterModel,
		Endpoint:    h.Cfg.OpenRouterEndpoint,
		UserContext: userCtx,
		Tools: &agent.Toolset{
			Store:       st,
			Inspiration: &agent.InspirationClient{Logger: h.Logger},
		},
		Logger: h.Logger,
	}

	result, err := a.Chat(r.Context(), history, req.Message)
	if err != nil {
		var ce *agent.CollaboratorError
		if !errors.As(err, &ce) {
			h.Logger.Error("chat failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "server error")
			return
		}
		h.Logger.Warn("llm unavailable", zap.Error(ce.Err))
		result = &agent.Result{Response: apologyMessage}
	}

	if _, _, err := st.AppendMessage(r.Context(), studio.AppendMessageInput{
		ConversationID: &convID,
		Role:           studio.RoleAssistant,
		Content:        result.Response,
		ToolCalls:      result.ToolCalls,
	}); err != nil {
		h.Logger.Error("store assistant message", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	if result.ToolCalls == nil {
		result.ToolCalls = studio.ToolCallList{}
	}
	writeJSON(w, http.StatusOK, chatResp{
		Response:       result.Response,
		ToolCalls:      result.ToolCalls,
		ConversationID: &convID,
	})
}
