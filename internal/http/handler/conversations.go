package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"studio/internal/auth"
	"studio/internal/studio"

	"gorm.io/gorm"
)

type ConversationHandler struct {
	DB *gorm.DB
}

func (h *ConversationHandler) store(r *http.Request) studio.Store {
	uid, _ := auth.UserIDFromContext(r.Context())
	return studio.NewDBStore(h.DB, uid)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store(r).ListConversations(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

type createConversationReq struct {
	Title string `json:"title"`
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createConversationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	c, err := h.store(r).CreateConversation(r.Context(), strings.TrimSpace(req.Title))
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// Get returns the conversation together with its full message list.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	st := h.store(r)
	c, err := st.GetConversation(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	msgs, err := st.ListMessages(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": c,
		"messages":     msgs,
	})
}

type updateConversationReq struct {
	Title   *string `json:"title"`
	Summary *string `json:"summary"`
}

func (h *ConversationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateConversationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	c, err := h.store(r).UpdateConversation(r.Context(), id, studio.ConversationPatch{
		Title:   req.Title,
		Summary: req.Summary,
	})
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.store(r).DeleteConversation(r.Context(), id); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	msgs, err := h.store(r).ListMessages(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}
