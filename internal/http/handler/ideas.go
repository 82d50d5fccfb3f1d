package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"studio/internal/auth"
	"studio/internal/studio"

	"gorm.io/gorm"
)

type IdeaHandler struct {
	DB *gorm.DB
}

func (h *IdeaHandler) store(r *http.Request) studio.Store {
	uid, _ := auth.UserIDFromContext(r.Context())
	return studio.NewDBStore(h.DB, uid)
}

func (h *IdeaHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := studio.IdeaFilter{
		Category:     strings.TrimSpace(q.Get("category")),
		FavoriteOnly: q.Get("favorite") == "true",
		Archived:     q.Get("archived") == "true",
	}

	rows, err := h.store(r).ListIdeas(r.Context(), filter)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *IdeaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	idea, err := h.store(r).GetIdea(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

type ideaReq struct {
	Title                *string            `json:"title"`
	Content              *string            `json:"content"`
	Category             *string            `json:"category"`
	Tags                 *studio.StringList `json:"tags"`
	ImagePath            *string            `json:"image_path"`
	SourceConversationID *uint64            `json:"source_conversation_id"`
	SourceMessageID      *uint64            `json:"source_message_id"`
	IsFavorite           *bool              `json:"is_favorite"`
	IsArchived           *bool              `json:"is_archived"`
}

func (h *IdeaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ideaReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	in := studio.IdeaInput{
		SourceConversationID: req.SourceConversationID,
		SourceMessageID:      req.SourceMessageID,
	}
	if req.Title != nil {
		in.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		in.Content = *req.Content
	}
	if req.Category != nil {
		in.Category = strings.TrimSpace(*req.Category)
	}
	if req.Tags != nil {
		in.Tags = *req.Tags
	}
	if req.ImagePath != nil {
		in.ImagePath = *req.ImagePath
	}

	idea, err := h.store(r).SaveIdea(r.Context(), in)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, idea)
}

func (h *IdeaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req ideaReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	idea, err := h.store(r).UpdateIdea(r.Context(), id, studio.IdeaPatch{
		Title:      req.Title,
		Content:    req.Content,
		Category:   req.Category,
		Tags:       req.Tags,
		ImagePath:  req.ImagePath,
		IsFavorite: req.IsFavorite,
		IsArchived: req.IsArchived,
	})
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

func (h *IdeaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.store(r).DeleteIdea(r.Context(), id); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *IdeaHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	idea, err := h.store(r).ToggleFavorite(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

func (h *IdeaHandler) ToggleArchive(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	idea, err := h.store(r).ToggleArchive(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, idea)
}

// Categories lists the distinct categories the user has ideas in, with counts.
func (h *IdeaHandler) Categories(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	type row struct {
		Category string `json:"category"`
		Count    int64  `json:"count"`
	}
	var out []row
	err := h.DB.WithContext(r.Context()).
		Model(&studio.Idea{}).
		Select("category, count(*) as count").
		Where("user_id = ? AND is_archived = ?", uid, false).
		Group("category").
		Order("count desc, category asc").
		Scan(&out).Error
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if out == nil {
		out = []row{}
	}
	writeJSON(w, http.StatusOK, out)
}
