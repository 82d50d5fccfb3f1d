package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"studio/internal/auth"
	"studio/internal/studio"
	"studio/internal/upload"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type PortfolioHandler struct {
	DB      *gorm.DB
	Uploads *upload.Store
	Logger  *zap.Logger
}

func (h *PortfolioHandler) store(r *http.Request) studio.Store {
	uid, _ := auth.UserIDFromContext(r.Context())
	return studio.NewDBStore(h.DB, uid)
}

func (h *PortfolioHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := studio.ArtworkFilter{}
	hasFilter := false

	if v := strings.TrimSpace(q.Get("medium")); v != "" {
		filter.Medium = &v
		hasFilter = true
	}
	if v := strings.TrimSpace(q.Get("difficulty")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid difficulty")
			return
		}
		filter.Difficulty = &n
		hasFilter = true
	}
	if v := strings.TrimSpace(q.Get("project_id")); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid project_id")
			return
		}
		filter.ProjectID = &n
		hasFilter = true
	}

	var rows []studio.Artwork
	var err error
	if hasFilter {
		rows, err = h.store(r).SearchArtworks(r.Context(), filter)
	} else {
		rows, err = h.store(r).ListArtworks(r.Context())
	}
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	a, err := h.store(r).GetArtwork(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type artworkReq struct {
	Title           *string `json:"title"`
	ImagePath       *string `json:"image_path"`
	Medium          *string `json:"medium"`
	Difficulty      *int    `json:"difficulty"`
	DateCreated     *string `json:"date_created"`
	Notes           *string `json:"notes"`
	ProjectID       *uint64 `json:"project_id"`
	IsCopyrighted   *bool   `json:"is_copyrighted"`
	CopyrightNotice *string `json:"copyright_notice"`
	AllowDownload   *bool   `json:"allow_download"`
	AllowSharing    *bool   `json:"allow_sharing"`
}

// Create accepts either a multipart upload (field "image" plus form fields)
// or a JSON body carrying an image_path recorded by an earlier upload.
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		h.createFromUpload(w, r)
		return
	}

	var req artworkReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	in := studio.ArtworkInput{IsCopyrighted: true}
	applyArtworkReq(&in, req)

	a, err := h.store(r).AddArtwork(r.Context(), in)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func applyArtworkReq(in *studio.ArtworkInput, req artworkReq) {
	if req.Title != nil {
		in.Title = strings.TrimSpace(*req.Title)
	}
	if req.ImagePath != nil {
		in.ImagePath = strings.TrimSpace(*req.ImagePath)
	}
	if req.Medium != nil {
		in.Medium = strings.TrimSpace(*req.Medium)
	}
	in.Difficulty = req.Difficulty
	if req.DateCreated != nil {
		in.DateCreated = *req.DateCreated
	}
	if req.Notes != nil {
		in.Notes = *req.Notes
	}
	in.ProjectID = req.ProjectID
	if req.IsCopyrighted != nil {
		in.IsCopyrighted = *req.IsCopyrighted
	}
	if req.CopyrightNotice != nil {
		in.CopyrightNotice = *req.CopyrightNotice
	}
	if req.AllowDownload != nil {
		in.AllowDownload = *req.AllowDownload
	}
	if req.AllowSharing != nil {
		in.AllowSharing = *req.AllowSharing
	}
}

func (h *PortfolioHandler) createFromUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.Uploads.MaxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad multipart form")
		return
	}

	_, fh, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "image file required")
		return
	}

	rel, err := h.Uploads.Save("artworks", fh)
	if err != nil {
		if errors.Is(err, upload.ErrBadType) {
			writeError(w, http.StatusBadRequest, "unsupported file type")
			return
		}
		h.Logger.Error("save upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	form := r.MultipartForm.Value
	field := func(name string) string {
		if vs := form[name]; len(vs) > 0 {
			return strings.TrimSpace(vs[0])
		}
		return ""
	}

	in := studio.ArtworkInput{
		Title:            field("title"),
		ImagePath:        rel,
		OriginalFilename: fh.Filename,
		FileType:         strings.TrimPrefix(strings.ToLower(filepath.Ext(fh.Filename)), "."),
		Medium:           field("medium"),
		DateCreated:      field("date_created"),
		Notes:            field("notes"),
		IsCopyrighted:    field("is_copyrighted") != "false",
		CopyrightNotice:  field("copyright_notice"),
		AllowDownload:    field("allow_download") == "true",
		AllowSharing:     field("allow_sharing") == "true",
	}
	if v := field("difficulty"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			in.Difficulty = &n
		}
	}
	if v := field("project_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			in.ProjectID = &n
		}
	}

	a, err := h.store(r).AddArtwork(r.Context(), in)
	if err != nil {
		// keep the upload dir consistent with the store
		_ = h.Uploads.Remove(rel)
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *PortfolioHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req artworkReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	a, err := h.store(r).UpdateArtwork(r.Context(), id, studio.ArtworkPatch{
		Title:           req.Title,
		Medium:          req.Medium,
		Difficulty:      req.Difficulty,
		Notes:           req.Notes,
		ProjectID:       req.ProjectID,
		IsCopyrighted:   req.IsCopyrighted,
		CopyrightNotice: req.CopyrightNotice,
		AllowDownload:   req.AllowDownload,
		AllowSharing:    req.AllowSharing,
	})
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Delete removes the record first, then its stored file.
func (h *PortfolioHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	a, err := h.store(r).DeleteArtwork(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	if err := h.Uploads.Remove(a.ImagePath); err != nil {
		h.Logger.Warn("remove upload", zap.String("path", a.ImagePath), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

// ServeUpload streams a stored artwork image. The owner always gets it;
// anyone else only when the artwork allows sharing. Copyrighted pieces are
// served with a notice header and, unless download is allowed, an inline
// disposition.
func (h *PortfolioHandler) ServeUpload(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if rel == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	var a studio.Artwork
	err := h.DB.WithContext(r.Context()).Where("image_path = ?", rel).First(&a).Error
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	uid, ok := auth.UserIDFromContext(r.Context())
	owner := ok && uid == a.UserID
	if !owner && !a.AllowSharing {
		writeError(w, http.StatusForbidden, "sharing disabled for this artwork")
		return
	}

	f, err := h.Uploads.Open(rel)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	defer f.Close()

	if a.IsCopyrighted {
		notice := a.CopyrightNotice
		if notice == "" {
			notice = "All rights reserved"
		}
		w.Header().Set("X-Copyright", notice)
	}
	if !owner && !a.AllowDownload {
		w.Header().Set("Content-Disposition", "inline")
	}

	http.ServeContent(w, r, filepath.Base(rel), a.CreatedAt, f)
}
