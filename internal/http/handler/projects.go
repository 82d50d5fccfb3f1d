package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"studio/internal/auth"
	"studio/internal/studio"

	"gorm.io/gorm"
)

type ProjectHandler struct {
	DB *gorm.DB
}

func (h *ProjectHandler) store(r *http.Request) studio.Store {
	uid, _ := auth.UserIDFromContext(r.Context())
	return studio.NewDBStore(h.DB, uid)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store(r).ListProjects(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	p, err := h.store(r).GetProject(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type projectReq struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Status       *string          `json:"status"`
	Steps        *studio.StepList `json:"steps"`
	SupplyList   *studio.IDList   `json:"supply_list"`
	SessionNotes *string          `json:"session_notes"`
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	in := studio.ProjectInput{Status: studio.StatusPlanning}
	if req.Title != nil {
		in.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.Status != nil && *req.Status != "" {
		in.Status = *req.Status
	}
	if req.Steps != nil {
		in.Steps = *req.Steps
	}
	if req.SupplyList != nil {
		in.SupplyList = *req.SupplyList
	}
	if req.SessionNotes != nil {
		in.SessionNotes = *req.SessionNotes
	}

	p, err := h.store(r).CreateProject(r.Context(), in)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req projectReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	p, err := h.store(r).UpdateProject(r.Context(), id, studio.ProjectPatch{
		Title:        req.Title,
		Description:  req.Description,
		Status:       req.Status,
		Steps:        req.Steps,
		SupplyList:   req.SupplyList,
		SessionNotes: req.SessionNotes,
	})
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.store(r).DeleteProject(r.Context(), id); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addStepReq struct {
	Instruction string `json:"instruction"`
}

func (h *ProjectHandler) AddStep(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req addStepReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	p, err := h.store(r).AddProjectStep(r.Context(), id, strings.TrimSpace(req.Instruction))
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updateStepReq struct {
	Step        int     `json:"step"`
	Instruction *string `json:"instruction"`
	Completed   *bool   `json:"completed"`
}

func (h *ProjectHandler) UpdateStep(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req updateStepReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	p, err := h.store(r).UpdateProjectStep(r.Context(), id, req.Step, studio.StepPatch{
		Instruction: req.Instruction,
		Completed:   req.Completed,
	})
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type addNotesReq struct {
	Notes string `json:"notes"`
}

func (h *ProjectHandler) AddNotes(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req addNotesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	p, err := h.store(r).AppendSessionNotes(r.Context(), id, strings.TrimSpace(req.Notes))
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
