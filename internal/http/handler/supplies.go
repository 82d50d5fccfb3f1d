package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"studio/internal/auth"
	"studio/internal/studio"

	"gorm.io/gorm"
)

type SupplyHandler struct {
	DB *gorm.DB
}

func (h *SupplyHandler) store(r *http.Request) studio.Store {
	uid, _ := auth.UserIDFromContext(r.Context())
	return studio.NewDBStore(h.DB, uid)
}

func (h *SupplyHandler) List(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store(r).ListSupplies(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *SupplyHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store(r).LowStock(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *SupplyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	sp, err := h.store(r).GetSupply(r.Context(), id)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

type supplyReq struct {
	Brand    *string           `json:"brand"`
	Name     *string           `json:"name"`
	Type     *string           `json:"type"`
	Colors   *studio.ColorList `json:"colors"`
	Quantity *int              `json:"quantity"`
	Unit     *string           `json:"unit"`
	Notes    *string           `json:"notes"`
}

func (h *SupplyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req supplyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	in := studio.SupplyInput{Quantity: 1}
	if req.Brand != nil {
		in.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.Name != nil {
		in.Name = strings.TrimSpace(*req.Name)
	}
	if req.Type != nil {
		in.Type = strings.TrimSpace(*req.Type)
	}
	if req.Colors != nil {
		in.Colors = *req.Colors
	}
	if req.Quantity != nil {
		in.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		in.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.Notes != nil {
		in.Notes = *req.Notes
	}

	sp, err := h.store(r).AddSupply(r.Context(), in)
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sp)
}

func (h *SupplyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req supplyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	sp, err := h.store(r).UpdateSupply(r.Context(), id, studio.SupplyPatch{
		Brand:    req.Brand,
		Name:     req.Name,
		Type:     req.Type,
		Colors:   req.Colors,
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Notes:    req.Notes,
	})
	if err != nil {
		storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (h *SupplyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.store(r).DeleteSupply(r.Context(), id); err != nil {
		storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
