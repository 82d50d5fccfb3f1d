package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"studio/internal/auth"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB  *gorm.DB
	JWT *auth.JWT
}

type userDTO struct {
	ID                  uint64     `json:"id"`
	Username            string     `json:"username"`
	Email               *string    `json:"email"`
	DisplayName         string     `json:"display_name"`
	AvatarPath          string     `json:"avatar_path"`
	FavoriteMediums     []string   `json:"favorite_mediums"`
	FavoriteStyles      []string   `json:"favorite_styles"`
	SkillLevel          string     `json:"skill_level"`
	SessionLength       string     `json:"session_length"`
	BudgetRange         string     `json:"budget_range"`
	Goals               string     `json:"goals"`
	PinterestUsername   string     `json:"pinterest_username"`
	PinterestConnected  bool       `json:"pinterest_connected"`
	OnboardingCompleted bool       `json:"onboarding_completed"`
	CreatedAt           time.Time  `json:"created_at"`
	LastLogin           *time.Time `json:"last_login"`
}

func toUserDTO(u *auth.User) userDTO {
	return userDTO{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		DisplayName:         u.DisplayName,
		AvatarPath:          u.AvatarPath,
		FavoriteMediums:     []string(u.FavoriteMediums),
		FavoriteStyles:      []string(u.FavoriteStyles),
		SkillLevel:          u.SkillLevel,
		SessionLength:       u.SessionLength,
		BudgetRange:         u.BudgetRange,
		Goals:               u.Goals,
		PinterestUsername:   u.PinterestUsername,
		PinterestConnected:  u.PinterestConnected,
		OnboardingCompleted: u.OnboardingCompleted,
		CreatedAt:           u.CreatedAt,
		LastLogin:           u.LastLogin,
	}
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

type registerReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))

	if len(req.Username) < 3 {
		writeError(w, http.StatusBadRequest, "username must be at least 3 characters")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	u := auth.User{
		Username:        req.Username,
		PasswordHash:    hash,
		FavoriteMediums: pq.StringArray{},
		FavoriteStyles:  pq.StringArray{},
	}
	if req.Email != "" {
		u.Email = &req.Email
	}
	if err := h.DB.WithContext(r.Context()).Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			writeError(w, http.StatusConflict, "username or email already taken")
			return
		}
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	token, err := h.JWT.Sign(u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	setSessionCookie(w, token)

	writeJSON(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  toUserDTO(&u),
	})
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	req.Username = strings.TrimSpace(strings.ToLower(req.Username))
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	// username or email, same field
	var u auth.User
	err := h.DB.WithContext(r.Context()).
		Where("username = ? OR email = ?", req.Username, req.Username).
		First(&u).Error
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !auth.ComparePassword(u.PasswordHash, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	now := time.Now()
	_ = h.DB.WithContext(r.Context()).Model(&u).Update("last_login", now).Error
	u.LastLogin = &now

	token, err := h.JWT.Sign(u.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	setSessionCookie(w, token)

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  toUserDTO(&u),
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var u auth.User
	if err := h.DB.WithContext(r.Context()).First(&u, uid).Error; err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(&u))
}

type preferencesReq struct {
	DisplayName       *string   `json:"display_name"`
	FavoriteMediums   *[]string `json:"favorite_mediums"`
	FavoriteStyles    *[]string `json:"favorite_styles"`
	SkillLevel        *string   `json:"skill_level"`
	SessionLength     *string   `json:"session_length"`
	BudgetRange       *string   `json:"budget_range"`
	Goals             *string   `json:"goals"`
	PinterestUsername *string   `json:"pinterest_username"`
}

func applyPreferences(u *auth.User, req preferencesReq) {
	if req.DisplayName != nil {
		u.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.FavoriteMediums != nil {
		u.FavoriteMediums = pq.StringArray(*req.FavoriteMediums)
	}
	if req.FavoriteStyles != nil {
		u.FavoriteStyles = pq.StringArray(*req.FavoriteStyles)
	}
	if req.SkillLevel != nil {
		u.SkillLevel = *req.SkillLevel
	}
	if req.SessionLength != nil {
		u.SessionLength = *req.SessionLength
	}
	if req.BudgetRange != nil {
		u.BudgetRange = *req.BudgetRange
	}
	if req.Goals != nil {
		u.Goals = *req.Goals
	}
	if req.PinterestUsername != nil {
		u.PinterestUsername = strings.TrimSpace(*req.PinterestUsername)
		u.PinterestConnected = u.PinterestUsername != ""
	}
}

// Onboarding records the preference bundle and marks the account onboarded.
func (h *AuthHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req preferencesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	var u auth.User
	if err := h.DB.WithContext(r.Context()).First(&u, uid).Error; err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	applyPreferences(&u, req)
	u.OnboardingCompleted = true

	if err := h.DB.WithContext(r.Context()).Save(&u).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(&u))
}

func (h *AuthHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	uid, _ := auth.UserIDFromContext(r.Context())

	var req preferencesReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	var u auth.User
	if err := h.DB.WithContext(r.Context()).First(&u, uid).Error; err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	applyPreferences(&u, req)

	if err := h.DB.WithContext(r.Context()).Save(&u).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(&u))
}
