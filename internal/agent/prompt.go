package agent

import (
	"strings"

	"studio/internal/auth"
)

const systemPrompt = `You are the Art Studio Companion, a friendly assistant for artists.

Help users with:
- Art project planning and ideas
- Supply inventory management
- Creative inspiration
- Step-by-step instructions

Be concise but helpful. Use tools when managing supplies, projects, or getting inspiration.

IMPORTANT Pinterest guidelines:
- When a user asks for Pinterest inspiration, use the inspiration_tool with a descriptive theme including their specified colors and style
- Always include the pin_url links in your response as clickable markdown links like [Title](url)
- Show the REAL titles returned by the tool - never make up fake descriptions
- If the tool returns a search link, provide it so the user can browse Pinterest directly`

// GuestPreferences is the non-persisted preference bundle a guest sends with
// each chat request.
type GuestPreferences struct {
	FavoriteMediums []string `json:"favorite_mediums"`
	FavoriteStyles  []string `json:"favorite_styles"`
	SkillLevel      string   `json:"skill_level"`
	SessionLength   string   `json:"session_length"`
	BudgetRange     string   `json:"budget_range"`
	Goals           string   `json:"goals"`
}

// UserContext renders an account's preferences into the system prompt block.
func UserContext(u *auth.User) string {
	parts := []string{"Current user: " + u.Username}
	if len(u.FavoriteMediums) > 0 {
		parts = append(parts, "Favorite mediums: "+strings.Join(u.FavoriteMediums, ", "))
	}
	if len(u.FavoriteStyles) > 0 {
		parts = append(parts, "Preferred styles: "+strings.Join(u.FavoriteStyles, ", "))
	}
	if u.SkillLevel != "" {
		parts = append(parts, "Skill level: "+u.SkillLevel)
	}
	if u.SessionLength != "" {
		parts = append(parts, "Typical session length: "+u.SessionLength)
	}
	if u.BudgetRange != "" {
		parts = append(parts, "Budget range: "+u.BudgetRange)
	}
	if u.Goals != "" {
		parts = append(parts, "Goals: "+u.Goals)
	}
	if u.PinterestUsername != "" {
		parts = append(parts, "Pinterest: @"+u.PinterestUsername)
	}
	return strings.Join(parts, "\n")
}

// GuestContext renders guest preferences; guests are never looked up in the
// store.
func GuestContext(p GuestPreferences) string {
	parts := []string{"Current user: Guest"}
	if len(p.FavoriteMediums) > 0 {
		parts = append(parts, "Favorite mediums: "+strings.Join(p.FavoriteMediums, ", "))
	}
	if len(p.FavoriteStyles) > 0 {
		parts = append(parts, "Preferred styles: "+strings.Join(p.FavoriteStyles, ", "))
	}
	if p.SkillLevel != "" {
		parts = append(parts, "Skill level: "+p.SkillLevel)
	}
	if p.SessionLength != "" {
		parts = append(parts, "Typical session length: "+p.SessionLength)
	}
	if p.BudgetRange != "" {
		parts = append(parts, "Budget range: "+p.BudgetRange)
	}
	if p.Goals != "" {
		parts = append(parts, "Goals: "+p.Goals)
	}
	if len(parts) == 1 {
		return "Current user: Guest (no preferences set)"
	}
	return strings.Join(parts, "\n")
}
