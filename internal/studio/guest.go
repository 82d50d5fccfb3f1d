package studio

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// GuestStore is the Store for an ephemeral guest session. Nothing here ever
// touches the database; the whole store is discarded when the session ends.
// It enforces the same validation, not-found, and ordering semantics as
// DBStore so the agent tools and handlers cannot tell the two apart.
type GuestStore struct {
	mu sync.Mutex

	nextID uint64

	supplies      []Supply
	projects      []Project
	artworks      []Artwork
	conversations []Conversation
	messages      []Message
	ideas         []Idea
}

func NewGuestStore() *GuestStore {
	return &GuestStore{}
}

func (g *GuestStore) allocID() uint64 {
	g.nextID++
	return g.nextID
}

// --- Supplies ---

func (g *GuestStore) ListSupplies(_ context.Context) ([]Supply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Supply, len(g.supplies))
	copy(out, g.supplies)
	for i := range out {
		out[i].Stock = StockStatus(out[i].Quantity)
	}
	return out, nil
}

func (g *GuestStore) GetSupply(_ context.Context, id uint64) (*Supply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.supplyIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	sp := g.supplies[i]
	sp.Stock = StockStatus(sp.Quantity)
	return &sp, nil
}

func (g *GuestStore) supplyIndex(id uint64) int {
	for i := range g.supplies {
		if g.supplies[i].ID == id {
			return i
		}
	}
	return -1
}

func (g *GuestStore) AddSupply(_ context.Context, in SupplyInput) (*Supply, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	sp := Supply{
		ID:        g.allocID(),
		Brand:     in.Brand,
		Name:      in.Name,
		Type:      in.Type,
		Colors:    in.Colors,
		Quantity:  in.Quantity,
		Unit:      in.Unit,
		Notes:     in.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	g.supplies = append(g.supplies, sp)
	sp.Stock = StockStatus(sp.Quantity)
	return &sp, nil
}

func (g *GuestStore) UpdateSupply(_ context.Context, id uint64, patch SupplyPatch) (*Supply, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.supplyIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	applySupplyPatch(&g.supplies[i], patch)
	g.supplies[i].UpdatedAt = time.Now()

	sp := g.supplies[i]
	sp.Stock = StockStatus(sp.Quantity)
	return &sp, nil
}

func (g *GuestStore) DeleteSupply(_ context.Context, id uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.supplyIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	g.supplies = append(g.supplies[:i], g.supplies[i+1:]...)
	return nil
}

func (g *GuestStore) LowStock(_ context.Context) ([]Supply, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Supply, 0)
	for _, sp := range g.supplies {
		if sp.Quantity <= LowStockThreshold {
			sp.Stock = StockStatus(sp.Quantity)
			out = append(out, sp)
		}
	}
	return out, nil
}

// --- Projects ---

func (g *GuestStore) ListProjects(_ context.Context) ([]Project, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Project, len(g.projects))
	copy(out, g.projects)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (g *GuestStore) projectIndex(id uint64) int {
	for i := range g.projects {
		if g.projects[i].ID == id {
			return i
		}
	}
	return -1
}

func (g *GuestStore) GetProject(_ context.Context, id uint64) (*Project, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.projectIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	p := g.projects[i]
	return &p, nil
}

func (g *GuestStore) CreateProject(_ context.Context, in ProjectInput) (*Project, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.Status == "" {
		in.Status = StatusPlanning
	}
	if !validStatus(in.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, in.Status)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	p := Project{
		ID:           g.allocID(),
		Title:        in.Title,
		Status:       in.Status,
		Description:  in.Description,
		Steps:        in.Steps,
		SupplyList:   in.SupplyList,
		SessionNotes: in.SessionNotes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	g.projects = append(g.projects, p)
	return &p, nil
}

func (g *GuestStore) UpdateProject(_ context.Context, id uint64, patch ProjectPatch) (*Project, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if patch.Status != nil && !validStatus(*patch.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *patch.Status)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.projectIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	applyProjectPatch(&g.projects[i], patch)
	g.projects[i].UpdatedAt = time.Now()

	p := g.projects[i]
	return &p, nil
}

func (g *GuestStore) DeleteProject(_ context.Context, id uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.projectIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	g.projects = append(g.projects[:i], g.projects[i+1:]...)
	return nil
}

func (g *GuestStore) AddProjectStep(_ context.Context, id uint64, instruction string) (*Project, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, fmt.Errorf("%w: instruction is required", ErrValidation)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.projectIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	p := &g.projects[i]
	p.Steps = append(p.Steps, ProjectStep{
		Step:        len(p.Steps) + 1,
		Instruction: instruction,
		Completed:   false,
	})
	p.UpdatedAt = time.Now()

	out := *p
	return &out, nil
}

func (g *GuestStore) UpdateProjectStep(_ context.Context, id uint64, stepNumber int, patch StepPatch) (*Project, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.projectIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	if err := applyStepPatch(&g.projects[i], stepNumber, patch); err != nil {
		return nil, err
	}
	g.projects[i].UpdatedAt = time.Now()

	p := g.projects[i]
	return &p, nil
}

func (g *GuestStore) AppendSessionNotes(_ context.Context, id uint64, notes string) (*Project, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, fmt.Errorf("%w: notes are required", ErrValidation)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.projectIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	g.projects[i].SessionNotes = joinSessionNotes(g.projects[i].SessionNotes, notes)
	g.projects[i].UpdatedAt = time.Now()

	p := g.projects[i]
	return &p, nil
}

// --- Artworks ---

func (g *GuestStore) ListArtworks(_ context.Context) ([]Artwork, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// newest first
	out := make([]Artwork, 0, len(g.artworks))
	for i := len(g.artworks) - 1; i >= 0; i-- {
		out = append(out, g.artworks[i])
	}
	return out, nil
}

func (g *GuestStore) SearchArtworks(_ context.Context, filter ArtworkFilter) ([]Artwork, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Artwork, 0)
	for i := len(g.artworks) - 1; i >= 0; i-- {
		a := g.artworks[i]
		if filter.Medium != nil && !strings.Contains(strings.ToLower(a.Medium), strings.ToLower(*filter.Medium)) {
			continue
		}
		if filter.Difficulty != nil && (a.Difficulty == nil || *a.Difficulty != *filter.Difficulty) {
			continue
		}
		if filter.ProjectID != nil && (a.ProjectID == nil || *a.ProjectID != *filter.ProjectID) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (g *GuestStore) artworkIndex(id uint64) int {
	for i := range g.artworks {
		if g.artworks[i].ID == id {
			return i
		}
	}
	return -1
}

func (g *GuestStore) GetArtwork(_ context.Context, id uint64) (*Artwork, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.artworkIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	a := g.artworks[i]
	return &a, nil
}

func (g *GuestStore) AddArtwork(_ context.Context, in ArtworkInput) (*Artwork, error) {
	if strings.TrimSpace(in.ImagePath) == "" {
		return nil, fmt.Errorf("%w: image_path is required", ErrValidation)
	}
	if !validDifficulty(in.Difficulty) {
		return nil, fmt.Errorf("%w: difficulty must be between 1 and 5", ErrValidation)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	a := Artwork{
		ID:               g.allocID(),
		Title:            in.Title,
		ImagePath:        in.ImagePath,
		OriginalFilename: in.OriginalFilename,
		FileType:         in.FileType,
		Medium:           in.Medium,
		Difficulty:       in.Difficulty,
		DateCreated:      in.DateCreated,
		Notes:            in.Notes,
		ProjectID:        in.ProjectID,
		IsCopyrighted:    in.IsCopyrighted,
		CopyrightNotice:  in.CopyrightNotice,
		AllowDownload:    in.AllowDownload,
		AllowSharing:     in.AllowSharing,
		CreatedAt:        time.Now(),
	}
	if a.DateCreated == "" {
		a.DateCreated = a.CreatedAt.Format("2006-01-02")
	}
	g.artworks = append(g.artworks, a)
	return &a, nil
}

func (g *GuestStore) UpdateArtwork(_ context.Context, id uint64, patch ArtworkPatch) (*Artwork, error) {
	if !validDifficulty(patch.Difficulty) {
		return nil, fmt.Errorf("%w: difficulty must be between 1 and 5", ErrValidation)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.artworkIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	applyArtworkPatch(&g.artworks[i], patch)

	a := g.artworks[i]
	return &a, nil
}

func (g *GuestStore) DeleteArtwork(_ context.Context, id uint64) (*Artwork, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.artworkIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	a := g.artworks[i]
	g.artworks = append(g.artworks[:i], g.artworks[i+1:]...)
	return &a, nil
}

// --- Conversations ---

func (g *GuestStore) ListConversations(_ context.Context) ([]Conversation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Conversation, len(g.conversations))
	copy(out, g.conversations)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	for i := range out {
		out[i].MessageCount = g.countMessages(out[i].ID)
	}
	return out, nil
}

func (g *GuestStore) countMessages(conversationID uint64) int64 {
	var n int64
	for i := range g.messages {
		if g.messages[i].ConversationID == conversationID {
			n++
		}
	}
	return n
}

func (g *GuestStore) conversationIndex(id uint64) int {
	for i := range g.conversations {
		if g.conversations[i].ID == id {
			return i
		}
	}
	return -1
}

func (g *GuestStore) GetConversation(_ context.Context, id uint64) (*Conversation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.conversationIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	c := g.conversations[i]
	c.MessageCount = g.countMessages(c.ID)
	return &c, nil
}

func (g *GuestStore) CreateConversation(_ context.Context, title string) (*Conversation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	c := Conversation{ID: g.allocID(), Title: strings.TrimSpace(title), CreatedAt: now, UpdatedAt: now}
	if c.Title == "" {
		c.Title = "New Conversation"
	}
	g.conversations = append(g.conversations, c)
	return &c, nil
}

func (g *GuestStore) UpdateConversation(_ context.Context, id uint64, patch ConversationPatch) (*Conversation, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.conversationIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	if patch.Title != nil {
		g.conversations[i].Title = *patch.Title
	}
	if patch.Summary != nil {
		g.conversations[i].Summary = *patch.Summary
	}
	g.conversations[i].UpdatedAt = time.Now()

	c := g.conversations[i]
	c.MessageCount = g.countMessages(c.ID)
	return &c, nil
}

func (g *GuestStore) DeleteConversation(_ context.Context, id uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.conversationIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	g.conversations = append(g.conversations[:i], g.conversations[i+1:]...)

	kept := g.messages[:0]
	for _, m := range g.messages {
		if m.ConversationID != id {
			kept = append(kept, m)
		}
	}
	g.messages = kept
	return nil
}

func (g *GuestStore) ListMessages(_ context.Context, conversationID uint64) ([]Message, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.conversationIndex(conversationID) < 0 {
		return nil, ErrNotFound
	}
	out := make([]Message, 0)
	for _, m := range g.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (g *GuestStore) AppendMessage(_ context.Context, in AppendMessageInput) (*Conversation, *Message, error) {
	if !validRole(in.Role) {
		return nil, nil, fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var ci int
	if in.ConversationID != nil {
		ci = g.conversationIndex(*in.ConversationID)
		if ci < 0 {
			return nil, nil, ErrNotFound
		}
	} else {
		now := time.Now()
		c := Conversation{ID: g.allocID(), Title: titleFromContent(in.Content), CreatedAt: now, UpdatedAt: now}
		g.conversations = append(g.conversations, c)
		ci = len(g.conversations) - 1
	}

	now := time.Now()
	msg := Message{
		ID:             g.allocID(),
		ConversationID: g.conversations[ci].ID,
		Role:           in.Role,
		Content:        in.Content,
		ToolCalls:      in.ToolCalls,
		CreatedAt:      now,
	}
	g.messages = append(g.messages, msg)
	g.conversations[ci].UpdatedAt = now

	conv := g.conversations[ci]
	conv.MessageCount = g.countMessages(conv.ID)
	return &conv, &msg, nil
}

// --- Ideas ---

func (g *GuestStore) ListIdeas(_ context.Context, filter IdeaFilter) ([]Idea, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]Idea, 0)
	for _, i := range g.ideas {
		if i.IsArchived != filter.Archived {
			continue
		}
		if filter.Category != "" && i.Category != filter.Category {
			continue
		}
		if filter.FavoriteOnly && !i.IsFavorite {
			continue
		}
		out = append(out, i)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (g *GuestStore) ideaIndex(id uint64) int {
	for i := range g.ideas {
		if g.ideas[i].ID == id {
			return i
		}
	}
	return -1
}

func (g *GuestStore) GetIdea(_ context.Context, id uint64) (*Idea, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.ideaIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	idea := g.ideas[i]
	return &idea, nil
}

func (g *GuestStore) SaveIdea(_ context.Context, in IdeaInput) (*Idea, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.Category == "" {
		in.Category = "other"
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	idea := Idea{
		ID:                   g.allocID(),
		Title:                in.Title,
		Content:              in.Content,
		Category:             in.Category,
		Tags:                 in.Tags,
		ImagePath:            in.ImagePath,
		SourceConversationID: in.SourceConversationID,
		SourceMessageID:      in.SourceMessageID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	g.ideas = append(g.ideas, idea)
	return &idea, nil
}

func (g *GuestStore) UpdateIdea(_ context.Context, id uint64, patch IdeaPatch) (*Idea, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.ideaIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	applyIdeaPatch(&g.ideas[i], patch)
	g.ideas[i].UpdatedAt = time.Now()

	idea := g.ideas[i]
	return &idea, nil
}

func (g *GuestStore) DeleteIdea(_ context.Context, id uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.ideaIndex(id)
	if i < 0 {
		return ErrNotFound
	}
	g.ideas = append(g.ideas[:i], g.ideas[i+1:]...)
	return nil
}

func (g *GuestStore) ToggleFavorite(_ context.Context, id uint64) (*Idea, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.ideaIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	g.ideas[i].IsFavorite = !g.ideas[i].IsFavorite
	g.ideas[i].UpdatedAt = time.Now()

	idea := g.ideas[i]
	return &idea, nil
}

func (g *GuestStore) ToggleArchive(_ context.Context, id uint64) (*Idea, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	i := g.ideaIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	g.ideas[i].IsArchived = !g.ideas[i].IsArchived
	g.ideas[i].UpdatedAt = time.Now()

	idea := g.ideas[i]
	return &idea, nil
}
