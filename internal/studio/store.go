package studio

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"
)

var ErrNotFound = errors.New("not found")
var ErrValidation = errors.New("invalid input")

// Store is the domain store bound to one owner. It has two implementations:
// DBStore for persisted accounts and GuestStore for ephemeral guest sessions.
// Both enforce the same invariants; only the backing differs. A not-owned id
// is indistinguishable from an unknown one: both are ErrNotFound.
type Store interface {
	ListSupplies(ctx context.Context) ([]Supply, error)
	GetSupply(ctx context.Context, id uint64) (*Supply, error)
	AddSupply(ctx context.Context, in SupplyInput) (*Supply, error)
	UpdateSupply(ctx context.Context, id uint64, patch SupplyPatch) (*Supply, error)
	DeleteSupply(ctx context.Context, id uint64) error
	LowStock(ctx context.Context) ([]Supply, error)

	ListProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id uint64) (*Project, error)
	CreateProject(ctx context.Context, in ProjectInput) (*Project, error)
	UpdateProject(ctx context.Context, id uint64, patch ProjectPatch) (*Project, error)
	DeleteProject(ctx context.Context, id uint64) error
	AddProjectStep(ctx context.Context, id uint64, instruction string) (*Project, error)
	UpdateProjectStep(ctx context.Context, id uint64, stepNumber int, patch StepPatch) (*Project, error)
	AppendSessionNotes(ctx context.Context, id uint64, notes string) (*Project, error)

	ListArtworks(ctx context.Context) ([]Artwork, error)
	SearchArtworks(ctx context.Context, filter ArtworkFilter) ([]Artwork, error)
	GetArtwork(ctx context.Context, id uint64) (*Artwork, error)
	AddArtwork(ctx context.Context, in ArtworkInput) (*Artwork, error)
	UpdateArtwork(ctx context.Context, id uint64, patch ArtworkPatch) (*Artwork, error)
	DeleteArtwork(ctx context.Context, id uint64) (*Artwork, error)

	ListConversations(ctx context.Context) ([]Conversation, error)
	GetConversation(ctx context.Context, id uint64) (*Conversation, error)
	CreateConversation(ctx context.Context, title string) (*Conversation, error)
	UpdateConversation(ctx context.Context, id uint64, patch ConversationPatch) (*Conversation, error)
	DeleteConversation(ctx context.Context, id uint64) error
	ListMessages(ctx context.Context, conversationID uint64) ([]Message, error)
	AppendMessage(ctx context.Context, in AppendMessageInput) (*Conversation, *Message, error)

	ListIdeas(ctx context.Context, filter IdeaFilter) ([]Idea, error)
	GetIdea(ctx context.Context, id uint64) (*Idea, error)
	SaveIdea(ctx context.Context, in IdeaInput) (*Idea, error)
	UpdateIdea(ctx context.Context, id uint64, patch IdeaPatch) (*Idea, error)
	DeleteIdea(ctx context.Context, id uint64) error
	ToggleFavorite(ctx context.Context, id uint64) (*Idea, error)
	ToggleArchive(ctx context.Context, id uint64) (*Idea, error)
}

type SupplyInput struct {
	Brand    string
	Name     string
	Type     string
	Colors   ColorList
	Quantity int
	Unit     string
	Notes    string
}

type SupplyPatch struct {
	Brand    *string
	Name     *string
	Type     *string
	Colors   *ColorList
	Quantity *int
	Unit     *string
	Notes    *string
}

type ProjectInput struct {
	Title        string
	Description  string
	Status       string
	Steps        StepList
	SupplyList   IDList
	SessionNotes string
}

type ProjectPatch struct {
	Title        *string
	Description  *string
	Status       *string
	Steps        *StepList
	SupplyList   *IDList
	SessionNotes *string
}

type StepPatch struct {
	Instruction *string
	Completed   *bool
}

type ArtworkInput struct {
	Title            string
	ImagePath        string
	OriginalFilename string
	FileType         string
	Medium           string
	Difficulty       *int
	DateCreated      string
	Notes            string
	ProjectID        *uint64
	IsCopyrighted    bool
	CopyrightNotice  string
	AllowDownload    bool
	AllowSharing     bool
}

type ArtworkPatch struct {
	Title           *string
	Medium          *string
	Difficulty      *int
	Notes           *string
	ProjectID       *uint64
	IsCopyrighted   *bool
	CopyrightNotice *string
	AllowDownload   *bool
	AllowSharing    *bool
}

type ArtworkFilter struct {
	Medium     *string
	Difficulty *int
	ProjectID  *uint64
}

type ConversationPatch struct {
	Title   *string
	Summary *string
}

// AppendMessageInput drives the one multi-entity transactional operation.
// A nil ConversationID creates a new conversation titled from the message.
type AppendMessageInput struct {
	ConversationID *uint64
	Role           string
	Content        string
	ToolCalls      ToolCallList
}

type IdeaInput struct {
	Title                string
	Content              string
	Category             string
	Tags                 StringList
	ImagePath            string
	SourceConversationID *uint64
	SourceMessageID      *uint64
}

type IdeaPatch struct {
	Title      *string
	Content    *string
	Category   *string
	Tags       *StringList
	ImagePath  *string
	IsFavorite *bool
	IsArchived *bool
}

type IdeaFilter struct {
	Category     string
	FavoriteOnly bool
	Archived     bool
}

const conversationTitleLimit = 40

// titleFromContent derives a new conversation's title from its first message.
func titleFromContent(content string) string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) <= conversationTitleLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:conversationTitleLimit]) + "..."
}

func validStatus(s string) bool {
	switch s {
	case StatusPlanning, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func validRole(r string) bool {
	return r == RoleUser || r == RoleAssistant
}

func validDifficulty(d *int) bool {
	return d == nil || (*d >= 1 && *d <= 5)
}
