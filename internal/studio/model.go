package studio

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Project status values. Status is set directly by the user or the agent and
// is never derived from step completion.
const (
	StatusPlanning   = "planning"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Supply is one inventory item. Colors is stored as a whole JSON document;
// it is always read and written together with its parent row.
type Supply struct {
	ID       uint64    `gorm:"primaryKey" json:"id"`
	UserID   uint64    `gorm:"index;not null" json:"-"`
	Brand    string    `gorm:"type:text;not null;default:''" json:"brand"`
	Name     string    `gorm:"not null" json:"name"`
	Type     string    `gorm:"type:text;not null;default:''" json:"type"`
	Colors   ColorList `gorm:"type:jsonb;not null;default:'[]'" json:"colors"`
	Quantity int       `gorm:"not null;default:1" json:"quantity"`
	Unit     string    `gorm:"type:text;not null;default:''" json:"unit"`
	Notes    string    `gorm:"type:text;not null;default:''" json:"notes"`

	// Derived, never stored. Populated by the store from Quantity.
	Stock StockLevel `gorm:"-" json:"stock_status"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// SupplyColor is one {name, hex} entry in a supply's color list.
type SupplyColor struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type Project struct {
	ID           uint64   `gorm:"primaryKey" json:"id"`
	UserID       uint64   `gorm:"index;not null" json:"-"`
	Title        string   `gorm:"not null" json:"title"`
	Status       string   `gorm:"type:text;not null;default:'planning'" json:"status"`
	Description  string   `gorm:"type:text;not null;default:''" json:"description"`
	Steps        StepList `gorm:"type:jsonb;not null;default:'[]'" json:"steps"`
	SupplyList   IDList   `gorm:"type:jsonb;not null;default:'[]'" json:"supply_list"`
	SessionNotes string   `gorm:"type:text;not null;default:''" json:"session_notes"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// ProjectStep is one entry in a project's ordered step list. Step numbers
// start at 1 and follow append order.
type ProjectStep struct {
	Step        int    `json:"step"`
	Instruction string `json:"instruction"`
	Completed   bool   `json:"completed"`
}

type Artwork struct {
	ID               uint64  `gorm:"primaryKey" json:"id"`
	UserID           uint64  `gorm:"index;not null" json:"-"`
	Title            string  `gorm:"type:text;not null;default:''" json:"title"`
	ImagePath        string  `gorm:"not null" json:"image_path"`
	OriginalFilename string  `gorm:"type:text;not null;default:''" json:"original_filename"`
	FileType         string  `gorm:"type:text;not null;default:''" json:"file_type"`
	Medium           string  `gorm:"type:text;not null;default:''" json:"medium"`
	Difficulty       *int    `json:"difficulty"` // 1-5
	DateCreated      string  `gorm:"type:text;not null;default:''" json:"date_created"`
	Notes            string  `gorm:"type:text;not null;default:''" json:"notes"`
	ProjectID        *uint64 `gorm:"index" json:"project_id"`

	IsCopyrighted   bool   `gorm:"not null;default:true" json:"is_copyrighted"`
	CopyrightNotice string `gorm:"type:text;not null;default:''" json:"copyright_notice"`
	AllowDownload   bool   `gorm:"not null;default:false" json:"allow_download"`
	AllowSharing    bool   `gorm:"not null;default:false" json:"allow_sharing"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

type Conversation struct {
	ID      uint64 `gorm:"primaryKey" json:"id"`
	UserID  uint64 `gorm:"index;not null" json:"-"`
	Title   string `gorm:"type:text;not null;default:''" json:"title"`
	Summary string `gorm:"type:text;not null;default:''" json:"summary"`

	// Populated by the store on reads; not a column.
	MessageCount int64 `gorm:"-" json:"message_count"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"index;not null" json:"updated_at"`
}

// Message is one turn in a conversation. Append-only; deleted only when its
// conversation is deleted.
type Message struct {
	ID             uint64       `gorm:"primaryKey" json:"id"`
	ConversationID uint64       `gorm:"index;not null" json:"conversation_id"`
	Role           string       `gorm:"type:text;not null" json:"role"`
	Content        string       `gorm:"type:text;not null" json:"content"`
	ToolCalls      ToolCallList `gorm:"type:jsonb;not null;default:'[]'" json:"tool_calls"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
}

type Idea struct {
	ID       uint64     `gorm:"primaryKey" json:"id"`
	UserID   uint64     `gorm:"index;not null" json:"-"`
	Title    string     `gorm:"not null" json:"title"`
	Content  string     `gorm:"type:text;not null;default:''" json:"content"`
	Category string     `gorm:"type:text;not null;default:'other'" json:"category"`
	Tags     StringList `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`

	ImagePath            string  `gorm:"type:text;not null;default:''" json:"image_path"`
	SourceConversationID *uint64 `json:"source_conversation_id"`
	SourceMessageID      *uint64 `json:"source_message_id"`

	IsFavorite bool `gorm:"not null;default:false" json:"is_favorite"`
	IsArchived bool `gorm:"not null;default:false" json:"is_archived"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// ToolCall records one agent tool invocation attached to an assistant message.
type ToolCall struct {
	Tool   string          `json:"tool"`
	Args   json.RawMessage `json:"args"`
	Result string          `json:"result"`
}

// JSON document column types. Stored whole per parent row, never normalized
// into sub-tables.

type ColorList []SupplyColor

func (l ColorList) Value() (driver.Value, error) {
	if l == nil {
		l = ColorList{}
	}
	return jsonValue(l)
}
func (l *ColorList) Scan(src any) error { return jsonScan(src, l) }

type StepList []ProjectStep

func (l StepList) Value() (driver.Value, error) {
	if l == nil {
		l = StepList{}
	}
	return jsonValue(l)
}
func (l *StepList) Scan(src any) error { return jsonScan(src, l) }

type IDList []uint64

func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		l = IDList{}
	}
	return jsonValue(l)
}
func (l *IDList) Scan(src any) error { return jsonScan(src, l) }

type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return jsonValue(l)
}
func (l *StringList) Scan(src any) error { return jsonScan(src, l) }

type ToolCallList []ToolCall

func (l ToolCallList) Value() (driver.Value, error) {
	if l == nil {
		l = ToolCallList{}
	}
	return jsonValue(l)
}
func (l *ToolCallList) Scan(src any) error { return jsonScan(src, l) }

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src, dst any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, dst)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported column type %T", src)
	}
}
