package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// DBStore is the Store for a persisted account. Every query is scoped to the
// owning user id; ids belonging to other users read as not found.
type DBStore struct {
	db     *gorm.DB
	userID uint64
}

func NewDBStore(db *gorm.DB, userID uint64) *DBStore {
	return &DBStore{db: db, userID: userID}
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- Supplies ---

func (s *DBStore) ListSupplies(ctx context.Context) ([]Supply, error) {
	var rows []Supply
	err := s.db.WithContext(ctx).
		Where("user_id = ?", s.userID).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Stock = StockStatus(rows[i].Quantity)
	}
	return rows, nil
}

func (s *DBStore) GetSupply(ctx context.Context, id uint64) (*Supply, error) {
	var sp Supply
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, s.userID).First(&sp).Error; err != nil {
		return nil, notFoundOr(err)
	}
	sp.Stock = StockStatus(sp.Quantity)
	return &sp, nil
}

func (s *DBStore) AddSupply(ctx context.Context, in SupplyInput) (*Supply, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}

	sp := Supply{
		UserID:   s.userID,
		Brand:    in.Brand,
		Name:     in.Name,
		Type:     in.Type,
		Colors:   in.Colors,
		Quantity: in.Quantity,
		Unit:     in.Unit,
		Notes:    in.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&sp).Error; err != nil {
		return nil, err
	}
	sp.Stock = StockStatus(sp.Quantity)
	return &sp, nil
}

func (s *DBStore) UpdateSupply(ctx context.Context, id uint64, patch SupplyPatch) (*Supply, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if patch.Quantity != nil && *patch.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrValidation)
	}

	var sp Supply
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, s.userID).First(&sp).Error; err != nil {
			return notFoundOr(err)
		}
		applySupplyPatch(&sp, patch)
		return tx.Save(&sp).Error
	})
	if err != nil {
		return nil, err
	}
	sp.Stock = StockStatus(sp.Quantity)
	return &sp, nil
}

func applySupplyPatch(sp *Supply, patch SupplyPatch) {
	if patch.Brand != nil {
		sp.Brand = *patch.Brand
	}
	if patch.Name != nil {
		sp.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Type != nil {
		sp.Type = *patch.Type
	}
	if patch.Colors != nil {
		sp.Colors = *patch.Colors
	}
	if patch.Quantity != nil {
		sp.Quantity = *patch.Quantity
	}
	if patch.Unit != nil {
		sp.Unit = *patch.Unit
	}
	if patch.Notes != nil {
		sp.Notes = *patch.Notes
	}
}

func (s *DBStore) DeleteSupply(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, s.userID).Delete(&Supply{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LowStock is the listing filtered by the derived status, in the same
// relative order as ListSupplies.
func (s *DBStore) LowStock(ctx context.Context) ([]Supply, error) {
	var rows []Supply
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND quantity <= ?", s.userID, LowStockThreshold).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Stock = StockStatus(rows[i].Quantity)
	}
	return rows, nil
}

// --- Projects ---

func (s *DBStore) ListProjects(ctx context.Context) ([]Project, error) {
	var rows []Project
	err := s.db.WithContext(ctx).
		Where("user_id = ?", s.userID).
		Order("updated_at desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *DBStore) GetProject(ctx context.Context, id uint64) (*Project, error) {
	var p Project
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, s.userID).First(&p).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &p, nil
}

func (s *DBStore) CreateProject(ctx context.Context, in ProjectInput) (*Project, error) {
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

	p := Project{
		UserID:       s.userID,
		Title:        in.Title,
		Status:       in.Status,
		Description:  in.Description,
		Steps:        in.Steps,
		SupplyList:   in.SupplyList,
		SessionNotes: in.SessionNotes,
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *DBStore) UpdateProject(ctx context.Context, id uint64, patch ProjectPatch) (*Project, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if patch.Status != nil && !validStatus(*patch.Status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *patch.Status)
	}

	var p Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, s.userID).First(&p).Error; err != nil {
			return notFoundOr(err)
		}
		applyProjectPatch(&p, patch)
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func applyProjectPatch(p *Project, patch ProjectPatch) {
	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Steps != nil {
		p.Steps = *patch.Steps
	}
	if patch.SupplyList != nil {
		p.SupplyList = *patch.SupplyList
	}
	if patch.SessionNotes != nil {
		p.SessionNotes = *patch.SessionNotes
	}
}

func (s *DBStore) DeleteProject(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, s.userID).Delete(&Project{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DBStore) AddProjectStep(ctx context.Context, id uint64, instruction string) (*Project, error) {
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		return nil, fmt.Errorf("%w: instruction is required", ErrValidation)
	}

	var p Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, s.userID).First(&p).Error; err != nil {
			return notFoundOr(err)
		}
		p.Steps = append(p.Steps, ProjectStep{
			Step:        len(p.Steps) + 1,
			Instruction: instruction,
			Completed:   false,
		})
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *DBStore) UpdateProjectStep(ctx context.Context, id uint64, stepNumber int, patch StepPatch) (*Project, error) {
	var p Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, s.userID).First(&p).Error; err != nil {
			return notFoundOr(err)
		}
		if err := applyStepPatch(&p, stepNumber, patch); err != nil {
			return err
		}
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func applyStepPatch(p *Project, stepNumber int, patch StepPatch) error {
	for i := range p.Steps {
		if p.Steps[i].Step != stepNumber {
			continue
		}
		if patch.Instruction != nil {
			p.Steps[i].Instruction = *patch.Instruction
		}
		if patch.Completed != nil {
			p.Steps[i].Completed = *patch.Completed
		}
		return nil
	}
	return fmt.Errorf("%w: step %d", ErrNotFound, stepNumber)
}

func (s *DBStore) AppendSessionNotes(ctx context.Context, id uint64, notes string) (*Project, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, fmt.Errorf("%w: notes are required", ErrValidation)
	}

	var p Project
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, s.userID).First(&p).Error; err != nil {
			return notFoundOr(err)
		}
		p.SessionNotes = joinSessionNotes(p.SessionNotes, notes)
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func joinSessionNotes(existing, notes string) string {
	if existing == "" {
		return notes
	}
	return existing + "\n\n---\n\n" + notes
}

// --- Artworks ---

func (s *DBStore) ListArtworks(ctx context.Context) ([]Artwork, error) {
	var rows []Artwork
	err := s.db.WithContext(ctx).
		Where("user_id = ?", s.userID).
		Order("created_at desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *DBStore) SearchArtworks(ctx context.Context, filter ArtworkFilter) ([]Artwork, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", s.userID)
	if filter.Medium != nil {
		q = q.Where("medium LIKE ?", "%"+*filter.Medium+"%")
	}
	if filter.Difficulty != nil {
		q = q.Where("difficulty = ?", *filter.Difficulty)
	}
	if filter.ProjectID != nil {
		q = q.Where("project_id = ?", *filter.ProjectID)
	}

	var rows []Artwork
	if err := q.Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *DBStore) GetArtwork(ctx context.Context, id uint64) (*Artwork, error) {
	var a Artwork
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, s.userID).First(&a).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &a, nil
}

func (s *DBStore) AddArtwork(ctx context.Context, in ArtworkInput) (*Artwork, error) {
	if strings.TrimSpace(in.ImagePath) == "" {
		return nil, fmt.Errorf("%w: image_path is required", ErrValidation)
	}
	if !validDifficulty(in.Difficulty) {
		return nil, fmt.Errorf("%w: difficulty must be between 1 and 5", ErrValidation)
	}

	a := Artwork{
		UserID:           s.userID,
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
	}
	if a.DateCreated == "" {
		a.DateCreated = time.Now().Format("2006-01-02")
	}
	if err := s.db.WithContext(ctx).Create(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *DBStore) UpdateArtwork(ctx context.Context, id uint64, patch ArtworkPatch) (*Artwork, error) {
	if !validDifficulty(patch.Difficulty) {
		return nil, fmt.Errorf("%w: difficulty must be between 1 and 5", ErrValidation)
	}

	var a Artwork
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, s.userID).First(&a).Error; err != nil {
			return notFoundOr(err)
		}
		applyArtworkPatch(&a, patch)
		return tx.Save(&a).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func applyArtworkPatch(a *Artwork, patch ArtworkPatch) {
	if patch.Title != nil {
		a.Title = *patch.Title
	}
	if patch.Medium != nil {
		a.Medium = *patch.Medium
	}
	if patch.Difficulty != nil {
		a.Difficulty = patch.Difficulty
	}
	if patch.Notes != nil {
		a.Notes = *patch.Notes
	}
	if patch.ProjectID != nil {
		a.ProjectID = patch.ProjectID
	}
	if patch.IsCopyrighted != nil {
		a.IsCopyrighted = *patch.IsCopyrighted
	}
	if patch.CopyrightNotice != nil {
		a.CopyrightNotice = *patch.CopyrightNotice
	}
	if patch.AllowDownload != nil {
		a.AllowDownload = *patch.AllowDownload
	}
	if patch.AllowSharing != nil {
		a.AllowSharing = *patch.AllowSharing
	}
}

// DeleteArtwork returns the deleted record so the caller can remove the
// stored image; the store itself does no file I/O.
func (s *DBStore) DeleteArtwork(ctx context.Context, id uint64) (*Artwork, error) {
	var a Artwork
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, s.userID).First(&a).Error; err != nil {
			return notFoundOr(err)
		}
		return tx.Delete(&a).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// --- Conversations ---

func (s *DBStore) ListConversations(ctx context.Context) ([]Conversation, error) {
	var rows []Conversation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", s.userID).
		Order("updated_at desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if err := s.fillMessageCounts(ctx, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *DBStore) fillMessageCounts(ctx context.Context, rows []Conversation) error {
	if len(rows) == 0 {
		return nil
	}
	ids := make([]uint64, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.ID)
	}

	type pair struct {
		ConversationID uint64
		N              int64
	}
	var counts []pair
	err := s.db.WithContext(ctx).Model(&Message{}).
		Select("conversation_id, count(*) as n").
		Where("conversation_id IN ?", ids).
		Group("conversation_id").
		Scan(&counts).Error
	if err != nil {
		return err
	}

	byID := make(map[uint64]int64, len(counts))
	for _, c := range counts {
		byID[c.ConversationID] = c.N
	}
	for i := range rows {
		rows[i].MessageCount = byID[rows[i].ID]
	}
	return nil
}

func (s *DBStore) GetConversation(ctx context.Context, id uint64) (*Conversation, error) {
	var c Conversation
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, s.userID).First(&c).Error; err != nil {
		return nil, notFoundOr(err)
	}
	if err := s.db.WithContext(ctx).Model(&Message{}).
		Where("conversation_id = ?", c.ID).
		Count(&c.MessageCount).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *DBStore) CreateConversation(ctx context.Context, title string) (*Conversation, error) {
	c := Conversation{UserID: s.userID, Title: strings.TrimSpace(title)}
	if c.Title == "" {
		c.Title = "New Conversation"
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *DBStore) UpdateConversation(ctx context.Context, id uint64, patch ConversationPatch) (*Conversation, error) {
	var c Conversation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, s.userID).First(&c).Error; err != nil {
			return notFoundOr(err)
		}
		if patch.Title != nil {
			c.Title = *patch.Title
		}
		if patch.Summary != nil {
			c.Summary = *patch.Summary
		}
		return tx.Save(&c).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// DeleteConversation cascades to the conversation's messages.
func (s *DBStore) DeleteConversation(ctx context.Context, id uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", id, s.userID).Delete(&Conversation{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("conversation_id = ?", id).Delete(&Message{}).Error
	})
}

func (s *DBStore) ListMessages(ctx context.Context, conversationID uint64) ([]Message, error) {
	var c Conversation
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", conversationID, s.userID).First(&c).Error; err != nil {
		return nil, notFoundOr(err)
	}

	var rows []Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// AppendMessage is the one multi-entity transactional operation: conversation
// get-or-create, message insert, and updated_at bump are all-or-nothing.
func (s *DBStore) AppendMessage(ctx context.Context, in AppendMessageInput) (*Conversation, *Message, error) {
	if !validRole(in.Role) {
		return nil, nil, fmt.Errorf("%w: unknown role %q", ErrValidation, in.Role)
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	var conv Conversation
	var msg Message
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if in.ConversationID != nil {
			if err := tx.Where("id = ? AND user_id = ?", *in.ConversationID, s.userID).First(&conv).Error; err != nil {
				return notFoundOr(err)
			}
		} else {
			conv = Conversation{UserID: s.userID, Title: titleFromContent(in.Content)}
			if err := tx.Create(&conv).Error; err != nil {
				return err
			}
		}

		msg = Message{
			ConversationID: conv.ID,
			Role:           in.Role,
			Content:        in.Content,
			ToolCalls:      in.ToolCalls,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}

		conv.UpdatedAt = time.Now()
		return tx.Model(&Conversation{}).
			Where("id = ?", conv.ID).
			Update("updated_at", conv.UpdatedAt).Error
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.db.WithContext(ctx).Model(&Message{}).
		Where("conversation_id = ?", conv.ID).
		Count(&conv.MessageCount).Error; err != nil {
		return nil, nil, err
	}
	return &conv, &msg, nil
}

// --- Ideas ---

func (s *DBStore) ListIdeas(ctx context.Context, filter IdeaFilter) ([]Idea, error) {
	q := s.db.WithContext(ctx).
		Where("user_id = ? AND is_archived = ?", s.userID, filter.Archived)
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.FavoriteOnly {
		q = q.Where("is_favorite = ?", true)
	}

	var rows []Idea
	if err := q.Order("updated_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *DBStore) GetIdea(ctx context.Context, id uint64) (*Idea, error) {
	var i Idea
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, s.userID).First(&i).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &i, nil
}

func (s *DBStore) SaveIdea(ctx context.Context, in IdeaInput) (*Idea, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if in.Category == "" {
		in.Category = "other"
	}

	i := Idea{
		UserID:               s.userID,
		Title:                in.Title,
		Content:              in.Content,
		Category:             in.Category,
		Tags:                 in.Tags,
		ImagePath:            in.ImagePath,
		SourceConversationID: in.SourceConversationID,
		SourceMessageID:      in.SourceMessageID,
	}
	if err := s.db.WithContext(ctx).Create(&i).Error; err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *DBStore) UpdateIdea(ctx context.Context, id uint64, patch IdeaPatch) (*Idea, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}

	var i Idea
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, s.userID).First(&i).Error; err != nil {
			return notFoundOr(err)
		}
		applyIdeaPatch(&i, patch)
		return tx.Save(&i).Error
	})
	if err != nil {
		return nil, err
	}
	return &i, nil
}

func applyIdeaPatch(i *Idea, patch IdeaPatch) {
	if patch.Title != nil {
		i.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Content != nil {
		i.Content = *patch.Content
	}
	if patch.Category != nil {
		i.Category = *patch.Category
	}
	if patch.Tags != nil {
		i.Tags = *patch.Tags
	}
	if patch.ImagePath != nil {
		i.ImagePath = *patch.ImagePath
	}
	if patch.IsFavorite != nil {
		i.IsFavorite = *patch.IsFavorite
	}
	if patch.IsArchived != nil {
		i.IsArchived = *patch.IsArchived
	}
}

func (s *DBStore) DeleteIdea(ctx context.Context, id uint64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, s.userID).Delete(&Idea{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *DBStore) ToggleFavorite(ctx context.Context, id uint64) (*Idea, error) {
	return s.toggleIdeaFlag(ctx, id, func(i *Idea) {
		i.IsFavorite = !i.IsFavorite
	})
}

func (s *DBStore) ToggleArchive(ctx context.Context, id uint64) (*Idea, error) {
	return s.toggleIdeaFlag(ctx, id, func(i *Idea) {
		i.IsArchived = !i.IsArchived
	})
}

func (s *DBStore) toggleIdeaFlag(ctx context.Context, id uint64, flip func(*Idea)) (*Idea, error) {
	var i Idea
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, s.userID).First(&i).Error; err != nil {
			return notFoundOr(err)
		}
		flip(&i)
		return tx.Save(&i).Error
	})
	if err != nil {
		return nil, err
	}
	return &i, nil
}
