package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"studio/internal/auth"
	"studio/internal/studio"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&auth.User{},
		&studio.Supply{},
		&studio.Project{},
		&studio.Artwork{},
		&studio.Conversation{},
		&studio.Message{},
		&studio.Idea{},
	); err != nil {
		return err
	}

	stmts := []string{
		`create index if not exists idx_messages_conv on messages(conversation_id, id);`,
		`create index if not exists idx_conversations_user_updated on conversations(user_id, updated_at desc);`,
		`create index if not exists idx_supplies_user_quantity on supplies(user_id, quantity);`,
		`create index if not exists idx_projects_user_updated on projects(user_id, updated_at desc);`,
		`create index if not exists idx_artworks_user_created on artworks(user_id, created_at desc);`,
		`create index if not exists idx_ideas_user_archived_updated on ideas(user_id, is_archived, updated_at desc);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	return nil
}
