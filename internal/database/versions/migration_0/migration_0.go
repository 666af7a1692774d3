package migration_0

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Snapshot of the chat history table as of this migration. Later migrations
// must declare their own copies so that schema history stays reproducible.
type ChatHistory struct {
	ID         uint   `gorm:"primaryKey"`
	AgentID    string `gorm:"size:64;index"`
	SessionID  string `gorm:"size:64;index"`
	MacAddress string `gorm:"size:64;index"`
	ChatType   int8
	Content    string
	AudioID    *string `gorm:"size:64;index"`
	Metadata   datatypes.JSON
	CreatedAt  time.Time
}

func Migration(txn *gorm.DB) error {
	return txn.AutoMigrate(&ChatHistory{})
}

func Rollback(txn *gorm.DB) error {
	return txn.Migrator().DropTable(&ChatHistory{})
}
