package database

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ChatTypeUser  int8 = 1
	ChatTypeAgent int8 = 2
)

// ChatHistory is one turn of a device conversation. The autoincrement id
// doubles as the creation-order key for the recent-message queries: rows are
// only ever inserted at report time, so a larger id means a later turn. That
// ordering is an insertion-discipline invariant, not a schema constraint.
type ChatHistory struct {
	ID         uint   `gorm:"primaryKey"`
	AgentID    string `gorm:"size:64;index"`
	SessionID  string `gorm:"size:64;index"`
	MacAddress string `gorm:"size:64;index"` // opaque device key, no format enforced
	ChatType   int8
	Content    string
	AudioID    *string `gorm:"size:64;index"`
	Metadata   datatypes.JSON
	CreatedAt  time.Time
}
