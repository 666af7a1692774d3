package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voiceagent-backend/internal/database"
	"voiceagent-backend/internal/storage"
	"voiceagent-backend/pkg/api"

	"gorm.io/gorm"
)

const recentMessageLimit = 50

const defaultSessionPageSize = 10

// Options carry the named query policies. RelaxAudioFilter controls the
// device recent-user query: when the audio-filtered result is empty, re-run
// the query without requiring an audio reference. Disabling it makes an empty
// result stay empty, which exposes ingestion gaps instead of masking them.
type Options struct {
	RelaxAudioFilter bool
}

// Store implements every chat-history operation over the database and the
// audio object store.
type Store struct {
	db     *gorm.DB
	audio  storage.Provider
	bucket string
	opts   Options
}

func NewStore(db *gorm.DB, audio storage.Provider, bucket string, opts Options) *Store {
	return &Store{db: db, audio: audio, bucket: bucket, opts: opts}
}

func audioKey(audioID string) string {
	return audioID + ".opus"
}

// ReplaceMacAddress rewrites every row keyed by oldMac to newMac in a single
// transaction. Both identifiers are treated as opaque strings. Zero matched
// rows is still a success: a device that never reported is not an error.
// Returns false without touching storage when either identifier is blank.
func (s *Store) ReplaceMacAddress(ctx context.Context, oldMac, newMac string) (bool, error) {
	if strings.TrimSpace(oldMac) == "" || strings.TrimSpace(newMac) == "" {
		return false, nil
	}

	var affected int64
	err := s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		res := txn.Model(&database.ChatHistory{}).
			Where("mac_address = ?", oldMac).
			Update("mac_address", newMac)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		slog.Error("error replacing chat history mac address", "error", err)
		return false, fmt.Errorf("failed to replace mac address: %w", err)
	}

	slog.Info("replaced chat history mac address", "rows", affected)
	return true, nil
}

type sessionRow struct {
	SessionID     string    `gorm:"column:session_id"`
	LastCreatedAt time.Time `gorm:"column:last_created_at"`
	ChatCount     int64     `gorm:"column:chat_count"`
}

// ListSessions groups an agent's history into sessions ordered by most recent
// activity, with offset pagination. Total counts distinct sessions, not rows.
func (s *Store) ListSessions(ctx context.Context, agentID string, page, limit int) (api.PageData[api.SessionSummary], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultSessionPageSize
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&database.ChatHistory{}).
		Where("agent_id = ?", agentID).
		Distinct("session_id").
		Count(&total).Error; err != nil {
		slog.Error("error counting chat sessions", "agent_id", agentID, "error", err)
		return api.PageData[api.SessionSummary]{}, fmt.Errorf("failed to count sessions: %w", err)
	}

	var rows []sessionRow
	if err := s.db.WithContext(ctx).Model(&database.ChatHistory{}).
		Select("session_id, MAX(created_at) AS last_created_at, COUNT(*) AS chat_count").
		Where("agent_id = ?", agentID).
		Group("session_id").
		Order("last_created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Scan(&rows).Error; err != nil {
		slog.Error("error listing chat sessions", "agent_id", agentID, "error", err)
		return api.PageData[api.SessionSummary]{}, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]api.SessionSummary, len(rows))
	for i, row := range rows {
		sessions[i] = api.SessionSummary{
			SessionID: row.SessionID,
			CreatedAt: row.LastCreatedAt,
			ChatCount: row.ChatCount,
		}
	}
	return api.PageData[api.SessionSummary]{List: sessions, Total: total}, nil
}

// SessionMessages returns one session's records in conversation order.
func (s *Store) SessionMessages(ctx context.Context, agentID, sessionID string) ([]api.ChatMessage, error) {
	var rows []database.ChatHistory
	if err := s.db.WithContext(ctx).
		Where("agent_id = ? AND session_id = ?", agentID, sessionID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		slog.Error("error loading session messages", "agent_id", agentID, "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("failed to load session messages: %w", err)
	}
	return toChatMessages(rows), nil
}

// RecentUserMessagesByAgent returns the agent's most recent audio-bearing user
// turns, newest first. Ordering by id avoids a created_at sort: ids are
// assigned in insertion order and indexed.
func (s *Store) RecentUserMessagesByAgent(ctx context.Context, agentID string) ([]api.UserMessage, error) {
	var rows []database.ChatHistory
	if err := s.db.WithContext(ctx).
		Select("content", "audio_id").
		Where("agent_id = ? AND chat_type = ?", agentID, database.ChatTypeUser).
		Where("audio_id IS NOT NULL").
		Order("id DESC").
		Limit(recentMessageLimit).
		Find(&rows).Error; err != nil {
		slog.Error("error loading recent user messages", "agent_id", agentID, "error", err)
		return nil, fmt.Errorf("failed to load recent user messages: %w", err)
	}
	return toUserMessages(rows), nil
}

// RecentUserMessagesByDevice is the device-keyed variant. When no audio-bearing
// user turns exist and RelaxAudioFilter is enabled, the audio requirement is
// dropped and the query re-run.
func (s *Store) RecentUserMessagesByDevice(ctx context.Context, macAddress string) ([]api.UserMessage, error) {
	query := func(requireAudio bool) ([]database.ChatHistory, error) {
		q := s.db.WithContext(ctx).
			Select("content", "audio_id").
			Where("mac_address = ? AND chat_type = ?", macAddress, database.ChatTypeUser)
		if requireAudio {
			q = q.Where("audio_id IS NOT NULL")
		}
		var rows []database.ChatHistory
		err := q.Order("id DESC").Limit(recentMessageLimit).Find(&rows).Error
		return rows, err
	}

	rows, err := query(true)
	if err != nil {
		slog.Error("error loading recent device messages", "mac_address", macAddress, "error", err)
		return nil, fmt.Errorf("failed to load recent device messages: %w", err)
	}

	if len(rows) == 0 && s.opts.RelaxAudioFilter {
		slog.Debug("no audio-bearing user messages for device, relaxing audio filter", "mac_address", macAddress)
		rows, err = query(false)
		if err != nil {
			slog.Error("error loading recent device messages", "mac_address", macAddress, "error", err)
			return nil, fmt.Errorf("failed to load recent device messages: %w", err)
		}
	}

	return toUserMessages(rows), nil
}

// RecentConversationByDevice returns up to 50 turns of both speakers for a
// device, oldest first, with no audio filtering.
func (s *Store) RecentConversationByDevice(ctx context.Context, macAddress string) ([]api.ChatMessage, error) {
	var rows []database.ChatHistory
	if err := s.db.WithContext(ctx).
		Where("mac_address = ?", macAddress).
		Order("id ASC").
		Limit(recentMessageLimit).
		Find(&rows).Error; err != nil {
		slog.Error("error loading device conversation", "mac_address", macAddress, "error", err)
		return nil, fmt.Errorf("failed to load device conversation: %w", err)
	}
	return toChatMessages(rows), nil
}

// ContentByAudioID returns the raw (unextracted) content of the record holding
// the given audio reference, or empty when no record holds it.
func (s *Store) ContentByAudioID(ctx context.Context, audioID string) (string, error) {
	var record database.ChatHistory
	err := s.db.WithContext(ctx).
		Select("content").
		Where("audio_id = ?", audioID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		slog.Error("error loading content by audio id", "audio_id", audioID, "error", err)
		return "", fmt.Errorf("failed to load content by audio id: %w", err)
	}
	return record.Content, nil
}

// AudioOwnedByAgent reports whether exactly one record pairs the audio id with
// the agent. More than one match means the data is ambiguous and the audio is
// treated as not owned.
func (s *Store) AudioOwnedByAgent(ctx context.Context, audioID, agentID string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&database.ChatHistory{}).
		Where("audio_id = ? AND agent_id = ?", audioID, agentID).
		Count(&count).Error; err != nil {
		slog.Error("error checking audio ownership", "audio_id", audioID, "agent_id", agentID, "error", err)
		return false, fmt.Errorf("failed to check audio ownership: %w", err)
	}
	return count == 1, nil
}

// AudioByID streams a stored audio payload back out of the object store.
func (s *Store) AudioByID(ctx context.Context, audioID string) ([]byte, error) {
	return s.audio.GetObject(ctx, s.bucket, audioKey(audioID))
}

// DeleteByAgent applies up to three conditional deletions in one transaction:
// stored audio payloads, just the audio references (when audio is deleted but
// text retained), or the rows themselves. Object-store removal happens after
// commit and is best-effort.
func (s *Store) DeleteByAgent(ctx context.Context, agentID string, deleteAudio, deleteText bool) error {
	var audioIDs []string
	err := s.db.WithContext(ctx).Transaction(func(txn *gorm.DB) error {
		if deleteAudio {
			if err := txn.Model(&database.ChatHistory{}).
				Where("agent_id = ? AND audio_id IS NOT NULL", agentID).
				Pluck("audio_id", &audioIDs).Error; err != nil {
				return err
			}
		}
		if deleteAudio && !deleteText {
			if err := txn.Model(&database.ChatHistory{}).
				Where("agent_id = ?", agentID).
				Update("audio_id", nil).Error; err != nil {
				return err
			}
		}
		if deleteText {
			if err := txn.Where("agent_id = ?", agentID).
				Delete(&database.ChatHistory{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("error deleting agent chat history", "agent_id", agentID, "error", err)
		return fmt.Errorf("failed to delete agent chat history: %w", err)
	}

	for _, id := range audioIDs {
		if err := s.audio.DeleteObject(ctx, s.bucket, audioKey(id)); err != nil {
			slog.Warn("failed to delete stored audio payload", "audio_id", id, "error", err)
		}
	}
	return nil
}

func toChatMessages(rows []database.ChatHistory) []api.ChatMessage {
	messages := make([]api.ChatMessage, len(rows))
	for i, row := range rows {
		messages[i] = api.ChatMessage{
			CreatedAt: row.CreatedAt,
			ChatType:  row.ChatType,
			Content:   ExtractContent(row.Content),
			AudioID:   row.AudioID,
		}
	}
	return messages
}

func toUserMessages(rows []database.ChatHistory) []api.UserMessage {
	messages := make([]api.UserMessage, len(rows))
	for i, row := range rows {
		messages[i] = api.UserMessage{
			Content: ExtractContent(row.Content),
			AudioID: row.AudioID,
		}
	}
	return messages
}
