package history

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"voiceagent-backend/internal/database"
	"voiceagent-backend/pkg/api"

	"github.com/google/uuid"
)

// Report persists one reported chat turn. When the report embeds base64 audio
// the payload goes to the object store first under a fresh id; a storage
// failure aborts the insert so we never record a dangling audio reference.
func (s *Store) Report(ctx context.Context, req api.ReportedChat) (bool, error) {
	if req.AgentID == "" || req.SessionID == "" {
		return false, fmt.Errorf("agentId and sessionId are required")
	}
	if req.ChatType != database.ChatTypeUser && req.ChatType != database.ChatTypeAgent {
		return false, fmt.Errorf("unknown chat type %d", req.ChatType)
	}

	var audioID *string
	if req.AudioBase64 != "" {
		payload, err := base64.StdEncoding.DecodeString(req.AudioBase64)
		if err != nil {
			return false, fmt.Errorf("invalid base64 audio payload: %w", err)
		}

		id := uuid.NewString()
		if err := s.audio.PutObject(ctx, s.bucket, audioKey(id), bytes.NewReader(payload)); err != nil {
			slog.Error("error storing reported audio", "agent_id", req.AgentID, "error", err)
			return false, fmt.Errorf("failed to store audio payload: %w", err)
		}
		audioID = &id
	}

	createdAt := time.Now()
	if req.ReportTime > 0 {
		createdAt = time.Unix(req.ReportTime, 0)
	}

	record := database.ChatHistory{
		AgentID:    req.AgentID,
		SessionID:  req.SessionID,
		MacAddress: req.MacAddress,
		ChatType:   req.ChatType,
		Content:    req.Content,
		AudioID:    audioID,
		CreatedAt:  createdAt,
	}
	if len(req.Metadata) > 0 {
		metadata, err := json.Marshal(req.Metadata)
		if err != nil {
			return false, fmt.Errorf("invalid report metadata: %w", err)
		}
		record.Metadata = metadata
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		slog.Error("error saving reported chat", "agent_id", req.AgentID, "session_id", req.SessionID, "error", err)
		return false, fmt.Errorf("failed to save reported chat: %w", err)
	}
	return true, nil
}
