package api

import (
	"net/http"
	"strings"

	"voiceagent-backend/internal/history"
	"voiceagent-backend/pkg/api"

	"github.com/go-chi/chi/v5"
)

type ChatHistoryService struct {
	store *history.Store
}

func NewChatHistoryService(store *history.Store) *ChatHistoryService {
	return &ChatHistoryService{store: store}
}

func (s *ChatHistoryService) AddRoutes(r chi.Router) {
	r.Route("/agent/chat-history", func(r chi.Router) {
		r.Post("/report", RestHandler(s.Report))
		r.Post("/replace-mac-address", RestHandler(s.ReplaceMacAddress))
		r.Post("/replace-mac-address-json", RestHandler(s.ReplaceMacAddressJSON))
		r.Get("/sessions/{agent_id}", RestHandler(s.ListSessions))
		r.Get("/sessions/{agent_id}/{session_id}", RestHandler(s.SessionMessages))
		r.Get("/recent/agent/{agent_id}", RestHandler(s.RecentUserMessagesByAgent))
		r.Get("/recent/device", RestHandler(s.RecentUserMessagesByDevice))
		r.Get("/recent/device/full", RestHandler(s.RecentConversationByDevice))
		r.Get("/content/{audio_id}", RestHandler(s.ContentByAudioID))
		r.Get("/ownership/{audio_id}/{agent_id}", RestHandler(s.AudioOwnership))
		r.Get("/audio/{audio_id}", s.DownloadAudio)
		r.Delete("/agent/{agent_id}", RestHandler(s.DeleteByAgent))
	})
}

func (s *ChatHistoryService) Report(r *http.Request) (any, error) {
	req, err := ParseRequest[api.ReportedChat](r)
	if err != nil {
		return nil, err
	}
	if req.AgentID == "" || req.SessionID == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "agentId and sessionId must not be blank")
	}

	ok, err := s.store.Report(r.Context(), req)
	if err != nil {
		return nil, err
	}
	return ok, nil
}

type macReplaceParams struct {
	MacAddress    string `schema:"macAddress"`
	NewMacAddress string `schema:"newMacAddress"`
}

func (s *ChatHistoryService) ReplaceMacAddress(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[macReplaceParams](r)
	if err != nil {
		return nil, err
	}
	return s.replaceMacAddress(r, params.MacAddress, params.NewMacAddress)
}

func (s *ChatHistoryService) ReplaceMacAddressJSON(r *http.Request) (any, error) {
	req, err := ParseRequest[api.MacAddressReplace](r)
	if err != nil {
		return nil, err
	}
	return s.replaceMacAddress(r, req.MacAddress, req.NewMacAddress)
}

func (s *ChatHistoryService) replaceMacAddress(r *http.Request, oldMac, newMac string) (any, error) {
	if strings.TrimSpace(oldMac) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "macAddress parameter must not be blank")
	}
	if strings.TrimSpace(newMac) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "newMacAddress parameter must not be blank")
	}

	ok, err := s.store.ReplaceMacAddress(r.Context(), oldMac, newMac)
	if err != nil {
		return nil, err
	}
	return ok, nil
}

type pageParams struct {
	Page  int `schema:"page"`
	Limit int `schema:"limit"`
}

func (s *ChatHistoryService) ListSessions(r *http.Request) (any, error) {
	agentID, err := URLParam(r, "agent_id")
	if err != nil {
		return nil, err
	}
	params, err := ParseRequestQueryParams[pageParams](r)
	if err != nil {
		return nil, err
	}
	return s.store.ListSessions(r.Context(), agentID, params.Page, params.Limit)
}

func (s *ChatHistoryService) SessionMessages(r *http.Request) (any, error) {
	agentID, err := URLParam(r, "agent_id")
	if err != nil {
		return nil, err
	}
	sessionID, err := URLParam(r, "session_id")
	if err != nil {
		return nil, err
	}
	return s.store.SessionMessages(r.Context(), agentID, sessionID)
}

func (s *ChatHistoryService) RecentUserMessagesByAgent(r *http.Request) (any, error) {
	agentID, err := URLParam(r, "agent_id")
	if err != nil {
		return nil, err
	}
	return s.store.RecentUserMessagesByAgent(r.Context(), agentID)
}

type deviceParams struct {
	MacAddress string `schema:"macAddress"`
}

func (s *ChatHistoryService) RecentUserMessagesByDevice(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[deviceParams](r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.MacAddress) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "macAddress parameter must not be blank")
	}
	return s.store.RecentUserMessagesByDevice(r.Context(), params.MacAddress)
}

func (s *ChatHistoryService) RecentConversationByDevice(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[deviceParams](r)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.MacAddress) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "macAddress parameter must not be blank")
	}
	return s.store.RecentConversationByDevice(r.Context(), params.MacAddress)
}

func (s *ChatHistoryService) ContentByAudioID(r *http.Request) (any, error) {
	audioID, err := URLParam(r, "audio_id")
	if err != nil {
		return nil, err
	}
	return s.store.ContentByAudioID(r.Context(), audioID)
}

func (s *ChatHistoryService) AudioOwnership(r *http.Request) (any, error) {
	audioID, err := URLParam(r, "audio_id")
	if err != nil {
		return nil, err
	}
	agentID, err := URLParam(r, "agent_id")
	if err != nil {
		return nil, err
	}
	return s.store.AudioOwnedByAgent(r.Context(), audioID, agentID)
}

// DownloadAudio serves the raw opus payload, so it bypasses the JSON envelope.
func (s *ChatHistoryService) DownloadAudio(w http.ResponseWriter, r *http.Request) {
	audioID := chi.URLParam(r, "audio_id")
	if audioID == "" {
		http.Error(w, "missing {audio_id} url parameter", http.StatusBadRequest)
		return
	}

	payload, err := s.store.AudioByID(r.Context(), audioID)
	if err != nil {
		http.Error(w, "audio not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "audio/ogg")
	w.WriteHeader(http.StatusOK)
	w.Write(payload) //nolint:errcheck
}

type deleteParams struct {
	DeleteAudio bool `schema:"deleteAudio"`
	DeleteText  bool `schema:"deleteText"`
}

func (s *ChatHistoryService) DeleteByAgent(r *http.Request) (any, error) {
	agentID, err := URLParam(r, "agent_id")
	if err != nil {
		return nil, err
	}
	params, err := ParseRequestQueryParams[deleteParams](r)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteByAgent(r.Context(), agentID, params.DeleteAudio, params.DeleteText); err != nil {
		return nil, err
	}
	return true, nil
}
