package chat

import (
	"net/http"
	"time"

	"marketplace-messaging/api/auth"
	"marketplace-messaging/messaging"
	"marketplace-messaging/models"
	"marketplace-messaging/utils"

	"github.com/gorilla/mux"
)

// Service serves conversations, notifications and the sync snapshot
type Service struct {
	messaging    *messaging.Service
	pollInterval time.Duration
}

// NewChatService returns a chat service object
func NewChatService(svc *messaging.Service, pollInterval time.Duration) *Service {
	return &Service{messaging: svc, pollInterval: pollInterval}
}

// Register mounts every route on r behind useAuth
func (s *Service) Register(r *mux.Router, useAuth func(http.HandlerFunc) http.HandlerFunc) {
	conversations := r.PathPrefix("/conversations").Subrouter()
	notifications := r.PathPrefix("/notifications").Subrouter()

	conversations.HandleFunc("", useAuth(s.ListConversations)).Methods("GET")
	conversations.HandleFunc("/unread-count", useAuth(s.UnreadMessageCount)).Methods("GET")
	conversations.HandleFunc("/{counterpartId}", useAuth(s.GetConversation)).Methods("GET")
	conversations.HandleFunc("/{counterpartId}/messages", useAuth(s.SendMessage)).Methods("POST")
	conversations.HandleFunc("/{counterpartId}/read", useAuth(s.MarkAsRead)).Methods("PUT")

	notifications.HandleFunc("", useAuth(s.Notifications)).Methods("GET")
	notifications.HandleFunc("/unread-count", useAuth(s.UnreadCount)).Methods("GET")
	notifications.HandleFunc("/read", useAuth(s.MarkAllRead)).Methods("PUT")
	notifications.HandleFunc("/{id}/read", useAuth(s.MarkNotificationRead)).Methods("PUT")

	r.HandleFunc("/sync", useAuth(s.Sync)).Methods("GET")
}

type countResp struct {
	UnreadCount int64 `json:"unread_count"`
}

type updatedResp struct {
	Updated int64 `json:"updated"`
}

// ListConversations returns the caller's inbox
func (s *Service) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.messaging.ListConversations(r.Context(), auth.ActorFrom(r.Context()))
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, "", convs)
}

// UnreadMessageCount returns the unread total across the caller's conversations
func (s *Service) UnreadMessageCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.messaging.UnreadMessageCount(r.Context(), auth.ActorFrom(r.Context()))
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, "", countResp{UnreadCount: n})
}

// GetConversation returns the messages exchanged with a counterpart
func (s *Service) GetConversation(w http.ResponseWriter, r *http.Request) {
	counterpartID := mux.Vars(r)["counterpartId"]

	msgs, err := s.messaging.GetConversation(r.Context(), auth.ActorFrom(r.Context()), counterpartID)
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, "", msgs)
}

// SendMessage posts a message to a counterpart
func (s *Service) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req models.SendMessageReq
	if err := utils.DecodeReq(r, &req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request data sent")
		return
	}
	counterpartID := mux.Vars(r)["counterpartId"]

	msg, err := s.messaging.SendMessage(r.Context(), auth.ActorFrom(r.Context()), counterpartID, req.Body)
	if err != nil {
		if msg != nil {
			// persisted, but the counterpart was not notified
			code := utils.StatusFor(err)
			utils.RespondWithJSON(w, code, utils.Response{
				Status: "error",
				Code:   code,
				Error:  messaging.UserMessage(err),
				Data:   msg,
			})
			return
		}
		utils.RespondWithFailure(w, err)
		return
	}
	utils.RespondWithData(w, http.StatusCreated, "Message sent", msg)
}

// MarkAsRead marks the counterpart's messages in a conversation as read
func (s *Service) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	counterpartID := mux.Vars(r)["counterpartId"]

	n, err := s.messaging.MarkAsRead(r.Context(), auth.ActorFrom(r.Context()), counterpartID)
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, "Conversation marked as read", updatedResp{Updated: n})
}
