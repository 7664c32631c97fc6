package chat

import (
	"net/http"

	"marketplace-messaging/api/auth"
	"marketplace-messaging/messaging"
	"marketplace-messaging/utils"

	"github.com/gorilla/mux"
)

// Notifications lists the caller's notifications, newest first.
// Query: limit, unread_only.
func (s *Service) Notifications(w http.ResponseWriter, r *http.Request) {
	opts := messaging.ListOptions{
		Limit:      utils.QueryInt(r, "limit", 0),
		UnreadOnly: utils.QueryBool(r, "unread_only"),
	}

	list, err := s.messaging.ListNotifications(r.Context(), auth.ActorFrom(r.Context()), opts)
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, "", list)
}

// UnreadCount returns the caller's unread notification count
func (s *Service) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := s.messaging.UnreadCount(r.Context(), auth.ActorFrom(r.Context()))
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, "", countResp{UnreadCount: n})
}

// MarkNotificationRead marks one of the caller's notifications as read
func (s *Service) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	n, err := s.messaging.MarkNotificationRead(r.Context(), auth.ActorFrom(r.Context()), id)
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, "Notification marked as read", updatedResp{Updated: n})
}

// MarkAllRead marks every notification of the caller as read
func (s *Service) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.messaging.MarkAllRead(r.Context(), auth.ActorFrom(r.Context()))
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}
	utils.RespondWithData(w, http.StatusOK, "All notifications marked as read", updatedResp{Updated: n})
}
