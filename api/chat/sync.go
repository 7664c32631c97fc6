package chat

import (
	"math"
	"net/http"

	"marketplace-messaging/api/auth"
	"marketplace-messaging/messaging"
	"marketplace-messaging/models"
	"marketplace-messaging/utils"
)

// Sync returns every aggregate a polling client refreshes, in one
// response. Reads fail soft so a partial outage still yields a snapshot.
func (s *Service) Sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := auth.ActorFrom(ctx)

	convs, err := s.messaging.ListConversations(ctx, actor)
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}
	notes, err := s.messaging.ListNotifications(ctx, actor, messaging.ListOptions{})
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}
	unread, err := s.messaging.UnreadCount(ctx, actor)
	if err != nil {
		utils.RespondWithFailure(w, err)
		return
	}

	utils.RespondWithData(w, http.StatusOK, "", models.SyncSnapshot{
		Conversations:       convs,
		Notifications:       notes,
		UnreadCount:         unread,
		PollIntervalSeconds: s.pollHintSeconds(),
	})
}

// pollHintSeconds rounds the interval up so clients never see 0
func (s *Service) pollHintSeconds() int {
	secs := int(math.Ceil(s.pollInterval.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
