package messaging_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace-messaging/dao/memdao"
	"marketplace-messaging/messaging"
	"marketplace-messaging/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errBoom = errors.New("connection reset")

type failingNotifications struct {
	*memdao.NotificationStore
}

func (failingNotifications) InsertNotification(context.Context, *models.Notification) error {
	return errBoom
}

func (failingNotifications) QueryNotifications(context.Context, models.NotificationQuery) ([]models.Notification, error) {
	return nil, errBoom
}

func (failingNotifications) CountUnreadNotifications(context.Context, models.Actor) (int64, error) {
	return 0, errBoom
}

func (failingNotifications) MarkAllNotificationsRead(context.Context, models.Actor) (int64, error) {
	return 0, errBoom
}

type failingMessages struct {
	*memdao.MessageStore
}

func (failingMessages) QueryConversation(context.Context, models.Pair) ([]models.Message, error) {
	return nil, errBoom
}

func (failingMessages) SummarizeConversations(context.Context, models.Actor) ([]models.ConversationSummary, error) {
	return nil, errBoom
}

func (failingMessages) MarkConversationRead(context.Context, models.Pair, models.SenderType, time.Time) (int64, error) {
	return 0, errBoom
}

type recordingAlerter struct {
	recipients []models.Counterpart
	alerts     []models.Notification
}

func (a *recordingAlerter) NotificationCreated(recipient models.Counterpart, n models.Notification) {
	a.recipients = append(a.recipients, recipient)
	a.alerts = append(a.alerts, n)
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(event string, _ interface{}) error {
	p.events = append(p.events, event)
	return nil
}

func runNow(f func()) { f() }

func TestNotificationListingAndReadState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, messaging.WithPageSize(3))

	for i := 0; i < 5; i++ {
		f.send(t, f.user, f.seller, "message")
	}
	f.send(t, f.seller, f.user, "for the user")

	list, err := f.svc.ListNotifications(ctx, f.seller, messaging.ListOptions{})
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected page of 3, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.After(list[i-1].CreatedAt) {
			t.Fatalf("notifications must be newest first")
		}
	}
	for _, n := range list {
		if n.RecipientID != f.seller.ID {
			t.Fatalf("listing leaked another recipient's notification: %+v", n)
		}
	}

	list, _ = f.svc.ListNotifications(ctx, f.seller, messaging.ListOptions{Limit: 100})
	if len(list) != 3 {
		t.Fatalf("limit above page size must be capped, got %d", len(list))
	}

	changed, err := f.svc.MarkNotificationRead(ctx, f.seller, list[0].ID.Hex())
	if err != nil || changed != 1 {
		t.Fatalf("expected 1 change, got %d (err=%v)", changed, err)
	}
	changed, err = f.svc.MarkNotificationRead(ctx, f.seller, list[0].ID.Hex())
	if err != nil || changed != 0 {
		t.Fatalf("expected idempotent mark, got %d (err=%v)", changed, err)
	}

	count, _ := f.svc.UnreadCount(ctx, f.seller)
	if count != 4 {
		t.Fatalf("expected 4 unread, got %d", count)
	}

	unread, _ := f.svc.ListNotifications(ctx, f.seller, messaging.ListOptions{Limit: 10, UnreadOnly: true})
	for _, n := range unread {
		if n.IsRead || n.ID == list[0].ID {
			t.Fatalf("unread listing returned a read notification: %+v", n)
		}
	}

	changed, err = f.svc.MarkAllRead(ctx, f.seller)
	if err != nil || changed != 4 {
		t.Fatalf("expected 4 changes, got %d (err=%v)", changed, err)
	}
	changed, _ = f.svc.MarkAllRead(ctx, f.seller)
	if changed != 0 {
		t.Fatalf("expected no changes on repeat, got %d", changed)
	}

	count, _ = f.svc.UnreadCount(ctx, f.user)
	if count != 1 {
		t.Fatalf("marking the seller's notifications must not touch the user's, got %d", count)
	}
}

func TestMarkNotificationReadIsScopedToRecipient(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.send(t, f.user, f.seller, "hello")
	n := f.notifications.Notifications()[0]

	_, err := f.svc.MarkNotificationRead(ctx, f.user, n.ID.Hex())
	if !errors.Is(err, messaging.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another party's notification, got %v", err)
	}
	if f.notifications.Notifications()[0].IsRead {
		t.Fatalf("notification of another recipient was changed")
	}

	_, err = f.svc.MarkNotificationRead(ctx, f.seller, primitive.NewObjectID().Hex())
	if !errors.Is(err, messaging.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
	_, err = f.svc.MarkNotificationRead(ctx, f.seller, "zzz")
	if !errors.Is(err, messaging.ErrValidation) {
		t.Fatalf("expected ErrValidation for malformed id, got %v", err)
	}
}

func TestNotifyFromOtherEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	long := ""
	for i := 0; i < 150; i++ {
		long += "x"
	}

	n, err := f.svc.Notify(ctx, messaging.NotifyReq{
		RecipientID:   f.seller.ID.Hex(),
		RecipientType: models.KindSeller,
		Type:          models.OrderN,
		Title:         "New order",
		Body:          long,
		RelatedID:     "order-1",
		RelatedType:   models.RelatedOrder,
	})
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if n.Type != models.OrderN || n.RelatedType != models.RelatedOrder {
		t.Fatalf("unexpected notification %+v", n)
	}
	if len([]rune(n.Body)) != messaging.PreviewLimit+1 {
		t.Fatalf("expected truncated body, got %d characters", len([]rune(n.Body)))
	}

	if _, err := f.svc.Notify(ctx, messaging.NotifyReq{RecipientID: f.seller.ID.Hex(), RecipientType: "admin", Title: "x"}); !errors.Is(err, messaging.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad recipient type, got %v", err)
	}
	if _, err := f.svc.Notify(ctx, messaging.NotifyReq{RecipientID: f.seller.ID.Hex(), RecipientType: models.KindSeller}); !errors.Is(err, messaging.ErrValidation) {
		t.Fatalf("expected ErrValidation for missing title, got %v", err)
	}
}

func TestSendMessageKeepsMessageWhenFanOutFails(t *testing.T) {
	messages := memdao.NewMessageStore()
	directory := memdao.NewDirectory()
	user := &models.Actor{ID: directory.AddUser("ada", ""), Kind: models.KindUser}
	seller := directory.AddSeller("Corner Shop", "")

	svc := messaging.NewService(messages, failingNotifications{memdao.NewNotificationStore()}, directory)

	msg, err := svc.SendMessage(context.Background(), user, seller.Hex(), "hello")
	if !errors.Is(err, messaging.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected the cause to be wrapped, got %v", err)
	}
	if msg == nil {
		t.Fatalf("expected the persisted message to be returned")
	}
	if len(messages.Messages()) != 1 {
		t.Fatalf("message must stay persisted, got %d rows", len(messages.Messages()))
	}
	if messaging.UserMessage(err) == errBoom.Error() {
		t.Fatalf("store internals leaked to the caller")
	}
}

func TestReadsFailSoft(t *testing.T) {
	ctx := context.Background()
	directory := memdao.NewDirectory()
	user := &models.Actor{ID: directory.AddUser("ada", ""), Kind: models.KindUser}
	seller := directory.AddSeller("Corner Shop", "")

	svc := messaging.NewService(
		failingMessages{memdao.NewMessageStore()},
		failingNotifications{memdao.NewNotificationStore()},
		directory,
	)

	msgs, err := svc.GetConversation(ctx, user, seller.Hex())
	if err != nil || len(msgs) != 0 {
		t.Fatalf("expected empty conversation, got %v (err=%v)", msgs, err)
	}
	convs, err := svc.ListConversations(ctx, user)
	if err != nil || len(convs) != 0 {
		t.Fatalf("expected empty inbox, got %v (err=%v)", convs, err)
	}
	notes, err := svc.ListNotifications(ctx, user, messaging.ListOptions{})
	if err != nil || len(notes) != 0 {
		t.Fatalf("expected empty notifications, got %v (err=%v)", notes, err)
	}
	count, err := svc.UnreadCount(ctx, user)
	if err != nil || count != 0 {
		t.Fatalf("expected zero unread, got %d (err=%v)", count, err)
	}

	// writes surface the failure
	if _, err := svc.MarkAsRead(ctx, user, seller.Hex()); !errors.Is(err, messaging.ErrStore) {
		t.Fatalf("expected ErrStore from MarkAsRead, got %v", err)
	}
	if _, err := svc.MarkAllRead(ctx, user); !errors.Is(err, messaging.ErrStore) {
		t.Fatalf("expected ErrStore from MarkAllRead, got %v", err)
	}
}

func TestAlertsAndEvents(t *testing.T) {
	ctx := context.Background()
	alerter := &recordingAlerter{}
	publisher := &recordingPublisher{}
	f := newFixture(t,
		messaging.WithAlerter(alerter),
		messaging.WithPublisher(publisher),
		messaging.WithAsync(runNow),
	)

	f.send(t, f.user, f.seller, "hello")
	if _, err := f.svc.MarkAsRead(ctx, f.seller, f.user.ID.Hex()); err != nil {
		t.Fatalf("MarkAsRead failed: %v", err)
	}
	if _, err := f.svc.MarkAsRead(ctx, f.seller, f.user.ID.Hex()); err != nil {
		t.Fatalf("MarkAsRead failed: %v", err)
	}
	if _, err := f.svc.MarkAllRead(ctx, f.seller); err != nil {
		t.Fatalf("MarkAllRead failed: %v", err)
	}

	if len(alerter.alerts) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(alerter.alerts))
	}
	if alerter.recipients[0].Email != "shop@example.com" || alerter.recipients[0].Kind != models.KindSeller {
		t.Fatalf("alert sent to wrong recipient: %+v", alerter.recipients[0])
	}

	want := []string{
		messaging.EventMessageSent,
		messaging.EventNotificationCreated,
		messaging.EventConversationRead,
		messaging.EventNotificationsRead,
	}
	if len(publisher.events) != len(want) {
		t.Fatalf("expected events %v, got %v", want, publisher.events)
	}
	for i := range want {
		if publisher.events[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, publisher.events)
		}
	}
}

type countingDirectory struct {
	*memdao.Directory
	batches int
}

func (d *countingDirectory) LookupMany(ctx context.Context, kind models.ActorKind, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Counterpart, error) {
	d.batches++
	return d.Directory.LookupMany(ctx, kind, ids)
}

func TestUnreadMessageCountSkipsDirectory(t *testing.T) {
	ctx := context.Background()
	directory := &countingDirectory{Directory: memdao.NewDirectory()}
	user := &models.Actor{ID: directory.AddUser("ada", ""), Kind: models.KindUser}
	seller := &models.Actor{ID: directory.AddSeller("Corner Shop", ""), Kind: models.KindSeller}

	svc := messaging.NewService(memdao.NewMessageStore(), memdao.NewNotificationStore(), directory)
	for _, body := range []string{"one", "two"} {
		if _, err := svc.SendMessage(ctx, user, seller.ID.Hex(), body); err != nil {
			t.Fatalf("SendMessage failed: %v", err)
		}
	}

	n, err := svc.UnreadMessageCount(ctx, seller)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 unread, got %d (err=%v)", n, err)
	}
	if directory.batches != 0 {
		t.Fatalf("unread count resolved counterparts %d times", directory.batches)
	}

	broken := messaging.NewService(failingMessages{memdao.NewMessageStore()}, memdao.NewNotificationStore(), directory)
	n, err = broken.UnreadMessageCount(ctx, seller)
	if err != nil || n != 0 {
		t.Fatalf("expected soft zero, got %d (err=%v)", n, err)
	}
	if _, err := broken.UnreadMessageCount(ctx, nil); !errors.Is(err, messaging.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

type blockingAlerter struct {
	release chan struct{}
	sent    chan string
}

func (a *blockingAlerter) NotificationCreated(_ models.Counterpart, n models.Notification) {
	<-a.release
	a.sent <- n.Title
}

func TestDrainWaitsForAlerts(t *testing.T) {
	alerter := &blockingAlerter{release: make(chan struct{}), sent: make(chan string, 1)}
	f := newFixture(t, messaging.WithAlerter(alerter))

	f.send(t, f.user, f.seller, "hello")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := f.svc.Drain(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected Drain to wait for the blocked alert, got %v", err)
	}

	close(alerter.release)
	if err := f.svc.Drain(context.Background()); err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	select {
	case <-alerter.sent:
	default:
		t.Fatalf("alert had not finished when Drain returned")
	}
}
