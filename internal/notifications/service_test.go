package notifications

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
	"github.com/stockline-app/stockline-backend/pkg/logger"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:notifications_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.Exec(`CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`).Error)
	return db
}

type stubPublisher struct {
	published []string
	fail      bool
}

func (p *stubPublisher) Publish(ctx context.Context, channel string, payload any) error {
	if p.fail {
		return fmt.Errorf("broker unavailable")
	}
	p.published = append(p.published, channel)
	return nil
}

func (p *stubPublisher) UserChannel(userID string) string {
	return "notifications:user:" + userID
}

func seedNotification(t *testing.T, db *gorm.DB, userID uuid.UUID, createdAt time.Time) *models.Notification {
	t.Helper()
	row := &models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Type:    enums.NotificationTypePickupAlert,
		Title:   "Title",
		Message: "Body",
	}
	require.NoError(t, db.Create(row).Error)
	require.NoError(t, db.Model(row).UpdateColumn("created_at", createdAt).Error)
	row.CreatedAt = createdAt
	return row
}

func TestFanoutPersistsAndPushes(t *testing.T) {
	t.Parallel()

	db := setupNotificationsTestDB(t)
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	pub := &stubPublisher{}

	fan, err := NewFanout(NewRepository(db), pub, logg)
	require.NoError(t, err)

	a := uuid.New()
	b := uuid.New()
	err = fan.Notify(ctx, nil, Message{
		Recipients: []uuid.UUID{a, b, a, uuid.Nil},
		Type:       enums.NotificationTypePickupAlert,
		Title:      "New stock pickup",
		Body:       "A marketer picked up stock",
	})
	require.NoError(t, err)

	// duplicates and nil recipients are dropped
	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
	require.Len(t, pub.published, 2)
	require.Contains(t, pub.published, "notifications:user:"+a.String())
}

func TestFanoutSurvivesBrokerFailure(t *testing.T) {
	t.Parallel()

	db := setupNotificationsTestDB(t)
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})

	fan, err := NewFanout(NewRepository(db), &stubPublisher{fail: true}, logg)
	require.NoError(t, err)

	err = fan.Notify(ctx, nil, Message{
		Recipients: []uuid.UUID{uuid.New()},
		Type:       enums.NotificationTypeOrderAlert,
		Title:      "Order placed",
		Body:       "An order awaits confirmation",
	})
	require.NoError(t, err)

	// durable row written even though the push failed
	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestFanoutRejectsUnknownType(t *testing.T) {
	t.Parallel()

	db := setupNotificationsTestDB(t)
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	fan, err := NewFanout(NewRepository(db), nil, logg)
	require.NoError(t, err)

	err = fan.Notify(context.Background(), nil, Message{
		Recipients: []uuid.UUID{uuid.New()},
		Type:       enums.NotificationType("smoke_signal"),
		Title:      "x",
		Body:       "y",
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestListPaginatesNewestFirst(t *testing.T) {
	t.Parallel()

	db := setupNotificationsTestDB(t)
	ctx := context.Background()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedNotification(t, db, userID, base.Add(time.Duration(i)*time.Minute))
	}
	seedNotification(t, db, uuid.New(), base)

	first, err := svc.List(ctx, ListParams{UserID: userID, Limit: 3})
	require.NoError(t, err)
	require.Len(t, first.Items, 3)
	require.NotEmpty(t, first.Cursor)
	require.True(t, first.Items[0].CreatedAt.After(first.Items[1].CreatedAt))

	second, err := svc.List(ctx, ListParams{UserID: userID, Limit: 3, Cursor: first.Cursor})
	require.NoError(t, err)
	require.Len(t, second.Items, 2)
	require.Empty(t, second.Cursor)

	seen := map[uuid.UUID]struct{}{}
	for _, n := range append(first.Items, second.Items...) {
		_, dup := seen[n.ID]
		require.False(t, dup)
		seen[n.ID] = struct{}{}
	}
}

func TestListUnreadOnly(t *testing.T) {
	t.Parallel()

	db := setupNotificationsTestDB(t)
	ctx := context.Background()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	userID := uuid.New()
	read := seedNotification(t, db, userID, time.Now().UTC().Add(-2*time.Minute))
	unread := seedNotification(t, db, userID, time.Now().UTC().Add(-time.Minute))
	require.NoError(t, db.Model(read).UpdateColumn("read_at", time.Now().UTC()).Error)

	result, err := svc.List(ctx, ListParams{UserID: userID, Limit: 10, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, unread.ID, result.Items[0].ID)
}

func TestMarkRead(t *testing.T) {
	t.Parallel()

	db := setupNotificationsTestDB(t)
	ctx := context.Background()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	userID := uuid.New()
	row := seedNotification(t, db, userID, time.Now().UTC())

	require.NoError(t, svc.MarkRead(ctx, userID, row.ID))

	var reloaded models.Notification
	require.NoError(t, db.First(&reloaded, "id = ?", row.ID).Error)
	require.NotNil(t, reloaded.ReadAt)

	// marking again is a no-op, not an error
	require.NoError(t, svc.MarkRead(ctx, userID, row.ID))

	// another user's notification is invisible
	err = svc.MarkRead(ctx, uuid.New(), row.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestMarkAllRead(t *testing.T) {
	t.Parallel()

	db := setupNotificationsTestDB(t)
	ctx := context.Background()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)

	userID := uuid.New()
	seedNotification(t, db, userID, time.Now().UTC().Add(-2*time.Minute))
	seedNotification(t, db, userID, time.Now().UTC().Add(-time.Minute))
	seedNotification(t, db, uuid.New(), time.Now().UTC())

	count, err := svc.MarkAllRead(ctx, userID)
	require.NoError(t, err)
	require.EqualValues(t, 2, count)

	var unread int64
	require.NoError(t, db.Model(&models.Notification{}).Where("user_id = ? AND read_at IS NULL", userID).Count(&unread).Error)
	require.EqualValues(t, 0, unread)
}
