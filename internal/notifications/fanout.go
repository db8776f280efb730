package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
	"github.com/stockline-app/stockline-backend/pkg/logger"
)

// Message is one lifecycle event delivered to a set of recipients.
type Message struct {
	Recipients []uuid.UUID
	Type       enums.NotificationType
	Title      string
	Body       string
}

// Fanout persists a notification row per recipient and pushes a real-time
// payload. The durable rows share the caller's transaction; the push is best
// effort and never fails the workflow.
type Fanout interface {
	Notify(ctx context.Context, tx *gorm.DB, msg Message) error
}

type publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
	UserChannel(userID string) string
}

type fanout struct {
	repo Repository
	pub  publisher
	logg *logger.Logger
}

// NewFanout wires the fan-out with its durable store and push publisher.
func NewFanout(repo Repository, pub publisher, logg *logger.Logger) (Fanout, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &fanout{repo: repo, pub: pub, logg: logg}, nil
}

type pushPayload struct {
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	CreatedAt time.Time              `json:"created_at"`
}

func (f *fanout) Notify(ctx context.Context, tx *gorm.DB, msg Message) error {
	if len(msg.Recipients) == 0 {
		return nil
	}
	if !msg.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown notification type")
	}

	repo := f.repo.WithTx(tx)
	now := time.Now().UTC()

	seen := map[uuid.UUID]struct{}{}
	for _, recipient := range msg.Recipients {
		if recipient == uuid.Nil {
			continue
		}
		if _, dup := seen[recipient]; dup {
			continue
		}
		seen[recipient] = struct{}{}

		row := &models.Notification{
			ID:      uuid.New(),
			UserID:  recipient,
			Type:    msg.Type,
			Title:   msg.Title,
			Message: msg.Body,
		}
		if err := repo.Create(ctx, row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notification")
		}

		f.push(ctx, recipient, pushPayload{
			Type:      msg.Type,
			Title:     msg.Title,
			Message:   msg.Body,
			CreatedAt: now,
		})
	}
	return nil
}

// push delivers the real-time copy. Failures are logged and swallowed so a
// flaky broker never rolls back a committed state transition.
func (f *fanout) push(ctx context.Context, recipient uuid.UUID, payload pushPayload) {
	if f.pub == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		f.logg.Error(ctx, "marshal push payload", err)
		return
	}
	channel := f.pub.UserChannel(recipient.String())
	if err := f.pub.Publish(ctx, channel, body); err != nil {
		f.logg.Error(ctx, "publish notification push", err)
	}
}
