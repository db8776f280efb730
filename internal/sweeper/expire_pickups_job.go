package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/internal/notifications"
	"github.com/stockline-app/stockline-backend/internal/pickups"
	"github.com/stockline-app/stockline-backend/internal/users"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	"github.com/stockline-app/stockline-backend/pkg/logger"
	"github.com/stockline-app/stockline-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type notifier interface {
	Notify(ctx context.Context, tx *gorm.DB, msg notifications.Message) error
}

// ExpirePickupsJobParams configure the overdue-pickup sweep.
type ExpirePickupsJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Pickups   pickups.Repository
	Users     users.Repository
	Fanout    notifier
	Metrics   *metrics.SweepJobMetrics
	BatchSize int
}

// NewExpirePickupsJob builds the job that moves overdue pickups to
// return-pending.
func NewExpirePickupsJob(params ExpirePickupsJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Pickups == nil {
		return nil, fmt.Errorf("pickups repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if params.Fanout == nil {
		return nil, fmt.Errorf("notification fanout required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = 200
	}
	return &expirePickupsJob{
		logg:    params.Logger,
		db:      params.DB,
		pickups: params.Pickups,
		users:   params.Users,
		fanout:  params.Fanout,
		metrics: params.Metrics,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type expirePickupsJob struct {
	logg    *logger.Logger
	db      txRunner
	pickups pickups.Repository
	users   users.Repository
	fanout  notifier
	metrics *metrics.SweepJobMetrics
	batch   int
	now     func() time.Time
}

func (j *expirePickupsJob) Name() string { return "expire-pickups" }

// Run expires every overdue pickup in its own transaction. A row that loses
// the race to a concurrent confirmation is skipped, and one row's failure
// never blocks the rest of the batch.
func (j *expirePickupsJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	ids, err := j.pickups.OverdueIDs(ctx, now, j.batch)
	if err != nil {
		return fmt.Errorf("query overdue pickups: %w", err)
	}

	var errs []error
	processed := 0
	for _, id := range ids {
		if err := j.expireOne(ctx, id, now); err != nil {
			rowCtx := j.logg.WithPickupID(ctx, id.String())
			j.logg.Error(rowCtx, "expire pickup failed", err)
			errs = append(errs, err)
			continue
		}
		processed++
	}

	if j.metrics != nil {
		j.metrics.AddProcessed(j.Name(), processed)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"candidates": len(ids), "expired": processed})
	j.logg.Info(logCtx, "pickup expiration loop complete")
	return multierr.Combine(errs...)
}

func (j *expirePickupsJob) expireOne(ctx context.Context, id uuid.UUID, now time.Time) error {
	expired := false
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.pickups.WithTx(tx)

		// status and deadline re-checked inside the update predicate: a
		// pickup confirmed sold since the candidate query is left alone
		affected, err := repo.UpdateGuarded(ctx, id,
			[]enums.PickupStatus{enums.PickupStatusPending, enums.PickupStatusPendingOrder},
			map[string]any{
				"status":              enums.PickupStatusReturnPending,
				"return_requested_at": now,
			})
		if err != nil {
			return fmt.Errorf("expire pickup: %w", err)
		}
		expired = affected > 0
		return nil
	})
	if err != nil || !expired {
		return err
	}

	// the transition is committed; notification trouble is logged, never
	// propagated back into the sweep
	j.notifyExpiry(ctx, id)
	return nil
}

func (j *expirePickupsJob) notifyExpiry(ctx context.Context, id uuid.UUID) {
	rowCtx := j.logg.WithPickupID(ctx, id.String())

	pickup, err := j.pickups.FindByID(ctx, id)
	if err != nil {
		j.logg.Error(rowCtx, "reload expired pickup", err)
		return
	}

	recipients := []uuid.UUID{pickup.MarketerID}
	masters, err := j.users.FindByRole(ctx, enums.UserRoleMasterAdmin)
	if err != nil {
		j.logg.Error(rowCtx, "load master admins", err)
	} else {
		for i := range masters {
			recipients = append(recipients, masters[i].ID)
		}
	}

	err = j.fanout.Notify(ctx, nil, notifications.Message{
		Recipients: recipients,
		Type:       enums.NotificationTypePickupAlert,
		Title:      "Pickup deadline passed",
		Body:       fmt.Sprintf("Pickup %s ran past its deadline and is due for return", pickup.ID),
	})
	if err != nil {
		j.logg.Error(rowCtx, "notify expiry stakeholders", err)
	}
}
