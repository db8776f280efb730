package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockline-app/stockline-backend/internal/allowance"
	"github.com/stockline-app/stockline-backend/internal/inventory"
	"github.com/stockline-app/stockline-backend/internal/notifications"
	"github.com/stockline-app/stockline-backend/internal/orders"
	"github.com/stockline-app/stockline-backend/internal/pickups"
	"github.com/stockline-app/stockline-backend/internal/transfers"
	"github.com/stockline-app/stockline-backend/pkg/config"
	"github.com/stockline-app/stockline-backend/pkg/db/models"
	"github.com/stockline-app/stockline-backend/pkg/enums"
	"github.com/stockline-app/stockline-backend/pkg/logger"
	"github.com/stockline-app/stockline-backend/pkg/redis"
	"github.com/stockline-app/stockline-backend/pkg/types"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubPickupsService struct{}

func (stubPickupsService) Create(ctx context.Context, input pickups.CreateInput) (*models.Pickup, error) {
	return &models.Pickup{ID: uuid.New()}, nil
}

func (stubPickupsService) RequestReturn(ctx context.Context, input pickups.ReturnInput) error {
	return nil
}

func (stubPickupsService) ConfirmReturn(ctx context.Context, pickupID uuid.UUID, actor types.Actor) error {
	return nil
}

func (stubPickupsService) Get(ctx context.Context, pickupID uuid.UUID, actor types.Actor) (*models.Pickup, error) {
	return &models.Pickup{ID: pickupID}, nil
}

func (stubPickupsService) List(ctx context.Context, input pickups.ListInput) (*pickups.ListResult, error) {
	return &pickups.ListResult{}, nil
}

type stubOrdersService struct{}

func (stubOrdersService) Place(ctx context.Context, input orders.PlaceInput) (*models.Order, error) {
	return &models.Order{ID: uuid.New()}, nil
}

func (stubOrdersService) Confirm(ctx context.Context, input orders.ConfirmInput) error {
	return nil
}

func (stubOrdersService) Cancel(ctx context.Context, input orders.CancelInput) error {
	return nil
}

func (stubOrdersService) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return &models.Order{ID: orderID}, nil
}

type stubTransfersService struct{}

func (stubTransfersService) Request(ctx context.Context, input transfers.RequestInput) error {
	return nil
}

func (stubTransfersService) Review(ctx context.Context, input transfers.ReviewInput) error {
	return nil
}

type stubAllowanceService struct{}

func (stubAllowanceService) Request(ctx context.Context, marketerID uuid.UUID) (*models.AdditionalPickupRequest, error) {
	return &models.AdditionalPickupRequest{ID: uuid.New()}, nil
}

func (stubAllowanceService) Review(ctx context.Context, requestID, reviewerID uuid.UUID, decision allowance.Decision) error {
	return nil
}

func (stubAllowanceService) ListPending(ctx context.Context) ([]models.AdditionalPickupRequest, error) {
	return nil, nil
}

func (stubAllowanceService) AllowanceFor(ctx context.Context, tx *gorm.DB, marketerID uuid.UUID) (int, *models.AdditionalPickupRequest, error) {
	return 1, nil, nil
}

func (stubAllowanceService) Consume(ctx context.Context, tx *gorm.DB, requestID uuid.UUID) error {
	return nil
}

type stubInventoryService struct{}

func (stubInventoryService) Intake(ctx context.Context, input inventory.IntakeInput) error {
	return nil
}

func (stubInventoryService) Availability(ctx context.Context, productID uuid.UUID) (*inventory.Availability, error) {
	return &inventory.Availability{}, nil
}

type stubNotificationsService struct{}

func (stubNotificationsService) List(ctx context.Context, params notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotificationsService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return nil
}

func (stubNotificationsService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return 0, nil
}

func newTestRouter() http.Handler {
	cfg := &config.Config{App: config.AppConfig{Env: "test", Port: "0"}}
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		(*redis.Client)(nil),
		Services{
			Pickups:       stubPickupsService{},
			Orders:        stubOrdersService{},
			Transfers:     stubTransfersService{},
			Allowance:     stubAllowanceService{},
			Inventory:     stubInventoryService{},
			Notifications: stubNotificationsService{},
		},
	)
}

func identify(req *http.Request, role enums.UserRole) {
	req.Header.Set("X-User-Id", uuid.NewString())
	req.Header.Set("X-User-Role", string(role))
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestAPIGroupRejectsMissingIdentity(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pickups", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity headers got %d", resp.Code)
	}
}

func TestAPIGroupRejectsUnknownRole(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/pickups", nil)
	req.Header.Set("X-User-Id", uuid.NewString())
	req.Header.Set("X-User-Role", "warehouse_gnome")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown role got %d", resp.Code)
	}
}

func TestPickupCreationRequiresMarketer(t *testing.T) {
	router := newTestRouter()
	body := `{"product_id":"` + uuid.NewString() + `","quantity":1}`

	dealer := httptest.NewRequest(http.MethodPost, "/api/v1/pickups", strings.NewReader(body))
	identify(dealer, enums.UserRoleDealer)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, dealer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for dealer got %d", resp.Code)
	}

	marketer := httptest.NewRequest(http.MethodPost, "/api/v1/pickups", strings.NewReader(body))
	identify(marketer, enums.UserRoleMarketer)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, marketer)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for marketer got %d", resp.Code)
	}
}

func TestTransferReviewRequiresAdminTier(t *testing.T) {
	router := newTestRouter()
	path := "/api/v1/pickups/" + uuid.NewString() + "/transfer/review"
	body := `{"decision":"approve"}`

	marketer := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	identify(marketer, enums.UserRoleMarketer)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, marketer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for marketer got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	identify(admin, enums.UserRoleAdmin)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestOrderConfirmationAcceptsEveryAdminTier(t *testing.T) {
	router := newTestRouter()
	path := "/api/v1/orders/" + uuid.NewString() + "/confirm"

	for _, role := range []enums.UserRole{enums.UserRoleAdmin, enums.UserRoleSuperAdmin, enums.UserRoleMasterAdmin} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		identify(req, role)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", role, resp.Code)
		}
	}

	dealer := httptest.NewRequest(http.MethodPost, path, nil)
	identify(dealer, enums.UserRoleDealer)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, dealer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for dealer got %d", resp.Code)
	}
}

func TestIntakeRequiresDealer(t *testing.T) {
	router := newTestRouter()
	body := `{"product_id":"` + uuid.NewString() + `","quantity":5}`

	marketer := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/intake", strings.NewReader(body))
	identify(marketer, enums.UserRoleMarketer)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, marketer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for marketer got %d", resp.Code)
	}

	dealer := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/intake", strings.NewReader(body))
	identify(dealer, enums.UserRoleDealer)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, dealer)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 for dealer got %d", resp.Code)
	}
}

func TestPlaceOrderRejectsBadJSON(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader("{"))
	identify(req, enums.UserRoleMarketer)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}
