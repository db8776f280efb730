package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stockline-app/stockline-backend/api/middleware"
	"github.com/stockline-app/stockline-backend/api/responses"
	"github.com/stockline-app/stockline-backend/api/validators"
	"github.com/stockline-app/stockline-backend/internal/inventory"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
	"github.com/stockline-app/stockline-backend/pkg/logger"
)

// IntakeStock registers a batch of physical devices arriving at a dealer.
func IntakeStock(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input inventory.IntakeInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.ActorID = middleware.ActorFromContext(r.Context()).ID

		if err := svc.Intake(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"product_id": input.ProductID,
			"quantity":   input.Quantity,
		})
	}
}

// ProductAvailability reports the per-status unit counts for a product.
func ProductAvailability(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "productID")
		productID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		availability, err := svc.Availability(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, availability)
	}
}
