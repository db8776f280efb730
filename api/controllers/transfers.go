package controllers

import (
	"net/http"

	"github.com/stockline-app/stockline-backend/api/middleware"
	"github.com/stockline-app/stockline-backend/api/responses"
	"github.com/stockline-app/stockline-backend/api/validators"
	"github.com/stockline-app/stockline-backend/internal/transfers"
	"github.com/stockline-app/stockline-backend/pkg/logger"
)

// RequestTransfer asks to hand the caller's pickup to another marketer.
func RequestTransfer(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pickupID, err := pickupIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input transfers.RequestInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.PickupID = pickupID
		input.Actor = middleware.ActorFromContext(r.Context())

		if err := svc.Request(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "transfer_pending"})
	}
}

type reviewTransferBody struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

// ReviewTransfer applies the admin verdict on a pending transfer.
func ReviewTransfer(svc transfers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pickupID, err := pickupIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body reviewTransferBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Review(r.Context(), transfers.ReviewInput{
			PickupID: pickupID,
			Decision: transfers.Decision(body.Decision),
			Actor:    middleware.ActorFromContext(r.Context()),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"decision": body.Decision})
	}
}
