package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stockline-app/stockline-backend/api/middleware"
	"github.com/stockline-app/stockline-backend/api/responses"
	"github.com/stockline-app/stockline-backend/api/validators"
	"github.com/stockline-app/stockline-backend/internal/allowance"
	pkgerrors "github.com/stockline-app/stockline-backend/pkg/errors"
	"github.com/stockline-app/stockline-backend/pkg/logger"
)

// RequestAllowance opens an additional-pickup request for the caller.
func RequestAllowance(svc allowance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := middleware.ActorFromContext(r.Context())

		request, err := svc.Request(r.Context(), actor.ID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

type reviewAllowanceBody struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

// ReviewAllowance applies the admin verdict on a pending allowance request.
func ReviewAllowance(svc allowance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "requestID")
		requestID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request id"))
			return
		}

		var body reviewAllowanceBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actor := middleware.ActorFromContext(r.Context())
		err = svc.Review(r.Context(), requestID, actor.ID, allowance.Decision(body.Decision))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"decision": body.Decision})
	}
}

// ListPendingAllowance returns allowance requests awaiting review.
func ListPendingAllowance(svc allowance.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListPending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
