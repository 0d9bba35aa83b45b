package checkout

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/cellar-backend/api/middleware"
	"github.com/angelmondragon/cellar-backend/api/responses"
	"github.com/angelmondragon/cellar-backend/api/validators"
	checkoutsvc "github.com/angelmondragon/cellar-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/logger"
	"github.com/angelmondragon/cellar-backend/pkg/outcome"
)

const (
	HeaderPaymentConfirmation = "X-Payment-Confirmation"
	QueryPayment              = "payment"
	paymentConfirmed          = "confirmed"
)

type startSessionRequest struct {
	OrderID string `json:"order_id" validate:"required,uuid"`
	CartID  string `json:"cart_id" validate:"required,uuid"`
}

type confirmRequest struct {
	SessionID string `json:"session_id" validate:"required,max=255"`
}

// StartSession opens an embedded checkout session for one of the caller's
// pending orders.
func StartSession(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		var body startSessionRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		sess, out := svc.StartCheckoutForUser(r.Context(), userID, uuid.MustParse(body.OrderID), uuid.MustParse(body.CartID))
		var data any
		if sess != nil {
			data = sess
		}
		responses.WriteOutcome(r.Context(), logg, w, http.StatusCreated, out, data)
	}
}

// Confirm finalizes a completed session and returns the outcome as JSON.
func Confirm(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}
		var body confirmRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out := svc.ConfirmPayment(r.Context(), strings.TrimSpace(body.SessionID))
		responses.WriteOutcome(r.Context(), logg, w, http.StatusOK, out, nil)
	}
}

// Return is where the provider sends the shopper after payment. It always
// redirects to the storefront; the outcome rides along in a header and the
// payment query parameter.
func Return(svc checkoutsvc.Service, storefrontURL string, logg *logger.Logger) http.HandlerFunc {
	if logg == nil {
		logg = logger.Discard()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
		out := outcome.Failure(pkgerrors.CodeInternal, "checkout service unavailable")
		if svc != nil {
			out = svc.ConfirmPayment(r.Context(), sessionID)
		}

		ctx := logg.WithFields(r.Context(), map[string]any{
			"session_id": sessionID,
			"outcome":    confirmationToken(out),
			"message":    out.Message,
		})
		if out.OK {
			logg.Info(ctx, "checkout.return_confirmed")
		} else {
			logg.Warn(ctx, "checkout.return_unconfirmed")
		}

		w.Header().Set(HeaderPaymentConfirmation, confirmationToken(out))
		http.Redirect(w, r, redirectTarget(storefrontURL, out), http.StatusSeeOther)
	}
}

func confirmationToken(out outcome.Outcome) string {
	if out.OK {
		return paymentConfirmed
	}
	return strings.ToLower(string(out.Kind))
}

func redirectTarget(storefrontURL string, out outcome.Outcome) string {
	base := strings.TrimSpace(storefrontURL)
	if base == "" {
		base = "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return "/?" + QueryPayment + "=" + url.QueryEscape(confirmationToken(out))
	}
	if u.Path == "" {
		u.Path = "/"
	}
	q := u.Query()
	q.Set(QueryPayment, confirmationToken(out))
	u.RawQuery = q.Encode()
	return u.String()
}
