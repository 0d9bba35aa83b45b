package cart

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/cellar-backend/api/middleware"
	"github.com/angelmondragon/cellar-backend/api/responses"
	"github.com/angelmondragon/cellar-backend/api/validators"
	cartsvc "github.com/angelmondragon/cellar-backend/internal/cart"
	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/logger"
	"github.com/angelmondragon/cellar-backend/pkg/outcome"
)

// CartFetch returns the caller's cart with its lines and totals.
func CartFetch(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		view, out := svc.GetCart(r.Context(), middleware.UserIDFromContext(r.Context()))
		responses.WriteOutcome(r.Context(), logg, w, http.StatusOK, out, view)
	}
}

// CartAddItem adds quantity of a wine to the caller's cart. Guests get the
// sign-in outcome rather than a transport-level 401.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		var body addItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID := uuid.MustParse(body.ProductID)

		userID := middleware.UserIDFromContext(r.Context())
		out := svc.AddToCart(r.Context(), userID, productID, body.Quantity)
		respondWithCart(w, r, svc, logg, userID, out, http.StatusCreated)
	}
}

// CartUpdateItem sets a cart line to an absolute quantity.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body updateItemRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		out := svc.UpdateCartItemQuantity(r.Context(), userID, itemID, body.Quantity)
		respondWithCart(w, r, svc, logg, userID, out, http.StatusOK)
	}
}

// CartRemoveItem deletes a cart line.
func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart service unavailable"))
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		out := svc.RemoveCartItem(r.Context(), userID, itemID)
		respondWithCart(w, r, svc, logg, userID, out, http.StatusOK)
	}
}

// respondWithCart renders the mutation outcome, attaching the refreshed cart
// on success.
func respondWithCart(w http.ResponseWriter, r *http.Request, svc cartsvc.Service, logg *logger.Logger, userID string, out outcome.Outcome, status int) {
	var data any
	if out.OK {
		if view, viewOut := svc.GetCart(r.Context(), userID); viewOut.OK {
			data = view
		}
	}
	responses.WriteOutcome(r.Context(), logg, w, status, out, data)
}
