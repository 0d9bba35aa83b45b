package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/cellar-backend/api/middleware"
	"github.com/angelmondragon/cellar-backend/api/responses"
	"github.com/angelmondragon/cellar-backend/api/validators"
	"github.com/angelmondragon/cellar-backend/internal/favorites"
	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/logger"
)

func FavoriteList(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}
		params, err := validators.ParseCursorParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), middleware.UserIDFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func FavoriteAdd(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return favoriteMutation(svc, logg, http.StatusCreated, favorites.Service.Add)
}

// FavoriteRemove succeeds whether or not the wine was a favorite.
func FavoriteRemove(svc favorites.Service, logg *logger.Logger) http.HandlerFunc {
	return favoriteMutation(svc, logg, http.StatusOK, favorites.Service.Remove)
}

func favoriteMutation(svc favorites.Service, logg *logger.Logger, status int, op func(favorites.Service, context.Context, string, uuid.UUID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "favorites service unavailable"))
			return
		}
		wineID, err := validators.ParseUUIDParam(r, "wineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := op(svc, r.Context(), middleware.UserIDFromContext(r.Context()), wineID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, map[string]any{"wine_id": wineID, "favorite": status == http.StatusCreated})
	}
}
