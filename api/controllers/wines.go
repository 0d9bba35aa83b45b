package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/cellar-backend/api/responses"
	"github.com/angelmondragon/cellar-backend/api/validators"
	"github.com/angelmondragon/cellar-backend/internal/wines"
	"github.com/angelmondragon/cellar-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/logger"
	"github.com/angelmondragon/cellar-backend/pkg/pagination"
)

const maxQueryLength = 100

// WineList serves the filtered, sorted catalog page.
func WineList(svc wines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wine service unavailable"))
			return
		}

		input, err := parseWineListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// WineDetail serves one active wine with its rating summary.
func WineDetail(svc wines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wine service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "wineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func parseWineListInput(r *http.Request) (wines.ListInput, error) {
	q := r.URL.Query()

	page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
	if err != nil {
		return wines.ListInput{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultPageSize, 1, pagination.MaxLimit)
	if err != nil {
		return wines.ListInput{}, err
	}
	minCents, err := validators.ParseOptionalCents(r, "price_min")
	if err != nil {
		return wines.ListInput{}, err
	}
	maxCents, err := validators.ParseOptionalCents(r, "price_max")
	if err != nil {
		return wines.ListInput{}, err
	}
	sort, err := enums.ParseWineSort(q.Get("sort"))
	if err != nil {
		return wines.ListInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort")
	}

	filters := wines.ListFilters{
		Country:       validators.SanitizeString(q.Get("country"), maxQueryLength),
		Region:        validators.SanitizeString(q.Get("region"), maxQueryLength),
		Varietal:      validators.SanitizeString(q.Get("varietal"), maxQueryLength),
		PriceMinCents: minCents,
		PriceMaxCents: maxCents,
		Query:         validators.SanitizeString(q.Get("q"), maxQueryLength),
	}
	if raw := strings.TrimSpace(q.Get("type")); raw != "" {
		wineType, err := enums.ParseWineType(raw)
		if err != nil {
			return wines.ListInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid wine type")
		}
		filters.Type = &wineType
	}

	return wines.ListInput{Filters: filters, Sort: sort, Page: page, Limit: limit}, nil
}
