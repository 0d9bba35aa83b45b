package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/logger"
	"github.com/angelmondragon/cellar-backend/pkg/outcome"
	"github.com/angelmondragon/cellar-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if meta.HTTPStatus < http.StatusInternalServerError {
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(typed.Code()),
			Message: msg,
		},
	}

	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = details
		}
	}

	logFailure(ctx, logg, meta, err)
	writeJSON(w, meta.HTTPStatus, payload)
}

// WriteOutcome renders a tagged operation result. Success uses okStatus;
// failures map their kind to an HTTP status.
func WriteOutcome(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, okStatus int, out outcome.Outcome, data any) {
	if out.OK {
		if okStatus == 0 {
			okStatus = http.StatusOK
		}
		writeJSON(w, okStatus, types.OutcomeEnvelope{Outcome: out, Data: data})
		return
	}

	meta := pkgerrors.MetadataFor(out.Kind)
	logFailure(ctx, logg, meta, out.Err())
	writeJSON(w, meta.HTTPStatus, types.OutcomeEnvelope{Outcome: out})
}

// StatusFor maps an outcome to the HTTP status it is rendered with.
func StatusFor(out outcome.Outcome) int {
	if out.OK {
		return http.StatusOK
	}
	return pkgerrors.MetadataFor(out.Kind).HTTPStatus
}

func logFailure(ctx context.Context, logg *logger.Logger, meta pkgerrors.Metadata, err error) {
	if logg == nil {
		return
	}
	ctx = logg.WithFields(ctx, pkgerrors.Dump(err).Fields())
	if meta.HTTPStatus >= http.StatusInternalServerError {
		logg.Error(ctx, "request.error", err)
		return
	}
	logg.Warn(ctx, "request.rejected")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
