package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/angelmondragon/cellar-backend/pkg/errors"
	"github.com/angelmondragon/cellar-backend/pkg/outcome"
	"github.com/angelmondragon/cellar-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "quantity"})
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message != "bad input" {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
	if body.Error.Details == nil {
		t.Fatalf("expected details in public payload")
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message != "internal server error" {
		t.Fatalf("internal message leaked: %q", body.Error.Message)
	}
	if body.Error.Details != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
}

type outcomeBody struct {
	Outcome struct {
		OK      bool   `json:"ok"`
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"outcome"`
	Data map[string]any `json:"data"`
}

func TestWriteOutcomeSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteOutcome(context.Background(), nil, w, http.StatusCreated, outcome.Success("Item added to cart"), map[string]any{"n": 1})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var body outcomeBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Outcome.OK || body.Outcome.Message != "Item added to cart" {
		t.Fatalf("unexpected outcome %+v", body.Outcome)
	}
	if body.Data["n"] != float64(1) {
		t.Fatalf("unexpected data %v", body.Data)
	}
}

func TestWriteOutcomeFailureMapsKind(t *testing.T) {
	cases := []struct {
		kind   pkgerrors.Code
		status int
	}{
		{pkgerrors.CodeUnauthorized, http.StatusUnauthorized},
		{pkgerrors.CodeNotFound, http.StatusNotFound},
		{pkgerrors.CodeStateConflict, http.StatusUnprocessableEntity},
		{pkgerrors.CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		out := outcome.Failure(tc.kind, "nope")
		WriteOutcome(context.Background(), nil, w, http.StatusOK, out, map[string]any{"ignored": true})

		if w.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.kind, tc.status, w.Code)
		}
		if StatusFor(out) != tc.status {
			t.Fatalf("%s: StatusFor mismatch", tc.kind)
		}
		var body outcomeBody
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Outcome.OK || body.Outcome.Kind != string(tc.kind) || body.Outcome.Message != "nope" {
			t.Fatalf("unexpected outcome %+v", body.Outcome)
		}
		if body.Data != nil {
			t.Fatalf("failed outcome should not carry data")
		}
	}
}
