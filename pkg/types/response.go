package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// CursorPage is the list payload used by cursor-paginated endpoints.
type CursorPage[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// OffsetPage is the list payload used by page/limit endpoints.
type OffsetPage[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// OutcomeEnvelope wraps the tagged result of a cart or checkout operation.
type OutcomeEnvelope struct {
	Outcome any `json:"outcome"`
	Data    any `json:"data,omitempty"`
}
