package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"donor-analytics/internal/dberr"
	"donor-analytics/internal/domain"
	"donor-analytics/internal/middleware"
)

// httpStatusFromError maps an error to an HTTP status through the database
// error taxonomy. Not-found errors are the one domain case outside it.
func httpStatusFromError(err error) int {
	var notFound *domain.NotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}
	return dberr.StatusCode(dberr.Classify(err))
}

// writeError writes the classified response for err. Request-validation
// messages are ours, so they replace the generic text; nothing from the
// driver ever reaches the body.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := dberr.NewErrorResponse(err, middleware.RequestIDFromContext(r.Context()))
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Message = verr.Message
	}
	writeJSON(w, httpStatusFromError(err), resp)
}

func writeResult[T any](w http.ResponseWriter, res dberr.Result[T]) {
	if !res.OK() {
		writeJSON(w, res.Failure.StatusCode(), res.Failure)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeData(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, dberr.Result[any]{Data: data})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
