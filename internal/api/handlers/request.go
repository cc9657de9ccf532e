package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/wonny/sectorwatch/internal/api/response"
	"github.com/wonny/sectorwatch/internal/pkg/reqctx"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads the request body into v. An empty body decodes as {}.
// Numbers are kept as json.Number so num_companies can be checked exactly.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		response.BadRequest(w, r, "Request body could not be read")
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return true
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			response.ValidationError(w, r, []response.FieldError{{Field: typeErr.Field, Message: "has an invalid type"}})
			return false
		}
		response.BadRequest(w, r, "Invalid JSON body")
		return false
	}
	return true
}

// currentUser returns the authenticated user; the auth middleware guarantees it
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := reqctx.UserID(r.Context())
	if !ok {
		response.Unauthorized(w, r, "Authentication credentials were not provided")
		return 0, false
	}
	return userID, true
}

// pathID parses a numeric path variable; malformed ids are reported as 404
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		response.NotFound(w, r, "Resource not found")
		return 0, false
	}
	return id, true
}
