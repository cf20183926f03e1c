package utils

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every non-2xx response. Clients surface
// the message verbatim to the end user.
type ErrorResponse struct {
	Message string `json:"message"`
}

// WriteJSONResponse writes data as a JSON response with the given status
func WriteJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// WriteSuccessResponse writes a 200 response
func WriteSuccessResponse(w http.ResponseWriter, data interface{}) {
	WriteJSONResponse(w, http.StatusOK, data)
}

// WriteCreatedResponse writes a 201 response
func WriteCreatedResponse(w http.ResponseWriter, data interface{}) {
	WriteJSONResponse(w, http.StatusCreated, data)
}

// WriteMessageResponse writes a 200 response with a bare message body
func WriteMessageResponse(w http.ResponseWriter, message string) {
	WriteJSONResponse(w, http.StatusOK, map[string]string{"message": message})
}

// WriteErrorResponse writes an error response with the given status
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	WriteJSONResponse(w, statusCode, ErrorResponse{Message: message})
}

// WriteBadRequestResponse writes a 400 error response
func WriteBadRequestResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusBadRequest, message)
}

// WriteUnauthorizedResponse writes a 401 error response
func WriteUnauthorizedResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusUnauthorized, message)
}

// WriteForbiddenResponse writes a 403 error response
func WriteForbiddenResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusForbidden, message)
}

// WriteNotFoundResponse writes a 404 error response
func WriteNotFoundResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusNotFound, message)
}

// WriteConflictResponse writes a 409 error response
func WriteConflictResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusConflict, message)
}

// WriteInternalServerErrorResponse writes a 500 error response
func WriteInternalServerErrorResponse(w http.ResponseWriter, message string) {
	WriteErrorResponse(w, http.StatusInternalServerError, message)
}

// ParseJSONBody decodes the request body into v
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// GetQueryParam returns a query parameter or a default when absent
func GetQueryParam(r *http.Request, key, defaultValue string) string {
	if value := r.URL.Query().Get(key); value != "" {
		return value
	}
	return defaultValue
}
