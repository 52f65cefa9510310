// Package response writes the JSON envelope every API endpoint answers with.
package response

import (
	"encoding/json"
	"net/http"
)

// APIResponse is the envelope around every API payload
type APIResponse struct {
	Status  int         `json:"status"`
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

// JSON writes resp with statusCode
func JSON(w http.ResponseWriter, statusCode int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// Raw writes an already encoded envelope
func Raw(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(body)
}

// Encode builds the success envelope for data
func Encode(data interface{}, message string) ([]byte, error) {
	return json.Marshal(successOf(http.StatusOK, data, message))
}

// Success writes a 200 envelope carrying data
func Success(w http.ResponseWriter, data interface{}, message string) {
	JSON(w, http.StatusOK, successOf(http.StatusOK, data, message))
}

// Created writes a 201 envelope carrying data
func Created(w http.ResponseWriter, data interface{}, message string) {
	JSON(w, http.StatusCreated, successOf(http.StatusCreated, data, message))
}

// Error writes a failure envelope
func Error(w http.ResponseWriter, statusCode int, message string, errs interface{}) {
	JSON(w, statusCode, APIResponse{
		Status:  statusCode,
		Success: false,
		Message: message,
		Errors:  errs,
	})
}

func successOf(statusCode int, data interface{}, message string) APIResponse {
	return APIResponse{
		Status:  statusCode,
		Success: true,
		Message: message,
		Data:    data,
	}
}
