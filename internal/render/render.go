// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render writes JSON responses in the shapes the single-page
// client expects. Middleware and handlers both answer through it.
package render

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// MessageBody is the error envelope: a human message plus optional
// per-field details.
type MessageBody struct {
	Message string `json:"message"`
	Errors  any    `json:"errors,omitempty"`
}

// serverErrorBody is written for every internal failure.
type serverErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response failed", "error", err)
	}
}

// Message writes {"message": msg} with the given status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, MessageBody{Message: msg})
}

// Fields writes {"message": msg, "errors": fields} with the given status.
func Fields(w http.ResponseWriter, status int, msg string, fields any) {
	JSON(w, status, MessageBody{Message: msg, Errors: fields})
}

// ServerError writes the generic 500 body. Details belong in the log.
func ServerError(w http.ResponseWriter) {
	JSON(w, http.StatusInternalServerError, serverErrorBody{Success: false, Error: "Server Error"})
}
