// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the JSON API on top of the service layer.
// Handlers decode requests, call exactly one service operation and map
// service error kinds onto HTTP statuses.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"inkpress/internal/render"
	"inkpress/internal/service"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

const msgInvalidBody = "Invalid request body"

// statusFor maps a service error kind to its HTTP status.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindValidation, service.KindInvalidReference:
		return http.StatusBadRequest
	case service.KindUnauthenticated:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError answers err. Service errors carry their message and field
// list; anything else is logged and answered as a generic server error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var se *service.Error
	if !errors.As(err, &se) || se.Kind == service.KindInternal {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		render.ServerError(w)
		return
	}
	if len(se.Fields) > 0 {
		render.Fields(w, statusFor(se.Kind), se.Message, se.Fields)
		return
	}
	render.Message(w, statusFor(se.Kind), se.Message)
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched.
// Returns false after answering 400 when the body cannot be decoded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		render.Message(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}
