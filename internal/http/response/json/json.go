// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package json // import "feedviewer.app/v1/internal/http/response/json"

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"feedviewer.app/v1/internal/http/request"
	"feedviewer.app/v1/internal/http/response"
	"feedviewer.app/v1/internal/logging"
)

const contentTypeHeader = `application/json`

// OK creates a new JSON response with a 200 status code and an ETag of the
// body.
func OK(w http.ResponseWriter, r *http.Request, body any) {
	responseBody, err := json.Marshal(body)
	if err != nil {
		ServerError(w, r, err)
		return
	}

	response.New(w, r).
		WithHeader("Content-Type", contentTypeHeader).
		WithBody(responseBody).
		WithETag().
		Write()
}

// ServerError sends an internal error to the client.
func ServerError(w http.ResponseWriter, r *http.Request, err error) {
	log := logging.FromContext(r.Context()).With(
		slog.Any("error", err),
		slog.String("client_ip", request.ClientIP(r)),
		slog.Group("request",
			slog.String("method", r.Method),
			slog.String("uri", r.RequestURI),
			slog.String("user_agent", r.UserAgent())))

	clientClosed := errors.Is(err, context.Canceled) &&
		errors.Is(r.Context().Err(), context.Canceled)
	if clientClosed {
		statusCode := 499
		log.Debug("client closed request",
			slog.Group("response", slog.Int("status_code", statusCode)))
		http.Error(w, err.Error(), statusCode)
		return
	}

	statusCode := http.StatusInternalServerError
	log.Error(http.StatusText(statusCode),
		slog.Group("response",
			slog.Int("status_code", statusCode)))
	writeError(w, r, statusCode, err)
}

// BadRequest sends a bad request error to the client.
func BadRequest(w http.ResponseWriter, r *http.Request, err error) {
	logStatusCode(r, http.StatusBadRequest, err)
	writeError(w, r, http.StatusBadRequest, err)
}

// NotFound sends a page not found error to the client.
func NotFound(w http.ResponseWriter, r *http.Request) {
	logStatusCode(r, http.StatusNotFound, nil)
	writeError(w, r, http.StatusNotFound, errors.New("resource not found"))
}

func logStatusCode(r *http.Request, statusCode int, err error) {
	log := logging.FromContext(r.Context())
	if err != nil {
		log = log.With(slog.Any("error", err))
	}
	log.Warn(http.StatusText(statusCode),
		slog.String("client_ip", request.ClientIP(r)),
		slog.Group("request",
			slog.String("method", r.Method),
			slog.String("uri", r.RequestURI),
			slog.String("user_agent", r.UserAgent())),
		slog.Group("response",
			slog.Int("status_code", statusCode)))
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int,
	err error,
) {
	body, jsonErr := generateJSONError(err)
	if jsonErr != nil {
		logging.FromContext(r.Context()).Error("Unable to generate JSON error",
			slog.Any("error", jsonErr))
		http.Error(w, http.StatusText(http.StatusInternalServerError),
			http.StatusInternalServerError)
		return
	}

	response.New(w, r).
		WithStatus(statusCode).
		WithHeader("Content-Type", contentTypeHeader).
		WithBody(body).
		Write()
}

func generateJSONError(err error) ([]byte, error) {
	type errorMsg struct {
		ErrorMessage string `json:"error_message"`
	}
	encodedBody, err := json.Marshal(errorMsg{ErrorMessage: err.Error()})
	if err != nil {
		return nil, fmt.Errorf(
			"http/response/json: failed marshal error message: %w", err)
	}
	return encodedBody, nil
}
