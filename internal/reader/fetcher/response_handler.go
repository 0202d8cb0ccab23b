// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package fetcher // import "feedviewer.app/v1/internal/reader/fetcher"

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"feedviewer.app/v1/internal/logging"
)

func NewResponseHandler(rawURL string, httpResponse *http.Response,
	clientErr error, maxBodySize int64,
) *ResponseHandler {
	return &ResponseHandler{
		rawURL:       rawURL,
		httpResponse: httpResponse,
		clientErr:    clientErr,
		maxBodySize:  maxBodySize,
	}
}

type ResponseHandler struct {
	rawURL       string
	httpResponse *http.Response
	clientErr    error

	maxBodySize int64
}

func (r *ResponseHandler) Status() string  { return r.httpResponse.Status }
func (r *ResponseHandler) StatusCode() int { return r.httpResponse.StatusCode }

func (r *ResponseHandler) Header(key string) string {
	return r.httpResponse.Header.Get(key)
}

func (r *ResponseHandler) Err() error { return r.clientErr }

// EffectiveURL returns the URL of the last request after redirects.
func (r *ResponseHandler) EffectiveURL() string {
	return r.httpResponse.Request.URL.String()
}

func (r *ResponseHandler) ContentType() string {
	return r.httpResponse.Header.Get("Content-Type")
}

// Error returns the reason this response can't be parsed as a feed, or nil.
func (r *ResponseHandler) Error() *Error {
	if r.Err() != nil {
		return clientError(r.rawURL, r.Err())
	}

	statusCode := r.StatusCode()
	if statusCode < 400 {
		if statusCode != http.StatusNotModified &&
			r.httpResponse.ContentLength == 0 {
			// Content-Length = -1 when no Content-Length header is sent.
			return r.emptyBodyError()
		}
		return nil
	}
	return statusError(r.rawURL, statusCode, r.bodyStatusText())
}

func (r *ResponseHandler) emptyBodyError() *Error {
	return NewError(errors.New("reader/fetcher: empty response body"),
		"The server hosting `%s` returned an empty response.", r.rawURL)
}

func (r *ResponseHandler) Close() {
	if r.Err() != nil || r.httpResponse == nil {
		return
	}
	BodyClose(r.httpResponse.Body)
}

// maxPostHandlerReadBytes is the max number of Request.Body bytes not
// consumed by a handler that the server will read from the client
// in order to keep a connection alive.
//
// See: net/http/server.go
const maxPostHandlerReadBytes = 256 << 10

// https://github.com/golang/go/issues/60240
func BodyClose(r io.ReadCloser) {
	_, _ = io.CopyN(io.Discard, r, maxPostHandlerReadBytes+1)
	r.Close()
}

// Body returns the response body limited to HTTP_CLIENT_MAX_BODY_SIZE.
func (r *ResponseHandler) Body() io.ReadCloser {
	logging.FromContext(r.httpResponse.Request.Context()).Debug(
		"Request response",
		slog.String("effective_url", r.EffectiveURL()),
		slog.String("content_length", r.httpResponse.Header.Get("Content-Length")),
		slog.String("content_encoding",
			r.httpResponse.Header.Get("Content-Encoding")),
		slog.String("content_type", r.ContentType()))
	return http.MaxBytesReader(nil, r.httpResponse.Body, r.maxBodySize)
}

func (r *ResponseHandler) ReadBody() ([]byte, *Error) {
	var buffer bytes.Buffer
	if err := r.WriteBodyTo(&buffer); err != nil {
		return nil, err
	}

	if buffer.Len() == 0 {
		return nil, r.emptyBodyError()
	}
	return buffer.Bytes(), nil
}

func (r *ResponseHandler) WriteBodyTo(w io.Writer) *Error {
	_, err := io.Copy(w, r.Body())
	if err == nil {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return NewError(
			fmt.Errorf("reader/fetcher: response body too large: %d bytes",
				maxBytesErr.Limit),
			"The feed at `%s` is larger than %d bytes.", r.rawURL,
			maxBytesErr.Limit)
	}

	return NewError(
		fmt.Errorf("reader/fetcher: unable to read response body: %w", err),
		"The feed at `%s` could not be read.", r.rawURL)
}

func (r *ResponseHandler) bodyStatusText() string {
	statusText := http.StatusText(r.StatusCode())
	var b bytes.Buffer
	_, _ = io.CopyN(&b, r.httpResponse.Body, 1024)
	if s, _, _ := strings.Cut(b.String(), "\n"); s != "" {
		switch statusText {
		case "":
			return s
		default:
			return statusText + ": " + s
		}
	}
	return statusText
}
