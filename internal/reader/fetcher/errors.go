// SPDX-FileCopyrightText: Copyright The Miniflux Authors. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package fetcher // import "feedviewer.app/v1/internal/reader/fetcher"

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// Error is a failure to retrieve a feed. Message returns a text, which is
// safe to show to widget visitors, when Error returns details for logs.
type Error struct {
	err     error
	message string
}

var _ error = (*Error)(nil)

func NewError(err error, format string, args ...any) *Error {
	return &Error{err: err, message: fmt.Sprintf(format, args...)}
}

func (self *Error) Error() string   { return self.err.Error() }
func (self *Error) Unwrap() error   { return self.err }
func (self *Error) Message() string { return self.message }

func clientError(rawURL string, err error) *Error {
	const msgFmt = "reader/fetcher: http client error: %w"
	switch {
	case errors.Is(err, context.Canceled):
		return NewError(fmt.Errorf(msgFmt, err),
			"Fetching the feed at `%s` was canceled.", rawURL)
	case sslError(err):
		return NewError(fmt.Errorf(msgFmt, err),
			"A secure connection to `%s` could not be established.", rawURL)
	case timeoutError(err):
		return NewError(fmt.Errorf(msgFmt, err),
			"Timed out while fetching the feed at `%s`.", rawURL)
	case errors.Is(err, io.EOF):
		return NewError(fmt.Errorf(msgFmt, err),
			"The server hosting `%s` closed the connection.", rawURL)
	case networkError(err):
		return NewError(fmt.Errorf(msgFmt, err),
			"A network error occurred while fetching the feed at `%s`.", rawURL)
	}
	return NewError(fmt.Errorf(msgFmt, err),
		"The feed at `%s` could not be fetched.", rawURL)
}

func timeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}

func networkError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func sslError(err error) bool {
	var certErr x509.UnknownAuthorityError
	if errors.As(err, &certErr) {
		return true
	}

	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) {
		return true
	}

	var invalidErr x509.CertificateInvalidError
	return errors.As(err, &invalidErr)
}

func statusError(rawURL string, statusCode int, statusText string) *Error {
	status := strings.TrimSpace(
		fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode)))
	err := fmt.Errorf("reader/fetcher: unexpected status code: %d %s",
		statusCode, statusText)

	switch {
	case statusCode == http.StatusNotFound, statusCode == http.StatusGone:
		return NewError(err,
			"A feed could not be found at `%s`; the server returned %s.",
			rawURL, status)
	case statusCode == http.StatusUnauthorized,
		statusCode == http.StatusForbidden:
		return NewError(err,
			"Access to the feed at `%s` is denied; the server returned %s.",
			rawURL, status)
	case statusCode == http.StatusTooManyRequests:
		return NewError(err,
			"The server hosting `%s` is rate limiting requests; try again later.",
			rawURL)
	case statusCode >= http.StatusInternalServerError:
		return NewError(err,
			"The server hosting `%s` is unavailable; the server returned %s.",
			rawURL, status)
	}
	return NewError(err,
		"A feed could not be retrieved from `%s`; the server returned %s.",
		rawURL, status)
}
