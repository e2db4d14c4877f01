// error.go
//
// A schema-driven admin back-office data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-build-admindb.
// jam-build-admindb is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-build-admindb is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-build-admindb.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a CustomError for callers that branch on failure type.
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "notFound"
	KindValidation   ErrorKind = "validation"
	KindConflict     ErrorKind = "conflict"
	KindUpstream     ErrorKind = "upstreamUnavailable"
)

// Sentinels for errors.Is matching. Only the Kind is compared.
var (
	ErrUnauthorized = &CustomError{Kind: KindUnauthorized}
	ErrForbidden    = &CustomError{Kind: KindForbidden}
	ErrNotFound     = &CustomError{Kind: KindNotFound}
	ErrValidation   = &CustomError{Kind: KindValidation}
	ErrConflict     = &CustomError{Kind: KindConflict}
	ErrUpstream     = &CustomError{Kind: KindUpstream}
)

type CustomError struct {
	Code    int       `json:"code"`
	Message string    `json:"message"`
	Type    string    `json:"type"`
	Kind    ErrorKind `json:"kind"`
	Err     error     `json:"-"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a CustomError of the same kind.
func (e *CustomError) Is(target error) bool {
	t, ok := target.(*CustomError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Retryable reports whether the caller may retry the operation unchanged.
func (e *CustomError) Retryable() bool {
	return e.Kind == KindUpstream
}

func newError(kind ErrorKind, code int, errType string, err error, format string, args ...interface{}) *CustomError {
	return &CustomError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Type:    errType,
		Kind:    kind,
		Err:     err,
	}
}

func Unauthorized(errType, format string, args ...interface{}) *CustomError {
	return newError(KindUnauthorized, http.StatusUnauthorized, errType, nil, format, args...)
}

func Forbidden(errType, format string, args ...interface{}) *CustomError {
	return newError(KindForbidden, http.StatusForbidden, errType, nil, format, args...)
}

func NotFound(errType, format string, args ...interface{}) *CustomError {
	return newError(KindNotFound, http.StatusNotFound, errType, nil, format, args...)
}

func Validation(errType, format string, args ...interface{}) *CustomError {
	return newError(KindValidation, http.StatusUnprocessableEntity, errType, nil, format, args...)
}

func Conflict(errType, format string, args ...interface{}) *CustomError {
	return newError(KindConflict, http.StatusConflict, errType, nil, format, args...)
}

// Upstream wraps a collaborator failure (store, storage, auth) as a retryable error.
func Upstream(errType string, err error, format string, args ...interface{}) *CustomError {
	return newError(KindUpstream, http.StatusServiceUnavailable, errType, err, format, args...)
}

// AsCustomError extracts a CustomError from err, or nil.
func AsCustomError(err error) *CustomError {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}
