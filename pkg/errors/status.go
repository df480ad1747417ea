/*
 * Copyright 2026 The Yorkie Authors. All rights reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package errors provides error management with structured status codes for
// the text engine. Every sentinel error of the engine carries a status and a
// machine-readable code so that embedding applications can map them to their
// own transports.
package errors

import "fmt"

// StatusCode represents the error codes used throughout the engine. The
// numeric values follow the gRPC/Connect code space.
type StatusCode int

const (
	// ErrCodeInvalidArgument indicates that the caller specified an invalid argument,
	// such as an offset inside a multi-byte character or an unparseable payload.
	ErrCodeInvalidArgument StatusCode = 3

	// ErrCodeNotFound indicates that a referenced entity was not found.
	ErrCodeNotFound StatusCode = 5

	// ErrCodeResourceExhausted indicates that some bounded resource has been exhausted.
	ErrCodeResourceExhausted StatusCode = 8

	// ErrCodeFailedPrecondition indicates that the system is not in a state
	// required for the operation's execution.
	ErrCodeFailedPrecondition StatusCode = 9

	// ErrCodeAborted indicates that the operation was aborted because the state
	// it was started against has changed.
	ErrCodeAborted StatusCode = 10

	// ErrCodeOutOfRange indicates that a position was outside the valid range.
	ErrCodeOutOfRange StatusCode = 11

	// ErrCodeInternal indicates that some invariants expected by the engine have been broken.
	ErrCodeInternal StatusCode = 13

	// ErrCodeDataLoss indicates unrecoverable data loss or corruption.
	ErrCodeDataLoss StatusCode = 15
)

// String returns the string representation of the error code.
func (c StatusCode) String() string {
	switch c {
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeResourceExhausted:
		return "resource_exhausted"
	case ErrCodeFailedPrecondition:
		return "failed_precondition"
	case ErrCodeAborted:
		return "aborted"
	case ErrCodeOutOfRange:
		return "out_of_range"
	case ErrCodeInternal:
		return "internal"
	case ErrCodeDataLoss:
		return "data_loss"
	default:
		return fmt.Sprintf("code_%d", int(c))
	}
}

// IsClientError returns true if the error code is caused by the caller and can
// be recovered by retrying with different input or after resynchronization.
func (c StatusCode) IsClientError() bool {
	switch c {
	case ErrCodeInvalidArgument, ErrCodeNotFound, ErrCodeResourceExhausted,
		ErrCodeFailedPrecondition, ErrCodeAborted, ErrCodeOutOfRange:
		return true
	default:
		return false
	}
}

// IsServerError returns true if the error code represents a failure inside the engine.
func (c StatusCode) IsServerError() bool {
	switch c {
	case ErrCodeInternal, ErrCodeDataLoss:
		return true
	default:
		return false
	}
}
