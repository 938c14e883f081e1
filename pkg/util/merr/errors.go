// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

type ErrorType int32

const (
	SystemError ErrorType = 0
	InputError  ErrorType = 1
)

var ErrorTypeName = map[ErrorType]string{
	SystemError: "system_error",
	InputError:  "input_error",
}

func (err ErrorType) String() string {
	return ErrorTypeName[err]
}

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
// Name: Err + related prefix + error name
var (
	// Wire shape related
	ErrWireStructuralMismatch = newPlanError("wire value shape mismatches destination", 1, false)
	ErrWireNotParameterized   = newPlanError("collection destination must be parameterized", 2, false)
	ErrWireKeyReserved        = newPlanError("member key is reserved", 3, false)
	ErrWireMalformed          = newPlanError("malformed wire bytes", 4, false)

	// Type registry related
	ErrTypeNotRegistered    = newPlanError("type not registered", 100, false)
	ErrTypeDuplicated       = newPlanError("type already registered", 101, false)
	ErrTypeNotConstructible = newPlanError("type is not default constructible", 102, false)
	ErrEnumValueUnknown     = newPlanError("unknown enum value", 103, false)

	// Field related
	ErrFieldAccess  = newPlanError("field not accessible", 200, false)
	ErrFieldBadSpec = newPlanError("illegal field spec", 201, false)

	// Parameter related
	ErrParameterInvalid = newPlanError("invalid parameter", 1100, false)
	ErrParameterMissing = newPlanError("missing parameter", 1101, false)

	// IO related
	ErrIoFailed      = newPlanError("IO failed", 1001, false)
	ErrIoUnexpectEOF = newPlanError("unexpected EOF", 1002, true)

	// Do NOT export this,
	// never allow programmer using this, keep only for converting unknown error to planError
	errUnexpected = newPlanError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*planError)

func WithDetail(detail string) errorOption {
	return func(err *planError) {
		err.detail = detail
	}
}

func WithErrorType(errType ErrorType) errorOption {
	return func(err *planError) {
		err.errType = errType
	}
}

type planError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
	errType   ErrorType
}

func newPlanError(msg string, code int32, retriable bool, options ...errorOption) planError {
	err := planError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e planError) code() int32 {
	return e.errCode
}

func (e planError) Error() string {
	return lo.Ternary(e.detail == "", e.msg, e.detail)
}

func (e planError) Detail() string {
	return e.detail
}

func (e planError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(planError); ok {
		return e.errCode == cause.errCode
	}
	return false
}
