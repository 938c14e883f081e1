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
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case planError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	if err, ok := errors.Cause(err).(planError); ok {
		return err.retriable
	}

	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

func GetErrorType(err error) ErrorType {
	if merr, ok := errors.Cause(err).(planError); ok {
		return merr.errType
	}

	return SystemError
}

func WrapErrAsInputError(err error) error {
	if merr, ok := err.(planError); ok {
		WithErrorType(InputError)(&merr)
		return merr
	}
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}

func value(name string, value any) valueField {
	return valueField{
		name:  name,
		value: value,
	}
}

func wrapFields(err planError, fields ...errorField) error {
	sb := strings.Builder{}
	sb.WriteString(err.msg)
	if len(fields) > 0 {
		sb.WriteString("[")
		sb.WriteString(strings.Join(lo.Map(fields, func(field errorField, _ int) string {
			return field.String()
		}), ", "))
		sb.WriteString("]")
	}
	err.detail = sb.String()
	return errors.Wrapf(err, "%s", err.detail)
}

func wrapFieldsWithDesc(err planError, desc string, fields ...errorField) error {
	sb := strings.Builder{}
	sb.WriteString(err.msg)
	if len(fields) > 0 {
		sb.WriteString("[")
		sb.WriteString(strings.Join(lo.Map(fields, func(field errorField, _ int) string {
			return field.String()
		}), ", "))
		sb.WriteString("]")
	}
	if desc != "" {
		sb.WriteString(": ")
		sb.WriteString(desc)
	}
	err.detail = sb.String()
	return errors.Wrapf(err, "%s", err.detail)
}

// Wire 形状相关错误封装。
func WrapErrStructuralMismatch(operation, typeName, field string, got, want any, msg ...string) error {
	err := wrapFields(ErrWireStructuralMismatch,
		value("operation", operation),
		value("type", typeName),
		value("field", field),
		value("got", got),
		value("want", want),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrNotParameterized(operation, typeName, field string, desc string) error {
	return wrapFieldsWithDesc(ErrWireNotParameterized,
		desc,
		value("operation", operation),
		value("type", typeName),
		value("field", field),
	)
}

func WrapErrKeyReserved(typeName, key string) error {
	return wrapFields(ErrWireKeyReserved,
		value("type", typeName),
		value("key", key),
	)
}

func WrapErrWireMalformed(section string, msg ...string) error {
	err := wrapFields(ErrWireMalformed, value("section", section))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// 类型注册相关错误封装。
func WrapErrTypeNotRegistered(operation, typeName string, msg ...string) error {
	err := wrapFields(ErrTypeNotRegistered,
		value("operation", operation),
		value("type", typeName),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrTypeDuplicated(typeName string, msg ...string) error {
	err := wrapFields(ErrTypeDuplicated, value("type", typeName))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrTypeNotConstructible(typeName string, desc string) error {
	return wrapFieldsWithDesc(ErrTypeNotConstructible, desc, value("type", typeName))
}

func WrapErrEnumValueUnknown(operation, typeName string, variant any) error {
	return wrapFields(ErrEnumValueUnknown,
		value("operation", operation),
		value("type", typeName),
		value("variant", variant),
	)
}

// 字段相关错误封装。
func WrapErrFieldAccess(operation, typeName, field string, msg ...string) error {
	err := wrapFields(ErrFieldAccess,
		value("operation", operation),
		value("type", typeName),
		value("field", field),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrFieldBadSpec(typeName, field string, desc string) error {
	return wrapFieldsWithDesc(ErrFieldBadSpec,
		desc,
		value("type", typeName),
		value("field", field),
	)
}

// 参数相关错误封装。
func WrapErrParameterInvalid[T any](expected, actual T, msg ...string) error {
	err := wrapFields(ErrParameterInvalid,
		value("expected", expected),
		value("actual", actual),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrParameterInvalidMsg(fmtStr string, args ...any) error {
	return wrapFieldsWithDesc(ErrParameterInvalid, fmt.Sprintf(fmtStr, args...))
}

func WrapErrParameterMissing(param string, msg ...string) error {
	err := wrapFields(ErrParameterMissing, value("missing", param))
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// IO 相关错误封装。
func WrapErrIoFailed(key string, err error) error {
	if err == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrIoFailed, err.Error(), value("key", key))
}

func WrapErrIoUnexpectEOF(key string, err error) error {
	if err == nil {
		return nil
	}
	return wrapFieldsWithDesc(ErrIoUnexpectEOF, err.Error(), value("key", key))
}
