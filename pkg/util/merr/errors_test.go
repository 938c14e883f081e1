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
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrTypeNotRegistered("deserialize", "com.example.Unknown")
	errors.Wrap(err, "failed to resolve type")
	s.ErrorIs(err, ErrTypeNotRegistered)
	s.Equal(Code(ErrTypeNotRegistered), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))
	s.Equal(int32(0), Code(nil))

	sameCodeErr := newPlanError("new error", ErrTypeNotRegistered.errCode, false)
	s.True(sameCodeErr.Is(ErrTypeNotRegistered))
}

func (s *ErrSuite) TestWrap() {
	// Wire 形状相关错误。
	s.ErrorIs(WrapErrStructuralMismatch("deserialize", "Stage", "hints", "map", "string"), ErrWireStructuralMismatch)
	s.ErrorIs(WrapErrNotParameterized("deserialize", "Stage", "keys", "list field must be parameterized"), ErrWireNotParameterized)
	s.ErrorIs(WrapErrKeyReserved("Stage", "ENUM_VALUE_KEY"), ErrWireKeyReserved)
	s.ErrorIs(WrapErrWireMalformed("member_variables", "truncated varint"), ErrWireMalformed)

	// 类型注册相关错误。
	s.ErrorIs(WrapErrTypeNotRegistered("resolve", "Stage"), ErrTypeNotRegistered)
	s.ErrorIs(WrapErrTypeDuplicated("Stage"), ErrTypeDuplicated)
	s.ErrorIs(WrapErrTypeNotConstructible("Stage", "abstract type"), ErrTypeNotConstructible)
	s.ErrorIs(WrapErrEnumValueUnknown("deserialize", "Color", "PINK"), ErrEnumValueUnknown)

	// 字段相关错误。
	s.ErrorIs(WrapErrFieldAccess("serialize", "Stage", "secret"), ErrFieldAccess)
	s.ErrorIs(WrapErrFieldBadSpec("Stage", "meta", "map key must be string"), ErrFieldBadSpec)

	// 参数相关错误。
	s.ErrorIs(WrapErrParameterInvalid("obj", "nil"), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterInvalidMsg("unexpected kind %d", 42), ErrParameterInvalid)
	s.ErrorIs(WrapErrParameterMissing("registry"), ErrParameterMissing)

	// IO 相关错误。
	s.ErrorIs(WrapErrIoFailed("plan.bin", errors.New("disk full")), ErrIoFailed)
	s.NoError(WrapErrIoFailed("plan.bin", nil))
}

func (s *ErrSuite) TestIsRetryable() {
	s.False(IsRetryableErr(ErrWireStructuralMismatch))
	s.False(IsRetryableErr(ErrTypeNotRegistered))
	s.True(IsRetryableErr(ErrIoUnexpectEOF))
	s.False(IsRetryableErr(errors.New("not a plan error")))
}

func (s *ErrSuite) TestErrorType() {
	err := ErrParameterInvalid
	s.Equal(SystemError, GetErrorType(err))
	s.Equal("system_error", GetErrorType(err).String())

	inputErr := WrapErrAsInputError(err)
	s.Equal(InputError, GetErrorType(inputErr))
}

func (s *ErrSuite) TestWrapFieldsContent() {
	err := WrapErrStructuralMismatch("deserialize", "Stage", "hints", "list", "map")
	s.Contains(err.Error(), "operation=deserialize")
	s.Contains(err.Error(), "type=Stage")
	s.Contains(err.Error(), "field=hints")
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
