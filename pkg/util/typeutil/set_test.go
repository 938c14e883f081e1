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

package typeutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	s := NewSet[string]()
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Contain("a"))

	s.Insert("a")
	s.Insert("b")
	s.Insert("a")
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contain("a"))
	assert.True(t, s.Contain("b"))

	s.Remove("a")
	assert.False(t, s.Contain("a"))
	assert.Equal(t, 1, s.Len())

	got := s.Collect()
	assert.ElementsMatch(t, []string{"b"}, got)
}

func TestSetInt(t *testing.T) {
	s := NewSet[int]()
	s.Insert(1)
	s.Insert(2)
	assert.True(t, s.Contain(1))
	assert.False(t, s.Contain(3))
}
