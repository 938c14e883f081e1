package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	assert.Equal(t, "literal", KindLiteral.String())
	assert.Equal(t, "list", KindList.String())
	assert.Equal(t, "map", KindMap.String())
	assert.Equal(t, "object", KindObject.String())
	assert.Equal(t, "unknown", Kind(0).String())

	assert.Equal(t, "bool", LiteralBool.String())
	assert.Equal(t, "bytes", LiteralBytes.String())
	assert.Equal(t, "unknown", LiteralKind(0).String())
}

func TestLiteralAccessors(t *testing.T) {
	assert.True(t, Bool(true).BoolValue())
	assert.Equal(t, int32(-7), Int(-7).IntValue())
	assert.Equal(t, int64(1<<40), Long(1<<40).LongValue())
	assert.Equal(t, float32(1.5), Float(1.5).FloatValue())
	assert.Equal(t, 2.25, Double(2.25).DoubleValue())
	assert.Equal(t, "hi", String("hi").StringValue())
	assert.Equal(t, []byte{1, 2}, Bytes([]byte{1, 2}).BytesValue())
}

// Bytes 构造时拷贝内容，调用方之后修改原切片不影响已构造的值。
func TestBytesImmutable(t *testing.T) {
	src := []byte{1, 2, 3}
	l := Bytes(src)
	src[0] = 9
	assert.Equal(t, []byte{1, 2, 3}, l.BytesValue())
}

func TestNullSentinel(t *testing.T) {
	assert.Same(t, Null(), Null())
	assert.True(t, Null().IsNull())
	assert.Equal(t, NullClassName, Null().ClassName())

	// 类型名决定 null 语义，成员内容被忽略。
	weird := NewObject(NullClassName, map[string]Value{"x": Long(1)})
	assert.True(t, weird.IsNull())
	assert.True(t, Equal(Null(), weird))

	assert.False(t, NewObject("plan.Node", nil).IsNull())
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(nil, nil))
	assert.False(t, Equal(nil, Long(1)))
	assert.False(t, Equal(Long(1), String("1")))
	assert.False(t, Equal(Int(1), Long(1)))

	assert.True(t, Equal(
		NewList(Long(1), String("a")),
		NewList(Long(1), String("a")),
	))
	// List 的元素顺序有语义。
	assert.False(t, Equal(
		NewList(Long(1), String("a")),
		NewList(String("a"), Long(1)),
	))

	assert.True(t, Equal(
		NewMap(map[string]Value{"a": Long(1), "b": Bool(true)}),
		NewMap(map[string]Value{"b": Bool(true), "a": Long(1)}),
	))
	assert.False(t, Equal(
		NewMap(map[string]Value{"a": Long(1)}),
		NewMap(map[string]Value{"a": Long(2)}),
	))

	left := NewObject("plan.Node", map[string]Value{
		"id":   Long(1),
		"tags": NewList(String("x")),
	})
	right := NewObject("plan.Node", map[string]Value{
		"tags": NewList(String("x")),
		"id":   Long(1),
	})
	assert.True(t, Equal(left, right))
	assert.False(t, Equal(left, NewObject("plan.Other", left.Members())))
	assert.False(t, Equal(left, Null()))
}

func TestObjectMember(t *testing.T) {
	o := NewObject("plan.Node", map[string]Value{"id": Long(1)})
	v, ok := o.Member("id")
	assert.True(t, ok)
	assert.True(t, Equal(v, Long(1)))

	_, ok = o.Member("missing")
	assert.False(t, ok)
}

func TestMapGet(t *testing.T) {
	m := NewMap(map[string]Value{"k": String("v")})
	v, ok := m.Get("k")
	assert.True(t, ok)
	assert.True(t, Equal(v, String("v")))

	_, ok = m.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, 0, NewMap(nil).Len())
}
