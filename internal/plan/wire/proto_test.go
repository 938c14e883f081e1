package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lk2023060901/planwire-go/pkg/util/merr"
)

func mustMarshal(t *testing.T, o *Object) []byte {
	data, err := MarshalObject(o)
	require.NoError(t, err)
	return data
}

func TestMarshalNullGolden(t *testing.T) {
	data := mustMarshal(t, Null())
	// 空对象哨兵只有 object_class_name 一个字段。
	assert.Equal(t, []byte{0x0a, 0x04, 'n', 'u', 'l', 'l'}, data)

	o, err := UnmarshalObject(data)
	require.NoError(t, err)
	assert.True(t, o.IsNull())
	assert.Same(t, Null(), o)
}

func TestMarshalDeterministic(t *testing.T) {
	o := NewObject("plan.Node", map[string]Value{
		"b": Long(2),
		"a": Long(1),
		"c": Long(3),
	})
	first := mustMarshal(t, o)
	for i := 0; i < 16; i++ {
		assert.Equal(t, first, mustMarshal(t, o))
	}
}

func TestRoundTripTree(t *testing.T) {
	o := NewObject("plan.StageNode", map[string]Value{
		"enabled": Bool(true),
		"id":      Int(-42),
		"rows":    Long(1 << 40),
		"ratio":   Float(0.5),
		"cost":    Double(3.14159),
		"name":    String("scan"),
		"digest":  Bytes([]byte{0x00, 0xff, 0x10}),
		"children": NewList(
			NewObject("plan.StageNode", map[string]Value{
				"name": String("filter"),
				"meta": Null(),
			}),
			Null(),
		),
		"hints": NewMap(map[string]Value{
			"parallel": Int(8),
			"mode":     String("streaming"),
		}),
		"priority": NewObject("plan.Priority", map[string]Value{
			EnumValueKey: String("HIGH"),
		}),
	})

	data := mustMarshal(t, o)
	got, err := UnmarshalObject(data)
	require.NoError(t, err)
	assert.True(t, Equal(o, got))
}

func TestRoundTripEmptyCollections(t *testing.T) {
	o := NewObject("plan.Node", map[string]Value{
		"list": NewList(),
		"map":  NewMap(nil),
		"str":  String(""),
	})

	got, err := UnmarshalObject(mustMarshal(t, o))
	require.NoError(t, err)
	assert.True(t, Equal(o, got))
}

// 解码时跳过未知字段号，保证对后续新增字段的前向兼容。
func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	data := mustMarshal(t, NewObject("plan.Node", map[string]Value{"id": Long(7)}))

	// 追加一个未知的 varint 字段和一个未知的 bytes 字段。
	data = protowire.AppendTag(data, 15, protowire.VarintType)
	data = protowire.AppendVarint(data, 99)
	data = protowire.AppendTag(data, 16, protowire.BytesType)
	data = protowire.AppendBytes(data, []byte("future"))

	got, err := UnmarshalObject(data)
	require.NoError(t, err)
	assert.Equal(t, "plan.Node", got.ClassName())
	v, ok := got.Member("id")
	require.True(t, ok)
	assert.True(t, Equal(v, Long(7)))
}

func TestUnmarshalMalformed(t *testing.T) {
	_, err := UnmarshalObject([]byte{0xff, 0xff, 0xff})
	assert.ErrorIs(t, err, merr.ErrWireMalformed)

	// 成员 entry 的值里 oneof 变体缺席。
	var entry []byte
	entry = protowire.AppendTag(entry, 1, protowire.BytesType)
	entry = protowire.AppendString(entry, "member")
	entry = protowire.AppendTag(entry, 2, protowire.BytesType)
	entry = protowire.AppendBytes(entry, nil)

	var data []byte
	data = protowire.AppendTag(data, 1, protowire.BytesType)
	data = protowire.AppendString(data, "plan.Node")
	data = protowire.AppendTag(data, 2, protowire.BytesType)
	data = protowire.AppendBytes(data, entry)

	_, err = UnmarshalObject(data)
	assert.ErrorIs(t, err, merr.ErrWireMalformed)
}

func TestMarshalNil(t *testing.T) {
	_, err := MarshalObject(nil)
	assert.ErrorIs(t, err, merr.ErrParameterMissing)
}
