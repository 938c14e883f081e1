package wire

import (
	"math"
	"slices"

	"github.com/samber/lo"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/lk2023060901/planwire-go/pkg/util/merr"
)

// 本文件实现值树与 protobuf 线格式字节之间的编解码。
//
// 对应的消息定义（字段号固定，跨进程互通的约定）：
//
//	ObjectField         { 1: object_class_name (string); 2: member_variables (map<string, MemberVariableField>); }
//	MemberVariableField { oneof { 1: literal_field; 2: list_field; 3: map_field; 4: object_field; } }
//	LiteralField        { oneof { 1: bool; 2: int(32b); 3: long(64b); 4: float(fixed32); 5: double(fixed64); 6: string; 7: bytes; } }
//	ListField           { 1: repeated content (MemberVariableField); }
//	MapField            { 1: content (map<string, MemberVariableField>); }
//
// 这里不依赖 protoc 生成代码，直接基于 protowire 手工编解码：
// 值模型本身是封闭的小联合，生成代码反而会引入一层多余的转换。
//
// 解码时对未知字段号做跳过处理，保证对后续新增字段的前向兼容。

// 顶层 ObjectField 的字段号。
const (
	objectFieldClassName = 1
	objectFieldMembers   = 2
)

// MemberVariableField 的 oneof 字段号。
const (
	memberFieldLiteral = 1
	memberFieldList    = 2
	memberFieldMap     = 3
	memberFieldObject  = 4
)

// LiteralField 的 oneof 字段号。
const (
	literalFieldBool   = 1
	literalFieldInt    = 2
	literalFieldLong   = 3
	literalFieldFloat  = 4
	literalFieldDouble = 5
	literalFieldString = 6
	literalFieldBytes  = 7
)

// ListField 与 MapField 共用的内容字段号，以及 map entry 的键值字段号。
const (
	collectionFieldContent = 1
	mapEntryKey            = 1
	mapEntryValue          = 2
)

// MarshalObject 将对象记录编码为 protobuf 线格式字节。
//
// Map 与成员映射本身无序，这里按键排序后输出，保证编码结果确定。
func MarshalObject(o *Object) ([]byte, error) {
	if o == nil {
		return nil, merr.WrapErrParameterMissing("object", "marshal object")
	}
	return appendObject(nil, o), nil
}

// UnmarshalObject 将 protobuf 线格式字节解码为对象记录。
func UnmarshalObject(data []byte) (*Object, error) {
	return consumeObject(data)
}

func appendObject(b []byte, o *Object) []byte {
	b = protowire.AppendTag(b, objectFieldClassName, protowire.BytesType)
	b = protowire.AppendString(b, o.className)
	b = appendMemberEntries(b, objectFieldMembers, o.members)
	return b
}

func appendMemberEntries(b []byte, num protowire.Number, members map[string]Value) []byte {
	keys := lo.Keys(members)
	slices.Sort(keys)
	for _, key := range keys {
		var entry []byte
		entry = protowire.AppendTag(entry, mapEntryKey, protowire.BytesType)
		entry = protowire.AppendString(entry, key)
		entry = protowire.AppendTag(entry, mapEntryValue, protowire.BytesType)
		entry = protowire.AppendBytes(entry, appendMember(nil, members[key]))

		b = protowire.AppendTag(b, num, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b
}

func appendMember(b []byte, v Value) []byte {
	switch v := v.(type) {
	case *Literal:
		b = protowire.AppendTag(b, memberFieldLiteral, protowire.BytesType)
		b = protowire.AppendBytes(b, appendLiteral(nil, v))

	case *List:
		var body []byte
		for _, elem := range v.elems {
			body = protowire.AppendTag(body, collectionFieldContent, protowire.BytesType)
			body = protowire.AppendBytes(body, appendMember(nil, elem))
		}
		b = protowire.AppendTag(b, memberFieldList, protowire.BytesType)
		b = protowire.AppendBytes(b, body)

	case *Map:
		b = protowire.AppendTag(b, memberFieldMap, protowire.BytesType)
		b = protowire.AppendBytes(b, appendMemberEntries(nil, collectionFieldContent, v.entries))

	case *Object:
		b = protowire.AppendTag(b, memberFieldObject, protowire.BytesType)
		b = protowire.AppendBytes(b, appendObject(nil, v))
	}
	return b
}

func appendLiteral(b []byte, l *Literal) []byte {
	switch l.kind {
	case LiteralBool:
		b = protowire.AppendTag(b, literalFieldBool, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(l.b))
	case LiteralInt:
		b = protowire.AppendTag(b, literalFieldInt, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(l.i64))
	case LiteralLong:
		b = protowire.AppendTag(b, literalFieldLong, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(l.i64))
	case LiteralFloat:
		b = protowire.AppendTag(b, literalFieldFloat, protowire.Fixed32Type)
		b = protowire.AppendFixed32(b, math.Float32bits(float32(l.f64)))
	case LiteralDouble:
		b = protowire.AppendTag(b, literalFieldDouble, protowire.Fixed64Type)
		b = protowire.AppendFixed64(b, math.Float64bits(l.f64))
	case LiteralString:
		b = protowire.AppendTag(b, literalFieldString, protowire.BytesType)
		b = protowire.AppendString(b, l.s)
	case LiteralBytes:
		b = protowire.AppendTag(b, literalFieldBytes, protowire.BytesType)
		b = protowire.AppendBytes(b, l.bs)
	}
	return b
}

func consumeObject(data []byte) (*Object, error) {
	var className string
	members := map[string]Value{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, merr.WrapErrWireMalformed("object_field", "bad tag")
		}
		data = data[n:]

		switch {
		case num == objectFieldClassName && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, merr.WrapErrWireMalformed("object_class_name", "bad string")
			}
			className = v
			data = data[n:]

		case num == objectFieldMembers && typ == protowire.BytesType:
			entry, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, merr.WrapErrWireMalformed("member_variables", "bad entry")
			}
			data = data[n:]

			key, value, err := consumeMemberEntry(entry)
			if err != nil {
				return nil, err
			}
			members[key] = value

		default:
			// 未知字段：跳过，保持前向兼容。
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, merr.WrapErrWireMalformed("object_field", "bad unknown field")
			}
			data = data[n:]
		}
	}

	if className == NullClassName {
		return Null(), nil
	}
	return NewObject(className, members), nil
}

func consumeMemberEntry(data []byte) (string, Value, error) {
	var key string
	var value Value

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return "", nil, merr.WrapErrWireMalformed("member_entry", "bad tag")
		}
		data = data[n:]

		switch {
		case num == mapEntryKey && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return "", nil, merr.WrapErrWireMalformed("member_entry", "bad key")
			}
			key = v
			data = data[n:]

		case num == mapEntryValue && typ == protowire.BytesType:
			body, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return "", nil, merr.WrapErrWireMalformed("member_entry", "bad value")
			}
			data = data[n:]

			v, err := consumeMember(body)
			if err != nil {
				return "", nil, err
			}
			value = v

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return "", nil, merr.WrapErrWireMalformed("member_entry", "bad unknown field")
			}
			data = data[n:]
		}
	}

	if value == nil {
		return "", nil, merr.WrapErrWireMalformed("member_entry", "member variant not set")
	}
	return key, value, nil
}

func consumeMember(data []byte) (Value, error) {
	// oneof 语义：同一字段出现多次时，以最后一次为准。
	var value Value

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, merr.WrapErrWireMalformed("member_variable_field", "bad tag")
		}
		data = data[n:]

		if typ != protowire.BytesType {
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, merr.WrapErrWireMalformed("member_variable_field", "bad unknown field")
			}
			data = data[n:]
			continue
		}

		body, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return nil, merr.WrapErrWireMalformed("member_variable_field", "bad body")
		}
		data = data[n:]

		switch num {
		case memberFieldLiteral:
			v, err := consumeLiteral(body)
			if err != nil {
				return nil, err
			}
			value = v

		case memberFieldList:
			v, err := consumeList(body)
			if err != nil {
				return nil, err
			}
			value = v

		case memberFieldMap:
			v, err := consumeMap(body)
			if err != nil {
				return nil, err
			}
			value = v

		case memberFieldObject:
			v, err := consumeObject(body)
			if err != nil {
				return nil, err
			}
			value = v
		}
	}

	if value == nil {
		return nil, merr.WrapErrWireMalformed("member_variable_field", "variant not set")
	}
	return value, nil
}

func consumeLiteral(data []byte) (*Literal, error) {
	var value *Literal

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, merr.WrapErrWireMalformed("literal_field", "bad tag")
		}
		data = data[n:]

		switch {
		case num == literalFieldBool && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, merr.WrapErrWireMalformed("literal_field", "bad bool")
			}
			value = Bool(protowire.DecodeBool(v))
			data = data[n:]

		case num == literalFieldInt && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, merr.WrapErrWireMalformed("literal_field", "bad int")
			}
			value = Int(int32(v))
			data = data[n:]

		case num == literalFieldLong && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return nil, merr.WrapErrWireMalformed("literal_field", "bad long")
			}
			value = Long(int64(v))
			data = data[n:]

		case num == literalFieldFloat && typ == protowire.Fixed32Type:
			v, n := protowire.ConsumeFixed32(data)
			if n < 0 {
				return nil, merr.WrapErrWireMalformed("literal_field", "bad float")
			}
			value = Float(math.Float32frombits(v))
			data = data[n:]

		case num == literalFieldDouble && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(data)
			if n < 0 {
				return nil, merr.WrapErrWireMalformed("literal_field", "bad double")
			}
			value = Double(math.Float64frombits(v))
			data = data[n:]

		case num == literalFieldString && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(data)
			if n < 0 {
				return nil, merr.WrapErrWireMalformed("literal_field", "bad string")
			}
			value = String(v)
			data = data[n:]

		case num == literalFieldBytes && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, merr.WrapErrWireMalformed("literal_field", "bad bytes")
			}
			value = Bytes(v)
			data = data[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return nil, merr.WrapErrWireMalformed("literal_field", "bad unknown field")
			}
			data = data[n:]
		}
	}

	if value == nil {
		return nil, merr.WrapErrWireMalformed("literal_field", "variant not set")
	}
	return value, nil
}

func consumeList(data []byte) (*List, error) {
	var elems []Value

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, merr.WrapErrWireMalformed("list_field", "bad tag")
		}
		data = data[n:]

		if num == collectionFieldContent && typ == protowire.BytesType {
			body, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, merr.WrapErrWireMalformed("list_field", "bad content")
			}
			data = data[n:]

			elem, err := consumeMember(body)
			if err != nil {
				return nil, err
			}
			elems = append(elems, elem)
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return nil, merr.WrapErrWireMalformed("list_field", "bad unknown field")
		}
		data = data[n:]
	}

	return NewList(elems...), nil
}

func consumeMap(data []byte) (*Map, error) {
	entries := map[string]Value{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, merr.WrapErrWireMalformed("map_field", "bad tag")
		}
		data = data[n:]

		if num == collectionFieldContent && typ == protowire.BytesType {
			entry, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, merr.WrapErrWireMalformed("map_field", "bad content")
			}
			data = data[n:]

			key, value, err := consumeMemberEntry(entry)
			if err != nil {
				return nil, err
			}
			entries[key] = value
			continue
		}

		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return nil, merr.WrapErrWireMalformed("map_field", "bad unknown field")
		}
		data = data[n:]
	}

	return NewMap(entries), nil
}
