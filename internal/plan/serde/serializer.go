package serde

import (
	"fmt"
	"reflect"

	"github.com/lk2023060901/planwire-go/internal/plan/registry"
	"github.com/lk2023060901/planwire-go/internal/plan/wire"
	"github.com/lk2023060901/planwire-go/pkg/util/merr"
)

// 本包实现已注册对象图与线上值树之间的双向转换引擎。
//
// 序列化按运行期动态类型分发（支持接口字段的多态往返），
// 反序列化按目标字段的声明类型恢复集合元素类型：
// 线上格式对集合元素不自描述，元素类型信息完全来自目标端的字段声明。

const (
	opSerialize   = "serialize"
	opDeserialize = "deserialize"
)

// Serde 为绑定在一个类型注册表上的转换引擎。
// 引擎本身无状态，可被多个 goroutine 并发使用。
type Serde struct {
	r *registry.Registry
}

// New 在给定注册表上创建转换引擎。
func New(r *registry.Registry) *Serde {
	return &Serde{r: r}
}

// Registry 返回引擎绑定的注册表。
func (s *Serde) Registry() *registry.Registry {
	return s.r
}

// Serialize 将对象序列化为线上对象记录。
//
// obj 为 nil（或为 nil 指针/接口）时返回空对象哨兵。
// 其余情况下 obj 应为已注册结构体（或其指针）或已注册枚举值，
// 未注册类型序列化失败。
func (s *Serde) Serialize(obj any) (*wire.Object, error) {
	if obj == nil {
		return wire.Null(), nil
	}
	return s.serializeDynamic(reflect.ValueOf(obj))
}

// serializeDynamic 按动态类型序列化一个对象记录。
func (s *Serde) serializeDynamic(v reflect.Value) (*wire.Object, error) {
	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return wire.Null(), nil
		}
		return s.serializeDynamic(v.Elem())

	case reflect.Struct:
		return s.serializeStruct(v)

	default:
		return s.serializeEnum(v)
	}
}

func (s *Serde) serializeStruct(v reflect.Value) (*wire.Object, error) {
	desc, ok := s.r.LookupType(v.Type())
	if !ok {
		return nil, merr.WrapErrTypeNotRegistered(opSerialize, v.Type().String())
	}

	members := make(map[string]wire.Value, len(desc.Fields()))
	for _, f := range desc.Fields() {
		fv := v.Field(f.Index)
		if !fv.CanInterface() {
			return nil, merr.WrapErrFieldAccess(opSerialize, desc.Name(), f.Name, "field is not accessible")
		}

		m, err := s.serializeKind(fv, f.Type, f.Kind)
		if err != nil {
			return nil, fmt.Errorf("serde: serialize field %s.%s: %w", desc.Name(), f.Name, err)
		}
		members[f.Name] = m
	}

	return wire.NewObject(desc.Name(), members), nil
}

// serializeEnum 将已注册枚举类型的值序列化为枚举记录。
func (s *Serde) serializeEnum(v reflect.Value) (*wire.Object, error) {
	desc, ok := s.r.LookupType(v.Type())
	if !ok {
		return nil, merr.WrapErrTypeNotRegistered(opSerialize, v.Type().String())
	}
	if !desc.IsEnum() {
		return nil, merr.WrapErrStructuralMismatch(opSerialize, desc.Name(), "",
			v.Kind().String(), "struct or enum", "type registered as neither struct nor enum")
	}

	variant, ok := desc.EnumName(v.Interface())
	if !ok {
		return nil, merr.WrapErrEnumValueUnknown(opSerialize, desc.Name(), v.Interface())
	}

	return wire.NewObject(desc.Name(), map[string]wire.Value{
		wire.EnumValueKey: wire.String(variant),
	}), nil
}

// serializeKind 按声明类型的线上形态序列化一个成员值。
// 集合元素递归走同一条路径，元素的形态由元素声明类型归类得出。
func (s *Serde) serializeKind(v reflect.Value, typ reflect.Type, kind registry.Kind) (wire.Value, error) {
	switch kind {
	case registry.KindLiteral:
		return serializeLiteral(v, typ)

	case registry.KindList:
		return s.serializeList(v, typ)

	case registry.KindMap:
		return s.serializeMap(v, typ)

	case registry.KindObject:
		return s.serializeDynamic(v)

	default:
		return nil, merr.WrapErrParameterInvalidMsg("unknown wire kind %d for %s", kind, typ)
	}
}

func serializeLiteral(v reflect.Value, typ reflect.Type) (wire.Value, error) {
	lk, ok := registry.LiteralKindOf(typ)
	if !ok {
		return nil, merr.WrapErrParameterInvalidMsg("type %s is not a literal scalar", typ)
	}

	switch lk {
	case wire.LiteralBool:
		return wire.Bool(v.Bool()), nil
	case wire.LiteralInt:
		return wire.Int(int32(v.Int())), nil
	case wire.LiteralLong:
		return wire.Long(v.Int()), nil
	case wire.LiteralFloat:
		return wire.Float(float32(v.Float())), nil
	case wire.LiteralDouble:
		return wire.Double(v.Float()), nil
	case wire.LiteralString:
		return wire.String(v.String()), nil
	case wire.LiteralBytes:
		// nil 字节序列与 nil 切片同样记录为空对象哨兵。
		if v.IsNil() {
			return wire.Null(), nil
		}
		return wire.Bytes(v.Bytes()), nil
	default:
		return nil, merr.WrapErrParameterInvalidMsg("unknown literal kind %s", lk)
	}
}

func (s *Serde) serializeList(v reflect.Value, typ reflect.Type) (wire.Value, error) {
	// nil 切片记录为空对象哨兵：字段在场但内容为 null，区别于字段缺席。
	if v.IsNil() {
		return wire.Null(), nil
	}

	elemType := typ.Elem()
	elemKind, err := registry.KindOf(elemType)
	if err != nil {
		return nil, err
	}

	elems := make([]wire.Value, v.Len())
	for i := 0; i < v.Len(); i++ {
		ev, err := s.serializeKind(v.Index(i), elemType, elemKind)
		if err != nil {
			return nil, err
		}
		elems[i] = ev
	}
	return wire.NewList(elems...), nil
}

func (s *Serde) serializeMap(v reflect.Value, typ reflect.Type) (wire.Value, error) {
	if v.IsNil() {
		return wire.Null(), nil
	}

	elemType := typ.Elem()
	elemKind, err := registry.KindOf(elemType)
	if err != nil {
		return nil, err
	}

	entries := make(map[string]wire.Value, v.Len())
	it := v.MapRange()
	for it.Next() {
		ev, err := s.serializeKind(it.Value(), elemType, elemKind)
		if err != nil {
			return nil, err
		}
		entries[it.Key().String()] = ev
	}
	return wire.NewMap(entries), nil
}
