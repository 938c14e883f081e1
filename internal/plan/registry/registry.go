package registry

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/lk2023060901/planwire-go/internal/plan/wire"
	"github.com/lk2023060901/planwire-go/pkg/log"
	"github.com/lk2023060901/planwire-go/pkg/util/merr"
	"github.com/lk2023060901/planwire-go/pkg/util/typeutil"
)

// 本包实现可序列化类型的显式注册表。
//
// 原始机制依赖运行期反射发现类名并动态实例化，这在静态编译的目标里
// 没有等价物：这里改为在启动阶段把每个可序列化类型注册到 Registry，
// 登记稳定的类型标识、可序列化字段描述以及零参构造路径。
// 线上记录的类型名只在注册表内解析，绝不做任何运行期的临时查找。
//
// 字段标记约定：导出字段通过 struct tag `plan:"<成员名>"` 标记为可序列化，
// 未打标或标记为 "-" 的字段不参与序列化。

// TagKey 为字段标记使用的 struct tag 键。
const TagKey = "plan"

// Kind 表示字段声明类型对应的线上形态。
type Kind uint8

const (
	KindLiteral Kind = iota + 1
	KindList
	KindMap
	KindObject
)

var (
	typeBool   = reflect.TypeFor[bool]()
	typeInt32  = reflect.TypeFor[int32]()
	typeInt64  = reflect.TypeFor[int64]()
	typeFloat  = reflect.TypeFor[float32]()
	typeDouble = reflect.TypeFor[float64]()
	typeString = reflect.TypeFor[string]()
	typeBytes  = reflect.TypeFor[[]byte]()
)

// literalKinds 登记可直接映射为 Literal 的标量类型。
var literalKinds = map[reflect.Type]wire.LiteralKind{
	typeBool:   wire.LiteralBool,
	typeInt32:  wire.LiteralInt,
	typeInt64:  wire.LiteralLong,
	typeFloat:  wire.LiteralFloat,
	typeDouble: wire.LiteralDouble,
	typeString: wire.LiteralString,
	typeBytes:  wire.LiteralBytes,
}

// LiteralKindOf 返回给定类型对应的 Literal 类别。
// 仅精确匹配七种标量类型；带名字的标量类型（枚举候选）不算。
func LiteralKindOf(t reflect.Type) (wire.LiteralKind, bool) {
	k, ok := literalKinds[t]
	return k, ok
}

// KindOf 将字段声明类型归类为线上形态。
//
// 归类规则：
//   - 七种标量类型（精确匹配）→ Literal；
//   - 其余切片类型 → List；
//   - 键为 string 的映射类型 → Map；
//   - 指向结构体的指针、接口、带名字的标量类型（枚举）→ Object；
//   - 其它类型（裸结构体、非 string 键映射、int/uint 等）不支持。
//
// Object 形态的字段要求能够表达 null，因此裸结构体字段不允许，
// 必须改用指针。
func KindOf(t reflect.Type) (Kind, error) {
	if _, ok := literalKinds[t]; ok {
		return KindLiteral, nil
	}

	switch t.Kind() {
	case reflect.Slice:
		return KindList, nil

	case reflect.Map:
		if t.Key() != typeString {
			return 0, merr.WrapErrParameterInvalidMsg("map key must be string, got %s", t.Key())
		}
		return KindMap, nil

	case reflect.Pointer:
		if t.Elem().Kind() != reflect.Struct {
			return 0, merr.WrapErrParameterInvalidMsg("pointer field must point to struct, got %s", t)
		}
		return KindObject, nil

	case reflect.Interface:
		return KindObject, nil

	case reflect.Bool, reflect.Int32, reflect.Int64, reflect.Float32, reflect.Float64, reflect.String:
		// 带名字的标量类型，作为枚举候选按 Object 处理。
		if t.PkgPath() != "" {
			return KindObject, nil
		}
		return 0, merr.WrapErrParameterInvalidMsg("unsupported scalar type %s", t)

	default:
		return 0, merr.WrapErrParameterInvalidMsg("unsupported field type %s", t)
	}
}

// FieldSpec 描述一个可序列化字段。
type FieldSpec struct {
	// Name 为线上成员名，来自 plan tag。
	Name string
	// Index 为字段在结构体中的下标。
	Index int
	// Type 为字段声明类型，反序列化时用于恢复集合元素类型。
	Type reflect.Type
	// Kind 为字段的线上形态。
	Kind Kind
}

// Descriptor 描述一个已注册类型：稳定标识、底层类型、
// 可序列化字段清单以及零参构造路径。
type Descriptor struct {
	name string
	typ  reflect.Type

	fields []FieldSpec
	byName map[string]int

	enumByName map[string]reflect.Value
	enumNames  map[any]string
}

func (d *Descriptor) Name() string {
	return d.name
}

// Type 返回底层类型：结构体类型（非指针），或枚举的标量类型。
func (d *Descriptor) Type() reflect.Type {
	return d.typ
}

// Fields 返回可序列化字段清单，顺序与结构体声明顺序一致。
func (d *Descriptor) Fields() []FieldSpec {
	return d.fields
}

// Field 按线上成员名查找字段描述。
func (d *Descriptor) Field(name string) (*FieldSpec, bool) {
	i, ok := d.byName[name]
	if !ok {
		return nil, false
	}
	return &d.fields[i], true
}

func (d *Descriptor) IsEnum() bool {
	return d.enumByName != nil
}

// EnumValue 按变体名查找枚举值。
func (d *Descriptor) EnumValue(name string) (reflect.Value, bool) {
	v, ok := d.enumByName[name]
	return v, ok
}

// EnumName 按枚举值查找变体名。
func (d *Descriptor) EnumName(v any) (string, bool) {
	name, ok := d.enumNames[v]
	return name, ok
}

// New 通过零参构造路径创建一个新实例，返回指向零值结构体的指针。
func (d *Descriptor) New() reflect.Value {
	return reflect.New(d.typ)
}

// Registry 维护类型标识与 Descriptor 的双向映射。
//
// 并发约定：读操作可以任意并发；注册（写）相对读是原子的。
// 共享同一个 Registry 的多个 goroutine 无需额外同步。
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Descriptor
	byType map[reflect.Type]*Descriptor
}

// New 创建一个空的 Registry。
func New() *Registry {
	return &Registry{
		byName: make(map[string]*Descriptor),
		byType: make(map[reflect.Type]*Descriptor),
	}
}

// Register 将 prototype 的类型以 name 为标识注册为可序列化结构体类型。
//
// prototype 应为结构体或指向结构体的指针，内容本身被忽略，
// 只用于携带类型信息。重复注册同名或同类型均会失败。
func (r *Registry) Register(name string, prototype any) (*Descriptor, error) {
	if name == "" {
		return nil, merr.WrapErrParameterMissing("name", "register type")
	}
	if name == wire.NullClassName {
		return nil, merr.WrapErrParameterInvalidMsg("type name %q is reserved", name)
	}
	if prototype == nil {
		return nil, merr.WrapErrParameterMissing("prototype", "register type")
	}

	typ := reflect.TypeOf(prototype)
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, merr.WrapErrTypeNotConstructible(name, "prototype must be a struct or a pointer to struct")
	}

	fields, err := buildFieldSpecs(name, typ)
	if err != nil {
		return nil, err
	}

	desc := &Descriptor{
		name:   name,
		typ:    typ,
		fields: fields,
		byName: make(map[string]int, len(fields)),
	}
	for i := range fields {
		desc.byName[fields[i].Name] = i
	}

	return desc, r.put(desc)
}

func buildFieldSpecs(typeName string, typ reflect.Type) ([]FieldSpec, error) {
	var fields []FieldSpec
	names := typeutil.NewSet[string]()

	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup(TagKey)
		if !ok || tag == "-" {
			continue
		}
		if tag == "" {
			tag = f.Name
		}

		if tag == wire.EnumValueKey {
			return nil, merr.WrapErrKeyReserved(typeName, tag)
		}
		if names.Contain(tag) {
			return nil, merr.WrapErrFieldBadSpec(typeName, tag, "duplicated member name")
		}
		names.Insert(tag)

		kind, err := KindOf(f.Type)
		if err != nil {
			return nil, merr.WrapErrFieldBadSpec(typeName, tag, err.Error())
		}

		fields = append(fields, FieldSpec{
			Name:  tag,
			Index: i,
			Type:  f.Type,
			Kind:  kind,
		})
	}

	return fields, nil
}

// RegisterEnum 将标量类型 T 以 name 为标识注册为枚举类型，
// values 给出变体名到枚举值的完整映射。
func RegisterEnum[T comparable](r *Registry, name string, values map[string]T) (*Descriptor, error) {
	if name == "" {
		return nil, merr.WrapErrParameterMissing("name", "register enum")
	}
	if name == wire.NullClassName {
		return nil, merr.WrapErrParameterInvalidMsg("type name %q is reserved", name)
	}
	if len(values) == 0 {
		return nil, merr.WrapErrParameterMissing("values", "register enum")
	}

	typ := reflect.TypeFor[T]()
	if typ.PkgPath() == "" {
		return nil, merr.WrapErrParameterInvalidMsg("enum type must be a named type, got %s", typ)
	}

	desc := &Descriptor{
		name:       name,
		typ:        typ,
		enumByName: make(map[string]reflect.Value, len(values)),
		enumNames:  make(map[any]string, len(values)),
	}
	for variant, v := range values {
		if _, ok := desc.enumNames[v]; ok {
			return nil, merr.WrapErrParameterInvalidMsg("enum %s has ambiguous value %v", name, v)
		}
		desc.enumByName[variant] = reflect.ValueOf(v)
		desc.enumNames[v] = variant
	}

	return desc, r.put(desc)
}

// Register 是泛型便捷入口，等价于 r.Register(name, (*T)(nil) 的零值原型)。
func Register[T any](r *Registry, name string) (*Descriptor, error) {
	var prototype T
	return r.Register(name, &prototype)
}

// MustRegister 与 Register 相同，失败时直接 panic。
// 适用于启动阶段的静态注册。
func MustRegister[T any](r *Registry, name string) *Descriptor {
	desc, err := Register[T](r, name)
	if err != nil {
		panic(err)
	}
	return desc
}

// MustRegisterEnum 与 RegisterEnum 相同，失败时直接 panic。
func MustRegisterEnum[T comparable](r *Registry, name string, values map[string]T) *Descriptor {
	desc, err := RegisterEnum(r, name, values)
	if err != nil {
		panic(err)
	}
	return desc
}

func (r *Registry) put(desc *Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[desc.name]; ok {
		return merr.WrapErrTypeDuplicated(desc.name)
	}
	if prev, ok := r.byType[desc.typ]; ok {
		return merr.WrapErrTypeDuplicated(desc.name, "type already registered as "+prev.name)
	}

	r.byName[desc.name] = desc
	r.byType[desc.typ] = desc
	return nil
}

// Lookup 按类型标识查找 Descriptor。
func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.byName[name]
	return desc, ok
}

// LookupType 按 Go 类型查找 Descriptor。
func (r *Registry) LookupType(t reflect.Type) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, ok := r.byType[t]
	return desc, ok
}

// Resolve 将线上记录的类型名解析为 Descriptor。
//
// 精确查找失败时，如果调用方提供了 fallback，则回退到 fallback：
// 这允许写端发出读端尚不认识的类型，只要读端的目标字段声明了
// 结构兼容的类型（前向兼容）。没有可用 fallback 时解析失败。
func (r *Registry) Resolve(name string, fallback *Descriptor) (*Descriptor, error) {
	if desc, ok := r.Lookup(name); ok {
		return desc, nil
	}

	if fallback != nil {
		log.RatedDebug(1, "type not registered, falling back to destination type",
			log.FieldModule("registry"),
			zap.String("className", name),
			zap.String("fallback", fallback.Name()))
		return fallback, nil
	}

	return nil, merr.WrapErrTypeNotRegistered("resolve", name)
}
