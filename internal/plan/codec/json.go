package codec

import (
	"fmt"

	"github.com/lk2023060901/planwire-go/internal/json"
	"github.com/lk2023060901/planwire-go/internal/plan/wire"
	"github.com/lk2023060901/planwire-go/pkg/util/merr"
)

// JSONCodec 将值树编码为带标签的 JSON。
//
// 每个节点用 kind 字段标注变体，标量再用一层 kind 标注标量类别，
// 保证无歧义往返。字节序列按 JSON 惯例编码为 base64。
type JSONCodec struct {
	// Indent 非空时输出缩进格式，便于人工阅读。
	Indent string
}

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// NewJSONIndentCodec 返回输出缩进 JSON 的编解码器，inspect 工具使用。
func NewJSONIndentCodec() *JSONCodec {
	return &JSONCodec{Indent: "  "}
}

func (c *JSONCodec) Name() string {
	return "json"
}

type jsonValue struct {
	Kind    string                `json:"kind"`
	Literal *jsonLiteral          `json:"literal,omitempty"`
	Elems   []*jsonValue          `json:"elems,omitempty"`
	Entries map[string]*jsonValue `json:"entries,omitempty"`
	Class   string                `json:"className,omitempty"`
	Members map[string]*jsonValue `json:"members,omitempty"`
}

type jsonLiteral struct {
	Kind   string   `json:"kind"`
	Bool   *bool    `json:"bool,omitempty"`
	Int    *int32   `json:"int,omitempty"`
	Long   *int64   `json:"long,omitempty"`
	Float  *float32 `json:"float,omitempty"`
	Double *float64 `json:"double,omitempty"`
	String *string  `json:"string,omitempty"`
	Bytes  []byte   `json:"bytes,omitempty"`
}

func (c *JSONCodec) Marshal(v wire.Value) ([]byte, error) {
	if v == nil {
		return nil, merr.WrapErrParameterMissing("value", "marshal")
	}

	jv, err := toJSONValue(v)
	if err != nil {
		return nil, err
	}
	if c.Indent != "" {
		return json.MarshalIndent(jv, "", c.Indent)
	}
	return json.Marshal(jv)
}

func (c *JSONCodec) Unmarshal(data []byte) (wire.Value, error) {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return nil, merr.WrapErrWireMalformed("json", err.Error())
	}
	return fromJSONValue(&jv)
}

func toJSONValue(v wire.Value) (*jsonValue, error) {
	switch v := v.(type) {
	case *wire.Literal:
		return &jsonValue{Kind: wire.KindLiteral.String(), Literal: toJSONLiteral(v)}, nil

	case *wire.List:
		elems := make([]*jsonValue, v.Len())
		for i, e := range v.Elems() {
			je, err := toJSONValue(e)
			if err != nil {
				return nil, err
			}
			elems[i] = je
		}
		return &jsonValue{Kind: wire.KindList.String(), Elems: elems}, nil

	case *wire.Map:
		entries := make(map[string]*jsonValue, v.Len())
		for k, e := range v.Entries() {
			je, err := toJSONValue(e)
			if err != nil {
				return nil, err
			}
			entries[k] = je
		}
		return &jsonValue{Kind: wire.KindMap.String(), Entries: entries}, nil

	case *wire.Object:
		members := make(map[string]*jsonValue, len(v.Members()))
		for k, e := range v.Members() {
			je, err := toJSONValue(e)
			if err != nil {
				return nil, err
			}
			members[k] = je
		}
		return &jsonValue{Kind: wire.KindObject.String(), Class: v.ClassName(), Members: members}, nil

	default:
		return nil, merr.WrapErrParameterInvalidMsg("unknown value variant %T", v)
	}
}

func toJSONLiteral(l *wire.Literal) *jsonLiteral {
	out := &jsonLiteral{Kind: l.LiteralKind().String()}
	switch l.LiteralKind() {
	case wire.LiteralBool:
		v := l.BoolValue()
		out.Bool = &v
	case wire.LiteralInt:
		v := l.IntValue()
		out.Int = &v
	case wire.LiteralLong:
		v := l.LongValue()
		out.Long = &v
	case wire.LiteralFloat:
		v := l.FloatValue()
		out.Float = &v
	case wire.LiteralDouble:
		v := l.DoubleValue()
		out.Double = &v
	case wire.LiteralString:
		v := l.StringValue()
		out.String = &v
	case wire.LiteralBytes:
		out.Bytes = l.BytesValue()
	}
	return out
}

func fromJSONValue(jv *jsonValue) (wire.Value, error) {
	switch jv.Kind {
	case wire.KindLiteral.String():
		if jv.Literal == nil {
			return nil, merr.WrapErrWireMalformed("json", "literal node without literal body")
		}
		return fromJSONLiteral(jv.Literal)

	case wire.KindList.String():
		elems := make([]wire.Value, len(jv.Elems))
		for i, je := range jv.Elems {
			e, err := fromJSONValue(je)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return wire.NewList(elems...), nil

	case wire.KindMap.String():
		entries := make(map[string]wire.Value, len(jv.Entries))
		for k, je := range jv.Entries {
			e, err := fromJSONValue(je)
			if err != nil {
				return nil, err
			}
			entries[k] = e
		}
		return wire.NewMap(entries), nil

	case wire.KindObject.String():
		if jv.Class == wire.NullClassName {
			return wire.Null(), nil
		}
		members := make(map[string]wire.Value, len(jv.Members))
		for k, je := range jv.Members {
			e, err := fromJSONValue(je)
			if err != nil {
				return nil, err
			}
			members[k] = e
		}
		return wire.NewObject(jv.Class, members), nil

	default:
		return nil, merr.WrapErrWireMalformed("json", fmt.Sprintf("unknown kind %q", jv.Kind))
	}
}

func fromJSONLiteral(jl *jsonLiteral) (wire.Value, error) {
	switch jl.Kind {
	case wire.LiteralBool.String():
		if jl.Bool == nil {
			return nil, merr.WrapErrWireMalformed("json", "bool literal without value")
		}
		return wire.Bool(*jl.Bool), nil
	case wire.LiteralInt.String():
		if jl.Int == nil {
			return nil, merr.WrapErrWireMalformed("json", "int literal without value")
		}
		return wire.Int(*jl.Int), nil
	case wire.LiteralLong.String():
		if jl.Long == nil {
			return nil, merr.WrapErrWireMalformed("json", "long literal without value")
		}
		return wire.Long(*jl.Long), nil
	case wire.LiteralFloat.String():
		if jl.Float == nil {
			return nil, merr.WrapErrWireMalformed("json", "float literal without value")
		}
		return wire.Float(*jl.Float), nil
	case wire.LiteralDouble.String():
		if jl.Double == nil {
			return nil, merr.WrapErrWireMalformed("json", "double literal without value")
		}
		return wire.Double(*jl.Double), nil
	case wire.LiteralString.String():
		if jl.String == nil {
			return nil, merr.WrapErrWireMalformed("json", "string literal without value")
		}
		return wire.String(*jl.String), nil
	case wire.LiteralBytes.String():
		return wire.Bytes(jl.Bytes), nil
	default:
		return nil, merr.WrapErrWireMalformed("json", fmt.Sprintf("unknown literal kind %q", jl.Kind))
	}
}
