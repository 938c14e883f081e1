package codec

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/planwire-go/internal/plan/wire"
	"github.com/lk2023060901/planwire-go/pkg/util/merr"
)

func sampleRecord() *wire.Object {
	return wire.NewObject("plan.StageNode", map[string]wire.Value{
		"enabled": wire.Bool(false),
		"id":      wire.Int(0),
		"rows":    wire.Long(1 << 40),
		"ratio":   wire.Float(0.25),
		"cost":    wire.Double(3.5),
		"name":    wire.String("scan"),
		"digest":  wire.Bytes([]byte{0x00, 0xff}),
		"children": wire.NewList(
			wire.NewObject("plan.StageNode", map[string]wire.Value{
				"name": wire.String("filter"),
				"meta": wire.Null(),
			}),
		),
		"hints": wire.NewMap(map[string]wire.Value{
			"parallel": wire.Int(8),
		}),
		"priority": wire.NewObject("plan.Priority", map[string]wire.Value{
			wire.EnumValueKey: wire.String("HIGH"),
		}),
	})
}

type CodecSuite struct {
	suite.Suite
}

func (s *CodecSuite) codecs() []Codec {
	return []Codec{NewProtoCodec(), NewJSONCodec(), NewJSONIndentCodec()}
}

func (s *CodecSuite) TestRoundTripRecord() {
	in := sampleRecord()
	for _, c := range s.codecs() {
		data, err := c.Marshal(in)
		s.Require().NoError(err, c.Name())

		out, err := c.Unmarshal(data)
		s.Require().NoError(err, c.Name())
		s.True(wire.Equal(in, out), c.Name())
	}
}

func (s *CodecSuite) TestRoundTripNull() {
	for _, c := range s.codecs() {
		data, err := c.Marshal(wire.Null())
		s.Require().NoError(err, c.Name())

		out, err := c.Unmarshal(data)
		s.Require().NoError(err, c.Name())
		o, ok := out.(*wire.Object)
		s.Require().True(ok, c.Name())
		s.True(o.IsNull(), c.Name())
	}
}

func (s *CodecSuite) TestMarshalNil() {
	for _, c := range s.codecs() {
		_, err := c.Marshal(nil)
		s.ErrorIs(err, merr.ErrParameterMissing, c.Name())
	}
}

// proto 编解码器的顶层必须是对象记录。
func (s *CodecSuite) TestProtoTopLevelMustBeObject() {
	_, err := NewProtoCodec().Marshal(wire.Long(1))
	s.ErrorIs(err, merr.ErrWireStructuralMismatch)
}

// JSON 编解码器可独立往返全部变体，包括非对象顶层值。
func (s *CodecSuite) TestJSONRoundTripsAllVariants() {
	c := NewJSONCodec()
	for _, v := range []wire.Value{
		wire.Bool(true),
		wire.Int(-1),
		wire.Long(1 << 60),
		wire.Float(1.5),
		wire.Double(-2.5),
		wire.String(""),
		wire.Bytes([]byte("payload")),
		wire.NewList(wire.Long(1), wire.Null()),
		wire.NewMap(map[string]wire.Value{"k": wire.String("v")}),
		wire.Null(),
	} {
		data, err := c.Marshal(v)
		s.Require().NoError(err)

		out, err := c.Unmarshal(data)
		s.Require().NoError(err)
		s.True(wire.Equal(v, out), string(data))
	}
}

func (s *CodecSuite) TestJSONUnmarshalMalformed() {
	c := NewJSONCodec()

	_, err := c.Unmarshal([]byte(`{`))
	s.ErrorIs(err, merr.ErrWireMalformed)

	_, err = c.Unmarshal([]byte(`{"kind":"warp"}`))
	s.ErrorIs(err, merr.ErrWireMalformed)

	_, err = c.Unmarshal([]byte(`{"kind":"literal","literal":{"kind":"int"}}`))
	s.ErrorIs(err, merr.ErrWireMalformed)
}

func TestCodec(t *testing.T) {
	suite.Run(t, new(CodecSuite))
}
