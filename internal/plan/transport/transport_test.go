package transport

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/planwire-go/internal/plan/wire"
	"github.com/lk2023060901/planwire-go/pkg/util/merr"
)

func sampleRecord() *wire.Object {
	return wire.NewObject("plan.StageNode", map[string]wire.Value{
		"name": wire.String("scan"),
		"rows": wire.Long(1 << 30),
		"children": wire.NewList(
			wire.NewObject("plan.StageNode", map[string]wire.Value{
				"name": wire.String("filter"),
				"meta": wire.Null(),
			}),
		),
	})
}

type TransportSuite struct {
	suite.Suite
}

func (s *TransportSuite) TestRoundTrip() {
	t, err := New(Options{})
	s.Require().NoError(err)

	in := sampleRecord()
	var buf bytes.Buffer
	s.Require().NoError(t.Send(&buf, in))

	// flags 字节：未启用压缩。
	s.Equal(byte(0), buf.Bytes()[4])

	out, err := t.Recv(&buf)
	s.Require().NoError(err)
	s.True(wire.Equal(in, out))

	// 流在帧边界上正常结束。
	_, err = t.Recv(&buf)
	s.ErrorIs(err, io.EOF)
}

func (s *TransportSuite) TestRoundTripCompressed() {
	z, err := NewZstdCompressor()
	s.Require().NoError(err)
	defer z.Close()

	t, err := New(Options{Compressor: z, EnableCompression: true})
	s.Require().NoError(err)

	in := sampleRecord()
	var buf bytes.Buffer
	s.Require().NoError(t.Send(&buf, in))
	s.Equal(flagCompressed, buf.Bytes()[4])

	out, err := t.Recv(&buf)
	s.Require().NoError(err)
	s.True(wire.Equal(in, out))
}

func (s *TransportSuite) TestMultipleFrames() {
	t, err := New(Options{})
	s.Require().NoError(err)

	var buf bytes.Buffer
	s.Require().NoError(t.Send(&buf, sampleRecord()))
	s.Require().NoError(t.Send(&buf, wire.Null()))

	first, err := t.Recv(&buf)
	s.Require().NoError(err)
	s.Equal("plan.StageNode", first.ClassName())

	second, err := t.Recv(&buf)
	s.Require().NoError(err)
	s.True(second.IsNull())

	_, err = t.Recv(&buf)
	s.ErrorIs(err, io.EOF)
}

func (s *TransportSuite) TestCompressionRequiresCompressor() {
	_, err := New(Options{EnableCompression: true})
	s.Error(err)
}

// 半截帧是可重试的截断错误，区别于帧边界上的正常 EOF。
func (s *TransportSuite) TestTruncatedFrame() {
	t, err := New(Options{})
	s.Require().NoError(err)

	var buf bytes.Buffer
	s.Require().NoError(t.Send(&buf, sampleRecord()))
	data := buf.Bytes()

	// 截断帧头。
	_, err = t.Recv(bytes.NewReader(data[:3]))
	s.ErrorIs(err, merr.ErrIoUnexpectEOF)
	s.True(merr.IsRetryableErr(err))

	// 截断帧体。
	_, err = t.Recv(bytes.NewReader(data[:len(data)-2]))
	s.ErrorIs(err, merr.ErrIoUnexpectEOF)
}

func (s *TransportSuite) TestOversizedFrameRejected() {
	t, err := New(Options{MaxFrameSize: 16})
	s.Require().NoError(err)

	var buf bytes.Buffer
	err = t.Send(&buf, sampleRecord())
	s.Error(err)

	// 读端同样拒绝超限的帧长度声明。
	header := make([]byte, frameHeaderSize)
	binary.BigEndian.PutUint32(header[0:4], 1<<30)
	_, err = t.Recv(bytes.NewReader(header))
	s.ErrorIs(err, merr.ErrWireMalformed)
}

func (s *TransportSuite) TestSendNil() {
	t, err := New(Options{})
	s.Require().NoError(err)

	var buf bytes.Buffer
	s.ErrorIs(t.Send(&buf, nil), merr.ErrParameterMissing)
}

func TestTransport(t *testing.T) {
	suite.Run(t, new(TransportSuite))
}
