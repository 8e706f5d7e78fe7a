package transport

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"icc.tech/switch-agent/internal/core"
)

// scriptedProcessor returns canned decisions keyed by the first payload byte.
type scriptedProcessor struct {
	decide func(raw []byte, port core.PortID) (core.Decision, []byte)
	seen   []core.PortID
}

func (p *scriptedProcessor) ProcessPacket(raw []byte, port core.PortID, _ time.Time) (core.Decision, []byte) {
	p.seen = append(p.seen, port)
	return p.decide(raw, port)
}

func writeCapture(t *testing.T, path string, frames ...[]byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	for i, data := range frames {
		require.NoError(t, w.WritePacket(gopacket.CaptureInfo{
			Timestamp:     time.Unix(int64(1700000000+i), 0),
			CaptureLength: len(data),
			Length:        len(data),
		}, data))
	}
}

func readCapture(t *testing.T, path string) [][]byte {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	require.NoError(t, err)

	var frames [][]byte
	for {
		data, _, err := r.ReadPacketData()
		if err == io.EOF {
			return frames
		}
		require.NoError(t, err)
		cp := make([]byte, len(data))
		copy(cp, data)
		frames = append(frames, cp)
	}
}

func testFrame(b byte) []byte {
	frame := make([]byte, 60)
	frame[0] = b
	return frame
}

func TestForwardLandsOnEgressPort(t *testing.T) {
	dir := t.TempDir()
	in1 := filepath.Join(dir, "p1.pcap")
	out2 := filepath.Join(dir, "p2-out.pcap")
	writeCapture(t, in1, testFrame(0xAA), testFrame(0xBB))

	proc := &scriptedProcessor{
		decide: func(raw []byte, _ core.PortID) (core.Decision, []byte) {
			if raw[0] == 0xBB {
				return core.Drop(), nil
			}
			return core.Forward(2), raw
		},
	}

	tr := New([]PortSpec{
		{ID: 1, PcapIn: in1},
		{ID: 2, PcapIn: emptyCapture(t, dir, "p2.pcap"), PcapOut: out2},
	}, proc)
	require.NoError(t, tr.Open())
	require.NoError(t, tr.Run(context.Background()))
	require.NoError(t, tr.Close())

	got := readCapture(t, out2)
	require.Len(t, got, 1, "one forwarded frame, the drop emits nothing")
	assert.Equal(t, testFrame(0xAA), got[0])
	assert.Contains(t, proc.seen, core.PortID(1))
}

func TestBroadcastSkipsIngressPort(t *testing.T) {
	dir := t.TempDir()
	in1 := filepath.Join(dir, "p1.pcap")
	writeCapture(t, in1, testFrame(0xCC))

	proc := &scriptedProcessor{
		decide: func(raw []byte, _ core.PortID) (core.Decision, []byte) {
			return core.Broadcast(1), raw
		},
	}

	out1 := filepath.Join(dir, "p1-out.pcap")
	out2 := filepath.Join(dir, "p2-out.pcap")
	out3 := filepath.Join(dir, "p3-out.pcap")
	tr := New([]PortSpec{
		{ID: 1, PcapIn: in1, PcapOut: out1},
		{ID: 2, PcapIn: emptyCapture(t, dir, "p2.pcap"), PcapOut: out2},
		{ID: 3, PcapIn: emptyCapture(t, dir, "p3.pcap"), PcapOut: out3},
	}, proc)
	require.NoError(t, tr.Open())
	require.NoError(t, tr.Run(context.Background()))
	require.NoError(t, tr.Close())

	assert.Empty(t, readCapture(t, out1), "flood never reflects out the ingress port")
	assert.Len(t, readCapture(t, out2), 1)
	assert.Len(t, readCapture(t, out3), 1)
}

func TestForwardToPortWithoutSinkDiscarded(t *testing.T) {
	dir := t.TempDir()
	in1 := filepath.Join(dir, "p1.pcap")
	writeCapture(t, in1, testFrame(0x01))

	proc := &scriptedProcessor{
		decide: func(raw []byte, _ core.PortID) (core.Decision, []byte) {
			return core.Forward(7), raw
		},
	}

	tr := New([]PortSpec{{ID: 1, PcapIn: in1}}, proc)
	require.NoError(t, tr.Open())
	assert.NoError(t, tr.Run(context.Background()))
	require.NoError(t, tr.Close())
}

func TestRunReportsMissingInput(t *testing.T) {
	dir := t.TempDir()

	proc := &scriptedProcessor{
		decide: func(raw []byte, _ core.PortID) (core.Decision, []byte) {
			return core.Drop(), nil
		},
	}

	tr := New([]PortSpec{{ID: 1, PcapIn: filepath.Join(dir, "absent.pcap")}}, proc)
	require.NoError(t, tr.Open())
	err := tr.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port 1")
}

func TestRunHonorsCancel(t *testing.T) {
	dir := t.TempDir()
	in1 := filepath.Join(dir, "p1.pcap")

	frames := make([][]byte, 64)
	for i := range frames {
		frames[i] = testFrame(byte(i))
	}
	writeCapture(t, in1, frames...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := &scriptedProcessor{
		decide: func(raw []byte, _ core.PortID) (core.Decision, []byte) {
			return core.Drop(), nil
		},
	}

	tr := New([]PortSpec{{ID: 1, PcapIn: in1}}, proc)
	require.NoError(t, tr.Open())
	err := tr.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, proc.seen)
}

func emptyCapture(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	writeCapture(t, path)
	return path
}
