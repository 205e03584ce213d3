package monitor

import (
	"errors"
	"io"
	"testing"
	"time"

	"adcstream/core"
	"adcstream/protocol"
)

type pipePort struct {
	*io.PipeReader
}

func reportBytes(t *testing.T) ([]byte, core.Snapshot) {
	t.Helper()
	snap, err := core.Plan(core.DefaultAcquisitionConfig())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	out := protocol.NewScratchOutput()
	enc := protocol.NewEncoder(out)
	enc.Sync()
	if err := enc.EncodeFrame(snap.Encode); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	return append([]byte(nil), out.Result()...), snap
}

func TestMonitorDecodesReportAfterDebugText(t *testing.T) {
	r, w := io.Pipe()
	m := New(pipePort{r})
	defer m.Close()

	frame, want := reportBytes(t)
	go func() {
		w.Write([]byte("[BRINGUP] CLOCK_CHECK 0x00000000\r\n"))
		// Split the frame across writes like a slow UART would.
		w.Write(frame[:10])
		w.Write(frame[10:])
	}()

	got, err := m.WaitReport(2 * time.Second)
	if err != nil {
		t.Fatalf("WaitReport: %v", err)
	}
	if got.Values != want.Values {
		t.Errorf("decoded registers differ from the plan")
	}
	if len(got.Steps) != len(want.Steps) {
		t.Errorf("Expected %d steps, got %d", len(want.Steps), len(got.Steps))
	}
	if m.Dropped() == 0 {
		t.Error("Expected the debug text to be counted as dropped")
	}
}

// idlePort behaves like a serial port with a read timeout: it reports
// io.EOF with no data a few times before the board starts talking.
type idlePort struct {
	idle int
	data []byte
	err  error
}

func (p *idlePort) Read(b []byte) (int, error) {
	if p.idle > 0 {
		p.idle--
		return 0, io.EOF
	}
	if len(p.data) > 0 {
		n := copy(b, p.data)
		p.data = p.data[n:]
		return n, nil
	}
	if p.err != nil {
		return 0, p.err
	}
	time.Sleep(time.Millisecond)
	return 0, io.EOF
}

func (p *idlePort) Close() error { return nil }

func TestMonitorWaitsThroughIdleReads(t *testing.T) {
	frame, want := reportBytes(t)
	m := New(&idlePort{idle: 3, data: frame})
	defer m.Close()

	got, err := m.WaitReport(2 * time.Second)
	if err != nil {
		t.Fatalf("WaitReport: %v", err)
	}
	if got.Values != want.Values {
		t.Errorf("decoded registers differ from the plan")
	}
}

func TestMonitorReportsReadError(t *testing.T) {
	ioErr := errors.New("input/output error")
	m := New(&idlePort{idle: 2, err: ioErr})
	defer m.Close()

	_, err := m.WaitReport(2 * time.Second)
	if !errors.Is(err, ioErr) {
		t.Errorf("Expected wrapped read error, got %v", err)
	}
}

func TestMonitorTimeout(t *testing.T) {
	r, _ := io.Pipe()
	m := New(pipePort{r})
	defer m.Close()

	if _, err := m.WaitReport(10 * time.Millisecond); err != ErrTimeout {
		t.Errorf("Expected ErrTimeout, got %v", err)
	}
}
