// Package monitor listens to a board's debug UART and decodes the
// acquisition reports the firmware sends after bring-up.
package monitor

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"adcstream/core"
	"adcstream/host/serial"
	"adcstream/protocol"
)

var ErrTimeout = errors.New("timed out waiting for a report")

// Monitor owns a serial connection and a background reader.
type Monitor struct {
	port io.ReadCloser

	mu      sync.Mutex
	dropped int

	reports  chan core.Snapshot
	errs     chan error
	stopChan chan struct{}
	doneChan chan struct{}
}

// Connect opens the device described by cfg and starts reading.
func Connect(cfg *serial.Config) (*Monitor, error) {
	port, err := serial.Open(cfg)
	if err != nil {
		return nil, err
	}
	return New(port), nil
}

// New starts reading reports from port.
func New(port io.ReadCloser) *Monitor {
	m := &Monitor{
		port:     port,
		reports:  make(chan core.Snapshot, 4),
		errs:     make(chan error, 1),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	go m.readLoop()
	return m
}

// Reports delivers every decoded report.
func (m *Monitor) Reports() <-chan core.Snapshot {
	return m.reports
}

// WaitReport blocks for the next report, a read error or the timeout.
func (m *Monitor) WaitReport(timeout time.Duration) (core.Snapshot, error) {
	select {
	case snap := <-m.reports:
		return snap, nil
	case err := <-m.errs:
		return core.Snapshot{}, err
	case <-time.After(timeout):
		return core.Snapshot{}, ErrTimeout
	}
}

// Dropped returns how many bytes did not belong to a valid report frame,
// which includes the firmware's plain-text debug lines.
func (m *Monitor) Dropped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropped
}

// Close stops the reader and closes the port.
func (m *Monitor) Close() error {
	close(m.stopChan)
	err := m.port.Close()
	<-m.doneChan
	return err
}

func (m *Monitor) readLoop() {
	defer close(m.doneChan)

	dec := protocol.NewDecoder(1024)
	buf := make([]byte, 256)
	for {
		n, err := m.port.Read(buf)
		if n > 0 {
			m.feed(dec, buf[:n])
		}
		// A serial read timeout with no data comes back as io.EOF; the
		// board may still be in reset, so keep waiting.
		if err == io.EOF {
			err = nil
		}
		if err != nil {
			select {
			case <-m.stopChan:
			default:
				err = fmt.Errorf("serial read: %w", err)
				select {
				case m.errs <- err:
				default:
				}
			}
			return
		}
		select {
		case <-m.stopChan:
			return
		default:
		}
	}
}

// feed hands data to the decoder in pieces it can hold. A pending block is
// at most FrameMax bytes, so after Next the decoder always has room again.
func (m *Monitor) feed(dec *protocol.Decoder, data []byte) {
	for len(data) > 0 {
		n, _ := dec.Write(data)
		data = data[n:]
		for {
			msg, ok := dec.Next()
			if !ok {
				break
			}
			payload := msg.Payload
			snap, err := core.DecodeSnapshot(&payload)
			if err != nil {
				continue
			}
			select {
			case m.reports <- snap:
			case <-m.stopChan:
				return
			}
		}
		m.mu.Lock()
		m.dropped = dec.Dropped()
		m.mu.Unlock()
	}
}
