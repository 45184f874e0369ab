// Package device models the compute-runtime collaborators the alignment
// core runs on: a device identifier, an ordered asynchronous work stream,
// and a memory arena with a fixed byte budget
package device

import "errors"

// ErrAllocation is returned when an arena cannot satisfy a reservation
// within its configured budget
var ErrAllocation = errors.New("device memory exhausted")

// Device is an opaque handle for one accelerator. It only carries an
// identifier; the runtime behind it is out of scope here
type Device struct {
	id int
}

// New returns a handle for the device with the given identifier
func New(id int) *Device {
	return &Device{id: id}
}

// ID returns the device identifier
func (d *Device) ID() int {
	return d.id
}

// NewStream creates an execution stream bound to this device. Work enqueued
// on one stream runs in order; independent streams run concurrently
func (d *Device) NewStream() *Stream {
	s := &Stream{
		device: d,
		tasks:  make(chan func() error, 64),
		closed: make(chan struct{}),
	}
	go s.run()
	return s
}
