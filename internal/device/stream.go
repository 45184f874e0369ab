package device

import "sync"

// Stream is an ordered asynchronous work queue bound to one device.
// Enqueue returns immediately; completion is observed with Sync. The first
// task error is sticky and reported by every Sync until the stream is closed
type Stream struct {
	device *Device
	tasks  chan func() error
	closed chan struct{}

	wg sync.WaitGroup

	mu  sync.Mutex
	err error
}

// Device returns the device this stream is bound to
func (s *Stream) Device() *Device {
	return s.device
}

func (s *Stream) run() {
	for {
		select {
		case task := <-s.tasks:
			if err := task(); err != nil {
				s.mu.Lock()
				if s.err == nil {
					s.err = err
				}
				s.mu.Unlock()
			}
			s.wg.Done()
		case <-s.closed:
			return
		}
	}
}

// Enqueue adds work to the stream and returns without waiting for it.
// Tasks run one at a time in enqueue order
func (s *Stream) Enqueue(task func() error) {
	s.wg.Add(1)
	s.tasks <- task
}

// Sync blocks until every task enqueued so far has finished and returns the
// first error any of them produced
func (s *Stream) Sync() error {
	s.wg.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close drains the stream and stops its worker. The stream must not be
// used afterward
func (s *Stream) Close() error {
	err := s.Sync()
	close(s.closed)
	return err
}
