package record

import "sync"

// sequenceNumber is a per-direction record counter. Each sequential
// value is handed out exactly once; when the increment would wrap past
// 2^64-1 the counter becomes permanently exhausted and every further
// use fails. The mutex serializes callers that do not serialize
// themselves.
type sequenceNumber struct {
	mu        sync.Mutex
	value     uint64
	exhausted bool
}

// next returns the current value and advances the counter. The alert
// reported on exhaustion is supplied by the caller: the read path
// raises unexpected_message, the write path internal_error.
func (s *sequenceNumber) next(alert AlertDescription) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exhausted {
		return 0, alertErr(alert)
	}
	v := s.value
	s.value++
	if s.value == 0 {
		s.exhausted = true
	}
	return v, nil
}
