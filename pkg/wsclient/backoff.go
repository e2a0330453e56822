package wsclient

import "time"

// reconnectState is the pure retry bookkeeping for one failure episode. It
// is separated from the socket handling so the backoff and error-notice
// logic can be tested without a transport.
type reconnectState struct {
	baseDelay   time.Duration
	maxDelay    time.Duration
	maxAttempts int
	noticeAfter int

	attempts   int
	errorShown bool
}

func newReconnectState(base, max time.Duration, maxAttempts, noticeAfter int) *reconnectState {
	return &reconnectState{
		baseDelay:   base,
		maxDelay:    max,
		maxAttempts: maxAttempts,
		noticeAfter: noticeAfter,
	}
}

// fail records one failed attempt. retry reports whether another attempt
// should be scheduled after delay; once maxAttempts have failed, retry stays
// false forever (the episode is over, no further attempts).
func (s *reconnectState) fail() (delay time.Duration, retry bool) {
	s.attempts++
	if s.attempts > s.maxAttempts {
		return 0, false
	}

	delay = s.baseDelay << s.attempts
	if delay > s.maxDelay {
		delay = s.maxDelay
	}
	return delay, true
}

// shouldNotify reports whether the user should be shown a connection-error
// notice now. True at most once per failure episode, and only after
// noticeAfter consecutive failures.
func (s *reconnectState) shouldNotify() bool {
	if s.attempts < s.noticeAfter || s.errorShown {
		return false
	}
	s.errorShown = true
	return true
}

// reset clears the episode on a successful connection.
func (s *reconnectState) reset() {
	s.attempts = 0
	s.errorShown = false
}

func (s *reconnectState) failures() int {
	return s.attempts
}
