package wsclient

import (
	"testing"
	"time"
)

func defaultState() *reconnectState {
	return newReconnectState(1*time.Second, 30*time.Second, 5, 3)
}

func TestBackoffDelaySequence(t *testing.T) {
	s := defaultState()

	expected := []time.Duration{
		2000 * time.Millisecond,
		4000 * time.Millisecond,
		8000 * time.Millisecond,
		16000 * time.Millisecond,
		30000 * time.Millisecond,
	}

	for i, want := range expected {
		delay, retry := s.fail()
		if !retry {
			t.Fatalf("Attempt %d: expected retry, got give-up", i+1)
		}
		if delay != want {
			t.Errorf("Attempt %d: expected delay %v, got %v", i+1, want, delay)
		}
	}

	// No 6th attempt is ever scheduled
	if _, retry := s.fail(); retry {
		t.Error("Expected give-up after max attempts, got retry")
	}
	if _, retry := s.fail(); retry {
		t.Error("Give-up must be permanent")
	}
}

func TestBackoffResetStartsNewEpisode(t *testing.T) {
	s := defaultState()

	s.fail()
	s.fail()
	s.reset()

	delay, retry := s.fail()
	if !retry {
		t.Fatal("Expected retry after reset")
	}
	if delay != 2000*time.Millisecond {
		t.Errorf("Expected delay to restart at 2s, got %v", delay)
	}
}

func TestErrorNoticeThrottling(t *testing.T) {
	s := defaultState()

	// 10 consecutive failures produce exactly one notice
	notices := 0
	for i := 0; i < 10; i++ {
		s.fail()
		if s.shouldNotify() {
			notices++
		}
	}
	if notices != 1 {
		t.Errorf("Expected exactly 1 notice over 10 failures, got %d", notices)
	}
}

func TestErrorNoticeRequiresMinimumFailures(t *testing.T) {
	s := defaultState()

	s.fail()
	if s.shouldNotify() {
		t.Error("Notice after 1 failure is too early")
	}
	s.fail()
	if s.shouldNotify() {
		t.Error("Notice after 2 failures is too early")
	}
	s.fail()
	if !s.shouldNotify() {
		t.Error("Expected notice after 3 failures")
	}
}

func TestErrorNoticeResetsWithEpisode(t *testing.T) {
	s := defaultState()

	for i := 0; i < 4; i++ {
		s.fail()
	}
	if !s.shouldNotify() {
		t.Fatal("Expected notice in first episode")
	}

	// A successful reconnect clears the flag for the next episode
	s.reset()
	for i := 0; i < 3; i++ {
		s.fail()
	}
	if !s.shouldNotify() {
		t.Error("Expected notice again in a fresh episode")
	}
}
