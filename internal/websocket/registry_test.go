package websocket

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestRegistryAddAndGet(t *testing.T) {
	r := NewRegistry()
	c1 := &Conn{id: "c1"}
	c2 := &Conn{id: "c2"}

	r.Add("user-1", c1)
	r.Add("user-1", c2)

	conns := r.Get("user-1")
	if len(conns) != 2 {
		t.Errorf("Expected 2 connections, got %d", len(conns))
	}
}

func TestRegistryAddIdempotent(t *testing.T) {
	r := NewRegistry()
	c := &Conn{id: "c1"}

	// Adding the same connection twice must not duplicate it
	r.Add("user-1", c)
	r.Add("user-1", c)

	if got := len(r.Get("user-1")); got != 1 {
		t.Errorf("Expected 1 connection after duplicate add, got %d", got)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	c1 := &Conn{id: "c1"}
	c2 := &Conn{id: "c2"}

	r.Add("user-1", c1)
	r.Add("user-1", c2)
	r.Remove("user-1", c1)

	conns := r.Get("user-1")
	if len(conns) != 1 {
		t.Fatalf("Expected 1 connection after remove, got %d", len(conns))
	}
	if conns[0] != c2 {
		t.Error("Wrong connection removed")
	}
}

func TestRegistryEmptyKeyCleanup(t *testing.T) {
	r := NewRegistry()
	c := &Conn{id: "c1"}

	r.Add("user-1", c)
	r.Remove("user-1", c)

	// The user key must be gone entirely, not left as an empty set
	if r.Len() != 0 {
		t.Errorf("Expected 0 users after last connection removed, got %d", r.Len())
	}
	if len(r.Users()) != 0 {
		t.Errorf("Users() should be empty, got %v", r.Users())
	}
}

func TestRegistryRemoveAbsentIsNoop(t *testing.T) {
	r := NewRegistry()
	c := &Conn{id: "c1"}

	// Removing from an unknown user must not panic or fail
	r.Remove("user-1", c)

	r.Add("user-1", c)
	other := &Conn{id: "c2"}
	r.Remove("user-1", other)

	if got := len(r.Get("user-1")); got != 1 {
		t.Errorf("Expected 1 connection, got %d", got)
	}
}

func TestRegistryFirstAndLastSignals(t *testing.T) {
	r := NewRegistry()
	c1 := &Conn{id: "c1"}
	c2 := &Conn{id: "c2"}

	if !r.Add("user-1", c1) {
		t.Error("First add must report first")
	}
	if r.Add("user-1", c2) {
		t.Error("Second add must not report first")
	}
	if r.Add("user-1", c1) {
		t.Error("Duplicate add must not report first")
	}

	if r.Remove("user-1", c1) {
		t.Error("Removing one of two connections must not report last")
	}
	if !r.Remove("user-1", c2) {
		t.Error("Removing the final connection must report last")
	}
	if r.Remove("user-1", c2) {
		t.Error("Removing an absent connection must not report last")
	}
}

func TestRegistryConcurrentFirstElection(t *testing.T) {
	r := NewRegistry()
	const conns = 50

	// Exactly one concurrent add observes the zero-to-one transition, and
	// exactly one concurrent remove observes the one-to-zero transition
	var wg sync.WaitGroup
	var firsts, lasts int32
	all := make([]*Conn, conns)
	for i := 0; i < conns; i++ {
		all[i] = &Conn{id: fmt.Sprintf("c%d", i)}
	}

	for _, c := range all {
		wg.Add(1)
		go func(c *Conn) {
			defer wg.Done()
			if r.Add("user-1", c) {
				atomic.AddInt32(&firsts, 1)
			}
		}(c)
	}
	wg.Wait()
	if firsts != 1 {
		t.Errorf("Expected exactly 1 first signal, got %d", firsts)
	}

	for _, c := range all {
		wg.Add(1)
		go func(c *Conn) {
			defer wg.Done()
			if r.Remove("user-1", c) {
				atomic.AddInt32(&lasts, 1)
			}
		}(c)
	}
	wg.Wait()
	if lasts != 1 {
		t.Errorf("Expected exactly 1 last signal, got %d", lasts)
	}
	if r.Len() != 0 {
		t.Errorf("Expected empty registry, got %d users", r.Len())
	}
}

func TestRegistryGetUnknownUser(t *testing.T) {
	r := NewRegistry()
	if conns := r.Get("nobody"); len(conns) != 0 {
		t.Errorf("Expected empty result for unknown user, got %d connections", len(conns))
	}
}

func TestRegistryConcurrentAddRemove(t *testing.T) {
	r := NewRegistry()
	const users = 10
	const connsPerUser = 20

	var wg sync.WaitGroup
	for u := 0; u < users; u++ {
		for i := 0; i < connsPerUser; i++ {
			wg.Add(1)
			go func(u, i int) {
				defer wg.Done()
				userID := fmt.Sprintf("user-%d", u)
				c := &Conn{id: fmt.Sprintf("conn-%d-%d", u, i)}
				r.Add(userID, c)
				if i%2 == 0 {
					r.Remove(userID, c)
				}
			}(u, i)
		}
	}
	wg.Wait()

	// Every user keeps exactly the odd-numbered connections
	for u := 0; u < users; u++ {
		userID := fmt.Sprintf("user-%d", u)
		if got := len(r.Get(userID)); got != connsPerUser/2 {
			t.Errorf("User %s: expected %d connections, got %d", userID, connsPerUser/2, got)
		}
	}
}
