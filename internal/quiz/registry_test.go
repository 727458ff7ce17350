package quiz

import (
	"sync"
	"testing"
)

func TestTryBeginCreateSingleWinner(t *testing.T) {
	r := NewRegistry()
	const racers = 32

	var wg sync.WaitGroup
	wins := make(chan bool, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			wins <- r.TryBeginCreate("ch")
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for ok := range wins {
		if ok {
			won++
		}
	}
	if won != 1 {
		t.Fatalf("expected exactly one winner, got %d", won)
	}
}

func TestAbortCreateReleasesClaim(t *testing.T) {
	r := NewRegistry()
	if !r.TryBeginCreate("ch") {
		t.Fatal("first claim should succeed")
	}
	if r.TryBeginCreate("ch") {
		t.Fatal("claim while creating must fail")
	}
	r.AbortCreate("ch")
	if !r.TryBeginCreate("ch") {
		t.Fatal("claim after abort should succeed")
	}
}

func TestCommitBlocksUntilEnd(t *testing.T) {
	r := NewRegistry()
	if !r.TryBeginCreate("ch") {
		t.Fatal("claim should succeed")
	}
	sess := &Session{channelID: "ch"}
	r.Commit("ch", sess)

	if r.Get("ch") != sess {
		t.Fatal("Get should return the committed session")
	}
	if r.TryBeginCreate("ch") {
		t.Fatal("claim with an active session must fail")
	}

	r.End("ch")
	r.End("ch") // idempotent
	if r.Get("ch") != nil {
		t.Fatal("session should be gone after End")
	}
	if !r.TryBeginCreate("ch") {
		t.Fatal("claim after End should succeed")
	}
}
