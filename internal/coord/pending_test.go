package coord

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPendingFetchesWaitUnblocksAtZero(t *testing.T) {
	p := NewPendingFetches()
	p.Add(2)
	assert.Equal(t, 2, p.Count())

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before count reached zero")
	case <-time.After(20 * time.Millisecond):
	}

	p.Add(-1)
	p.Add(-1)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock once count reached zero")
	}
}

func TestPendingFetchesWaitReturnsImmediatelyWhenAlreadyZero(t *testing.T) {
	p := NewPendingFetches()
	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return immediately")
	}
}
