package shutdown

import (
	"sync"
	"testing"
)

func TestToken(t *testing.T) {
	token := NewToken()
	if s := token.Status(); s != Running {
		t.Fatalf("new token is %v", s)
	}
	select {
	case <-token.Done():
		t.Fatal("done closed before Close")
	default:
	}

	if !token.Close() {
		t.Fatal("first Close reported no transition")
	}
	if token.Close() {
		t.Fatal("second Close reported a transition")
	}
	if !token.Closing() {
		t.Fatal("token not closing after Close")
	}
	<-token.Done()
}

func TestTokenConcurrentClose(t *testing.T) {
	token := NewToken()

	var (
		wg          sync.WaitGroup
		m           sync.Mutex
		transitions int
	)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if token.Close() {
				m.Lock()
				transitions++
				m.Unlock()
			}
		}()
	}
	wg.Wait()

	if transitions != 1 {
		t.Fatalf("got %v transitions, expected 1", transitions)
	}
	if token.Status() != Closing {
		t.Fatalf("status is %v", token.Status())
	}
}

func TestStatusString(t *testing.T) {
	tests := map[Status]string{
		Running:    "running",
		Closing:    "closing",
		Status(10): "Status(10)",
	}
	for s, expected := range tests {
		if got := s.String(); got != expected {
			t.Errorf("%d: got %q, expected %q", int(s), got, expected)
		}
	}
}
