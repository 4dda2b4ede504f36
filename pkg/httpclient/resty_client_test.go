package httpclient

import (
	"testing"
	"time"
)

func TestNewAppliesTimeout(t *testing.T) {
	c := New(3 * time.Second)
	if got := c.GetClient().Timeout; got != 3*time.Second {
		t.Fatalf("timeout = %v", got)
	}
	if c.RetryCount != 0 {
		t.Fatalf("expected retries disabled, got %d", c.RetryCount)
	}
}
