package core

import (
	"testing"
	"time"
)

func TestAssignConversions(t *testing.T) {
	var s string
	if err := assign(&s, []byte("bytes")); err != nil || s != "bytes" {
		t.Errorf("assign []byte into *string: %q, %v", s, err)
	}

	var n int
	if err := assign(&n, int64(7)); err != nil || n != 7 {
		t.Errorf("assign int64 into *int: %d, %v", n, err)
	}

	var f float64
	if err := assign(&f, int64(3)); err != nil || f != 3 {
		t.Errorf("assign int64 into *float64: %v, %v", f, err)
	}

	var b bool
	if err := assign(&b, int64(1)); err != nil || !b {
		t.Errorf("assign int64 into *bool: %v, %v", b, err)
	}

	var raw []byte
	src := []byte("abc")
	if err := assign(&raw, src); err != nil {
		t.Fatalf("assign []byte: %v", err)
	}
	src[0] = 'x'
	if string(raw) != "abc" {
		t.Error("assign []byte did not copy the buffer")
	}

	var when time.Time
	now := time.Now()
	if err := assign(&when, now); err != nil || !when.Equal(now) {
		t.Errorf("assign time.Time: %v, %v", when, err)
	}

	var anything any
	if err := assign(&anything, int64(5)); err != nil || anything != int64(5) {
		t.Errorf("assign into *any: %v, %v", anything, err)
	}

	var wrong int
	if err := assign(&wrong, "not a number"); err == nil {
		t.Error("assign string into *int succeeded")
	}
}
