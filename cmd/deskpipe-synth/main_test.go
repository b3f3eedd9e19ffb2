package main

import (
	"testing"
	"time"
)

func TestTickInterval(t *testing.T) {
	tests := []struct {
		rate    int
		want    time.Duration
		wantErr bool
	}{
		{30, time.Second / 30, false},
		{1, time.Second, false},
		{1000, time.Millisecond, false},
		{0, 0, true},
		{-5, 0, true},
		{5000, 0, true},
	}

	for _, tt := range tests {
		got, err := tickInterval(tt.rate)
		if tt.wantErr {
			if err == nil {
				t.Errorf("tickInterval(%d) accepted an invalid rate", tt.rate)
			}
			continue
		}
		if err != nil {
			t.Errorf("tickInterval(%d): %v", tt.rate, err)
			continue
		}
		if got != tt.want {
			t.Errorf("tickInterval(%d) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}

func TestPaintBand_StaysInBounds(t *testing.T) {
	const width, height = 32, 40
	src := make([]byte, width*height*4)

	// Walk well past one full wrap of the desktop.
	for tick := 1; tick <= 10; tick++ {
		r := paintBand(src, width, height, tick)
		if r.Left != 0 || r.Right != width-1 {
			t.Fatalf("tick %d: band spans columns %d-%d, want full width", tick, r.Left, r.Right)
		}
		if r.Top < 0 || r.Bottom >= height || r.Bottom < r.Top {
			t.Fatalf("tick %d: band rows %d-%d outside desktop height %d", tick, r.Top, r.Bottom, height)
		}
	}
}
