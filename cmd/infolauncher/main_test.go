package main

import (
	"math"
	"testing"
)

func TestParseSize(t *testing.T) {
	tests := []struct {
		name string
		w, h uint
		ok   bool
	}{
		{name: "Default", w: 500, h: 500, ok: true},
		{name: "Max", w: math.MaxUint32, h: 1, ok: true},
		{name: "ZeroWidth", w: 0, h: 500},
		{name: "ZeroHeight", w: 500, h: 0},
		{name: "WidthOverflow", w: math.MaxUint32 + 1, h: 500},
		{name: "HeightOverflow", w: 500, h: math.MaxUint32 + 1},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			w, h, err := parseSize(test.w, test.h)
			if test.ok != (err == nil) {
				t.Fatalf("got error %v", err)
			}
			if test.ok && ((uint(w) != test.w) || (uint(h) != test.h)) {
				t.Fatalf("got %vx%v", w, h)
			}
		})
	}
}

func TestParseClearColor(t *testing.T) {
	c, err := parseClearColor("")
	if (c != nil) || (err != nil) {
		t.Fatalf("empty name: %v, %v", c, err)
	}

	c, err = parseClearColor("Red")
	if err != nil {
		t.Fatal(err)
	}
	if (c.R != 1) || (c.G != 0) || (c.B != 0) || (c.A != 1) {
		t.Fatalf("red is %+v", *c)
	}

	_, err = parseClearColor("not-a-color")
	if err == nil {
		t.Fatal("expected error for unknown color")
	}
}
