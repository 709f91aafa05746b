package protocol

import (
	"slices"
	"testing"
)

func TestLoad(t *testing.T) {
	names := Names()
	for _, name := range []string{"wayland", "wlr-layer-shell-unstable-v1"} {
		if !slices.Contains(names, name) {
			t.Fatalf("%q not embedded: %v", name, names)
		}
	}

	proto, err := Load("wlr-layer-shell-unstable-v1")
	if err != nil {
		t.Fatal(err)
	}

	surface, ok := proto.Interface("zwlr_layer_surface_v1")
	if !ok {
		t.Fatal("no zwlr_layer_surface_v1")
	}
	if op, ok := surface.RequestOp("ack_configure"); !ok || (op != 6) {
		t.Errorf("ack_configure = %v, %v", op, ok)
	}
	if op, ok := surface.EventOp("closed"); !ok || (op != 1) {
		t.Errorf("closed = %v, %v", op, ok)
	}

	anchor, ok := surface.Enum("anchor")
	if !ok || !anchor.Bitfield {
		t.Fatalf("anchor enum = %+v, %v", anchor, ok)
	}
	if v, err := anchor.Value("right"); (err != nil) || (v != 8) {
		t.Errorf("anchor.right = %v, %v", v, err)
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load("xdg-shell")
	if err == nil {
		t.Fatal("expected error for protocol that isn't embedded")
	}
}

func TestDestructors(t *testing.T) {
	proto, err := Load("wayland")
	if err != nil {
		t.Fatal(err)
	}

	callback, _ := proto.Interface("wl_callback")
	if !callback.Events[0].IsDestructor() {
		t.Error("wl_callback.done should be a destructor")
	}

	seat, _ := proto.Interface("wl_seat")
	op, _ := seat.RequestOp("release")
	if release := seat.Requests[op]; !release.IsDestructor() || (release.Since != 5) {
		t.Errorf("wl_seat.release = %+v", release)
	}
}
