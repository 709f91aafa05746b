package main

import (
	"os"
	"strings"
	"testing"

	"deedles.dev/infolauncher/internal/set"
	"deedles.dev/infolauncher/protocol"
)

func TestIdent(t *testing.T) {
	ctx := Context{Prefix: "zwlr_layer_", Suffix: "_v1"}
	tests := map[string]string{
		"zwlr_layer_shell_v1":   "Shell",
		"zwlr_layer_surface_v1": "Surface",
		"wl_surface":            "WlSurface",
	}
	for in, expected := range tests {
		if got := ctx.ident(in); got != expected {
			t.Errorf("%q: got %q, expected %q", in, got, expected)
		}
	}
}

func TestCamel(t *testing.T) {
	var ctx Context
	tests := map[string]string{
		"delete_id":   "DeleteID",
		"repeat_info": "RepeatInfo",
		"shm_pool":    "ShmPool",
		"object_id":   "ObjectID",
	}
	for in, expected := range tests {
		if got := ctx.camel(in); got != expected {
			t.Errorf("%q: got %q, expected %q", in, got, expected)
		}
	}

	if got := ctx.unexport("ID"); got != "id" {
		t.Errorf("unexport ID: got %q", got)
	}
	if got := ctx.unexport("ObjectID"); got != "objectID" {
		t.Errorf("unexport ObjectID: got %q", got)
	}
}

func TestSignature(t *testing.T) {
	proto, err := protocol.Load("wayland")
	if err != nil {
		t.Fatal(err)
	}
	ctx := Context{Prefix: "wl_", IsClient: true}

	tests := []struct {
		inter, op string
		expected  string
	}{
		{"wl_compositor", "create_surface", "CreateSurface() *Surface"},
		{"wl_surface", "attach", "Attach(buffer *Buffer, x int32, y int32)"},
		{"wl_registry", "bind", "Bind(name uint32, id wire.NewID)"},
	}
	for _, test := range tests {
		i, ok := proto.Interface(test.inter)
		if !ok {
			t.Fatalf("no interface %v", test.inter)
		}
		opcode, ok := i.RequestOp(test.op)
		if !ok {
			t.Fatalf("no request %v.%v", test.inter, test.op)
		}

		got, err := ctx.signature(i.Requests[opcode])
		if err != nil {
			t.Fatalf("%v.%v: %v", test.inter, test.op, err)
		}
		if got != test.expected {
			t.Errorf("%v.%v: got %q, expected %q", test.inter, test.op, got, test.expected)
		}
	}
}

func TestGenerate(t *testing.T) {
	proto, err := protocol.Load("wlr-layer-shell-unstable-v1")
	if err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	err = generate(&sb, Context{Prefix: "zwlr_layer_", Suffix: "_v1", IsClient: true}, "layer", proto, nil)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	out := strings.Join(strings.Fields(sb.String()), " ")
	for _, expected := range []string{
		"package layer",
		`ShellInterface = "zwlr_layer_shell_v1"`,
		"surfaceAckConfigure = 6 // AckConfigure(serial uint32)",
		"surfaceClosed = 1",
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("output is missing %q:\n%v", expected, sb.String())
		}
	}
}

func TestGenerateFilter(t *testing.T) {
	proto, err := protocol.Load("wayland")
	if err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	only := set.New("wl_callback")
	err = generate(&sb, Context{Prefix: "wl_", IsClient: true}, "wl", proto, only)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if strings.Contains(sb.String(), "wl_display") {
		t.Errorf("filtered output contains wl_display:\n%v", sb.String())
	}

	err = generate(&sb, Context{Prefix: "wl_"}, "wl", proto, set.New("wl_nothing"))
	if err == nil {
		t.Error("expected an error when no interfaces match")
	}
}

// TestGeneratedFiles checks that the committed tables are what the
// go:generate directives in client and layer would produce.
func TestGeneratedFiles(t *testing.T) {
	tests := []struct {
		path  string
		proto string
		pkg   string
		ctx   Context
		only  set.Set[string]
	}{
		{
			path:  "../../client/protocol_gen.go",
			proto: "wayland",
			pkg:   "wl",
			ctx:   Context{Prefix: "wl_", IsClient: true},
			only: set.New(
				"wl_display", "wl_registry", "wl_callback", "wl_compositor", "wl_shm_pool",
				"wl_shm", "wl_buffer", "wl_surface", "wl_seat", "wl_keyboard",
			),
		},
		{
			path:  "../../layer/protocol_gen.go",
			proto: "wlr-layer-shell-unstable-v1",
			pkg:   "layer",
			ctx:   Context{Prefix: "zwlr_layer_", Suffix: "_v1", IsClient: true},
		},
	}

	for _, test := range tests {
		t.Run(test.pkg, func(t *testing.T) {
			proto, err := protocol.Load(test.proto)
			if err != nil {
				t.Fatal(err)
			}

			var sb strings.Builder
			err = generate(&sb, test.ctx, test.pkg, proto, test.only)
			if err != nil {
				t.Fatalf("generate: %v", err)
			}

			committed, err := os.ReadFile(test.path)
			if err != nil {
				t.Fatal(err)
			}
			if strings.Join(strings.Fields(sb.String()), " ") != strings.Join(strings.Fields(string(committed)), " ") {
				t.Errorf("%v is out of date; run go generate", test.path)
			}
		})
	}
}
