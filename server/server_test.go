package wl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	wlclient "deedles.dev/infolauncher/client"
	"deedles.dev/infolauncher/wire"
)

type nopHandler struct {
	bound []string
}

func (h *nopHandler) Bind(client *Client, obj *Object) error {
	h.bound = append(h.bound, obj.Interface)
	return nil
}

func (h *nopHandler) Request(client *Client, obj *Object, msg *wire.MessageBuffer) error {
	return nil
}

func startServer(t *testing.T, h Handler) *Server {
	t.Helper()

	lis, err := wire.ListenPath(filepath.Join(t.TempDir(), "wayland-0"))
	if err != nil {
		t.Fatal(err)
	}
	server, err := NewServer(lis, h)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		server.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		server.Close()
	})

	t.Setenv("WAYLAND_DISPLAY", lis.Addr().String())
	t.Setenv("WAYLAND_SOCKET", "")
	os.Unsetenv("WAYLAND_SOCKET")
	return server
}

func TestRegistry(t *testing.T) {
	var h nopHandler
	server := startServer(t, &h)
	server.AddGlobal("wl_compositor", 4)
	server.AddGlobal("wl_shm", 1)

	client, err := wlclient.Dial()
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	registry := client.Display().GetRegistry()
	err = client.RoundTrip()
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}

	globals := registry.Globals()
	if len(globals) != 2 {
		t.Fatalf("got globals %v", globals)
	}
	g, ok := registry.Find("wl_shm")
	if !ok || (g.Name != 2) || (g.Version != 1) {
		t.Fatalf("wl_shm: %+v, %v", g, ok)
	}

	wlclient.BindCompositor(client, registry, 1, 4)
	err = client.RoundTrip()
	if err != nil {
		t.Fatalf("round trip after bind: %v", err)
	}
	if (len(h.bound) != 1) || (h.bound[0] != "wl_compositor") {
		t.Fatalf("bound %v", h.bound)
	}
	if server.Accepted() != 1 {
		t.Fatalf("accepted %v", server.Accepted())
	}
}

func TestBindWrongVersion(t *testing.T) {
	server := startServer(t, &nopHandler{})
	server.AddGlobal("wl_compositor", 1)

	client, err := wlclient.Dial()
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	registry := client.Display().GetRegistry()
	err = client.RoundTrip()
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}

	wlclient.BindCompositor(client, registry, 1, 4)
	err = client.RoundTrip()

	var derr wlclient.DisplayError
	if !errors.As(err, &derr) {
		t.Fatalf("expected display error, got %v", err)
	}
	if derr.Code != DisplayErrorImplementation {
		t.Fatalf("code is %v", derr.Code)
	}
}
