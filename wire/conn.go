package wire

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"deedles.dev/infolauncher/internal/set"
	"golang.org/x/sys/unix"
)

// maxFDs is the most file descriptors that a single message may carry.
const maxFDs = 28

func xdgRuntimeDir() string {
	dir, ok := os.LookupEnv("XDG_RUNTIME_DIR")
	if ok {
		return dir
	}
	return fmt.Sprintf("/var/run/user/%v", os.Getuid())
}

// SocketPath determines the path to the Wayland Unix domain socket
// based on the contents of the $WAYLAND_DISPLAY environment variable.
// It does not attempt to determine if the value corresponds to an
// actual socket.
func SocketPath() string {
	v, ok := os.LookupEnv("WAYLAND_DISPLAY")
	if !ok {
		v = "wayland-0"
	}
	if filepath.IsAbs(v) {
		return v
	}

	return filepath.Join(xdgRuntimeDir(), v)
}

// NewSocketPath attempts to generate a valid path for opening a new
// socket to listen on.
func NewSocketPath() (string, error) {
	dir := xdgRuntimeDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	names := make(set.Set[int], len(entries))
	for _, ent := range entries {
		after, ok := strings.CutPrefix(ent.Name(), "wayland-")
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(after, 10, 0)
		if err != nil {
			continue
		}
		names.Add(int(n))
	}

	var num int
	for names.Has(num) {
		num++
	}

	return filepath.Join(dir, fmt.Sprintf("wayland-%v", num)), nil
}

// Conn represents a low-level Wayland connection. It is not generally
// used directly, instead being handled automatically by a Client.
type Conn struct {
	conn *net.UnixConn

	m   sync.Mutex
	fds []int
}

// NewConn creates a new Conn that wraps c. After this is called, use
// the provided Close method to close c instead of calling its own
// Close method.
func NewConn(c *net.UnixConn) *Conn {
	return &Conn{
		conn: c,
	}
}

// Close closes the underlying connection and any file descriptors
// that were received but never claimed by a message.
func (c *Conn) Close() error {
	c.m.Lock()
	fds := c.fds
	c.fds = nil
	c.m.Unlock()

	errs := []error{c.conn.Close()}
	for _, fd := range fds {
		errs = append(errs, unix.Close(fd))
	}
	return errors.Join(errs...)
}

func (c *Conn) readFDs(data []byte) error {
	if len(data) == 0 {
		return nil
	}

	cmsgs, err := unix.ParseSocketControlMessage(data)
	if err != nil {
		return fmt.Errorf("parse socket control messages: %w", err)
	}
	for _, cmsg := range cmsgs {
		fds, err := unix.ParseUnixRights(&cmsg)
		if err != nil {
			if errors.Is(err, unix.EINVAL) {
				continue
			}
			return fmt.Errorf("parse unix control message: %w", err)
		}

		c.m.Lock()
		c.fds = append(c.fds, fds...)
		c.m.Unlock()
	}
	return nil
}

func (c *Conn) popFD() (int, bool) {
	c.m.Lock()
	defer c.m.Unlock()

	if len(c.fds) == 0 {
		return -1, false
	}
	fd := c.fds[0]
	c.fds = c.fds[1:]
	return fd, true
}

// Dial opens a connection to the Wayland socket based on the current
// environment. It follows the procedure outlined at
// https://wayland-book.com/protocol-design/wire-protocol.html#transports
func Dial() (*Conn, error) {
	if v, ok := os.LookupEnv("WAYLAND_SOCKET"); ok {
		fd, err := strconv.ParseInt(v, 10, 0)
		if err != nil {
			return nil, fmt.Errorf("parse WAYLAND_SOCKET fd: %w", err)
		}
		file := os.NewFile(uintptr(fd), "WAYLAND_SOCKET")
		defer file.Close()

		c, err := net.FileConn(file)
		if err != nil {
			return nil, fmt.Errorf("open WAYLAND_SOCKET connection: %w", err)
		}
		uc, ok := c.(*net.UnixConn)
		if !ok {
			c.Close()
			return nil, fmt.Errorf("WAYLAND_SOCKET is not a Unix socket: %T", c)
		}
		return NewConn(uc), nil
	}

	s, err := net.Dial("unix", SocketPath())
	if err != nil {
		return nil, err
	}
	return NewConn(s.(*net.UnixConn)), nil
}

// Listen opens a new Wayland socket in $XDG_RUNTIME_DIR using the
// first free wayland-N name.
func Listen() (*net.UnixListener, error) {
	path, err := NewSocketPath()
	if err != nil {
		return nil, fmt.Errorf("find socket path: %w", err)
	}
	return ListenPath(path)
}

// ListenPath opens a Wayland socket at path.
func ListenPath(path string) (*net.UnixListener, error) {
	return net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
}
