// Package gpu renders into a compositor surface. A Session owns the
// device, its queue, and a swapchain of shared memory images that
// rendered frames are copied into and presented from.
package gpu

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/pkg/errors"

	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// queuePriority is the priority of the single queue that is opened.
const queuePriority = 0.5

// Backend selects the GPU implementation.
type Backend string

const (
	BackendVulkan Backend = "vulkan"

	// BackendNoop accepts all work and does nothing with it. It is
	// useful for running without a GPU.
	BackendNoop Backend = "noop"
)

func ParseBackend(v string) (Backend, error) {
	switch b := Backend(v); b {
	case BackendVulkan, BackendNoop:
		return b, nil
	default:
		return "", fmt.Errorf("unknown backend %q", v)
	}
}

type SessionConfig struct {
	Backend     Backend
	DeviceIndex int

	// FramesInFlight is the number of frames that may be submitted
	// before the oldest one has to finish. It defaults to
	// MaxFramesInFlight.
	FramesInFlight int

	Logger *log.Logger
}

// MaxFramesInFlight is the default SessionConfig.FramesInFlight.
const MaxFramesInFlight = 2

// AdapterInfo describes an enumerated adapter.
type AdapterInfo struct {
	Index      int
	Name       string
	DeviceType gputypes.DeviceType
}

func newInstance(backend Backend) (hal.Instance, error) {
	switch backend {
	case BackendNoop:
		return noop.API{}.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	case BackendVulkan, "":
		b, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return nil, errors.New("vulkan backend not available")
		}
		return b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	default:
		return nil, errors.Errorf("unknown backend %q", backend)
	}
}

// Adapters lists the adapters that the backend exposes. The index of
// each is what SessionConfig.DeviceIndex refers to.
func Adapters(backend Backend) ([]AdapterInfo, error) {
	instance, err := newInstance(backend)
	if err != nil {
		return nil, stepError("create instance", err)
	}
	defer instance.Destroy()

	adapters := instance.EnumerateAdapters(nil)
	infos := make([]AdapterInfo, 0, len(adapters))
	for i, a := range adapters {
		infos = append(infos, AdapterInfo{
			Index:      i,
			Name:       a.Info.Name,
			DeviceType: a.Info.DeviceType,
		})
	}
	return infos, nil
}

// Session is an open device bound to a window.
type Session struct {
	logger *log.Logger
	config SessionConfig
	win    Window

	instance hal.Instance
	adapter  AdapterInfo
	device   hal.Device
	queue    hal.Queue

	caps      Capabilities
	swapchain *Swapchain
}

// Initialize opens the configured device and creates a swapchain for
// win. The session does not take ownership of win, which must outlive
// it.
func Initialize(win Window, config SessionConfig) (s *Session, err error) {
	if config.FramesInFlight <= 0 {
		config.FramesInFlight = MaxFramesInFlight
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	s = &Session{
		logger: config.Logger.WithPrefix("gpu"),
		config: config,
		win:    win,
	}
	defer func() {
		if err != nil {
			s.Destroy()
			s = nil
		}
	}()

	s.instance, err = newInstance(config.Backend)
	if err != nil {
		return nil, stepError("create instance", err)
	}

	adapters := s.instance.EnumerateAdapters(nil)
	if (config.DeviceIndex < 0) || (config.DeviceIndex >= len(adapters)) {
		return nil, stepError(
			"select device",
			errors.Wrapf(ErrPhysicalDeviceNotFound, "index %v of %v", config.DeviceIndex, len(adapters)),
		)
	}
	selected := adapters[config.DeviceIndex]
	s.adapter = AdapterInfo{
		Index:      config.DeviceIndex,
		Name:       selected.Info.Name,
		DeviceType: selected.Info.DeviceType,
	}

	dev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return nil, stepError("open device", err)
	}
	s.device = dev.Device
	s.queue = dev.Queue
	if s.queue == nil {
		return nil, stepError("open device", ErrNoGraphicsQueue)
	}

	s.logger.Info(
		"opened device",
		"backend", config.Backend,
		"index", s.adapter.Index,
		"name", s.adapter.Name,
		"type", s.adapter.DeviceType,
		"priority", queuePriority,
	)

	s.caps = queryCapabilities(win)
	s.swapchain, err = newSwapchain(s.logger, win, s.caps)
	if err != nil {
		return nil, stepError("create swapchain", err)
	}

	return s, nil
}

// Destroy releases everything that the session created, in reverse
// order. It does not wait for the device; the Submitter must be
// destroyed first.
func (s *Session) Destroy() {
	if s.swapchain != nil {
		s.swapchain.destroy()
		s.swapchain = nil
	}
	if s.device != nil {
		s.device.Destroy()
		s.device = nil
	}
	if s.instance != nil {
		s.instance.Destroy()
		s.instance = nil
	}
}

// Adapter returns information about the device that was opened.
func (s *Session) Adapter() AdapterInfo {
	return s.adapter
}

func (s *Session) Device() hal.Device {
	return s.device
}

func (s *Session) Queue() hal.Queue {
	return s.queue
}

// Capabilities returns the capabilities that the swapchain was last
// created from.
func (s *Session) Capabilities() Capabilities {
	return s.caps
}

func (s *Session) Swapchain() *Swapchain {
	return s.swapchain
}

// Images returns the swapchain's images.
func (s *Session) Images() []*Image {
	return s.swapchain.Images()
}

// RecreateSwapchain replaces the swapchain with one that matches the
// window's current state. Targets built from the old swapchain must
// be destroyed first and rebuilt afterwards.
func (s *Session) RecreateSwapchain() error {
	s.swapchain.destroy()
	s.swapchain = nil

	s.caps = queryCapabilities(s.win)
	sc, err := newSwapchain(s.logger, s.win, s.caps)
	if err != nil {
		return stepError("recreate swapchain", err)
	}
	s.swapchain = sc
	return nil
}
