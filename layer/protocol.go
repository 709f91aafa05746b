// Package layer implements the client side of the
// wlr-layer-shell-unstable-v1 protocol, which lets a client place a
// surface in one of the compositor's layers with an anchor, margins,
// and an exclusive zone.
package layer

import "fmt"

//go:generate go run ../cmd/wlgen -proto wlr-layer-shell-unstable-v1 -pkg layer -prefix zwlr_layer_ -suffix _v1 -out protocol_gen.go

// The highest version of each interface that this package implements.
const (
	ShellVersion   = 4
	SurfaceVersion = 4
)

// Layer is the stacking layer that a surface is placed in.
type Layer uint32

const (
	LayerBackground Layer = iota
	LayerBottom
	LayerTop
	LayerOverlay
)

func (l Layer) String() string {
	switch l {
	case LayerBackground:
		return "background"
	case LayerBottom:
		return "bottom"
	case LayerTop:
		return "top"
	case LayerOverlay:
		return "overlay"
	default:
		return fmt.Sprintf("Layer(%d)", uint32(l))
	}
}

// ParseLayer parses the name of a layer as returned by Layer.String.
func ParseLayer(v string) (Layer, error) {
	for l := LayerBackground; l <= LayerOverlay; l++ {
		if l.String() == v {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown layer %q", v)
}

// Anchor is a set of edges that a surface is anchored to.
type Anchor uint32

const (
	AnchorTop    Anchor = 1
	AnchorBottom Anchor = 2
	AnchorLeft   Anchor = 4
	AnchorRight  Anchor = 8
)

// KeyboardInteractivity controls whether the surface receives
// keyboard focus.
type KeyboardInteractivity uint32

const (
	KeyboardInteractivityNone KeyboardInteractivity = iota
	KeyboardInteractivityExclusive
	KeyboardInteractivityOnDemand
)

// Error codes that the compositor may send for layer shell objects.
const (
	ShellErrorRole             = 0
	ShellErrorInvalidLayer     = 1
	ShellErrorAlreadyConstruct = 2

	SurfaceErrorInvalidSurfaceState        = 0
	SurfaceErrorInvalidSize                = 1
	SurfaceErrorInvalidAnchor              = 2
	SurfaceErrorInvalidKeyboardInteractive = 3
)
