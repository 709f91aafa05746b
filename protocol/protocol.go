// Package protocol defines the types necessary for unmarshalling a
// protocol XML file, and embeds the descriptions of
// the protocols that this module speaks.
package protocol

import (
	"embed"
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"strings"
)

//go:embed xml/*.xml
var files embed.FS

type Protocol struct {
	Name      string `xml:"name,attr"`
	Copyright string `xml:"copyright"`

	Interfaces []Interface `xml:"interface"`
}

// Interface returns the interface with the given name.
func (p Protocol) Interface(name string) (Interface, bool) {
	for _, i := range p.Interfaces {
		if i.Name == name {
			return i, true
		}
	}
	return Interface{}, false
}

type Interface struct {
	Name        string      `xml:"name,attr"`
	Version     int         `xml:"version,attr"`
	Description Description `xml:"description"`

	Requests []Op   `xml:"request"`
	Events   []Op   `xml:"event"`
	Enums    []Enum `xml:"enum"`
}

// RequestOp returns the opcode of the named request.
func (i Interface) RequestOp(name string) (uint16, bool) {
	return opIndex(i.Requests, name)
}

// EventOp returns the opcode of the named event.
func (i Interface) EventOp(name string) (uint16, bool) {
	return opIndex(i.Events, name)
}

// Enum returns the enum with the given name.
func (i Interface) Enum(name string) (Enum, bool) {
	for _, e := range i.Enums {
		if e.Name == name {
			return e, true
		}
	}
	return Enum{}, false
}

func opIndex(ops []Op, name string) (uint16, bool) {
	for i, op := range ops {
		if op.Name == name {
			return uint16(i), true
		}
	}
	return 0, false
}

type Description struct {
	Summary string `xml:"summary,attr"`
	Full    string `xml:",chardata"`
}

type Op struct {
	Name        string      `xml:"name,attr"`
	Type        string      `xml:"type,attr"`
	Since       int         `xml:"since,attr"`
	Description Description `xml:"description"`

	Args []Arg `xml:"arg"`
}

// IsDestructor reports whether the op destroys the object it is sent
// to.
func (op Op) IsDestructor() bool {
	return op.Type == "destructor"
}

type Arg struct {
	Name    string `xml:"name,attr"`
	Summary string `xml:"summary,attr"`

	Type      string `xml:"type,attr"`
	Interface string `xml:"interface,attr"`
	Enum      string `xml:"enum,attr"`
	AllowNull bool   `xml:"allow-null,attr"`
	Version   int    `xml:"version,attr"`
}

type Enum struct {
	Name        string      `xml:"name,attr"`
	Bitfield    bool        `xml:"bitfield,attr"`
	Description Description `xml:"description"`

	Entries []Entry `xml:"entry"`
}

// Value returns the value of the named entry.
func (e Enum) Value(name string) (int, error) {
	for _, entry := range e.Entries {
		if entry.Name == name {
			return entry.Int()
		}
	}
	return 0, fmt.Errorf("enum %v has no entry %q", e.Name, name)
}

type Entry struct {
	Name    string `xml:"name,attr"`
	Summary string `xml:"summary,attr"`
	Value   string `xml:"value,attr"`
}

func (e Entry) Int() (int, error) {
	v, err := strconv.ParseInt(e.Value, 0, 0)
	return int(v), err
}

// Decode reads a protocol description from r.
func Decode(r io.Reader) (proto Protocol, err error) {
	d := xml.NewDecoder(r)
	err = d.Decode(&proto)
	return proto, err
}

// Names lists the embedded protocols.
func Names() []string {
	entries, _ := fs.ReadDir(files, "xml")
	names := make([]string, 0, len(entries))
	for _, ent := range entries {
		names = append(names, strings.TrimSuffix(ent.Name(), ".xml"))
	}
	return names
}

// Load decodes one of the embedded protocols, such as "wayland" or
// "wlr-layer-shell-unstable-v1".
func Load(name string) (Protocol, error) {
	file, err := files.Open("xml/" + name + ".xml")
	if err != nil {
		return Protocol{}, fmt.Errorf("open protocol %q: %w", name, err)
	}
	defer file.Close()

	proto, err := Decode(file)
	if err != nil {
		return proto, fmt.Errorf("decode protocol %q: %w", name, err)
	}
	return proto, nil
}
