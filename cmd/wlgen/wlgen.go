// Command wlgen generates the interface name and opcode constants that
// a package implementing a Wayland protocol needs from the protocol's
// XML description. Each opcode is commented with the Go signature of
// the message.
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"go/format"
	"io"
	"os"
	"strings"

	"deedles.dev/infolauncher/internal/set"
	"deedles.dev/infolauncher/internal/xslices"
	"deedles.dev/infolauncher/protocol"
	"github.com/charmbracelet/log"
)

func loadProtocol(name, path string) (protocol.Protocol, error) {
	if path == "" {
		return protocol.Load(name)
	}

	file, err := os.Open(path)
	if err != nil {
		return protocol.Protocol{}, err
	}
	defer file.Close()

	return protocol.Decode(file)
}

// generate writes the interface names and opcodes of proto. If only
// is not empty, interfaces that aren't in it are skipped.
func generate(w io.Writer, ctx Context, pkg string, proto protocol.Protocol, only set.Set[string]) error {
	interfaces := proto.Interfaces
	if len(only) > 0 {
		interfaces = xslices.Filter(interfaces, func(i protocol.Interface) bool { return only.Has(i.Name) })
	}
	if len(interfaces) == 0 {
		return errors.New("no interfaces to generate")
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "// Code generated by wlgen from %v. DO NOT EDIT.\n\n", proto.Name)
	fmt.Fprintf(&buf, "package %v\n\n", pkg)

	buf.WriteString("// Interface names.\nconst (\n")
	for _, i := range interfaces {
		fmt.Fprintf(&buf, "%vInterface = %q\n", ctx.ident(i.Name), i.Name)
	}
	buf.WriteString(")\n")

	sections := []struct {
		comment string
		ops     func(protocol.Interface) []protocol.Op
	}{
		{"Opcodes of messages that are sent.", ctx.senders},
		{"Opcodes of messages that are received.", ctx.listeners},
	}
	for _, section := range sections {
		fmt.Fprintf(&buf, "\n// %v\nconst (", section.comment)
		for _, i := range interfaces {
			ops := section.ops(i)
			if len(ops) == 0 {
				continue
			}

			buf.WriteByte('\n')
			name := ctx.unexport(ctx.ident(i.Name))
			for op, o := range ops {
				sig, err := ctx.signature(o)
				if err != nil {
					return fmt.Errorf("%v: %w", i.Name, err)
				}
				fmt.Fprintf(&buf, "%v%v = %v // %v\n", name, ctx.camel(o.Name), op, sig)
			}
		}
		buf.WriteString(")\n")
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("format output: %w", err)
	}
	_, err = w.Write(src)
	return err
}

func main() {
	name := flag.String("proto", "wayland", "name of an embedded protocol")
	xmlfile := flag.String("xml", "", "protocol XML file (overrides -proto)")
	pkg := flag.String("pkg", "wl", "output package name")
	prefix := flag.String("prefix", "wl_", "interface name prefix to strip")
	suffix := flag.String("suffix", "", "interface name suffix to strip")
	interfaces := flag.String("interfaces", "", "comma separated interfaces to generate (default all)")
	server := flag.Bool("server", false, "generate for the compositor side")
	out := flag.String("out", "", "output file (default stdout)")
	flag.Parse()

	proto, err := loadProtocol(*name, *xmlfile)
	if err != nil {
		log.Fatal("load protocol", "err", err)
	}

	w := io.Writer(os.Stdout)
	if *out != "" {
		file, err := os.Create(*out)
		if err != nil {
			log.Fatal("create output", "err", err)
		}
		defer file.Close()
		w = file
	}

	var only set.Set[string]
	if *interfaces != "" {
		only = set.New(strings.Split(*interfaces, ",")...)
	}

	ctx := Context{Prefix: *prefix, Suffix: *suffix, IsClient: !*server}
	err = generate(w, ctx, *pkg, proto, only)
	if err != nil {
		log.Fatal("generate", "err", err)
	}
}
