// Command shaderc compiles a WGSL shader to SPIR-V.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"deedles.dev/infolauncher/gpu"
	"github.com/charmbracelet/log"
	"github.com/gogpu/naga"
)

func main() {
	out := flag.String("o", "", "output file (default <input without .wgsl>.spv)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %v [options] <shader.wgsl>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)
	if *out == "" {
		*out = strings.TrimSuffix(input, ".wgsl") + ".spv"
	}

	source, err := os.ReadFile(input)
	if err != nil {
		log.Fatal("read shader", "err", err)
	}

	spirv, err := naga.Compile(string(source))
	if err != nil {
		log.Fatal("compile shader", "input", input, "err", err)
	}

	_, err = gpu.DecodeSPIRV(spirv)
	if err != nil {
		log.Fatal("compiled shader is invalid", "input", input, "err", err)
	}

	err = os.WriteFile(*out, spirv, 0644)
	if err != nil {
		log.Fatal("write shader", "err", err)
	}
	log.Info("compiled shader", "input", input, "output", *out, "bytes", len(spirv))
}
