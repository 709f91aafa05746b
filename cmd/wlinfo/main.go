// Command wlinfo lists the globals that the compositor advertises
// and the GPU adapters that the launcher can select with -device.
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"text/tabwriter"

	wl "deedles.dev/infolauncher/client"
	"deedles.dev/infolauncher/gpu"
	"deedles.dev/infolauncher/internal/debug"
	"github.com/charmbracelet/log"
)

func listGlobals(w *tabwriter.Writer) error {
	client, err := wl.Dial()
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer client.Close()

	registry := client.Display().GetRegistry()
	err = client.RoundTrip()
	if err != nil {
		return fmt.Errorf("round trip: %w", err)
	}

	globals := registry.Globals()
	names := make([]uint32, 0, len(globals))
	for name := range globals {
		names = append(names, name)
	}
	slices.Sort(names)

	fmt.Fprintln(w, "NAME\tINTERFACE\tVERSION")
	for _, name := range names {
		g := globals[name]
		fmt.Fprintf(w, "%v\t%v\t%v\n", g.Name, g.Interface, g.Version)
	}
	return nil
}

func listAdapters(w *tabwriter.Writer, backend gpu.Backend) error {
	adapters, err := gpu.Adapters(backend)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "DEVICE\tNAME\tTYPE")
	for _, a := range adapters {
		fmt.Fprintf(w, "%v\t%v\t%v\n", a.Index, a.Name, a.DeviceType)
	}
	return nil
}

func main() {
	backendName := flag.String("backend", string(gpu.BackendVulkan), "GPU backend to list adapters for")
	noGlobals := flag.Bool("no-globals", false, "don't connect to the compositor")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "wlinfo"})
	debug.SetLogger(logger)

	backend, err := gpu.ParseBackend(*backendName)
	if err != nil {
		logger.Error("invalid backend", "err", err)
		os.Exit(2)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	defer w.Flush()

	if !*noGlobals {
		err = listGlobals(w)
		if err != nil {
			logger.Fatal("list globals", "err", err)
		}
		fmt.Fprintln(w)
	}

	err = listAdapters(w, backend)
	if err != nil {
		w.Flush()
		logger.Fatal("list adapters", "err", err)
	}
}
