// Command dsoalctl is a diagnostics CLI for the dsoalgo core: it probes
// the backend binding, reports device and source-pool info, dumps the EAX
// preset table, and (with the "tone" subcommand) plays a test sine tone
// through oto on the system's default audio output; --device does not
// select the output for "tone".
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/dsoalgo/dsoalgo/device"
	"github.com/dsoalgo/dsoalgo/eax"
	"github.com/dsoalgo/dsoalgo/internal/alc"
	"github.com/dsoalgo/dsoalgo/primary"
	"github.com/dsoalgo/dsoalgo/share"
)

func main() {
	var (
		deviceName = pflag.StringP("device", "d", "", "backend device name (empty = system default)")
		help       = pflag.BoolP("help", "h", false, "display help text")
	)
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: dsoalctl [flags] <probe|presets|tone>\n\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help || pflag.NArg() == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	var err error
	switch pflag.Arg(0) {
	case "probe":
		err = runProbe(*deviceName)
	case "presets":
		err = runPresets()
	case "tone":
		freq := 440.0
		if pflag.NArg() > 1 {
			fmt.Sscanf(pflag.Arg(1), "%f", &freq)
		}
		err = runTone(*deviceName, freq)
	default:
		pflag.Usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "dsoalctl: %v\n", err)
		os.Exit(1)
	}
}

func runProbe(deviceName string) error {
	backend := alc.New()
	registry := share.NewRegistry()
	d, err := device.Open(backend, registry, deviceName, primary.AuxSlotsEAX2)
	if err != nil {
		return err
	}
	defer d.Close()

	caps := d.GetCaps()
	fmt.Printf("device:            %q\n", deviceName)
	fmt.Printf("primary buffers:   %d\n", caps.PrimaryBuffers)
	fmt.Printf("hw mixing sources: %d total, %d free\n", caps.MaxHWMixing, caps.FreeHWMixing)
	fmt.Printf("certified driver:  %v\n", caps.CertifiedDriver)
	return nil
}

func runPresets() error {
	for _, p := range eax.Presets {
		fmt.Printf("%2d: decay=%.2fs room=%dmB reverb=%dmB reflections=%dmB\n",
			p.Environment, p.DecayTime, p.Room, p.Reverb, p.Reflections)
	}
	return nil
}
