package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"adcstream/config"
	"adcstream/core"
	"adcstream/host/monitor"
	"adcstream/host/serial"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "plan":
		err = runPlan(os.Args[2:])
	case "monitor":
		err = runMonitor(os.Args[2:])
	case "help", "-h", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("adcstream-host - ADC/DMA acquisition bring-up tool")
	fmt.Println()
	fmt.Println("  plan    [-config file.json]")
	fmt.Println("          print the register image bring-up produces")
	fmt.Println("  monitor [-device /dev/ttyUSB0] [-baud 115200] [-config file.json] [-timeout 10s]")
	fmt.Println("          wait for the board's report and check it against the plan")
}

func loadAcquisition(path string) (*config.AcquisitionFile, core.AcquisitionConfig, error) {
	file := config.DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, core.AcquisitionConfig{}, err
		}
		if file, err = config.LoadConfig(data); err != nil {
			return nil, core.AcquisitionConfig{}, fmt.Errorf("%s: %w", path, err)
		}
	}
	cfg, err := file.Acquisition()
	if err != nil {
		return nil, core.AcquisitionConfig{}, fmt.Errorf("%s: %w", file.Name, err)
	}
	return file, cfg, nil
}

func runPlan(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Acquisition config (JSON); built-in default when empty")
	fs.Parse(args)

	file, cfg, err := loadAcquisition(*cfgPath)
	if err != nil {
		return err
	}
	snap, err := core.Plan(cfg)
	if err != nil {
		return err
	}

	fmt.Printf("Plan for %s (%d channels)\n", file.Name, cfg.Sequence.Len())
	for _, line := range snap.Describe() {
		fmt.Println("  " + line)
	}
	return nil
}

func runMonitor(args []string) error {
	fs := flag.NewFlagSet("monitor", flag.ExitOnError)
	device := fs.String("device", "/dev/ttyUSB0", "Serial device path")
	baud := fs.Int("baud", 115200, "Baud rate of the debug UART")
	cfgPath := fs.String("config", "", "Acquisition config the firmware was built with")
	timeout := fs.Duration("timeout", 10*time.Second, "How long to wait for a report")
	verbose := fs.Bool("verbose", false, "Print every decoded register")
	fs.Parse(args)

	file, cfg, err := loadAcquisition(*cfgPath)
	if err != nil {
		return err
	}
	want, err := core.Plan(cfg)
	if err != nil {
		return err
	}

	serialCfg := serial.DefaultConfig(*device)
	serialCfg.Baud = *baud

	fmt.Printf("Waiting for report on %s (reset the board)...\n", *device)
	mon, err := monitor.Connect(serialCfg)
	if err != nil {
		return err
	}
	defer mon.Close()

	got, err := mon.WaitReport(*timeout)
	if err != nil {
		return err
	}

	if *verbose {
		for _, line := range got.Describe() {
			fmt.Println("  " + line)
		}
	}

	problems := got.Diff(want, core.OwnedBits(cfg.Sequence))
	problems = append(problems, stepProblems(got.Steps, want.Steps)...)
	if len(problems) > 0 {
		for _, p := range problems {
			fmt.Println("MISMATCH " + p)
		}
		return fmt.Errorf("%d mismatches against %s", len(problems), file.Name)
	}
	fmt.Printf("Report matches %s (%d bytes of non-report output skipped)\n", file.Name, mon.Dropped())
	return nil
}

func stepProblems(got, want []core.StepEvent) []string {
	var out []string
	for i := 0; i < len(got) || i < len(want); i++ {
		switch {
		case i >= len(got):
			out = append(out, "step "+want[i].Step.String()+" missing")
		case i >= len(want):
			out = append(out, "unexpected step "+got[i].Step.String())
		case got[i].Step != want[i].Step:
			out = append(out, fmt.Sprintf("step %d: got %s, want %s", i, got[i].Step, want[i].Step))
		}
	}
	return out
}
