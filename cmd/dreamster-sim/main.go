package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/dreamster-robot/dreamster"
	"github.com/dreamster-robot/dreamster/simulator"
)

func main() {
	var verbose bool
	flag.BoolVar(&verbose, "verbose", false, "Print the robot's state after every step")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-verbose] scenario.yaml\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	scenario, err := simulator.LoadScenario(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sim, err := simulator.New(scenario)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Printf("running %q with %d steps\n", scenario.Name, len(scenario.Steps))

	sim.Play(scenario, func(step int) {
		a, b, c := sim.Robot.Scan()
		left, right := sim.Robot.ReadIR()
		fmt.Printf("step %d: %s %s\n", step, dreamster.FormatScan(a, b, c), dreamster.FormatIR(left, right))
		if verbose {
			fmt.Println(sim.Robot.DebugString())
		}
	})

	fmt.Printf("%d ticks, %d overruns\n", sim.Timer.Ticks(), sim.Robot.Dispatcher().Overruns())
}
