package main

import "SleepSim/internal/cli"

func main() {
	cli.Execute()
}
