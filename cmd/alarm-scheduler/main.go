package main

import "github.com/oshokin/sunrise-alarm/cmd/alarm-scheduler/cmd"

func main() {
	cmd.Execute()
}
