package main

import "github.com/oshokin/sunrise-alarm/cmd/alarm-ctl/cmd"

func main() {
	cmd.Execute()
}
