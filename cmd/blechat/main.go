// Command blechat is an interactive text-chat client for a single BLE
// peer: it connects to the device given on the command line, sends each
// typed line as a text message on channel 0 and prints inbound messages
// as they arrive.
package main

import "os"

const version = "0.1.0"

func main() {
	os.Exit(run(ParseFlags(os.Args[1:])))
}
