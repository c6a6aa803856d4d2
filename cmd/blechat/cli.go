package main

import (
	"flag"
	"fmt"
	"os"
	"time"
)

// Options holds CLI options for the client.
type Options struct {
	ConfigPath  string
	ScanOnly    bool
	ScanTimeout time.Duration
	Address     string
}

// ParseFlags parses CLI flags from args and returns Options. The single
// positional argument is the target device address.
func ParseFlags(args []string) Options {
	fs := flag.NewFlagSet("blechat", flag.ExitOnError)
	var opts Options
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to YAML config file")
	fs.BoolVar(&opts.ScanOnly, "scan", false, "Scan for devices, print them and exit")
	fs.DurationVar(&opts.ScanTimeout, "timeout", 0, "Scan window override (default from config)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: blechat [flags] <device-address>")
		fs.PrintDefaults()
	}
	_ = fs.Parse(args)
	opts.Address = fs.Arg(0)
	return opts
}
