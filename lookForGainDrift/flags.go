package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	gaindrift "github.com/mjd-analysis/gaindrift_go/pkg"
)

type options struct {
	Channel       int
	AcceptedCount int
	ConfigFile    string
	Verbosity     int
}

func printUsage(out io.Writer) {
	fmt.Fprintf(out, "Usage:\n -c [channel]\n -n [number of accepted runs]\n -config [configuration file]\n -v [verbosity]\n")
}

// parseArgs reads the command line. Unknown options and positional arguments
// are reported and ignored; a missing -c or -n, or a flag without its value,
// is a usage error.
func parseArgs(args []string, out io.Writer) (options, error) {
	opts := options{Verbosity: -1}
	fs := flag.NewFlagSet("lookForGainDrift", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.IntVar(&opts.Channel, "c", 0, "detector channel")
	fs.IntVar(&opts.AcceptedCount, "n", 0, "number of accepted runs")
	fs.StringVar(&opts.ConfigFile, "config", "", "Configuration file path")
	fs.IntVar(&opts.Verbosity, "v", -1, "verbosity, overrides the configuration file")

	if err := fs.Parse(dropUnknownFlags(fs, args, out)); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(out)
			return opts, err
		}
		fmt.Fprintf(out, "%v\n", err)
		printUsage(out)
		return opts, &gaindrift.UsageError{Message: err.Error()}
	}
	for _, arg := range fs.Args() {
		fmt.Fprintf(out, "Non-option argument %s\n", arg)
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	for _, name := range []string{"c", "n"} {
		if !set[name] {
			printUsage(out)
			return opts, &gaindrift.UsageError{Message: fmt.Sprintf("option -%s is required", name)}
		}
	}
	if opts.AcceptedCount <= 0 {
		printUsage(out)
		return opts, &gaindrift.UsageError{Message: fmt.Sprintf("number of accepted runs must be positive, got %d", opts.AcceptedCount)}
	}
	return opts, nil
}

// splitAttached separates a one-letter option from a value written right after
// it, as in -c112.
func splitAttached(fs *flag.FlagSet, arg string) (string, string, bool) {
	if len(arg) < 3 || arg[1] == '-' || strings.Contains(arg, "=") || fs.Lookup(arg[1:]) != nil {
		return "", "", false
	}
	if fs.Lookup(arg[1:2]) == nil {
		return "", "", false
	}
	return arg[1:2], arg[2:], true
}

// dropUnknownFlags removes the options the flag set does not define, printing
// a notice for each one, and moves positional arguments after the options so
// they may appear anywhere on the command line.
func dropUnknownFlags(fs *flag.FlagSet, args []string, out io.Writer) []string {
	known := make([]string, 0, len(args))
	var positional []string
	expectValue := false
	for i, arg := range args {
		if expectValue {
			known = append(known, arg)
			expectValue = false
			continue
		}
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			positional = append(positional, arg)
			continue
		}
		if flagName, value, ok := splitAttached(fs, arg); ok {
			known = append(known, "-"+flagName, value)
			continue
		}
		name, _, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		if name == "h" || name == "help" || fs.Lookup(name) != nil {
			known = append(known, arg)
			expectValue = !hasValue && fs.Lookup(name) != nil
			continue
		}
		fmt.Fprintf(out, "Unknown option '%s'\n", arg)
	}
	if len(positional) > 0 {
		known = append(append(known, "--"), positional...)
	}
	return known
}
