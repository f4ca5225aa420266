package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/misje/genericpacket/internal/observability"
)

const defaultConfigPath = "cmd/packetctl/config.toml"

var errUsage = errors.New("usage: packetctl <encode|decode|serve|send|config> [flags]")

func main() {
	observability.InitLogger("packetctl")
	if err := run(os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "packetctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "encode":
		return runEncode(rest, stdout)
	case "decode":
		return runDecode(rest, stdout)
	case "serve":
		return runServe(rest)
	case "send":
		return runSend(rest, stdout)
	case "config":
		return runConfig(rest, stdout)
	default:
		return fmt.Errorf("unknown command %q\n%w", cmd, errUsage)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet("packetctl "+name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}
