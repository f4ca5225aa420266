package main

import (
	"fmt"
	"io"

	"github.com/misje/genericpacket/internal/config"
)

func runConfig(args []string, stdout io.Writer) error {
	fs := newFlagSet("config")
	output := fs.String("output", defaultConfigPath, "output path for config template")
	validate := fs.Bool("validate", false, "validate an existing config file")
	input := fs.String("input", defaultConfigPath, "config path for validation")
	force := fs.Bool("force", false, "overwrite existing config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *validate {
		cfg, err := config.Load(*input)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "Validated config at %s (size=%d type=%d listen=%s)\n",
			*input, cfg.SizeBits, cfg.TypeBits, cfg.ListenAddr)
		return err
	}

	if err := config.WriteTemplate(*output, *force); err != nil {
		return err
	}
	_, err := fmt.Fprintf(stdout, "Wrote config template to %s\n", *output)
	return err
}
