package main

import (
	"errors"
	"fmt"
	"io"

	flags "github.com/jessevdk/go-flags"

	"github.com/suffix-labs/bitcoin-block/pkg/api"
	"github.com/suffix-labs/bitcoin-block/pkg/script"
)

const (
	defaultNetwork    = "mainnet"
	defaultFormat     = string(api.FormatJSON)
	defaultDebugLevel = "warn"
)

// config defines the command line and config file options.
type config struct {
	ConfigFile  string `long:"configfile" description:"Path to an ini configuration file"`
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`

	Network    string `short:"n" long:"network" description:"Network used to encode addresses {mainnet, testnet3, regtest}"`
	Format     string `short:"f" long:"format" description:"Output format {json, json-min, yaml, spew}"`
	Strict     bool   `long:"strict" description:"Reject inputs with bytes after the decoded value"`
	Workers    int    `short:"j" long:"workers" description:"Blocks decoded in parallel; 0 uses one per CPU"`
	SigHash    bool   `long:"sighash" description:"Decode signature hash types in asm output"`
	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical, off}"`

	params *script.Params
	format api.Format
}

func defaultConfig() config {
	return config{
		Network:    defaultNetwork,
		Format:     defaultFormat,
		DebugLevel: defaultDebugLevel,
	}
}

// errHelpShown is returned by loadConfig after the usage message has been
// written.
var errHelpShown = errors.New("help shown")

// loadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config
//  2. Pre-parse the command line to check for a config file
//  3. Load the config file overwriting defaults with any specified options
//  4. Parse the command line again so it takes precedence
//
// The arguments left after the options, starting with the command name,
// are returned alongside the config.
func loadConfig(args []string, stdout io.Writer) (*config, []string, error) {
	preCfg := defaultConfig()
	parser := flags.NewParser(&preCfg, flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = "[OPTIONS] <command> [args...]"
	if _, err := parser.ParseArgs(args); err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, flagErr.Message)
			printCommands(stdout)
			return nil, nil, errHelpShown
		}
		return nil, nil, err
	}

	cfg := preCfg
	parser = flags.NewParser(&cfg, flags.HelpFlag|flags.PassDoubleDash)
	if preCfg.ConfigFile != "" {
		if err := flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile); err != nil {
			return nil, nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	rest, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, nil, err
	}
	return &cfg, rest, nil
}

// validateConfig checks option values and resolves the network and output
// format.
func validateConfig(cfg *config) error {
	params, err := script.ParamsForNetwork(cfg.Network)
	if err != nil {
		return err
	}
	cfg.params = params

	format, err := api.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	cfg.format = format

	if cfg.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	return setLogLevels(cfg.DebugLevel)
}

func (c *config) apiOptions() api.Options {
	return api.Options{
		Strict:  c.Strict,
		Workers: c.Workers,
		Params:  c.params,
	}
}
