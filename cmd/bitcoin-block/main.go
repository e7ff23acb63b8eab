// bitcoin-block decodes Bitcoin blocks, transactions and scripts.
//
// Blocks and transactions are read as binary or hex from files or stdin
// and printed in the shape of Bitcoin Core's RPC output.
//
// Example usage:
//
//	# Full block as JSON
//	bitcoin-block to-json block.hex
//
//	# Block with txids only, as YAML
//	bitcoin-block --format yaml to-json-min < block.bin
//
//	# Disassemble and classify an output script
//	bitcoin-block --network testnet3 classify 0014751e76e8199196d454941c45d1b3a323f1433bd6
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/suffix-labs/bitcoin-block/pkg/api"
	"github.com/suffix-labs/bitcoin-block/pkg/porcelain"
)

const appVersion = "0.1.0"

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if err != nil && !errors.Is(err, errHelpShown) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes one command. It is main without the process exit.
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	useLogWriter(stderr)

	cfg, rest, err := loadConfig(args, stdout)
	if err != nil {
		return err
	}
	if cfg.ShowVersion {
		return cmdVersion(stdout)
	}
	if len(rest) == 0 {
		printUsage(stdout)
		return errors.New("command required")
	}

	command, cmdArgs := rest[0], rest[1:]
	log.Debugf("Running %s with %d argument(s)", command, len(cmdArgs))

	switch command {
	case "to-json":
		return cmdBlocks(ctx, cfg, porcelain.Full, cmdArgs, stdin, stdout)
	case "to-json-min":
		return cmdBlocks(ctx, cfg, porcelain.Min, cmdArgs, stdin, stdout)
	case "header":
		return cmdBlocks(ctx, cfg, porcelain.Header, cmdArgs, stdin, stdout)
	case "tx":
		return cmdTx(cfg, cmdArgs, stdin, stdout)
	case "asm":
		return cmdAsm(cfg, cmdArgs, stdout)
	case "classify":
		return cmdClassify(cfg, cmdArgs, stdout)
	case "merkle":
		return cmdMerkle(ctx, cfg, cmdArgs, stdin, stdout)
	case "version":
		return cmdVersion(stdout)
	case "help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stderr)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `bitcoin-block - Bitcoin block and transaction decoder

Usage:
  bitcoin-block [options] <command> [args...]

Options:
  -n, --network      Network used to encode addresses (default mainnet)
  -f, --format       Output format: json, json-min, yaml or spew (default json)
      --strict       Reject inputs with bytes after the decoded value
  -j, --workers      Blocks decoded in parallel (default one per CPU)
      --sighash      Decode signature hash types in asm output
  -d, --debuglevel   Logging level (default warn)
      --configfile   Read options from an ini file
  -V, --version      Show version information`)
	fmt.Fprintln(w)
	printCommands(w)
}

func printCommands(w io.Writer) {
	fmt.Fprintln(w, `Commands:
  to-json [file...]       Decode blocks to full getblock JSON
  to-json-min [file...]   Decode blocks listing txids only
  header [file...]        Decode block headers only
  tx [file]               Decode a single transaction
  asm <hex>               Disassemble a script
  classify <hex>          Disassemble, classify and extract addresses
  merkle [file...]        Recompute merkle roots and witness commitments
  version                 Show version information
  help                    Show this help message

Input is read from stdin when no file is given. Binary and hex input are
both accepted.`)
}

func cmdVersion(w io.Writer) error {
	_, err := fmt.Fprintf(w, "bitcoin-block v%s\n", appVersion)
	return err
}

// readInputs returns the contents of each named file, or of stdin when
// there are none.
func readInputs(files []string, stdin io.Reader) ([][]byte, error) {
	if len(files) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return [][]byte{data}, nil
	}

	inputs := make([][]byte, len(files))
	for i, name := range files {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		log.Tracef("Read %d bytes from %s", len(data), name)
		inputs[i] = data
	}
	return inputs, nil
}

func render(w io.Writer, v any, format api.Format) error {
	out, err := api.Render(v, format)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func cmdBlocks(ctx context.Context, cfg *config, detail porcelain.Detail,
	files []string, stdin io.Reader, stdout io.Writer) error {

	inputs, err := readInputs(files, stdin)
	if err != nil {
		return err
	}

	opts := cfg.apiOptions()
	opts.Detail = detail
	views, err := api.BlockViews(ctx, inputs, opts)
	if err != nil {
		return err
	}

	r, err := api.NewRenderer(stdout, cfg.format)
	if err != nil {
		return err
	}
	for _, v := range views {
		if err := r.Render(v); err != nil {
			return err
		}
	}
	return r.Close()
}

func cmdTx(cfg *config, files []string, stdin io.Reader, stdout io.Writer) error {
	if len(files) > 1 {
		return errors.New("tx takes at most one file")
	}
	inputs, err := readInputs(files, stdin)
	if err != nil {
		return err
	}

	v, err := api.DecodeTransactionView(inputs[0], cfg.apiOptions())
	if err != nil {
		return err
	}
	return render(stdout, v, cfg.format)
}

func cmdAsm(cfg *config, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("asm takes exactly one hex script")
	}
	info, err := api.AnalyzeScript(args[0], cfg.SigHash, cfg.params)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, info.Asm)
	return err
}

func cmdClassify(cfg *config, args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("classify takes exactly one hex script")
	}
	info, err := api.AnalyzeScript(args[0], cfg.SigHash, cfg.params)
	if err != nil {
		return err
	}
	return render(stdout, info, cfg.format)
}

func cmdMerkle(ctx context.Context, cfg *config, files []string,
	stdin io.Reader, stdout io.Writer) error {

	inputs, err := readInputs(files, stdin)
	if err != nil {
		return err
	}

	blocks, err := api.DecodeBlocks(ctx, inputs, cfg.apiOptions())
	if err != nil {
		return err
	}

	r, err := api.NewRenderer(stdout, cfg.format)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		report, err := api.CheckMerkle(b)
		if err != nil {
			return fmt.Errorf("block %v: %w", b.Hash(), err)
		}
		if !report.MerkleRootOK {
			log.Warnf("Block %v: merkle root mismatch", b.Hash())
		}
		if err := r.Render(report); err != nil {
			return err
		}
	}
	return r.Close()
}
