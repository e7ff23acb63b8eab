// Package api provides the high-level entry points of the bitcoin-block
// library.
//
// It ties together the wire codec, the script classifier and the porcelain
// views:
//
//  1. NormalizeInput - Accepts raw or hex-encoded bytes
//  2. DecodeBlocks - Decodes many blocks concurrently
//  3. BlockViews - Decodes blocks straight to porcelain views
//  4. DecodeTransactionView - Decodes one transaction to its view
//  5. AnalyzeScript - Disassembles and classifies a script
//  6. CheckMerkle - Recomputes a block's merkle root and witness commitment
//  7. Render - Formats any result as JSON, YAML or a spew dump
package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/suffix-labs/bitcoin-block/pkg/bitcoin"
	"github.com/suffix-labs/bitcoin-block/pkg/porcelain"
	"github.com/suffix-labs/bitcoin-block/pkg/script"
)

// Options controls decoding and view construction.
type Options struct {
	// Strict rejects inputs with bytes left over after the decoded value.
	Strict bool

	// Workers bounds the number of blocks decoded at once. Zero means
	// one per CPU.
	Workers int

	// Detail selects the block view detail for BlockViews.
	Detail porcelain.Detail

	// Params selects the network used for addresses. Nil means mainnet.
	Params *script.Params
}

func (o *Options) decodeOptions() bitcoin.DecodeOptions {
	return bitcoin.DecodeOptions{Strict: o.Strict}
}

func (o *Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// ============================================================================
// API Function 1: NormalizeInput
// ============================================================================

// ErrEmptyInput is returned by NormalizeInput when there is nothing to
// decode.
var ErrEmptyInput = errors.New("empty input")

// NormalizeInput returns the binary form of raw.
//
// Input whose bytes, after trimming surrounding whitespace, all lie in the
// range '0' to 'f' is taken to be hex and decoded. Anything else is
// returned unchanged as binary.
func NormalizeInput(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, ErrEmptyInput
	}
	if !looksLikeHex(trimmed) {
		return raw, nil
	}

	out := make([]byte, hex.DecodedLen(len(trimmed)))
	if _, err := hex.Decode(out, trimmed); err != nil {
		return nil, fmt.Errorf("failed to decode hex input: %w", err)
	}
	return out, nil
}

func looksLikeHex(b []byte) bool {
	for _, c := range b {
		if c < '0' || c > 'f' {
			return false
		}
	}
	return true
}

// ============================================================================
// API Function 2: DecodeBlocks
// ============================================================================

// DecodeBlocks decodes each input as a block, at most opts.Workers at a
// time. Blocks are returned in input order. The first failure cancels the
// remaining work and is returned with the index of the failing input.
//
// Parameters:
//   - ctx: Cancels decoding that has not yet started
//   - inputs: Raw or hex-encoded blocks
//   - opts: Strictness and worker count
//
// Returns:
//   - One block per input
//   - Error if any input fails to decode
func DecodeBlocks(ctx context.Context, inputs [][]byte, opts Options) ([]*bitcoin.Block, error) {
	blocks := make([]*bitcoin.Block, len(inputs))

	workers := opts.workers()
	log.Debugf("Decoding %d block(s) with %d worker(s)", len(inputs), workers)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, input := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			raw, err := NormalizeInput(input)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			b, _, err := bitcoin.DecodeBlock(raw, opts.decodeOptions())
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			log.Tracef("Input %d: block %v, %d bytes, %d tx", i, b.Hash(), b.Size(), len(b.Transactions))
			blocks[i] = b
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Debugf("Block decoding failed: %v", err)
		return nil, err
	}
	return blocks, nil
}

// ============================================================================
// API Function 3: BlockViews
// ============================================================================

// BlockViews decodes each input as a block and converts it to a porcelain
// view at opts.Detail. A Header view only needs the first 80 bytes of the
// input, so nothing after the header is decoded in that case.
func BlockViews(ctx context.Context, inputs [][]byte, opts Options) ([]*porcelain.Block, error) {
	if opts.Detail == porcelain.Header {
		return headerViews(inputs, opts)
	}

	blocks, err := DecodeBlocks(ctx, inputs, opts)
	if err != nil {
		return nil, err
	}
	views := make([]*porcelain.Block, len(blocks))
	for i, b := range blocks {
		views[i] = porcelain.FromBlock(b, opts.Detail, opts.Params)
	}
	return views, nil
}

func headerViews(inputs [][]byte, opts Options) ([]*porcelain.Block, error) {
	views := make([]*porcelain.Block, len(inputs))
	for i, input := range inputs {
		raw, err := NormalizeInput(input)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		// Trailing transactions are expected here.
		h, err := bitcoin.DecodeBlockHeaderOnly(raw, bitcoin.DecodeOptions{})
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
		views[i] = porcelain.FromBlockHeader(h)
	}
	return views, nil
}

// ============================================================================
// API Function 4: DecodeTransactionView
// ============================================================================

// DecodeTransactionView decodes a single raw or hex-encoded transaction and
// returns its porcelain view.
func DecodeTransactionView(input []byte, opts Options) (*porcelain.Transaction, error) {
	raw, err := NormalizeInput(input)
	if err != nil {
		return nil, err
	}
	tx, _, err := bitcoin.DecodeTransaction(raw, opts.decodeOptions())
	if err != nil {
		return nil, err
	}
	return porcelain.FromTransaction(tx, opts.Params), nil
}

// ============================================================================
// API Function 5: AnalyzeScript
// ============================================================================

// ScriptInfo describes a single script.
type ScriptInfo struct {
	Asm       string   `json:"asm" yaml:"asm"`
	Hex       string   `json:"hex" yaml:"hex"`
	Type      string   `json:"type" yaml:"type"`
	ReqSigs   int      `json:"reqSigs,omitempty" yaml:"reqSigs,omitempty"`
	Addresses []string `json:"addresses,omitempty" yaml:"addresses,omitempty"`
	PushOnly  bool     `json:"pushonly" yaml:"pushonly"`
}

// AnalyzeScript disassembles and classifies a hex-encoded script. Signature
// hash types are decoded in the disassembly when sigHashDecode is set, as
// Core does for input scripts.
func AnalyzeScript(scriptHex string, sigHashDecode bool, params *script.Params) (*ScriptInfo, error) {
	s, err := hex.DecodeString(scriptHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode script hex: %w", err)
	}
	if len(s) > script.MaxScriptSize {
		return nil, fmt.Errorf("script is %d bytes, limit is %d", len(s), script.MaxScriptSize)
	}

	info := &ScriptInfo{
		Asm:      script.DisasmString(s, sigHashDecode),
		Hex:      hex.EncodeToString(s),
		Type:     script.GetScriptClass(s).String(),
		PushOnly: script.IsPushOnly(s, 0),
	}
	if dests, ok := script.ExtractDestinations(s); ok {
		info.ReqSigs = dests.Required
		info.Addresses = script.EncodeAddresses(s, params)
	}
	return info, nil
}

// ============================================================================
// API Function 6: CheckMerkle
// ============================================================================

// MerkleReport compares the roots a block commits to with recomputed ones.
type MerkleReport struct {
	Hash           string `json:"hash" yaml:"hash"`
	MerkleRoot     string `json:"merkleroot" yaml:"merkleroot"`
	CalculatedRoot string `json:"calculatedmerkleroot" yaml:"calculatedmerkleroot"`
	MerkleRootOK   bool   `json:"merklerootok" yaml:"merklerootok"`
	SegWit         bool   `json:"segwit" yaml:"segwit"`

	// The witness fields are only set for SegWit blocks. Commitments are
	// shown in their raw byte order, as they appear in the coinbase.
	WitnessMerkleRoot           string `json:"witnessmerkleroot,omitempty" yaml:"witnessmerkleroot,omitempty"`
	WitnessCommitment           string `json:"witnesscommitment,omitempty" yaml:"witnesscommitment,omitempty"`
	CalculatedWitnessCommitment string `json:"calculatedwitnesscommitment,omitempty" yaml:"calculatedwitnesscommitment,omitempty"`
	WitnessCommitmentOK         *bool  `json:"witnesscommitmentok,omitempty" yaml:"witnesscommitmentok,omitempty"`

	// CommitmentScript is the hex coinbase output script that carries the
	// calculated commitment.
	CommitmentScript string `json:"commitmentscript,omitempty" yaml:"commitmentscript,omitempty"`
}

// CheckMerkle recomputes the merkle root of b and, for SegWit blocks, the
// witness merkle root and commitment.
func CheckMerkle(b *bitcoin.Block) (*MerkleReport, error) {
	root, err := b.CalculateMerkleRoot(bitcoin.WithoutWitness)
	if err != nil {
		return nil, err
	}
	segWit, err := b.IsSegWit()
	if err != nil {
		return nil, err
	}

	r := &MerkleReport{
		Hash:           b.Hash().String(),
		MerkleRoot:     b.MerkleRoot.String(),
		CalculatedRoot: root.String(),
		MerkleRootOK:   root == b.MerkleRoot,
		SegWit:         segWit,
	}
	if !segWit {
		return r, nil
	}

	witnessRoot, err := b.CalculateMerkleRoot(bitcoin.WithWitness)
	if err != nil {
		return nil, err
	}
	r.WitnessMerkleRoot = witnessRoot.String()

	found, err := b.WitnessCommitment()
	if err != nil {
		return nil, err
	}
	if found != nil {
		r.WitnessCommitment = hex.EncodeToString(found)
	}

	calculated, err := b.CalculateWitnessCommitment()
	switch {
	case err == nil:
		r.CalculatedWitnessCommitment = hex.EncodeToString(calculated[:])
		r.CommitmentScript = hex.EncodeToString(script.WitnessCommitmentScript(calculated[:]))
		ok := bytes.Equal(found, calculated[:])
		r.WitnessCommitmentOK = &ok

	case errors.Is(err, bitcoin.ErrBadWitnessNonce), errors.Is(err, bitcoin.ErrNoWitnessCommitment):
		log.Debugf("Block %v: %v", b.Hash(), err)
		ok := false
		r.WitnessCommitmentOK = &ok

	default:
		return nil, err
	}
	return r, nil
}
