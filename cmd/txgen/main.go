// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// txgen generates synthetic transaction CSVs for benchmarking the engine
// and verifies the invariants of a produced report.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/luxfi/payflow/config"
	"github.com/luxfi/payflow/types"
)

var app = &cli.App{
	Name:    "txgen",
	Usage:   "generate and verify payflow transaction data",
	Version: config.Version,
	Commands: []*cli.Command{
		genCommand,
		verifyCommand,
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var genCommand = &cli.Command{
	Name:  "gen",
	Usage: "write a pseudo-random transaction CSV",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "rows", Value: 1_000_000, Usage: "rows to generate; a dispute with its resolve or chargeback counts as one"},
		&cli.IntFlag{Name: "clients", Value: 1000, Usage: "distinct client ids"},
		&cli.Int64Flag{Name: "seed", Value: 1, Usage: "PRNG seed; same seed, same file"},
		&cli.Float64Flag{Name: "dispute-rate", Value: 0.02, Usage: "chance that a generated row starts a dispute (possibly followed by a resolve or chargeback)"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "-", Usage: "output path, - for stdout"},
	},
	Action: runGen,
}

func runGen(c *cli.Context) error {
	out := io.Writer(os.Stdout)
	if path := c.String("output"); path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	} else if isatty.IsTerminal(os.Stdout.Fd()) {
		return errors.New("refusing to write bulk CSV to a terminal; use -o or redirect stdout")
	}

	var (
		rows     = c.Int("rows")
		clients  = c.Int("clients")
		rate     = c.Float64("dispute-rate")
		rng      = rand.New(rand.NewSource(c.Int64("seed")))
		w        = bufio.NewWriterSize(out, 1<<20)
		nextTx   = uint32(1)
		deposits []uint64 // packed client<<32 | tx of deposits eligible for dispute
	)
	if clients < 1 || clients > 1<<16 {
		return errors.New("clients must be in [1, 65536]")
	}

	fmt.Fprintln(w, "type,client,tx,amount")
	for i := 0; i < rows; i++ {
		if r := rng.Float64(); r < rate && len(deposits) > 0 {
			pick := deposits[rng.Intn(len(deposits))]
			client, tx := uint16(pick>>32), uint32(pick)
			switch rng.Intn(3) {
			case 0:
				fmt.Fprintf(w, "dispute,%d,%d,\n", client, tx)
			case 1:
				fmt.Fprintf(w, "dispute,%d,%d,\nresolve,%d,%d,\n", client, tx, client, tx)
			default:
				fmt.Fprintf(w, "dispute,%d,%d,\nchargeback,%d,%d,\n", client, tx, client, tx)
			}
			continue
		}
		client := uint16(rng.Intn(clients))
		amount := types.Amount(rng.Int63n(10_000_000) + 1) // up to 1000.0000
		if rng.Intn(4) == 0 {
			fmt.Fprintf(w, "withdrawal,%d,%d,%s\n", client, nextTx, amount)
		} else {
			fmt.Fprintf(w, "deposit,%d,%d,%s\n", client, nextTx, amount)
			if len(deposits) < 1<<16 {
				deposits = append(deposits, uint64(client)<<32|uint64(nextTx))
			}
		}
		nextTx++
	}
	return w.Flush()
}

var verifyCommand = &cli.Command{
	Name:      "verify",
	Usage:     "check report invariants: header, ascending clients, available+held==total",
	ArgsUsage: "<report.csv>",
	Action:    runVerify,
}

func runVerify(c *cli.Context) error {
	if c.NArg() != 1 {
		return errors.New("verify takes exactly one report path")
	}
	in := io.Reader(os.Stdin)
	if path := c.Args().First(); path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<20)
	if !sc.Scan() {
		return errors.New("empty report")
	}
	if got := strings.TrimSpace(sc.Text()); got != "client,available,held,total,locked" {
		return fmt.Errorf("unexpected header %q", got)
	}

	var (
		line     = 1
		rows     = 0
		lastSeen = -1
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, ",")
		if len(fields) != 5 {
			return fmt.Errorf("line %d: expected 5 columns, got %d", line, len(fields))
		}
		client, err := strconv.ParseUint(fields[0], 10, 16)
		if err != nil {
			return fmt.Errorf("line %d: bad client: %w", line, err)
		}
		if int(client) <= lastSeen {
			return fmt.Errorf("line %d: client %d out of order", line, client)
		}
		lastSeen = int(client)

		available, err := parseSigned(fields[1])
		if err != nil {
			return fmt.Errorf("line %d: bad available: %w", line, err)
		}
		held, err := parseSigned(fields[2])
		if err != nil {
			return fmt.Errorf("line %d: bad held: %w", line, err)
		}
		total, err := parseSigned(fields[3])
		if err != nil {
			return fmt.Errorf("line %d: bad total: %w", line, err)
		}
		if available.Add(held) != total {
			return fmt.Errorf("line %d: available %s + held %s != total %s", line, available, held, total)
		}
		if fields[4] != "true" && fields[4] != "false" {
			return fmt.Errorf("line %d: bad locked flag %q", line, fields[4])
		}
		rows++
	}
	if err := sc.Err(); err != nil {
		return err
	}
	fmt.Printf("ok: %d accounts\n", rows)
	return nil
}

// parseSigned accepts the report's signed fixed-point rendering; input
// amounts are never negative but report balances can be.
func parseSigned(s string) (types.Amount, error) {
	if strings.HasPrefix(s, "-") {
		a, err := types.ParseAmount(s[1:])
		return -a, err
	}
	return types.ParseAmount(s)
}
