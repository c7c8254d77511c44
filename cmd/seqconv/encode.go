package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/born-ml/seqconv/internal/seq"
	"github.com/born-ml/seqconv/internal/tensor"
)

type encodedRecord struct {
	ID       string      `json:"id"`
	Width    int         `json:"width"`
	Codes    []uint8     `json:"codes,omitempty"`
	Channels [][]float64 `json:"channels,omitempty"`
}

func newEncodeCmd() *cobra.Command {
	var oneHot bool

	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Encode FASTA or one-per-line sequences as symbol codes",
		Long: "Encode reads sequences from a file (or stdin when omitted or '-') and " +
			"writes one JSON object per record with its symbol codes, or its " +
			"per-position channel weights with --one-hot. All sequences must share a width.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}
			return runEncode(in, cmd.OutOrStdout(), oneHot)
		},
	}

	cmd.Flags().BoolVar(&oneHot, "one-hot", false, "Emit channel weights [A, C, G, T] per position instead of codes")

	return cmd
}

func runEncode(r io.Reader, w io.Writer, oneHot bool) error {
	records, err := seq.ReadSequences(r)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("encode: no sequences in input")
	}

	codes, err := seq.Encode(seq.Sequences(records))
	if err != nil {
		return err
	}
	width := codes.Shape()[1]

	var weights []float64
	if oneHot {
		hot, err := seq.OneHot(codes, tensor.Float64)
		if err != nil {
			return err
		}
		weights = hot.AsFloat64()
	}

	enc := json.NewEncoder(w)
	all := codes.AsUint8()
	for i, rec := range records {
		out := encodedRecord{ID: rec.ID, Width: width}
		if oneHot {
			out.Channels = make([][]float64, width)
			for pos := range out.Channels {
				start := (i*width + pos) * seq.Channels
				out.Channels[pos] = weights[start : start+seq.Channels]
			}
		} else {
			out.Codes = all[i*width : (i+1)*width]
		}
		if err := enc.Encode(out); err != nil {
			return err
		}
	}
	return nil
}
