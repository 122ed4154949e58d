package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strumspace/strumspace/internal/audio"
)

var verifyThreshold float64

func init() {
	verifyCmd.Flags().Float64Var(&verifyThreshold, "threshold", audio.DefaultThreshold, "chroma similarity needed to name a chord")
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file.wav|file.mid> [chord]",
	Short: "Names the chord in a recording",
	Long: `Names the chord heard in a WAV or MIDI file. With a chord argument it also
reports whether the recording matches that chord.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sample, err := readSampleFile(args[0])
		if err != nil {
			return err
		}
		table, err := commandTable()
		if err != nil {
			return err
		}

		v := audio.NewChromaVerifier(table)
		v.SetThreshold(verifyThreshold)
		ctx := context.Background()
		out := cmd.OutOrStdout()

		if len(args) == 1 {
			name, score, err := v.Detect(ctx, sample)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s (%.3f)\n", name, score)
			return nil
		}

		res, err := v.Verify(ctx, args[1], sample)
		if err != nil {
			return err
		}
		verdict := "wrong"
		if res.Correct {
			verdict = "correct"
		}
		fmt.Fprintf(out, "%s: expected %s, heard %s (%.3f)\n", verdict, res.Expected, res.Detected, res.Score)
		return nil
	},
}

// readSampleFile decodes a WAV or MIDI file chosen by extension.
func readSampleFile(path string) (audio.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return audio.Sample{}, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mid", ".midi":
		return audio.DecodeMIDI(f)
	case ".wav", ".wave":
		return audio.DecodeWAV(f)
	}
	return audio.Sample{}, fmt.Errorf("%s: unsupported audio file, use .wav or .mid", path)
}
