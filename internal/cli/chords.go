package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/strumspace/strumspace/internal/chord"
	"github.com/strumspace/strumspace/internal/session"
)

var (
	listDifficulty string
	midiOutput     string
)

func init() {
	chordsListCmd.Flags().StringVar(&listDifficulty, "difficulty", "", "only list chords of this difficulty")
	chordsMIDICmd.Flags().StringVarP(&midiOutput, "output", "o", "", "output file (default <chord>.mid)")

	chordsCmd.AddCommand(chordsListCmd, chordsShowCmd, chordsMIDICmd, chordsProgressionCmd, chordsTiersCmd)
	rootCmd.AddCommand(chordsCmd)
}

var chordsCmd = &cobra.Command{
	Use:   "chords",
	Short: "Inspects the chord library",
}

var chordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists chords",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := commandTable()
		if err != nil {
			return err
		}
		d := chord.Difficulty(strings.ToLower(listDifficulty))
		if d != "" && !d.Valid() {
			return fmt.Errorf("unknown difficulty %q", listDifficulty)
		}
		return printChords(cmd.OutOrStdout(), table.List(d))
	},
}

var chordsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Shows a chord's fingering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := commandTable()
		if err != nil {
			return err
		}
		c, err := table.Get(args[0])
		if err != nil {
			return err
		}
		printChord(cmd.OutOrStdout(), c)
		return nil
	},
}

var chordsMIDICmd = &cobra.Command{
	Use:   "midi <name>",
	Short: "Writes a chord as a Standard MIDI File",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := commandTable()
		if err != nil {
			return err
		}
		c, err := table.Get(args[0])
		if err != nil {
			return err
		}

		path := midiOutput
		if path == "" {
			path = strings.ReplaceAll(c.ID, "/", "_") + ".mid"
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := chord.WriteMIDI(f, c); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var chordsProgressionCmd = &cobra.Command{
	Use:   "progression <key>",
	Short: "Lists a common progression in a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := commandTable()
		if err != nil {
			return err
		}
		key, chords := table.Progression(args[0])
		fmt.Fprintf(cmd.OutOrStdout(), "Key of %s\n", key)
		return printChords(cmd.OutOrStdout(), chords)
	},
}

var chordsTiersCmd = &cobra.Command{
	Use:   "tiers",
	Short: "Lists the practice sequence of each difficulty",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		tiers := session.Tiers()
		names := make([]string, 0, len(tiers))
		for name := range tiers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%-13s %s\n", name, strings.Join(tiers[name], " "))
		}
	},
}

// commandTable loads the chord table, including saved custom chords when a
// database already exists.
func commandTable() (*chord.Table, error) {
	if _, err := os.Stat(dataDir); err != nil {
		return loadTable(nil)
	}
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return loadTable(st)
}

func printChords(w io.Writer, chords []*chord.Chord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHORD\tNAME\tDIFFICULTY\tPOSITIONS")
	for _, c := range chords {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Label(), c.Name, c.Difficulty, formatPositions(c.Positions))
	}
	return tw.Flush()
}

func printChord(w io.Writer, c *chord.Chord) {
	fmt.Fprintf(w, "%s (%s, %s)\n", c.Label(), c.Name, c.Difficulty)
	for _, p := range c.Positions {
		fmt.Fprintf(w, "  string %d fret %d", p.String, p.Fret)
		if p.Finger > 0 {
			fmt.Fprintf(w, " finger %d", p.Finger)
		}
		fmt.Fprintln(w)
	}
	if c.Barre {
		fmt.Fprintln(w, "  barre chord")
	}
	if c.Tips != "" {
		fmt.Fprintf(w, "  tip: %s\n", c.Tips)
	}
}

// formatPositions renders positions as fret/string pairs, e.g. "1/2 2/3".
func formatPositions(ps []chord.Position) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = fmt.Sprintf("%d/%d", p.Fret, p.String)
	}
	return strings.Join(parts, " ")
}
