package detector

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/strumspace/strumspace/internal/fretboard"
)

// LoadLabels reads class names, one per line, skipping blanks and # comments.
// An empty path yields the default Zone1..Zone12 labels.
func LoadLabels(path string) ([]string, error) {
	if path == "" {
		return fretboard.ZoneLabels(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labels: %w", err)
	}
	defer f.Close()

	var labels []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file %s is empty", path)
	}
	return labels, nil
}

// bestPerLabel keeps the most confident detection of each label, in first-seen order.
func bestPerLabel(dets []fretboard.Detection) []fretboard.Detection {
	index := make(map[string]int)
	out := make([]fretboard.Detection, 0, len(dets))
	for _, d := range dets {
		if i, ok := index[d.Label]; ok {
			if d.Confidence > out[i].Confidence {
				out[i] = d
			}
			continue
		}
		index[d.Label] = len(out)
		out = append(out, d)
	}
	return out
}
