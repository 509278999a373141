// Package parser turns show-command output into structured values.
//
// Every function here is miss-tolerant: output that does not look the way
// we expect produces zero values or missing entries, never an error. Router
// output varies between releases and a parse miss must not abort a run.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// InterfaceRate is the 30 second load of an interface as reported by
// "show interface".
type InterfaceRate struct {
	InputBps  int64 `json:"input_bps"`
	OutputBps int64 `json:"output_bps"`
}

const activeMarker = "is up"

var (
	inputRateRe  = regexp.MustCompile(`30 second input rate (\d+) bits/sec`)
	outputRateRe = regexp.MustCompile(`30 second output rate (\d+) bits/sec`)
)

// SplitBlocks cuts an interface dump into one block per interface. A block
// starts at every line whose first character is not whitespace; indented and
// empty lines continue the block before them.
func SplitBlocks(text string) []string {
	var (
		blocks  []string
		current strings.Builder
		started bool
	)
	for _, line := range strings.Split(text, "\n") {
		if line != "" && !isSpace(line[0]) && started {
			blocks = append(blocks, current.String())
			current.Reset()
		} else if started {
			current.WriteByte('\n')
		}
		current.WriteString(line)
		started = true
	}
	if started {
		blocks = append(blocks, current.String())
	}
	return blocks
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\v' || b == '\f'
}

// ParseInterfaceRates extracts the input and output rate of every interface
// that is up. Interfaces without both rates are left out.
func ParseInterfaceRates(text string) map[string]InterfaceRate {
	rates := make(map[string]InterfaceRate)
	for _, block := range SplitBlocks(text) {
		if !strings.Contains(block, activeMarker) {
			continue
		}
		fields := strings.Fields(block)
		if len(fields) == 0 {
			continue
		}
		in, ok := matchRate(inputRateRe, block)
		if !ok {
			continue
		}
		out, ok := matchRate(outputRateRe, block)
		if !ok {
			continue
		}
		rates[fields[0]] = InterfaceRate{InputBps: in, OutputBps: out}
	}
	return rates
}

func matchRate(re *regexp.Regexp, block string) (int64, bool) {
	m := re.FindStringSubmatch(block)
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// CountFullAdjacencies approximates the OSPF neighbor count by counting the
// literal token "Full" in "show ospf neighbor" output.
func CountFullAdjacencies(text string) int {
	return strings.Count(text, "Full")
}

// ApproxBGPSessionsByLineCount approximates the BGP session count of a text
// summary by its number of newlines. Header and banner lines are counted too,
// so the value only tracks relative change between runs.
func ApproxBGPSessionsByLineCount(text string) int {
	return strings.Count(text, "\n")
}
