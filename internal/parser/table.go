package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Row is one decoded line of a column table, keyed by lower-case column name.
type Row map[string]string

// Template decodes tabular command output line by line. Each named group of
// Pattern becomes a column; lines that do not match are headers or noise.
type Template struct {
	Name    string
	Pattern *regexp.Regexp
}

// Decode returns one row per matching line, in output order.
func (t Template) Decode(text string) []Row {
	names := t.Pattern.SubexpNames()
	var rows []Row
	for _, line := range strings.Split(text, "\n") {
		m := t.Pattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			continue
		}
		row := make(Row, len(names))
		for i, name := range names {
			if i == 0 || name == "" {
				continue
			}
			row[name] = strings.TrimSpace(m[i])
		}
		rows = append(rows, row)
	}
	return rows
}

const ipv4 = `\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}`

var (
	bgpSummaryTemplate = Template{
		Name: "bgp_summary",
		Pattern: regexp.MustCompile(`^\s*(?P<neighbor>` + ipv4 + `)\s+(?P<spk>\d+)\s+(?P<as>[\d.]+)\s+` +
			`(?P<msgrcvd>\d+)\s+(?P<msgsent>\d+)\s+(?P<tblver>\d+)\s+(?P<inq>\d+)\s+(?P<outq>\d+)\s+` +
			`(?P<up_down>\S+)\s+(?P<pfxrcd>\S+)\s*$`),
	}
	ospfNeighborTemplate = Template{
		Name: "ospf_neighbor",
		Pattern: regexp.MustCompile(`^\s*(?P<neighbor_id>` + ipv4 + `)\s+(?P<priority>\d+)\s+` +
			`(?P<state>[A-Za-z0-9-]+/\s*\S+|\S+)\s+(?P<dead_time>\d\S*)\s+` +
			`(?P<address>` + ipv4 + `)\s+(?P<interface>\S+)\s*$`),
	}
)

// TemplateFor returns the table template for a show-command, ignoring any
// output modifiers after a pipe.
func TemplateFor(command string) (Template, bool) {
	cmd := strings.ToLower(strings.TrimSpace(command))
	if i := strings.Index(cmd, "|"); i >= 0 {
		cmd = strings.TrimSpace(cmd[:i])
	}
	switch {
	case strings.HasPrefix(cmd, "show bgp") && strings.HasSuffix(cmd, "summary"),
		strings.HasPrefix(cmd, "show ip bgp") && strings.HasSuffix(cmd, "summary"):
		return bgpSummaryTemplate, true
	case strings.HasPrefix(cmd, "show ospf neighbor"),
		strings.HasPrefix(cmd, "show ip ospf neighbor"):
		return ospfNeighborTemplate, true
	}
	return Template{}, false
}

// DecodeTable decodes the output of command with its template. Commands
// without a template decode to no rows.
func DecodeTable(command, text string) []Row {
	t, ok := TemplateFor(command)
	if !ok {
		return nil
	}
	return t.Decode(text)
}

// CountRows is the number of decoded rows, e.g. BGP neighbors or OSPF adjacencies.
func CountRows(rows []Row) int {
	return len(rows)
}

// SumField adds up an integer column. Missing or non-numeric cells (for
// example a BGP state like "Idle" in the St/PfxRcd column) count as zero.
func SumField(rows []Row, key string) int {
	total := 0
	for _, row := range rows {
		n, err := strconv.Atoi(strings.TrimSpace(row[key]))
		if err != nil {
			continue
		}
		total += n
	}
	return total
}
