package session

import (
	"regexp"
	"strings"
)

var (
	ansiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[a-zA-Z]`)
	// RP/0/RSP0/CPU0:UPE9#, UPE9#, UPE9>
	promptRe = regexp.MustCompile(`^(?:RP/\S+?:)?[A-Za-z0-9_.\-]+[#>]\s*(.*)$`)
)

// CleanShellOutput removes terminal artifacts from an interactive shell
// transcript: ANSI escapes, carriage returns, prompts, and the echo of the
// paging, command, and exit lines. Leading and trailing blank lines go too.
func CleanShellOutput(output, cmd string) string {
	output = ansiRe.ReplaceAllString(output, "")
	output = strings.ReplaceAll(output, "\r", "")

	echoes := map[string]bool{"": true, "terminal length 0": true, "exit": true}
	echoes[strings.TrimSpace(cmd)] = true

	var kept []string
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := promptRe.FindStringSubmatch(trimmed); m != nil && echoes[strings.TrimSpace(m[1])] {
			continue
		}
		if trimmed != "" && echoes[trimmed] {
			continue
		}
		kept = append(kept, line)
	}

	for len(kept) > 0 && strings.TrimSpace(kept[0]) == "" {
		kept = kept[1:]
	}
	for len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) == "" {
		kept = kept[:len(kept)-1]
	}
	return strings.Join(kept, "\n")
}
