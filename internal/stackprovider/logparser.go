package stackprovider

import (
	"bufio"
	"context"
	"os/exec"
	"regexp"
	"strings"
)

// gtLogBranchPattern matches `gt log`'s indented branch lines, e.g.
//
//	◯ main
//	│ ◯ feature-base (PR #101)
//	│ │ ◯ feature-mid (PR #102)
//
// Indent depth tracks stack depth; the trailing "(PR #n)" is optional.
var gtLogBranchPattern = regexp.MustCompile(`^([│\s]*)[◯◉●]\s+(\S+)(?:\s+\(PR #(\d+)\))?`)

// LogParser is a best-effort `gt log` parser. Every Stack it returns is
// marked BestEffort:true. It is standalone: GraphiteProvider does not fall
// back to it when `gt state` is unavailable, and the sync stack enricher
// neither calls it nor reads the BestEffort flag.
type LogParser struct{}

// NewLogParser builds a LogParser.
func NewLogParser() *LogParser { return &LogParser{} }

// ParseStacks shells to `gt log` and does a best-effort reconstruction of
// stack order from the command's indentation-based tree output. It returns
// the subprocess error when `gt log` fails, and an empty, non-error result
// when the output has no recognizable branch lines.
func (lp *LogParser) ParseStacks(ctx context.Context) ([]Stack, error) {
	ctx, cancel := context.WithTimeout(ctx, subprocessTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, "gt", "log", "--stack").Output()
	if err != nil {
		return nil, err
	}

	return parseGTLog(string(out)), nil
}

// parseGTLog is split out from ParseStacks so it can be unit-tested
// without shelling out.
func parseGTLog(output string) []Stack {
	type line struct {
		depth  int
		branch string
		pr     int
	}

	var lines []line
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		m := gtLogBranchPattern.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		depth := strings.Count(m[1], "│")
		pr := 0
		if m[3] != "" {
			for _, r := range m[3] {
				pr = pr*10 + int(r-'0')
			}
		}
		lines = append(lines, line{depth: depth, branch: m[2], pr: pr})
	}

	if len(lines) == 0 {
		return nil
	}

	// Every matched branch line, trunk included, becomes one stack in output
	// order; indent depth is recorded but not used to split or reorder it.
	var branches []string
	var prs []int
	for _, l := range lines {
		branches = append(branches, l.branch)
		prs = append(prs, l.pr)
	}

	leaf := branches[len(branches)-1]
	return []Stack{{ID: leaf, Name: leaf, Branches: branches, PRNumbers: prs, BestEffort: true}}
}
