package checker

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var strideLine = regexp.MustCompile(`^#s\s+(\S+)\s+(.+)$`)

// tree is a cluster of leaf indices. Forest matching treats a solution
// tree as valid against an instance tree iff its leaves are a non-empty
// subset of the instance tree's remaining, unclaimed leaves.
type tree struct {
	lineno int
	leaves map[int]struct{}
}

type parsedFile struct {
	numLeaves int
	trees     []tree
	infos     []KV
}

// Process parses instancePath and solutionPath, matches the solution's
// trees against the instance's, and returns the classified Outcome plus
// the SolutionInfos harvested from whichever file's "#s" lines are
// relevant: instance infos are merged in first so the solver's own
// values win on key collision, matching the last-write-wins rule.
func Process(instancePath, solutionPath string) (Outcome, []KV, error) {
	instance, err := parseFile(instancePath, true)
	if err != nil {
		return Outcome{}, nil, fmt.Errorf("checker: read instance: %w", err)
	}
	if instance == nil {
		return InstanceSyntaxErrorOutcome(), nil, nil
	}

	solution, err := parseFile(solutionPath, false)
	if err != nil {
		return Outcome{}, nil, fmt.Errorf("checker: read solution: %w", err)
	}
	if solution == nil {
		return SolutionSyntaxErrorOutcome(), nil, nil
	}
	if len(solution.trees) == 0 {
		return EmptySolutionOutcome(), nil, nil
	}

	if !matchForest(instance.trees, solution.trees) {
		return TreeMatchingFailureOutcome(), nil, nil
	}

	infos := mergeInfos(instance.infos, solution.infos)
	return Valid(len(solution.trees)), infos, nil
}

// ParseInstanceOnly validates an instance file's syntax without checking
// it against any solution, for the check subcommand's instance-only mode.
func ParseInstanceOnly(instancePath string) (Outcome, error) {
	instance, err := parseFile(instancePath, true)
	if err != nil {
		return Outcome{}, fmt.Errorf("checker: read instance: %w", err)
	}
	if instance == nil {
		return InstanceSyntaxErrorOutcome(), nil
	}
	return Valid(len(instance.trees)), nil
}

// parseFile reads a "p htd <leaves> <trees>" (instance) or
// "s htd <trees>" (solution) header followed by one line of
// space-separated 1-based leaf indices per tree. A nil, nil return means
// the file is syntactically malformed; an error means it couldn't be read.
func parseFile(path string, isInstance bool) (*parsedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	result := &parsedFile{}
	sawHeader := false
	wantTrees := -1

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if m := strideLine.FindStringSubmatch(line); m != nil {
			result.infos = append(result.infos, KV{Key: m[1], Value: json.RawMessage(toJSONValue(m[2]))})
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		if !sawHeader {
			fields := strings.Fields(line)
			if isInstance {
				if len(fields) != 4 || fields[0] != "p" {
					return nil, nil
				}
				leaves, err := strconv.Atoi(fields[2])
				if err != nil {
					return nil, nil
				}
				trees, err := strconv.Atoi(fields[3])
				if err != nil {
					return nil, nil
				}
				result.numLeaves = leaves
				wantTrees = trees
			} else {
				if len(fields) != 3 || fields[0] != "s" {
					return nil, nil
				}
				trees, err := strconv.Atoi(fields[2])
				if err != nil {
					return nil, nil
				}
				wantTrees = trees
			}
			sawHeader = true
			continue
		}

		leaves, err := parseLeafLine(line)
		if err != nil {
			return nil, nil
		}
		result.trees = append(result.trees, tree{lineno: len(result.trees), leaves: leaves})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if !sawHeader {
		return nil, nil
	}
	if wantTrees >= 0 && len(result.trees) != wantTrees {
		return nil, nil
	}

	return result, nil
}

func parseLeafLine(line string) (map[int]struct{}, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty tree line")
	}
	leaves := make(map[int]struct{}, len(fields))
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		leaves[n] = struct{}{}
	}
	return leaves, nil
}

// matchForest mirrors the original's nested isolation loop: every
// instance tree must, independently, be able to isolate each solution
// tree from its own remaining leaf pool.
func matchForest(instanceTrees, solutionTrees []tree) bool {
	for _, it := range instanceTrees {
		available := cloneLeaves(it.leaves)
		for _, st := range solutionTrees {
			if !isolate(available, st.leaves) {
				return false
			}
		}
	}
	return true
}

// isolate removes st's leaves from available if they are all present and
// st is non-empty; it reports whether the isolation succeeded.
func isolate(available map[int]struct{}, st map[int]struct{}) bool {
	if len(st) == 0 {
		return false
	}
	for leaf := range st {
		if _, ok := available[leaf]; !ok {
			return false
		}
	}
	for leaf := range st {
		delete(available, leaf)
	}
	return true
}

func cloneLeaves(m map[int]struct{}) map[int]struct{} {
	out := make(map[int]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}

// mergeInfos concatenates instance and solution infos, keeping insertion
// order but letting a later key win over an earlier one (last-write-wins).
func mergeInfos(instance, solution []KV) []KV {
	all := append(append([]KV{}, instance...), solution...)

	seen := make(map[string]int, len(all))
	out := make([]KV, 0, len(all))
	for _, kv := range all {
		if idx, ok := seen[kv.Key]; ok {
			out[idx] = kv
			continue
		}
		seen[kv.Key] = len(out)
		out = append(out, kv)
	}
	return out
}

// toJSONValue returns raw if it already parses as JSON, otherwise quotes
// it as a JSON string; solver output is frequently a bare number or word.
func toJSONValue(raw string) string {
	raw = strings.TrimSpace(raw)
	var js json.RawMessage
	if json.Unmarshal([]byte(raw), &js) == nil {
		return raw
	}
	quoted, err := json.Marshal(raw)
	if err != nil {
		return `""`
	}
	return string(quoted)
}
