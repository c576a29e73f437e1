package code

import (
	"bufio"
	"os"
	"regexp"
	"strings"

	"github.com/commitly/commitly/internal/config"
	"github.com/commitly/commitly/internal/runctx"
)

// stringLiteralPattern matches a single- or double-quoted string literal,
// used as the candidate text once a sink substring is found on the line.
var stringLiteralPattern = regexp.MustCompile(`"([^"\\]|\\.)*"|'([^'\\]|\\.)*'`)

// tableRefPattern pulls table names out of FROM/JOIN/UPDATE/INTO clauses —
// a heuristic, not a real SQL parser, favoring lightweight regex scanning
// over a full grammar where one isn't already in the dependency tree.
var tableRefPattern = regexp.MustCompile(`(?i)\b(?:FROM|JOIN|UPDATE|INTO)\s+([A-Za-z_][A-Za-z0-9_\.]*)`)

// funcHeaderPattern recognizes common function/method headers across the
// languages a target project might use, to label a site's enclosing symbol.
var funcHeaderPattern = regexp.MustCompile(`^\s*(?:def|func)\s+([A-Za-z_][A-Za-z0-9_]*)|^\s*(?:public|private|protected)?\s*(?:static\s+)?(?:[\w\[\]<>]+\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

// extractEmbeddedQueries walks each changed file line by line looking for a
// configured sink substring followed by a quoted string literal on the same
// line. The sink set is config-driven rather than hardcoded, since different
// projects wrap their database calls differently.
func extractEmbeddedQueries(hubPath string, changedFiles []string, cfg config.QueryConfig) ([]runctx.EmbeddedQuerySite, error) {
	var sites []runctx.EmbeddedQuerySite
	for _, path := range changedFiles {
		fileSites, err := scanFile(path, cfg)
		if err != nil {
			continue // unreadable/binary file: skip, not a pipeline failure
		}
		sites = append(sites, fileSites...)
	}
	return sites, nil
}

func scanFile(path string, cfg config.QueryConfig) ([]runctx.EmbeddedQuerySite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sites []runctx.EmbeddedQuerySite
	var currentSymbol string
	lineNo := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if m := funcHeaderPattern.FindStringSubmatch(line); m != nil {
			if m[1] != "" {
				currentSymbol = m[1]
			} else if m[2] != "" {
				currentSymbol = m[2]
			}
		}

		sinkIdx := -1
		for _, sink := range cfg.Sinks {
			if idx := strings.Index(line, sink); idx >= 0 && (sinkIdx == -1 || idx < sinkIdx) {
				sinkIdx = idx
			}
		}
		if sinkIdx == -1 {
			continue
		}

		literal := stringLiteralPattern.FindString(line[sinkIdx:])
		if literal == "" {
			continue
		}
		unquoted := strings.Trim(literal, `'"`)
		if !looksLikeSQL(unquoted) {
			continue
		}

		sites = append(sites, runctx.EmbeddedQuerySite{
			FilePath:         path,
			Symbol:           currentSymbol,
			LineStart:        lineNo,
			LineEnd:          lineNo,
			OriginalText:     line,
			Dialect:          cfg.Dialect,
			ReferencedTables: referencedTables(unquoted),
		})
	}
	return sites, scanner.Err()
}

var sqlKeywordPattern = regexp.MustCompile(`(?i)\b(SELECT|INSERT|UPDATE|DELETE)\b`)

func looksLikeSQL(s string) bool {
	return sqlKeywordPattern.MatchString(s)
}

func referencedTables(query string) []string {
	matches := tableRefPattern.FindAllStringSubmatch(query, -1)
	seen := make(map[string]bool)
	var tables []string
	for _, m := range matches {
		t := m[1]
		if !seen[t] {
			seen[t] = true
			tables = append(tables, t)
		}
	}
	return tables
}
