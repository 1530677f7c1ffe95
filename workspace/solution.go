// Package workspace prepares a workspace for the language server: solution
// descriptor filtering and file watching.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"sharpbridge/mcp-csharp-bridge/logger"
)

// filteredMarker tags rewritten solution files so a later run does not pick
// one up as the source of truth.
const filteredMarker = ".filtered"

// DefaultProjectDenylist lists project kinds csharp-ls cannot load. Solution
// entries with these extensions are removed before the server sees the file.
func DefaultProjectDenylist() []string {
	return []string{
		".vcxproj", ".vbproj", ".fsproj", ".sqlproj", ".shproj",
		".wapproj", ".njsproj", ".esproj", ".vdproj", ".dcproj",
	}
}

// projectEntryRe matches solution project registrations:
//
//	Project("{kind-guid}") = "Name", "rel\path\Name.csproj", "{entry-guid}"
var projectEntryRe = regexp.MustCompile(`^Project\("\{[0-9A-Fa-f-]+\}"\)\s*=\s*"([^"]*)",\s*"([^"]*)",\s*"\{([0-9A-Fa-f-]+)\}"`)

// FilterResult describes one solution-filter run. When Rewritten is false the
// original root is in effect and no temp artifact exists.
type FilterResult struct {
	// EffectiveRoot is what the language server should load: either the
	// original root or the temp directory holding the rewritten solution.
	EffectiveRoot string
	SolutionPath  string
	Rewritten     bool
	// ExcludedGUIDs are the entry identifiers removed from the solution.
	ExcludedGUIDs []string

	tempDir string
}

// FilterOptions configures the project denylist; nil/empty uses the default.
type FilterOptions struct {
	Denylist []string
}

// FilterSolution locates the workspace's solution descriptor and removes
// project entries the analysis process cannot load. Retained relative project
// paths are rewritten to absolute so the copy loads from its temp location.
//
// Passthrough cases return root unchanged: no solution file, or nothing to
// exclude (duplicating the solution for no reason would just confuse tooling
// that watches it).
func FilterSolution(root string, opts FilterOptions) (*FilterResult, error) {
	denylist := opts.Denylist
	if len(denylist) == 0 {
		denylist = DefaultProjectDenylist()
	}
	denied := make(map[string]bool, len(denylist))
	for _, ext := range denylist {
		denied[strings.ToLower(ext)] = true
	}

	slnPath, err := findSolution(root)
	if err != nil {
		return nil, err
	}
	if slnPath == "" {
		return &FilterResult{EffectiveRoot: root}, nil
	}

	raw, err := os.ReadFile(slnPath)
	if err != nil {
		return nil, fmt.Errorf("read solution: %w", err)
	}

	filtered, excluded := rewriteSolution(string(raw), filepath.Dir(slnPath), denied)
	if len(excluded) == 0 {
		return &FilterResult{EffectiveRoot: root, SolutionPath: slnPath}, nil
	}

	tempDir, err := os.MkdirTemp("", "mcp-csharp-bridge-sln-")
	if err != nil {
		return nil, fmt.Errorf("create temp workspace: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(slnPath), ".sln")
	outPath := filepath.Join(tempDir, base+filteredMarker+".sln")
	if err := os.WriteFile(outPath, []byte(filtered), 0o644); err != nil {
		os.RemoveAll(tempDir)
		return nil, fmt.Errorf("write filtered solution: %w", err)
	}

	logger.Info(fmt.Sprintf("Filtered solution %s: excluded %d project(s)", slnPath, len(excluded)))
	return &FilterResult{
		EffectiveRoot: tempDir,
		SolutionPath:  outPath,
		Rewritten:     true,
		ExcludedGUIDs: excluded,
		tempDir:       tempDir,
	}, nil
}

// Cleanup removes the temp artifact, if any. Advisory: failure is logged and
// never escalated, a stale temp dir does not affect later runs.
func (r *FilterResult) Cleanup() {
	if r == nil || r.tempDir == "" {
		return
	}
	if err := os.RemoveAll(r.tempDir); err != nil {
		logger.Warn(fmt.Sprintf("Failed to remove temp workspace %s: %v", r.tempDir, err))
	}
	r.tempDir = ""
}

// findSolution picks the solution file to filter. Files without the filtered
// marker are preferred; with several candidates the first (sorted) is taken.
// Multiple solutions in one directory are ambiguous and we do not guess
// beyond that.
func findSolution(root string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(root, "*.sln"))
	if err != nil {
		return "", fmt.Errorf("scan for solution: %w", err)
	}
	if len(matches) == 0 {
		return "", nil
	}
	sort.Strings(matches)

	for _, m := range matches {
		if !strings.Contains(filepath.Base(m), filteredMarker) {
			return m, nil
		}
	}
	return matches[0], nil
}

// rewriteSolution drops denylisted project entries (and their configuration
// lines) and absolutizes retained relative paths. Returns the rewritten text
// and the excluded entry GUIDs.
func rewriteSolution(text, slnDir string, denied map[string]bool) (string, []string) {
	lines := strings.Split(text, "\n")

	var out []string
	var excluded []string
	excludedSet := make(map[string]bool)
	// pathSubs maps the original quoted path to its absolute replacement.
	pathSubs := make(map[string]string)

	skippingEntry := false
	sectionDepth := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(strings.TrimSuffix(line, "\r"))

		if skippingEntry {
			// Exact match only: a ProjectSection block inside the entry
			// closes with EndProjectSection, which is not the terminator.
			if trimmed == "EndProject" {
				skippingEntry = false
			}
			continue
		}

		if m := projectEntryRe.FindStringSubmatch(trimmed); m != nil {
			relPath, guid := m[2], m[3]
			ext := strings.ToLower(filepath.Ext(relPath))

			if denied[ext] {
				excluded = append(excluded, guid)
				excludedSet[strings.ToUpper(guid)] = true
				// Single-line form carries EndProject on the same line;
				// otherwise skip until the closing marker.
				if !strings.HasSuffix(trimmed, "EndProject") {
					skippingEntry = true
				}
				continue
			}

			if !filepath.IsAbs(filepath.FromSlash(strings.ReplaceAll(relPath, `\`, "/"))) {
				abs := filepath.Join(slnDir, filepath.FromSlash(strings.ReplaceAll(relPath, `\`, "/")))
				pathSubs[relPath] = abs
			}
		}

		// Track configuration-section nesting so only lines strictly inside
		// a section can be dropped.
		switch {
		case strings.HasPrefix(trimmed, "GlobalSection(") || strings.HasPrefix(trimmed, "ProjectSection("):
			sectionDepth++
		case trimmed == "EndGlobalSection" || trimmed == "EndProjectSection":
			if sectionDepth > 0 {
				sectionDepth--
			}
		default:
			if sectionDepth > 0 && referencesExcludedGUID(trimmed, excludedSet) {
				continue
			}
		}

		out = append(out, line)
	}

	rewritten := strings.Join(out, "\n")
	for from, to := range pathSubs {
		rewritten = strings.ReplaceAll(rewritten, `"`+from+`"`, `"`+to+`"`)
	}
	return rewritten, excluded
}

func referencesExcludedGUID(line string, excludedSet map[string]bool) bool {
	if len(excludedSet) == 0 {
		return false
	}
	upper := strings.ToUpper(line)
	for guid := range excludedSet {
		if strings.Contains(upper, guid) {
			return true
		}
	}
	return false
}
