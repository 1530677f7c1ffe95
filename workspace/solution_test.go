package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const guidCSharp = "11111111-1111-1111-1111-111111111111"
const guidNative = "22222222-2222-2222-2222-222222222222"
const guidFSharp = "33333333-3333-3333-3333-333333333333"

func mixedSolutionText() string {
	return strings.Join([]string{
		"Microsoft Visual Studio Solution File, Format Version 12.00",
		"# Visual Studio Version 17",
		`Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "App", "App\App.csproj", "{` + guidCSharp + `}"`,
		"EndProject",
		`Project("{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}") = "Native", "Native\Native.vcxproj", "{` + guidNative + `}"`,
		"EndProject",
		`Project("{F2A71F9B-5D33-465A-A702-920D77279786}") = "Funcs", "Funcs\Funcs.fsproj", "{` + guidFSharp + `}"`,
		"EndProject",
		"Global",
		"\tGlobalSection(ProjectConfigurationPlatforms) = postSolution",
		"\t\t{" + guidCSharp + "}.Debug|Any CPU.ActiveCfg = Debug|Any CPU",
		"\t\t{" + guidNative + "}.Debug|Any CPU.ActiveCfg = Debug|Any CPU",
		"\t\t{" + guidFSharp + "}.Debug|Any CPU.ActiveCfg = Debug|Any CPU",
		"\tEndGlobalSection",
		"EndGlobal",
		"",
	}, "\n")
}

func writeSolution(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write solution: %v", err)
	}
	return path
}

func TestFilterSolution_NoSolutionIsPassthrough(t *testing.T) {
	root := t.TempDir()
	result, err := FilterSolution(root, FilterOptions{})
	if err != nil {
		t.Fatalf("FilterSolution: %v", err)
	}
	if result.EffectiveRoot != root {
		t.Fatalf("expected passthrough root, got %q", result.EffectiveRoot)
	}
	if result.Rewritten {
		t.Fatal("nothing should be rewritten without a solution")
	}
}

func TestFilterSolution_PureCSharpIsPassthrough(t *testing.T) {
	root := t.TempDir()
	text := strings.Join([]string{
		`Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "App", "App\App.csproj", "{` + guidCSharp + `}"`,
		"EndProject",
		"",
	}, "\n")
	slnPath := writeSolution(t, root, "App.sln", text)

	result, err := FilterSolution(root, FilterOptions{})
	if err != nil {
		t.Fatalf("FilterSolution: %v", err)
	}
	if result.EffectiveRoot != root || result.Rewritten {
		t.Fatalf("expected passthrough with nothing to exclude: %+v", result)
	}
	if result.SolutionPath != slnPath {
		t.Fatalf("expected original solution path, got %q", result.SolutionPath)
	}
}

func TestFilterSolution_ExcludesDeniedProjects(t *testing.T) {
	root := t.TempDir()
	writeSolution(t, root, "Mixed.sln", mixedSolutionText())

	result, err := FilterSolution(root, FilterOptions{})
	if err != nil {
		t.Fatalf("FilterSolution: %v", err)
	}
	defer result.Cleanup()

	if !result.Rewritten {
		t.Fatal("expected a rewritten solution")
	}
	if result.EffectiveRoot == root {
		t.Fatal("effective root must move to the temp copy")
	}
	if len(result.ExcludedGUIDs) != 2 {
		t.Fatalf("expected 2 excluded projects, got %v", result.ExcludedGUIDs)
	}
	if !strings.Contains(filepath.Base(result.SolutionPath), ".filtered") {
		t.Fatalf("rewritten solution must carry the marker: %q", result.SolutionPath)
	}

	raw, err := os.ReadFile(result.SolutionPath)
	if err != nil {
		t.Fatalf("read filtered solution: %v", err)
	}
	filtered := string(raw)

	if strings.Contains(filtered, "vcxproj") || strings.Contains(filtered, "fsproj") {
		t.Fatalf("denied projects still present:\n%s", filtered)
	}
	if strings.Contains(filtered, guidNative) || strings.Contains(filtered, guidFSharp) {
		t.Fatalf("configuration lines for excluded projects still present:\n%s", filtered)
	}
	if !strings.Contains(filtered, guidCSharp) {
		t.Fatalf("retained project lost:\n%s", filtered)
	}

	// The retained relative path must be rewritten to an absolute one so the
	// copy resolves projects from the temp directory.
	wantAbs := filepath.Join(root, "App", "App.csproj")
	if !strings.Contains(filtered, `"`+wantAbs+`"`) {
		t.Fatalf("expected absolute path %q in:\n%s", wantAbs, filtered)
	}
	if strings.Contains(filtered, `"App\App.csproj"`) {
		t.Fatalf("relative path survived the rewrite:\n%s", filtered)
	}

	// Structure stays intact.
	if !strings.Contains(filtered, "GlobalSection(ProjectConfigurationPlatforms)") ||
		!strings.Contains(filtered, "EndGlobalSection") {
		t.Fatalf("section structure damaged:\n%s", filtered)
	}

	tempDir := result.EffectiveRoot
	result.Cleanup()
	if _, err := os.Stat(tempDir); !os.IsNotExist(err) {
		t.Fatalf("Cleanup left temp dir behind: %v", err)
	}
}

func TestFilterSolution_CustomDenylist(t *testing.T) {
	root := t.TempDir()
	writeSolution(t, root, "Mixed.sln", mixedSolutionText())

	// Only F# denied; the C++ project stays.
	result, err := FilterSolution(root, FilterOptions{Denylist: []string{".fsproj"}})
	if err != nil {
		t.Fatalf("FilterSolution: %v", err)
	}
	defer result.Cleanup()

	if len(result.ExcludedGUIDs) != 1 || result.ExcludedGUIDs[0] != guidFSharp {
		t.Fatalf("expected only the F# project excluded, got %v", result.ExcludedGUIDs)
	}
	raw, _ := os.ReadFile(result.SolutionPath)
	if !strings.Contains(string(raw), "vcxproj") {
		t.Fatal("project outside the custom denylist was removed")
	}
}

func TestFindSolution_PrefersUnfilteredCandidate(t *testing.T) {
	root := t.TempDir()
	writeSolution(t, root, "App.filtered.sln", "")
	want := writeSolution(t, root, "App.sln", "")

	got, err := findSolution(root)
	if err != nil {
		t.Fatalf("findSolution: %v", err)
	}
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFindSolution_MultipleSorted(t *testing.T) {
	root := t.TempDir()
	want := writeSolution(t, root, "Alpha.sln", "")
	writeSolution(t, root, "Beta.sln", "")

	got, err := findSolution(root)
	if err != nil {
		t.Fatalf("findSolution: %v", err)
	}
	if got != want {
		t.Fatalf("expected first sorted candidate %q, got %q", want, got)
	}
}

func TestRewriteSolution_SingleLineEndProject(t *testing.T) {
	text := `Project("{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}") = "Native", "Native\Native.vcxproj", "{` + guidNative + `}"EndProject` + "\n" +
		`Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "App", "App\App.csproj", "{` + guidCSharp + `}"` + "\n" +
		"EndProject\n"

	denied := map[string]bool{".vcxproj": true}
	rewritten, excluded := rewriteSolution(text, "/solution", denied)

	if len(excluded) != 1 || excluded[0] != guidNative {
		t.Fatalf("unexpected exclusions: %v", excluded)
	}
	if strings.Contains(rewritten, "Native") {
		t.Fatalf("single-line entry not removed:\n%s", rewritten)
	}
	if !strings.Contains(rewritten, "App") {
		t.Fatalf("retained entry lost:\n%s", rewritten)
	}
}

func TestRewriteSolution_ExcludedEntryWithProjectSection(t *testing.T) {
	text := strings.Join([]string{
		`Project("{8BC9CEB8-8B4A-11D0-8D11-00A0C91BC942}") = "Native", "Native\Native.vcxproj", "{` + guidNative + `}"`,
		"\tProjectSection(ProjectDependencies) = postProject",
		"\t\t{" + guidCSharp + "} = {" + guidCSharp + "}",
		"\tEndProjectSection",
		"EndProject",
		`Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "App", "App\App.csproj", "{` + guidCSharp + `}"`,
		"EndProject",
		"",
	}, "\n")

	denied := map[string]bool{".vcxproj": true}
	rewritten, excluded := rewriteSolution(text, "/solution", denied)

	if len(excluded) != 1 || excluded[0] != guidNative {
		t.Fatalf("unexpected exclusions: %v", excluded)
	}
	if strings.Contains(rewritten, "Native") || strings.Contains(rewritten, "ProjectDependencies") {
		t.Fatalf("excluded entry body not removed:\n%s", rewritten)
	}
	// The excluded entry's closing marker must go with it; one entry
	// remains, so exactly one EndProject remains.
	if got := strings.Count(rewritten, "Project("); got != 1 {
		t.Fatalf("expected 1 project entry, found %d:\n%s", got, rewritten)
	}
	if got := strings.Count(rewritten, "EndProject"); got != 1 {
		t.Fatalf("expected 1 EndProject, found %d:\n%s", got, rewritten)
	}
}
