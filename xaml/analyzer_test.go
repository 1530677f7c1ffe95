package xaml

import (
	"os"
	"path/filepath"
	"testing"
)

func findingsByCode(findings []Finding, code string) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Code == code {
			out = append(out, f)
		}
	}
	return out
}

func TestAnalyze_CleanDocument(t *testing.T) {
	source := `<Window xmlns="http://schemas.microsoft.com/winfx/2006/xaml/presentation"
        xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml">
    <Window.Resources>
        <SolidColorBrush x:Key="AccentBrush" Color="Blue"/>
    </Window.Resources>
    <StackPanel>
        <Button x:Name="okButton" Background="{StaticResource AccentBrush}" Content="OK"/>
        <TextBlock Text="{Binding Title}"/>
    </StackPanel>
</Window>`

	findings := Analyze(source)
	for _, f := range findings {
		if f.Severity == SeverityError || f.Severity == SeverityWarning {
			t.Fatalf("unexpected finding in clean document: %+v", f)
		}
	}
}

func TestAnalyze_DuplicateXName(t *testing.T) {
	source := `<Window xmlns="http://schemas.microsoft.com/winfx/2006/xaml/presentation"
        xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml">
    <StackPanel>
        <Button x:Name="submit"/>
        <Button x:Name="submit"/>
    </StackPanel>
</Window>`

	dupes := findingsByCode(Analyze(source), "XAML002")
	if len(dupes) != 1 {
		t.Fatalf("expected exactly one duplicate finding, got %v", dupes)
	}
	if dupes[0].Severity != SeverityError {
		t.Fatalf("duplicate x:Name must be an error: %+v", dupes[0])
	}
}

func TestAnalyze_MalformedMarkup(t *testing.T) {
	source := `<Window xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml">
    <StackPanel>
        <Button Content="unclosed"
</Window>`

	errors := findingsByCode(Analyze(source), "XAML001")
	if len(errors) == 0 {
		t.Fatal("expected a malformed-markup finding")
	}
	if errors[0].Line == 0 {
		t.Fatalf("finding must carry a position: %+v", errors[0])
	}
}

func TestAnalyze_EmptyBinding(t *testing.T) {
	source := `<Window xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml">
    <TextBlock Text="{Binding}"/>
    <TextBlock Text="{Binding Path=Name}"/>
</Window>`

	warnings := findingsByCode(Analyze(source), "XAML020")
	if len(warnings) != 1 {
		t.Fatalf("expected one empty-binding warning, got %v", warnings)
	}
}

func TestAnalyze_BindingWithOnlyOptions(t *testing.T) {
	source := `<Window xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml">
    <TextBlock Text="{Binding, Mode=TwoWay}"/>
</Window>`

	if got := findingsByCode(Analyze(source), "XAML021"); len(got) != 1 {
		t.Fatalf("expected a pathless-binding warning, got %v", got)
	}
}

func TestAnalyze_UnresolvedStaticResource(t *testing.T) {
	source := `<Window xmlns="http://schemas.microsoft.com/winfx/2006/xaml/presentation"
        xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml">
    <Window.Resources>
        <SolidColorBrush x:Key="Defined" Color="Red"/>
    </Window.Resources>
    <Button Background="{StaticResource Defined}"/>
    <Button Background="{StaticResource Missing}"/>
    <Button Foreground="{DynamicResource Missing}"/>
</Window>`

	missing := findingsByCode(Analyze(source), "XAML030")
	if len(missing) != 1 {
		t.Fatalf("expected one deduplicated unresolved-resource warning, got %v", missing)
	}
	if missing[0].Severity != SeverityWarning {
		t.Fatalf("cross-dictionary references must stay warnings: %+v", missing[0])
	}
}

func TestAnalyze_EventHandlerInfo(t *testing.T) {
	source := `<Window xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml">
    <Button Click="OnOkClicked"/>
</Window>`

	infos := findingsByCode(Analyze(source), "XAML010")
	if len(infos) != 1 || infos[0].Severity != SeverityInfo {
		t.Fatalf("expected one handler info finding, got %v", infos)
	}
}

func TestAnalyzeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "View.xaml")
	content := `<Window xmlns:x="http://schemas.microsoft.com/winfx/2006/xaml">
    <TextBlock Text="{Binding}"/>
</Window>`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	findings, err := AnalyzeFile(path)
	if err != nil {
		t.Fatalf("AnalyzeFile: %v", err)
	}
	if len(findingsByCode(findings, "XAML020")) != 1 {
		t.Fatalf("unexpected findings: %v", findings)
	}

	if _, err := AnalyzeFile(filepath.Join(dir, "absent.xaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
