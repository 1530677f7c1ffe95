package tools

import (
	"math"
	"strings"
	"testing"

	"github.com/myleshyson/lsprotocol-go/protocol"

	"sharpbridge/mcp-csharp-bridge/interfaces"
)

func statusReportStopped() interfaces.StatusReport {
	return interfaces.StatusReport{Status: "stopped"}
}

func TestSafeUint32(t *testing.T) {
	if _, err := safeUint32(-1); err == nil {
		t.Fatal("expected error for negative value")
	}
	if _, err := safeUint32(math.MaxUint32 + 1); err == nil {
		t.Fatal("expected error for overflow")
	}
	v, err := safeUint32(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestFormatLocations_Empty(t *testing.T) {
	out := formatLocations("REFERENCES", nil)
	if !strings.Contains(out, "No results found") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestFormatLocations_Truncation(t *testing.T) {
	locations := make([]protocol.Location, 60)
	for i := range locations {
		locations[i] = protocol.Location{Uri: protocol.DocumentUri("file:///a.cs")}
	}
	out := formatLocations("REFERENCES", locations)
	if !strings.Contains(out, "Count: 60") {
		t.Fatalf("expected full count, got: %q", out)
	}
	if !strings.Contains(out, "(Showing first 50 of 60)") {
		t.Fatalf("expected truncation notice, got: %q", out)
	}
}
