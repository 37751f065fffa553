package history

import (
	"context"
	"math"
	"testing"
)

func TestNullNaN(t *testing.T) {
	if nullNaN(math.NaN()) != nil {
		t.Fatalf("NaN must map to SQL NULL")
	}
	if v, ok := nullNaN(0.004).(float64); !ok || v != 0.004 {
		t.Fatalf("finite values must pass through, got %v", nullNaN(0.004))
	}
}

func TestNilArchiveIsInert(t *testing.T) {
	var a *Archive
	if err := a.Record(context.Background(), "run", "Tap", nil, nil); err != nil {
		t.Fatalf("nil archive must be a no-op, got %v", err)
	}
	a.Close()
}
