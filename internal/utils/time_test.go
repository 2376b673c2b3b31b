package utils

import "testing"

func TestSplitDateRange(t *testing.T) {
	got, err := SplitDateRange("01/05/2024 - 02/10/2024")
	if err != nil {
		t.Fatalf("SplitDateRange error: %v", err)
	}
	if got[0] != "2024-01-05" || got[1] != "2024-02-10" {
		t.Fatalf("SplitDateRange = %v", got)
	}

	if _, err := SplitDateRange("2024-01-05"); err == nil {
		t.Fatalf("expected error for malformed range")
	}
}
