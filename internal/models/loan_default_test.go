package models

import "testing"

func TestAgingBucket(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		expected string
	}{
		{name: "first day overdue", days: 1, expected: "1-30"},
		{name: "bucket boundary 30", days: 30, expected: "1-30"},
		{name: "bucket boundary 31", days: 31, expected: "31-60"},
		{name: "bucket boundary 60", days: 60, expected: "31-60"},
		{name: "bucket boundary 61", days: 61, expected: "61-90"},
		{name: "bucket boundary 90", days: 90, expected: "61-90"},
		{name: "long overdue", days: 91, expected: "90+"},
		{name: "very long overdue", days: 400, expected: "90+"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := LoanDefault{DaysOverdue: tt.days}
			if got := record.AgingBucket(); got != tt.expected {
				t.Errorf("AgingBucket() with %d days = %q; want %q", tt.days, got, tt.expected)
			}
		})
	}
}

func TestLoanDefaultIsActive(t *testing.T) {
	tests := []struct {
		status   LoanDefaultStatus
		expected bool
	}{
		{LoanDefaultOverdue, true},
		{LoanDefaultInCollection, true},
		{LoanDefaultResolved, false},
		{LoanDefaultWrittenOff, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			record := LoanDefault{Status: tt.status}
			if got := record.IsActive(); got != tt.expected {
				t.Errorf("IsActive() with status %s = %v; want %v", tt.status, got, tt.expected)
			}
		})
	}
}
