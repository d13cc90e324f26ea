package models

import (
	"testing"
	"time"
)

func TestValidStatus(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{StatusPending, true},
		{StatusSuccess, true},
		{StatusFail, true},
		{"paid", false},
		{"", false},
		{"Pending", false},
		{"pending ", false},
	}

	for _, tc := range cases {
		if got := ValidStatus(tc.status); got != tc.want {
			t.Errorf("ValidStatus(%q) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestConsultSummary(t *testing.T) {
	created := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	c := Consult{
		ID:            7,
		Name:          "Kim",
		Phone:         "010-0000-0000",
		Goals:         []string{"CertA", "CertB"},
		Education:     "HS",
		ContactMethod: "phone",
		Status:        StatusPending,
		CreatedAt:     created,
	}

	s := c.Summary()
	if s.ID != 7 || s.Name != "Kim" || s.Education != "HS" || s.ContactMethod != "phone" {
		t.Errorf("Summary dropped fields: %+v", s)
	}
	if len(s.Goals) != 2 {
		t.Errorf("Summary goals = %v, want 2 entries", s.Goals)
	}
	if !s.CreatedAt.Equal(created) {
		t.Errorf("Summary created_at = %v, want %v", s.CreatedAt, created)
	}
}
