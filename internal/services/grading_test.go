package services

import (
	"testing"

	"github.com/yungbote/sheetgrader-backend/internal/types"
)

func TestParseMark(t *testing.T) {
	cases := []struct {
		name     string
		mark     string
		received float64
		total    float64
		wantErr  bool
	}{
		{name: "full marks", mark: "3/3", received: 3, total: 3},
		{name: "partial", mark: "2/3", received: 2, total: 3},
		{name: "zero received", mark: "0/5", received: 0, total: 5},
		{name: "fractional", mark: "1.5/2", received: 1.5, total: 2},
		{name: "whitespace", mark: " 2 / 3 ", received: 2, total: 3},
		{name: "no slash", mark: "23", wantErr: true},
		{name: "empty", mark: "", wantErr: true},
		{name: "non numeric", mark: "a/b", wantErr: true},
		{name: "zero total", mark: "0/0", wantErr: true},
		{name: "negative received", mark: "-1/3", wantErr: true},
		{name: "received over total", mark: "4/3", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			received, total, err := ParseMark(tc.mark)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseMark(%q) = %v/%v, want error", tc.mark, received, total)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMark(%q): %v", tc.mark, err)
			}
			if received != tc.received || total != tc.total {
				t.Fatalf("ParseMark(%q) = %v/%v, want %v/%v", tc.mark, received, total, tc.received, tc.total)
			}
		})
	}
}

func TestComputeAggregate(t *testing.T) {
	items := []types.FeedbackItem{
		{Question: 1, Received: 2, Total: 3},
		{Question: 2, Received: 1, Total: 3},
		{Question: 3, Received: 3, Total: 3},
	}
	total, max, pct := ComputeAggregate(items)
	if total != 6 || max != 9 {
		t.Fatalf("aggregate = %v/%v, want 6/9", total, max)
	}
	if pct != 66.67 {
		t.Fatalf("percentage = %v, want 66.67", pct)
	}
}

func TestComputeAggregateEmpty(t *testing.T) {
	total, max, pct := ComputeAggregate(nil)
	if total != 0 || max != 0 || pct != 0 {
		t.Fatalf("aggregate of no items = %v/%v (%v%%), want zeros", total, max, pct)
	}
}

func TestRoundPercent(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{in: 66.666666, want: 66.67},
		{in: 88.888888, want: 88.89},
		{in: 100, want: 100},
		{in: 33.333333, want: 33.33},
	}
	for _, tc := range cases {
		if got := RoundPercent(tc.in); got != tc.want {
			t.Fatalf("RoundPercent(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeFeedback(t *testing.T) {
	results := []GradedItem{
		{Question: 1, Mark: "2/3", Reason: "minor slip", HasDiagram: false},
		{Question: 2, Mark: "0/2", Reason: "blank", HasDiagram: true},
	}
	feedback, err := NormalizeFeedback(results)
	if err != nil {
		t.Fatalf("NormalizeFeedback: %v", err)
	}
	if len(feedback) != 2 {
		t.Fatalf("got %d items, want 2", len(feedback))
	}
	if feedback[0].Received != 2 || feedback[0].Total != 3 || feedback[0].Reason != "minor slip" {
		t.Fatalf("unexpected first item: %+v", feedback[0])
	}
	if !feedback[1].HasDiagram {
		t.Fatalf("diagram flag lost: %+v", feedback[1])
	}
}

func TestNormalizeFeedbackRejectsMalformedMark(t *testing.T) {
	_, err := NormalizeFeedback([]GradedItem{{Question: 4, Mark: "five/3"}})
	if err == nil {
		t.Fatal("want error for malformed mark")
	}
}
