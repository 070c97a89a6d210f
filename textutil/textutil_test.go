package textutil

import "testing"

func TestFormatPlace(t *testing.T) {
	tests := []struct {
		place int
		want  string
	}{
		{1, "1st"},
		{2, "2nd"},
		{3, "3rd"},
		{4, "4th"},
		{11, "11th"},
		{12, "12th"},
		{13, "13th"},
		{21, "21st"},
		{22, "22nd"},
		{101, "101st"},
		{111, "111th"},
	}
	for _, tt := range tests {
		if got := FormatPlace(tt.place); got != tt.want {
			t.Errorf("FormatPlace(%d): got %q, want %q", tt.place, got, tt.want)
		}
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "$0"},
		{40, "$40"},
		{999, "$999"},
		{1000, "$1,000"},
		{1240, "$1,240"},
		{1234567, "$1,234,567"},
		{-25, "-$25"},
	}
	for _, tt := range tests {
		if got := FormatMoney(tt.amount); got != tt.want {
			t.Errorf("FormatMoney(%d): got %q, want %q", tt.amount, got, tt.want)
		}
	}
}

func TestFormatBasisPoints(t *testing.T) {
	tests := []struct {
		bp   int
		want string
	}{
		{10000, "100%"},
		{6250, "62.5%"},
		{3750, "37.5%"},
		{4750, "47.5%"},
		{2450, "24.5%"},
		{700, "7%"},
		{0, "0%"},
		{1, "0.01%"},
	}
	for _, tt := range tests {
		if got := FormatBasisPoints(tt.bp); got != tt.want {
			t.Errorf("FormatBasisPoints(%d): got %q, want %q", tt.bp, got, tt.want)
		}
	}
}

func TestPercentages(t *testing.T) {
	if got, want := Percentages([]int{6250, 3750}), "62.5% / 37.5%"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := Percentages(nil), "(no places paid)"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got, want := JoinInts([]int{4750, 3000, 2250}, ","), "4750,3000,2250"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
