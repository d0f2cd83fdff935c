package fixedpoint

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"45000", 4_500_000_000_000},
		{"0.00000001", 1},
		{"-2.5", -250_000_000},
		{"0", 0},
		// Precision beyond 8 decimals truncates toward zero.
		{"0.000000019", 1},
		{"-0.000000019", -1},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("parse %q = %d, want %d", tc.in, got, tc.want)
		}
	}
	if _, err := Parse("not a number"); err == nil {
		t.Fatalf("garbage accepted")
	}
	if _, err := Parse("99999999999999999999"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("overflow: %v", err)
	}
}

func TestFormatRoundtrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 4_500_000_000_000, -123_456_789} {
		got, err := Parse(Format(v))
		if err != nil {
			t.Fatalf("reparse %d: %v", v, err)
		}
		if got != v {
			t.Fatalf("roundtrip %d = %d", v, got)
		}
	}
	if s := Format(4_500_000_000_000); s != "45000" {
		t.Fatalf("format = %q", s)
	}
}

func TestFromInt(t *testing.T) {
	if FromInt(10) != 1_000_000_000 {
		t.Fatalf("FromInt(10) = %d", FromInt(10))
	}
}

func TestMul(t *testing.T) {
	// 45000 * 10 = 450000, exactly.
	got, err := Mul(4_500_000_000_000, 1_000_000_000)
	if err != nil {
		t.Fatalf("mul: %v", err)
	}
	if got != 45_000_000_000_000 {
		t.Fatalf("mul = %d", got)
	}
	// No float64 drift: 0.1 * 0.1 = 0.01 exactly.
	a, _ := Parse("0.1")
	got, err = Mul(a, a)
	if err != nil {
		t.Fatalf("mul small: %v", err)
	}
	if got != 1_000_000 {
		t.Fatalf("0.1*0.1 = %d", got)
	}
}

func TestDecimalConversions(t *testing.T) {
	d := decimal.RequireFromString("123.45678901")
	v, err := FromDecimal(d)
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	if !ToDecimal(v).Equal(d) {
		t.Fatalf("roundtrip = %s", ToDecimal(v))
	}
}
