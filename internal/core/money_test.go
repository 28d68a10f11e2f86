package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"0.005", 1, true},  // rounds up to one cent
		{"0.001", 0, false}, // below cent resolution
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseDecimalSigned(t *testing.T) {
	cases := map[string]int64{
		"-5":     -500,
		"0":      0,
		"+3.1":   310,
		".5":     50,
		"100.00": 10000,
	}
	for in, want := range cases {
		got, err := ParseDecimal(in)
		if err != nil || got != want {
			t.Fatalf("%q expected %d, got %d (err=%v)", in, want, got, err)
		}
	}
	if _, err := ParseDecimal("-"); err == nil {
		t.Fatalf("expected error for bare sign")
	}
}

func TestParseDecimalRange(t *testing.T) {
	if got, err := ParseDecimal("92233720368547758.07"); err != nil || got != 1<<63-1 {
		t.Fatalf("largest amount: got %d (err=%v)", got, err)
	}
	for _, in := range []string{"92233720368547758.08", "92233720368547759", "-92233720368547758.99"} {
		if _, err := ParseDecimal(in); err == nil {
			t.Errorf("%q expected error", in)
		}
	}
	var m Money
	if err := json.Unmarshal([]byte("1e300"), &m); err == nil {
		t.Errorf("1e300 decoded to %d", m.Cents)
	}
}

func TestMoneyCheckedAdd(t *testing.T) {
	const maxCents = 1<<63 - 1
	cases := []struct {
		a, b int64
		want int64
		ok   bool
	}{
		{100, 250, 350, true},
		{maxCents - 1, 1, maxCents, true},
		{maxCents, 1, 0, false},
		{500000, maxCents / 100 * 100, 0, false},
		{-maxCents, -1, -maxCents - 1, true},
		{-maxCents - 1, -1, 0, false},
	}
	for _, tc := range cases {
		got, ok := Money{Cents: tc.a}.CheckedAdd(Money{Cents: tc.b})
		if ok != tc.ok || (ok && got.Cents != tc.want) {
			t.Errorf("CheckedAdd(%d, %d) = %d, %v; want %d, %v", tc.a, tc.b, got.Cents, ok, tc.want, tc.ok)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`4900`), &m); err != nil || m.Cents != 490000 {
		t.Fatalf("unmarshal 4900: cents=%d err=%v", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`12.5`), &m); err != nil || m.Cents != 1250 {
		t.Fatalf("unmarshal 12.5: cents=%d err=%v", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`1e3`), &m); err != nil || m.Cents != 100000 {
		t.Fatalf("unmarshal 1e3: cents=%d err=%v", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`-10`), &m); err != nil || m.Cents != -1000 {
		t.Fatalf("unmarshal -10: cents=%d err=%v", m.Cents, err)
	}
	if err := json.Unmarshal([]byte(`"abc"`), &m); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}

	out, err := json.Marshal(Money{Cents: 210000})
	if err != nil || string(out) != "2100" {
		t.Fatalf("marshal 2100: got %s err=%v", out, err)
	}
	out, _ = json.Marshal(Money{Cents: 1250})
	if string(out) != "12.5" {
		t.Fatalf("marshal 12.5: got %s", out)
	}
}

func TestMoneyString(t *testing.T) {
	if s := (Money{Cents: 490000}).String(); s != "4900.00" {
		t.Fatalf("got %q", s)
	}
	if s := (Money{Cents: -5}).String(); s != "-0.05" {
		t.Fatalf("got %q", s)
	}
}
