package domain

import (
	"errors"
	"testing"
)

func TestParseShares(t *testing.T) {
	valid := map[string]int64{
		"1":   1,
		"10":  10,
		"200": 200,
		"007": 7,
	}
	for raw, want := range valid {
		got, err := ParseShares(raw)
		if err != nil {
			t.Errorf("ParseShares(%q) unexpected error: %v", raw, err)
			continue
		}
		if got != want {
			t.Errorf("ParseShares(%q) = %d, want %d", raw, got, want)
		}
	}

	invalid := []string{"", "0", "000", "-3", "+3", "1.5", "1e3", "abc", " 5", "5 ", "99999999999999999999"}
	for _, raw := range invalid {
		if _, err := ParseShares(raw); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("ParseShares(%q) error = %v, want ErrInvalidOrder", raw, err)
		}
	}
}

func TestParseSide(t *testing.T) {
	t.Run("case insensitive", func(t *testing.T) {
		for _, s := range []string{"buy", "BUY", " Buy "} {
			side, err := ParseSide(s)
			if err != nil || side != SideBuy {
				t.Errorf("ParseSide(%q) = %q, %v", s, side, err)
			}
		}
		if side, _ := ParseSide("sell"); side != SideSell {
			t.Errorf("Expected SELL, got %q", side)
		}
	})

	t.Run("unknown side", func(t *testing.T) {
		if _, err := ParseSide("hold"); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("Expected ErrInvalidOrder, got %v", err)
		}
	})
}

func TestParseOrder(t *testing.T) {
	t.Run("normalizes symbol", func(t *testing.T) {
		o, err := ParseOrder(" aapl ", "10", "buy")
		if err != nil {
			t.Fatalf("ParseOrder failed: %v", err)
		}
		if o.Symbol != "AAPL" || o.Shares != 10 || o.Side != SideBuy {
			t.Errorf("Unexpected order: %+v", o)
		}
	})

	t.Run("blank symbol", func(t *testing.T) {
		if _, err := ParseOrder("  ", "10", "sell"); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("Expected ErrInvalidOrder, got %v", err)
		}
	})

	t.Run("bad shares", func(t *testing.T) {
		if _, err := ParseOrder("MSFT", "2.5", "sell"); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("Expected ErrInvalidOrder, got %v", err)
		}
	})
}

func TestOrder_Validate(t *testing.T) {
	cases := []Order{
		{Symbol: "", Shares: 1, Side: SideBuy},
		{Symbol: "AAPL", Shares: 0, Side: SideBuy},
		{Symbol: "AAPL", Shares: -5, Side: SideSell},
		{Symbol: "AAPL", Shares: 1, Side: "HOLD"},
	}
	for _, o := range cases {
		if err := o.Validate(); !errors.Is(err, ErrInvalidOrder) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidOrder", o, err)
		}
	}

	ok := Order{Symbol: "AAPL", Shares: 1, Side: SideBuy}
	if err := ok.Validate(); err != nil {
		t.Errorf("Validate(%+v) unexpected error: %v", ok, err)
	}
}
