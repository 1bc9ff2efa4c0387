package fundbook

import "testing"

func TestMoneyDivSafe(t *testing.T) {
	assertMoney(t, "5130/2.5", usd(5130).DivSafe(Q(2.5)), usd(2052))
	// Division by zero quantity yields zero, never an error.
	assertMoney(t, "100/0", usd(100).DivSafe(Q(0)), usd(0))
}

func TestMoneyArithmetic(t *testing.T) {
	m := usd(100).Add(usd(50)).Sub(usd(30))
	assertMoney(t, "100+50-30", m, usd(120))
	assertMoney(t, "12.5*4", M(12.5, "USD").Mul(Q(4)), usd(50))
	assertMoney(t, "neg", usd(5).Neg(), usd(-5))
	if !usd(-5).IsNegative() || usd(0).IsPositive() {
		t.Error("sign predicates")
	}
}

func TestParseMoney(t *testing.T) {
	m, err := ParseMoney("2052.00", "USD")
	if err != nil {
		t.Fatal(err)
	}
	assertMoney(t, "parsed", m, usd(2052))

	if _, err := ParseMoney("not a number", "USD"); err == nil {
		t.Error("garbage accepted")
	}
}

func TestPercentString(t *testing.T) {
	if got := NewPercent(newDecimal(12.345)).String(); got != "12.35%" {
		t.Errorf("String = %q", got)
	}
	if got := NoPercent().String(); got != "—" {
		t.Errorf("no percent = %q", got)
	}
	if got := NewPercent(newDecimal(2.5)).SignedString(); got != "+2.50%" {
		t.Errorf("SignedString = %q", got)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{" xau ": "XAU", "aapl": "AAPL", "  ": "", "BTC": "BTC"}
	for in, want := range cases {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}
