package classify

import (
	"math"
	"testing"

	"trade-audit-lab/internal/domain"
)

func TestClassify_Outcomes(t *testing.T) {
	c := New(0.01)

	tests := []struct {
		name string
		pnl  float64
		want domain.Outcome
	}{
		{"clear win", 50.0, domain.OutcomeWin},
		{"clear loss", -20.0, domain.OutcomeLoss},
		{"exact zero", 0.0, domain.OutcomeBreakeven},
		{"positive inside epsilon", 0.005, domain.OutcomeBreakeven},
		{"negative inside epsilon", -0.009, domain.OutcomeBreakeven},
		{"positive at epsilon boundary", 0.01, domain.OutcomeWin},
		{"negative at epsilon boundary", -0.01, domain.OutcomeLoss},
		{"tiny float noise", 1e-12, domain.OutcomeBreakeven},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Classify(tt.pnl)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.pnl, got, tt.want)
			}
		})
	}
}

func TestClassify_NonFiniteRejected(t *testing.T) {
	c := New(0.01)

	for _, pnl := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := c.Classify(pnl); err == nil {
			t.Errorf("Classify(%v) expected error", pnl)
		}
	}
}

func TestNew_DefaultEpsilon(t *testing.T) {
	if got := New(0).Epsilon(); got != DefaultEpsilon {
		t.Errorf("expected default epsilon %v, got %v", DefaultEpsilon, got)
	}
	if got := New(-1).Epsilon(); got != DefaultEpsilon {
		t.Errorf("expected default epsilon %v, got %v", DefaultEpsilon, got)
	}
}
