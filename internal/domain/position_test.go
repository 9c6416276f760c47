package domain

import "testing"

func TestPosition_Direction(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		isLong  bool
		isShort bool
		side    OrderSide
	}{
		{"Long", 0.5, true, false, SideLong},
		{"Short", -0.5, false, true, SideShort},
		{"Flat", 0, false, false, SideLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Position{Amount: tt.amount}
			if got := p.IsLong(); got != tt.isLong {
				t.Errorf("Position.IsLong() = %v, want %v", got, tt.isLong)
			}
			if got := p.IsShort(); got != tt.isShort {
				t.Errorf("Position.IsShort() = %v, want %v", got, tt.isShort)
			}
			if got := p.Side(); got != tt.side {
				t.Errorf("Position.Side() = %v, want %v", got, tt.side)
			}
			if got := p.Size(); got != 0.5 && tt.amount != 0 {
				t.Errorf("Position.Size() = %v, want 0.5", got)
			}
		})
	}
}
