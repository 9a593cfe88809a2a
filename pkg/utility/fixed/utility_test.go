package fixed

import (
	"testing"
)

func TestFixedUtility_Mean(t *testing.T) {
	if got := Mean(nil); !got.IsZero() {
		t.Errorf("Mean(nil) = %s; want 0", got.String())
	}

	points := []Point{New(1, 0), New(2, 0), New(3, 0)}
	if got := Mean(points); !got.Eq(New(2, 0)) {
		t.Errorf("Mean = %s; want 2", got.String())
	}
}

func TestFixedUtility_StdDev(t *testing.T) {
	points := []Point{New(2, 0), New(4, 0), New(4, 0), New(4, 0), New(5, 0), New(5, 0), New(7, 0), New(9, 0)}
	mean := Mean(points)
	got := StdDev(points, mean)
	if !got.Eq(New(2, 0)) {
		t.Errorf("StdDev = %s; want 2", got.String())
	}

	if got := StdDev([]Point{New(1, 0)}, New(1, 0)); !got.IsZero() {
		t.Errorf("StdDev of single point = %s; want 0", got.String())
	}
}

func TestFixedUtility_DownsideDev(t *testing.T) {
	// Only returns below the risk free rate contribute.
	points := []Point{New(5, 0), New(-1, 0), New(-1, 0), New(3, 0)}
	got := DownsideDev(points, Zero)
	if !got.Eq(New(1, 0)) {
		t.Errorf("DownsideDev = %s; want 1", got.String())
	}

	allPositive := []Point{New(1, 0), New(2, 0)}
	if got := DownsideDev(allPositive, Zero); !got.IsZero() {
		t.Errorf("DownsideDev with no downside = %s; want 0", got.String())
	}
}

func TestFixedUtility_SharpeRatio(t *testing.T) {
	flat := []Point{New(1, 0), New(1, 0), New(1, 0)}
	if got := SharpeRatio(flat, Zero); !got.IsZero() {
		t.Errorf("SharpeRatio with zero volatility = %s; want 0", got.String())
	}

	points := []Point{New(1, 0), New(3, 0)}
	got := SharpeRatio(points, Zero)
	if !got.Eq(New(2, 0)) {
		t.Errorf("SharpeRatio = %s; want 2", got.String())
	}
}

func TestFixedUtility_MaxDrawdown(t *testing.T) {
	tests := []struct {
		name  string
		curve []Point
		want  Point
	}{
		{"empty", nil, Zero},
		{"monotonic rise", []Point{New(1, 0), New(2, 0), New(3, 0)}, Zero},
		{"half loss", []Point{New(100, 0), New(50, 0), New(120, 0)}, New(5, 1)},
		{"later deeper trough", []Point{New(100, 0), New(90, 0), New(110, 0), New(44, 0)}, New(6, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MaxDrawdown(tt.curve)
			if !got.Eq(tt.want) {
				t.Errorf("MaxDrawdown = %s; want %s", got.String(), tt.want.String())
			}
		})
	}
}
