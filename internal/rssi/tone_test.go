package rssi

import "testing"

func TestToneFor(t *testing.T) {
	tests := []struct {
		reading int
		want    int
	}{
		{-40, 3000},
		{-45, 2794},
		{-50, 2589},
		{-55, 2383},
		{-60, 2178},
		{-65, 1973},
		{-70, 1767},
		{-75, 1562},
		{-80, 1357},
		{-85, 1151},
		{-90, 946},
		{-95, 741},
		{-100, 535},
		{-105, 330},
		{-110, 125},
	}

	for _, tt := range tests {
		if got := ToneFor(tt.reading); got != tt.want {
			t.Errorf("ToneFor(%d) = %d, want %d", tt.reading, got, tt.want)
		}
	}
}

func TestToneForMatchesFormula(t *testing.T) {
	for _, r := range TestSequence {
		want := 125 + (r+110)*2875/70
		if got := ToneFor(r); got != want {
			t.Errorf("ToneFor(%d) = %d, want %d", r, got, want)
		}
	}
}

func TestToneForOutOfDomainExtrapolates(t *testing.T) {
	// No clamping: the line keeps going past both ends.
	if got, want := ToneFor(-30), 3410; got != want {
		t.Errorf("ToneFor(-30) = %d, want %d", got, want)
	}
	// (-10)*2875/70 truncates toward zero to -410.
	if got, want := ToneFor(-120), -285; got != want {
		t.Errorf("ToneFor(-120) = %d, want %d", got, want)
	}
}

func TestMap(t *testing.T) {
	tests := []struct {
		name                             string
		x, inMin, inMax, outMin, outMax int
		want                             int
	}{
		{"low end", 0, 0, 10, 100, 200, 100},
		{"high end", 10, 0, 10, 100, 200, 200},
		{"midpoint", 5, 0, 10, 100, 200, 150},
		{"truncates", 1, 0, 3, 0, 10, 3},
		{"inverted range", 2, 0, 10, 100, 0, 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Map(tt.x, tt.inMin, tt.inMax, tt.outMin, tt.outMax); got != tt.want {
				t.Errorf("Map(%d, %d, %d, %d, %d) = %d, want %d", tt.x, tt.inMin, tt.inMax, tt.outMin, tt.outMax, got, tt.want)
			}
		})
	}
}

func TestNewReading(t *testing.T) {
	r := NewReading(-75)
	if r.RSSI != -75 || r.ToneHz != 1562 {
		t.Errorf("NewReading(-75) = %+v, want {RSSI:-75 ToneHz:1562}", r)
	}
}
