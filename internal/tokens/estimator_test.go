package tokens

import "testing"

func TestCountFallback(t *testing.T) {
	e := &Estimator{} // no encoding, chars/4 heuristic
	if got := e.Count("12345678"); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}
	if got := e.Count(""); got != 0 {
		t.Errorf("Count(empty) = %d, want 0", got)
	}
}

func TestCapMaxTokens(t *testing.T) {
	tests := []struct {
		name                     string
		requested, window, input int
		want                     int
	}{
		{"fits", 8192, 200000, 1000, 8192},
		{"no window passes through", 8192, 0, 1000, 8192},
	}
	for _, tt := range tests {
		if got := CapMaxTokens(tt.requested, tt.window, tt.input); got != tt.want {
			t.Errorf("%s: CapMaxTokens = %d, want %d", tt.name, got, tt.want)
		}
	}

	// Input near the window caps output below the request but keeps a floor.
	got := CapMaxTokens(8192, 10000, 9000)
	if got >= 8192 {
		t.Errorf("CapMaxTokens near-full window = %d, want < 8192", got)
	}
	if got < 100 {
		t.Errorf("CapMaxTokens floor = %d, want >= 100", got)
	}
}
