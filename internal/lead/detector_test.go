package lead

import "testing"

func TestShouldCaptureLead(t *testing.T) {
	d := NewDetector()
	tests := []struct {
		message string
		want    bool
	}{
		{"Can I get a quote?", true},
		{"What is your favorite color?", false},
		{"I'd like to SCHEDULE a meeting", true},
		{"how much is pricing for a small project", true},
		{"Please CONTACT me", true},
		{"tell me about your company", false},
		{"", false},
		{"I am interested in your services", true},
		{"can you help me with this", true},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			if got := d.ShouldCaptureLead(tt.message); got != tt.want {
				t.Errorf("ShouldCaptureLead(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestShouldCaptureLead_ExtraTriggers(t *testing.T) {
	d := NewDetector("demo", " Trial ")
	if !d.ShouldCaptureLead("can I see a DEMO?") {
		t.Error("extra trigger not matched")
	}
	if !d.ShouldCaptureLead("is there a trial period") {
		t.Error("trimmed extra trigger not matched")
	}
	if d.ShouldCaptureLead("what color is the sky") {
		t.Error("unexpected match")
	}
}
