package imaging

import "testing"

func TestDarkenGradient(t *testing.T) {
	r := NewRaster(40, 40, 3)
	r.Fill(0, 0, 40, 40, 200, 200, 200)

	out, err := DarkenGradient(r, 10, 40)
	if err != nil {
		t.Fatalf("DarkenGradient failed: %v", err)
	}

	tests := []struct {
		name string
		x, y int
		want uint8
	}{
		{"top-left band untouched", 3, 3, 200},
		{"second column band", 15, 3, 190},
		{"second row band", 3, 15, 190},
		{"bottom-right band", 35, 35, 140},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, _ := out.RGB(tt.x, tt.y)
			if got != tt.want {
				t.Errorf("pixel (%d,%d): got %d, want %d", tt.x, tt.y, got, tt.want)
			}
		})
	}

	if r.Pix[len(r.Pix)-1] != 200 {
		t.Error("DarkenGradient modified its input")
	}
}

func TestDarkenGradient_ClipsAtZero(t *testing.T) {
	r := NewRaster(20, 20, 3)
	r.Fill(0, 0, 20, 20, 10, 10, 10)

	out, err := DarkenGradient(r, 5, 200)
	if err != nil {
		t.Fatalf("DarkenGradient failed: %v", err)
	}
	if v, _, _ := out.RGB(19, 19); v != 0 {
		t.Errorf("dark corner: got %d, want 0", v)
	}
}

func TestDarkenGradient_InvalidArgs(t *testing.T) {
	r := NewRaster(4, 4, 3)
	if _, err := DarkenGradient(r, 0, 10); err == nil {
		t.Error("zero step should fail")
	}
	if _, err := DarkenGradient(r, 2, -1); err == nil {
		t.Error("negative intensity should fail")
	}
}
