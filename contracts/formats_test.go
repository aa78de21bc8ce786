package contracts

import "testing"

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"jpg", FormatJPG, false},
		{"jpeg", FormatJPG, false},
		{"JPEG", FormatJPG, false},
		{"webp", FormatWebP, false},
		{"pdf", FormatPDF, false},
		{" png ", FormatPNG, false},
		{"tiff", "", true},
		{"", "", true},
		{"exe", "", true},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCapabilityTable(t *testing.T) {
	if !FormatPNG.SupportsAlpha() {
		t.Error("png must keep alpha")
	}
	if !FormatWebP.SupportsAlpha() {
		t.Error("webp must keep alpha")
	}
	if FormatJPG.SupportsAlpha() {
		t.Error("jpg must be opaque")
	}
	if FormatPDF.SupportsAlpha() {
		t.Error("pdf must be opaque")
	}

	if got := FormatJPG.Ext(); got != "jpg" {
		t.Errorf("jpg extension = %q", got)
	}
	if got := FormatWebP.MediaType(); got != "image/webp" {
		t.Errorf("webp media type = %q", got)
	}
	if got := FormatUnknown.MediaType(); got != "application/octet-stream" {
		t.Errorf("unknown media type = %q", got)
	}
}

func TestSourceFormat(t *testing.T) {
	if got := SourceFormat("image/png"); got != FormatPNG {
		t.Errorf("image/png = %q", got)
	}
	if got := SourceFormat("IMAGE/JPEG"); got != FormatJPG {
		t.Errorf("case-insensitive lookup failed: %q", got)
	}
	if got := SourceFormat("image/svg+xml"); got != FormatSVG {
		t.Errorf("image/svg+xml = %q", got)
	}
	if got := SourceFormat("text/plain"); got != FormatUnknown {
		t.Errorf("text/plain = %q", got)
	}
}

// An empty or unrecognized media type yields FormatUnknown directly; the
// filename extension is never consulted. This pins the current behavior.
func TestSourceFormatDoesNotFallBackToExtension(t *testing.T) {
	f := FileInfo{Name: "photo.png", MediaType: ""}
	if got := SourceFormat(f.MediaType); got != FormatUnknown {
		t.Errorf("empty media type = %q, want %q", got, FormatUnknown)
	}
}
