package render

import (
	"context"
	"errors"
	"testing"
)

func TestConvertPassesSVGThrough(t *testing.T) {
	svg := []byte("<svg/>")
	for _, format := range []string{FormatSVG, ""} {
		out, err := Convert(context.Background(), svg, format, 0)
		if err != nil || string(out) != string(svg) {
			t.Errorf("Convert(%q) = %q, %v", format, out, err)
		}
	}
}

func TestConvertRejectsUnknownFormat(t *testing.T) {
	if _, err := Convert(context.Background(), nil, "gif", 1); err == nil {
		t.Error("Convert(gif) should fail")
	}
}

func TestConvertWithoutConverter(t *testing.T) {
	old := converter
	converter = "flowmodel-no-such-binary"
	t.Cleanup(func() { converter = old })

	for _, format := range []string{FormatPDF, FormatPNG} {
		if _, err := Convert(context.Background(), []byte("<svg/>"), format, 2); !errors.Is(err, ErrNoConverter) {
			t.Errorf("Convert(%s) = %v, want ErrNoConverter", format, err)
		}
	}
}
