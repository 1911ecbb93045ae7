package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestPreprocessPassesThroughUndecodableInput(t *testing.T) {
	raw := []byte("definitely not an image")
	got := Preprocess(raw, DefaultConfig())
	if !bytes.Equal(got, raw) {
		t.Fatalf("expected original bytes back, got %d bytes", len(got))
	}
}

func TestPreprocessBinarizesToBlackAndWhite(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(220)
			if x > 16 && x < 48 && y > 28 && y < 36 {
				v = 40
			}
			src.SetGray(x, y, color.Gray{Y: v})
		}
	}

	cfg := DefaultConfig()
	cfg.Deskew = false
	cfg.Denoise = false
	out := Preprocess(encodePNG(t, src), cfg)

	decoded, _, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode preprocessed image: %v", err)
	}
	gray := toGray(decoded)
	for y := gray.Bounds().Min.Y; y < gray.Bounds().Max.Y; y++ {
		for x := gray.Bounds().Min.X; x < gray.Bounds().Max.X; x++ {
			v := gray.GrayAt(x, y).Y
			if v != 0 && v != 0xff {
				t.Fatalf("pixel (%d,%d) = %d, want pure black or white", x, y, v)
			}
		}
	}
}

func TestBinarizeOtsuSeparatesBimodalImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			if x < 16 {
				src.SetGray(x, y, color.Gray{Y: 30})
			} else {
				src.SetGray(x, y, color.Gray{Y: 200})
			}
		}
	}

	out := binarizeOtsu(src)
	if got := out.GrayAt(2, 2).Y; got != 0 {
		t.Fatalf("dark half = %d, want 0", got)
	}
	if got := out.GrayAt(30, 2).Y; got != 0xff {
		t.Fatalf("light half = %d, want 255", got)
	}
}

func TestMinAreaRectAngleRecoversRotation(t *testing.T) {
	// A long thin rectangle of points rotated by 10 degrees should yield a
	// skew estimate close to -10 under the angle normalization.
	const rot = 10.0
	sin, cos := math.Sincos(rot * math.Pi / 180)

	var points [][2]float64
	for i := 0.0; i <= 200; i += 2 {
		for j := 0.0; j <= 20; j += 2 {
			points = append(points, [2]float64{
				300 + i*cos - j*sin,
				300 + i*sin + j*cos,
			})
		}
	}

	angle := minAreaRectAngle(points)
	var skew float64
	if angle < -45 {
		skew = -(90 + angle)
	} else {
		skew = -angle
	}
	if math.Abs(skew-(-rot)) > 1.5 {
		t.Fatalf("skew = %.2f, want about %.2f", skew, -rot)
	}
}

func TestDeskewSkipsStraightPage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 100, 40))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	for x := 10; x < 90; x++ {
		for y := 18; y < 22; y++ {
			src.SetGray(x, y, color.Gray{Y: 0})
		}
	}

	out := deskew(src)
	if out != src {
		t.Fatalf("expected straight page to be returned unrotated")
	}
}

func TestConvexHullIsCounterClockwiseSquare(t *testing.T) {
	points := [][2]float64{
		{0, 0}, {10, 0}, {10, 10}, {0, 10},
		{5, 5}, {3, 7}, {8, 2},
	}
	hull := convexHull(points)
	if len(hull) != 4 {
		t.Fatalf("hull has %d points, want 4: %v", len(hull), hull)
	}
	for _, p := range hull {
		onEdge := p[0] == 0 || p[0] == 10 || p[1] == 0 || p[1] == 10
		if !onEdge {
			t.Fatalf("interior point %v kept in hull", p)
		}
	}
}

func TestMorphCloseFillsPinholes(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 12, 12))
	for y := 3; y < 9; y++ {
		for x := 3; x < 9; x++ {
			src.SetGray(x, y, color.Gray{Y: 0xff})
		}
	}
	// One-pixel hole inside the white block.
	src.SetGray(5, 5, color.Gray{Y: 0})

	out := morphClose(src)
	if got := out.GrayAt(5, 5).Y; got != 0xff {
		t.Fatalf("pinhole survived closing, pixel = %d", got)
	}
}
