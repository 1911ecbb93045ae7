package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"sort"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/inkgraph/backend/pkg/logger"
)

const (
	// Pixels darker than this count as foreground for skew estimation.
	foregroundThreshold = 250
	// Rotations below this angle are skipped; the page is straight enough.
	minSkewDegrees = 0.5
	// Cap on sampled foreground points so deskew stays cheap on large pages.
	maxSkewSamples = 30000
)

// Preprocess normalizes a page image before recognition: grayscale, then the
// optional denoise, deskew, binarize and morphological-close steps in that
// fixed order. Failures are non-fatal: whenever decoding or any step goes
// wrong the original bytes are returned unchanged so OCR still gets a chance
// at the raw image.
func Preprocess(img []byte, cfg Config) []byte {
	decoded, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		logger.Debug("Preprocess skipped, image not decodable", "err", err)
		return img
	}

	gray := toGray(decoded)

	if cfg.Denoise {
		gray = denoise(gray)
	}
	if cfg.Deskew {
		gray = deskew(gray)
	}
	if cfg.Binarize {
		gray = binarizeOtsu(gray)
		if cfg.Morph {
			gray = morphClose(gray)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		logger.Debug("Preprocess encode failed, using original image", "err", err)
		return img
	}
	return buf.Bytes()
}

func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	bounds := src.Bounds()
	gray := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray.Set(x, y, color.GrayModel.Convert(src.At(x, y)))
		}
	}
	return gray
}

// denoise applies a 3x3 range-weighted smoothing kernel. It is a cut-down
// bilateral filter: neighbors close in intensity contribute fully, outliers
// barely at all, which flattens scanner noise without washing out strokes.
func denoise(src *image.Gray) *image.Gray {
	const sigma = 25.0
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	w, h := bounds.Dx(), bounds.Dy()

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			center := float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			var sum, weightSum float64
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					v := float64(src.GrayAt(bounds.Min.X+nx, bounds.Min.Y+ny).Y)
					d := v - center
					weight := math.Exp(-(d * d) / (2 * sigma * sigma))
					sum += v * weight
					weightSum += weight
				}
			}
			dst.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: uint8(sum/weightSum + 0.5)})
		}
	}
	return dst
}

// deskew estimates the rotation of the text block from the minimum-area
// bounding rectangle of foreground pixels and rotates the page upright.
func deskew(src *image.Gray) *image.Gray {
	points := foregroundPoints(src)
	if len(points) < 3 {
		return src
	}

	angle := minAreaRectAngle(points)
	var skew float64
	if angle < -45 {
		skew = -(90 + angle)
	} else {
		skew = -angle
	}
	if math.Abs(skew) < minSkewDegrees {
		return src
	}

	return rotate(src, skew)
}

func foregroundPoints(src *image.Gray) [][2]float64 {
	bounds := src.Bounds()
	total := bounds.Dx() * bounds.Dy()
	stride := 1
	if total > maxSkewSamples {
		stride = int(math.Sqrt(float64(total) / maxSkewSamples))
	}

	var points [][2]float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y += stride {
		for x := bounds.Min.X; x < bounds.Max.X; x += stride {
			if src.GrayAt(x, y).Y < foregroundThreshold {
				points = append(points, [2]float64{float64(x), float64(y)})
			}
		}
	}
	return points
}

// minAreaRectAngle returns the rotation angle, in degrees within [-90, 0),
// of the minimum-area rectangle enclosing the points. The search walks the
// convex hull and tests each hull edge orientation, which is where one side
// of the optimal rectangle must lie.
func minAreaRectAngle(points [][2]float64) float64 {
	hull := convexHull(points)
	if len(hull) < 3 {
		return 0
	}

	bestArea := math.Inf(1)
	bestTheta := 0.0
	for i := 0; i < len(hull); i++ {
		j := (i + 1) % len(hull)
		theta := math.Atan2(hull[j][1]-hull[i][1], hull[j][0]-hull[i][0])
		sin, cos := math.Sincos(-theta)

		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, p := range hull {
			rx := p[0]*cos - p[1]*sin
			ry := p[0]*sin + p[1]*cos
			minX = math.Min(minX, rx)
			minY = math.Min(minY, ry)
			maxX = math.Max(maxX, rx)
			maxY = math.Max(maxY, ry)
		}
		area := (maxX - minX) * (maxY - minY)
		if area < bestArea {
			bestArea = area
			bestTheta = theta
		}
	}

	deg := math.Mod(bestTheta*180/math.Pi, 90)
	if deg >= 0 {
		deg -= 90
	}
	return deg
}

// convexHull computes the hull with Andrew's monotone chain,
// counter-clockwise, without the last point repeated.
func convexHull(points [][2]float64) [][2]float64 {
	if len(points) < 3 {
		return points
	}
	pts := make([][2]float64, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})

	cross := func(o, a, b [2]float64) float64 {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}

	var lower [][2]float64
	for _, p := range pts {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	var upper [][2]float64
	for i := len(pts) - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

// rotate turns the image by deg degrees around its center using Catmull-Rom
// resampling. The destination starts out white so page margins stay paper
// colored instead of black.
func rotate(src *image.Gray, deg float64) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	for i := range dst.Pix {
		dst.Pix[i] = 0xff
	}

	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	cx := float64(bounds.Min.X) + float64(bounds.Dx())/2
	cy := float64(bounds.Min.Y) + float64(bounds.Dy())/2

	m := f64.Aff3{
		cos, -sin, cx - cos*cx + sin*cy,
		sin, cos, cy - sin*cx - cos*cy,
	}
	draw.CatmullRom.Transform(dst, m, src, bounds, draw.Over, nil)
	return dst
}

// binarizeOtsu thresholds the image with Otsu's method: the threshold that
// maximizes between-class variance of the gray histogram.
func binarizeOtsu(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	var hist [256]int
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[src.GrayAt(x, y).Y]++
			total++
		}
	}
	if total == 0 {
		return src
	}

	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}

	var sumB, wB float64
	bestVar := -1.0
	threshold := 0
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > bestVar {
			bestVar = between
			threshold = t
		}
	}

	dst := image.NewGray(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if int(src.GrayAt(x, y).Y) > threshold {
				dst.SetGray(x, y, color.Gray{Y: 0xff})
			} else {
				dst.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return dst
}

// morphClose runs a dilate-then-erode pass with a 2x2 kernel on the binary
// image, closing pinhole gaps inside strokes left by binarization.
func morphClose(src *image.Gray) *image.Gray {
	return erode(dilate(src))
}

func dilate(src *image.Gray) *image.Gray {
	return morphApply(src, func(a, b uint8) uint8 {
		if a > b {
			return a
		}
		return b
	}, 0)
}

func erode(src *image.Gray) *image.Gray {
	return morphApply(src, func(a, b uint8) uint8 {
		if a < b {
			return a
		}
		return b
	}, 0xff)
}

func morphApply(src *image.Gray, pick func(a, b uint8) uint8, seed uint8) *image.Gray {
	bounds := src.Bounds()
	dst := image.NewGray(bounds)
	w, h := bounds.Dx(), bounds.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := seed
			for dy := 0; dy <= 1; dy++ {
				for dx := 0; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx >= w || ny >= h {
						continue
					}
					v = pick(v, src.GrayAt(bounds.Min.X+nx, bounds.Min.Y+ny).Y)
				}
			}
			dst.SetGray(bounds.Min.X+x, bounds.Min.Y+y, color.Gray{Y: v})
		}
	}
	return dst
}
