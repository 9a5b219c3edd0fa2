package tasks

import (
	"image"
	"image/color"
	"math/rand"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/optbench/taskset/datasets"
	"github.com/optbench/taskset/sampler"
)

// Augmentation configures the per-example image augmentation of a sampled
// image task. All fields are plain data; GetAugmentation compiles them into
// a transform.
type Augmentation struct {
	// CropAmount is how many pixels to crop off each spatial dimension.
	CropAmount    int  `json:"crop_amount"`
	FlipLeftRight bool `json:"flip_left_right"`
	FlipUpDown    bool `json:"flip_up_down"`
	DoColorAug    bool `json:"do_color_aug"`
	// Jitter magnitudes, each symmetric around the identity.
	Brightness float64 `json:"brightness"`
	Saturation float64 `json:"saturation"`
	Hue        float64 `json:"hue"`
	Contrast   float64 `json:"contrast"`
}

// SampleAugmentation draws an augmentation config. No crop is 3x as likely
// as each of the two crop amounts.
func SampleAugmentation(rng *rand.Rand) *Augmentation {
	return &Augmentation{
		CropAmount:    sampler.Pick(rng, 0, 0, 0, 1, 2),
		FlipLeftRight: sampler.Pick(rng, false, true),
		FlipUpDown:    sampler.Pick(rng, false, true),
		DoColorAug:    sampler.Pick(rng, false, true),
		Brightness:    sampler.LogFloat(rng, 0.001, 64.0/255.0),
		Saturation:    sampler.LogFloat(rng, 0.01, 1.0),
		Hue:           sampler.LogFloat(rng, 0.01, 0.5),
		Contrast:      sampler.LogFloat(rng, 0.01, 1.0),
	}
}

// GetAugmentation compiles the config into a per-example transform: random
// crop, random flips, then (for color images only) brightness, saturation,
// hue and contrast jitter, in that order. The transform never mutates its
// input example; it returns a copy with only the image replaced.
func GetAugmentation(cfg *Augmentation) datasets.Transform {
	return func(rng *rand.Rand, ex datasets.Example) datasets.Example {
		img := ex.Image
		if cfg.CropAmount > 0 {
			bounds := img.Bounds()
			ox := rng.Intn(cfg.CropAmount + 1)
			oy := rng.Intn(cfg.CropAmount + 1)
			img = imaging.Crop(img, image.Rect(
				bounds.Min.X+ox,
				bounds.Min.Y+oy,
				bounds.Max.X-(cfg.CropAmount-ox),
				bounds.Max.Y-(cfg.CropAmount-oy)))
		}
		if cfg.FlipLeftRight && rng.Intn(2) == 1 {
			img = imaging.FlipH(img)
		}
		if cfg.FlipUpDown && rng.Intn(2) == 1 {
			img = imaging.FlipV(img)
		}
		if cfg.DoColorAug && !isGrayscale(ex.Image) {
			img = imaging.AdjustBrightness(img, jitter(rng, cfg.Brightness)*100)
			img = imaging.AdjustSaturation(img, jitter(rng, cfg.Saturation)*100)
			img = adjustHue(img, jitter(rng, cfg.Hue)*360)
			img = imaging.AdjustContrast(img, jitter(rng, cfg.Contrast)*100)
		}
		out := ex
		out.Image = img
		return out
	}
}

// jitter draws uniformly from [-magnitude, magnitude].
func jitter(rng *rand.Rand, magnitude float64) float64 {
	return (rng.Float64()*2 - 1) * magnitude
}

// isGrayscale reports whether the image has a single channel, in which case
// the color stage is skipped.
func isGrayscale(img image.Image) bool {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return true
	}
	return false
}

// adjustHue rotates the hue of every pixel by the given number of degrees.
func adjustHue(img image.Image, degrees float64) *image.NRGBA {
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		pixel := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
		h, s, l := pixel.Hsl()
		h += degrees
		for h < 0 {
			h += 360
		}
		for h >= 360 {
			h -= 360
		}
		shifted := colorful.Hsl(h, s, l).Clamped()
		return color.NRGBA{
			R: uint8(shifted.R*255 + 0.5),
			G: uint8(shifted.G*255 + 0.5),
			B: uint8(shifted.B*255 + 0.5),
			A: c.A,
		}
	})
}
