// Package gradient derives a stable, theme-aware CSS gradient for each
// artwork card. The same artwork id always yields the same gradient, so
// cards keep their color across reloads without storing anything.
package gradient

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/artwall/core/internal/models"
)

// DefaultTheme is used when no theme is supplied.
const DefaultTheme = "atelier"

// themeColors maps theme -> medium -> base hex color.
var themeColors = map[string]map[models.Medium]string{
	"atelier": {
		models.MediumAudio:     "#0b8783",
		models.MediumDrawing:   "#7c3aed",
		models.MediumSculpture: "#ea580c",
		models.MediumWriting:   "#2563eb",
	},
	"blueprint": {
		models.MediumAudio:     "#1e40af",
		models.MediumDrawing:   "#7c3aed",
		models.MediumSculpture: "#ea580c",
		models.MediumWriting:   "#2563eb",
	},
	"dark": {
		models.MediumAudio:     "#0b8783",
		models.MediumDrawing:   "#7c3aed",
		models.MediumSculpture: "#ea580c",
		models.MediumWriting:   "#2563eb",
	},
	"teal": {
		models.MediumAudio:     "#0f766e",
		models.MediumDrawing:   "#7c3aed",
		models.MediumSculpture: "#ea580c",
		models.MediumWriting:   "#2563eb",
	},
	"nature": {
		models.MediumAudio:     "#16a34a",
		models.MediumDrawing:   "#7c3aed",
		models.MediumSculpture: "#ea580c",
		models.MediumWriting:   "#2563eb",
	},
	"earth": {
		models.MediumAudio:     "#92400e",
		models.MediumDrawing:   "#7c3aed",
		models.MediumSculpture: "#ea580c",
		models.MediumWriting:   "#2563eb",
	},
}

var hueVariations = map[models.Medium]uint64{
	models.MediumWriting:   20,
	models.MediumAudio:     30,
	models.MediumDrawing:   25,
	models.MediumSculpture: 35,
}

var saturationBoosts = map[models.Medium]int{
	models.MediumWriting:   15,
	models.MediumAudio:     20,
	models.MediumDrawing:   18,
	models.MediumSculpture: 22,
}

var solidFallbacks = map[models.Medium]string{
	models.MediumAudio:     "#dc2626",
	models.MediumDrawing:   "#7c3aed",
	models.MediumSculpture: "#ea580c",
	models.MediumWriting:   "#2563eb",
}

// Generate builds a three-stop CSS linear-gradient for an artwork card.
func Generate(artworkID string, medium models.Medium, theme string) string {
	colors, ok := themeColors[theme]
	if !ok {
		colors = themeColors[DefaultTheme]
	}
	base, ok := colors[medium]
	if !ok {
		base = colors[models.MediumDrawing]
	}

	r, g, b := hexToRGB(base)
	themeH, themeS, themeL := rgbToHSL(r, g, b)

	hash := hashString(artworkID)

	hueVariation := hueVariations[medium]
	if hueVariation == 0 {
		hueVariation = 25
	}
	satBoost := saturationBoosts[medium]
	if satBoost == 0 {
		satBoost = 18
	}

	hue1 := (themeH + int(hash%hueVariation)) % 360
	hue2 := (hue1 + 25) % 360
	hue3 := (hue2 + 25) % 360

	sat1 := min(95, themeS+satBoost)
	sat2 := min(98, themeS+satBoost+5)
	sat3 := min(95, themeS+satBoost+3)

	light1 := max(35, min(50, themeL-5))
	light2 := max(40, min(55, themeL))
	light3 := max(45, min(60, themeL+5))

	angle := int(hash%45) + 135

	return fmt.Sprintf(
		"linear-gradient(%ddeg, hsl(%d, %d%%, %d%%) 0%%, hsl(%d, %d%%, %d%%) 50%%, hsl(%d, %d%%, %d%%) 100%%)",
		angle, hue1, sat1, light1, hue2, sat2, light2, hue3, sat3, light3,
	)
}

// SolidFallback returns a flat color for clients without gradient support.
func SolidFallback(medium models.Medium) string {
	if c, ok := solidFallbacks[medium]; ok {
		return c
	}
	return solidFallbacks[models.MediumDrawing]
}

// hashString folds an id to a stable number for hue/angle selection.
func hashString(text string) uint64 {
	sum := md5.Sum([]byte(text))
	return binary.BigEndian.Uint64(sum[:8])
}

func hexToRGB(hex string) (int, int, int) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0, 0, 0
	}
	r, _ := strconv.ParseInt(hex[0:2], 16, 32)
	g, _ := strconv.ParseInt(hex[2:4], 16, 32)
	b, _ := strconv.ParseInt(hex[4:6], 16, 32)
	return int(r), int(g), int(b)
}

func rgbToHSL(r, g, b int) (int, int, int) {
	rn := float64(r) / 255
	gn := float64(g) / 255
	bn := float64(b) / 255

	maxC := max3(rn, gn, bn)
	minC := min3(rn, gn, bn)
	l := (maxC + minC) / 2

	var h, s float64
	if maxC != minC {
		diff := maxC - minC
		if l > 0.5 {
			s = diff / (2 - maxC - minC)
		} else {
			s = diff / (maxC + minC)
		}
		switch maxC {
		case rn:
			h = (gn - bn) / diff
			if gn < bn {
				h += 6
			}
		case gn:
			h = (bn-rn)/diff + 2
		default:
			h = (rn-gn)/diff + 4
		}
		h /= 6
	}

	return int(h * 360), int(s * 100), int(l * 100)
}

func max3(a, b, c float64) float64 {
	if a < b {
		a = b
	}
	if a < c {
		a = c
	}
	return a
}

func min3(a, b, c float64) float64 {
	if a > b {
		a = b
	}
	if a > c {
		a = c
	}
	return a
}
