package chart

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Font sizes of panel text.
const (
	titleFontSize = 14.0
	tickFontSize  = 8.0
)

type fontSet struct {
	regular *truetype.Font
	bold    *truetype.Font
}

// loadFonts parses the embedded Go fonts once.
var loadFonts = sync.OnceValues(func() (fontSet, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return fontSet{}, fmt.Errorf("chart: regular font: %w", err)
	}
	bold, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return fontSet{}, fmt.Errorf("chart: bold font: %w", err)
	}
	return fontSet{regular: regular, bold: bold}, nil
})
