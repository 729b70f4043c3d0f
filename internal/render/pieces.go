package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"
	"sync"

	"github.com/park285/chessmatch/internal/rules"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// Piece silhouettes on a 45x45 viewBox. %[1]s is the body fill, %[2]s the outline.
var pieceShapes = map[rules.Kind]string{
	rules.Pawn: `<circle cx="22.5" cy="14" r="5.5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 17 38 L 19 22 L 26 22 L 28 38 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="12" y="36" width="21" height="4" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	rules.Knight: `<path d="M 14 38 L 16 26 L 12 22 L 16 12 L 22 7 L 24 11 L 31 14 L 33 24 L 30 38 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="11" y="36" width="23" height="4" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	rules.Bishop: `<circle cx="22.5" cy="8" r="2.5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<ellipse cx="22.5" cy="20" rx="7" ry="9" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 16 36 L 18 28 L 27 28 L 29 36 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="11" y="35" width="23" height="5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	rules.Rook: `<path d="M 12 9 L 16 9 L 16 12 L 20 12 L 20 9 L 25 9 L 25 12 L 29 12 L 29 9 L 33 9 L 33 16 L 12 16 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="15" y="16" width="15" height="18" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="10" y="34" width="25" height="6" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	rules.Queen: `<path d="M 10 14 L 15 30 L 30 30 L 35 14 L 28 24 L 22.5 10 L 17 24 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<circle cx="10" cy="12" r="2.5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<circle cx="22.5" cy="8" r="2.5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<circle cx="35" cy="12" r="2.5" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="12" y="30" width="21" height="10" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
	rules.King: `<path d="M 21 4 L 24 4 L 24 8 L 28 8 L 28 11 L 24 11 L 24 16 L 21 16 L 21 11 L 17 11 L 17 8 L 21 8 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<path d="M 11 22 L 17 16 L 28 16 L 34 22 L 30 32 L 15 32 Z" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>
<rect x="12" y="32" width="21" height="8" fill="%[1]s" stroke="%[2]s" stroke-width="1.5"/>`,
}

func pieceSVG(p rules.Piece) string {
	fill, stroke := "#f8f8f8", "#000000"
	if p.Color() == rules.Black {
		fill, stroke = "#222222", "#000000"
	}
	var b strings.Builder
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="45" height="45" viewBox="0 0 45 45">`)
	fmt.Fprintf(&b, pieceShapes[p.Kind()], fill, stroke)
	b.WriteString(`</svg>`)
	return b.String()
}

type pieceCacheKey struct {
	code int
	size int
}

var (
	pieceCache   = map[pieceCacheKey]image.Image{}
	pieceCacheMu sync.RWMutex
)

func pieceImage(p rules.Piece, size int) (image.Image, error) {
	key := pieceCacheKey{code: p.Code(), size: size}

	pieceCacheMu.RLock()
	if img, ok := pieceCache[key]; ok {
		pieceCacheMu.RUnlock()
		return img, nil
	}
	pieceCacheMu.RUnlock()

	icon, err := oksvg.ReadIconStream(strings.NewReader(pieceSVG(p)))
	if err != nil {
		return nil, fmt.Errorf("parse %s svg: %w", p, err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	pieceCacheMu.Lock()
	pieceCache[key] = img
	pieceCacheMu.Unlock()
	return img, nil
}
