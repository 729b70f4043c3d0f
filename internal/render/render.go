// Package render draws a game position as a PNG for the admin console.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/park285/chessmatch/internal/rules"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const boardSquares = 8

type Options struct {
	Title      string
	Highlight  *rules.Move
	SquareSize int // default 64
}

var (
	lightSquare         = color.RGBA{233, 207, 163, 255}
	darkSquare          = color.RGBA{187, 136, 96, 255}
	backgroundColor     = color.RGBA{28, 31, 46, 255}
	highlightFill       = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	checkFill           = color.NRGBA{R: 230, G: 60, B: 60, A: 150}
	coordinateTextColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
	titleTextColor      = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
)

// PNG renders s with rank 8 at the top.
func PNG(ctx context.Context, s *rules.State, opts Options) ([]byte, error) {
	if s == nil {
		return nil, errors.New("render: nil state")
	}
	sq := opts.SquareSize
	if sq <= 0 {
		sq = 64
	}
	const (
		margin    = 24
		titleBand = 28
	)
	boardSize := sq * boardSquares
	origin := image.Point{X: margin, Y: margin + titleBand}
	img := image.NewRGBA(image.Rect(0, 0, boardSize+margin*2, boardSize+margin*2+titleBand))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	drawSquares(img, sq, origin)
	if opts.Highlight != nil {
		drawOverlay(img, opts.Highlight.From, sq, origin, highlightFill)
		drawOverlay(img, opts.Highlight.To, sq, origin, highlightFill)
	}
	if turn := s.Turn(); s.InCheck(turn) {
		drawOverlay(img, s.KingSquare(turn), sq, origin, checkFill)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if err := drawPieces(img, s, sq, origin); err != nil {
		return nil, err
	}

	drawer := &font.Drawer{Dst: img, Face: basicfont.Face7x13}
	drawCoordinates(drawer, sq, origin, margin)
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = s.Turn().String() + " to move"
	}
	drawer.Src = image.NewUniform(titleTextColor)
	drawer.Dot = fixed.P(margin, margin+titleBand/2)
	drawer.DrawString(title)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders s into path, creating parent directories.
func WriteFile(ctx context.Context, path string, s *rules.State, opts Options) error {
	data, err := PNG(ctx, s, opts)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func squareRect(at rules.Square, size int, origin image.Point) image.Rectangle {
	x := origin.X + at.File*size
	y := origin.Y + at.Rank*size
	return image.Rect(x, y, x+size, y+size)
}

func drawSquares(dst imagedraw.Image, size int, origin image.Point) {
	for r := 0; r < boardSquares; r++ {
		for f := 0; f < boardSquares; f++ {
			clr := lightSquare
			if (r+f)%2 == 1 {
				clr = darkSquare
			}
			imagedraw.Draw(dst, squareRect(rules.Sq(r, f), size, origin), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawOverlay(dst imagedraw.Image, at rules.Square, size int, origin image.Point, clr color.Color) {
	if !at.OnBoard() {
		return
	}
	imagedraw.Draw(dst, squareRect(at, size, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawPieces(dst imagedraw.Image, s *rules.State, size int, origin image.Point) error {
	for r := 0; r < boardSquares; r++ {
		for f := 0; f < boardSquares; f++ {
			p := s.PieceAt(r, f)
			if p.IsEmpty() {
				continue
			}
			sprite, err := pieceImage(p, size)
			if err != nil {
				return err
			}
			imagedraw.Draw(dst, squareRect(rules.Sq(r, f), size, origin), sprite, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawCoordinates(drawer *font.Drawer, size int, origin image.Point, margin int) {
	drawer.Src = image.NewUniform(coordinateTextColor)
	ascent := drawer.Face.Metrics().Ascent.Ceil()
	for i := 0; i < boardSquares; i++ {
		rank := string(rune('8' - i))
		file := string(rune('a' + i))
		drawCentered(drawer, rank, origin.X-margin/2, origin.Y+i*size+size/2+ascent/2)
		drawCentered(drawer, file, origin.X+i*size+size/2, origin.Y+boardSquares*size+ascent+2)
	}
}

func drawCentered(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}
