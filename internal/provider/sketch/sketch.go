// Package sketch is an offline content provider. It lays out simple coloured
// shapes on a canvas, labels the picture with the theme, and derives the
// modified image by recolouring, removing or marking some of the shapes.
// Output is deterministic for a given theme and difficulty.
package sketch

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/fpang/spot-the-difference/internal/game"
	"github.com/fpang/spot-the-difference/internal/provider"
)

// CanvasSize is the edge length of generated images in pixels.
const CanvasSize = 512

const promptPrefix = "sketch:"

// Provider draws puzzles without calling any external service.
type Provider struct {
	// Delay is waited before every step so hosts can observe the
	// generating states.
	Delay time.Duration
}

// New returns a Provider that waits delay before each step.
func New(delay time.Duration) *Provider {
	return &Provider{Delay: delay}
}

type shapeKind int

const (
	circle shapeKind = iota
	square
)

type changeKind int

const (
	recolor changeKind = iota
	remove
	mark
)

type shape struct {
	kind   shapeKind
	cx, cy int
	r      int
	fill   color.RGBA
}

type change struct {
	index int
	kind  changeKind
	fill  color.RGBA
}

type scene struct {
	background color.RGBA
	label      string
	shapes     []shape
	changes    []change
}

var markColor = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

var palette = []color.RGBA{
	{R: 0xe6, G: 0x39, B: 0x46, A: 0xff},
	{R: 0xf4, G: 0xa2, B: 0x61, A: 0xff},
	{R: 0xe9, G: 0xc4, B: 0x6a, A: 0xff},
	{R: 0x2a, G: 0x9d, B: 0x8f, A: 0xff},
	{R: 0x26, G: 0x46, B: 0x53, A: 0xff},
	{R: 0x8e, G: 0x44, B: 0xad, A: 0xff},
	{R: 0x3a, G: 0x86, B: 0xff, A: 0xff},
	{R: 0x6a, G: 0x99, B: 0x4e, A: 0xff},
}

// GenerateLevelMetadata builds a level whose prompts encode the scene so the
// image steps can redraw it.
func (p *Provider) GenerateLevelMetadata(ctx context.Context, theme string, d game.Difficulty) (*game.Level, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	cfg := game.ConfigFor(d)
	seed := seedFor(theme, d)
	sc := buildScene(seed, cfg.Count, theme)

	level := &game.Level{
		Theme:              theme,
		BasePrompt:         fmt.Sprintf("%s%d:%d %s", promptPrefix, seed, cfg.Count, theme),
		ModificationPrompt: fmt.Sprintf("%s%d:%d %s\n%s", promptPrefix, seed, cfg.Count, theme, cfg.Guidance),
	}
	for i, ch := range sc.changes {
		sh := sc.shapes[ch.index]
		level.Differences = append(level.Differences, game.Difference{
			ID:          fmt.Sprint(i + 1),
			Description: describe(sh.kind, ch.kind),
			X:           percent(sh.cx),
			Y:           percent(sh.cy),
		})
	}
	return level, nil
}

// GenerateBaseImage draws the scene named by prompt.
func (p *Provider) GenerateBaseImage(ctx context.Context, prompt string) (*game.Image, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	sc, err := parseScene(prompt)
	if err != nil {
		return nil, err
	}
	return encode(sc.render(false))
}

// GenerateModifiedImage draws the scene named by instructions with its
// changes applied. The base image is only checked for presence.
func (p *Provider) GenerateModifiedImage(ctx context.Context, base *game.Image, instructions string) (*game.Image, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	if base == nil || len(base.Data) == 0 {
		return nil, provider.Malformed("modified image: no base image", nil)
	}
	sc, err := parseScene(instructions)
	if err != nil {
		return nil, err
	}
	return encode(sc.render(true))
}

func (p *Provider) wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.Delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func seedFor(theme string, d game.Difficulty) uint64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(theme))))
	h.Write([]byte{byte(d)})
	return h.Sum64()
}

func parseScene(prompt string) (scene, error) {
	var seed uint64
	var count int
	if _, err := fmt.Sscanf(prompt, promptPrefix+"%d:%d", &seed, &count); err != nil {
		return scene{}, provider.Malformed("prompt was not produced by the sketch provider", err)
	}
	// The first line is "sketch:<seed>:<count> <theme>".
	header, _, _ := strings.Cut(prompt, "\n")
	_, theme, _ := strings.Cut(header, " ")
	return buildScene(seed, count, theme), nil
}

// buildScene lays out non-overlapping shapes and picks count of them to change.
func buildScene(seed uint64, count int, theme string) scene {
	rng := rand.New(rand.NewPCG(seed, seed>>7|1))
	sc := scene{
		background: color.RGBA{R: 0xf8, G: 0xf4, B: 0xe8, A: 0xff},
		label:      asciiLabel(theme, seed),
	}

	want := count + 4 + rng.IntN(4)
	for attempts := 0; len(sc.shapes) < want && attempts < 2000; attempts++ {
		s := shape{
			kind: shapeKind(rng.IntN(2)),
			r:    14 + rng.IntN(12),
			fill: palette[rng.IntN(len(palette))],
		}
		s.cx = 48 + rng.IntN(CanvasSize-96)
		s.cy = 64 + rng.IntN(CanvasSize-112)
		if overlaps(s, sc.shapes) {
			continue
		}
		sc.shapes = append(sc.shapes, s)
	}

	for _, idx := range rng.Perm(len(sc.shapes))[:min(count, len(sc.shapes))] {
		ch := change{index: idx, kind: changeKind(rng.IntN(3))}
		if ch.kind == recolor {
			ch.fill = otherColor(rng, sc.shapes[idx].fill)
		}
		sc.changes = append(sc.changes, ch)
	}
	return sc
}

func overlaps(s shape, placed []shape) bool {
	for _, o := range placed {
		// Squares are inscribed in a circle of radius r*sqrt2.
		gap := float64(s.r+o.r)*math.Sqrt2 + 8
		if math.Hypot(float64(s.cx-o.cx), float64(s.cy-o.cy)) < gap {
			return true
		}
	}
	return false
}

func otherColor(rng *rand.Rand, current color.RGBA) color.RGBA {
	for {
		c := palette[rng.IntN(len(palette))]
		if c != current {
			return c
		}
	}
}

func (sc scene) render(modified bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, CanvasSize, CanvasSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(sc.background), image.Point{}, draw.Src)

	shapes := append([]shape(nil), sc.shapes...)
	skip := make(map[int]bool)
	var marks []shape
	if modified {
		for _, ch := range sc.changes {
			switch ch.kind {
			case recolor:
				shapes[ch.index].fill = ch.fill
			case remove:
				skip[ch.index] = true
			case mark:
				s := shapes[ch.index]
				marks = append(marks, shape{kind: circle, cx: s.cx, cy: s.cy, r: s.r / 3, fill: markColor})
			}
		}
	}
	for i, s := range shapes {
		if !skip[i] {
			fillShape(img, s)
		}
	}
	for _, m := range marks {
		fillShape(img, m)
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(12, 24),
	}
	d.DrawString(sc.label)
	return img
}

func fillShape(img *image.RGBA, s shape) {
	src := image.NewUniform(s.fill)
	if s.kind == square {
		rect := image.Rect(s.cx-s.r, s.cy-s.r, s.cx+s.r, s.cy+s.r)
		draw.Draw(img, rect, src, image.Point{}, draw.Over)
		return
	}
	for y := -s.r; y <= s.r; y++ {
		for x := -s.r; x <= s.r; x++ {
			if x*x+y*y <= s.r*s.r {
				img.SetRGBA(s.cx+x, s.cy+y, s.fill)
			}
		}
	}
}

func encode(img image.Image) (*game.Image, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode sketch: %w", err)
	}
	b := img.Bounds()
	return &game.Image{Data: buf.Bytes(), MIMEType: "image/png", Width: b.Dx(), Height: b.Dy()}, nil
}

func percent(px int) float64 {
	return math.Round(float64(px)*1000/CanvasSize) / 10
}

// asciiLabel keeps what basicfont can draw.
func asciiLabel(theme string, seed uint64) string {
	var b strings.Builder
	for _, r := range theme {
		if r >= 0x20 && r < 0x7f {
			b.WriteRune(r)
		}
	}
	if label := strings.TrimSpace(b.String()); label != "" {
		return label
	}
	return fmt.Sprintf("puzzle #%03d", seed%1000)
}

func describe(s shapeKind, c changeKind) string {
	name := "丸"
	if s == square {
		name = "四角"
	}
	switch c {
	case recolor:
		return name + "の色が変わっている"
	case remove:
		return name + "が消えている"
	default:
		return name + "に白い点が増えている"
	}
}
