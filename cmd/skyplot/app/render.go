package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/vector"
)

const (
	dpi            = 120.0
	fontSize       = 10.0
	tickMarkLength = 5
	pixelsPerLabel = 80.0
	lineWidth      = 2.0

	defaultTopBorder    = 40
	defaultLeftBorder   = 90
	defaultBottomBorder = 60
	defaultRightBorder  = 40

	defaultTimeFormat     = "15:04:05"
	defaultDatetimeFormat = time.DateTime
)

var (
	raColor   = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	decColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	gridColor = color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff}
	zeroColor = color.RGBA{R: 0x90, G: 0x90, B: 0x90, A: 0xff}
)

// BorderConfig defines the sizes of white space around the plot
type BorderConfig struct {
	Top    int // Space for the legend
	Left   int // Space for the arcsec scale
	Bottom int // Space for the time scale and information bar
	Right  int
}

// RenderConfig holds all configuration options for the drift chart
type RenderConfig struct {
	Width, Height  int // plot area in pixels
	TimeFormat     string
	DatetimeFormat string
	Location       *time.Location
	FontSize       float64
	NoAnnotations  bool
	BorderConfig   BorderConfig
}

// DriftRenderer draws RA and Dec drift against time
type DriftRenderer struct {
	config RenderConfig
}

func NewDriftRenderer(config RenderConfig) (*DriftRenderer, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("invalid plot size: %dx%d", config.Width, config.Height)
	}
	if config.TimeFormat == "" {
		config.TimeFormat = defaultTimeFormat
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	return &DriftRenderer{config: config}, nil
}

// Render creates an image of the series with annotations
func (r *DriftRenderer) Render(s *DriftSeries) (*image.RGBA, error) {
	b := r.config.BorderConfig
	img := image.NewRGBA(image.Rect(0, 0, r.config.Width+b.Left+b.Right, r.config.Height+b.Top+b.Bottom))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	p := plot{
		area:   image.Rect(b.Left, b.Top, b.Left+r.config.Width, b.Top+r.config.Height),
		series: s,
	}

	step := niceArcsecStep(s.Max-s.Min, r.config.Height)
	for v := math.Ceil(s.Min/step) * step; v <= s.Max; v += step {
		y := int(math.Round(float64(p.y(v))))
		col := gridColor
		if math.Abs(v) < step/2 {
			col = zeroColor
		}
		for x := p.area.Min.X; x < p.area.Max.X; x++ {
			img.Set(x, y, col)
		}
	}

	ra := make([]point, 0, len(s.Points))
	dec := make([]point, 0, len(s.Points))
	for _, pt := range s.Points {
		x := p.x(pt.At)
		ra = append(ra, point{x, p.y(pt.RAArcsec)})
		dec = append(dec, point{x, p.y(pt.DecArcsec)})
	}
	strokePolyline(img, ra, lineWidth, raColor)
	strokePolyline(img, dec, lineWidth, decColor)

	if r.config.NoAnnotations {
		return img, nil
	}

	ann, err := newAnnotator(r.config)
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	if err = ann.annotate(img, &p, step); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}
	return img, nil
}

type point struct {
	X, Y float32
}

// plot maps series values into the plot area
type plot struct {
	area   image.Rectangle
	series *DriftSeries
}

func (p *plot) x(t time.Time) float32 {
	d := p.series.Duration()
	if d <= 0 {
		return float32(p.area.Min.X) + float32(p.area.Dx())/2
	}
	ratio := float64(t.Sub(p.series.Start)) / float64(d)
	return float32(p.area.Min.X) + float32(ratio*float64(p.area.Dx()))
}

func (p *plot) y(v float64) float32 {
	ratio := (p.series.Max - v) / (p.series.Max - p.series.Min)
	return float32(p.area.Min.Y) + float32(ratio*float64(p.area.Dy()))
}

// strokePolyline rasterizes pts as connected segments of the given width.
// A single point is drawn as a square dot.
func strokePolyline(dst *image.RGBA, pts []point, width float32, c color.Color) {
	if len(pts) == 0 {
		return
	}

	size := dst.Bounds().Size()
	r := vector.NewRasterizer(size.X, size.Y)
	r.DrawOp = draw.Over
	half := width / 2

	if len(pts) == 1 {
		p := pts[0]
		r.MoveTo(p.X-half, p.Y-half)
		r.LineTo(p.X+half, p.Y-half)
		r.LineTo(p.X+half, p.Y+half)
		r.LineTo(p.X-half, p.Y+half)
		r.ClosePath()
	}

	for i := 1; i < len(pts); i++ {
		p, q := pts[i-1], pts[i]
		dx, dy := q.X-p.X, q.Y-p.Y
		l := float32(math.Hypot(float64(dx), float64(dy)))
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half
		r.MoveTo(p.X+nx, p.Y+ny)
		r.LineTo(q.X+nx, q.Y+ny)
		r.LineTo(q.X-nx, q.Y-ny)
		r.LineTo(p.X-nx, p.Y-ny)
		r.ClosePath()
	}

	r.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

type annotator struct {
	context  *freetype.Context
	config   RenderConfig
	fontFace font.Face
}

func newAnnotator(config RenderConfig) (*annotator, error) {
	parsedFont, err := freetype.ParseFont(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, p *plot, step float64) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawValueScale(img, p, step); err != nil {
		return fmt.Errorf("drawing value scale: %w", err)
	}
	if err := a.drawTimeScale(img, p); err != nil {
		return fmt.Errorf("drawing time scale: %w", err)
	}
	if err := a.drawLegend(img, p); err != nil {
		return fmt.Errorf("drawing legend: %w", err)
	}
	if err := a.drawInfoBar(img, p); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}
	return nil
}

func (a *annotator) fontHeight() int {
	m := a.fontFace.Metrics()
	return (m.Ascent + m.Descent).Round()
}

func (a *annotator) drawValueScale(img *image.RGBA, p *plot, step float64) error {
	descent := a.fontFace.Metrics().Descent.Round()

	for v := math.Ceil(p.series.Min/step) * step; v <= p.series.Max; v += step {
		y := int(math.Round(float64(p.y(v))))
		for x := p.area.Min.X - tickMarkLength; x < p.area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := formatArcsec(v)
		width := font.MeasureString(a.fontFace, label).Round()
		pt := freetype.Pt(p.area.Min.X-tickMarkLength-3-width, y+a.fontHeight()/2-descent)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing value label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawTimeScale(img *image.RGBA, p *plot) error {
	d := p.series.Duration()
	if d <= 0 {
		return nil
	}

	step := niceTimeStep(d, p.area.Dx())
	textY := p.area.Max.Y + tickMarkLength + a.fontHeight()

	for t := p.series.Start.Truncate(step).Add(step); !t.After(p.series.End); t = t.Add(step) {
		x := int(math.Round(float64(p.x(t))))
		for y := p.area.Max.Y; y < p.area.Max.Y+tickMarkLength; y++ {
			img.Set(x, y, color.Black)
		}

		label := t.In(a.config.Location).Format(a.config.TimeFormat)
		width := font.MeasureString(a.fontFace, label).Round()
		if _, err := a.context.DrawString(label, freetype.Pt(x-width/2, textY)); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawLegend(img *image.RGBA, p *plot) error {
	textY := (p.area.Min.Y + a.fontHeight()) / 2
	x := p.area.Min.X

	for _, entry := range []struct {
		label string
		col   color.Color
	}{
		{"RA drift", raColor},
		{"Dec drift", decColor},
	} {
		swatch := image.Rect(x, textY-a.fontHeight()/2-3, x+20, textY-a.fontHeight()/2+1)
		draw.Draw(img, swatch, image.NewUniform(entry.col), image.Point{}, draw.Src)

		pt, err := a.context.DrawString(entry.label, freetype.Pt(x+26, textY))
		if err != nil {
			return fmt.Errorf("drawing legend label: %w", err)
		}
		x = pt.X.Round() + 30
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, p *plot) error {
	s := p.series
	last := s.Last()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Time: %s - %s",
		s.Start.In(a.config.Location).Format(a.config.DatetimeFormat),
		s.End.In(a.config.Location).Format(a.config.DatetimeFormat)))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("%s samples", humanize.Comma(int64(len(s.Points)))))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Drift: RA %s, Dec %s", formatArcsec(last.RAArcsec), formatArcsec(last.DecArcsec)))

	descent := a.fontFace.Metrics().Descent.Round()
	textY := img.Bounds().Max.Y - (a.config.BorderConfig.Bottom-tickMarkLength-a.fontHeight())/2 + a.fontHeight()/2 - descent
	if _, err := a.context.DrawString(sb.String(), freetype.Pt(p.area.Min.X, textY)); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

func formatArcsec(v float64) string {
	switch a := math.Abs(v); {
	case a >= 3600:
		return fmt.Sprintf("%+.2f°", v/3600)
	case a >= 60:
		return fmt.Sprintf("%+.1f′", v/60)
	default:
		return fmt.Sprintf("%+.1f″", v)
	}
}

// niceArcsecStep picks a 1-2-5 step giving roughly one label per pixelsPerLabel
func niceArcsecStep(span float64, height int) float64 {
	target := span / math.Max(1, float64(height)/pixelsPerLabel)
	exp := math.Pow(10, math.Floor(math.Log10(target)))
	for _, m := range []float64{1, 2, 5, 10} {
		if step := m * exp; step >= target {
			return step
		}
	}
	return 10 * exp
}

func niceTimeStep(d time.Duration, width int) time.Duration {
	target := time.Duration(float64(d) / math.Max(1, float64(width)/(2*pixelsPerLabel)))

	steps := []time.Duration{
		time.Second,
		5 * time.Second,
		10 * time.Second,
		30 * time.Second,
		time.Minute,
		5 * time.Minute,
		10 * time.Minute,
		15 * time.Minute,
		30 * time.Minute,
		time.Hour,
		2 * time.Hour,
	}
	for _, step := range steps {
		if step >= target {
			return step
		}
	}
	return 6 * time.Hour
}
