package chart

import (
	"bytes"
	"fmt"
	"html/template"
	"image"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/hailam/staticeval/internal/game"
)

// Format is the output document type.
type Format string

const (
	PNG  Format = "png"
	HTML Format = "html"
)

// ParseFormat accepts "png" or "html".
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case PNG, HTML:
		return f, nil
	}
	return "", fmt.Errorf("chart: unknown format %q", s)
}

// Default panel geometry.
const (
	DefaultWidth       = 1000
	DefaultPanelHeight = 250
)

var (
	canvasColor = drawing.ColorFromHex("DFDFE5")
	lineColor   = drawing.ColorFromHex("A9A9A9")
	neutralFill = drawing.ColorFromHex("00008B")
)

// Renderer writes one chart document per game.
type Renderer struct {
	Dir         string
	Format      Format
	Width       int
	PanelHeight int
}

// NewRenderer creates a renderer writing into dir with default geometry.
func NewRenderer(dir string, format Format) *Renderer {
	return &Renderer{
		Dir:         dir,
		Format:      format,
		Width:       DefaultWidth,
		PanelHeight: DefaultPanelHeight,
	}
}

// FileName returns "<White>-<Black> (<Year>).<ext>" with path separators
// replaced.
func FileName(info game.Info, f Format) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(info.ID())
	return name + "." + string(f)
}

// Render draws all panels for m and writes them to a single file, replacing any
// previous file of the same name. It returns the path written.
func (r *Renderer) Render(info game.Info, m *game.Matrix) (string, error) {
	if m.Len() == 0 {
		return "", game.ErrNoMoves
	}

	var charts []gochart.Chart
	for _, p := range PanelsFor(m.Mode) {
		title := p.Title
		if p.Title == "Total" {
			title = info.ID() + "  " + info.Result
		}
		c, err := r.panelChart(p, title, m)
		if err != nil {
			return "", err
		}
		charts = append(charts, c)
	}

	var data []byte
	var err error
	switch r.Format {
	case PNG:
		data, err = stackPNG(charts)
	case HTML:
		data, err = pageHTML(info.ID(), charts)
	default:
		err = fmt.Errorf("chart: unknown format %q", r.Format)
	}
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(r.Dir, 0755); err != nil {
		return "", fmt.Errorf("chart: %w", err)
	}
	path := filepath.Join(r.Dir, FileName(info, r.Format))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("chart: %w", err)
	}
	return path, nil
}

// zeroSeries names the horizontal reference line at 0. It is left out of the
// legend.
const zeroSeries = "0"

// maxTicks bounds the number of labelled moves on the x axis.
const maxTicks = 16

// panelChart builds the go-chart definition of one panel.
func (r *Renderer) panelChart(p Panel, title string, m *game.Matrix) (gochart.Chart, error) {
	fonts, err := loadFonts()
	if err != nil {
		return gochart.Chart{}, err
	}

	n := m.Len()
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i + 1)
	}

	lo, hi := 0.0, 0.0
	series := []gochart.Series{
		gochart.ContinuousSeries{
			Name:    zeroSeries,
			XValues: []float64{0, float64(n + 1)},
			YValues: []float64{0, 0},
			Style:   gochart.Style{StrokeColor: lineColor, StrokeWidth: 2},
		},
	}
	for _, col := range p.Columns {
		ys, err := m.Column(col)
		if err != nil {
			return gochart.Chart{}, err
		}
		for _, y := range ys {
			lo, hi = math.Min(lo, y), math.Max(hi, y)
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    col,
			XValues: xs,
			YValues: ys,
			Style:   seriesStyle(p.Title, col),
		})
	}
	pad := math.Max((hi-lo)*0.05, 0.1)

	c := gochart.Chart{
		Title:      title,
		TitleStyle: gochart.Style{FontSize: titleFontSize, Font: fonts.bold},
		Font:       fonts.regular,
		Width:      r.Width,
		Height:     r.PanelHeight,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		Canvas:     gochart.Style{FillColor: canvasColor},
		XAxis: gochart.XAxis{
			Name:      "move",
			Range:     &gochart.ContinuousRange{Min: 0, Max: float64(n + 1)},
			Ticks:     moveTicks(m.Labels(), maxTicks),
			TickStyle: gochart.Style{FontSize: tickFontSize},
		},
		YAxis: gochart.YAxis{
			Name:           "score",
			Range:          &gochart.ContinuousRange{Min: lo - pad, Max: hi + pad},
			GridMajorStyle: gochart.Style{StrokeColor: drawing.ColorWhite, StrokeWidth: 1},
		},
		Series: series,
	}
	legend := c
	legend.Series = legendSeries(series)
	c.Elements = []gochart.Renderable{gochart.Legend(&legend)}
	return c, nil
}

// moveTicks labels the x axis with move labels, at most limit of them, evenly
// spaced and always including the last move.
func moveTicks(labels []string, limit int) []gochart.Tick {
	n := len(labels)
	if n == 0 || limit < 1 {
		return nil
	}
	step := (n + limit - 1) / limit
	var ticks []gochart.Tick
	for i := 0; i < n; i += step {
		ticks = append(ticks, gochart.Tick{Value: float64(i + 1), Label: labels[i]})
	}
	if last := float64(n); ticks[len(ticks)-1].Value != last {
		if len(ticks) == limit {
			ticks = ticks[:len(ticks)-1]
		}
		ticks = append(ticks, gochart.Tick{Value: last, Label: labels[n-1]})
	}
	return ticks
}

// legendSeries returns the series that get a legend entry.
func legendSeries(series []gochart.Series) []gochart.Series {
	out := make([]gochart.Series, 0, len(series))
	for _, s := range series {
		if s.GetName() != zeroSeries {
			out = append(out, s)
		}
	}
	return out
}

func seriesStyle(panel, column string) gochart.Style {
	st := gochart.Style{
		StrokeColor: lineColor,
		StrokeWidth: 1,
		DotWidth:    3,
	}
	switch SideOf(column) {
	case White:
		st.DotColor = drawing.ColorWhite
	case Black:
		st.DotColor = drawing.ColorBlack
	default:
		st.DotColor = neutralFill
	}
	if Dotted(panel, column) {
		st.StrokeDashArray = []float64{2, 3}
	}
	return st
}

// stackPNG renders every chart as PNG and stacks them vertically.
func stackPNG(charts []gochart.Chart) ([]byte, error) {
	var panels []image.Image
	width, height := 0, 0
	for _, c := range charts {
		var buf bytes.Buffer
		if err := c.Render(gochart.PNG, &buf); err != nil {
			return nil, fmt.Errorf("chart: render %q: %w", c.Title, err)
		}
		img, err := png.Decode(&buf)
		if err != nil {
			return nil, fmt.Errorf("chart: decode %q: %w", c.Title, err)
		}
		b := img.Bounds()
		width = max(width, b.Dx())
		height += b.Dy()
		panels = append(panels, img)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	y := 0
	for _, img := range panels {
		b := img.Bounds()
		draw.Draw(dst, image.Rect(0, y, b.Dx(), y+b.Dy()), img, b.Min, draw.Over)
		y += b.Dy()
	}

	var out bytes.Buffer
	if err := png.Encode(&out, dst); err != nil {
		return nil, fmt.Errorf("chart: encode: %w", err)
	}
	return out.Bytes(), nil
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>body { margin: 0; background: #fff; } .panel svg { display: block; }</style>
</head>
<body>
{{range .Panels}}<div class="panel">{{.}}</div>
{{end}}</body>
</html>
`))

// pageHTML renders every chart as SVG and embeds them in one HTML page.
func pageHTML(title string, charts []gochart.Chart) ([]byte, error) {
	panels := make([]template.HTML, 0, len(charts))
	for _, c := range charts {
		var buf bytes.Buffer
		if err := c.Render(gochart.SVG, &buf); err != nil {
			return nil, fmt.Errorf("chart: render %q: %w", c.Title, err)
		}
		panels = append(panels, template.HTML(buf.String()))
	}

	var out bytes.Buffer
	err := pageTemplate.Execute(&out, struct {
		Title  string
		Panels []template.HTML
	}{title, panels})
	if err != nil {
		return nil, fmt.Errorf("chart: page: %w", err)
	}
	return out.Bytes(), nil
}
