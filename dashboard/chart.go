package dashboard

// Chart viewport, in SVG user units.
const (
	chartWidth  = 640.0
	chartHeight = 320.0
	marginLeft  = 48.0
	marginRight = 16.0
	marginTop   = 16.0
	marginBot   = 32.0
	barFill     = 0.6
	barRadius   = 6.0
)

// Bar is one chart category with its precomputed geometry.
type Bar struct {
	Name   string
	Value  int
	Color  string
	X      float64
	Y      float64
	Width  float64
	Height float64
	LabelX float64
}

type Tick struct {
	Value int
	Y     float64
}

// Chart is a vertical bar chart laid out for an SVG viewBox of
// Width x Height. The Y axis only carries integer ticks.
type Chart struct {
	Width   float64
	Height  float64
	PlotX   float64
	PlotY   float64
	PlotW   float64
	PlotH   float64
	Radius  float64
	AxisMax int
	Bars    []Bar
	Ticks   []Tick
}

func NewChart(bars []Bar) Chart {
	c := Chart{
		Width:  chartWidth,
		Height: chartHeight,
		PlotX:  marginLeft,
		PlotY:  marginTop,
		PlotW:  chartWidth - marginLeft - marginRight,
		PlotH:  chartHeight - marginTop - marginBot,
		Radius: barRadius,
	}

	max := 0
	for _, b := range bars {
		if b.Value > max {
			max = b.Value
		}
	}
	ticks := integerTicks(max)
	c.AxisMax = ticks[len(ticks)-1]
	for _, t := range ticks {
		c.Ticks = append(c.Ticks, Tick{Value: t, Y: c.yFor(t)})
	}

	if len(bars) == 0 {
		return c
	}
	band := c.PlotW / float64(len(bars))
	width := band * barFill
	for i, b := range bars {
		b.Width = width
		b.X = c.PlotX + float64(i)*band + (band-width)/2
		b.LabelX = c.PlotX + float64(i)*band + band/2
		b.Y = c.yFor(b.Value)
		b.Height = c.PlotY + c.PlotH - b.Y
		c.Bars = append(c.Bars, b)
	}
	return c
}

func (c Chart) yFor(v int) float64 {
	if c.AxisMax <= 0 {
		return c.PlotY + c.PlotH
	}
	return c.PlotY + c.PlotH - float64(v)/float64(c.AxisMax)*c.PlotH
}

// integerTicks picks a 1/2/5 step so that about four whole-number intervals
// cover max. An all-zero chart still gets a 0..4 axis.
func integerTicks(max int) []int {
	if max <= 0 {
		max = 4
	}
	step := niceStep((max + 3) / 4)
	top := (max + step - 1) / step * step
	ticks := make([]int, 0, top/step+1)
	for v := 0; v <= top; v += step {
		ticks = append(ticks, v)
	}
	return ticks
}

func niceStep(raw int) int {
	if raw < 1 {
		raw = 1
	}
	mag := 1
	for mag*10 <= raw {
		mag *= 10
	}
	for _, m := range []int{1, 2, 5, 10} {
		if m*mag >= raw {
			return m * mag
		}
	}
	return 10 * mag
}
