package www

import (
	"fmt"
	"html/template"
	"math"
	"time"

	"crmdash/dashboard"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("2006-01-02 15:04:05")
		},
		"add": func(vals ...float64) float64 {
			sum := 0.0
			for _, v := range vals {
				sum += v
			}
			return sum
		},
		"sub": func(a, b float64) float64 {
			return a - b
		},
		"tabClass": func(active, tab dashboard.Tab) string {
			if active == tab {
				return "tab tab-active tab-" + string(tab)
			}
			return "tab"
		},
		"barPath": barPath,
	}
}

// barPath draws a bar with rounded top corners as an SVG path.
func barPath(b dashboard.Bar, radius float64) string {
	if b.Height <= 0 || b.Width <= 0 {
		return ""
	}
	r := math.Min(radius, math.Min(b.Width/2, b.Height))
	x, y, w, h := b.X, b.Y, b.Width, b.Height
	return fmt.Sprintf("M%.2f,%.2f L%.2f,%.2f Q%.2f,%.2f %.2f,%.2f L%.2f,%.2f Q%.2f,%.2f %.2f,%.2f L%.2f,%.2f Z",
		x, y+h,
		x, y+r,
		x, y, x+r, y,
		x+w-r, y,
		x+w, y, x+w, y+r,
		x+w, y+h)
}
