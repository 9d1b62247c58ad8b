// Command tone-curve plots the RSSI to tone mapping, marking the readings in
// the test sequence.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/groundstation/internal/rssi"
)

var (
	out    = flag.String("out", "tone-curve.png", "Output image (.png, .svg or .pdf)")
	margin = flag.Int("margin", 10, "dB to extend the curve beyond each end of the mapped range")
)

func main() {
	flag.Parse()

	p, err := tonePlot(*margin)
	if err != nil {
		log.Fatalf("failed to build plot: %v", err)
	}
	if err := p.Save(10*vg.Inch, 5*vg.Inch, *out); err != nil {
		log.Fatalf("failed to save %s: %v", *out, err)
	}
	fmt.Printf("wrote %s\n", *out)
}

// curvePoints samples ToneFor at every dB from lo to hi inclusive.
func curvePoints(lo, hi int) plotter.XYs {
	pts := make(plotter.XYs, 0, hi-lo+1)
	for r := lo; r <= hi; r++ {
		pts = append(pts, plotter.XY{X: float64(r), Y: float64(rssi.ToneFor(r))})
	}
	return pts
}

func sequencePoints(seq rssi.Sequence) plotter.XYs {
	pts := make(plotter.XYs, len(seq))
	for i, r := range seq {
		pts[i] = plotter.XY{X: float64(r), Y: float64(rssi.ToneFor(r))}
	}
	return pts
}

func tonePlot(margin int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "RSSI to tone"
	p.X.Label.Text = "RSSI (dB)"
	p.Y.Label.Text = "Tone (Hz)"
	p.Add(plotter.NewGrid())

	curve, err := plotter.NewLine(curvePoints(rssi.MinRSSI-margin, rssi.MaxRSSI+margin))
	if err != nil {
		return nil, err
	}
	curve.Width = vg.Points(1)
	curve.Color = color.RGBA{B: 200, A: 255}

	marks, err := plotter.NewScatter(sequencePoints(rssi.TestSequence))
	if err != nil {
		return nil, err
	}
	marks.Color = color.RGBA{R: 200, A: 255}

	p.Add(curve, marks)
	p.Legend.Add("ToneFor", curve)
	p.Legend.Add("test sequence", marks)
	p.Legend.Top = true
	return p, nil
}
