// curveplot renders a torque curve and its effective zone to a PNG for
// offline inspection of snug-point detection and the rigidity region.
package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/torque.report/internal/curvegen"
	"github.com/banshee-data/torque.report/internal/features"
	"github.com/banshee-data/torque.report/internal/signal"
)

var (
	inputPath = flag.String("input", "", "JSON file with a single curve {torque, angle, time}; empty uses a synthetic curve")
	synthMode = flag.String("mode", string(curvegen.ModeNormal), "Synthetic mode when no input is given")
	output    = flag.String("output", "curve.png", "Output PNG path")
)

func main() {
	flag.Parse()

	var curve features.Curve
	if *inputPath != "" {
		data, err := os.ReadFile(*inputPath)
		if err != nil {
			log.Fatalf("failed to read input: %v", err)
		}
		if err := json.Unmarshal(data, &curve); err != nil {
			log.Fatalf("failed to parse curve: %v", err)
		}
		if err := curve.Validate(); err != nil {
			log.Fatalf("invalid curve: %v", err)
		}
	} else {
		curve = curvegen.New(1).Curve(curvegen.Mode(*synthMode))
	}

	clean := signal.Sanitize(curve.Torque, signal.DefaultSanitizeThreshold)
	_, torqueRes := signal.Resample(curve.Time, clean, signal.DefaultResampleFrequencyHz)
	_, angleRes := signal.Resample(curve.Time, curve.Angle, signal.DefaultResampleFrequencyHz)

	p := plot.New()
	p.Title.Text = "Fastening curve"
	p.X.Label.Text = "angle (deg)"
	p.Y.Label.Text = "torque (Nm)"

	pts := make(plotter.XYs, len(torqueRes))
	for i := range torqueRes {
		pts[i].X = angleRes[i]
		pts[i].Y = torqueRes[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		log.Fatalf("failed to build line: %v", err)
	}
	p.Add(line)

	fp := features.NewExtractor(0, 0).Extract(curve)
	log.Printf("fingerprint: peak=%.3f slope=%.4f work=%.3f snug=%.3f seating=%.1f",
		fp.PeakTorque, fp.RigiditySlope, fp.TotalWork, fp.SnugTorque, fp.SeatingAngle)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, *output); err != nil {
		log.Fatalf("failed to save plot: %v", err)
	}
	log.Printf("wrote %s", *output)
}
