// diagnose runs diagnosis batches from the command line: either a JSON file
// of curves ({"holes": {"[1]1": {"torque": [...], ...}}}) or synthetic
// curves for exercising an installation without line equipment.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/banshee-data/torque.report/internal/config"
	"github.com/banshee-data/torque.report/internal/curvegen"
	"github.com/banshee-data/torque.report/internal/features"
	"github.com/banshee-data/torque.report/internal/modelstore"
	"github.com/banshee-data/torque.report/internal/torque"
)

var (
	carrierID  = flag.String("carrier", "CARRIER_DEMO", "Carrier id for the batch")
	inputPath  = flag.String("input", "", "JSON curve file; empty generates synthetic curves")
	modelDir   = flag.String("model-dir", config.DefaultModelDir, "Model snapshot directory")
	synthMode  = flag.String("mode", string(curvegen.ModeNormal), "Synthetic mode: normal, loose, drift, hard_ng_slope, hard_ng_torque")
	synthHoles = flag.Int("holes", 4, "Synthetic hole count")
	synthSeed  = flag.Int64("seed", 1, "Synthetic generator seed")
	repeat     = flag.Int("repeat", 1, "Run the batch this many times (builds up the baseline)")
	tolerance  = flag.Float64("tolerance", config.DefaultToleranceFactor, "Production tolerance factor (sigma)")
)

type inputFile struct {
	Holes map[string]features.Curve `json:"holes"`
}

func main() {
	flag.Parse()

	store, err := modelstore.New(*modelDir, nil)
	if err != nil {
		log.Fatalf("failed to open model store: %v", err)
	}
	session := torque.NewSession(features.NewExtractor(0, 0), store, nil, *tolerance)

	var holes map[string]features.Curve
	if *inputPath != "" {
		data, err := os.ReadFile(*inputPath)
		if err != nil {
			log.Fatalf("failed to read input: %v", err)
		}
		var in inputFile
		if err := json.Unmarshal(data, &in); err != nil {
			log.Fatalf("failed to parse input: %v", err)
		}
		holes = in.Holes
	}

	gen := curvegen.New(*synthSeed)
	var results map[string]torque.HoleReport
	for i := 0; i < *repeat; i++ {
		batch := holes
		if batch == nil {
			batch = gen.Batch(curvegen.Mode(*synthMode), *synthHoles)
		}
		results, err = session.Diagnose(*carrierID, batch)
		if err != nil {
			log.Fatalf("diagnosis failed: %v", err)
		}
	}

	out, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode results: %v", err)
	}
	fmt.Println(string(out))
}
