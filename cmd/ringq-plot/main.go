// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command ringq-plot renders a throughput chart from a ringq-bench JSON
// report: one line per implementation, producer/consumer count on the X
// axis, messages per second on the Y axis.
//
// Usage:
//
//	ringq-plot [-in results.json] [-out throughput.png]
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/sugawarayuuta/sonnet"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Result mirrors the ringq-bench report entry.
type Result struct {
	Implementation string  `json:"implementation"`
	Producers      int     `json:"producers"`
	Consumers      int     `json:"consumers"`
	Throughput     float64 `json:"throughput_msgs_sec"`
}

// Report mirrors the ringq-bench report envelope.
type Report struct {
	SessionTime string `json:"session_time"`
	SystemInfo  struct {
		CPUModel string `json:"cpu_model"`
		NumCPU   int    `json:"num_cpu"`
	} `json:"system_info"`
	Results []Result `json:"results"`
}

func run() error {
	inPath := flag.String("in", "results.json", "ringq-bench JSON report")
	outPath := flag.String("out", "throughput.png", "output image")
	flag.Parse()

	data, err := os.ReadFile(*inPath)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	var report Report
	if err := sonnet.Unmarshal(data, &report); err != nil {
		return fmt.Errorf("parse report: %w", err)
	}
	if len(report.Results) == 0 {
		return fmt.Errorf("report %s holds no results", *inPath)
	}

	// Group results per implementation, X = producer count.
	byImpl := make(map[string]plotter.XYs)
	for _, r := range report.Results {
		byImpl[r.Implementation] = append(byImpl[r.Implementation], plotter.XY{
			X: float64(r.Producers),
			Y: r.Throughput,
		})
	}

	var names []string
	for name := range byImpl {
		names = append(names, name)
	}
	sort.Strings(names)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("ringq throughput (%s, %d CPUs)",
		report.SystemInfo.CPUModel, report.SystemInfo.NumCPU)
	p.X.Label.Text = "producers / consumers"
	p.Y.Label.Text = "msgs/sec"
	p.Add(plotter.NewGrid())

	var lineArgs []interface{}
	for _, name := range names {
		pts := byImpl[name]
		sort.Slice(pts, func(i, j int) bool { return pts[i].X < pts[j].X })
		lineArgs = append(lineArgs, name, pts)
	}
	if err := plotutil.AddLinePoints(p, lineArgs...); err != nil {
		return fmt.Errorf("build chart: %w", err)
	}

	if err := p.Save(10*vg.Inch, 6*vg.Inch, *outPath); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	fmt.Printf("chart saved to %s\n", *outPath)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ringq-plot:", err)
		os.Exit(1)
	}
}
