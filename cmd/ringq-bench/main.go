// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command ringq-bench benchmarks the lock-free MPMC ring against the
// mutex+condvar baseline across a matrix of producer/consumer counts.
//
// Scenarios come from a YAML file or built-in defaults. Results go to
// stdout, optionally to a JSON report and a SQLite table for tracking
// across runs.
//
// Usage:
//
//	ringq-bench [-config bench.yaml] [-json results.json] [-db results.db] [-progress]
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/schollz/progressbar/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/sugawarayuuta/sonnet"
	"gopkg.in/yaml.v3"

	"code.hybscloud.com/ringq"
	"code.hybscloud.com/ringq/internal/harness"
)

// Scenario is one producer/consumer pairing to measure.
type Scenario struct {
	Producers int `yaml:"producers"`
	Consumers int `yaml:"consumers"`
}

// BenchConfig is the YAML scenario file layout. Duration is a string
// ("5s", "500ms") because yaml.v3 has no native time.Duration decoding.
type BenchConfig struct {
	Duration  string     `yaml:"duration"`
	Capacity  int        `yaml:"capacity"`
	Scenarios []Scenario `yaml:"scenarios"`
}

func (c *BenchConfig) duration() (time.Duration, error) {
	if c.Duration == "" {
		return 5 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Duration)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid duration %q", c.Duration)
	}
	return d, nil
}

// defaultConfig mirrors the classic 16x16 run over a 65536-slot ring.
func defaultConfig() BenchConfig {
	return BenchConfig{
		Duration: "5s",
		Capacity: 65536,
		Scenarios: []Scenario{
			{Producers: 1, Consumers: 1},
			{Producers: 4, Consumers: 4},
			{Producers: 16, Consumers: 16},
		},
	}
}

// Result holds the outcome of one implementation under one scenario.
type Result struct {
	Implementation string  `json:"implementation"`
	Producers      int     `json:"producers"`
	Consumers      int     `json:"consumers"`
	Capacity       int     `json:"capacity"`
	Produced       int64   `json:"produced"`
	Consumed       int64   `json:"consumed"`
	ElapsedSec     float64 `json:"elapsed_sec"`
	Throughput     float64 `json:"throughput_msgs_sec"`
	Timestamp      int64   `json:"timestamp"`
}

// SystemInfo records the host the numbers came from.
type SystemInfo struct {
	NumCPU      int     `json:"num_cpu"`
	GOARCH      string  `json:"go_arch"`
	GoVersion   string  `json:"go_version"`
	CPUModel    string  `json:"cpu_model,omitempty"`
	CPUSpeedMHz float64 `json:"cpu_speed_mhz,omitempty"`
	TotalMemory uint64  `json:"total_memory_bytes,omitempty"`
}

// Report is a complete session: host metadata plus all results.
type Report struct {
	SessionTime string     `json:"session_time"`
	SystemInfo  SystemInfo `json:"system_info"`
	Results     []Result   `json:"results"`
}

func gatherSystemInfo() SystemInfo {
	info := SystemInfo{
		NumCPU:    runtime.NumCPU(),
		GOARCH:    runtime.GOARCH,
		GoVersion: runtime.Version(),
	}
	if cpus, err := cpu.Info(); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
		info.CPUSpeedMHz = cpus[0].Mhz
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalMemory = vm.Total
	}
	return info
}

func loadConfig(path string) (BenchConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 65536
	}
	if len(cfg.Scenarios) == 0 {
		cfg.Scenarios = defaultConfig().Scenarios
	}
	return cfg, nil
}

// implementation pairs a name with a queue factory. Both queues share the
// harness Payload contract, so one driver measures them all.
type implementation struct {
	name string
	make func(capacity int) (ringq.Queue[harness.Payload], error)
}

func implementations() []implementation {
	return []implementation{
		{
			name: "lockfree-mpmc",
			make: func(capacity int) (ringq.Queue[harness.Payload], error) {
				return ringq.NewMPMC[harness.Payload](capacity)
			},
		},
		{
			name: "mutex-blocking",
			make: func(capacity int) (ringq.Queue[harness.Payload], error) {
				return ringq.NewBlocking[harness.Payload](capacity)
			},
		},
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML scenario file (defaults built in)")
	jsonPath := flag.String("json", "", "write JSON report to this file")
	dbPath := flag.String("db", "", "append results to this SQLite database")
	progress := flag.Bool("progress", false, "show a progress bar")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	duration, err := cfg.duration()
	if err != nil {
		return err
	}

	impls := implementations()
	report := Report{
		SessionTime: time.Now().Format(time.RFC3339),
		SystemInfo:  gatherSystemInfo(),
	}

	fmt.Printf("ringq-bench: %d scenario(s), capacity %d, %s per run\n",
		len(cfg.Scenarios), cfg.Capacity, duration)
	fmt.Printf("host: %d CPUs, %s, %s\n\n",
		report.SystemInfo.NumCPU, report.SystemInfo.GOARCH, report.SystemInfo.GoVersion)

	var bar *progressbar.ProgressBar
	if *progress {
		bar = progressbar.Default(int64(len(cfg.Scenarios) * len(impls)))
	}

	for _, sc := range cfg.Scenarios {
		for _, impl := range impls {
			runtime.GC()
			q, err := impl.make(cfg.Capacity)
			if err != nil {
				return fmt.Errorf("%s: %w", impl.name, err)
			}

			produced, consumed, elapsed := harness.RunTimed(q, sc.Producers, sc.Consumers, duration)
			throughput := float64(consumed) / elapsed.Seconds()

			report.Results = append(report.Results, Result{
				Implementation: impl.name,
				Producers:      sc.Producers,
				Consumers:      sc.Consumers,
				Capacity:       cfg.Capacity,
				Produced:       produced,
				Consumed:       consumed,
				ElapsedSec:     elapsed.Seconds(),
				Throughput:     throughput,
				Timestamp:      time.Now().Unix(),
			})

			fmt.Printf("%-16s P=%-3d C=%-3d  %12.0f msgs/sec  (%d consumed in %.2fs)\n",
				impl.name, sc.Producers, sc.Consumers, throughput, consumed, elapsed.Seconds())

			if bar != nil {
				bar.Add(1)
			}
		}
	}

	if *jsonPath != "" {
		if err := writeJSON(*jsonPath, &report); err != nil {
			return err
		}
		fmt.Printf("\nreport written to %s\n", *jsonPath)
	}
	if *dbPath != "" {
		if err := persist(*dbPath, &report); err != nil {
			return err
		}
		fmt.Printf("results appended to %s\n", *dbPath)
	}
	return nil
}

func writeJSON(path string, report *Report) error {
	data, err := sonnet.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS results (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	session_time   TEXT NOT NULL,
	implementation TEXT NOT NULL,
	producers      INTEGER NOT NULL,
	consumers      INTEGER NOT NULL,
	capacity       INTEGER NOT NULL,
	produced       INTEGER NOT NULL,
	consumed       INTEGER NOT NULL,
	elapsed_sec    REAL NOT NULL,
	throughput     REAL NOT NULL,
	cpu_model      TEXT,
	num_cpu        INTEGER
);`

func persist(path string, report *Report) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO results
		(session_time, implementation, producers, consumers, capacity,
		 produced, consumed, elapsed_sec, throughput, cpu_model, num_cpu)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range report.Results {
		if _, err := stmt.Exec(report.SessionTime, r.Implementation, r.Producers,
			r.Consumers, r.Capacity, r.Produced, r.Consumed, r.ElapsedSec,
			r.Throughput, report.SystemInfo.CPUModel, report.SystemInfo.NumCPU); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert result: %w", err)
		}
	}
	return tx.Commit()
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "ringq-bench:", err)
		os.Exit(1)
	}
}
