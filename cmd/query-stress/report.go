package main

import (
	"io"
	"runtime"
	"text/template"
	"time"
)

type Report struct {
	// Configuration
	Components  int
	Tables      int
	Queries     int
	ExtraTables int

	// Results
	PopulateTime    time.Duration
	CompileTime     time.Duration
	IncrementalTime time.Duration
	LiveTables      int
	LiveTablesEnd   int
	MatchedTables   int
	References      int
	MemStatsStart   runtime.MemStats
	MemStatsEnd     runtime.MemStats
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Query Stress Test Report

## Test Configuration
- **Registered Components:** {{.Components}}
- **Entities Before Queries:** {{.Tables}}
- **Compiled Queries:** {{.Queries}}
- **Entities After Queries:** {{.ExtraTables}}

## Results
- **Populate Time:** {{.PopulateTime}}
- **Query Compile Time (eager match):** {{.CompileTime}}
- **Incremental Table Time (fan-out):** {{.IncrementalTime}}
- **Live Tables:** {{.LiveTables}} -> {{.LiveTablesEnd}}
- **Matched Table Plans:** {{.MatchedTables}}
- **References:** {{.References}}

## Memory Usage (Raw Bytes)
- Heap Alloc:  {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc: {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Num GC:      {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}
`

	funcMap := template.FuncMap{
		"bsub": func(a, b uint64) uint64 {
			if a < b {
				return 0
			}
			return a - b
		},
		"usub": func(a, b uint32) uint32 {
			if a < b {
				return 0
			}
			return a - b
		},
	}

	tmpl, err := template.New("report").Funcs(funcMap).Parse(reportTemplate)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, r)
}
