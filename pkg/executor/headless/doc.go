// Package headless implements the non-interactive executor used by
// `punch run` and scheduled jobs.
//
// The headless executor drives one orchestrator run to completion without a
// popup: the dates (or edit page links) come from flags, progress is printed
// to the console at the configured verbosity, and a summary is written as
// artifacts once the run ends, whether it succeeded or not.
//
// Architecture:
//
//	┌─────────────────────────────────────────────────────────┐
//	│                 Headless Executor                       │
//	│  - Console progress from run events                     │
//	│  - Run timeout                                          │
//	│  - Artifact generation                                  │
//	└──────────────────┬──────────────────────────────────────┘
//	                   │ RunBatch / RunPunch
//	                   ▼
//	        ┌──────────────────────┐
//	        │    Orchestrator      │
//	        │ (one session per     │
//	        │  stretch of dates)   │
//	        └──────────────────────┘
//
// Example usage:
//
//	cfg := headless.DefaultConfig()
//	cfg.Dates = []attendance.Day{{Year: 2024, Month: 3, Date: 5}}
//
//	exec, _ := headless.NewExecutor(cfg)
//	orch := orchestrator.New(open, orchestrator.ConfigFrom(appCfg),
//	    orchestrator.WithEmitter(exec.Observe))
//
//	if err := exec.Run(ctx, orch); err != nil {
//	    log.Fatal(err)
//	}
//
// Artifacts:
//
// Each run writes into its own directory under the configured output dir:
// - execution.json: Full execution summary including every date
// - summary.md: Human-readable markdown summary
// - metrics.json: Run metrics
package headless
