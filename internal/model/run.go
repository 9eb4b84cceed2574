package model

import "time"

// RunKind 流水线类型
type RunKind string

const (
	RunKindAct      RunKind = "act"
	RunKindScan     RunKind = "scan"
	RunKindContract RunKind = "contract"
	RunKindTabs     RunKind = "tabs"
	RunKindFill     RunKind = "fill"
)

// RunStatus 运行状态
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// Run 一次流水线运行的记录（runs 表）
type Run struct {
	ID         string     `json:"id"`
	Kind       RunKind    `json:"kind"`
	Input      string     `json:"input"`
	Output     string     `json:"output"`
	Status     RunStatus  `json:"status"`
	Rows       int        `json:"rows"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// RunSection 一次运行中单个分区的写入结果（run_sections 表）
type RunSection struct {
	RunID    string `json:"runId"`
	Section  string `json:"section"`
	Rows     int    `json:"rows"`
	Skipped  bool   `json:"skipped"`
	Warnings int    `json:"warnings"`
}
