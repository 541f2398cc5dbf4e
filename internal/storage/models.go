package storage

import "time"

// Run is one recorded validation run.
type Run struct {
	ID         string `gorm:"primaryKey;type:varchar(36)"`
	Digest     string `gorm:"index:idx_run_digest"`
	Estimate   string
	StartedAt  time.Time `gorm:"index:idx_run_started"`
	FinishedAt time.Time
	Mean       float64
	HasMean    bool
	Sets       []SetRun `gorm:"foreignKey:RunID"`
}

type SetRun struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	RunID    string `gorm:"type:varchar(36);index:idx_set_run"`
	Position int
	Name     string `gorm:"index:idx_set_name"`
	Total    int
	Correct  int
	Failed   int
	Accuracy float64
	Empty    bool
	Cases    []CaseRun `gorm:"foreignKey:SetRunID"`
}

type CaseRun struct {
	ID             uint `gorm:"primaryKey;autoIncrement"`
	SetRunID       uint `gorm:"index:idx_case_set"`
	Position       int
	Label          string `gorm:"index:idx_case_label"`
	MediaRef       string
	ExpectedTempo  float64
	Detected       float64
	Mean           float64
	Median         float64
	Mode           float64
	Samples        int
	SampleAccuracy float64
	Outcome        string
	Error          string
	ElapsedMs      int64
}

// PlotSample is one value of a per-case flux channel.
type PlotSample struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Label     string `gorm:"index:idx_plot_label"`
	Channel   int
	Seq       int
	Timestamp float64
	Value     float64
}

// TrendPoint is a set's accuracy in one run.
type TrendPoint struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Accuracy  float64   `json:"accuracy"`
	Total     int       `json:"total"`
	Correct   int       `json:"correct"`
	Failed    int       `json:"failed"`
}
