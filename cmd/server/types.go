package main

import (
	"time"

	"github.com/himanishpuri/TempoBench/internal/storage"
	"github.com/himanishpuri/TempoBench/internal/validate"
)

// StartRunRequest is the body of POST /api/runs. Empty Sets runs the
// configured selection.
type StartRunRequest struct {
	Sets []string `json:"sets,omitempty"`
}

type StartRunResponse struct {
	Message string `json:"message"`
	Sets    int    `json:"sets"`
	Cases   int    `json:"cases"`
}

// StatusResponse describes the background run, if any.
type StatusResponse struct {
	Running   bool      `json:"running"`
	StartedAt time.Time `json:"started_at,omitempty"`
	LastRunID string    `json:"last_run_id,omitempty"`
	LastError string    `json:"last_error,omitempty"`
}

// RunDTO is a run summary in list responses
type RunDTO struct {
	ID         string    `json:"id"`
	Digest     string    `json:"digest"`
	Estimate   string    `json:"estimate"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Mean       *float64  `json:"mean"`
}

func runDTO(r storage.Run) RunDTO {
	dto := RunDTO{
		ID:         r.ID,
		Digest:     r.Digest,
		Estimate:   r.Estimate,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
	if r.HasMean {
		mean := r.Mean
		dto.Mean = &mean
	}
	return dto
}

type ListRunsResponse struct {
	Runs  []RunDTO `json:"runs"`
	Count int      `json:"count"`
}

type CaseDTO struct {
	Label          string  `json:"label"`
	Media          string  `json:"media"`
	ExpectedTempo  float64 `json:"expected_tempo"`
	Detected       float64 `json:"detected"`
	Samples        int     `json:"samples"`
	SampleAccuracy float64 `json:"sample_accuracy"`
	Outcome        string  `json:"outcome"`
	Error          string  `json:"error,omitempty"`
	ElapsedMs      int64   `json:"elapsed_ms"`
}

type SetDTO struct {
	Name     string    `json:"name"`
	Total    int       `json:"total"`
	Correct  int       `json:"correct"`
	Failed   int       `json:"failed"`
	Accuracy float64   `json:"accuracy"`
	Cases    []CaseDTO `json:"cases"`
}

type ReportResponse struct {
	RunDTO
	Sets []SetDTO `json:"sets"`
}

func reportResponse(r *validate.Report) ReportResponse {
	resp := ReportResponse{
		RunDTO: RunDTO{
			ID:         r.RunID,
			Digest:     r.Digest,
			Estimate:   string(r.Estimate),
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		},
		Sets: make([]SetDTO, 0, len(r.Sets)),
	}
	if r.HasMean {
		mean := r.Mean
		resp.Mean = &mean
	}
	for _, s := range r.Sets {
		set := SetDTO{Name: s.Name, Total: s.Total, Correct: s.Correct, Failed: s.Failed, Accuracy: s.Accuracy, Cases: []CaseDTO{}}
		for _, c := range s.Cases {
			set.Cases = append(set.Cases, CaseDTO{
				Label:          c.Label,
				Media:          c.MediaRef,
				ExpectedTempo:  c.ExpectedTempo,
				Detected:       c.Detected,
				Samples:        c.Samples,
				SampleAccuracy: c.SampleAccuracy,
				Outcome:        string(c.Outcome),
				Error:          c.Err,
				ElapsedMs:      c.Elapsed.Milliseconds(),
			})
		}
		resp.Sets = append(resp.Sets, set)
	}
	return resp
}

type TrendResponse struct {
	Set    string               `json:"set"`
	Points []storage.TrendPoint `json:"points"`
}

type CatalogSetDTO struct {
	Name  string `json:"name"`
	Cases int    `json:"cases"`
}

type CatalogResponse struct {
	Digest string          `json:"digest"`
	Sets   []CatalogSetDTO `json:"sets"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
