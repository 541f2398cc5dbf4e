package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/himanishpuri/TempoBench/internal/media"
	"github.com/himanishpuri/TempoBench/internal/stats"
)

// ModeResolution is the BPM bucket width used when the engine omits a mode.
const ModeResolution = 0.5

// Command runs an external tempo detection executable once per case.
//
// The executable is invoked as
//
//	<Path> [Args...] --start S --end E --min-tempo MIN --max-tempo MAX --variance V <file>
//
// and must print a JSON document on stdout:
//
//	{"samples": [{"t": 1.2, "bpm": 120.1}], "mean": 120, "median": 120, "mode": 120,
//	 "flux": [..], "flux_ts": [[t, v]], "full_band_flux_ts": [[t, v]]}
//
// Summary fields that are missing or zero are computed from the samples.
type Command struct {
	Path     string
	Args     []string
	MediaDir string

	// ConvertDir, when set, converts media to mono WAV there first.
	ConvertDir string
	SampleRate int

	Timeout time.Duration
}

func (c *Command) Analyze(req Request, done CompletionFunc) {
	Async(c.analyze).Analyze(req, done)
}

func (c *Command) analyze(req Request) (Result, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	path := c.resolve(req.MediaRef)
	if c.ConvertDir != "" {
		wavPath, err := media.ConvertToMonoWAV(ctx, path, c.ConvertDir, media.ConvertWAVConfig{
			SampleRate: c.SampleRate,
		})
		if err != nil {
			return Result{}, fmt.Errorf("audio conversion failed: %w", err)
		}
		path = wavPath
	}

	cmd := exec.CommandContext(ctx, c.Path, c.buildArgs(req, path)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return Result{}, fmt.Errorf("%s: %w", c.Path, ctx.Err())
		}
		return Result{}, fmt.Errorf("%s failed: %v\nstderr: %s", c.Path, err, stderr.String())
	}

	return parseOutput(stdout.Bytes(), req)
}

func (c *Command) resolve(ref string) string {
	if c.MediaDir == "" || filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(c.MediaDir, ref)
}

func (c *Command) buildArgs(req Request, path string) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	args := append([]string{}, c.Args...)
	args = append(args,
		"--start", f(req.Window.Start),
		"--end", f(req.Window.End),
		"--min-tempo", f(req.TempoRange.Min),
		"--max-tempo", f(req.TempoRange.Max),
		"--variance", f(req.AllowedVariance),
		path,
	)
	return args
}

type commandOutput struct {
	Samples        []TempoSample `json:"samples"`
	Mean           float64       `json:"mean"`
	Median         float64       `json:"median"`
	Mode           float64       `json:"mode"`
	Flux           []float64     `json:"flux"`
	FluxTS         [][2]float64  `json:"flux_ts"`
	FullBandFluxTS [][2]float64  `json:"full_band_flux_ts"`
}

// parseOutput decodes the engine's JSON and forwards flux curves into the
// request's artifact channels.
func parseOutput(data []byte, req Request) (Result, error) {
	var out commandOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Result{}, fmt.Errorf("parsing detector output: %w", err)
	}

	if req.Artifacts != nil {
		for _, v := range out.Flux {
			req.Artifacts.Flux.Append(v)
		}
		for _, p := range out.FluxTS {
			req.Artifacts.FluxWithTime.AppendAt(p[0], p[1])
		}
		for _, p := range out.FullBandFluxTS {
			req.Artifacts.FullBandFluxWithTime.AppendAt(p[0], p[1])
		}
	}

	res := Result{Samples: out.Samples, Mean: out.Mean, Median: out.Median, Mode: out.Mode}
	if err := fillSummaries(&res); err != nil {
		return Result{}, err
	}
	return res, nil
}

// fillSummaries computes any zero summary from the samples. A result with
// neither samples nor summaries carries no tempo at all.
func fillSummaries(res *Result) error {
	bpms := make([]float64, len(res.Samples))
	for i, s := range res.Samples {
		bpms[i] = s.BPM
	}
	if len(bpms) == 0 {
		if res.Mean == 0 && res.Median == 0 && res.Mode == 0 {
			return ErrNoTempo
		}
		return nil
	}

	var err error
	if res.Mean == 0 {
		if res.Mean, err = stats.Mean(bpms); err != nil {
			return err
		}
	}
	if res.Median == 0 {
		if res.Median, err = stats.Median(bpms); err != nil {
			return err
		}
	}
	if res.Mode == 0 {
		if res.Mode, err = stats.Mode(bpms, ModeResolution); err != nil {
			return err
		}
	}
	return nil
}
