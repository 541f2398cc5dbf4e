package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/himanishpuri/TempoBench/internal/artifact"
	"github.com/himanishpuri/TempoBench/internal/validate"
)

// Helper function to create a temporary test database
func setupTestDB(t *testing.T) (*DBClient, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_tempo.sqlite3")

	// Set the environment variable to use our test database
	t.Setenv("TEMPO_DB_PATH", dbPath)

	client, err := NewDBClient()
	if err != nil {
		t.Fatalf("Failed to create test DB client: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
	})

	return client, dbPath
}

func sampleReport(id string, started time.Time, accuracies ...float64) *validate.Report {
	r := &validate.Report{
		RunID:      id,
		Digest:     "digest-1",
		Estimate:   validate.EstimateMode,
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
	}
	names := []string{"studioSet1", "homeSet1"}
	for i, acc := range accuracies {
		r.Sets = append(r.Sets, validate.SetResult{
			Name:     names[i%len(names)],
			Total:    2,
			Correct:  int(acc / 50),
			Accuracy: acc,
			Cases: []validate.CaseResult{
				{Label: names[i%len(names)] + "-a", MediaRef: "a.mp3", ExpectedTempo: 120, Detected: 120, Outcome: validate.OutcomeCorrect, Elapsed: 1500 * time.Millisecond},
				{Label: names[i%len(names)] + "-b", MediaRef: "b.mp3", ExpectedTempo: 90, Outcome: validate.OutcomeFailed, Err: "unreadable media"},
			},
		})
		r.Accuracies = append(r.Accuracies, acc)
	}
	if len(accuracies) > 0 {
		sum := 0.0
		for _, a := range accuracies {
			sum += a
		}
		r.Mean, r.HasMean = sum/float64(len(accuracies)), true
	}
	return r
}

// TestNewDBClient tests database initialization
func TestNewDBClient(t *testing.T) {
	client, dbPath := setupTestDB(t)

	if client.DB == nil {
		t.Fatal("Expected non-nil GORM DB handle")
	}
	if client.db == nil {
		t.Fatal("Expected non-nil sql.DB handle")
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at %s", dbPath)
	}
}

// TestNewDBClientWithCustomPath tests database creation in a missing directory
func TestNewDBClientWithCustomPath(t *testing.T) {
	customPath := filepath.Join(t.TempDir(), "subdir", "custom.db")

	client, err := NewDBClientWithPath(customPath)
	if err != nil {
		t.Fatalf("Failed to create DB with custom path: %v", err)
	}
	defer client.Close()

	if _, err := os.Stat(customPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at custom path %s", customPath)
	}
}

func TestSaveAndGetRun(t *testing.T) {
	client, _ := setupTestDB(t)
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	report := sampleReport("run-1", started, 50, 100)

	if err := client.SaveReport(report); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	run, err := client.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if len(run.Sets) != 2 {
		t.Fatalf("Expected 2 sets, got %d", len(run.Sets))
	}
	if run.Sets[0].Name != "studioSet1" || run.Sets[1].Name != "homeSet1" {
		t.Errorf("Sets out of order: %s, %s", run.Sets[0].Name, run.Sets[1].Name)
	}

	got := run.Report()
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, expected %v", got.StartedAt, started)
	}
	got.StartedAt, got.FinishedAt = report.StartedAt, report.FinishedAt
	if diff := cmp.Diff(report, got); diff != "" {
		t.Errorf("Round-tripped report mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveReportRejectsDuplicateID(t *testing.T) {
	client, _ := setupTestDB(t)
	report := sampleReport("dup", time.Now().UTC(), 100)

	if err := client.SaveReport(report); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if err := client.SaveReport(report); err == nil {
		t.Fatal("Expected error saving the same run twice")
	}

	// the failed transaction must not leave extra sets behind
	run, err := client.GetRun("dup")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if len(run.Sets) != 1 {
		t.Errorf("Expected 1 set after rollback, got %d", len(run.Sets))
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	client, _ := setupTestDB(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "mid", "new"} {
		if err := client.SaveReport(sampleReport(id, base.Add(time.Duration(i)*time.Hour), 100)); err != nil {
			t.Fatalf("SaveReport %s failed: %v", id, err)
		}
	}

	runs, err := client.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	var ids []string
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	if diff := cmp.Diff([]string{"new", "mid"}, ids); diff != "" {
		t.Errorf("ListRuns mismatch (-want +got):\n%s", diff)
	}

	all, err := client.ListRuns(0)
	if err != nil || len(all) != 3 {
		t.Errorf("ListRuns(0) = %d runs, %v; expected 3", len(all), err)
	}
}

func TestSetTrend(t *testing.T) {
	client, _ := setupTestDB(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, acc := range []float64{50, 100, 0} {
		r := sampleReport(string(rune('a'+i)), base.Add(time.Duration(i)*time.Hour), acc)
		if i == 2 {
			r.Digest = "other-catalog"
		}
		if err := client.SaveReport(r); err != nil {
			t.Fatalf("SaveReport failed: %v", err)
		}
	}

	points, err := client.SetTrend("studioSet1", "digest-1")
	if err != nil {
		t.Fatalf("SetTrend failed: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Expected 2 comparable points, got %d", len(points))
	}
	if points[0].RunID != "a" || points[0].Accuracy != 50 || points[1].Accuracy != 100 {
		t.Errorf("Unexpected trend: %+v", points)
	}

	all, err := client.SetTrend("studioSet1", "")
	if err != nil || len(all) != 3 {
		t.Errorf("Expected 3 points without digest filter, got %d (%v)", len(all), err)
	}
}

func TestDeleteRun(t *testing.T) {
	client, _ := setupTestDB(t)
	if err := client.SaveReport(sampleReport("gone", time.Now().UTC(), 100, 50)); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	if err := client.DeleteRun("gone"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := client.GetRun("gone"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}

	var cases int64
	client.DB.Model(&CaseRun{}).Count(&cases)
	if cases != 0 {
		t.Errorf("Expected cases to be deleted, %d left", cases)
	}

	if err := client.DeleteRun("gone"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Deleting a missing run should fail with ErrRunNotFound, got %v", err)
	}
}

func TestArtifactSinkStoresSamples(t *testing.T) {
	client, _ := setupTestDB(t)
	sink := client.ArtifactSink()

	set, err := sink.Open("louie-louie")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	set.Flux.Append(0.5)
	set.Flux.Append(0.75)
	set.FullBandFluxWithTime.AppendAt(1.25, 3)
	if err := set.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	flux, err := client.PlotSamples("louie-louie", ChannelFlux)
	if err != nil {
		t.Fatalf("PlotSamples failed: %v", err)
	}
	if len(flux) != 2 || flux[0].Value != 0.5 || flux[1].Value != 0.75 {
		t.Errorf("Unexpected flux samples: %+v", flux)
	}
	full, _ := client.PlotSamples("louie-louie", ChannelFullBandFluxWithTime)
	if len(full) != 1 || full[0].Timestamp != 1.25 {
		t.Errorf("Unexpected full band samples: %+v", full)
	}

	// reopening starts fresh
	set, err = sink.Open("louie-louie")
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	set.Close()
	if flux, _ := client.PlotSamples("louie-louie", ChannelFlux); len(flux) != 0 {
		t.Errorf("Expected samples to be cleared on reopen, got %d", len(flux))
	}

	if _, err := sink.Open(" "); !errors.Is(err, artifact.ErrInvalidLabel) {
		t.Errorf("Expected ErrInvalidLabel, got %v", err)
	}
}

func TestNilClient(t *testing.T) {
	var client *DBClient

	if err := client.SaveReport(&validate.Report{RunID: "x"}); err == nil {
		t.Error("Expected error from nil client")
	}
	if _, err := client.ListRuns(1); err == nil {
		t.Error("Expected error from nil client")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close on nil client should be a no-op, got %v", err)
	}
}

// TestClose tests closing the database connection
func TestClose(t *testing.T) {
	client, err := NewDBClientWithPath(filepath.Join(t.TempDir(), "close.db"))
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
