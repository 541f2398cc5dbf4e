package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/himanishpuri/TempoBench/internal/validate"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveReport stores a run with all its sets and cases in one transaction.
func (c *DBClient) SaveReport(report *validate.Report) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	if report == nil || report.RunID == "" {
		return fmt.Errorf("report without run id")
	}

	run := Run{
		ID:         report.RunID,
		Digest:     report.Digest,
		Estimate:   string(report.Estimate),
		StartedAt:  report.StartedAt,
		FinishedAt: report.FinishedAt,
		Mean:       report.Mean,
		HasMean:    report.HasMean,
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&run).Error; err != nil {
			return fmt.Errorf("creating run: %w", err)
		}

		for i, sr := range report.Sets {
			set := SetRun{
				RunID:    run.ID,
				Position: i,
				Name:     sr.Name,
				Total:    sr.Total,
				Correct:  sr.Correct,
				Failed:   sr.Failed,
				Accuracy: sr.Accuracy,
				Empty:    sr.Total == 0,
			}
			if err := tx.Omit(clause.Associations).Create(&set).Error; err != nil {
				return fmt.Errorf("creating set %s: %w", sr.Name, err)
			}
			if len(sr.Cases) == 0 {
				continue
			}

			cases := make([]CaseRun, 0, len(sr.Cases))
			for j, cr := range sr.Cases {
				cases = append(cases, CaseRun{
					SetRunID:       set.ID,
					Position:       j,
					Label:          cr.Label,
					MediaRef:       cr.MediaRef,
					ExpectedTempo:  cr.ExpectedTempo,
					Detected:       cr.Detected,
					Mean:           cr.Mean,
					Median:         cr.Median,
					Mode:           cr.Mode,
					Samples:        cr.Samples,
					SampleAccuracy: cr.SampleAccuracy,
					Outcome:        string(cr.Outcome),
					Error:          cr.Err,
					ElapsedMs:      cr.Elapsed.Milliseconds(),
				})
			}
			if err := tx.CreateInBatches(cases, 500).Error; err != nil {
				return fmt.Errorf("batch insert cases: %w", err)
			}
		}
		return nil
	})
}

// ListRuns returns the newest runs first, without sets. limit <= 0 means all.
func (c *DBClient) ListRuns(limit int) ([]Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	q := c.DB.Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// GetRun loads a run with its sets and cases in catalog order.
func (c *DBClient) GetRun(id string) (*Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	byPosition := func(db *gorm.DB) *gorm.DB { return db.Order("position") }

	var run Run
	err := c.DB.
		Preload("Sets", byPosition).
		Preload("Sets.Cases", byPosition).
		Where("id = ?", id).
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return &run, nil
}

// SetTrend lists a set's accuracy over time, oldest first. Only runs of the
// catalog identified by digest are comparable; an empty digest matches all.
func (c *DBClient) SetTrend(setName, digest string) ([]TrendPoint, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	q := c.DB.Table("set_runs").
		Select("runs.id AS run_id, runs.started_at, set_runs.accuracy, set_runs.total, set_runs.correct, set_runs.failed").
		Joins("JOIN runs ON runs.id = set_runs.run_id").
		Where("set_runs.name = ? AND set_runs.empty = ?", setName, false)
	if digest != "" {
		q = q.Where("runs.digest = ?", digest)
	}

	var points []TrendPoint
	if err := q.Order("runs.started_at ASC").Scan(&points).Error; err != nil {
		return nil, fmt.Errorf("querying trend for %s: %w", setName, err)
	}
	return points, nil
}

func (c *DBClient) DeleteRun(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		var setIDs []uint
		if err := tx.Model(&SetRun{}).Where("run_id = ?", id).Pluck("id", &setIDs).Error; err != nil {
			return err
		}
		if len(setIDs) > 0 {
			if err := tx.Where("set_run_id IN ?", setIDs).Delete(&CaseRun{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("run_id = ?", id).Delete(&SetRun{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&Run{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, id)
		}
		return nil
	})
}

// Report rebuilds the validation report of a loaded run.
func (r *Run) Report() *validate.Report {
	report := &validate.Report{
		RunID:      r.ID,
		Digest:     r.Digest,
		Estimate:   validate.Estimate(r.Estimate),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Mean:       r.Mean,
		HasMean:    r.HasMean,
	}
	for _, s := range r.Sets {
		sr := validate.SetResult{
			Name:     s.Name,
			Total:    s.Total,
			Correct:  s.Correct,
			Failed:   s.Failed,
			Accuracy: s.Accuracy,
		}
		for _, cr := range s.Cases {
			sr.Cases = append(sr.Cases, validate.CaseResult{
				Label:          cr.Label,
				MediaRef:       cr.MediaRef,
				ExpectedTempo:  cr.ExpectedTempo,
				Detected:       cr.Detected,
				Mean:           cr.Mean,
				Median:         cr.Median,
				Mode:           cr.Mode,
				Samples:        cr.Samples,
				SampleAccuracy: cr.SampleAccuracy,
				Outcome:        validate.Outcome(cr.Outcome),
				Err:            cr.Error,
				Elapsed:        time.Duration(cr.ElapsedMs) * time.Millisecond,
			})
		}
		report.Sets = append(report.Sets, sr)
		if !s.Empty {
			report.Accuracies = append(report.Accuracies, s.Accuracy)
		}
	}
	return report
}
