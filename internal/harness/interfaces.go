package harness

import (
	"github.com/himanishpuri/TempoBench/internal/artifact"
	"github.com/himanishpuri/TempoBench/internal/storage"
	"github.com/himanishpuri/TempoBench/internal/validate"
)

// Storage is the run history backend.
type Storage interface {
	SaveReport(report *validate.Report) error
	ListRuns(limit int) ([]storage.Run, error)
	GetRun(id string) (*storage.Run, error)
	SetTrend(setName, digest string) ([]storage.TrendPoint, error)
	DeleteRun(id string) error
	ArtifactSink() artifact.Sink
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
