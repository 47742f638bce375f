package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB          Pinger
	ReportQA    bool
	ObjectStore string
}

// Status is the health payload.
type Status struct {
	OK          bool   `json:"ok"`
	Database    string `json:"database"`
	ReportQA    bool   `json:"reportQa"`
	ObjectStore string `json:"objectStore,omitempty"`
}

const pingTimeout = 2 * time.Second

// NewService constructs a new health service. db may be nil when records
// are kept in memory.
func NewService(db Pinger, reportQA bool, objectStore string) *Service {
	return &Service{DB: db, ReportQA: reportQA, ObjectStore: objectStore}
}

// Status reports whether the service can serve requests. The database is
// "memory" when none is configured.
func (s *Service) Status(ctx context.Context) Status {
	out := Status{OK: true, Database: "memory"}
	if s == nil {
		return out
	}
	out.ReportQA = s.ReportQA
	out.ObjectStore = s.ObjectStore
	if s.DB == nil {
		return out
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		out.OK = false
		out.Database = "down"
		return out
	}
	out.Database = "up"
	return out
}
