package output

import (
	"time"

	"github.com/jamesainslie/primes/pkg/primes/counter"
)

// document is the shared shape of the json and yaml formats.
type document struct {
	ID         string    `json:"id,omitempty" yaml:"id,omitempty"`
	Max        int32     `json:"max" yaml:"max"`
	Primes     int64     `json:"primes" yaml:"primes"`
	CPUSeconds float64   `json:"cpu_seconds" yaml:"cpu_seconds"`
	CPU        string    `json:"cpu" yaml:"cpu"`
	Wall       string    `json:"wall,omitempty" yaml:"wall,omitempty"`
	StartedAt  time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	Host       string    `json:"host,omitempty" yaml:"host,omitempty"`
	Message    string    `json:"message" yaml:"message"`
}

func newDocument(r *Result) document {
	wall := ""
	if r.Wall > 0 {
		wall = r.Wall.String()
	}
	return document{
		ID:         r.ID,
		Max:        r.Max,
		Primes:     r.Primes,
		CPUSeconds: r.CPUSeconds,
		CPU:        counter.FormatSeconds(r.CPUSeconds) + "s",
		Wall:       wall,
		StartedAt:  r.StartedAt,
		Host:       r.Host,
		Message:    r.Message(),
	}
}
