package match

import "github.com/kailas-cloud/scout/internal/domain/experience"

// Result joins a validated match to its catalog record.
type Result struct {
	experience experience.Experience
	reason     string
	score      float64
}

// Join creates a Result. The caller guarantees exp.ID() == v.ID().
func Join(exp experience.Experience, v Validated) Result {
	return Result{experience: exp, reason: v.reason, score: v.score}
}

// Experience returns the catalog record.
func (r Result) Experience() experience.Experience { return r.experience }

// Reason returns the generator's justification.
func (r Result) Reason() string { return r.reason }

// Score returns the relevance score.
func (r Result) Score() float64 { return r.score }
