package scoring

import (
	"sort"

	"github.com/lifeline-ems/lifeline/core/model"
)

// Candidate pairs a hospital with its computed score record.
type Candidate struct {
	Hospital model.Hospital
	Record   model.ScoreRecord
}

// Ranking is the outcome of scoring a hospital collection for one
// request.
type Ranking struct {
	// Best and Backup are the two top-ranked candidates, nil when the
	// ranked list is too short.
	Best   *Candidate
	Backup *Candidate
	// Ranked holds every candidate within the search radius, best
	// first. Candidates with equal total score keep their input order;
	// no secondary sort key exists and callers may rely on that.
	Ranked []Candidate
	// Evaluated counts all hospitals scored, including those discarded
	// for being outside the radius.
	Evaluated int
}

// Rank scores every hospital for the request, drops candidates beyond
// the search radius and sorts the remainder by total score descending.
func (s *Scorer) Rank(hospitals []model.Hospital, loc model.Coordinate, emergencyType string) Ranking {
	ranking := Ranking{Evaluated: len(hospitals)}
	for _, h := range hospitals {
		rec := s.Score(h, loc, emergencyType)
		if rec.DistanceKm > s.cfg.SearchRadiusKm {
			continue
		}
		ranking.Ranked = append(ranking.Ranked, Candidate{Hospital: h, Record: rec})
	}

	sort.SliceStable(ranking.Ranked, func(i, j int) bool {
		return ranking.Ranked[i].Record.Total > ranking.Ranked[j].Record.Total
	})

	if len(ranking.Ranked) > 0 {
		ranking.Best = &ranking.Ranked[0]
	}
	if len(ranking.Ranked) > 1 {
		ranking.Backup = &ranking.Ranked[1]
	}
	return ranking
}
