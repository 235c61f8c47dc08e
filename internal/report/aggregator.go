package report

import (
	"sort"

	"github.com/tix-net/condenser/internal/wire"
)

// CollectObservations groups the observations of a batch of reports by
// source IP, deduplicates within each IP as a set keyed on the observation's
// full value, and returns the single (ip, observations) pair the batch is
// assumed to carry, sorted by DayTimestamp so that downstream stages (the
// Clock Fixer's regression, the Hurst estimators' "most recent window"
// truncation) see time-ordered input rather than the nondeterministic order
// a map range produces.
//
// Per-message batches are guaranteed single-IP by the ingestion layer; if
// more than one IP is nonetheless present, the first encountered in report
// order wins. An empty batch, or one with zero observations, returns
// ("", nil, nil) so the caller can reject the message without requeue.
func CollectObservations(reports []Report) (string, []wire.Observation, error) {
	if len(reports) == 0 {
		return "", nil, nil
	}

	order := make([]string, 0, 1)
	seen := make(map[string]map[wire.Observation]struct{})

	for _, r := range reports {
		ip := r.SourceIP()
		if _, ok := seen[ip]; !ok {
			seen[ip] = make(map[wire.Observation]struct{})
			order = append(order, ip)
		}
		for _, o := range r.Observations {
			seen[ip][o] = struct{}{}
		}
	}

	ip := order[0]
	set := seen[ip]
	if len(set) == 0 {
		return "", nil, nil
	}

	observations := make([]wire.Observation, 0, len(set))
	for o := range set {
		observations = append(observations, o)
	}
	sort.Slice(observations, func(i, j int) bool {
		return observations[i].DayTimestamp < observations[j].DayTimestamp
	})
	return ip, observations, nil
}
