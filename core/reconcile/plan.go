package reconcile

import "sort"

// ComputePlan derives the minimal set of one-directional copies needed to
// make both stores agree, using "larger UpdatedAt wins". It is a pure
// function of the two snapshots: no I/O, no clock.
//
// Equal timestamps are a no-op rather than an arbitrary pick, so repeated
// runs over converged stores plan zero work and the stores never oscillate.
func ComputePlan(local, remote []Record) *Plan {
	localIndex := buildIndex(local)
	remoteIndex := buildIndex(remote)

	plan := &Plan{
		PushRemote: []Record{},
		PullLocal:  []Record{},
	}

	for _, key := range unionKeys(localIndex, remoteIndex) {
		lrec, inLocal := localIndex[key]
		rrec, inRemote := remoteIndex[key]

		switch {
		case inLocal && !inRemote:
			// Remote counterpart is missing, i.e. infinitely old.
			plan.PushRemote = append(plan.PushRemote, lrec)
			plan.Summary.LocalOnly++
		case !inLocal && inRemote:
			plan.PullLocal = append(plan.PullLocal, rrec)
			plan.Summary.RemoteOnly++
		case lrec.UpdatedAt.After(rrec.UpdatedAt):
			plan.PushRemote = append(plan.PushRemote, lrec)
			plan.Summary.LocalNewer++
		case rrec.UpdatedAt.After(lrec.UpdatedAt):
			plan.PullLocal = append(plan.PullLocal, rrec)
			plan.Summary.RemoteNewer++
		default:
			plan.Summary.InSync++
		}
	}

	plan.Summary.TotalKeys = len(localIndex) + len(remoteIndex) -
		countShared(localIndex, remoteIndex)

	return plan
}

// buildIndex maps records by key. Each store is expected to hold at most one
// record per key; if a snapshot violates that, the newest copy wins so a
// stale duplicate can never shadow a fresher one.
func buildIndex(records []Record) map[string]Record {
	index := make(map[string]Record, len(records))
	for _, rec := range records {
		if existing, ok := index[rec.Key]; ok && existing.UpdatedAt.After(rec.UpdatedAt) {
			continue
		}
		index[rec.Key] = rec
	}
	return index
}

// unionKeys returns the distinct keys of both indices, sorted for
// deterministic plan output.
func unionKeys(localIndex, remoteIndex map[string]Record) []string {
	seen := make(map[string]struct{}, len(localIndex)+len(remoteIndex))
	for key := range localIndex {
		seen[key] = struct{}{}
	}
	for key := range remoteIndex {
		seen[key] = struct{}{}
	}

	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func countShared(localIndex, remoteIndex map[string]Record) int {
	shared := 0
	for key := range localIndex {
		if _, ok := remoteIndex[key]; ok {
			shared++
		}
	}
	return shared
}
