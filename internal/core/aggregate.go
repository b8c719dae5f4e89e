package core

import "github.com/avdeyev/pingroom/internal/domain"

// MemberReport pairs a member with its ledger entry. The coordinator builds
// the slice in room insertion order so aggregation output is deterministic.
type MemberReport struct {
	Member  domain.SessionID
	Samples []domain.LatencySample
}

// ServerMean is one candidate endpoint's group-wide average latency.
type ServerMean struct {
	ServerName  string `json:"serverName"`
	AveragePing int    `json:"averagePing"`
}

// Aggregate computes each candidate's mean latency across the room. The
// divisor is the number of reporting members, not the number of samples, so
// a member that never probed a given server still dilutes that server's
// mean. The mean uses truncating integer division. Output order is
// first-seen order of server names across the reports.
func Aggregate(reports []MemberReport) []ServerMean {
	n := len(reports)
	if n == 0 {
		return []ServerMean{}
	}
	sums := make(map[string]int)
	var order []string
	for _, report := range reports {
		for _, s := range report.Samples {
			if _, seen := sums[s.ServerName]; !seen {
				order = append(order, s.ServerName)
			}
			sums[s.ServerName] += s.ResponseTime
		}
	}
	out := make([]ServerMean, 0, len(order))
	for _, name := range order {
		out = append(out, ServerMean{ServerName: name, AveragePing: sums[name] / n})
	}
	return out
}

// BestServer picks the candidate with the lowest mean. Strictly-less-than
// comparison keeps the first-seen entry on ties. ok is false for an empty
// ranking.
func BestServer(means []ServerMean) (name string, ok bool) {
	if len(means) == 0 {
		return "", false
	}
	best := means[0]
	for _, m := range means[1:] {
		if m.AveragePing < best.AveragePing {
			best = m
		}
	}
	return best.ServerName, true
}
