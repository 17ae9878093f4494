package plugin

// RiskScore is the informational point-scoring signal from
// original_source/mcp/sandbox/risk.rs, surfaced alongside the
// categorical RiskLevel on the pending-approval descriptor (spec §4.6's
// categorical rules remain authoritative for the approval decision
// itself — see DESIGN.md's Open Question decision on this conflict).
func RiskScore(p Permissions) int {
	score := 0

	if p.Clipboard {
		score++
	}
	if len(p.Network) > 0 {
		score += 2
	}
	for _, entry := range p.Filesystem {
		if entry.Access == "write" {
			score += 4
		} else {
			score += 2
		}
	}
	score += len(p.Environment) * 2
	if len(p.Shell) > 0 {
		score += 5
	}

	return score
}
