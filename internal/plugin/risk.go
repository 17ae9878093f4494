package plugin

import (
	"regexp"
	"strings"
)

// RiskLevel is the categorical risk assigned to a plugin's declared
// permissions (spec §4.6).
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// secretNameRegex recognises environment variable names that look like
// credentials, grounded on hkdb-otui/config/plugins.go's isSensitiveKey
// substring list, narrowed to the variable-name patterns spec §4.6 names
// explicitly (*_KEY, *_TOKEN, *_SECRET).
var secretNameRegex = regexp.MustCompile(`(?i)_(KEY|TOKEN|SECRET)$`)

// ComputeRisk implements the categorical rules of spec §4.6. This is the
// authoritative risk model (see DESIGN.md's Open Question decision);
// original_source/mcp/risk.rs's point-scoring model is not ported.
func ComputeRisk(p Permissions, documentsSubtree string) RiskLevel {
	if isHighRisk(p, documentsSubtree) {
		return RiskHigh
	}
	if isMediumRisk(p) {
		return RiskMedium
	}
	return RiskLow
}

func isHighRisk(p Permissions, documentsSubtree string) bool {
	if fsWriteOutsideDocuments(p.Filesystem, documentsSubtree) {
		return true
	}
	if len(p.Shell) > 0 {
		return true
	}
	if networkIsWildcard(p.Network) {
		return true
	}
	if len(p.Environment) > 2 && anyLooksLikeSecret(p.Environment) {
		return true
	}
	return false
}

func isMediumRisk(p Permissions) bool {
	if fsReadsUserDirectories(p.Filesystem) {
		return true
	}
	if len(p.Network) > 0 {
		return true
	}
	if p.Clipboard {
		return true
	}
	if len(p.Environment) > 0 {
		return true
	}
	return false
}

func fsWriteOutsideDocuments(entries []FSAccess, documentsSubtree string) bool {
	for _, e := range entries {
		if strings.EqualFold(e.Access, "write") && !strings.HasPrefix(e.Path, documentsSubtree) {
			return true
		}
	}
	return false
}

func fsReadsUserDirectories(entries []FSAccess) bool {
	for _, e := range entries {
		if strings.EqualFold(e.Access, "read") {
			return true
		}
	}
	return false
}

func networkIsWildcard(hosts []string) bool {
	for _, h := range hosts {
		if h == "*" {
			return true
		}
	}
	return false
}

func anyLooksLikeSecret(names []string) bool {
	for _, n := range names {
		if secretNameRegex.MatchString(n) {
			return true
		}
	}
	return false
}
