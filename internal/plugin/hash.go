package plugin

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashPermissions computes a stable digest over a canonical serialisation
// of a Permissions record (spec §4.6). Go's encoding/json marshals struct
// fields in declaration order, making this deterministic the same way
// original_source/mcp/approval.rs's serde_json serialisation of a struct
// (not a HashMap) is deterministic.
func HashPermissions(p Permissions) string {
	raw, _ := json.Marshal(p)
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("sha256:%s", hex.EncodeToString(sum[:]))
}
