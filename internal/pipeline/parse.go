package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/omni-glass/omniglass/internal/action"
)

// stripCodeFences removes a leading/trailing ```json ... ``` (or bare
// ```) fence some models wrap their JSON output in despite being told
// not to, mirroring original_source/llm's strip_code_fences.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseActionMenu strictly parses a complete CLASSIFY response. Callers
// substitute the fallback Action Menu on error, per spec §4.9.
func parseActionMenu(raw string) (*action.ActionMenu, error) {
	clean := stripCodeFences(raw)
	var menu action.ActionMenu
	if err := json.Unmarshal([]byte(clean), &menu); err != nil {
		return nil, fmt.Errorf("parsing action menu: %w", err)
	}
	if len(menu.Actions) == 0 {
		return nil, fmt.Errorf("parsed action menu carries no actions")
	}
	return &menu, nil
}

// parseActionResult strictly parses a complete EXECUTE response. Callers
// fall through to salvageActionResult on error, since spec.md defines no
// fallback Action Result.
func parseActionResult(raw string) (*action.ActionResult, error) {
	clean := stripCodeFences(raw)
	var result action.ActionResult
	if err := json.Unmarshal([]byte(clean), &result); err != nil {
		return nil, fmt.Errorf("parsing action result: %w", err)
	}
	if result.Status == "" || result.Result.Kind == "" {
		return nil, fmt.Errorf("parsed action result is missing status or result type")
	}
	return &result, nil
}
