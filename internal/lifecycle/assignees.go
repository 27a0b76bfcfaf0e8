package lifecycle

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrDuplicateAssignee is returned when the same user is listed twice.
var ErrDuplicateAssignee = errors.New("duplicate assignee")

// NormalizeAssignees trims and sorts assignee IDs so stored sets serialize
// deterministically. Blank entries are dropped; duplicates are rejected.
func NormalizeAssignees(ids []string) ([]string, error) {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateAssignee, id)
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	sort.Strings(result)
	return result, nil
}
