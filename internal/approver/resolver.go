// Package approver expands raw approver references into a concrete set of
// Slack user IDs.
package approver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/slack-go/slack"
)

// GroupLookup resolves a Slack user group to its member user IDs.
type GroupLookup interface {
	GetUserGroupMembersContext(ctx context.Context, userGroup string, opts ...slack.GetUserGroupMembersOption) ([]string, error)
}

// Resolution is the expanded approver set for one run.
type Resolution struct {
	// Approvers holds deduplicated user IDs in order of first appearance.
	Approvers []string
	// GroupMentions holds display mentions for every group reference that
	// was expanded, in input order.
	GroupMentions []string
}

// Resolve classifies each reference as a user group or an individual user,
// expands groups through lookup and deduplicates the result. A group whose
// lookup fails contributes no members and does not abort the run. Resolve
// fails when the expanded set cannot ever satisfy the minimum approval count.
func Resolve(ctx context.Context, refs []string, minimum int, lookup GroupLookup) (Resolution, error) {
	if minimum < 1 {
		return Resolution{}, fmt.Errorf("minimum approval count must be at least 1, got %d", minimum)
	}

	var res Resolution
	var groups []string
	seen := make(map[string]bool)
	addUser := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		res.Approvers = append(res.Approvers, id)
	}
	addGroup := func(id string) {
		groups = append(groups, id)
		res.GroupMentions = append(res.GroupMentions, "<!subteam^"+id+">")
	}

	for _, raw := range refs {
		ref := strings.TrimSpace(raw)
		if ref == "" {
			continue
		}
		switch {
		case strings.HasPrefix(ref, "<!subteam^"):
			addGroup(stripMention(ref, "<!subteam^"))
		case strings.HasPrefix(ref, "S"):
			addGroup(ref)
		case strings.HasPrefix(ref, "<@"):
			addUser(stripMention(ref, "<@"))
		case strings.HasPrefix(ref, "U"), strings.HasPrefix(ref, "W"):
			addUser(ref)
		default:
			// Not a recognized Slack ID shape; trust the literal value.
			addUser(ref)
		}
	}

	for _, group := range groups {
		members, err := lookup.GetUserGroupMembersContext(ctx, group)
		if err != nil {
			slog.Warn("user group lookup failed, treating as empty", "group", group, "error", err)
			continue
		}
		for _, member := range members {
			addUser(member)
		}
	}

	if minimum > len(res.Approvers) {
		return Resolution{}, fmt.Errorf("minimum approval count %d exceeds resolved approver count %d", minimum, len(res.Approvers))
	}
	return res, nil
}

// stripMention extracts the ID from mention syntax like <@U123|name> or
// <!subteam^S123|@handle>.
func stripMention(ref, prefix string) string {
	id := strings.TrimPrefix(ref, prefix)
	id = strings.TrimSuffix(id, ">")
	if i := strings.Index(id, "|"); i >= 0 {
		id = id[:i]
	}
	return id
}
