// Package approval holds the in-memory state of one approval run.
package approval

import (
	"sync"

	"github.com/pipegate/slack-approve/internal/approver"
)

// Status is the derived lifecycle state of a request.
type Status string

const (
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
)

// Decision is the result of applying a single action to a request.
type Decision string

const (
	// DecisionNotEligible reports an action from a user who is not in the
	// outstanding set. The request is left unchanged.
	DecisionNotEligible Decision = "not_eligible"
	// DecisionPending records an approval that has not yet reached the
	// required count.
	DecisionPending Decision = "pending"
	// DecisionSatisfied records the approval that reached the required count.
	DecisionSatisfied Decision = "satisfied"
	// DecisionRejected ends the run regardless of prior approvals.
	DecisionRejected Decision = "rejected"
)

// Request tracks which approvers are still outstanding and which have
// confirmed. It is created once per process after resolution and mutated only
// by Approve and Reject. The mutex covers the cancellation path racing a
// Socket Mode action.
type Request struct {
	mu            sync.Mutex
	token         string
	required      int
	outstanding   []string
	confirmed     []string
	groupMentions []string
	rejected      bool
	rejectedBy    string
}

// NewRequest builds a request from a resolved approver set. The resolver has
// already guaranteed required <= len(res.Approvers).
func NewRequest(token string, required int, res approver.Resolution) *Request {
	return &Request{
		token:         token,
		required:      required,
		outstanding:   append([]string(nil), res.Approvers...),
		groupMentions: append([]string(nil), res.GroupMentions...),
	}
}

// Approve moves userID from outstanding to confirmed. A user not in the
// outstanding set yields DecisionNotEligible and no mutation; so does any
// action arriving after a terminal state.
func (r *Request) Approve(userID string) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rejected || len(r.confirmed) >= r.required {
		return DecisionNotEligible
	}

	idx := -1
	for i, id := range r.outstanding {
		if id == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return DecisionNotEligible
	}

	r.outstanding = append(r.outstanding[:idx], r.outstanding[idx+1:]...)
	r.confirmed = append(r.confirmed, userID)

	if len(r.confirmed) >= r.required {
		return DecisionSatisfied
	}
	return DecisionPending
}

// Reject is unconditionally terminal: one reject ends the run no matter how
// many approvals came before it.
func (r *Request) Reject(userID string) Decision {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rejected = true
	r.rejectedBy = userID
	return DecisionRejected
}

// Eligible reports whether userID belongs to the resolved approver set,
// outstanding or already confirmed.
func (r *Request) Eligible(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.outstanding {
		if id == userID {
			return true
		}
	}
	for _, id := range r.confirmed {
		if id == userID {
			return true
		}
	}
	return false
}

// Status derives the current lifecycle state.
func (r *Request) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.rejected:
		return StatusRejected
	case len(r.confirmed) >= r.required:
		return StatusApproved
	default:
		return StatusAwaitingApproval
	}
}

// Token returns the correlation token actions must carry to be honored.
func (r *Request) Token() string { return r.token }

// Required returns the approval count needed to satisfy the request.
func (r *Request) Required() int { return r.required }

// Outstanding returns a copy of the approvers who have not acted yet.
func (r *Request) Outstanding() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.outstanding...)
}

// Confirmed returns a copy of the approvers who approved, in approval order.
func (r *Request) Confirmed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.confirmed...)
}

// GroupMentions returns the group references kept for display.
func (r *Request) GroupMentions() []string {
	return append([]string(nil), r.groupMentions...)
}

// RejectedBy returns the user who rejected, empty while not rejected.
func (r *Request) RejectedBy() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rejectedBy
}
