package processor

import (
	"context"
	"errors"
	"time"

	"backoffice-server/internal/observability"
	"backoffice-server/internal/store"

	"github.com/google/uuid"
)

// DefaultMaxTreeDepth caps downline traversal. Depth 1 is the root's direct
// referrals.
const DefaultMaxTreeDepth = 10

// TreeNode is one user in the referral tree. Children are ordered by signup
// time (oldest first), so repeated builds return identical trees. Level is
// the node's distance from the root (0 for the root itself); ReferralCount
// is the user's direct-referral count in the store, so a node clamped at the
// depth limit still reports how many children it has.
type TreeNode struct {
	UserID                uuid.UUID   `json:"user_id"`
	Email                 string      `json:"email"`
	FirstName             *string     `json:"first_name,omitempty"`
	LastName              *string     `json:"last_name,omitempty"`
	ReferralCode          string      `json:"referral_code"`
	Status                string      `json:"status"`
	Level                 int         `json:"level"`
	ReferralCount         int         `json:"referral_count"`
	TotalCommissionEarned float64     `json:"total_commission_earned"`
	JoinedAt              time.Time   `json:"joined_at"`
	Referrals             []*TreeNode `json:"referrals"`
}

// StatusSelf marks the root node of a tree.
const StatusSelf = "self"

// GetReferralTree builds the downline tree rooted at userID. The visited set
// guards against referral cycles that could otherwise be introduced by
// manual data fixes; a user reachable twice appears only at its first
// position.
func (p *ReferralProcessor) GetReferralTree(ctx context.Context, userID uuid.UUID, maxDepth int) (*TreeNode, error) {
	if maxDepth <= 0 || maxDepth > DefaultMaxTreeDepth {
		maxDepth = DefaultMaxTreeDepth
	}

	ctx = observability.WithFields(ctx,
		observability.Field{Key: "user_id", Value: userID.String()},
		observability.Field{Key: "max_depth", Value: maxDepth},
	)

	rootUser, err := p.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		p.logger.Error(ctx, "failed to get tree root user", err)
		return nil, err
	}

	visited := map[uuid.UUID]struct{}{rootUser.ID: {}}
	root := newTreeNode(rootUser)
	root.Status = StatusSelf

	if err := p.attachReferrals(ctx, root, 1, maxDepth, visited); err != nil {
		return nil, err
	}
	return root, nil
}

func (p *ReferralProcessor) attachReferrals(ctx context.Context, node *TreeNode, depth, maxDepth int, visited map[uuid.UUID]struct{}) error {
	if depth > maxDepth {
		// Clamped leaf: report how many children it has without walking them.
		count, err := p.store.CountDirectReferrals(ctx, node.UserID)
		if err != nil {
			p.logger.Error(ctx, "failed to count direct referrals", err)
			return err
		}
		node.ReferralCount = count
		return nil
	}

	children, err := p.store.GetDirectReferrals(ctx, node.UserID)
	if err != nil {
		p.logger.Error(ctx, "failed to load direct referrals", err)
		return err
	}
	node.ReferralCount = len(children)

	for _, child := range children {
		if _, seen := visited[child.ID]; seen {
			continue
		}
		visited[child.ID] = struct{}{}

		childNode := newTreeNode(child)
		childNode.Level = depth
		if err := p.attachReferrals(ctx, childNode, depth+1, maxDepth, visited); err != nil {
			return err
		}
		node.Referrals = append(node.Referrals, childNode)
	}
	return nil
}

func newTreeNode(u store.User) *TreeNode {
	return &TreeNode{
		UserID:                u.ID,
		Email:                 u.Email,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		ReferralCode:          u.ReferralCode,
		Status:                u.AffiliateStatus,
		TotalCommissionEarned: u.TotalCommissionEarned,
		JoinedAt:              u.CreatedAt,
		Referrals:             []*TreeNode{},
	}
}
