package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/finpost/voucher_posting_engine/internal/apperrors"
	portsrepo "github.com/finpost/voucher_posting_engine/internal/core/ports/repositories"
	portssvc "github.com/finpost/voucher_posting_engine/internal/core/ports/services"
)

// Company roles, most to least privileged.
const (
	RoleOwner      = "OWNER"
	RoleAccountant = "ACCOUNTANT"
	RoleMember     = "MEMBER"
	RoleViewer     = "VIEWER"
)

// rolePermissions maps each role to the permission keys it grants. Roles
// are not hierarchical in data; the grants below encode the hierarchy
// explicitly so a new key never leaks to lower roles by accident.
var rolePermissions = map[string]map[string]struct{}{
	RoleOwner: keySet(
		portssvc.PermVoucherCreate, portssvc.PermVoucherSubmit, portssvc.PermVoucherApprove,
		portssvc.PermVoucherConfirm, portssvc.PermVoucherPost, portssvc.PermVoucherUpdate,
		portssvc.PermVoucherCancel, portssvc.PermVoucherDelete, portssvc.PermVoucherReverse,
		portssvc.PermVoucherRead, portssvc.PermAccountManage, portssvc.PermLedgerRead,
	),
	RoleAccountant: keySet(
		portssvc.PermVoucherCreate, portssvc.PermVoucherSubmit, portssvc.PermVoucherApprove,
		portssvc.PermVoucherConfirm, portssvc.PermVoucherPost, portssvc.PermVoucherUpdate,
		portssvc.PermVoucherCancel, portssvc.PermVoucherReverse,
		portssvc.PermVoucherRead, portssvc.PermLedgerRead,
	),
	RoleMember: keySet(
		portssvc.PermVoucherCreate, portssvc.PermVoucherSubmit, portssvc.PermVoucherConfirm,
		portssvc.PermVoucherCancel, portssvc.PermVoucherRead, portssvc.PermLedgerRead,
	),
	RoleViewer: keySet(
		portssvc.PermVoucherRead, portssvc.PermLedgerRead,
	),
}

func keySet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return set
}

// permissionService authorizes actions from company membership roles.
type permissionService struct {
	memberships portsrepo.MembershipRepository
}

// NewPermissionService creates the role-based permission checker.
func NewPermissionService(memberships portsrepo.MembershipRepository) portssvc.PermissionSvcFacade {
	return &permissionService{memberships: memberships}
}

var _ portssvc.PermissionSvcFacade = (*permissionService)(nil)

// Authorize passes when the user's role in the company grants the
// permission key. Non-members get ErrForbidden, not ErrNotFound, so the
// response does not reveal company existence.
func (s *permissionService) Authorize(ctx context.Context, userID, companyID, permissionKey string) error {
	role, err := s.memberships.GetRole(ctx, companyID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: user %s is not a member of company %s", apperrors.ErrForbidden, userID, companyID)
		}
		return fmt.Errorf("failed to load membership role: %w", err)
	}

	grants, ok := rolePermissions[role]
	if !ok {
		return fmt.Errorf("%w: unknown role %s", apperrors.ErrForbidden, role)
	}
	if _, ok := grants[permissionKey]; !ok {
		return fmt.Errorf("%w: role %s lacks %s", apperrors.ErrForbidden, role, permissionKey)
	}
	return nil
}
