package app

import (
	"context"

	"pressroom/api/internal/rbac"
)

type RoleInput struct {
	Role string `json:"role"`
}

func (s *Service) ListUsers(ctx context.Context, session Session) ([]map[string]any, error) {
	if !s.CanAdminister(session) {
		return nil, errForbidden()
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(users))
	for _, user := range users {
		items = append(items, map[string]any{
			"id":          user.ID,
			"displayName": user.DisplayName,
			"email":       user.Email,
			"roles":       user.Roles,
			"createdAt":   user.CreatedAt,
		})
	}
	return items, nil
}

// GrantRole assigns a role to a user. Role changes take effect on the
// target's next token refresh; their outstanding access tokens keep the old
// grants until they expire.
func (s *Service) GrantRole(ctx context.Context, session Session, userID string, input RoleInput) error {
	role, err := s.adminRoleChange(ctx, session, userID, input)
	if err != nil {
		return err
	}
	return s.store.GrantRole(ctx, userID, string(role))
}

func (s *Service) RevokeRole(ctx context.Context, session Session, userID string, input RoleInput) error {
	role, err := s.adminRoleChange(ctx, session, userID, input)
	if err != nil {
		return err
	}
	return s.store.RevokeRole(ctx, userID, string(role))
}

func (s *Service) adminRoleChange(ctx context.Context, session Session, userID string, input RoleInput) (rbac.Role, error) {
	if !s.CanAdminister(session) {
		return "", errForbidden()
	}
	role, ok := rbac.Normalize(input.Role)
	if !ok {
		return "", errValidation("unknown role", map[string]any{"role": input.Role})
	}
	if _, err := s.store.GetUserByID(ctx, userID); err != nil {
		return "", err
	}
	return role, nil
}
