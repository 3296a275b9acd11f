package workspace

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"teamspace.org/internal/ids"
)

const pgUniqueViolation = "23505"

var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. The compound atomics run inside
// a single transaction; uniqueness violations surface as ErrConflict.
type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateWorkspaceWithOwner(ctx context.Context, name string, isPublic bool, ownerID string) (*Workspace, error) {
	ws := &Workspace{
		ID:        ids.New(),
		Name:      name,
		IsPublic:  isPublic,
		CreatedAt: time.Now().UTC(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`insert into workspaces(id, name, is_public, created_at) values($1,$2,$3,$4)`,
		ws.ID, ws.Name, ws.IsPublic, ws.CreatedAt,
	); err != nil {
		return nil, translateConflict(err)
	}
	if _, err := tx.ExecContext(ctx,
		`insert into workspace_members(workspace_id, user_id, role, created_at) values($1,$2,$3,$4)`,
		ws.ID, ownerID, RoleOwner, ws.CreatedAt,
	); err != nil {
		return nil, translateConflict(err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ws, nil
}

func (s *PGStore) FindWorkspaceByID(ctx context.Context, id string) (*Workspace, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, is_public, created_at from workspaces where id=$1`, id)
	var ws Workspace
	if err := row.Scan(&ws.ID, &ws.Name, &ws.IsPublic, &ws.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ws, nil
}

func (s *PGStore) FindAllByUser(ctx context.Context, userID string) ([]Workspace, error) {
	rows, err := s.db.QueryContext(ctx,
		`select w.id, w.name, w.is_public, w.created_at
		 from workspaces w
		 join workspace_members m on m.workspace_id = w.id
		 where m.user_id=$1
		 order by w.created_at asc`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Workspace
	for rows.Next() {
		var ws Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.IsPublic, &ws.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, ws)
	}
	return list, rows.Err()
}

func (s *PGStore) FindByOwnerAndName(ctx context.Context, ownerID, name string) ([]Workspace, error) {
	rows, err := s.db.QueryContext(ctx,
		`select w.id, w.name, w.is_public, w.created_at
		 from workspaces w
		 join workspace_members m on m.workspace_id = w.id
		 where m.user_id=$1 and m.role=$2 and w.name=$3`, ownerID, RoleOwner, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Workspace
	for rows.Next() {
		var ws Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.IsPublic, &ws.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, ws)
	}
	return list, rows.Err()
}

func (s *PGStore) FindMembership(ctx context.Context, userID, workspaceID string) (*Membership, error) {
	row := s.db.QueryRowContext(ctx,
		`select workspace_id, user_id, role, created_at from workspace_members
		 where workspace_id=$1 and user_id=$2`, workspaceID, userID)
	var m Membership
	if err := row.Scan(&m.WorkspaceID, &m.UserID, &m.Role, &m.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (s *PGStore) FindMembersByWorkspace(ctx context.Context, workspaceID string) ([]Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`select m.user_id, u.email, m.role, m.created_at
		 from workspace_members m
		 join users u on u.id = m.user_id
		 where m.workspace_id=$1
		 order by m.created_at asc`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(&m.UserID, &m.Email, &m.Role, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *PGStore) RemoveMembership(ctx context.Context, workspaceID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`delete from workspace_members where workspace_id=$1 and user_id=$2`, workspaceID, userID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) CreateInvitation(ctx context.Context, workspaceID, inviterID, inviteeID string) (*Invitation, error) {
	now := time.Now().UTC()
	inv := &Invitation{
		ID:          ids.New(),
		WorkspaceID: workspaceID,
		InviterID:   inviterID,
		InviteeID:   inviteeID,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx,
		`insert into workspace_invitations(id, workspace_id, inviter_id, invitee_id, status, created_at, updated_at)
		 values($1,$2,$3,$4,$5,$6,$7)`,
		inv.ID, inv.WorkspaceID, inv.InviterID, inv.InviteeID, inv.Status, inv.CreatedAt, inv.UpdatedAt,
	)
	if err != nil {
		return nil, translateConflict(err)
	}
	return inv, nil
}

func (s *PGStore) FindPendingInvitation(ctx context.Context, workspaceID, inviteeID string) (*Invitation, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, workspace_id, inviter_id, invitee_id, status, created_at, updated_at
		 from workspace_invitations
		 where workspace_id=$1 and invitee_id=$2 and status=$3`,
		workspaceID, inviteeID, StatusPending)
	return scanInvitation(row)
}

func (s *PGStore) FindPendingInvitationsByUser(ctx context.Context, userID string) ([]PendingInvitation, error) {
	rows, err := s.db.QueryContext(ctx,
		`select i.id, i.workspace_id, i.inviter_id, i.invitee_id, i.status, i.created_at, i.updated_at,
		        w.id, w.name, w.is_public, u.id, u.email
		 from workspace_invitations i
		 join workspaces w on w.id = i.workspace_id
		 join users u on u.id = i.inviter_id
		 where i.invitee_id=$1 and i.status=$2
		 order by i.created_at desc`, userID, StatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []PendingInvitation
	for rows.Next() {
		var p PendingInvitation
		if err := rows.Scan(
			&p.ID, &p.WorkspaceID, &p.InviterID, &p.InviteeID, &p.Status, &p.CreatedAt, &p.UpdatedAt,
			&p.Workspace.ID, &p.Workspace.Name, &p.Workspace.IsPublic, &p.Inviter.ID, &p.Inviter.Email,
		); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (s *PGStore) FindInvitationByID(ctx context.Context, id string) (*Invitation, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, workspace_id, inviter_id, invitee_id, status, created_at, updated_at
		 from workspace_invitations where id=$1`, id)
	return scanInvitation(row)
}

func (s *PGStore) AcceptInvitationAtomic(ctx context.Context, invitationID, userID, workspaceID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`update workspace_invitations set status=$1, updated_at=$2 where id=$3 and status=$4`,
		StatusAccepted, time.Now().UTC(), invitationID, StatusPending)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// A concurrent accept or decline already closed the invitation.
		return ErrConflict
	}

	if _, err := tx.ExecContext(ctx,
		`insert into workspace_members(workspace_id, user_id, role, created_at) values($1,$2,$3,$4)`,
		workspaceID, userID, RoleMember, time.Now().UTC(),
	); err != nil {
		return translateConflict(err)
	}

	return tx.Commit()
}

func (s *PGStore) DeclineInvitation(ctx context.Context, invitationID string) error {
	res, err := s.db.ExecContext(ctx,
		`update workspace_invitations set status=$1, updated_at=$2 where id=$3 and status=$4`,
		StatusDeclined, time.Now().UTC(), invitationID, StatusPending)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrConflict
	}
	return nil
}

func scanInvitation(row *sql.Row) (*Invitation, error) {
	var inv Invitation
	if err := row.Scan(&inv.ID, &inv.WorkspaceID, &inv.InviterID, &inv.InviteeID, &inv.Status, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func translateConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrConflict
	}
	return err
}
