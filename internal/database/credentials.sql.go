package database

import "context"

const getStaffCredential = `-- name: GetStaffCredential :one
SELECT role, password_hash, updated_at FROM staff_credentials WHERE role = $1
`

func (q *Queries) GetStaffCredential(ctx context.Context, role string) (StaffCredential, error) {
	row := q.db.QueryRow(ctx, getStaffCredential, role)
	var i StaffCredential
	err := row.Scan(&i.Role, &i.PasswordHash, &i.UpdatedAt)
	return i, err
}

const upsertStaffCredential = `-- name: UpsertStaffCredential :one
INSERT INTO staff_credentials (role, password_hash)
VALUES ($1, $2)
ON CONFLICT (role) DO UPDATE
SET password_hash = EXCLUDED.password_hash, updated_at = now()
RETURNING role, password_hash, updated_at
`

type UpsertStaffCredentialParams struct {
	Role         string `json:"role"`
	PasswordHash string `json:"password_hash"`
}

func (q *Queries) UpsertStaffCredential(ctx context.Context, arg UpsertStaffCredentialParams) (StaffCredential, error) {
	row := q.db.QueryRow(ctx, upsertStaffCredential, arg.Role, arg.PasswordHash)
	var i StaffCredential
	err := row.Scan(&i.Role, &i.PasswordHash, &i.UpdatedAt)
	return i, err
}
