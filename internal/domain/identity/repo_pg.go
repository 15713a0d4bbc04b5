package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
	"github.com/hms/hms/pkg/date"
)

const (
	constraintEmail    = "users_info_email_key"
	constraintUserRole = "user_roles_document_role_key"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

const userCols = `num_document, type_document, name, surname, sex, birthday,
	address, phone, email, created_at, updated_at`

func (r *repoPG) CreateUser(ctx context.Context, u *UserInfo) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users_info (num_document, type_document, name, surname, sex, birthday, address, phone, email)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`,
		u.NumDocument, u.TypeDocument, u.Name, u.Surname, u.Sex, dateArg(u.Birthday),
		u.Address, u.Phone, u.Email,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return mapUserErr(err)
}

func (r *repoPG) GetUser(ctx context.Context, numDocument string) (*UserInfo, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+userCols+` FROM users_info WHERE num_document = $1`, numDocument)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *repoPG) UpdateUser(ctx context.Context, u *UserInfo) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE users_info SET
			type_document=$2, name=$3, surname=$4, sex=$5, birthday=$6,
			address=$7, phone=$8, email=$9, updated_at=NOW()
		WHERE num_document = $1
		RETURNING updated_at`,
		u.NumDocument, u.TypeDocument, u.Name, u.Surname, u.Sex, dateArg(u.Birthday),
		u.Address, u.Phone, u.Email,
	).Scan(&u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUserNotFound
	}
	return mapUserErr(err)
}

func (r *repoPG) AddRole(ctx context.Context, ident *Identity) error {
	ident.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO user_roles (id, num_document, role, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		ident.ID, ident.NumDocument, string(ident.Role), ident.IsActive,
	).Scan(&ident.CreatedAt)
	return mapUserErr(err)
}

const roleCols = `id, num_document, role, is_active, inactive_since, created_at`

func (r *repoPG) GetRole(ctx context.Context, numDocument string, role Role) (*Identity, error) {
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+roleCols+` FROM user_roles
		WHERE num_document = $1 AND role = $2`, numDocument, string(role))
	ident, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ident, err
}

func (r *repoPG) GetRoleLocked(ctx context.Context, numDocument string, role Role, lock RowLock) (*Identity, error) {
	clause := " FOR SHARE"
	if lock == LockUpdate {
		clause = " FOR UPDATE"
	}
	row := r.conn(ctx).QueryRow(ctx, `SELECT `+roleCols+` FROM user_roles
		WHERE num_document = $1 AND role = $2`+clause, numDocument, string(role))
	ident, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ident, err
}

func (r *repoPG) ListRoles(ctx context.Context, numDocument string) ([]*Identity, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+roleCols+` FROM user_roles
		WHERE num_document = $1 ORDER BY role`, numDocument)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Identity
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ident)
	}
	return items, rows.Err()
}

func (r *repoPG) SetActive(ctx context.Context, id uuid.UUID, active bool, since *time.Time) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE user_roles SET is_active = $2, inactive_since = $3 WHERE id = $1`,
		id, active, since)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, role Role, activeOnly bool, limit, offset int) ([]*Member, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM user_roles
		WHERE role = $1 AND ($2 = FALSE OR is_active)`, string(role), activeOnly).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT u.num_document, u.type_document, u.name, u.surname, u.sex, u.birthday,
			u.address, u.phone, u.email, u.created_at, u.updated_at, r.role, r.is_active
		FROM user_roles r
		JOIN users_info u ON u.num_document = r.num_document
		WHERE r.role = $1 AND ($2 = FALSE OR r.is_active)
		ORDER BY u.surname NULLS LAST, u.name NULLS LAST, u.num_document
		LIMIT $3 OFFSET $4`, string(role), activeOnly, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Member
	for rows.Next() {
		var m Member
		var birthday *time.Time
		var role string
		if err := rows.Scan(&m.NumDocument, &m.TypeDocument, &m.Name, &m.Surname, &m.Sex, &birthday,
			&m.Address, &m.Phone, &m.Email, &m.CreatedAt, &m.UpdatedAt, &role, &m.IsActive); err != nil {
			return nil, 0, err
		}
		m.Birthday = date.Ptr(birthday)
		m.Role = Role(role)
		items = append(items, &m)
	}
	return items, total, rows.Err()
}

func (r *repoPG) GetResponsible(ctx context.Context, patientID uuid.UUID) (*Responsible, error) {
	var resp Responsible
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT patient_id, num_doc_responsible, type_doc_responsible, name_responsible,
			surname_responsible, phone_responsible, relationship_responsible
		FROM patient_info WHERE patient_id = $1`, patientID).Scan(
		&resp.PatientID, &resp.NumDocument, &resp.TypeDocument, &resp.Name,
		&resp.Surname, &resp.Phone, &resp.Relationship)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (r *repoPG) SetResponsible(ctx context.Context, resp *Responsible) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_info (patient_id, num_doc_responsible, type_doc_responsible, name_responsible,
			surname_responsible, phone_responsible, relationship_responsible)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (patient_id) DO UPDATE SET
			num_doc_responsible = EXCLUDED.num_doc_responsible,
			type_doc_responsible = EXCLUDED.type_doc_responsible,
			name_responsible = EXCLUDED.name_responsible,
			surname_responsible = EXCLUDED.surname_responsible,
			phone_responsible = EXCLUDED.phone_responsible,
			relationship_responsible = EXCLUDED.relationship_responsible`,
		resp.PatientID, resp.NumDocument, resp.TypeDocument, resp.Name,
		resp.Surname, resp.Phone, resp.Relationship)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scanner) (*UserInfo, error) {
	var u UserInfo
	var birthday *time.Time
	if err := row.Scan(&u.NumDocument, &u.TypeDocument, &u.Name, &u.Surname, &u.Sex, &birthday,
		&u.Address, &u.Phone, &u.Email, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Birthday = date.Ptr(birthday)
	return &u, nil
}

func scanIdentity(row scanner) (*Identity, error) {
	var ident Identity
	var role string
	var since *time.Time
	if err := row.Scan(&ident.ID, &ident.NumDocument, &role, &ident.IsActive, &since, &ident.CreatedAt); err != nil {
		return nil, err
	}
	ident.Role = Role(role)
	ident.InactiveSince = date.Ptr(since)
	return &ident, nil
}

func dateArg(d *date.Date) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}

func mapUserErr(err error) error {
	if err == nil {
		return nil
	}
	if uv := db.AsUniqueViolation(err); uv != nil {
		switch uv.Constraint {
		case constraintEmail:
			return ErrEmailInUse
		case constraintUserRole:
			return ErrRoleExists
		}
	}
	return fmt.Errorf("identity store: %w", err)
}
