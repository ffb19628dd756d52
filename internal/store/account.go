package store

import (
	"context"
	"strings"
	"time"

	"github.com/dutyroster/apiserver/types"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const accountColumns = `
	id, name, login, password_hash, is_admin, is_active, is_password_set, last_login,
	phone, email, department, class_name, gender, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// AccountRepository handles persistence for accounts.
type AccountRepository struct {
	db DBTX
}

func NewAccountRepository(db DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id int) (types.Account, error) {
	const query = `SELECT` + accountColumns + ` FROM accounts WHERE id = $1`
	var acc types.Account
	if err := sqlx.GetContext(ctx, r.db, &acc, query, id); err != nil {
		return types.Account{}, mapError(err)
	}
	return acc, nil
}

func (r *AccountRepository) GetByLogin(ctx context.Context, login string) (types.Account, error) {
	const query = `SELECT` + accountColumns + ` FROM accounts WHERE login = $1`
	var acc types.Account
	if err := sqlx.GetContext(ctx, r.db, &acc, query, login); err != nil {
		return types.Account{}, mapError(err)
	}
	return acc, nil
}

// List returns accounts ordered by login. A non-empty search matches the
// login exactly or any part of the name.
func (r *AccountRepository) List(ctx context.Context, search string) ([]types.Account, error) {
	query := `SELECT` + accountColumns + ` FROM accounts`
	var args []any
	if search != "" {
		query += ` WHERE login = $1 OR name LIKE '%' || $2 || '%' ESCAPE '\'`
		args = append(args, search, likeEscaper.Replace(search))
	}
	query += ` ORDER BY login ASC`

	accounts := []types.Account{}
	if err := sqlx.SelectContext(ctx, r.db, &accounts, query, args...); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Names maps account ids to display names. Unknown ids are absent.
func (r *AccountRepository) Names(ctx context.Context, ids []int) (map[int]string, error) {
	names := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	keys := make([]int64, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, int64(id))
	}

	const query = `SELECT id, name FROM accounts WHERE id = ANY($1)`
	rows, err := r.db.QueryxContext(ctx, query, pq.Array(keys))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

func (r *AccountRepository) Create(ctx context.Context, acc types.Account) (types.Account, error) {
	now := time.Now()
	acc.CreatedAt = now
	acc.UpdatedAt = now

	const query = `
		INSERT INTO accounts (
			name, login, password_hash, is_admin, is_active, is_password_set, last_login,
			phone, email, department, class_name, gender, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	if err := r.db.QueryRowxContext(
		ctx,
		query,
		acc.Name,
		acc.Login,
		acc.PasswordHash,
		acc.IsAdmin,
		acc.IsActive,
		acc.IsPasswordSet,
		acc.LastLogin,
		acc.Phone,
		acc.Email,
		acc.Department,
		acc.ClassName,
		acc.Gender,
		acc.CreatedAt,
		acc.UpdatedAt,
	).Scan(&acc.ID); err != nil {
		return types.Account{}, mapError(err)
	}
	return acc, nil
}

// Update writes every mutable column of acc.
func (r *AccountRepository) Update(ctx context.Context, acc types.Account) (types.Account, error) {
	acc.UpdatedAt = time.Now()

	const query = `
		UPDATE accounts
		SET name = $1,
			password_hash = $2,
			is_admin = $3,
			is_active = $4,
			is_password_set = $5,
			last_login = $6,
			phone = $7,
			email = $8,
			department = $9,
			class_name = $10,
			gender = $11,
			updated_at = $12
		WHERE id = $13`
	result, err := r.db.ExecContext(
		ctx,
		query,
		acc.Name,
		acc.PasswordHash,
		acc.IsAdmin,
		acc.IsActive,
		acc.IsPasswordSet,
		acc.LastLogin,
		acc.Phone,
		acc.Email,
		acc.Department,
		acc.ClassName,
		acc.Gender,
		acc.UpdatedAt,
		acc.ID,
	)
	if err != nil {
		return types.Account{}, mapError(err)
	}
	if err := checkAffected(result); err != nil {
		return types.Account{}, err
	}
	return acc, nil
}

func (r *AccountRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM accounts WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffected(result)
}
