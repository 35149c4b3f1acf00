package devserver

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresAccountRepository persists accounts in Postgres.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAccountRepository creates the repository over an existing pool.
func NewPostgresAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

const accountColumns = "uid, username, email, display_name, avatar_url, bio, verified, password_hash, created_at"

func (r *PostgresAccountRepository) Create(ctx context.Context, acct Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (uid, username, email, display_name, avatar_url, bio, verified, password_hash, created_at)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8, $9)
	`, acct.UID, acct.Username, acct.Email, acct.DisplayName, acct.AvatarURL, acct.Bio, acct.Verified, acct.PasswordHash, acct.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrTaken
	}
	return err
}

func (r *PostgresAccountRepository) GetByUID(ctx context.Context, uid string) (Account, bool, error) {
	return r.getOne(ctx, "SELECT "+accountColumns+" FROM accounts WHERE uid = $1", uid)
}

func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (Account, bool, error) {
	return r.getOne(ctx, "SELECT "+accountColumns+" FROM accounts WHERE email = lower($1)", email)
}

func (r *PostgresAccountRepository) GetByUsername(ctx context.Context, username string) (Account, bool, error) {
	return r.getOne(ctx, "SELECT "+accountColumns+" FROM accounts WHERE lower(username) = lower($1)", username)
}

func (r *PostgresAccountRepository) Update(ctx context.Context, acct Account) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET display_name = $2, avatar_url = $3, bio = $4, verified = $5, password_hash = $6
		WHERE uid = $1
	`, acct.UID, acct.DisplayName, acct.AvatarURL, acct.Bio, acct.Verified, acct.PasswordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("account not found")
	}
	return nil
}

func (r *PostgresAccountRepository) getOne(ctx context.Context, query string, arg any) (Account, bool, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	acct, err := scanAccount(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, false, nil
	}
	if err != nil {
		return Account{}, false, err
	}
	return acct, true, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var acct Account
	var created time.Time
	err := row.Scan(&acct.UID, &acct.Username, &acct.Email, &acct.DisplayName, &acct.AvatarURL, &acct.Bio, &acct.Verified, &acct.PasswordHash, &created)
	if err != nil {
		return Account{}, err
	}
	acct.CreatedAt = created.UTC()
	return acct, nil
}

var _ AccountRepository = (*PostgresAccountRepository)(nil)
