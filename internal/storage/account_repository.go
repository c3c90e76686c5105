package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/accesslog-scanner/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AccountRepository handles hosting account persistence for the admin
// surface.
type AccountRepository struct {
	db *PostgresDB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *PostgresDB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts a new account. An ID is generated when the caller did not
// provide one.
func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}

	query := `
		INSERT INTO account (
			id, customer_id, name, email, password, contract_type,
			disk_quota, traffic_quota, availabled_on, unavailabled_on
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`

	err := r.db.Pool().QueryRow(ctx, query,
		account.ID,
		account.CustomerID,
		account.Name,
		account.Email,
		account.Password,
		account.ContractType,
		account.DiskQuota,
		account.TrafficQuota,
		account.AvailabledOn,
		account.UnavailabledOn,
	).Scan(&account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT id, customer_id, name, email, password, contract_type,
			   disk_quota, traffic_quota, availabled_on, unavailabled_on,
			   created_at, updated_at
		FROM account
		WHERE id = $1
	`

	var account models.Account

	err := r.db.Pool().QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.CustomerID,
		&account.Name,
		&account.Email,
		&account.Password,
		&account.ContractType,
		&account.DiskQuota,
		&account.TrafficQuota,
		&account.AvailabledOn,
		&account.UnavailabledOn,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("account not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

// List retrieves accounts ordered by newest first, with limit/offset
// pagination. It also returns the total row count for page calculation.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, int64, error) {
	var total int64
	if err := r.db.Pool().QueryRow(ctx, `SELECT count(*) FROM account`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count accounts: %w", err)
	}

	query := `
		SELECT id, customer_id, name, email, password, contract_type,
			   disk_quota, traffic_quota, availabled_on, unavailabled_on,
			   created_at, updated_at
		FROM account
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Pool().Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*models.Account
	for rows.Next() {
		var account models.Account

		err := rows.Scan(
			&account.ID,
			&account.CustomerID,
			&account.Name,
			&account.Email,
			&account.Password,
			&account.ContractType,
			&account.DiskQuota,
			&account.TrafficQuota,
			&account.AvailabledOn,
			&account.UnavailabledOn,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan account: %w", err)
		}

		accounts = append(accounts, &account)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating accounts: %w", err)
	}

	return accounts, total, nil
}

// Update updates an existing account
func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE account
		SET customer_id = $2, name = $3, email = $4, password = $5,
			contract_type = $6, disk_quota = $7, traffic_quota = $8,
			availabled_on = $9, unavailabled_on = $10, updated_at = now()
		WHERE id = $1
	`

	result, err := r.db.Pool().Exec(ctx, query,
		account.ID,
		account.CustomerID,
		account.Name,
		account.Email,
		account.Password,
		account.ContractType,
		account.DiskQuota,
		account.TrafficQuota,
		account.AvailabledOn,
		account.UnavailabledOn,
	)

	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", account.ID)
	}

	return nil
}

// Delete removes an account by ID
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM account WHERE id = $1`

	result, err := r.db.Pool().Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("account not found: %s", id)
	}

	return nil
}
