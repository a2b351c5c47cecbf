package sqlstore

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/rshade/billingfocus/coordinatortypes"
	"github.com/rshade/billingfocus/focus"
	"github.com/rshade/billingfocus/store"
)

// Store is the PostgreSQL implementation of store.Store. The zero
// value is not usable; use New.
type Store struct {
	DB *sqlx.DB
}

// New wraps an already-connected, already-migrated handle.
func New(db *sqlx.DB) *Store {
	return &Store{DB: db}
}

var _ store.Store = (*Store)(nil)

func newID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("sqlstore: generate id: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SaveRawBlob inserts blob and returns its generated id.
func (s *Store) SaveRawBlob(ctx context.Context, blob store.RawBlob) (string, error) {
	id, err := newID()
	if err != nil {
		return "", err
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO raw_billing_data (id, provider_id, source_name, payload, processed, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
	`, id, blob.ProviderID, blob.SourceName, blob.Payload, blob.CreatedAt)
	if err != nil {
		return "", fmt.Errorf("sqlstore: save raw blob: %w", err)
	}
	return id, nil
}

// MarkProcessed flips processed=true for every id in ids, returning the
// number of rows actually updated.
func (s *Store) MarkProcessed(ctx context.Context, ids []string, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`UPDATE raw_billing_data SET processed = true, processed_at = ? WHERE id IN (?) AND NOT processed`, at, ids)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: mark processed: %w", err)
	}
	query = s.DB.Rebind(query)
	result, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlstore: mark processed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlstore: mark processed: %w", err)
	}
	return int(n), nil
}

// UnprocessedBlobIDs returns up to limit raw blob ids not yet marked
// processed for providerID, oldest first. limit<=0 means unbounded.
func (s *Store) UnprocessedBlobIDs(ctx context.Context, providerID string, limit int) ([]string, error) {
	query := `
		SELECT id FROM raw_billing_data
		WHERE provider_id = $1 AND NOT processed
		ORDER BY created_at ASC
	`
	args := []any{providerID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var ids []string
	if err := s.DB.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("sqlstore: unprocessed blob ids: %w", err)
	}
	return ids, nil
}

// UpsertFocus merges records into billing_data on their merge key,
// inside a single transaction so the whole batch commits or none of
// it does.
func (s *Store) UpsertFocus(ctx context.Context, records []focus.Record) (store.UpsertResult, error) {
	if len(records) == 0 {
		return store.UpsertResult{}, nil
	}

	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return store.UpsertResult{}, fmt.Errorf("sqlstore: upsert focus: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var result store.UpsertResult
	for _, rec := range records {
		row, err := toRow(rec)
		if err != nil {
			return store.UpsertResult{}, fmt.Errorf("sqlstore: upsert focus: encode: %w", err)
		}

		var inserted bool
		stmt := `
			INSERT INTO billing_data (
				merge_key, billed_cost, effective_cost, list_cost, contracted_cost,
				billing_account_id, billing_account_name, billing_account_type, sub_account_id, sub_account_name, sub_account_type,
				billing_period_start, billing_period_end, charge_period_start, charge_period_end,
				billing_currency, pricing_currency,
				service_name, service_category, service_subcategory, provider_name, publisher_name, invoice_issuer_name,
				charge_category, charge_description, charge_class, charge_frequency, pricing_quantity, pricing_unit, consumed_quantity, consumed_unit,
				resource_id, resource_name, resource_type,
				region, availability_zone,
				sku_id, sku_price_id, sku_meter, sku_price_details, sku_description, pricing_category, list_unit_price, contracted_unit_price,
				pricing_currency_contracted_unit_price, pricing_currency_effective_cost, pricing_currency_list_unit_price,
				capacity_reservation_id, capacity_reservation_status,
				commitment_discount_id, commitment_discount_name, commitment_discount_status, commitment_discount_type, commitment_discount_category,
				commitment_discount_quantity, commitment_discount_unit,
				invoice_id, invoice_issuer, tags,
				x_provider_id, x_provider_data, x_raw_billing_data_id, x_created_at, x_updated_at,
				surrogate_id
			) VALUES (
				:merge_key, :billed_cost, :effective_cost, :list_cost, :contracted_cost,
				:billing_account_id, :billing_account_name, :billing_account_type, :sub_account_id, :sub_account_name, :sub_account_type,
				:billing_period_start, :billing_period_end, :charge_period_start, :charge_period_end,
				:billing_currency, :pricing_currency,
				:service_name, :service_category, :service_subcategory, :provider_name, :publisher_name, :invoice_issuer_name,
				:charge_category, :charge_description, :charge_class, :charge_frequency, :pricing_quantity, :pricing_unit, :consumed_quantity, :consumed_unit,
				:resource_id, :resource_name, :resource_type,
				:region, :availability_zone,
				:sku_id, :sku_price_id, :sku_meter, :sku_price_details, :sku_description, :pricing_category, :list_unit_price, :contracted_unit_price,
				:pricing_currency_contracted_unit_price, :pricing_currency_effective_cost, :pricing_currency_list_unit_price,
				:capacity_reservation_id, :capacity_reservation_status,
				:commitment_discount_id, :commitment_discount_name, :commitment_discount_status, :commitment_discount_type, :commitment_discount_category,
				:commitment_discount_quantity, :commitment_discount_unit,
				:invoice_id, :invoice_issuer, :tags,
				:x_provider_id, :x_provider_data, :x_raw_billing_data_id, :x_created_at, :x_updated_at,
				:surrogate_id
			)
			ON CONFLICT (merge_key) DO UPDATE SET
				billed_cost = EXCLUDED.billed_cost,
				effective_cost = EXCLUDED.effective_cost,
				list_cost = EXCLUDED.list_cost,
				contracted_cost = EXCLUDED.contracted_cost,
				x_provider_data = EXCLUDED.x_provider_data,
				x_updated_at = EXCLUDED.x_updated_at
			RETURNING (xmax = 0) AS inserted
		`
		named, err := tx.PrepareNamedContext(ctx, stmt)
		if err != nil {
			return store.UpsertResult{}, fmt.Errorf("sqlstore: upsert focus: prepare: %w", err)
		}
		err = named.GetContext(ctx, &inserted, row)
		closeErr := named.Close()
		if err != nil {
			return store.UpsertResult{}, fmt.Errorf("sqlstore: upsert focus: exec: %w", err)
		}
		if closeErr != nil {
			return store.UpsertResult{}, fmt.Errorf("sqlstore: upsert focus: close stmt: %w", closeErr)
		}

		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return store.UpsertResult{}, fmt.Errorf("sqlstore: upsert focus: commit: %w", err)
	}
	return result, nil
}

// GetProvider returns providerID's configuration, or nil if not found.
func (s *Store) GetProvider(ctx context.Context, id string) (*coordinatortypes.Provider, error) {
	var row struct {
		ID         string `db:"id"`
		TypeTag    string `db:"type_tag"`
		Name       string `db:"name"`
		AuthConfig []byte `db:"auth_config"`
		Config     []byte `db:"config"`
		Enabled    bool   `db:"enabled"`
	}
	err := s.DB.GetContext(ctx, &row, `SELECT id, type_tag, name, auth_config, config, enabled FROM providers WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get provider: %w", err)
	}

	provider := &coordinatortypes.Provider{ID: row.ID, TypeTag: row.TypeTag, Name: row.Name, Enabled: row.Enabled}
	if err := json.Unmarshal(row.AuthConfig, &provider.AuthConfig); err != nil {
		return nil, fmt.Errorf("sqlstore: get provider: decode auth_config: %w", err)
	}
	if err := json.Unmarshal(row.Config, &provider.Config); err != nil {
		return nil, fmt.Errorf("sqlstore: get provider: decode config: %w", err)
	}
	return provider, nil
}

// SaveRun inserts a new pipeline_runs row.
func (s *Store) SaveRun(ctx context.Context, run coordinatortypes.PipelineRun) error {
	_, err := s.DB.NamedExecContext(ctx, `
		INSERT INTO pipeline_runs (
			id, provider_id, window_start, window_end, run_type, status, started_at,
			completed_at, counters_extracted, counters_transformed, counters_loaded, counters_failed, error_message
		) VALUES (
			:id, :provider_id, :window_start, :window_end, :run_type, :status, :started_at,
			:completed_at, :counters_extracted, :counters_transformed, :counters_loaded, :counters_failed, :error_message
		)
	`, runRowFromDomain(run))
	if err != nil {
		return fmt.Errorf("sqlstore: save run: %w", err)
	}
	return nil
}

// UpdateRun overwrites run's mutable fields (status, completion, counters).
func (s *Store) UpdateRun(ctx context.Context, run coordinatortypes.PipelineRun) error {
	_, err := s.DB.NamedExecContext(ctx, `
		UPDATE pipeline_runs SET
			status = :status,
			completed_at = :completed_at,
			counters_extracted = :counters_extracted,
			counters_transformed = :counters_transformed,
			counters_loaded = :counters_loaded,
			counters_failed = :counters_failed,
			error_message = :error_message
		WHERE id = :id
	`, runRowFromDomain(run))
	if err != nil {
		return fmt.Errorf("sqlstore: update run: %w", err)
	}
	return nil
}

// GetRun returns runID, or nil if not found.
func (s *Store) GetRun(ctx context.Context, id string) (*coordinatortypes.PipelineRun, error) {
	var row runRow
	err := s.DB.GetContext(ctx, &row, `
		SELECT id, provider_id, window_start, window_end, run_type, status, started_at,
			completed_at, counters_extracted, counters_transformed, counters_loaded, counters_failed, error_message
		FROM pipeline_runs WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlstore: get run: %w", err)
	}
	run := row.toDomain()
	return &run, nil
}

// ListRuns returns providerID's runs, most recently started first,
// capped at limit (0 means unbounded).
func (s *Store) ListRuns(ctx context.Context, providerID string, limit int) ([]coordinatortypes.PipelineRun, error) {
	query := `
		SELECT id, provider_id, window_start, window_end, run_type, status, started_at,
			completed_at, counters_extracted, counters_transformed, counters_loaded, counters_failed, error_message
		FROM pipeline_runs WHERE provider_id = $1
		ORDER BY started_at DESC
	`
	args := []any{providerID}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var rows []runRow
	if err := s.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("sqlstore: list runs: %w", err)
	}

	runs := make([]coordinatortypes.PipelineRun, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, row.toDomain())
	}
	return runs, nil
}
