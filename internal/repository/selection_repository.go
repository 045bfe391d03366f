package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/ttb-planner-api/internal/models"
)

const selectionColumns = `id, user_id, name, semester, items, created_at, updated_at`

// SelectionRepository persists saved selections.
type SelectionRepository struct {
	db *sqlx.DB
}

// NewSelectionRepository constructs the repository.
func NewSelectionRepository(db *sqlx.DB) *SelectionRepository {
	return &SelectionRepository{db: db}
}

// Create inserts a selection, assigning id and timestamps when absent.
func (r *SelectionRepository) Create(ctx context.Context, selection *models.Selection) error {
	if selection == nil {
		return fmt.Errorf("selection payload is nil")
	}
	if selection.ID == "" {
		selection.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if selection.CreatedAt.IsZero() {
		selection.CreatedAt = now
	}
	selection.UpdatedAt = now

	items := selection.Items
	if items == nil {
		items = []models.SelectionItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal selection items: %w", err)
	}
	selection.RawItems = types.JSONText(raw)

	const query = `INSERT INTO selections (id, user_id, name, semester, items, created_at, updated_at)
VALUES (:id, :user_id, :name, :semester, :items, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, selection); err != nil {
		return fmt.Errorf("insert selection: %w", err)
	}
	return nil
}

// ListByUser returns the selections owned by a user, newest first.
func (r *SelectionRepository) ListByUser(ctx context.Context, userID string) ([]models.Selection, error) {
	query := `SELECT ` + selectionColumns + ` FROM selections WHERE user_id = $1 ORDER BY created_at DESC`
	var selections []models.Selection
	if err := r.db.SelectContext(ctx, &selections, query, userID); err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	for i := range selections {
		if err := decodeItems(&selections[i]); err != nil {
			return nil, err
		}
	}
	return selections, nil
}

// FindByID fetches a selection. Missing rows return sql.ErrNoRows.
func (r *SelectionRepository) FindByID(ctx context.Context, id string) (*models.Selection, error) {
	query := `SELECT ` + selectionColumns + ` FROM selections WHERE id = $1`
	var selection models.Selection
	if err := r.db.GetContext(ctx, &selection, query, id); err != nil {
		return nil, err
	}
	if err := decodeItems(&selection); err != nil {
		return nil, err
	}
	return &selection, nil
}

// Delete removes a selection by id.
func (r *SelectionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM selections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete selection: %w", err)
	}
	return nil
}

func decodeItems(selection *models.Selection) error {
	selection.Items = []models.SelectionItem{}
	if len(selection.RawItems) == 0 {
		return nil
	}
	if err := selection.RawItems.Unmarshal(&selection.Items); err != nil {
		return fmt.Errorf("decode selection %s items: %w", selection.ID, err)
	}
	return nil
}
