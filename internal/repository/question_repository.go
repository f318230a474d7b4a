package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/cognify-api/internal/models"
)

const questionColumns = `id, text, options, correct_answer, author_id, created_at, updated_at`

// QuestionRepository persists the standalone question bank.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository constructs the repository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// Create inserts a new bank question.
func (r *QuestionRepository) Create(ctx context.Context, question *models.BankQuestion) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if question.CreatedAt.IsZero() {
		question.CreatedAt = now
	}
	question.UpdatedAt = now
	const query = `INSERT INTO question_bank (id, text, options, correct_answer, author_id, created_at, updated_at)
	VALUES (:id, :text, :options, :correct_answer, :author_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("create bank question: %w", err)
	}
	return nil
}

// GetByID fetches one bank question.
func (r *QuestionRepository) GetByID(ctx context.Context, id string) (*models.BankQuestion, error) {
	query := fmt.Sprintf(`SELECT %s FROM question_bank WHERE id = $1`, questionColumns)
	var question models.BankQuestion
	if err := r.db.GetContext(ctx, &question, query, id); err != nil {
		return nil, err
	}
	return &question, nil
}

// List returns bank questions matching the filter plus the total count.
func (r *QuestionRepository) List(ctx context.Context, filter models.BankQuestionFilter) ([]models.BankQuestion, int, error) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if filter.AuthorID != "" {
		args = append(args, filter.AuthorID)
		conditions = append(conditions, fmt.Sprintf("author_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("text ILIKE $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM question_bank"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count bank questions: %w", err)
	}

	page, pageSize := models.NormalizePage(filter.Page, filter.PageSize)
	query := fmt.Sprintf(`SELECT %s FROM question_bank%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		questionColumns, where, pageSize, (page-1)*pageSize)

	var questions []models.BankQuestion
	if err := r.db.SelectContext(ctx, &questions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bank questions: %w", err)
	}
	return questions, total, nil
}

// Update persists mutable question fields.
func (r *QuestionRepository) Update(ctx context.Context, question *models.BankQuestion) error {
	question.UpdatedAt = time.Now().UTC()
	const query = `UPDATE question_bank SET text = :text, options = :options,
	correct_answer = :correct_answer, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("update bank question: %w", err)
	}
	return nil
}

// Delete removes a bank question.
func (r *QuestionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM question_bank WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete bank question: %w", err)
	}
	return nil
}
