package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cognify-api/internal/models"
)

func TestQuestionCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	mock.ExpectExec("INSERT INTO question_bank").WillReturnResult(sqlmock.NewResult(0, 1))

	question := &models.BankQuestion{
		Text:          "What is 2+2?",
		Options:       models.OptionList{"3", "4"},
		CorrectAnswer: 1,
		AuthorID:      "faculty-1",
	}
	require.NoError(t, repo.Create(context.Background(), question))
	assert.NotEmpty(t, question.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuestionListScopedToAuthor(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewQuestionRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM question_bank WHERE author_id = \$1`).
		WithArgs("faculty-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT (.+) FROM question_bank WHERE author_id = \$1 ORDER BY created_at DESC`).
		WithArgs("faculty-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "text", "options", "correct_answer", "author_id", "created_at", "updated_at"}).
			AddRow("q-1", "What is 2+2?", []byte(`["3","4"]`), 1, "faculty-1", now, now))

	questions, total, err := repo.List(context.Background(), models.BankQuestionFilter{AuthorID: "faculty-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, questions, 1)
	assert.Equal(t, models.OptionList{"3", "4"}, questions[0].Options)
	assert.NoError(t, mock.ExpectationsWereMet())
}
