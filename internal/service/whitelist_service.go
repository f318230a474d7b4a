package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/cognify-api/internal/models"
	appErrors "github.com/noah-isme/cognify-api/pkg/errors"
)

type whitelistStore interface {
	Create(ctx context.Context, entry *models.WhitelistEntry) error
	GetByID(ctx context.Context, id string) (*models.WhitelistEntry, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter models.WhitelistFilter) ([]models.WhitelistEntry, int, error)
	Update(ctx context.Context, entry *models.WhitelistEntry) error
	Delete(ctx context.Context, id string) error
}

// WhitelistService manages the registration whitelist, including bulk
// imports from CSV or JSON files.
type WhitelistService struct {
	repo      whitelistStore
	activity  ActivityRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWhitelistService constructs the service.
func NewWhitelistService(repo whitelistStore, activity ActivityRecorder, validate *validator.Validate, logger *zap.Logger) *WhitelistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &WhitelistService{repo: repo, activity: activity, validator: validate, logger: logger}
}

// roleForActor limits which roles an actor may whitelist. Faculty only
// pre-approve students; admins pre-approve anyone.
func roleForActor(actor *models.JWTClaims, requested models.UserRole) (models.UserRole, error) {
	if actor.Role == models.RoleAdmin {
		return requested, nil
	}
	if requested != models.RoleStudent {
		return "", appErrors.Clone(appErrors.ErrForbidden, "faculty can only whitelist students")
	}
	return models.RoleStudent, nil
}

// Create adds one entry.
func (s *WhitelistService) Create(ctx context.Context, req models.CreateWhitelistRequest, actor *models.JWTClaims) (*models.WhitelistEntry, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid whitelist payload")
	}
	role, err := roleForActor(actor, req.Role)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check whitelist")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "this email is already whitelisted")
	}

	entry := &models.WhitelistEntry{
		Email:           strings.ToLower(strings.TrimSpace(req.Email)),
		FirstName:       req.FirstName,
		MiddleName:      req.MiddleName,
		LastName:        req.LastName,
		InstitutionalID: req.InstitutionalID,
		Role:            role,
		Department:      req.Department,
		Status:          models.WhitelistStatusPending,
		AddedBy:         actor.UserID,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Internal(err, "failed to create whitelist entry")
	}
	s.record(actor.UserID, "whitelist.create", entry.ID, entry.Email)
	return entry, nil
}

// Get fetches one entry.
func (s *WhitelistService) Get(ctx context.Context, id string) (*models.WhitelistEntry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load whitelist entry")
	}
	return entry, nil
}

// List returns entries matching the filter. Faculty only see students.
func (s *WhitelistService) List(ctx context.Context, filter models.WhitelistFilter, actor *models.JWTClaims) ([]models.WhitelistEntry, int, error) {
	if actor == nil {
		return nil, 0, appErrors.ErrUnauthorized
	}
	if actor.Role == models.RoleFaculty {
		student := models.RoleStudent
		filter.Role = &student
	}
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Internal(err, "failed to list whitelist")
	}
	return entries, total, nil
}

// Update edits an entry that has not yet been claimed.
func (s *WhitelistService) Update(ctx context.Context, id string, req models.UpdateWhitelistRequest, actor *models.JWTClaims) (*models.WhitelistEntry, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid whitelist payload")
	}

	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Internal(err, "failed to load whitelist entry")
	}
	if entry.Status == models.WhitelistStatusRegistered {
		return nil, appErrors.Clone(appErrors.ErrConflict, "entry was already used to register and cannot be edited")
	}

	if req.Email != nil {
		entry.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.FirstName != nil {
		entry.FirstName = *req.FirstName
	}
	if req.MiddleName != nil {
		entry.MiddleName = req.MiddleName
	}
	if req.LastName != nil {
		entry.LastName = *req.LastName
	}
	if req.InstitutionalID != nil {
		entry.InstitutionalID = *req.InstitutionalID
	}
	if req.Department != nil {
		entry.Department = req.Department
	}
	if req.Role != nil {
		role, err := roleForActor(actor, *req.Role)
		if err != nil {
			return nil, err
		}
		entry.Role = role
	}

	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, appErrors.Internal(err, "failed to update whitelist entry")
	}
	s.record(actor.UserID, "whitelist.update", entry.ID, entry.Email)
	return entry, nil
}

// Delete removes an unclaimed entry.
func (s *WhitelistService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Internal(err, "failed to load whitelist entry")
	}
	if entry.Status == models.WhitelistStatusRegistered {
		return appErrors.Clone(appErrors.ErrConflict, "entry was already used to register and cannot be removed")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete whitelist entry")
	}
	s.record(actor.UserID, "whitelist.delete", entry.ID, entry.Email)
	return nil
}

// ImportJSON bulk-imports a JSON array of rows.
func (s *WhitelistService) ImportJSON(ctx context.Context, r io.Reader, actor *models.JWTClaims) (*models.BulkImportResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	var rows []models.BulkImportRow
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is not a valid JSON array")
	}
	return s.importRows(ctx, rows, actor), nil
}

// ImportCSV bulk-imports a CSV file with a header row.
func (s *WhitelistService) ImportCSV(ctx context.Context, r io.Reader, actor *models.JWTClaims) (*models.BulkImportResult, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is not a readable CSV")
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	field := func(record []string, name string) string {
		if i, ok := index[name]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	var rows []models.BulkImportRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("malformed CSV near row %d", len(rows)+2))
		}
		rows = append(rows, models.BulkImportRow{
			Email:           field(record, "email"),
			FirstName:       field(record, "first_name"),
			MiddleName:      field(record, "middle_name"),
			LastName:        field(record, "last_name"),
			InstitutionalID: field(record, "institutional_id"),
			Role:            field(record, "role"),
			Department:      field(record, "department"),
		})
	}
	return s.importRows(ctx, rows, actor), nil
}

// importRows validates and inserts rows one by one, reporting per-row
// failures instead of aborting the whole batch.
func (s *WhitelistService) importRows(ctx context.Context, rows []models.BulkImportRow, actor *models.JWTClaims) *models.BulkImportResult {
	result := &models.BulkImportResult{}
	for i, row := range rows {
		rowNum := i + 1
		fail := func(reason string) {
			result.Skipped++
			result.Failures = append(result.Failures, models.BulkImportError{
				Row: rowNum, Email: row.Email, Reason: reason,
			})
		}

		if row.Email == "" || row.FirstName == "" || row.LastName == "" || row.InstitutionalID == "" {
			fail("email, first_name, last_name and institutional_id are required")
			continue
		}
		role := models.UserRole(strings.ToUpper(strings.TrimSpace(row.Role)))
		if role == "" {
			role = models.RoleStudent
		}
		if !role.Valid() {
			fail(fmt.Sprintf("unknown role %q", row.Role))
			continue
		}
		resolvedRole, err := roleForActor(actor, role)
		if err != nil {
			fail("faculty can only whitelist students")
			continue
		}

		exists, err := s.repo.ExistsByEmail(ctx, row.Email)
		if err != nil {
			fail("lookup failed")
			continue
		}
		if exists {
			fail("email is already whitelisted")
			continue
		}

		entry := &models.WhitelistEntry{
			Email:           strings.ToLower(strings.TrimSpace(row.Email)),
			FirstName:       row.FirstName,
			LastName:        row.LastName,
			InstitutionalID: row.InstitutionalID,
			Role:            resolvedRole,
			Status:          models.WhitelistStatusPending,
			AddedBy:         actor.UserID,
		}
		if row.MiddleName != "" {
			middle := row.MiddleName
			entry.MiddleName = &middle
		}
		if row.Department != "" {
			dept := row.Department
			entry.Department = &dept
		}
		if err := s.repo.Create(ctx, entry); err != nil {
			fail("insert failed")
			continue
		}
		result.Imported++
	}
	s.record(actor.UserID, "whitelist.bulk_import", "", fmt.Sprintf("imported %d, skipped %d", result.Imported, result.Skipped))
	return result
}

func (s *WhitelistService) record(userID, action, targetID, detail string) {
	if s.activity == nil {
		return
	}
	log := models.ActivityLog{
		UserID: &userID,
		Action: action,
		Target: "whitelist",
		Detail: &detail,
	}
	if targetID != "" {
		log.TargetID = &targetID
	}
	s.activity.Record(log)
}
