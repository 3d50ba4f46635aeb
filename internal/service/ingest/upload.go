package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/openapparel/facility-registry/internal/domain"
	"github.com/openapparel/facility-registry/pkg/ctxutil"
)

// requiredHeaderFields must all be present in an uploaded list's header.
var requiredHeaderFields = []string{"country", "name", "address"}

// UploadInput carries an uploaded facility list file and its metadata.
type UploadInput struct {
	Name        string
	Description *string
	FileName    string
	ReplacesID  *uuid.UUID
	File        []byte
}

// Validate checks upload metadata and file limits.
func (in UploadInput) Validate(maxFileSize int64) error {
	var errs []domain.FieldError
	if strings.TrimSpace(in.Name) == "" {
		errs = append(errs, domain.FieldError{Field: "name", Message: "required"})
	}
	if strings.TrimSpace(in.FileName) == "" {
		errs = append(errs, domain.FieldError{Field: "file_name", Message: "required"})
	} else if !strings.HasSuffix(strings.ToLower(in.FileName), ".csv") {
		errs = append(errs, domain.FieldError{Field: "file_name", Message: "must be a csv file"})
	}
	if len(in.File) == 0 {
		errs = append(errs, domain.FieldError{Field: "file", Message: "required"})
	} else if int64(len(in.File)) > maxFileSize {
		errs = append(errs, domain.FieldError{Field: "file", Message: fmt.Sprintf("exceeds %d bytes", maxFileSize)})
	}
	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UploadList accepts a facility list file, validates its header and size,
// stores the list with one UPLOADED item per data row, and submits the list
// for asynchronous processing. When the upload replaces an earlier list, the
// replaced list is deactivated in the same transaction.
func (s *Service) UploadList(ctx context.Context, input UploadInput) (*domain.FacilityList, error) {
	contributorID, ok := ctxutil.ContributorIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrForbidden
	}

	list, err := s.acceptUpload(ctx, contributorID, input)
	if err != nil {
		s.metrics.IncrementListUpload("rejected")
		return nil, err
	}

	s.metrics.IncrementListUpload("accepted")
	s.processor.Submit(list.ID)
	s.log.Info("list uploaded",
		"list_id", list.ID,
		"contributor_id", contributorID,
		"file_name", list.FileName,
	)

	return list, nil
}

func (s *Service) acceptUpload(ctx context.Context, contributorID uuid.UUID, input UploadInput) (*domain.FacilityList, error) {
	if err := input.Validate(s.uploadCfg.MaxFileSizeBytes); err != nil {
		return nil, err
	}

	header, rows, err := parseCSV(input.File, s.uploadCfg.MaxRowsPerList)
	if err != nil {
		return nil, err
	}

	if input.ReplacesID != nil {
		// The replaced list must belong to the uploader, and a list may
		// be replaced at most once.
		if _, err := s.lists.GetOwned(ctx, contributorID, *input.ReplacesID); err != nil {
			return nil, fmt.Errorf("get replaced list: %w", err)
		}
		replaced, err := s.lists.HasReplacer(ctx, *input.ReplacesID)
		if err != nil {
			return nil, fmt.Errorf("check replaced list: %w", err)
		}
		if replaced {
			return nil, domain.NewValidationError("replaces", "the list has already been replaced")
		}
	}

	var created *domain.FacilityList
	txErr := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var createErr error
		created, createErr = s.lists.Create(txCtx, &domain.FacilityList{
			ContributorID: contributorID,
			Name:          input.Name,
			Description:   input.Description,
			FileName:      input.FileName,
			Header:        header,
			IsActive:      true,
			IsPublic:      true,
			ReplacesID:    input.ReplacesID,
		})
		if createErr != nil {
			return fmt.Errorf("create list: %w", createErr)
		}

		items := make([]domain.FacilityListItem, len(rows))
		for i, row := range rows {
			items[i] = domain.FacilityListItem{
				FacilityListID: created.ID,
				RowIndex:       i,
				RawData:        row,
				Status:         domain.ItemStatusUploaded,
			}
		}
		if err := s.items.BulkCreate(txCtx, items); err != nil {
			return fmt.Errorf("create items: %w", err)
		}

		if input.ReplacesID != nil {
			if err := s.lists.Deactivate(txCtx, *input.ReplacesID); err != nil {
				return fmt.Errorf("deactivate replaced list: %w", err)
			}
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.metrics.ObserveUploadItems(len(rows))
	return created, nil
}

// parseCSV validates the header and returns it with the raw data rows.
func parseCSV(file []byte, maxRows int) (string, []string, error) {
	reader := csv.NewReader(bytes.NewReader(file))
	reader.FieldsPerRecord = -1

	headerRecord, err := reader.Read()
	if err != nil {
		return "", nil, domain.NewValidationError("file", "missing or malformed header row")
	}

	fields := make(map[string]bool, len(headerRecord))
	for i, f := range headerRecord {
		headerRecord[i] = strings.ToLower(strings.TrimSpace(f))
		fields[headerRecord[i]] = true
	}
	var missing []string
	for _, f := range requiredHeaderFields {
		if !fields[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return "", nil, domain.NewValidationError("file",
			"header must contain "+strings.Join(missing, ", ")+" fields")
	}

	var rows []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, domain.NewValidationError("file",
				fmt.Sprintf("malformed row %d", len(rows)+2))
		}
		if isBlankRow(record) {
			continue
		}
		row := strings.Join(record, ",")
		if !utf8.ValidString(row) {
			return "", nil, domain.NewValidationError("file",
				fmt.Sprintf("row %d is not valid UTF-8", len(rows)+2))
		}
		rows = append(rows, row)
		if len(rows) > maxRows {
			return "", nil, domain.NewValidationError("file",
				fmt.Sprintf("exceeds %d rows", maxRows))
		}
	}
	if len(rows) == 0 {
		return "", nil, domain.NewValidationError("file", "contains no data rows")
	}

	return strings.Join(headerRecord, ","), rows, nil
}

func isBlankRow(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
