package importer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/kurochkinivan/shipment_tracker/internal/domain"
)

// Service runs the whole import pipeline for one upload: decode, validate,
// then either commit every draft in a single transaction or persist the row
// errors. Either way the run ledger ends in a terminal state.
type Service struct {
	log        *slog.Logger
	decoder    *Decoder
	validator  *Validator
	shipments  ShipmentsSaver
	runs       RunLedger
	transactor Transactor
}

func NewService(
	log *slog.Logger,
	decoder *Decoder,
	validator *Validator,
	shipments ShipmentsSaver,
	runs RunLedger,
	transactor Transactor,
) *Service {
	return &Service{
		log:        log,
		decoder:    decoder,
		validator:  validator,
		shipments:  shipments,
		runs:       runs,
		transactor: transactor,
	}
}

func (s *Service) Import(ctx context.Context, uploader *domain.User, fileName string, payload []byte) (*domain.ImportRun, error) {
	rows, err := s.decoder.Decode(fileName, payload)
	if err != nil {
		// Format errors leave no persisted trace; the run is only created
		// once the row count is known.
		return nil, err
	}

	run := &domain.ImportRun{
		ID:           uuid.New(),
		FileName:     fileName,
		TotalRecords: len(rows),
		UploadedBy:   uploader.ID,
		Status:       domain.ImportRunProcessing,
	}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create import run: %w", err)
	}

	drafts, rowErrors, err := s.validator.Validate(ctx, uploader, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to validate rows: %w", err)
	}

	if len(rowErrors) > 0 {
		return s.failRun(ctx, run, rowErrors)
	}

	return s.commitDrafts(ctx, run, uploader, drafts)
}

// failRun records every rejected row and fails the whole run. Rows that
// validated cleanly are not counted as successes: the batch commits together
// or not at all.
func (s *Service) failRun(ctx context.Context, run *domain.ImportRun, rowErrors []RowError) (*domain.ImportRun, error) {
	records := make([]*domain.ImportRowError, 0, len(rowErrors))
	for _, rowErr := range rowErrors {
		records = append(records, &domain.ImportRowError{
			ID:           uuid.New(),
			BulkImportID: run.ID,
			RowNumber:    rowErr.RowNumber,
			ErrorMessage: rowErr.ErrorMessage,
			RowData:      rowErr.RowData,
		})
	}

	if err := s.runs.SaveRowErrors(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to save row errors: %w", err)
	}

	if err := s.runs.FinishRun(ctx, run.ID, domain.ImportRunFailed, 0, len(rowErrors)); err != nil {
		return nil, fmt.Errorf("failed to finish import run: %w", err)
	}

	run.Status = domain.ImportRunFailed
	run.SuccessRecords = 0
	run.ErrorRecords = len(rowErrors)

	s.log.InfoContext(ctx, "import run failed on validation",
		slog.String("run_id", run.ID.String()),
		slog.Int("error_records", run.ErrorRecords),
	)

	return run, nil
}

func (s *Service) commitDrafts(ctx context.Context, run *domain.ImportRun, uploader *domain.User, drafts []*domain.ShipmentDraft) (*domain.ImportRun, error) {
	err := s.transactor.WithTransaction(ctx, func(ctx context.Context) error {
		for _, draft := range drafts {
			shipment := &domain.Shipment{
				ID:                      uuid.New(),
				ItemID:                  draft.ItemID,
				Quantity:                draft.Quantity,
				SenderID:                uploader.ID,
				ShipmentDepartmentID:    draft.ShipmentDepartmentID,
				DestinationDepartmentID: draft.DestinationDepartmentID,
				ShipmentUserID:          draft.ShipmentUserID,
				TrackingNumber:          draft.TrackingNumber,
				Notes:                   draft.Notes,
				ShippedAt:               draft.ShippedAt,
				CreatedBy:               uploader.ID,
				UpdatedBy:               uploader.ID,
			}

			if err := s.shipments.SaveShipment(ctx, shipment); err != nil {
				return fmt.Errorf("failed to save shipment: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		s.log.ErrorContext(ctx, "import commit rolled back", slog.String("err", err.Error()))

		// The transaction guarantees nothing was persisted, so the ledger
		// reports every row as errored rather than guessing which insert
		// failed.
		if finishErr := s.runs.FinishRun(ctx, run.ID, domain.ImportRunFailed, 0, run.TotalRecords); finishErr != nil {
			return nil, fmt.Errorf("failed to finish import run: %w", finishErr)
		}

		run.Status = domain.ImportRunFailed
		run.SuccessRecords = 0
		run.ErrorRecords = run.TotalRecords

		return run, nil
	}

	if err := s.runs.FinishRun(ctx, run.ID, domain.ImportRunCompleted, len(drafts), 0); err != nil {
		return nil, fmt.Errorf("failed to finish import run: %w", err)
	}

	run.Status = domain.ImportRunCompleted
	run.SuccessRecords = len(drafts)
	run.ErrorRecords = 0

	s.log.InfoContext(ctx, "import run completed",
		slog.String("run_id", run.ID.String()),
		slog.Int("success_records", run.SuccessRecords),
	)

	return run, nil
}
