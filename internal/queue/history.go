package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aquarisk/cras/backend/internal/geostore"
	"github.com/aquarisk/cras/backend/internal/hydro"
	"github.com/aquarisk/cras/backend/internal/storage"
	"github.com/aquarisk/cras/backend/pkg/logger"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProcessHistoryMessage persists one analysis event: a summary row in the
// history table plus the full report JSON archived to object storage. The
// insert is idempotent, so a message that fails after the row was written can
// be safely retried.
func ProcessHistoryMessage(
	ctx context.Context,
	s3Client *awss3.Client,
	conn *pgxpool.Pool,
	msg []byte,
) error {
	var event hydro.HistoryEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		return fmt.Errorf("unmarshal history event: %w", err)
	}
	if event.EventID == "" {
		return fmt.Errorf("history event without event_id")
	}

	store := geostore.New(conn)
	if err := store.InsertEvent(ctx, event); err != nil {
		return err
	}

	if s3Client == nil {
		logger.Warn("[History] No object storage configured, skipping report archive", "event_id", event.EventID)
		return nil
	}

	report, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	key, err := storage.PutReport(ctx, s3Client, event.EventID, bytes.NewReader(report))
	if err != nil {
		return fmt.Errorf("archive report: %w", err)
	}

	if err := store.SetReportKey(ctx, event.EventID, key); err != nil {
		return err
	}

	logger.Info("[History] Event persisted", "event_id", event.EventID, "report_key", key)
	return nil
}
