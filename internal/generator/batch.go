package generator

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/WankioM/property-qr/internal/models"
)

// BatchGenerate runs Generate for every id with bounded parallelism. A
// failing id never aborts the others; results keep the input order.
func (g *Generator) BatchGenerate(ctx context.Context, propertyIDs []string, force bool, reason models.QrGenerationReason) (*models.BatchQrCodeResponse, error) {
	type result struct {
		resp *models.QrCodeResponse
		err  error
	}
	results := make([]result, len(propertyIDs))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for i, id := range propertyIDs {
		i, id := i, id
		eg.Go(func() error {
			resp, err := g.Generate(egCtx, id, force, reason)
			results[i] = result{resp: resp, err: err}
			return nil
		})
	}
	_ = eg.Wait()

	batch := &models.BatchQrCodeResponse{
		Successful:     []*models.QrCodeResponse{},
		Failed:         []*models.QrGenerationError{},
		TotalRequested: len(propertyIDs),
	}
	for i, r := range results {
		if r.err != nil {
			batch.Failed = append(batch.Failed, &models.QrGenerationError{
				PropertyID: propertyIDs[i],
				Error:      r.err.Error(),
				ErrorCode:  models.ErrorCode(r.err),
			})
			continue
		}
		batch.Successful = append(batch.Successful, r.resp)
	}
	batch.TotalSuccessful = len(batch.Successful)
	batch.TotalFailed = len(batch.Failed)

	if len(propertyIDs) > 0 {
		g.logger.Info("Batch generation finished",
			"requested", batch.TotalRequested,
			"successful", batch.TotalSuccessful,
			"failed", batch.TotalFailed,
			"reason", reason,
		)
	}
	return batch, nil
}

// GenerateMissing issues QR codes for eligible listings that have none.
func (g *Generator) GenerateMissing(ctx context.Context) (*models.BatchQrCodeResponse, error) {
	existing, err := g.repo.ListQrPropertyIDs(ctx)
	if err != nil {
		return nil, models.ErrDatabase("", err)
	}
	missing, err := g.properties.ListNeedingQr(ctx, existing)
	if err != nil {
		return nil, err
	}

	g.logger.Info("Generating missing QR codes", "existing", len(existing), "missing", len(missing))
	return g.BatchGenerate(ctx, missing, false, models.ReasonBatchGeneration)
}
