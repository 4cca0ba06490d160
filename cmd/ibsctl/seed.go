package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
	"github.com/dtc-ibs/borrowing-api/internal/core/ports"
	"github.com/dtc-ibs/borrowing-api/internal/infrastructure/db/postgres"
)

var sampleItems = []domain.Item{
	{PropertyNo: "LAP001", QRCode: "LAP001_QR", ArticleType: "Laptop", Specifications: "Dell Latitude 5520, Intel i7, 16GB RAM, 512GB SSD", Location: "Room 101", CompanyName: "Dell Inc.", Price: 45000},
	{PropertyNo: "PROJ001", QRCode: "PROJ001_QR", ArticleType: "Projector", Specifications: "Epson EB-X41, 4100 Lumens, HD Ready", Location: "Room 102", CompanyName: "Epson", Price: 35000},
	{PropertyNo: "TAB001", QRCode: "TAB001_QR", ArticleType: "Tablet", Specifications: `iPad Pro 12.9", 256GB, WiFi + Cellular`, Location: "Room 103", CompanyName: "Apple Inc.", Price: 65000},
	{PropertyNo: "CAM001", QRCode: "CAM001_QR", ArticleType: "Camera", Specifications: "Canon EOS R6, 20.1MP, 4K Video", Location: "Room 104", CompanyName: "Canon", Price: 85000},
	{PropertyNo: "MIC001", QRCode: "MIC001_QR", ArticleType: "Microphone", Specifications: "Shure SM58, Dynamic Microphone", Location: "Room 105", CompanyName: "Shure", Price: 8000},
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the sample equipment catalogue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB(db)

			created, err := seedItems(cmd.Context(), postgres.NewItemRepository(db), time.Now(), cmd.OutOrStdout())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d items created\n", created)
			return nil
		},
	}
}

// seedItems inserts sampleItems as Available, skipping property numbers that
// already exist. It returns how many rows were created.
func seedItems(ctx context.Context, repo ports.ItemRepository, now time.Time, out io.Writer) (int, error) {
	acquired := now.UTC().Truncate(24 * time.Hour)
	created := 0
	for _, sample := range sampleItems {
		item := sample
		item.Status = domain.ItemAvailable
		item.DateAcquired = &acquired

		err := repo.Create(ctx, &item)
		switch {
		case errors.Is(err, domain.ErrConflict):
			fmt.Fprintf(out, "skip %s: already exists\n", item.PropertyNo)
		case err != nil:
			return created, fmt.Errorf("seed %s: %w", item.PropertyNo, err)
		default:
			created++
			fmt.Fprintf(out, "created %s (%s)\n", item.PropertyNo, item.ArticleType)
		}
	}
	return created, nil
}
