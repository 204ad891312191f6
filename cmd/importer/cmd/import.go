package cmd

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"pos-backoffice/internal/domain"
	"pos-backoffice/internal/importer"
	"pos-backoffice/internal/repository"
	"pos-backoffice/internal/service"
	"pos-backoffice/pkg/apperrors"
	"pos-backoffice/pkg/logger"
)

var (
	importType   string
	mappingFlags []string
	validateOnly bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a CSV or JSON data file",
	Long: `Imports one data file. CSV files go through header mapping and
transformation; JSON files use the structured envelope directly.
With --validate-only the full pipeline runs without writing anything.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(args[0])
	},
}

func init() {
	importCmd.Flags().StringVarP(&importType, "type", "t", "", "import type (items, sales, expenses, users, owner_transactions, bank_accounts, suppliers)")
	importCmd.Flags().StringArrayVarP(&mappingFlags, "mapping", "m", nil, "mapping override field=header, repeatable")
	importCmd.Flags().BoolVar(&validateOnly, "validate-only", false, "validate without persisting")
	rootCmd.AddCommand(importCmd)
}

func runImport(path string) error {
	batch, batchType, err := loadBatch(path)
	if err != nil {
		return err
	}

	var store service.ImportStore
	if !validateOnly {
		db, err := sql.Open("postgres", cfg.Database.ConnectionString())
		if err != nil {
			return apperrors.PersistenceError(err, "failed to open database connection")
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			return apperrors.NetworkError(err, "database is not reachable")
		}
		store = repository.NewImportRepository(db)
	}

	svc := service.NewImportService(store)
	log := logger.GetLogger()

	result := svc.Run(batch, batchType, validateOnly, func(phase string, completed, total int) {
		log.WithField("phase", phase).Infof("Progress %d/%d", completed, total)
	})

	encoded, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(encoded))

	if !result.Succeeded() {
		return apperrors.New(apperrors.CategoryPersistence,
			"import failed in phase %s", result.FailedPhase)
	}
	return nil
}

func loadBatch(path string) (*domain.ImportBatch, domain.ImportType, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", apperrors.FileError("cannot open %s: %v", path, err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		batch, err := importer.DecodeJSON(file)
		return batch, domain.ImportJSON, err
	}

	if !domain.ValidImportType(domain.ImportType(importType)) {
		return nil, "", apperrors.MappingError("--type is required for CSV imports and must be a known import type, got %q", importType)
	}
	selected := domain.ImportType(importType)

	info, err := file.Stat()
	if err != nil {
		return nil, "", apperrors.FileError("cannot stat %s: %v", path, err)
	}
	if err := importer.ValidateFile(path, info.Size(), cfg.App.MaxUploadBytes); err != nil {
		return nil, "", err
	}

	parsed, err := importer.Parse(file)
	if err != nil {
		return nil, "", err
	}

	mapping, err := importer.Suggest(parsed, selected)
	if err != nil {
		return nil, "", apperrors.MappingError("%v", err)
	}
	for _, override := range mappingFlags {
		field, header, ok := strings.Cut(override, "=")
		if !ok {
			return nil, "", apperrors.MappingError("invalid --mapping %q, expected field=header", override)
		}
		if err := importer.Assign(mapping, parsed, field, header); err != nil {
			return nil, "", apperrors.MappingError("%v", err)
		}
	}
	if !mapping.Valid {
		return nil, "", apperrors.MappingError("mapping is incomplete: %s",
			strings.Join(mapping.ValidationErrors, "; "))
	}

	batch, err := importer.Transform(parsed, mapping)
	return batch, selected, err
}
