// Package excel loads the exercise catalog from spreadsheet files maintained
// by the teaching staff.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/reved/internal/database"
	"github.com/example/reved/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath         string // Path to the Excel or CSV file
	TitleColumn      string // Column with the exercise title
	MatiereColumn    string // Column with the subject code
	NiveauColumn     string // Column with the grade level
	DifficultyColumn string // Column with the difficulty tier
	OrdreColumn      string // Column with the curriculum position
	PointsColumn     string // Column with the points awarded on success
	SheetName        string // Name of the sheet to import
	StartRow         int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		TitleColumn:      "A",
		MatiereColumn:    "B",
		NiveauColumn:     "C",
		DifficultyColumn: "D",
		OrdreColumn:      "E",
		PointsColumn:     "F",
		SheetName:        "Sheet1",
		StartRow:         2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Updated        int
	Skipped        int
	Errors         []string
}

// Importer loads exercises into the catalog
type Importer struct {
	exercises *database.ExerciseRepository
}

// NewImporter creates an importer over the given repository
func NewImporter(exercises *database.ExerciseRepository) *Importer {
	return &Importer{exercises: exercises}
}

// ImportExercises imports exercises from an Excel or CSV file, upserting by
// (title, niveau)
func (imp *Importer) ImportExercises(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	if strings.ToLower(filepath.Ext(config.FilePath)) == ".csv" {
		return imp.importFromCSV(ctx, config)
	}
	return imp.importFromExcel(ctx, config)
}

// importFromExcel imports exercises from an Excel file
func (imp *Importer) importFromExcel(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %v", err)
	}

	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++

		cell := func(column string) string {
			if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		err := imp.upsertExercise(ctx, result,
			cell(config.TitleColumn), cell(config.MatiereColumn), cell(config.NiveauColumn),
			cell(config.DifficultyColumn), cell(config.OrdreColumn), cell(config.PointsColumn))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return result, nil
}

// importFromCSV imports exercises from a CSV file with the same column order
// as the Excel layout
func (imp *Importer) importFromCSV(ctx context.Context, config ImportConfig) (*ImportResult, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields

	result := &ImportResult{Errors: make([]string, 0)}
	rowNum := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %v", err)
		}
		rowNum++
		if rowNum < config.StartRow {
			continue
		}
		result.TotalProcessed++

		field := func(idx int) string {
			if idx < len(row) {
				return strings.TrimSpace(row[idx])
			}
			return ""
		}
		err = imp.upsertExercise(ctx, result,
			field(0), field(1), field(2), field(3), field(4), field(5))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
		}
	}
	return result, nil
}

// upsertExercise validates one row and creates or updates the catalog entry
func (imp *Importer) upsertExercise(ctx context.Context, result *ImportResult, title, matiere, niveau, difficulty, ordre, points string) error {
	if title == "" || matiere == "" || niveau == "" {
		result.Skipped++
		return nil
	}

	difficulty = strings.ToLower(difficulty)
	switch difficulty {
	case models.TierDiscovery, models.TierConsolidation, models.TierMastery:
	case "":
		difficulty = models.TierDiscovery
	default:
		result.Skipped++
		return fmt.Errorf("unknown difficulty tier %q", difficulty)
	}

	ordreVal := 0
	if ordre != "" {
		v, err := strconv.Atoi(ordre)
		if err != nil {
			result.Skipped++
			return fmt.Errorf("invalid ordre %q", ordre)
		}
		ordreVal = v
	}
	pointsVal := 10
	if points != "" {
		v, err := strconv.Atoi(points)
		if err != nil {
			result.Skipped++
			return fmt.Errorf("invalid points %q", points)
		}
		pointsVal = v
	}

	existing, err := imp.exercises.GetByTitleAndNiveau(ctx, title, niveau)
	if err != nil {
		return err
	}
	if existing != nil {
		existing.Matiere = matiere
		existing.Difficulty = difficulty
		existing.Ordre = ordreVal
		existing.PointsOnSuccess = pointsVal
		existing.Active = true
		if err := imp.exercises.Update(ctx, existing); err != nil {
			return err
		}
		result.Updated++
		return nil
	}

	exercise := &models.Exercise{
		Title:           title,
		Matiere:         matiere,
		Niveau:          niveau,
		Difficulty:      difficulty,
		Ordre:           ordreVal,
		PointsOnSuccess: pointsVal,
		Active:          true,
	}
	if err := imp.exercises.Create(ctx, exercise); err != nil {
		return err
	}
	result.Created++
	return nil
}

// columnToIndex converts an Excel column letter to a zero-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	if column == "" {
		return -1
	}
	idx := 0
	for _, r := range column {
		if r < 'A' || r > 'Z' {
			return -1
		}
		idx = idx*26 + int(r-'A') + 1
	}
	return idx - 1
}
