package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/TriagePipe/internal/classifier"
	"github.com/BTreeMap/TriagePipe/internal/directory"
	"github.com/BTreeMap/TriagePipe/internal/knowledge"
	"github.com/BTreeMap/TriagePipe/internal/lockfile"
	"github.com/BTreeMap/TriagePipe/internal/store"
)

func newImportCmd(config *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Load the doctor and disease CSVs into the catalog database",
		Long: `Replaces the doctor directory and upserts disease descriptions and precautions.
Without --db-dsn / DATABASE_URL the catalog is a SQLite file in the state directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if config.DoctorsCSV == "" {
				return fmt.Errorf("--doctors-csv or TRIAGEPIPE_DOCTORS_CSV is required")
			}
			lock, err := lockfile.Acquire(config.StateDir, "import")
			if err != nil {
				return err
			}
			defer lock.Release()

			dsn := config.DatabaseURL
			if dsn == "" {
				dsn = config.localDBPath()
			}
			cat, err := store.OpenCatalog(dsn)
			if err != nil {
				return fmt.Errorf("failed to open catalog: %w", err)
			}
			defer cat.Close()

			doctors, diseases, err := importCatalog(cmd.Context(), cat, config.DoctorsCSV, config.DescriptionsCSV, config.PrecautionsCSV)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d doctors and %d diseases into %s catalog\n", doctors, diseases, store.DetectDSNType(dsn))
			return nil
		},
	}
}

// importCatalog replaces the catalog's doctors and merges the disease knowledge.
func importCatalog(ctx context.Context, cat store.Catalog, doctorsPath, descriptionsPath, precautionsPath string) (int, int, error) {
	f, err := os.Open(doctorsPath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open doctors CSV: %w", err)
	}
	defer f.Close()
	doctors, err := directory.ReadCSV(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read doctors CSV: %w", err)
	}
	if err := cat.ReplaceDoctors(ctx, doctors); err != nil {
		return 0, 0, err
	}

	infos := knowledge.LoadFiles(descriptionsPath, precautionsPath).All()
	if err := cat.PutDiseaseInfo(ctx, infos); err != nil {
		return 0, 0, err
	}

	count, err := cat.CountDoctors(ctx)
	if err != nil {
		return 0, 0, err
	}
	slog.Info("importCatalog: catalog updated", "doctors", count, "diseases", len(infos))
	return count, len(infos), nil
}

func newTrainCmd(config *Config) *cobra.Command {
	var dataPath string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the naive Bayes model from a training CSV",
		Long:  `The CSV has one 0/1 column per symptom and a "prognosis" label column.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			nb, err := trainModel(dataPath, config.ModelPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Trained %d classes over %d symptoms, wrote %s\n", len(nb.Classes()), len(nb.Features()), config.ModelPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dataPath, "data", "", "training CSV")
	cmd.MarkFlagRequired("data")
	return cmd
}

// trainModel fits a model from dataPath and writes the artifact to outPath.
func trainModel(dataPath, outPath string) (*classifier.NaiveBayes, error) {
	in, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open training data: %w", err)
	}
	defer in.Close()

	nb, err := classifier.Train(in)
	if err != nil {
		return nil, fmt.Errorf("failed to train: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create model directory: %w", err)
	}
	// Write next to the target and rename so a running server never reads half a file.
	tmp := outPath + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to create model file: %w", err)
	}
	if err := nb.Save(out); err != nil {
		out.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to write model: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("failed to close model file: %w", err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		return nil, fmt.Errorf("failed to move model into place: %w", err)
	}
	slog.Info("trainModel: model written", "path", outPath, "classes", len(nb.Classes()), "features", len(nb.Features()))
	return nb, nil
}
