package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kanishkhaa/smartrx/internal/domain/medication"
	"github.com/kanishkhaa/smartrx/internal/domain/prescription"
	"github.com/kanishkhaa/smartrx/internal/domain/reminder"
	"github.com/kanishkhaa/smartrx/internal/domain/report"
)

// analysis is the output of the analyze command.
type analysis struct {
	Doctor      string                   `json:"doctor"`
	Patient     prescription.PatientInfo `json:"patient"`
	Medications []medication.Record      `json:"medications"`
	Warnings    []medication.Warning     `json:"warnings"`
	Reminders   []reminder.Reminder      `json:"reminders"`
	Dashboard   report.Dashboard         `json:"dashboard"`
	Skipped     []string                 `json:"skipped"`
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a structured prescription text offline and print the result as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			seed, _ := cmd.Flags().GetInt64("seed")

			var in io.Reader = cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			text, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			res := analyze(cmd.Context(), string(text), time.Now(), rand.New(rand.NewSource(seed)))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	cmd.Flags().StringP("file", "f", "", "Structured prescription text (default stdin)")
	cmd.Flags().Int64("seed", time.Now().UnixNano(), "Seed for the placeholder safety data")
	return cmd
}

// analyze runs the upload pipeline without a backend or drug database: parse,
// enrich, derive reminders and compute the dashboard as of now.
func analyze(ctx context.Context, text string, now time.Time, rng *rand.Rand) *analysis {
	if ctx == nil {
		ctx = context.Background()
	}
	res := &analysis{
		Doctor:  prescription.ExtractDoctorName(text),
		Patient: prescription.ExtractPatientInfo(text),
		Skipped: []string{},
	}
	entries := prescription.ParseAnalyzerMedications(text, func(entry string) {
		res.Skipped = append(res.Skipped, entry)
	})

	enricher := medication.NewEnricher(nil, rng, zerolog.Nop())
	res.Medications = make([]medication.Record, 0, len(entries))
	for i, e := range entries {
		r := enricher.BuildRecord(ctx, e.Name, e.Composition, e.Dosage)
		r.ID = fmt.Sprintf("local-%d", i+1)
		res.Medications = append(res.Medications, r)
	}
	res.Warnings = medication.CheckInteractions(nil, res.Medications, medication.DefaultInteractionRules())
	res.Reminders = reminder.Derive(res.Medications, now, now.UnixMilli())
	res.Dashboard = report.ComputeDashboard(res.Medications, res.Reminders, now)
	return res
}
