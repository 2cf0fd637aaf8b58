package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/onco-triage-server/internal/domain"
	"github.com/onco-triage-server/internal/intake"
	"github.com/onco-triage-server/internal/report"
	"github.com/onco-triage-server/internal/service"
)

func evaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate a questionnaire file and print the report",
		Example: `  triage-cli evaluate -f visit.yaml
  triage-cli evaluate -f visit.json --format csv -o ./exports
  cat visit.yaml | triage-cli evaluate -f -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			formatName, _ := cmd.Flags().GetString("format")
			outDir, _ := cmd.Flags().GetString("output-dir")
			requireID, _ := cmd.Flags().GetBool("require-patient-id")
			requireDate, _ := cmd.Flags().GetBool("require-date")

			format, err := report.ParseFormat(formatName)
			if err != nil {
				return err
			}

			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			form, err := loadForm(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			parser := intake.NewParser(intake.Policy{RequirePatientID: requireID, RequireDate: requireDate})
			snapshot, err := parser.Parse(form)
			if err != nil {
				printValidation(cmd.ErrOrStderr(), err)
				return errors.New("questionnaire rejected")
			}

			assessment, err := service.NewTriageService(logger, nil, nil).Evaluate(cmd.Context(), snapshot)
			if err != nil {
				return err
			}
			doc := report.FromAssessment(assessment)

			if outDir == "" {
				return report.Write(cmd.OutOrStdout(), format, doc)
			}

			path := filepath.Join(outDir, report.FileName(assessment.Identification.PatientID, format.Extension()))
			if err := writeReportFile(path, format, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", assessment.Result.Recommendation.Label(), path)
			return nil
		},
	}

	cmd.Flags().StringP("file", "f", "", `questionnaire file in YAML or JSON ("-" reads stdin)`)
	cmd.Flags().String("format", "text", "report format (text, json, csv)")
	cmd.Flags().StringP("output-dir", "o", "", "write the report into this directory instead of stdout")
	cmd.Flags().Bool("require-patient-id", false, "reject questionnaires without a patient identifier")
	cmd.Flags().Bool("require-date", false, "reject questionnaires without an evaluation date")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// loadForm decodes a questionnaire. JSON is a subset of YAML so one decoder
// serves both; unknown keys are rejected to catch misspelled fields.
func loadForm(stdin io.Reader, file string) (intake.Form, error) {
	var r io.Reader = stdin
	if file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return intake.Form{}, fmt.Errorf("failed to open questionnaire: %w", err)
		}
		defer f.Close()
		r = f
	}

	var form intake.Form
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&form); err != nil {
		if errors.Is(err, io.EOF) {
			return intake.Form{}, fmt.Errorf("questionnaire %s is empty", file)
		}
		return intake.Form{}, fmt.Errorf("failed to parse questionnaire: %w", err)
	}
	return form, nil
}

func printValidation(w io.Writer, err error) {
	var errs domain.ValidationErrors
	if !errors.As(err, &errs) {
		fmt.Fprintln(w, err)
		return
	}
	for _, e := range errs {
		fmt.Fprintf(w, "  %s: %s (%s)\n", e.Field, e.Message, e.Code)
	}
}

func writeReportFile(path string, format report.Format, doc report.Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := report.Write(f, format, doc); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the decision table in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			section, _ := cmd.Flags().GetString("section")
			section = strings.ToLower(strings.TrimSpace(section))

			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range service.NewTriageService(logger, nil, nil).Rules() {
				if section != "" && string(r.Section) != section {
					continue
				}
				fmt.Fprintf(out, "%-28s %-17s %-24s %s\n", r.Code, r.Section, r.Level.Label(), r.Condition)
			}
			return nil
		},
	}
	cmd.Flags().String("section", "", "only list rules of this section")
	return cmd
}
