package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resume-analyzer/internal/analysis"
	"github.com/spigell/resume-analyzer/internal/pipeline"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var prompt = promptui.Select{
	Label: "Procced?",
	Items: []string{PromptYes, PromptNo},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one analysis locally and print the stored record",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("resume-file", "r", "", "file with the resume text")
	analyzeCmd.Flags().StringP("job-file", "f", "", "file with the job description")
	analyzeCmd.Flags().BoolP("auto-aprove", "y", false, "do not ask for confirmation before calling the model")
	analyzeCmd.Flags().Bool("sample", false, "use a canned analysis instead of calling the model")

	analyzeCmd.MarkFlagRequired("resume-file")
	analyzeCmd.MarkFlagRequired("job-file")
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()

	logger, config := setup()
	defer logger.Sync()

	resumeFile, _ := cmd.Flags().GetString("resume-file")
	jobFile, _ := cmd.Flags().GetString("job-file")
	sample, _ := cmd.Flags().GetBool("sample")
	autoApprove, _ := cmd.Flags().GetBool("auto-aprove")

	req, err := readRequest(resumeFile, jobFile)
	if err != nil {
		logger.Fatal("reading input", zap.Error(err))
	}

	logger.Info("input loaded",
		zap.String("resume_file", resumeFile),
		zap.Int("resume_length", len(req.ResumeText)),
		zap.String("job_file", jobFile),
		zap.Int("job_description_length", len(req.JobDescription)),
	)

	if !autoApprove {
		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action == PromptNo {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	st := connectStore(ctx, logger, config.Store)
	defer st.Disconnect()

	analyzer, err := newAnalyzer(ctx, logger, config.Gemini, sample)
	if err != nil {
		logger.Fatal("creating the analyzer", zap.Error(err))
	}

	p := pipeline.New(st, analyzer, logger)

	sub, err := p.Submit(ctx, req)
	if err != nil {
		logger.Fatal("submitting the analysis", zap.Error(err))
	}

	logger.Info("analysis finished", zap.String("id", sub.ID), zap.String("status", string(sub.Status)), zap.String("message", sub.Message))

	rec, err := p.Get(ctx, sub.ID)
	if err != nil {
		logger.Fatal("loading the analysis", zap.Error(err))
	}

	pretty, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		logger.Fatal("encoding the analysis", zap.Error(err))
	}

	fmt.Println(string(pretty))
}

func readRequest(resumeFile, jobFile string) (analysis.Request, error) {
	resume, err := os.ReadFile(resumeFile)
	if err != nil {
		return analysis.Request{}, fmt.Errorf("read resume file: %w", err)
	}

	job, err := os.ReadFile(jobFile)
	if err != nil {
		return analysis.Request{}, fmt.Errorf("read job description file: %w", err)
	}

	req := analysis.Request{
		ResumeText:     string(resume),
		JobDescription: string(job),
	}

	if strings.TrimSpace(req.ResumeText) == "" || strings.TrimSpace(req.JobDescription) == "" {
		return req, pipeline.ErrInvalidInput
	}

	return req, nil
}
