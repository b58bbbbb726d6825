// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-digest/pkg/types"
)

const configFileName = "paper-digest.yaml"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file in the current directory",
	Long: `Init writes a paper-digest.yaml with example values for every pipeline
stage. Edit the categories, keywords, and email settings, then put your
credentials in .secrets/llm-api-key and .secrets/smtp-password.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configFileName); err == nil {
		return fmt.Errorf("%s already exists, refusing to overwrite", configFileName)
	}

	cfg := types.PipelineConfig{
		Crawl: types.CrawlConfig{
			Categories: []string{"cs.CV", "cs.CL", "cs.LG"},
			MaxPapers:  200,
			DataDir:    defaultDataDir,
		},
		Match: types.MatchConfig{
			Keywords: map[string]float64{
				"diffusion":   1.0,
				"transformer": 2.0,
			},
			Threshold: 0.5,
			TopK:      30,
		},
		LLM: types.LLMConfig{
			Model:      "deepseek-chat",
			BaseURL:    "https://api.deepseek.com",
			BatchSize:  3,
			MaxRetries: 3,
		},
		Email: types.EmailConfig{
			SMTPServer: "smtp.example.com",
			SMTPPort:   587,
			Sender:     "you@example.com",
			Recipients: []string{"you@example.com"},
		},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(configFileName, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configFileName, err)
	}
	fmt.Printf("Wrote %s\n", configFileName)
	return nil
}
