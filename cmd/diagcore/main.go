// Copyright © 2024 Smarthome-AI Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// This is the main entrypoint for the diagcore command-line application.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smarthome-ai/diagnostic-core/internal/common/config"
	"github.com/smarthome-ai/diagnostic-core/internal/common/logger"
	"github.com/smarthome-ai/diagnostic-core/internal/deviceservice"
	"github.com/smarthome-ai/diagnostic-core/internal/intent"
	"github.com/smarthome-ai/diagnostic-core/internal/llm"
	"github.com/smarthome-ai/diagnostic-core/internal/patterns"
	"github.com/smarthome-ai/diagnostic-core/internal/registry"
	"github.com/smarthome-ai/diagnostic-core/internal/semanticindex"
	"github.com/smarthome-ai/diagnostic-core/internal/workflow"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "diagcore",
		Short: "diagcore is the AI-assisted troubleshooting core for a smart-home platform",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML, optional)")
	root.AddCommand(newAskCmd())
	return root
}

// newAskCmd wires every component (intent classifier, registry, semantic
// index, pattern detector, workflow) against the fixed in-memory demo
// fleet and runs one end-to-end diagnostic request.
func newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [message...]",
		Short: "Ask the diagnostic core about a device or the system",
		Args:  cobra.MinimumNArgs(1),
		Example: `  diagcore ask is the kitchen light online
  diagcore ask why does the front door lock keep losing connection`,
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args, " ")

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger.InitGlobalLogger(&cfg.Logger)
			log := logger.GetLogger()

			reg := registry.New()
			svc := deviceservice.NewFakeDeviceService()
			automationSvc := deviceservice.NewFakeAutomationService()
			seedDemoFleet(reg, svc)

			idx := semanticindex.New(semanticindex.Config{
				IndexPath:      cfg.Semantic.IndexPath,
				CollectionName: cfg.Semantic.CollectionName,
				EmbeddingModel: cfg.Semantic.EmbeddingModel,
			})
			if err := idx.Initialize(); err != nil {
				log.Warn("semantic index unavailable, falling back to registry search", "error", err)
			}
			idx.SetDeviceRegistry(reg)
			idx.SyncWithRegistry(reg)

			thresholds := patterns.Thresholds{
				ConnectivityGapMs: cfg.Pattern.ConnectivityGapMs.Milliseconds(),
				RapidGapMs:        cfg.Pattern.RapidGapMs.Milliseconds(),
				AutomationGapMs:   cfg.Pattern.AutomationGapMs.Milliseconds(),
				StormWindowMs:     cfg.Pattern.StormWindowMs.Milliseconds(),
				StormCount:        cfg.Pattern.StormCount,
				FailureRun:        cfg.Pattern.FailureRun,
				BatteryLow:        cfg.Battery.Low,
				BatteryCritical:   cfg.Battery.Critical,
			}
			detector := patterns.New(thresholds, svc)

			llmClient, err := llm.NewFromConfig(cmd.Context(), cfg.LLM)
			if err != nil {
				log.Warn("LLM client unavailable, classifier will run keyword-only", "error", err)
				llmClient = llm.NewFakeClient()
			}

			classifier := intent.New(intent.Config{
				LLMClient:       llmClient,
				CacheTTL:        cfg.Cache.TTL,
				ClassifyTimeout: cfg.LLM.ClassifyTimeout,
			})

			wf := workflow.New(workflow.Deps{
				Registry:          reg,
				Index:             idx,
				Detector:          detector,
				DeviceService:     svc,
				AutomationService: automationSvc,
			})

			classification := classifier.ClassifyIntent(cmd.Context(), message, nil)
			report := wf.ExecuteDiagnosticWorkflow(cmd.Context(), classification, message)

			fmt.Println(report.RichContext)
			fmt.Println("Recommendations:")
			for _, r := range report.Recommendations {
				fmt.Println("- " + r)
			}
			fmt.Printf("\nSummary: %s (confidence %.0f%%)\n", report.Summary, report.Confidence*100)

			return nil
		},
	}
}
