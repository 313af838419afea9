package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/meridianlending/underwrite/internal/model"
	"github.com/meridianlending/underwrite/internal/program"
	"github.com/meridianlending/underwrite/internal/rates"
	"github.com/meridianlending/underwrite/internal/store"
	"github.com/meridianlending/underwrite/internal/structuring"
	"github.com/meridianlending/underwrite/pkg/llm"
)

var (
	structureRequest string
	structureBatch   string
	structureLive    bool
	structureOut     string
	structureSave    bool
)

var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Structure loan terms for a deal",
	Long: "Runs the structuring pipeline for one deal request or a directory of them: " +
		"rules engine, narrative enhancement, compliance review, final check. " +
		"Without --live the narrative stages run degraded and the output is fully deterministic.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if (structureRequest == "") == (structureBatch == "") {
			return eris.New("exactly one of --request and --batch is required")
		}

		pipeline, err := buildPipeline()
		if err != nil {
			return err
		}

		var st store.Store
		if structureSave {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
		}

		if structureBatch != "" {
			return runStructureBatch(ctx, pipeline, st)
		}
		return runStructureOne(ctx, pipeline, st)
	},
}

// dealRequest is the YAML request file the structure command consumes. The
// analysis path is resolved relative to the request file.
type dealRequest struct {
	BorrowerName    string `yaml:"borrower_name"`
	ProgramID       string `yaml:"program_id"`
	LoanPurpose     string `yaml:"loan_purpose"`
	PropertyAddress string `yaml:"property_address"`

	RequestedAmount     float64  `yaml:"requested_amount"`
	RequestedRate       *float64 `yaml:"requested_rate"`
	RequestedTermMonths *int     `yaml:"requested_term_months"`
	PropertyValue       *float64 `yaml:"property_value"`
	CollateralValue     *float64 `yaml:"collateral_value"`
	State               string   `yaml:"state"`

	Analysis string `yaml:"analysis"`
}

func runStructureOne(ctx context.Context, pipeline *structuring.Pipeline, st store.Store) error {
	in, err := loadDealRequest(structureRequest)
	if err != nil {
		return err
	}

	out, err := pipeline.StructureDeal(ctx, in)
	if err != nil {
		return err
	}
	logStructureOutcome(in, out)

	if st != nil {
		if _, err := saveStructuredDeal(ctx, st, in, out); err != nil {
			return err
		}
	}

	return writeStructureOutput(out, structureOut)
}

func runStructureBatch(ctx context.Context, pipeline *structuring.Pipeline, st store.Store) error {
	paths, err := listRequestFiles(structureBatch)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return eris.Errorf("no request files (*.yaml, *.yml) in %s", structureBatch)
	}

	inputs := make([]*model.StructureDealInput, len(paths))
	for i, p := range paths {
		inputs[i], err = loadDealRequest(p)
		if err != nil {
			return err
		}
	}

	results := pipeline.StructureBatch(ctx, inputs, cfg.Structuring.BatchConcurrency)

	var failed int
	for i, res := range results {
		if res.Err != nil {
			failed++
			zap.L().Error("deal failed",
				zap.String("request", paths[i]),
				zap.String("borrower", res.Input.BorrowerName),
				zap.Error(res.Err),
			)
			continue
		}
		logStructureOutcome(res.Input, res.Output)

		if st != nil {
			if _, err := saveStructuredDeal(ctx, st, res.Input, res.Output); err != nil {
				return err
			}
		}
		if err := writeStructureOutput(res.Output, structureOutPath(paths[i])); err != nil {
			return err
		}
	}

	zap.L().Info("batch complete",
		zap.Int("deals", len(results)),
		zap.Int("failed", failed),
	)
	if failed == len(results) {
		return eris.Errorf("all %d deals failed", failed)
	}
	return nil
}

// loadDealRequest reads a YAML deal request, resolves its program from the
// catalog, and loads the referenced analysis JSON.
func loadDealRequest(path string) (*model.StructureDealInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read request %s", path)
	}
	var req dealRequest
	if err := yaml.Unmarshal(raw, &req); err != nil {
		return nil, eris.Wrapf(err, "parse request %s", path)
	}

	prog, err := program.Get(req.ProgramID)
	if err != nil {
		return nil, eris.Wrapf(err, "request %s", path)
	}

	if req.Analysis == "" {
		return nil, eris.Errorf("request %s: analysis path is required", path)
	}
	analysisPath := req.Analysis
	if !filepath.IsAbs(analysisPath) {
		analysisPath = filepath.Join(filepath.Dir(path), analysisPath)
	}
	analysis, err := loadAnalysisFile(analysisPath)
	if err != nil {
		return nil, err
	}

	return &model.StructureDealInput{
		Analysis:            analysis,
		Program:             prog,
		BorrowerName:        req.BorrowerName,
		LoanPurpose:         req.LoanPurpose,
		PropertyAddress:     req.PropertyAddress,
		RequestedAmount:     req.RequestedAmount,
		RequestedRate:       req.RequestedRate,
		RequestedTermMonths: req.RequestedTermMonths,
		PropertyValue:       req.PropertyValue,
		CollateralValue:     req.CollateralValue,
		StateAbbr:           req.State,
	}, nil
}

// loadAnalysisFile reads a borrower financial analysis JSON file.
func loadAnalysisFile(path string) (*model.Analysis, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read analysis %s", path)
	}
	var a model.Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, eris.Wrapf(err, "parse analysis %s", path)
	}
	return &a, nil
}

// buildPipeline assembles the structuring pipeline from config. The
// narrative generator is wired only with --live; otherwise enhancement
// degrades to empty and compliance runs its deterministic checks alone.
func buildPipeline() (*structuring.Pipeline, error) {
	src := rates.NewCached(rates.NewStatic(rateOverrides()), cfg.Rates.CacheTTL())
	engine := structuring.NewEngine(src)

	var gen llm.Generator
	var enhancer *structuring.Enhancer
	if structureLive {
		if cfg.Anthropic.APIKey == "" {
			return nil, eris.New("--live requires anthropic.api_key (UNDERWRITE_ANTHROPIC_API_KEY)")
		}
		gen = llm.NewAnthropic(llm.AnthropicConfig{
			APIKey:            cfg.Anthropic.APIKey,
			Model:             cfg.Anthropic.Model,
			MaxTokens:         cfg.Anthropic.MaxTokens,
			RequestTimeout:    cfg.Anthropic.Timeout(),
			RequestsPerMinute: cfg.Anthropic.RequestsPerMinute,
		})
		enhancer = structuring.NewEnhancer(gen, cfg.Structuring.LLMTimeout())
	}

	compliance, err := structuring.NewCompliance(gen, cfg.Structuring.LLMTimeout())
	if err != nil {
		return nil, err
	}
	return structuring.NewPipeline(engine, enhancer, compliance)
}

// rateOverrides maps configured base rates onto the static source. Zero
// values fall through to the built-in defaults.
func rateOverrides() map[model.BaseRateKind]float64 {
	o := map[model.BaseRateKind]float64{}
	if cfg.Rates.Prime > 0 {
		o[model.BaseRatePrime] = cfg.Rates.Prime
	}
	if cfg.Rates.SOFR > 0 {
		o[model.BaseRateSOFR] = cfg.Rates.SOFR
	}
	if cfg.Rates.Treasury > 0 {
		o[model.BaseRateTreasury] = cfg.Rates.Treasury
	}
	return o
}

// saveStructuredDeal persists the request and its structuring output,
// returning the stored deal id.
func saveStructuredDeal(ctx context.Context, st store.Store, in *model.StructureDealInput, out *model.StructureDealOutput) (string, error) {
	deal, err := st.CreateDeal(ctx, in.BorrowerName, in.Program.ID, in.RequestedAmount)
	if err != nil {
		return "", err
	}
	if err := st.UpdateDealStructure(ctx, deal.ID, out); err != nil {
		return "", err
	}
	zap.L().Info("deal saved",
		zap.String("deal_id", deal.ID),
		zap.String("status", string(out.Status)),
	)
	return deal.ID, nil
}

// listRequestFiles returns the YAML request files in dir, sorted by name so
// batch output order is stable.
func listRequestFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read batch dir %s", dir)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// structureOutPath places a batch result next to its request file.
func structureOutPath(requestPath string) string {
	base := strings.TrimSuffix(requestPath, filepath.Ext(requestPath))
	return base + ".structure.json"
}

// writeStructureOutput writes the structuring artifact as indented JSON to
// path, or to stdout when path is empty.
func writeStructureOutput(out *model.StructureDealOutput, path string) error {
	if path == "" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal structure output")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	zap.L().Info("structure output written", zap.String("path", path))
	return nil
}

func logStructureOutcome(in *model.StructureDealInput, out *model.StructureDealOutput) {
	fields := []zap.Field{
		zap.String("borrower", in.BorrowerName),
		zap.String("program", in.Program.ID),
		zap.String("status", string(out.Status)),
	}
	if out.Rules != nil {
		fields = append(fields,
			zap.Float64("approved_amount", out.Rules.ApprovedAmount),
			zap.Float64("rate", out.Rules.Rate.TotalRate),
			zap.Float64("monthly_payment", out.Rules.MonthlyPayment),
		)
	}
	if len(out.DeclineReasons) > 0 {
		fields = append(fields, zap.Strings("decline_reasons", out.DeclineReasons))
	}
	zap.L().Info("deal structured", fields...)
}

func init() {
	structureCmd.Flags().StringVar(&structureRequest, "request", "", "path to a YAML deal request")
	structureCmd.Flags().StringVar(&structureBatch, "batch", "", "directory of YAML deal requests to structure concurrently")
	structureCmd.Flags().BoolVar(&structureLive, "live", false, "call the narrative generator (requires anthropic.api_key)")
	structureCmd.Flags().StringVar(&structureOut, "out", "", "write the JSON artifact here instead of stdout (single request only)")
	structureCmd.Flags().BoolVar(&structureSave, "save", false, "persist the deal and its structure to the configured store")
	rootCmd.AddCommand(structureCmd)
}
