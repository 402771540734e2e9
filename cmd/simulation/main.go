package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"reconcile-be/internal/config"
	"reconcile-be/internal/constant"
	"reconcile-be/internal/dto"
	"reconcile-be/internal/pkg/logger"
	"reconcile-be/internal/repository/memory"
	"reconcile-be/internal/service"
	"reconcile-be/pkg/analysis"
	"reconcile-be/pkg/events"
	"reconcile-be/pkg/extraction"
	"reconcile-be/pkg/gate"
	"reconcile-be/pkg/llm"
	"reconcile-be/pkg/llm/factory"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	useLLM  bool
	verbose bool
)

var (
	stepColor  = color.New(color.FgCyan, color.Bold)
	eventColor = color.New(color.FgYellow)
	okColor    = color.New(color.FgGreen)
)

// scriptedAnalyzer returns fixed results so the walkthrough runs offline.
type scriptedAnalyzer struct{}

func (scriptedAnalyzer) FindNeeds(_ context.Context, history []llm.Message) ([]analysis.NeedCandidate, error) {
	evidence := []string{}
	if len(history) > 0 {
		evidence = append(evidence, history[len(history)-1].Content)
	}
	return []analysis.NeedCandidate{
		{Category: "SAFETY", Need: "To talk about money without it turning into blame", Evidence: evidence, Confidence: 0.8},
		{Category: "RECOGNITION", Need: "To have the household work noticed", Evidence: evidence, Confidence: 0.7},
	}, nil
}

func (scriptedAnalyzer) FindOverlap(_ context.Context, needsA, needsB []analysis.NeedSummary) ([]analysis.OverlapCandidate, error) {
	seen := map[string]bool{}
	for _, n := range needsA {
		seen[n.Category] = true
	}
	var out []analysis.OverlapCandidate
	for _, n := range needsB {
		if seen[n.Category] {
			out = append(out, analysis.OverlapCandidate{Category: n.Category, Need: n.Need})
			delete(seen, n.Category)
		}
	}
	return out, nil
}

func (scriptedAnalyzer) TransitionMessage(_ context.Context, tc analysis.TransitionContext) (string, error) {
	return fmt.Sprintf("You have moved from %s to %s.", tc.From, tc.To), nil
}

// printingHandler stands in for the notification pipeline.
type printingHandler struct{}

func (printingHandler) HandleEvent(_ context.Context, event events.Event) error {
	payload := event.Payload()
	eventColor.Printf("    -> %s for %v\n", event.EventType(), payload[events.KeyUserID])
	return nil
}

type noTransitions struct{}

func (noTransitions) RequestTransition(context.Context, uuid.UUID, uuid.UUID, gate.Stage, gate.Stage, string) {
}

var rootCmd = &cobra.Command{
	Use:   "simulation",
	Short: "Walk two participants through every stage against an in-memory store",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().BoolVar(&useLLM, "llm", false, "use the configured LLM provider instead of scripted analysis")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log service internals to stdout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.Red("simulation failed: %v", err)
		os.Exit(1)
	}
}

func newAnalyzer(cfg *config.Config) (analysis.Analyzer, error) {
	if !useLLM {
		return scriptedAnalyzer{}, nil
	}
	provider, err := factory.NewLLMProvider(factory.Config{
		Provider:       cfg.Ai.LLMProvider,
		Model:          cfg.Ai.LLMModel,
		OllamaBaseURL:  cfg.Ai.OllamaBaseURL,
		HFBaseURL:      cfg.Ai.HFBaseURL,
		HuggingFaceKey: cfg.Ai.HuggingFaceKey,
	})
	if err != nil {
		return nil, err
	}
	return analysis.NewLLMAnalyzer(provider), nil
}

func run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Load()

	var log logger.ILogger = logger.NewNopLogger()
	if verbose {
		log = logger.NewZapLogger(cfg.App.LogFilePath, false)
	}

	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}

	factoryUow := memory.NewRepositoryFactory(memory.NewStore())
	gateway := service.NewPartnerGateway(nil, printingHandler{}, log)
	defer gateway.Flush()

	coordinator := extraction.NewMemoryCoordinator(cfg.Extraction.LockTTL)
	commonGround := service.NewCommonGroundService(factoryUow, analyzer, coordinator, gateway, noTransitions{}, log)
	sessions := service.NewSessionService(factoryUow, nil, gateway, log)
	stages := service.NewStageService(factoryUow, gateway, noTransitions{}, log)
	needs := service.NewNeedsService(factoryUow, analyzer, coordinator, commonGround, gateway, log)
	messages := service.NewMessageService(factoryUow)

	alex, sam := uuid.New(), uuid.New()
	names := map[uuid.UUID]string{alex: "Alex", sam: "Sam"}

	step := func(format string, a ...interface{}) {
		gateway.Flush()
		stepColor.Printf("\n== "+format+"\n", a...)
	}
	check := func(who uuid.UUID, what string, res *dto.StageActionResult) error {
		if res.Status != constant.ResultStatusOK {
			return fmt.Errorf("%s: %s blocked (%s %s)", names[who], what, res.Reason, strings.Join(res.UnsatisfiedGates, ","))
		}
		okColor.Printf("    %s: %s ok (stage %d %s)\n", names[who], what, res.Stage, res.StageStatus)
		return nil
	}

	step("Alex opens a session and invites Sam")
	session, err := sessions.CreateSession(ctx, alex, &dto.CreateSessionRequest{
		InviteeEmail: "sam@example.com",
		InviteeName:  "Sam",
		InviterName:  "Alex",
	})
	if err != nil {
		return err
	}
	res, err := sessions.ConfirmInvitation(ctx, session.Id, alex)
	if err != nil {
		return err
	}
	if err := check(alex, "invitation", res); err != nil {
		return err
	}

	step("Sam accepts code %s and signs the compact", session.InvitationCode)
	if _, err := sessions.AcceptInvitation(ctx, session.InvitationCode, sam); err != nil {
		return err
	}
	if res, err = sessions.SignCompact(ctx, session.Id, sam); err != nil {
		return err
	}
	if err := check(sam, "compact", res); err != nil {
		return err
	}

	lines := map[uuid.UUID]string{
		alex: "I get anxious when bills come up and it feels like I am being judged.",
		sam:  "I do most of the chores and nobody seems to notice it.",
	}

	for _, who := range []uuid.UUID{alex, sam} {
		step("%s works through witness and perspective stretch", names[who])
		walk := []struct {
			stage gate.Stage
			gates []gate.Name
		}{
			{gate.StageWitness, []gate.Name{gate.FeelHeardConfirmed}},
			{gate.StagePerspectiveStretch, []gate.Name{gate.EmpathyDraftReady, gate.EmpathyConsented, gate.PartnerValidated}},
		}
		for _, w := range walk {
			if res, err = stages.Advance(ctx, session.Id, who); err != nil {
				return err
			}
			if err := check(who, "advance to "+w.stage.String(), res); err != nil {
				return err
			}
			if _, err := messages.RecordMessage(ctx, session.Id, who, &dto.RecordMessageRequest{Content: lines[who]}); err != nil {
				return err
			}
			for _, g := range w.gates {
				if res, err = stages.RecordGate(ctx, session.Id, who, w.stage, g); err != nil {
					return err
				}
				if err := check(who, string(g), res); err != nil {
					return err
				}
			}
		}
		if res, err = stages.Advance(ctx, session.Id, who); err != nil {
			return err
		}
		if err := check(who, "advance to needs_mapping", res); err != nil {
			return err
		}
	}

	for _, who := range []uuid.UUID{alex, sam} {
		step("%s reviews and shares their needs", names[who])
		found, err := needs.GetOrComputeNeeds(ctx, session.Id, who)
		if err != nil {
			return err
		}
		for found.Extracting {
			time.Sleep(200 * time.Millisecond)
			if found, err = needs.GetOrComputeNeeds(ctx, session.Id, who); err != nil {
				return err
			}
		}
		ids := make([]uuid.UUID, 0, len(found.Needs))
		for _, n := range found.Needs {
			fmt.Printf("    [%s] %s (%.2f)\n", n.Category, n.Need, n.Confidence)
			ids = append(ids, n.Id)
		}
		if res, err = needs.ConfirmNeeds(ctx, session.Id, who, &dto.ConfirmNeedsRequest{NeedIds: ids}); err != nil {
			return err
		}
		if err := check(who, "confirm needs", res); err != nil {
			return err
		}
		consent, err := needs.ConsentToShareNeeds(ctx, session.Id, who, &dto.ConsentNeedsRequest{NeedIds: ids})
		if err != nil {
			return err
		}
		if err := check(who, "share needs", &consent.StageActionResult); err != nil {
			return err
		}
	}

	step("Both confirm the common ground")
	for _, who := range []uuid.UUID{alex, sam} {
		cg, err := commonGround.GetCommonGround(ctx, session.Id, who)
		if err != nil {
			return err
		}
		if cg.Status != dto.CommonGroundReady {
			return fmt.Errorf("common ground is %s", cg.Status)
		}
		req := &dto.ConfirmCommonGroundRequest{NoOverlap: cg.NoOverlap}
		for _, item := range cg.Items {
			fmt.Printf("    shared: [%s] %s\n", item.Category, item.Need)
			req.CommonGroundIds = append(req.CommonGroundIds, item.Id)
		}
		confirmed, err := commonGround.ConfirmCommonGround(ctx, session.Id, who, req)
		if err != nil {
			return err
		}
		if err := check(who, "confirm common ground", &confirmed.StageActionResult); err != nil {
			return err
		}
		if confirmed.SharedStageCompleted {
			okColor.Println("    needs mapping completed for both")
		}
	}

	step("Final progress")
	progress, err := stages.GetProgress(ctx, session.Id, alex)
	if err != nil {
		return err
	}
	fmt.Printf("    %s: stage %d %s\n", names[alex], progress.Me.Stage, progress.Me.Status)
	if progress.Partner != nil {
		fmt.Printf("    %s: stage %d %s\n", names[sam], progress.Partner.Stage, progress.Partner.Status)
	}
	return nil
}
