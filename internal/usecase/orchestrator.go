package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"CoPenny/internal/agents"
	"CoPenny/internal/domain/models"
	"CoPenny/internal/domain/repository"
	"CoPenny/internal/llm"
	"CoPenny/internal/service/charts"
	"CoPenny/pkg/logger"
)

// Orchestrator runs the chat pipeline: parse the message, retrieve
// knowledge, build the data context, then either the full strategy
// pipeline or one consolidated advisor completion.
type Orchestrator struct {
	parser     *agents.Parser
	strategist *agents.Strategist
	risk       *agents.RiskAssessor
	planner    *agents.Planner
	formatter  *agents.Formatter
	analyst    *agents.Analyst

	llm          agents.Completer
	knowledge    repository.KnowledgeStore
	transactions repository.TransactionStore
	users        repository.UserStore
	market       repository.MarketData
	charts       *charts.Renderer
	metrics      repository.Metrics
	log          *logger.Logger

	knowledgeTopK int
}

// OrchestratorOption configures the Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithMarketData attaches the live market snapshot source.
func WithMarketData(m repository.MarketData) OrchestratorOption {
	return func(o *Orchestrator) { o.market = m }
}

// WithCharts attaches the chart renderer.
func WithCharts(r *charts.Renderer) OrchestratorOption {
	return func(o *Orchestrator) { o.charts = r }
}

// WithMetrics attaches the metrics recorder.
func WithMetrics(m repository.Metrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithOrchestratorLogger attaches a logger.
func WithOrchestratorLogger(l *logger.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.log = l }
}

// NewOrchestrator wires the pipeline.
func NewOrchestrator(
	completer agents.Completer,
	knowledge repository.KnowledgeStore,
	transactions repository.TransactionStore,
	users repository.UserStore,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		parser:        agents.NewParser(completer),
		strategist:    agents.NewStrategist(completer),
		risk:          agents.NewRiskAssessor(completer),
		planner:       agents.NewPlanner(),
		formatter:     agents.NewFormatter(),
		analyst:       agents.NewAnalyst(),
		llm:           completer,
		knowledge:     knowledge,
		transactions:  transactions,
		users:         users,
		knowledgeTopK: 5,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Chat answers one message. It never returns an error: every failure
// path folds into the apology envelope so the HTTP layer always has a
// well-formed response to send.
func (o *Orchestrator) Chat(ctx context.Context, req *models.ChatRequest) (resp *models.ChatResponse) {
	defer func() {
		if r := recover(); r != nil {
			if o.log != nil {
				o.log.Error("chat pipeline panic", logger.Any("panic", r))
			}
			if o.metrics != nil {
				o.metrics.RecordError("panic")
			}
			resp = models.ErrorResponse(fmt.Errorf("%v", r))
		}
	}()

	resp = o.chat(ctx, req)
	if o.metrics != nil && resp != nil {
		o.metrics.RecordChatRequest(resp.Type)
	}
	return resp
}

func (o *Orchestrator) chat(ctx context.Context, req *models.ChatRequest) *models.ChatResponse {
	intent := o.stageParse(ctx, req.Message, req.Context)

	chunks := o.stageRetrieve(ctx, intent, req.Message)

	var summary *models.TransactionSummary
	if intent.RequiresTransactionData || hasDataKeywords(req.Message) {
		summary = o.stageSummary(ctx, req.UserID)
	}

	if intent.IsInvestment() && len(chunks) > 0 {
		return o.investmentPipeline(ctx, req, intent, chunks, summary)
	}
	return o.advisorReply(ctx, req, intent, chunks, summary)
}

func (o *Orchestrator) stageParse(ctx context.Context, message string, turns []models.Turn) *models.Intent {
	start := time.Now()
	intent := o.parser.Parse(ctx, message, turns)
	o.recordStage("parse", start)
	return intent
}

func (o *Orchestrator) stageRetrieve(ctx context.Context, intent *models.Intent, message string) []models.Chunk {
	if !intent.RequiresKnowledge || o.knowledge == nil {
		return nil
	}
	start := time.Now()
	defer o.recordStage("retrieve", start)

	query := strings.Join(intent.Keywords, " ")
	if query == "" {
		query = message
	}
	chunks, err := o.knowledge.Retrieve(ctx, query, "", o.knowledgeTopK)
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordError("knowledge")
		}
		return nil
	}
	return chunks
}

func (o *Orchestrator) stageSummary(ctx context.Context, userID string) *models.TransactionSummary {
	start := time.Now()
	defer o.recordStage("summary", start)

	summary, err := o.transactions.Summary(ctx, userID)
	if err != nil {
		if o.log != nil {
			o.log.Warn("transaction summary failed", logger.Error(err))
		}
		return nil
	}
	return summary
}

func (o *Orchestrator) profile(ctx context.Context, userID string) *models.Profile {
	if o.users == nil || userID == "" {
		return nil
	}
	p, err := o.users.GetProfile(ctx, userID)
	if err != nil {
		if o.log != nil {
			o.log.Warn("profile lookup failed", logger.Error(err))
		}
		return nil
	}
	return p
}

func (o *Orchestrator) marketContext() *models.MarketContext {
	if o.market == nil {
		return nil
	}
	return o.market.Context()
}

// investmentPipeline runs strategy, risk, formatting and, when the
// strategy produced recommendations, the implementation plan.
func (o *Orchestrator) investmentPipeline(
	ctx context.Context,
	req *models.ChatRequest,
	intent *models.Intent,
	chunks []models.Chunk,
	summary *models.TransactionSummary,
) *models.ChatResponse {
	profile := o.profile(ctx, req.UserID)
	riskProfile := profile.RiskProfile()

	start := time.Now()
	strategy := o.strategist.Generate(ctx, req.Message, chunks, riskProfile, summary, o.marketContext())
	o.recordStage("strategy", start)

	start = time.Now()
	assessment := o.risk.Assess(ctx, strategy, riskProfile, chunks)
	o.recordStage("risk", start)

	resp := o.formatter.Format(strategy, assessment, summary, chunks)

	recommendations := models.EffectiveRecommendations(strategy, assessment)
	if len(recommendations) > 0 {
		tolerance := ""
		if riskProfile != nil {
			tolerance = riskProfile.RiskTolerance
		}
		plan := o.planner.Generate(tolerance, recommendations, recommendedAssets(recommendations))
		resp.Answer += "\n\n---\n\n" + plan.Markdown()
	}

	o.attachCharts(ctx, req, resp)
	return resp
}

// recommendedAssets collects specific products across recommendations.
func recommendedAssets(recs []models.Recommendation) []string {
	var assets []string
	for _, r := range recs {
		assets = append(assets, r.SpecificProducts...)
	}
	return assets
}

// advisorReply answers with one consolidated advisor completion.
func (o *Orchestrator) advisorReply(
	ctx context.Context,
	req *models.ChatRequest,
	intent *models.Intent,
	chunks []models.Chunk,
	summary *models.TransactionSummary,
) *models.ChatResponse {
	prompt := o.buildAdvisorPrompt(req, chunks, summary)

	start := time.Now()
	answer, err := o.llm.Complete(ctx, prompt, llm.SystemAdvisor)
	o.recordStage("advisor", start)
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordError("llm")
		}
		return models.ErrorResponse(err)
	}

	// Some providers reply with a JSON envelope instead of plain text.
	if structured, ok := parseStructuredAnswer(answer); ok {
		o.attachCharts(ctx, req, structured)
		return structured
	}

	resp := o.formatter.FormatSimple(answer, chunks)
	o.attachCharts(ctx, req, resp)
	return resp
}

func (o *Orchestrator) buildAdvisorPrompt(
	req *models.ChatRequest,
	chunks []models.Chunk,
	summary *models.TransactionSummary,
) string {
	var sb strings.Builder

	if len(chunks) > 0 {
		sb.WriteString("RELEVANT KNOWLEDGE:\n")
		top := chunks
		if len(top) > 3 {
			top = top[:3]
		}
		for i, c := range top {
			sb.WriteString(fmt.Sprintf("\n[%d] %s\n", i+1, c.Content))
		}
		sb.WriteString("\n")
	}

	if summary != nil {
		sb.WriteString("TRANSACTION DATA CONTEXT:\n")
		if summary.Notes != "" {
			sb.WriteString("SYSTEM ALERT: NO DATA AVAILABLE. The user has not uploaded any transaction data. ")
			sb.WriteString("Do not invent numbers; tell the user to upload a transactions CSV first.\n\n")
		} else {
			sb.WriteString(fmt.Sprintf("- Total spend: %.2f\n", summary.TotalSpend))
			sb.WriteString(fmt.Sprintf("- Monthly average: %.2f\n", summary.MonthlyAverage))
			var cats []string
			for _, c := range summary.TopCategories {
				cats = append(cats, fmt.Sprintf("%s (%.0f)", c.Category, c.Spent))
			}
			if len(cats) > 0 {
				sb.WriteString("- Top categories: " + strings.Join(cats, ", ") + "\n")
			}
			if summary.Coverage.Start != "" {
				sb.WriteString(fmt.Sprintf("- Data coverage: %s to %s (%d rows)\n",
					summary.Coverage.Start, summary.Coverage.End, summary.Coverage.Rows))
			}
			data := o.analyst.ExtractFinancialData(summary, nil)
			if r := o.analyst.Analyze(data); r != nil {
				sb.WriteString("- " + r.Describe() + "\n")
			}
			sb.WriteString("\n")
		}
	}

	if n := len(req.Context); n > 0 {
		sb.WriteString("Recent conversation:\n")
		turns := req.Context
		if n > 5 {
			turns = turns[n-5:]
		}
		for _, t := range turns {
			sb.WriteString(fmt.Sprintf("%s: %s\n", t.Role, t.Content))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("User Question: " + req.Message + "\n\n")
	sb.WriteString(`INSTRUCTIONS:
- Answer warmly and concisely in plain text.
- Ground every number in the transaction data context above; never invent figures.
- If the question needs data you do not have, say so and explain what to upload.`)

	return sb.String()
}

// parseStructuredAnswer detects a JSON envelope in the model reply.
func parseStructuredAnswer(reply string) (*models.ChatResponse, bool) {
	obj, ok := llm.ExtractObject(reply)
	if !ok {
		return nil, false
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return nil, false
	}
	answer, ok := payload["answer"].(string)
	if !ok || answer == "" {
		return nil, false
	}
	return &models.ChatResponse{
		Answer: answer,
		Status: models.StatusSuccess,
		Type:   models.TypeStructured,
		Data:   payload,
	}, true
}

// Chart-worthy request vocabulary.
var chartKeywords = []string{
	"chart", "graph", "plot", "visualize", "visualise", "show me",
	"breakdown", "break down", "analysis", "trend", "monthly",
	"spending", "category", "categories", "merchant", "top", "compare",
	"pie", "bar",
}

func wantsChart(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range chartKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	year, month := ExtractYearMonth(message)
	return year != 0 || month != 0
}

var dataKeywords = []string{
	"spend", "spent", "spending", "expense", "expenses", "transaction",
	"transactions", "budget", "money", "cost", "paid", "payment",
	"purchase", "bought", "save", "savings", "income", "cashflow",
	"balance",
}

func hasDataKeywords(message string) bool {
	lower := strings.ToLower(message)
	for _, kw := range dataKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var yearRe = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

var monthNames = map[string]int{
	"january": 1, "jan": 1,
	"february": 2, "feb": 2,
	"march": 3, "mar": 3,
	"april": 4, "apr": 4,
	"may": 5,
	"june": 6, "jun": 6,
	"july": 7, "jul": 7,
	"august": 8, "aug": 8,
	"september": 9, "sep": 9, "sept": 9,
	"october": 10, "oct": 10,
	"november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

// ExtractYearMonth pulls an explicit year and month name out of the
// message. Zero means not mentioned.
func ExtractYearMonth(message string) (year, month int) {
	if m := yearRe.FindString(message); m != "" {
		fmt.Sscanf(m, "%d", &year)
	}
	lower := strings.ToLower(message)
	// Longest names first so "march" is not matched as "mar".
	for _, name := range []string{
		"january", "february", "march", "april", "june", "july",
		"august", "september", "october", "november", "december",
		"sept", "jan", "feb", "mar", "apr", "may", "jun", "jul",
		"aug", "sep", "oct", "nov", "dec",
	} {
		if containsWord(lower, name) {
			month = monthNames[name]
			break
		}
	}
	return year, month
}

func containsWord(s, word string) bool {
	idx := strings.Index(s, word)
	for idx >= 0 {
		before := idx == 0 || !isLetter(s[idx-1])
		afterIdx := idx + len(word)
		after := afterIdx >= len(s) || !isLetter(s[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(s[idx+1:], word)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// attachCharts renders visualizations when the request asks for them.
func (o *Orchestrator) attachCharts(ctx context.Context, req *models.ChatRequest, resp *models.ChatResponse) {
	if o.charts == nil || !wantsChart(req.Message) {
		return
	}
	start := time.Now()
	defer o.recordStage("charts", start)

	year, month := ExtractYearMonth(req.Message)

	categories, _ := o.transactions.CategoryStats(ctx, req.UserID, year, month)
	daily, _ := o.transactions.DailySpend(ctx, req.UserID, year, month)
	merchants, _ := o.transactions.MerchantStats(ctx, req.UserID, year, month, 10)

	rendered := o.charts.Render(req.Message, charts.Inputs{
		Categories: categories,
		Daily:      daily,
		Merchants:  merchants,
	})
	if len(rendered) > 0 {
		resp.Visualizations = rendered
	}
}

func (o *Orchestrator) recordStage(stage string, start time.Time) {
	if o.metrics != nil {
		o.metrics.RecordStage(stage, time.Since(start).Seconds())
	}
}
