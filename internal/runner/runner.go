// Package runner issues one multi-turn tool-loop inference per task against a
// scratch copy of the sandbox and records the full trace.
package runner

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stellarlinkco/sandbench/internal/llm"
	"github.com/stellarlinkco/sandbench/internal/sandbox"
	"github.com/stellarlinkco/sandbench/internal/taskgen"
)

// Variant selects which tool catalog the model sees.
type Variant string

const (
	// VariantRestricted exposes only the task's own domain catalogs.
	VariantRestricted Variant = "restricted"
	// VariantAllTools exposes every domain's catalog.
	VariantAllTools Variant = "all_tools"
)

var ErrUnknownVariant = errors.New("runner: unknown variant")

func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantRestricted:
		return VariantRestricted, nil
	case VariantAllTools:
		return VariantAllTools, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
}

// Failure markers recorded on a task result. Sentinel failures end the task
// but never the batch.
const (
	FailureTimeout       = "timeout"
	FailureContextWindow = "context_window_exceeded"
	FailureProvider      = "provider_error"
)

// contextWindowMarkers are substrings providers use to reject oversized
// prompts. Context overflow is an accepted limitation and is never retried.
var contextWindowMarkers = []string{
	"maximum input length",
	"maximum context length",
	"prompt is too long",
	"Request too large",
}

const systemPrompt = `You are an assistant for a business user. Today's date and time is 2023-11-30 09:00:00.
Use the available tools to carry out the user's request against their workplace software.
Only take actions the request calls for; if the stated condition does not hold, take no action.
When you are done, finish your reply with a single line of the form:
ANSWER: <answer>
For action-only requests, use ANSWER: done.`

// Config bounds a batch run.
type Config struct {
	Concurrency int
	Timeout     time.Duration
	MaxSteps    int
	MaxTokens   int
}

// TaskResult is the verbatim record of one task's inference.
type TaskResult struct {
	TaskID       string         `json:"task_id"`
	Query        string         `json:"query"`
	FinalText    string         `json:"final_text,omitempty"`
	ToolCalls    []sandbox.Call `json:"tool_calls,omitempty"`
	Failure      string         `json:"failure,omitempty"`
	ErrorMessage string         `json:"error_message,omitempty"`
	Steps        int            `json:"steps"`
	LatencyMs    int64          `json:"latency_ms"`
	InputTokens  int            `json:"input_tokens"`
	OutputTokens int            `json:"output_tokens"`
}

// ResultSet holds one run of a task set under a single model and variant.
type ResultSet struct {
	RunID     string         `json:"run_id"`
	Domain    sandbox.Domain `json:"domain"`
	Model     string         `json:"model"`
	Variant   Variant        `json:"variant"`
	CreatedAt time.Time      `json:"created_at"`
	Results   []TaskResult   `json:"-"`
}

type Runner struct {
	provider llm.Provider
	model    string
	cfg      Config

	sem chan struct{}
}

// NewRunner creates a Runner. The provider must support multi-turn tool loops.
func NewRunner(provider llm.Provider, cfg Config) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = 10
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}

	model := ""
	if named, ok := provider.(interface{ Model() string }); ok {
		model = named.Model()
	}

	return &Runner{
		provider: provider,
		model:    model,
		cfg:      cfg,
		sem:      make(chan struct{}, cfg.Concurrency),
	}
}

// Run executes every task in the set against scratch clones of snap.
func (r *Runner) Run(ctx context.Context, snap *sandbox.Snapshot, set *taskgen.TaskSet, variant Variant) (*ResultSet, error) {
	if r == nil {
		return nil, errors.New("runner: nil runner")
	}
	if ctx == nil {
		return nil, errors.New("runner: nil context")
	}
	if r.provider == nil {
		return nil, errors.New("runner: nil llm provider")
	}
	if snap == nil {
		return nil, errors.New("runner: nil snapshot")
	}
	if set == nil {
		return nil, errors.New("runner: nil task set")
	}
	looper, ok := r.provider.(llm.ToolLoopProvider)
	if !ok {
		return nil, errors.New("runner: provider does not support tool loops")
	}
	if variant != VariantRestricted && variant != VariantAllTools {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, variant)
	}

	out := &ResultSet{
		RunID:     uuid.NewString(),
		Domain:    set.Domain,
		Model:     r.model,
		Variant:   variant,
		CreatedAt: time.Now().UTC(),
		Results:   make([]TaskResult, len(set.Tasks)),
	}

	var wg sync.WaitGroup
	for i := range set.Tasks {
		task := set.Tasks[i]
		idx := i

		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := r.acquire(ctx); err != nil {
				out.Results[idx] = TaskResult{
					TaskID:       task.ID,
					Query:        task.Query,
					Failure:      classifyFailure(err),
					ErrorMessage: err.Error(),
				}
				return
			}
			defer r.release()

			out.Results[idx] = r.runTask(ctx, looper, snap, &task, variant)
		}()
	}
	wg.Wait()

	return out, nil
}

func (r *Runner) runTask(ctx context.Context, looper llm.ToolLoopProvider, snap *sandbox.Snapshot, task *taskgen.Task, variant Variant) TaskResult {
	tr := TaskResult{TaskID: task.ID, Query: task.Query}

	taskCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	var specs []sandbox.ToolSpec
	if variant == VariantAllTools {
		specs = sandbox.AllCatalog()
	} else {
		specs = sandbox.Catalog(task.Domains)
	}

	// Tools run against a scratch clone so reads see live data and writes
	// never leak across tasks.
	scratch := snap.Clone()
	executor := func(tu llm.ToolUse) (string, error) {
		return scratch.Execute(toCall(tu))
	}

	req := &llm.Request{
		Messages:  []llm.Message{{Role: "user", Content: task.Query}},
		System:    systemPrompt,
		MaxTokens: r.cfg.MaxTokens,
		Tools:     toToolDefinitions(specs),
	}

	res, err := looper.CompleteMultiTurn(taskCtx, req, executor, r.cfg.MaxSteps)
	if res != nil {
		tr.FinalText = llm.Text(res.FinalResponse)
		tr.Steps = res.Steps
		tr.LatencyMs = res.TotalLatencyMs
		tr.InputTokens = res.TotalInputTokens
		tr.OutputTokens = res.TotalOutputTokens
		for _, tu := range res.AllToolCalls {
			tr.ToolCalls = append(tr.ToolCalls, toCall(tu))
		}
	}
	if err != nil {
		// A loop cut off at max steps keeps its trace; the calls it made
		// still count.
		if strings.Contains(err.Error(), "max steps") {
			tr.ErrorMessage = err.Error()
			return tr
		}
		tr.Failure = classifyFailure(err)
		tr.ErrorMessage = err.Error()
	}
	return tr
}

func (r *Runner) acquire(ctx context.Context) error {
	select {
	case r.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) release() {
	<-r.sem
}

func classifyFailure(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, marker := range contextWindowMarkers {
		if strings.Contains(msg, marker) {
			return FailureContextWindow
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureProvider
}

// Provider APIs restrict tool names to [a-zA-Z0-9_-], so the catalog's dotted
// names go over the wire with "__" in place of the dot.
func wireToolName(name string) string {
	return strings.ReplaceAll(name, ".", "__")
}

func fromWireToolName(name string) string {
	return strings.Replace(name, "__", ".", 1)
}

// toCall flattens a provider tool use into a sandbox call. Tool inputs are
// all-string schemas, but models sometimes send numbers anyway.
func toCall(tu llm.ToolUse) sandbox.Call {
	c := sandbox.Call{Tool: fromWireToolName(tu.Name)}
	if len(tu.Input) == 0 {
		return c
	}
	c.Args = make(map[string]string, len(tu.Input))
	for k, v := range tu.Input {
		switch val := v.(type) {
		case string:
			c.Args[k] = val
		case float64:
			c.Args[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			c.Args[k] = strconv.FormatBool(val)
		case nil:
			c.Args[k] = ""
		default:
			c.Args[k] = fmt.Sprintf("%v", val)
		}
	}
	return c
}

func toToolDefinitions(specs []sandbox.ToolSpec) []llm.ToolDefinition {
	out := make([]llm.ToolDefinition, 0, len(specs))
	for _, s := range specs {
		out = append(out, llm.ToolDefinition{
			Name:        wireToolName(s.Name),
			Description: s.Description,
			InputSchema: s.InputSchema,
		})
	}
	return out
}
