package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

const (
	claudeDefaultBaseURL = "https://api.anthropic.com/v1"
	claudeDefaultModel   = "claude-sonnet-4-5-20250929"
	claudeRetryMax       = 3
	claudeRetryBase      = time.Second

	anthropicVersion = "2023-06-01"
)

// ClaudeProvider calls the Anthropic messages API.
type ClaudeProvider struct {
	apiKey     string
	authToken  string
	baseURL    string
	model      string
	httpClient *http.Client
	retryMax   int
	retryBase  time.Duration
}

// ClaudeOption configures a ClaudeProvider.
type ClaudeOption func(*ClaudeProvider)

// WithClaudeTimeout sets the HTTP client timeout.
func WithClaudeTimeout(timeout time.Duration) ClaudeOption {
	return func(p *ClaudeProvider) {
		if p == nil {
			return
		}
		if p.httpClient == nil {
			p.httpClient = &http.Client{}
		}
		p.httpClient.Timeout = timeout
	}
}

// WithClaudeRetry sets the max retry count for retryable failures.
func WithClaudeRetry(maxRetries int) ClaudeOption {
	return func(p *ClaudeProvider) {
		if p == nil {
			return
		}
		p.retryMax = clampRetryMax(maxRetries)
	}
}

// NewClaudeProvider constructs a provider. Empty apiKey falls back to
// ANTHROPIC_API_KEY, then ANTHROPIC_AUTH_TOKEN.
func NewClaudeProvider(apiKey string, baseURL string, model string, opts ...ClaudeOption) *ClaudeProvider {
	p := &ClaudeProvider{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(claudeDefaultBaseURL, "/"),
		model:      claudeDefaultModel,
		httpClient: &http.Client{},
		retryMax:   claudeRetryMax,
		retryBase:  claudeRetryBase,
	}
	if env := strings.TrimSpace(os.Getenv("ANTHROPIC_BASE_URL")); env != "" {
		p.baseURL = strings.TrimRight(env, "/")
	}
	if v := strings.TrimSpace(baseURL); v != "" {
		p.baseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(model); v != "" {
		p.model = v
	}
	if p.apiKey == "" {
		if envKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); envKey != "" {
			p.apiKey = envKey
		} else if envToken := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); envToken != "" {
			p.authToken = envToken
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *ClaudeProvider) Name() string {
	return "claude"
}

// Model reports the model name requests are sent with.
func (p *ClaudeProvider) Model() string {
	if p == nil {
		return ""
	}
	return p.model
}

// APIError represents a non-2xx response from the Anthropic API.
type APIError struct {
	StatusCode int
	Status     string
	RequestID  string
	Type       string
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	if e == nil {
		return "llm: claude: api error <nil>"
	}

	msg := strings.TrimSpace(e.Message)
	if msg == "" && len(e.Body) > 0 {
		msg = strings.TrimSpace(string(e.Body))
	}

	switch {
	case e.Type != "" && msg != "":
		return fmt.Sprintf("llm: claude: api error (%s): %s: %s", e.Status, e.Type, msg)
	case msg != "":
		return fmt.Sprintf("llm: claude: api error (%s): %s", e.Status, msg)
	default:
		return fmt.Sprintf("llm: claude: api error (%s)", e.Status)
	}
}

func (p *ClaudeProvider) Complete(ctx context.Context, req *Request) (*Response, error) {
	if p == nil {
		return nil, errors.New("llm: claude: nil provider")
	}
	if ctx == nil {
		return nil, errors.New("llm: claude: nil context")
	}
	if req == nil {
		return nil, errors.New("llm: claude: nil request")
	}
	if err := p.ensureAuth(); err != nil {
		return nil, err
	}

	params := p.buildMessageParams(req, toSDKMessages(req.Messages))
	return p.do(ctx, params)
}

func (p *ClaudeProvider) do(ctx context.Context, params anthropic.MessageNewParams) (*Response, error) {
	retryMax := clampRetryMax(p.retryMax)
	base := p.retryBase
	if base <= 0 {
		base = claudeRetryBase
	}

	sdk := p.newSDKClient()
	for attempt := 0; ; attempt++ {
		msg, err := sdk.Messages.New(ctx, params)
		if err != nil {
			err = normalizeError(err)
			if !shouldRetry(err) || attempt >= retryMax {
				return nil, err
			}
			if err := sleepWithContext(ctx, retryBackoff(base, attempt)); err != nil {
				return nil, err
			}
			continue
		}

		return fromSDKMessage(msg), nil
	}
}

func (p *ClaudeProvider) CompleteWithTools(ctx context.Context, req *Request) (*EvalResult, error) {
	start := time.Now()
	resp, err := p.Complete(ctx, req)
	latency := time.Since(start).Milliseconds()

	out := &EvalResult{
		Response:  resp,
		LatencyMs: latency,
		Error:     err,
	}
	if resp == nil {
		if err != nil {
			return out, err
		}
		return out, errors.New("llm: claude: nil response")
	}

	out.InputTokens = resp.Usage.InputTokens
	out.OutputTokens = resp.Usage.OutputTokens

	var sb strings.Builder
	for _, b := range resp.Content {
		switch b.Type {
		case "text":
			sb.WriteString(b.Text)
		case "tool_use":
			out.ToolCalls = append(out.ToolCalls, ToolUse{
				ID:    b.ID,
				Name:  b.Name,
				Input: b.Input,
			})
		}
	}
	out.TextContent = sb.String()

	if err != nil {
		return out, err
	}
	return out, nil
}

// CompleteMultiTurn runs a tool loop until the model stops calling tools or
// maxSteps is hit. Tool results go back as user-role tool_result blocks.
func (p *ClaudeProvider) CompleteMultiTurn(
	ctx context.Context,
	req *Request,
	toolExecutor func(ToolUse) (string, error),
	maxSteps int,
) (*MultiTurnResult, error) {
	if p == nil {
		return nil, errors.New("llm: claude: nil provider")
	}
	if ctx == nil {
		return nil, errors.New("llm: claude: nil context")
	}
	if req == nil {
		return nil, errors.New("llm: claude: nil request")
	}
	if err := p.ensureAuth(); err != nil {
		return nil, err
	}
	if maxSteps <= 0 {
		maxSteps = 5
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages)+maxSteps*2)
	messages = append(messages, toSDKMessages(req.Messages)...)

	out := &MultiTurnResult{}

	for step := 0; step < maxSteps; step++ {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		params := p.buildMessageParams(req, messages)

		start := time.Now()
		resp, err := p.do(ctx, params)
		latency := time.Since(start).Milliseconds()

		out.Steps = step + 1
		out.TotalLatencyMs += latency

		if resp != nil {
			out.AllResponses = append(out.AllResponses, resp)
			out.FinalResponse = resp
			out.TotalInputTokens += resp.Usage.InputTokens
			out.TotalOutputTokens += resp.Usage.OutputTokens
		}
		if err != nil {
			return out, err
		}

		messages = append(messages, toSDKMessage("assistant", contentBlocksToSDK(resp.Content)))

		toolCalls := toolUses(resp)
		if len(toolCalls) > 0 {
			out.AllToolCalls = append(out.AllToolCalls, toolCalls...)
		}

		if len(toolCalls) == 0 {
			if resp.StopReason == "tool_use" {
				return out, errors.New("llm: claude: stop_reason tool_use but no tool calls")
			}
			return out, nil
		}

		if toolExecutor == nil {
			return out, errors.New("llm: claude: nil tool executor")
		}

		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(toolCalls))
		for _, call := range toolCalls {
			content, execErr := toolExecutor(call)
			isError := false
			if execErr != nil {
				isError = true
				content = execErr.Error()
			}
			blocks = append(blocks, anthropic.NewToolResultBlock(call.ID, content, isError))
		}

		messages = append(messages, toSDKMessage("user", blocks))
	}

	return out, fmt.Errorf("llm: claude: max steps (%d) reached", maxSteps)
}

func toolUses(resp *Response) []ToolUse {
	if resp == nil {
		return nil
	}

	var out []ToolUse
	for _, b := range resp.Content {
		if b.Type != "tool_use" {
			continue
		}
		out = append(out, ToolUse{
			ID:    b.ID,
			Name:  b.Name,
			Input: b.Input,
		})
	}
	return out
}

type apiErrorEnvelope struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func normalizeError(err error) error {
	if err == nil {
		return nil
	}

	var sdkErr *anthropic.Error
	if errors.As(err, &sdkErr) {
		return apiErrorFromSDK(sdkErr)
	}
	return err
}

func apiErrorFromSDK(err *anthropic.Error) *APIError {
	if err == nil {
		return nil
	}

	apiErr := &APIError{
		StatusCode: err.StatusCode,
		RequestID:  err.RequestID,
	}
	if err.Response != nil {
		apiErr.Status = err.Response.Status
	} else if err.StatusCode != 0 {
		apiErr.Status = fmt.Sprintf("%d %s", err.StatusCode, http.StatusText(err.StatusCode))
	}

	raw := strings.TrimSpace(err.RawJSON())
	if raw != "" {
		apiErr.Body = []byte(raw)
		var env apiErrorEnvelope
		if json.Unmarshal([]byte(raw), &env) == nil {
			apiErr.Type = env.Error.Type
			apiErr.Message = env.Error.Message
		}
	}

	return apiErr
}

func (p *ClaudeProvider) ensureAuth() error {
	if p == nil {
		return errors.New("llm: claude: nil provider")
	}
	if strings.TrimSpace(p.apiKey) != "" || strings.TrimSpace(p.authToken) != "" {
		return nil
	}
	if envKey := strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY")); envKey != "" {
		p.apiKey = envKey
		return nil
	}
	if envToken := strings.TrimSpace(os.Getenv("ANTHROPIC_AUTH_TOKEN")); envToken != "" {
		p.authToken = envToken
		return nil
	}
	return errors.New("llm: claude: missing api key")
}

func (p *ClaudeProvider) newSDKClient() *anthropic.Client {
	opts := make([]option.RequestOption, 0, 5)
	if base := strings.TrimSpace(p.baseURL); base != "" {
		opts = append(opts, option.WithBaseURL(sdkBaseURL(base)))
	}
	if p.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(p.httpClient))
	}
	if strings.TrimSpace(p.apiKey) != "" {
		opts = append(opts, option.WithAPIKey(p.apiKey))
	} else if strings.TrimSpace(p.authToken) != "" {
		opts = append(opts, option.WithAuthToken(p.authToken))
	}
	opts = append(opts, option.WithMaxRetries(0))
	opts = append(opts, option.WithHeader("anthropic-version", anthropicVersion))

	client := anthropic.NewClient(opts...)
	return &client
}

// sdkBaseURL strips a trailing /v1; the SDK appends version paths itself.
func sdkBaseURL(base string) string {
	base = strings.TrimSpace(strings.TrimRight(base, "/"))
	if strings.HasSuffix(base, "/v1") {
		base = strings.TrimSuffix(base, "/v1")
	}
	return base
}

func (p *ClaudeProvider) buildMessageParams(req *Request, messages []anthropic.MessageParam) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  messages,
	}

	if system := strings.TrimSpace(req.System); system != "" {
		params.System = []anthropic.TextBlockParam{{
			Text: system,
			Type: "text",
		}}
	}
	if req.Temperature != 0 {
		params.Temperature = param.NewOpt(req.Temperature)
	}
	if len(req.Tools) > 0 {
		params.Tools = toSDKTools(req.Tools)
	}
	return params
}

func toSDKMessages(msgs []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, toSDKMessage(m.Role, []anthropic.ContentBlockParamUnion{
			anthropic.NewTextBlock(m.Content),
		}))
	}
	return out
}

func toSDKMessage(role string, blocks []anthropic.ContentBlockParamUnion) anthropic.MessageParam {
	return anthropic.MessageParam{
		Role:    toSDKRole(role),
		Content: blocks,
	}
}

func toSDKRole(role string) anthropic.MessageParamRole {
	if strings.EqualFold(strings.TrimSpace(role), "assistant") {
		return anthropic.MessageParamRoleAssistant
	}
	return anthropic.MessageParamRoleUser
}

func contentBlocksToSDK(blocks []ContentBlock) []anthropic.ContentBlockParamUnion {
	if len(blocks) == 0 {
		return nil
	}

	out := make([]anthropic.ContentBlockParamUnion, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case "text":
			out = append(out, anthropic.NewTextBlock(b.Text))
		case "tool_use":
			out = append(out, anthropic.NewToolUseBlock(b.ID, b.Input, b.Name))
		}
	}
	return out
}

func toSDKTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			continue
		}
		tool := anthropic.ToolParam{
			Name:        name,
			InputSchema: toSDKToolInputSchema(t.InputSchema),
		}
		if desc := strings.TrimSpace(t.Description); desc != "" {
			tool.Description = param.NewOpt(desc)
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &tool})
	}
	return out
}

func toSDKToolInputSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	out := anthropic.ToolInputSchemaParam{Type: "object"}
	if schema == nil {
		return out
	}

	if props, ok := schema["properties"]; ok {
		out.Properties = props
	}
	if required, ok := schema["required"]; ok {
		out.Required = toStringSlice(required)
	}

	extra := make(map[string]any)
	for k, v := range schema {
		if k == "properties" || k == "required" || k == "type" {
			continue
		}
		extra[k] = v
	}
	if len(extra) > 0 {
		out.ExtraFields = extra
	}

	return out
}

func toStringSlice(v any) []string {
	switch value := v.(type) {
	case []string:
		return value
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func fromSDKMessage(msg *anthropic.Message) *Response {
	if msg == nil {
		return nil
	}

	resp := &Response{
		StopReason: string(msg.StopReason),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}

	if len(msg.Content) == 0 {
		return resp
	}

	resp.Content = make([]ContentBlock, 0, len(msg.Content))
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text := block.AsText()
			resp.Content = append(resp.Content, ContentBlock{
				Type: "text",
				Text: text.Text,
			})
		case "tool_use":
			tool := block.AsToolUse()
			resp.Content = append(resp.Content, ContentBlock{
				Type:  "tool_use",
				ID:    tool.ID,
				Name:  tool.Name,
				Input: decodeToolInput(tool.Input),
			})
		}
	}

	return resp
}

func decodeToolInput(raw json.RawMessage) map[string]any {
	if len(raw) == 0 {
		return nil
	}

	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func clampRetryMax(maxRetries int) int {
	if maxRetries < 0 {
		return 0
	}
	if maxRetries > claudeRetryMax {
		return claudeRetryMax
	}
	return maxRetries
}

func retryBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 0 {
		return 0
	}
	return base * time.Duration(1<<attempt)
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500 && apiErr.StatusCode <= 599
	}

	var sdkErr *anthropic.Error
	if errors.As(err, &sdkErr) {
		return sdkErr.StatusCode >= 500 && sdkErr.StatusCode <= 599
	}

	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
