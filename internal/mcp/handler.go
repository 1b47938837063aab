package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Handler implements the MCP tools over the admin API client
type Handler struct {
	client *Client
}

// NewHandler creates a new MCP handler
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// EmptyInput is the input of tools without arguments
type EmptyInput struct{}

// TermInput names one term
type TermInput struct {
	Term string `json:"term" jsonschema:"The term to watch for, letters a-z only"`
}

// ChanceInput carries a percentage
type ChanceInput struct {
	Chance int `json:"chance" jsonschema:"Repost and follow chance in percent, 0 to 100"`
}

// CommandOutput is the bot's reply to a mutation
type CommandOutput struct {
	Reply   string `json:"reply,omitempty"`
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
}

// TermsOutput lists terms
type TermsOutput struct {
	Terms   []string `json:"terms"`
	Pattern string   `json:"pattern,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// ChanceOutput reports the chance
type ChanceOutput struct {
	Chance int    `json:"chance"`
	Error  string `json:"error,omitempty"`
}

// AlarmsOutput lists pending alarms
type AlarmsOutput struct {
	Alarms map[string]map[string]string `json:"alarms"`
	Error  string                       `json:"error,omitempty"`
}

func commandOutput(res *CommandResult, err error) CommandOutput {
	if err != nil {
		return CommandOutput{Error: err.Error()}
	}
	return CommandOutput{Reply: res.Reply, Changed: res.Changed}
}

// ============ Term Handlers ============

func (h *Handler) ListTerms(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, TermsOutput, error) {
	terms, err := h.client.Terms(ctx)
	if err != nil {
		return nil, TermsOutput{Error: err.Error()}, nil
	}
	if terms == nil {
		terms = []string{}
	}
	// The pattern is informational only
	pattern, _ := h.client.Pattern(ctx)
	return nil, TermsOutput{Terms: terms, Pattern: pattern}, nil
}

func (h *Handler) AddTerm(ctx context.Context, req *mcp.CallToolRequest, input TermInput) (*mcp.CallToolResult, CommandOutput, error) {
	if input.Term == "" {
		return nil, CommandOutput{Error: "term is required"}, nil
	}
	return nil, commandOutput(h.client.AddTerm(ctx, input.Term)), nil
}

func (h *Handler) RemoveTerm(ctx context.Context, req *mcp.CallToolRequest, input TermInput) (*mcp.CallToolResult, CommandOutput, error) {
	if input.Term == "" {
		return nil, CommandOutput{Error: "term is required"}, nil
	}
	return nil, commandOutput(h.client.RemoveTerm(ctx, input.Term)), nil
}

// ============ Chance Handlers ============

func (h *Handler) GetChance(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, ChanceOutput, error) {
	chance, err := h.client.Chance(ctx)
	if err != nil {
		return nil, ChanceOutput{Error: err.Error()}, nil
	}
	return nil, ChanceOutput{Chance: chance}, nil
}

func (h *Handler) SetChance(ctx context.Context, req *mcp.CallToolRequest, input ChanceInput) (*mcp.CallToolResult, CommandOutput, error) {
	if input.Chance < 0 || input.Chance > 100 {
		return nil, CommandOutput{Error: "chance must be between 0 and 100"}, nil
	}
	return nil, commandOutput(h.client.SetChance(ctx, input.Chance)), nil
}

// ============ Alarm Handlers ============

func (h *Handler) ListAlarms(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, AlarmsOutput, error) {
	alarms, err := h.client.Alarms(ctx)
	if err != nil {
		return nil, AlarmsOutput{Error: err.Error()}, nil
	}
	return nil, AlarmsOutput{Alarms: alarms}, nil
}
