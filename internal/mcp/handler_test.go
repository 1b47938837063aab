package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// newAdminAPI fakes the bot's admin API and records mutations
func newAdminAPI(t *testing.T, calls *[]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "bot": "grotebroer"})
	})
	mux.HandleFunc("GET /api/terms", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"terms": []string{"golang", "ferry"}})
	})
	mux.HandleFunc("POST /api/terms", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Term string `json:"term"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		*calls = append(*calls, "add "+body.Term)
		json.NewEncoder(w).Encode(CommandResult{Command: "+" + body.Term, Reply: "Term added: " + body.Term, Changed: true})
	})
	mux.HandleFunc("DELETE /api/terms/{term}", func(w http.ResponseWriter, r *http.Request) {
		term := r.PathValue("term")
		*calls = append(*calls, "remove "+term)
		json.NewEncoder(w).Encode(CommandResult{Command: "-" + term, Reply: "Term removed: " + term, Changed: true})
	})
	mux.HandleFunc("GET /api/chance", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int{"chance": 25})
	})
	mux.HandleFunc("PUT /api/chance", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Chance int `json:"chance"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		*calls = append(*calls, "chance")
		json.NewEncoder(w).Encode(CommandResult{Reply: "Chance set", Changed: body.Chance != 25})
	})
	mux.HandleFunc("GET /api/alarms", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"alarms": map[string]map[string]string{"07:30": {"om_1": "ou_a"}}})
	})
	mux.HandleFunc("GET /api/matcher", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"pattern": `(?i)\b(golang|ferry)\b`})
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHandler_ListTerms(t *testing.T) {
	var calls []string
	h := NewHandler(NewClient(newAdminAPI(t, &calls).URL))

	_, out, err := h.ListTerms(context.Background(), nil, EmptyInput{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Error != "" {
		t.Fatalf("Unexpected tool error: %s", out.Error)
	}
	if diff := cmp.Diff([]string{"golang", "ferry"}, out.Terms); diff != "" {
		t.Errorf("Terms mismatch (-want +got):\n%s", diff)
	}
	if out.Pattern != `(?i)\b(golang|ferry)\b` {
		t.Errorf("Unexpected pattern %q", out.Pattern)
	}
}

func TestHandler_AddAndRemoveTerm(t *testing.T) {
	var calls []string
	h := NewHandler(NewClient(newAdminAPI(t, &calls).URL))
	ctx := context.Background()

	_, out, _ := h.AddTerm(ctx, nil, TermInput{Term: "tulip"})
	if !out.Changed || out.Reply != "Term added: tulip" {
		t.Errorf("Unexpected add output: %+v", out)
	}
	_, out, _ = h.RemoveTerm(ctx, nil, TermInput{Term: "tulip"})
	if !out.Changed || out.Reply != "Term removed: tulip" {
		t.Errorf("Unexpected remove output: %+v", out)
	}

	if diff := cmp.Diff([]string{"add tulip", "remove tulip"}, calls); diff != "" {
		t.Errorf("Calls mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_TermRequired(t *testing.T) {
	var calls []string
	h := NewHandler(NewClient(newAdminAPI(t, &calls).URL))

	_, out, _ := h.AddTerm(context.Background(), nil, TermInput{})
	if out.Error != "term is required" {
		t.Errorf("Expected validation error, got %+v", out)
	}
	if len(calls) != 0 {
		t.Errorf("Expected no API calls, got %v", calls)
	}
}

func TestHandler_Chance(t *testing.T) {
	var calls []string
	h := NewHandler(NewClient(newAdminAPI(t, &calls).URL))
	ctx := context.Background()

	_, got, _ := h.GetChance(ctx, nil, EmptyInput{})
	if got.Chance != 25 {
		t.Errorf("Expected chance 25, got %+v", got)
	}

	_, out, _ := h.SetChance(ctx, nil, ChanceInput{Chance: 101})
	if out.Error == "" {
		t.Error("Expected out of range chance to be rejected")
	}
	_, out, _ = h.SetChance(ctx, nil, ChanceInput{Chance: 50})
	if !out.Changed || out.Error != "" {
		t.Errorf("Unexpected set output: %+v", out)
	}
	if len(calls) != 1 {
		t.Errorf("Expected one mutation, got %v", calls)
	}
}

func TestHandler_ListAlarms(t *testing.T) {
	var calls []string
	h := NewHandler(NewClient(newAdminAPI(t, &calls).URL))

	_, out, _ := h.ListAlarms(context.Background(), nil, EmptyInput{})
	want := map[string]map[string]string{"07:30": {"om_1": "ou_a"}}
	if diff := cmp.Diff(want, out.Alarms); diff != "" {
		t.Errorf("Alarms mismatch (-want +got):\n%s", diff)
	}
}

func TestHandler_APIErrorBecomesToolError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"terms not available for bot casio"}`, http.StatusNotFound)
	}))
	defer server.Close()
	h := NewHandler(NewClient(server.URL))

	_, out, err := h.ListTerms(context.Background(), nil, EmptyInput{})
	if err != nil {
		t.Fatalf("Expected error in output, got %v", err)
	}
	if out.Error != `HTTP 404: {"error":"terms not available for bot casio"}` {
		t.Errorf("Unexpected error %q", out.Error)
	}
}

func TestClient_Health(t *testing.T) {
	var calls []string
	bot, err := NewClient(newAdminAPI(t, &calls).URL).Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if bot != "grotebroer" {
		t.Errorf("Expected grotebroer, got %q", bot)
	}
}

func TestServer_RegistersTools(t *testing.T) {
	var calls []string
	s := NewServer(NewClient(newAdminAPI(t, &calls).URL), "test")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("Server connect: %v", err)
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("Client connect: %v", err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	want := []string{
		"robotzoo_add_term",
		"robotzoo_get_chance",
		"robotzoo_list_alarms",
		"robotzoo_list_terms",
		"robotzoo_remove_term",
		"robotzoo_set_chance",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("Tools mismatch (-want +got):\n%s", diff)
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "robotzoo_add_term",
		Arguments: map[string]any{"term": "tulip"},
	})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	raw, _ := json.Marshal(res.StructuredContent)
	var out CommandOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Decode output: %v", err)
	}
	if !out.Changed || out.Reply != "Term added: tulip" {
		t.Errorf("Unexpected tool output: %+v", out)
	}
}
