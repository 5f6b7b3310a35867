package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/flowcanvas/pkg/nodedef"
)

// BuiltinTransforms are the migration functions used by the built-in catalog.
var BuiltinTransforms = nodedef.Transforms{
	// "openai/gpt-4o" -> provider "openai", model "gpt-4o"
	"split_model": func(cfg map[string]any) (map[string]any, error) {
		s, ok := cfg["model"].(string)
		if !ok {
			return cfg, nil
		}
		provider, model, found := strings.Cut(s, "/")
		if !found {
			return cfg, nil
		}
		if provider == "" || model == "" {
			return nil, fmt.Errorf("malformed model %q", s)
		}
		cfg["provider"] = provider
		cfg["model"] = model
		return cfg, nil
	},
}

// BuiltinEnv returns the environment the built-in catalog is checked against.
func BuiltinEnv() *nodedef.Env {
	return &nodedef.Env{Rules: nodedef.StandardRules, Transforms: BuiltinTransforms}
}

// Builtin returns a frozen registry holding the standard catalog.
func Builtin(opts ...Option) *Registry {
	r := New(append([]Option{WithEnv(BuiltinEnv())}, opts...)...)
	r.MustRegister(BuiltinDefinitions()...)
	r.Freeze()
	return r
}

// Data types carried by built-in ports. Main ports pass workflow items;
// tool ports attach capabilities to an agent, so the two never mix.
const (
	DataItems = "items"
	DataTool  = "tool"
)

var (
	mainIn   = nodedef.PortDef{ID: "in", Type: nodedef.PortMain, Label: "Entrada", DataType: DataItems}
	mainOut  = nodedef.PortDef{ID: "out", Type: nodedef.PortMain, Label: "Salida", Multiple: true, DataType: DataItems}
	errorOut = nodedef.PortDef{ID: "error", Type: nodedef.PortError, Label: "Error", DataType: DataItems}
	toolOut  = nodedef.PortDef{ID: "out", Type: nodedef.PortTool, Label: "Herramienta", Multiple: true, DataType: DataTool}
)

func seconds(n int) nodedef.Duration { return nodedef.Duration(time.Duration(n) * time.Second) }

// BuiltinDefinitions returns fresh copies of the built-in node definitions.
func BuiltinDefinitions() []*nodedef.Definition {
	return []*nodedef.Definition{
		{
			TypeID:      "ap.trigger.webhook",
			Version:     1,
			DisplayName: "Webhook",
			Description: "Starts the workflow when an HTTP request arrives.",
			Category:    nodedef.CategoryTrigger,
			Tags:        []string{"trigger", "http", "webhook"},
			Icon:        "webhook",
			Color:       "#f97316",
			Outputs:     []nodedef.PortDef{mainOut},
			Properties: []nodedef.PropertyDef{
				{Name: "path", Label: "Ruta", Type: nodedef.TypeString, Required: true, Default: "/hook",
					UI: nodedef.UIHint{Placeholder: "/hook"}},
				{Name: "method", Label: "Método", Type: nodedef.TypeEnum, Required: true, Default: "POST",
					Options: []string{"GET", "POST", "PUT"}},
				{Name: "secret", Label: "Secreto", Type: nodedef.TypeString},
			},
		},
		{
			TypeID:      "ap.trigger.manual",
			Version:     1,
			DisplayName: "Manual Trigger",
			Description: "Starts the workflow by hand from the editor.",
			Category:    nodedef.CategoryTrigger,
			Tags:        []string{"trigger", "manual"},
			Icon:        "play",
			Color:       "#f97316",
			Outputs:     []nodedef.PortDef{mainOut},
		},
		{
			TypeID:      "ap.trigger.input",
			Version:     1,
			DisplayName: "Chat Input",
			Description: "Starts the workflow with a user message.",
			Category:    nodedef.CategoryTrigger,
			Tags:        []string{"trigger", "chat", "input"},
			Icon:        "message-square",
			Color:       "#f97316",
			Outputs:     []nodedef.PortDef{mainOut},
			Properties: []nodedef.PropertyDef{
				{Name: "placeholder", Label: "Marcador", Type: nodedef.TypeString, Default: "Escribe un mensaje..."},
				{Name: "schema", Label: "Esquema", Type: nodedef.TypeJSON, UI: nodedef.UIHint{Rows: 6}},
			},
		},
		{
			TypeID:      "ap.agent.core",
			Version:     2,
			DisplayName: "AI Agent",
			Description: "Runs a language model in a tool-calling loop.",
			Category:    nodedef.CategoryAgent,
			Tags:        []string{"agent", "ai", "llm"},
			Icon:        "bot",
			Color:       "#8b5cf6",
			Inputs: []nodedef.PortDef{
				mainIn,
				{ID: "tools", Type: nodedef.PortTool, Label: "Herramientas", Multiple: true, DataType: DataTool},
				{ID: "model", Type: nodedef.PortTool, Label: "Modelo", Required: true, DataType: DataTool},
				{ID: "memory", Type: nodedef.PortTool, Label: "Memoria", DataType: DataTool},
			},
			Outputs: []nodedef.PortDef{mainOut, errorOut},
			Properties: []nodedef.PropertyDef{
				{Name: "instructions", Label: "Instrucciones", Type: nodedef.TypeString, Required: true,
					Default: "Eres un asistente útil.", UI: nodedef.UIHint{Widget: nodedef.WidgetTextarea, Rows: 8},
					Rules: []nodedef.Rule{nodedef.Custom("nonblank")}},
				{Name: "maxIterations", Label: "Iteraciones máximas", Type: nodedef.TypeNumber, Default: 10,
					Rules: []nodedef.Rule{nodedef.NumericRange(1, 50)}},
				{Name: "outputFormat", Label: "Formato de salida", Type: nodedef.TypeEnum, Required: true,
					Default: "text", Options: []string{"text", "json"}},
			},
			Migrations: map[int][]nodedef.MigrationOp{
				2: {nodedef.Rename("systemPrompt", "instructions"), nodedef.Default("outputFormat", "text")},
			},
			Runtime: nodedef.Runtime{Timeout: seconds(120), Retries: 1},
		},
		{
			TypeID:      "ap.condition.expr",
			Version:     1,
			DisplayName: "If",
			Description: "Routes items by a boolean expression.",
			Category:    nodedef.CategoryLogic,
			Tags:        []string{"logic", "branch", "condition"},
			Icon:        "split",
			Color:       "#0ea5e9",
			Inputs:      []nodedef.PortDef{mainIn},
			Outputs: []nodedef.PortDef{
				{ID: "out", Type: nodedef.PortMain, Label: "Verdadero", Multiple: true, DataType: DataItems},
				{ID: "else", Type: nodedef.PortMain, Label: "Falso", Multiple: true, DataType: DataItems},
			},
			Properties: []nodedef.PropertyDef{
				{Name: "expression", Label: "Expresión", Type: nodedef.TypeCode, Required: true,
					UI: nodedef.UIHint{Placeholder: "input.score > 0.5", Rows: 3}},
			},
		},
		{
			TypeID:      "ap.memory.kv",
			Version:     1,
			DisplayName: "Key-Value Memory",
			Description: "Keeps conversation state between runs.",
			Category:    nodedef.CategoryMemory,
			Tags:        []string{"memory", "state"},
			Icon:        "database",
			Color:       "#14b8a6",
			Outputs:     []nodedef.PortDef{toolOut},
			Properties: []nodedef.PropertyDef{
				{Name: "namespace", Label: "Espacio de nombres", Type: nodedef.TypeString, Required: true,
					Default: "default", Rules: []nodedef.Rule{nodedef.Custom("identifier")}},
				{Name: "windowSize", Label: "Tamaño de ventana", Type: nodedef.TypeNumber, Default: 20,
					Rules: []nodedef.Rule{nodedef.AtLeast(1)}},
			},
		},
		{
			TypeID:      "ap.model.llm",
			Version:     3,
			DisplayName: "Chat Model",
			Description: "A chat completion model used by agents.",
			Category:    nodedef.CategoryModel,
			Tags:        []string{"model", "ai", "llm"},
			Icon:        "sparkles",
			Color:       "#a855f7",
			Outputs:     []nodedef.PortDef{toolOut},
			Properties: []nodedef.PropertyDef{
				{Name: "provider", Label: "Proveedor", Type: nodedef.TypeEnum, Required: true, Default: "openai",
					Options: []string{"openai", "anthropic", "ollama"}},
				{Name: "model", Label: "Modelo", Type: nodedef.TypeString, Required: true, Default: "gpt-4o-mini"},
				{Name: "temperature", Label: "Temperatura", Type: nodedef.TypeNumber, Default: 0.7,
					Rules: []nodedef.Rule{nodedef.NumericRange(0, 2)}},
			},
			Credentials: []nodedef.CredentialDef{{Type: "llm_api_key", Label: "API key", Required: true}},
			Migrations: map[int][]nodedef.MigrationOp{
				2: {nodedef.Transform("split_model")},
				3: {nodedef.Rename("temp", "temperature")},
			},
			Runtime: nodedef.Runtime{Timeout: seconds(60), Retries: 2, RateLimit: 60},
		},
		{
			TypeID:      "ap.tool.http",
			Version:     1,
			DisplayName: "HTTP Tool",
			Description: "Lets an agent call an HTTP endpoint.",
			Category:    nodedef.CategoryTool,
			Tags:        []string{"tool", "http", "api"},
			Icon:        "globe",
			Color:       "#22c55e",
			Outputs:     []nodedef.PortDef{toolOut},
			Properties:  httpProperties(),
			Runtime:     nodedef.Runtime{Timeout: seconds(30), Retries: 2},
		},
		{
			TypeID:      "ap.action.http",
			Version:     1,
			DisplayName: "HTTP Request",
			Description: "Sends an HTTP request as a workflow step.",
			Category:    nodedef.CategoryAction,
			Tags:        []string{"action", "http", "api"},
			Icon:        "send",
			Color:       "#22c55e",
			Inputs:      []nodedef.PortDef{mainIn},
			Outputs:     []nodedef.PortDef{mainOut, errorOut},
			Properties:  httpProperties(),
			Runtime:     nodedef.Runtime{Timeout: seconds(30), Retries: 2},
		},
		{
			TypeID:      "ap.tool.postgres",
			Version:     1,
			DisplayName: "Postgres Tool",
			Description: "Lets an agent run read-only SQL queries.",
			Category:    nodedef.CategoryTool,
			Tags:        []string{"tool", "sql", "database"},
			Icon:        "database",
			Color:       "#3b82f6",
			Outputs:     []nodedef.PortDef{toolOut},
			Properties: []nodedef.PropertyDef{
				{Name: "query", Label: "Consulta", Type: nodedef.TypeCode, Required: true,
					UI: nodedef.UIHint{Placeholder: "SELECT 1", Rows: 6}},
				{Name: "maxRows", Label: "Filas máximas", Type: nodedef.TypeNumber, Default: 100,
					Rules: []nodedef.Rule{nodedef.NumericRange(1, 10000)}},
			},
			Credentials: []nodedef.CredentialDef{{Type: "postgres", Label: "Conexión", Required: true}},
			Runtime:     nodedef.Runtime{Timeout: seconds(15)},
		},
		{
			TypeID:      "ap.response.chat",
			Version:     1,
			DisplayName: "Chat Response",
			Description: "Sends a message back to the chat.",
			Category:    nodedef.CategoryResponse,
			Tags:        []string{"response", "chat"},
			Icon:        "message-circle",
			Color:       "#64748b",
			Inputs:      []nodedef.PortDef{mainIn},
			Outputs:     []nodedef.PortDef{mainOut},
			Properties: []nodedef.PropertyDef{
				{Name: "message", Label: "Mensaje", Type: nodedef.TypeString, Required: true,
					Default: "{{ input.output }}", UI: nodedef.UIHint{Widget: nodedef.WidgetTextarea, Rows: 4}},
			},
		},
		{
			TypeID:      "ap.response.end",
			Version:     1,
			DisplayName: "End",
			Description: "Finishes the workflow.",
			Category:    nodedef.CategoryResponse,
			Tags:        []string{"response", "end"},
			Icon:        "square",
			Color:       "#64748b",
			Inputs:      []nodedef.PortDef{mainIn},
			Properties: []nodedef.PropertyDef{
				{Name: "status", Label: "Estado", Type: nodedef.TypeEnum, Required: true, Default: "success",
					Options: []string{"success", "error"}},
			},
		},
	}
}

func httpProperties() []nodedef.PropertyDef {
	return []nodedef.PropertyDef{
		{Name: "url", Label: "URL", Type: nodedef.TypeString, Required: true,
			UI: nodedef.UIHint{Placeholder: "https://api.example.com"}, Rules: []nodedef.Rule{nodedef.Custom("url")}},
		{Name: "method", Label: "Método", Type: nodedef.TypeEnum, Required: true, Default: "GET",
			Options: []string{"GET", "POST", "PUT", "PATCH", "DELETE"}},
		{Name: "headers", Label: "Cabeceras", Type: nodedef.TypeJSON, Default: "{}"},
		{Name: "body", Label: "Cuerpo", Type: nodedef.TypeJSON},
	}
}
