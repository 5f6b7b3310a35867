package graph

import "strings"

// InternalPrefix is the namespace prefix of registry type ids.
const InternalPrefix = "ap."

// toCanonical is the type-name table. ap.action.http is a legacy alias that
// shares tool.http with ap.tool.http.
var toCanonical = map[string]string{
	"ap.trigger.webhook": "trigger.webhook",
	"ap.trigger.manual":  "trigger.manual",
	"ap.trigger.input":   "trigger.input",
	"ap.agent.core":      "agent.core",
	"ap.condition.expr":  "condition.expr",
	"ap.memory.kv":       "memory.kv",
	"ap.model.llm":       "model.llm",
	"ap.tool.http":       "tool.http",
	"ap.action.http":     "tool.http",
	"ap.tool.postgres":   "tool.postgres",
	"ap.response.chat":   "response.chat",
	"ap.response.end":    "response.end",
}

var fromCanonical = map[string]string{
	"trigger.webhook": "ap.trigger.webhook",
	"trigger.manual":  "ap.trigger.manual",
	"trigger.input":   "ap.trigger.input",
	"agent.core":      "ap.agent.core",
	"condition.expr":  "ap.condition.expr",
	"memory.kv":       "ap.memory.kv",
	"model.llm":       "ap.model.llm",
	"tool.http":       "ap.tool.http",
	"tool.postgres":   "ap.tool.postgres",
	"response.chat":   "ap.response.chat",
	"response.end":    "ap.response.end",
}

// CanonicalType returns the wire name of an internal type id. Ids missing
// from the table lose their "ap." prefix.
func CanonicalType(typeID string) string {
	if c, ok := toCanonical[typeID]; ok {
		return c
	}
	return strings.TrimPrefix(typeID, InternalPrefix)
}

// InternalType returns the registry type id of a canonical type. Unknown
// canonical types map to "ap.<type>" so newer graphs still load. The literal
// canonical type "action.http" therefore resolves to the legacy alias and is
// written back as "tool.http".
func InternalType(canonical string) string {
	if id, ok := fromCanonical[canonical]; ok {
		return id
	}
	return InternalPrefix + canonical
}

// IsTriggerType reports whether a canonical type names a trigger.
func IsTriggerType(canonical string) bool { return strings.HasPrefix(canonical, "trigger.") }
