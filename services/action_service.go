package services

import (
	"strings"

	"github.com/tiendabot/tiendabot-api/utils"
)

// ActionType tags the variant of an AgentAction.
type ActionType string

// Agent action types
const (
	ActionUpsertOrder      ActionType = "upsert_order"
	ActionCancelOrder      ActionType = "cancel_order"
	ActionAskClarification ActionType = "ask_clarification"
	ActionGeneral          ActionType = "general"
)

// ActionItem is one item proposed by the language-understanding collaborator.
type ActionItem struct {
	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
	Quantity       int    `json:"quantity"`
}

// ClientProfile carries optional client fields extracted from conversation.
type ClientProfile struct {
	FullName string `json:"full_name"`
	DNI      string `json:"dni"`
	Address  string `json:"address"`
}

// AgentAction is the normalized proposal consumed from the
// language-understanding collaborator. It is transient: validated and
// filtered before any persistence occurs, never stored.
type AgentAction struct {
	Type       ActionType     `json:"type"`
	Items      []ActionItem   `json:"items"`
	Status     string         `json:"status,omitempty"`
	Mode       UpsertMode     `json:"mode,omitempty"`
	ClientInfo *ClientProfile `json:"client_info,omitempty"`
}

// FilterAgentItems drops every proposed item whose name does not literally
// reappear in the raw customer message. The collaborator occasionally
// invents items or carries them over from prior turns; anything the
// customer did not actually type is discarded here.
func FilterAgentItems(action *AgentAction, rawText string) []ActionItem {
	normRaw := utils.Normalize(rawText)
	rawTokens := make(map[string]bool)
	for _, token := range utils.Tokens(rawText) {
		rawTokens[token] = true
	}

	kept := make([]ActionItem, 0, len(action.Items))
	for _, item := range action.Items {
		name := item.NormalizedName
		if name == "" {
			name = item.Name
		}
		if itemMentioned(name, normRaw, rawTokens) {
			kept = append(kept, item)
		}
	}
	return kept
}

func itemMentioned(name, normRaw string, rawTokens map[string]bool) bool {
	for _, token := range utils.Tokens(name) {
		if rawTokens[token] {
			return true
		}
		if strings.Contains(normRaw, token) {
			return true
		}
	}
	return false
}
