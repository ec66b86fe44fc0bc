package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Actions finales que l'agent peut poser en fin de conversation.
const (
	ActionRefund   = "REFUND"
	ActionEscalate = "ESCALATE"
	ActionReject   = "REJECT"
)

// Action est le bloc JSON structuré en fin de réponse de l'agent.
type Action struct {
	Action        string  `json:"action"`
	Reason        string  `json:"reason"`
	TransactionID string  `json:"transaction_id"`
	Confidence    float64 `json:"confidence,omitempty"`
}

var (
	fencedJSONRe = regexp.MustCompile("(?is)```json([\\s\\S]*?)```")
	rawActionRe  = regexp.MustCompile(`(?s)\{[^{}]*"action"[\s\S]*\}`)
)

// ExtractAction cherche le bloc d'action dans la réponse brute : d'abord un
// bloc Markdown json, sinon du JSON nu contenant "action".
func ExtractAction(reply string) (*Action, bool) {
	var payload string
	if m := fencedJSONRe.FindStringSubmatch(reply); m != nil {
		payload = m[1]
	} else if m := rawActionRe.FindString(reply); m != "" {
		payload = m
	} else {
		return nil, false
	}

	var a Action
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &a); err != nil {
		return nil, false
	}
	a.Action = strings.ToUpper(strings.TrimSpace(a.Action))

	switch a.Action {
	case ActionRefund, ActionEscalate, ActionReject:
		return &a, true
	}
	return nil, false
}

// HasActionBlock indique si la réponse contient un bloc d'action fencé,
// valide ou non. Un bloc présent mais inexploitable se traite comme une
// panne IA, pas comme un simple tour de conversation.
func HasActionBlock(reply string) bool {
	return fencedJSONRe.MatchString(reply)
}

// StripAction retire le bloc d'action de la réponse, pour l'affichage client
// et le transcript.
func StripAction(reply string) string {
	clean := fencedJSONRe.ReplaceAllString(reply, "")
	if !strings.Contains(reply, "```") {
		clean = rawActionRe.ReplaceAllString(clean, "")
	}
	return strings.TrimSpace(clean)
}
