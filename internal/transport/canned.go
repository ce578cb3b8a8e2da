// Package transport produces assistant replies, either canned or from an
// OpenAI-compatible completions endpoint.
package transport

import (
	"context"
	"strings"
	"time"

	"github.com/iksnae/agrichat/internal"
)

// Canned replies, keyed by topic
const (
	InnovationReply = "Les dernières innovations en AgriTech incluent l'agriculture de précision avec des drones, l'IA pour l'optimisation des cultures, et les capteurs IoT pour le monitoring en temps réel. Ces technologies permettent d'augmenter les rendements tout en réduisant l'impact environnemental."
	StartupReply    = "Parmi les startups prometteuses, on trouve des entreprises spécialisées dans l'agriculture verticale, la biotechnologie agricole, et les solutions de traçabilité blockchain. Ces startups révolutionnent la façon dont nous produisons et distribuons les aliments."
	EventReply      = "Les prochains événements majeurs incluent le Salon International de l'Agriculture, AgTech Summit, et diverses conférences sur l'innovation agricole. Ces événements sont cruciaux pour le networking et la découverte de nouvelles technologies."
	TrendReply      = "Les tendances 2024 montrent une forte croissance de l'agriculture durable, l'adoption massive de l'IA, et l'émergence de nouvelles protéines alternatives. Le marché se dirige vers plus de durabilité et d'efficacité."
	GenericReply    = "Je suis votre assistant IA spécialisé en AgriTech. Je peux vous aider avec des informations sur les innovations, startups, événements et tendances du secteur agricole. Posez-moi une question spécifique !"
)

// cannedRules are checked in order; the first rule with a matching keyword wins
var cannedRules = []struct {
	keywords []string
	reply    string
}{
	{[]string{"innovation", "agritech"}, InnovationReply},
	{[]string{"startup"}, StartupReply},
	{[]string{"événement", "event"}, EventReply},
	{[]string{"tendance", "marché"}, TrendReply},
}

// CannedResponder answers after a fixed delay with a keyword-triggered reply
type CannedResponder struct {
	Delay time.Duration
}

// NewCannedResponder creates a canned responder
func NewCannedResponder(delay time.Duration) *CannedResponder {
	return &CannedResponder{Delay: delay}
}

var _ internal.Responder = (*CannedResponder)(nil)

// Reply waits for the delay, then returns the canned reply for text
func (c *CannedResponder) Reply(ctx context.Context, text string) (string, error) {
	if c.Delay > 0 {
		timer := time.NewTimer(c.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return CannedReply(text), nil
}

// CannedReply picks the reply for text by case-insensitive keyword match
func CannedReply(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range cannedRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.reply
			}
		}
	}
	return GenericReply
}
