package main

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// ─── Demo ────────────────────────────────────────────────────────────────────

var demoSamples = []string{
	"Olá, equipe. Estou com problema de acesso ao portal desde ontem e preciso enviar a fatura de março até sexta-feira. Podem verificar o status do meu chamado?",
	"Bom dia a todos! Passando só para desejar um feliz Natal e agradecer pela parceria ao longo do ano. Abraços!",
	"Prezados, segue em anexo o contrato revisado. Solicito a confirmação do prazo de pagamento e uma reunião para alinharmos os próximos passos.",
	"Parabéns pelo aniversário da empresa! Muito obrigado pelo carinho de sempre.",
}

var (
	productiveTerms = []string{
		"solicit", "suporte", "status", "erro", "problema", "prazo", "fatura",
		"pagamento", "contrato", "reunião", "urgente", "acesso", "dúvida", "chamado", "anexo",
	}
	unproductiveTerms = []string{
		"obrigad", "parabéns", "feliz", "natal", "agradec", "abraço", "bom dia", "boa tarde",
	}
)

type demoState struct {
	active bool
	sample int
}

// demoClassifier implements classifier with a keyword heuristic, so the
// whole flow can be tried without a backend.
type demoClassifier struct {
	latency time.Duration
}

func countTerms(text string, terms []string) int {
	n := 0
	for _, t := range terms {
		n += strings.Count(text, t)
	}
	return n
}

func (d demoClassifier) analyze(ctx context.Context, text string) (analysisResult, error) {
	if d.latency > 0 {
		select {
		case <-time.After(d.latency):
		case <-ctx.Done():
			return analysisResult{}, errTimeout(ctx.Err())
		}
	}
	lower := strings.ToLower(text)
	prod := countTerms(lower, productiveTerms)
	unprod := countTerms(lower, unproductiveTerms)
	diff := float64(prod - unprod)
	conf := math.Min(0.95, 0.55+0.1*math.Abs(diff))

	if prod >= unprod && prod > 0 {
		return analysisResult{
			Category:       categoryProductive,
			Confidence:     conf,
			Reason:         fmt.Sprintf("A mensagem pede uma ação ou retorno (%d termos de solicitação).", prod),
			SuggestedReply: "Olá! Recebemos sua solicitação e nossa equipe já está verificando. Retornaremos em breve com uma atualização.",
		}, nil
	}
	return analysisResult{
		Category:       categoryUnproductive,
		Confidence:     conf,
		Reason:         "A mensagem não exige ação da equipe.",
		SuggestedReply: "Olá! Agradecemos a mensagem. Ficamos à disposição.",
	}, nil
}

func (d demoClassifier) ping(context.Context) error { return nil }

// nextDemoSample returns the sample after the current one and advances the
// cursor.
func (s *demoState) nextDemoSample() string {
	text := demoSamples[s.sample%len(demoSamples)]
	s.sample++
	return text
}
