package audit

import (
	"encoding/json"
	"fmt"

	"farmacia-bermat/backend/internal/domain"
)

// sampleSize bounds how many records of each collection go to the model.
const sampleSize = 10

// Snapshot is the data an audit is computed from.
type Snapshot struct {
	Invoices []domain.Invoice
	Products []domain.Product
	Batches  []domain.Batch
}

// BuildPrompt renders the audit request sent to the language model.
func BuildPrompt(snapshot Snapshot) (string, error) {
	invoices, err := json.Marshal(firstN(snapshot.Invoices))
	if err != nil {
		return "", fmt.Errorf("encode invoices: %w", err)
	}
	products, err := json.Marshal(firstN(snapshot.Products))
	if err != nil {
		return "", fmt.Errorf("encode products: %w", err)
	}
	batches, err := json.Marshal(firstN(snapshot.Batches))
	if err != nil {
		return "", fmt.Errorf("encode batches: %w", err)
	}

	return fmt.Sprintf(`Analisa estes dados de vendas de uma farmácia e apresenta:
1. Um resumo dos produtos com melhor desempenho.
2. Anomalias ou riscos (por exemplo, vendas de lotes perto do fim da validade).
3. Conselhos estratégicos para a gestão de inventário.
Responde em português claro.

Faturas: %s
Produtos: %s
Lotes: %s`, invoices, products, batches), nil
}

func firstN[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	if len(items) > sampleSize {
		return items[:sampleSize]
	}
	return items
}
