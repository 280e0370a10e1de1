// Package sequence emite números de documento consecutivos por tienda, prefijo y año.
package sequence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/ventas-api/internal/application/uow"
	"github.com/jhoicas/ventas-api/internal/domain"
	"github.com/jhoicas/ventas-api/internal/domain/repository"
	"github.com/jhoicas/ventas-api/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Format arma el número visible: {PREFIX}-{STORE_CODE}-{YEAR}-{000000}.
func Format(prefix, storeCode string, year int, n int64) string {
	return fmt.Sprintf("%s-%s-%d-%06d", prefix, storeCode, year, n)
}

// Generator emisor de números. La unicidad la garantiza el upsert atómico sobre la
// fila (store, prefix, year); las carreras de creación las resuelve la restricción única.
type Generator struct {
	runner *uow.Runner
	now    func() time.Time
}

// NewGenerator construye el generador.
func NewGenerator(runner *uow.Runner) *Generator {
	return &Generator{runner: runner, now: time.Now}
}

// Next emite un número en su propia transacción (reintenta ante conflicto).
func (g *Generator) Next(ctx context.Context, storeID, prefix string) (number string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "sequence", "next",
		attribute.String("store_id", storeID), attribute.String("prefix", prefix))
	defer func() { telemetry.End(span, err) }()

	err = g.runner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		var err error
		number, err = g.NextInTx(ctx, repos, storeID, prefix)
		return err
	})
	return number, err
}

// NextInTx emite un número dentro de la transacción del caller: si ésta hace rollback
// el número no se consume.
func (g *Generator) NextInTx(ctx context.Context, repos repository.Repos, storeID, prefix string) (string, error) {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if storeID == "" || prefix == "" {
		return "", domain.ErrValidation
	}
	store, err := repos.Stores.GetByID(ctx, storeID)
	if err != nil {
		return "", err
	}
	if store == nil {
		return "", domain.ErrNotFound
	}
	year := g.now().Year()
	n, err := repos.Sequences.Increment(ctx, storeID, prefix, year)
	if err != nil {
		return "", err
	}
	return Format(prefix, store.Code, year, n), nil
}
