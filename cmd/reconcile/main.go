// reconcile recalcula el saldo de cada clave (bodega, producto) a partir del diario de movimientos
// y lo compara con la tabla de stock de PostgreSQL.
//
// Uso: go run ./cmd/reconcile
// Lee la misma configuración que la API (DATABASE_URL o DB_*). Código de salida: 0 conciliado,
// 1 hay claves desalineadas, 2 error.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/inventario-ledger/pkg/config"
	"github.com/jhoicas/inventario-ledger/pkg/logger"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		return 2
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conexión a PostgreSQL: %v\n", err)
		return 2
	}
	defer pool.Close()

	drifts, err := inventory.NewReconcileUseCase(postgres.NewStatsRepository(pool), log).Reconcile(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Conciliar: %v\n", err)
		return 2
	}
	if len(drifts) == 0 {
		fmt.Println("Libro conciliado: todas las claves coinciden con el diario.")
		return 0
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BODEGA\tPRODUCTO\tSTOCK\tDIARIO\tDIFERENCIA")
	for _, d := range drifts {
		stock := fmt.Sprint(d.StockOnHand)
		if d.MissingStock {
			stock = "(sin fila)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\n", d.WarehouseID, d.ProductID, stock, d.JournalOnHand, d.StockOnHand-d.JournalOnHand)
	}
	_ = w.Flush()
	fmt.Fprintf(os.Stderr, "%d claves desalineadas\n", len(drifts))
	return 1
}
