package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/streamhub/notifier/internal/domain"
)

// source describes one subscription table. Screens carry a screen number,
// full accounts do not.
type source struct {
	table       string
	servicio    string
	nroPantalla string
}

var sources = []source{
	{table: "pantallas", servicio: domain.ServicioPantalla, nroPantalla: "s.nro_pantalla::text"},
	{table: "cuentas_completas", servicio: domain.ServicioCuentaCompleta, nroPantalla: "NULL::text"},
}

const cancelledState = "cancelado"

type pgSubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewPgSubscriptionRepository returns a SubscriptionRepository backed by PostgreSQL.
func NewPgSubscriptionRepository(pool *pgxpool.Pool) SubscriptionRepository {
	return &pgSubscriptionRepository{pool: pool}
}

func (r *pgSubscriptionRepository) FindActiveByEmails(ctx context.Context, emails []string, today time.Time) ([]domain.SubscriptionItem, error) {
	normalized := normalizeEmails(emails)
	if len(normalized) == 0 {
		return nil, nil
	}

	var result []domain.SubscriptionItem
	for _, src := range sources {
		query := buildSelect(src, "LOWER(TRIM(s.correo)) = ANY($3)")
		rows, err := r.pool.Query(ctx, query, cancelledState, DateOnly(today), normalized)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", src.table, err)
		}
		items, err := scanItems(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", src.table, err)
		}
		result = append(result, items...)
	}
	return result, nil
}

func (r *pgSubscriptionRepository) FindExpiring(ctx context.Context, today, until time.Time) ([]domain.SubscriptionItem, error) {
	var result []domain.SubscriptionItem
	for _, src := range sources {
		query := buildSelect(src, "s.fecha_vencimiento <= $3::date")
		rows, err := r.pool.Query(ctx, query, cancelledState, DateOnly(today), DateOnly(until))
		if err != nil {
			return nil, fmt.Errorf("query expiring %s: %w", src.table, err)
		}
		items, err := scanItems(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expiring %s: %w", src.table, err)
		}
		result = append(result, items...)
	}
	return result, nil
}

// ---- helpers ----

// buildSelect renders the joined query for one source. $1 is the cancelled
// marker, $2 is today; extra adds a third condition using $3.
func buildSelect(src source, extra string) string {
	conditions := []string{
		"(s.estado IS NULL OR LOWER(s.estado) <> $1)",
		"s.fecha_vencimiento > $2::date",
		extra,
	}
	return fmt.Sprintf(`
		SELECT '%s' AS servicio,
		       COALESCE(s.contacto, '')      AS contacto,
		       COALESCE(c.nombre, '')        AS nombre,
		       %s                            AS nro_pantalla,
		       to_char(s.fecha_vencimiento, 'YYYY-MM-DD') AS fecha_vencimiento,
		       COALESCE(pl.nombre, '')       AS plataforma_nombre,
		       LOWER(TRIM(s.correo))         AS correo
		FROM %s s
		LEFT JOIN contactos c   ON c.numero = s.contacto
		LEFT JOIN plataformas pl ON pl.id = s.plataforma_id
		WHERE %s
		ORDER BY s.fecha_vencimiento ASC`,
		src.servicio, src.nroPantalla, src.table, strings.Join(conditions, " AND "))
}

func scanItems(rows pgx.Rows) ([]domain.SubscriptionItem, error) {
	defer rows.Close()
	var result []domain.SubscriptionItem
	for rows.Next() {
		var it domain.SubscriptionItem
		if err := rows.Scan(
			&it.Servicio, &it.Contacto, &it.Nombre, &it.NroPantalla,
			&it.FechaVencimiento, &it.PlataformaNombre, &it.Correo,
		); err != nil {
			return nil, err
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

func normalizeEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		n := domain.NormalizeEmail(e)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
