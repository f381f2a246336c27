package repository_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/streamhub/notifier/internal/domain"
	"github.com/streamhub/notifier/internal/repository"
)

var today = time.Date(2025, 5, 20, 15, 4, 0, 0, time.Local)

func row(email, fecha, estado string) repository.MockRow {
	return repository.MockRow{
		Item: domain.SubscriptionItem{
			Servicio:         domain.ServicioPantalla,
			Contacto:         "573001112222",
			FechaVencimiento: fecha,
			PlataformaNombre: "Netflix",
			Correo:           email,
		},
		Estado: estado,
	}
}

func TestMockRepository_FindActiveByEmails(t *testing.T) {
	repo := repository.NewMockSubscriptionRepository(
		row("A@x.com", "2025-06-01", "activo"),
		row("a@x.com", "2025-05-20", ""),          // expires today
		row("a@x.com", "2025-07-01", "Cancelado"), // cancelled
		row("b@x.com", "2025-06-01", ""),          // other email
	)

	items, err := repo.FindActiveByEmails(context.Background(), []string{" a@X.com "}, today)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "a@x.com", items[0].Correo)
	require.Equal(t, "2025-06-01", items[0].FechaVencimiento)
}

func TestMockRepository_EmptyInputShortCircuits(t *testing.T) {
	repo := repository.NewMockSubscriptionRepository(row("a@x.com", "2025-06-01", ""))

	items, err := repo.FindActiveByEmails(context.Background(), []string{"  "}, today)
	require.NoError(t, err)
	require.Empty(t, items)
	require.Zero(t, repo.Calls())
}

func TestMockRepository_FindExpiring(t *testing.T) {
	repo := repository.NewMockSubscriptionRepository(
		row("a@x.com", "2025-05-21", ""),
		row("b@x.com", "2025-05-23", ""),
		row("c@x.com", "2025-05-24", ""),
		row("d@x.com", "2025-05-20", ""),
	)

	items, err := repo.FindExpiring(context.Background(), today, today.AddDate(0, 0, 3))
	require.NoError(t, err)

	var emails []string
	for _, it := range items {
		emails = append(emails, it.Correo)
	}
	require.Equal(t, "a@x.com,b@x.com", strings.Join(emails, ","))
}

func TestDateOnly(t *testing.T) {
	require.Equal(t, "2025-05-20", repository.DateOnly(today))
}
