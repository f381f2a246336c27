// Package recipient turns resolved subscription rows into one outgoing
// notification per (phone, email) pair.
package recipient

import (
	"sort"

	"github.com/streamhub/notifier/internal/domain"
)

// Result is the grouping outcome plus the per-row skip counters.
type Result struct {
	Recipients      []domain.Recipient
	SkippedPhone    int
	SkippedNoSecret int
	Duplicates      int
}

type group struct {
	recipient domain.Recipient
	seen      map[string]struct{}
}

// Group merges rows by phone::email. secrets maps normalized email to the
// new password; a nil map means the job carries no password and no row is
// skipped for lacking one. Output is sorted by phone, then email.
func Group(rows []domain.SubscriptionItem, secrets map[string]string) Result {
	var res Result
	groups := make(map[string]*group)

	for _, row := range rows {
		email := domain.NormalizeEmail(row.Correo)

		var secret string
		if secrets != nil {
			s, ok := secrets[email]
			if !ok {
				res.SkippedNoSecret++
				continue
			}
			secret = s
		}

		phone := domain.ToE164(row.Contacto)
		if !domain.ValidPhone(phone) {
			res.SkippedPhone++
			continue
		}

		key := phone + "::" + email
		g, ok := groups[key]
		if !ok {
			g = &group{
				recipient: domain.Recipient{
					Phone:      phone,
					Correo:     email,
					NuevaClave: secret,
					Nombre:     row.Nombre,
				},
				seen: make(map[string]struct{}),
			}
			groups[key] = g
		} else if g.recipient.Nombre == "" && row.Nombre != "" {
			g.recipient.Nombre = row.Nombre
		}

		line := domain.ServiceLine{
			Servicio:         row.Servicio,
			PlataformaNombre: row.PlataformaNombre,
			FechaVencimiento: row.FechaVencimiento,
		}
		if row.NroPantalla != nil {
			line.NroPantalla = *row.NroPantalla
		}
		if _, dup := g.seen[line.Key()]; dup {
			res.Duplicates++
			continue
		}
		g.seen[line.Key()] = struct{}{}
		g.recipient.Items = append(g.recipient.Items, line)
	}

	res.Recipients = make([]domain.Recipient, 0, len(groups))
	for _, g := range groups {
		if len(g.recipient.Items) == 0 {
			continue
		}
		res.Recipients = append(res.Recipients, g.recipient)
	}
	sort.Slice(res.Recipients, func(i, j int) bool {
		a, b := res.Recipients[i], res.Recipients[j]
		if a.Phone != b.Phone {
			return a.Phone < b.Phone
		}
		return a.Correo < b.Correo
	})
	return res
}
