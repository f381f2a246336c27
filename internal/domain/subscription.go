package domain

// Service type labels as stored by the admin app.
const (
	ServicioPantalla       = "Pantalla"
	ServicioCuentaCompleta = "Cuenta completa"
)

// SubscriptionItem is one sold screen or full account, joined with the
// contact and platform names. It is read-only and lives for one run.
type SubscriptionItem struct {
	Servicio         string
	Contacto         string
	Nombre           string
	NroPantalla      *string
	FechaVencimiento string // YYYY-MM-DD
	PlataformaNombre string
	Correo           string
}

// ServiceLine is a deduplicated subscription entry inside a Recipient.
type ServiceLine struct {
	Servicio         string
	PlataformaNombre string
	NroPantalla      string
	FechaVencimiento string
}

// Key is the deduplication key of the line.
func (l ServiceLine) Key() string {
	return l.Servicio + "|" + l.PlataformaNombre + "|" + l.NroPantalla + "|" + l.FechaVencimiento
}

// Recipient is the unit of outgoing notification, one per (phone, email).
type Recipient struct {
	Phone      string
	Correo     string
	NuevaClave string
	Nombre     string
	Items      []ServiceLine
}

// Key returns the grouping key phone::email.
func (r Recipient) Key() string {
	return r.Phone + "::" + r.Correo
}

// HasPantalla reports whether any line is a screen subscription.
func (r Recipient) HasPantalla() bool {
	for _, it := range r.Items {
		if it.Servicio == ServicioPantalla {
			return true
		}
	}
	return false
}
