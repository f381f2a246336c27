// Package message renders the WhatsApp text sent to a recipient.
package message

import (
	"regexp"
	"strings"

	"github.com/streamhub/notifier/internal/domain"
)

var isoDate = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

const usageInstructions = `*Recomendaciones de uso:*
1. Ingresa solo en el perfil o pantalla que te corresponde.
2. No cambies la contraseña ni los datos de la cuenta.
3. No agregues ni elimines perfiles.
4. Si tienes algún inconveniente, escríbenos por este medio.`

const securityNote = `*Importante:* la cuenta es compartida. Por seguridad no compartas estos datos con nadie; el uso indebido puede causar la suspensión del servicio sin reembolso.`

const renewalNote = `Para renovar responde a este mensaje y te enviamos los datos de pago. ¡Gracias por tu confianza!`

// FormatDateDDMMYYYY turns the YYYY-MM-DD prefix of s into DD/MM/YYYY.
// Strings without that prefix are returned trimmed and unchanged.
func FormatDateDDMMYYYY(s string) string {
	m := isoDate.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return strings.TrimSpace(s)
	}
	return m[3] + "/" + m[2] + "/" + m[1]
}

// ItemLine renders one bullet of the service list.
func ItemLine(it domain.ServiceLine) string {
	var b strings.Builder
	b.WriteString("• ")
	b.WriteString(it.PlataformaNombre)
	b.WriteString(" — ")
	b.WriteString(it.Servicio)
	if it.NroPantalla != "" {
		b.WriteString(" | *Pantalla ")
		b.WriteString(it.NroPantalla)
		b.WriteString("*")
	}
	b.WriteString(" | vence: ")
	b.WriteString(FormatDateDDMMYYYY(it.FechaVencimiento))
	return b.String()
}

// ComposePasswordChange builds the password-change notice.
func ComposePasswordChange(nombre string, items []domain.ServiceLine, correo, nuevaClave string) string {
	var b strings.Builder
	b.WriteString(greeting(nombre))
	b.WriteString("\n\nTe informamos que se actualizó la contraseña de tu(s) servicio(s):\n\n")
	writeItems(&b, items)
	b.WriteString("\n*Correo:* ")
	b.WriteString(correo)
	b.WriteString("\n*La nueva contraseña es:* ")
	b.WriteString(nuevaClave)
	b.WriteString(".\n\n")
	b.WriteString(usageInstructions)
	if hasPantalla(items) {
		b.WriteString("\n\n")
		b.WriteString(securityNote)
	}
	return b.String()
}

// ComposeExpirationReminder builds the upcoming-expiration notice.
func ComposeExpirationReminder(nombre string, items []domain.ServiceLine) string {
	var b strings.Builder
	b.WriteString(greeting(nombre))
	b.WriteString("\n\nTe recordamos que los siguientes servicios están próximos a vencer:\n\n")
	writeItems(&b, items)
	b.WriteString("\n")
	b.WriteString(renewalNote)
	return b.String()
}

// For renders the message a recipient gets for the given job kind.
func For(kind domain.JobKind, r domain.Recipient) string {
	if kind == domain.JobExpirationReminder {
		return ComposeExpirationReminder(r.Nombre, r.Items)
	}
	return ComposePasswordChange(r.Nombre, r.Items, r.Correo, r.NuevaClave)
}

func greeting(nombre string) string {
	fields := strings.Fields(nombre)
	if len(fields) == 0 {
		return "¡Hola!"
	}
	return "¡Hola " + fields[0] + "!"
}

func writeItems(b *strings.Builder, items []domain.ServiceLine) {
	for _, it := range items {
		b.WriteString(ItemLine(it))
		b.WriteString("\n")
	}
}

func hasPantalla(items []domain.ServiceLine) bool {
	for _, it := range items {
		if it.Servicio == domain.ServicioPantalla {
			return true
		}
	}
	return false
}
