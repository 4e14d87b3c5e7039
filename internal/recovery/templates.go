package recovery

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/privehub/privehub/internal/checkout/domain"
)

// templateData feeds the reminder bodies.
type templateData struct {
	Name      string
	ModelName string
	PlanName  string
	Amount    string
}

// Three escalating reminder bodies, indexed by reminder number (1-based).
// Bodies are deliberately short; the storefront audience reads on mobile.
var reminderBodies = [domain.MaxRecoveryEmails]*template.Template{
	template.Must(template.New("reminder-1").Parse(`<p>Oi {{.Name}},</p>
<p>Vimos que você começou a assinar o plano <strong>{{.PlanName}}</strong> de {{.ModelName}}, mas o pagamento de {{.Amount}} ainda não foi confirmado.</p>
<p>O código PIX pode ter expirado. É só voltar ao checkout e gerar um novo — leva menos de um minuto.</p>
<p>Te esperamos lá 💕</p>`)),
	template.Must(template.New("reminder-2").Parse(`<p>Oi {{.Name}},</p>
<p>Seu acesso ao plano <strong>{{.PlanName}}</strong> de {{.ModelName}} continua reservado, mas o pagamento de {{.Amount}} não apareceu por aqui.</p>
<p>Se o PIX deu algum problema, gere um novo código no checkout e finalize quando quiser.</p>
<p>Qualquer dúvida, é só responder este email.</p>`)),
	template.Must(template.New("reminder-3").Parse(`<p>Oi {{.Name}},</p>
<p>Este é nosso último lembrete: a reserva do plano <strong>{{.PlanName}}</strong> de {{.ModelName}} por {{.Amount}} vai ser liberada em breve.</p>
<p>Se ainda quiser garantir o acesso, finalize o PIX no checkout hoje.</p>
<p>Depois disso, não vamos mais te incomodar 🤍</p>`)),
}

// renderReminder builds the subject and body for the attempt's next reminder.
// reminderNo is 1-based and must be within the cap.
func renderReminder(subjects []string, attempt domain.PaymentAttempt, reminderNo int) (subject, body string, err error) {
	if reminderNo < 1 || reminderNo > domain.MaxRecoveryEmails {
		return "", "", fmt.Errorf("reminder %d out of range", reminderNo)
	}
	if len(subjects) < domain.MaxRecoveryEmails {
		return "", "", fmt.Errorf("need %d subjects, have %d", domain.MaxRecoveryEmails, len(subjects))
	}

	data := templateData{
		Name:      firstName(attempt.CustomerName),
		ModelName: attempt.ModelName,
		PlanName:  attempt.PlanName,
		Amount:    domain.FormatAmountBRL(attempt.AmountCents),
	}
	var buf strings.Builder
	if err := reminderBodies[reminderNo-1].Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subjects[reminderNo-1], buf.String(), nil
}

func firstName(full string) string {
	full = strings.TrimSpace(full)
	if i := strings.IndexByte(full, ' '); i > 0 {
		return full[:i]
	}
	return full
}
