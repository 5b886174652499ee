package mail

import (
	"bytes"
	"html/template"
)

var (
	verificationTmpl = template.Must(template.New("verification").Parse(
		`<!DOCTYPE html><html><body><p>El código de verificación que solicitó: <strong>{{.Code}}</strong></p></body></html>`))

	invitationTmpl = template.Must(template.New("invitation").Parse(
		`<!DOCTYPE html><html><body><p>Hola {{.Name}}, la empresa <strong>{{.Company}}</strong> te ha invitado a colaborar.</p></body></html>`))
)

const (
	verificationSubject = "Código de verificación | Estokealo"
	invitationSubject   = "Invitación a colaborar | Estokealo"
)

// VerificationCode builds the email carrying a verification code.
func VerificationCode(to string, code int) Message {
	return Message{To: to, Subject: verificationSubject, HTML: render(verificationTmpl, struct{ Code int }{code})}
}

// Invitation builds the email telling a user a company invited them. When
// name is empty the recipient address is used as greeting.
func Invitation(to, company, name string) Message {
	if name == "" {
		name = to
	}
	return Message{
		To:      to,
		Subject: invitationSubject,
		HTML:    render(invitationTmpl, struct{ Name, Company string }{name, company}),
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		panic("mail: rendering " + t.Name() + ": " + err.Error())
	}
	return buf.String()
}
