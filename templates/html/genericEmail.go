package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderGenericEmail generates branded HTML for an email. The subject is
// shown in the header banner; bodyContent is plain text that gets escaped
// and has its newlines turned into <br> tags.
func RenderGenericEmail(subject, bodyContent string) string {
	escaped := html.EscapeString(bodyContent)
	htmlBody := strings.ReplaceAll(escaped, "\n", "<br>")
	safeSubject := html.EscapeString(subject)

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: Arial, Helvetica, sans-serif; margin: 0; padding: 0; background-color: #f3f4f6; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background-color: #1e3a8a; padding: 32px 24px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 22px; }
    .content { padding: 32px 24px; color: #111827; line-height: 1.6; font-size: 15px; }
    .footer { padding: 24px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      %s
    </div>
    <div class="footer">
      <p>Sistema de Investigações Policiais. Esta é uma mensagem automática.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, htmlBody)
}

// RenderAccountCreated is sent after a successful sign up
func RenderAccountCreated(email string) (subject, plain, htmlBody string) {
	subject = "Conta criada"
	plain = fmt.Sprintf("Olá,\n\nA conta %s foi criada com sucesso. Você já pode entrar no sistema.", email)
	return subject, plain, RenderGenericEmail(subject, plain)
}

// RenderPasswordReset carries the link that sets a new password
func RenderPasswordReset(link string) (subject, plain, htmlBody string) {
	subject = "Redefinição de senha"
	plain = fmt.Sprintf("Recebemos um pedido para redefinir sua senha.\n\nUse o link abaixo em até 30 minutos:\n%s\n\nSe você não fez esse pedido, ignore esta mensagem.", link)
	return subject, plain, RenderGenericEmail(subject, plain)
}
