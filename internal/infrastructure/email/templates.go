package email

import (
	"bytes"
	"html/template"
)

var otpTemplate = template.Must(template.New("otp").Parse(`<html>
<body style="font-family: Arial, sans-serif; background-color: #f4f4f5; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 40px auto; background: #ffffff; padding: 30px; border-radius: 12px; text-align: center;">
		<h3>{{.Title}}</h3>
		<p>Use the code below. It expires in {{.ValidMinutes}} minutes.</p>
		<p style="font-size: 32px; letter-spacing: 8px; font-weight: bold;">{{.Code}}</p>
		<p style="font-size: 12px; color: #888888;">If you did not request this code you can ignore this email.</p>
	</div>
</body>
</html>`))

type otpData struct {
	Title        string
	Code         string
	ValidMinutes int
}

// RenderOTP returns the subject and HTML body of a one-time code email.
func RenderOTP(title, code string, validMinutes int) (string, string, error) {
	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, otpData{Title: title, Code: code, ValidMinutes: validMinutes}); err != nil {
		return "", "", err
	}
	return title, buf.String(), nil
}
