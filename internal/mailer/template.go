package mailer

import (
	"bytes"
	"html/template"
)

var verificationTmpl = template.Must(template.New("verify").Parse(`<!DOCTYPE html>
<html>
  <body style="margin:0;padding:0;font-family:-apple-system,'Segoe UI',Roboto,sans-serif;background-color:#f4f4f7;">
    <table width="100%" cellpadding="0" cellspacing="0" style="padding:40px 20px;">
      <tr>
        <td align="center">
          <table width="600" cellpadding="0" cellspacing="0" style="background-color:#ffffff;border-radius:12px;overflow:hidden;">
            <tr>
              <td style="background-color:#2563eb;padding:40px;text-align:center;">
                <h1 style="margin:0;color:#ffffff;font-size:28px;">Welcome to iScholar</h1>
              </td>
            </tr>
            <tr>
              <td style="padding:40px;">
                <p style="color:#374151;font-size:16px;">Hi <strong>{{.Name}}</strong>,</p>
                <p style="color:#374151;font-size:16px;">
                  Thank you for joining iScholar. Click the button below to verify
                  your email and activate your account:
                </p>
                <p style="text-align:center;padding:20px 0;">
                  <a href="{{.Link}}" style="display:inline-block;background-color:#2563eb;color:#ffffff;text-decoration:none;padding:14px 40px;border-radius:8px;font-weight:600;">
                    Verify Email Address
                  </a>
                </p>
                <p style="color:#6b7280;font-size:14px;">
                  If the button doesn't work, copy and paste this link:<br>
                  <a href="{{.Link}}" style="color:#2563eb;">{{.Link}}</a>
                </p>
                <p style="color:#92400e;font-size:14px;background-color:#fef3c7;padding:12px;border-radius:6px;">
                  Note: this link expires in 24 hours.
                </p>
                <p style="color:#6b7280;font-size:14px;">
                  If you didn't create this account, you can safely ignore this email.
                </p>
              </td>
            </tr>
          </table>
        </td>
      </tr>
    </table>
  </body>
</html>`))

func renderVerificationTemplate(name, link string) (string, error) {
	var buf bytes.Buffer
	err := verificationTmpl.Execute(&buf, struct {
		Name string
		Link string
	}{Name: name, Link: link})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
