package mail

import (
	"bytes"
	"html/template"
	"strings"
)

var htmlLayout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <p>Hi {{.Name}},</p>
  <p>{{.Intro}}</p>
  <p><a href="{{.Link}}" style="display:inline-block;padding:10px 18px;background:#2563eb;color:#fff;border-radius:6px;text-decoration:none;">{{.Action}}</a></p>
  <p>{{.Footer}}</p>
  <p>The {{.App}} team</p>
</body>
</html>`))

type emailView struct {
	App    string
	Name   string
	Intro  string
	Action string
	Link   string
	Footer string
}

func render(v emailView) (string, string) {
	if strings.TrimSpace(v.Name) == "" {
		v.Name = "there"
	}

	text := "Hi " + v.Name + ",\n\n" + v.Intro + "\n\n" + v.Link + "\n\n" + v.Footer + "\n\nThe " + v.App + " team\n"

	var buf bytes.Buffer
	if err := htmlLayout.Execute(&buf, v); err != nil {
		return text, ""
	}
	return text, buf.String()
}

func verificationBody(app, name, link string) (string, string) {
	return render(emailView{
		App:    app,
		Name:   name,
		Intro:  "Please confirm your email address to finish setting up your account.",
		Action: "Verify email",
		Link:   link,
		Footer: "This link expires in 24 hours. If you did not create an account, you can ignore this email.",
	})
}

func resetBody(app, name, link string) (string, string) {
	return render(emailView{
		App:    app,
		Name:   name,
		Intro:  "We received a request to reset your password.",
		Action: "Reset password",
		Link:   link,
		Footer: "This link expires in 1 hour. If you did not request a reset, no action is needed.",
	})
}
