package service

import "fmt"

func welcomeEmailTemplate(name, dashboardURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Upload your notes and they will go live once a moderator reviews them.

Get started: %s

Best,
The %s Team`, name, dashboardURL, appName)

	return subject, body
}

func noteApprovedEmailTemplate(name, title, noteURL, appName string) (string, string) {
	subject := fmt.Sprintf("Your note \"%s\" is live", title)
	body := fmt.Sprintf(`Hi %s,

Good news: your note "%s" was approved and is now visible to everyone.

View it here: %s

Thanks for sharing,
The %s Team`, name, title, noteURL, appName)

	return subject, body
}

func noteRejectedEmailTemplate(name, title, reason, appName string) (string, string) {
	subject := fmt.Sprintf("Your note \"%s\" was not approved", title)
	body := fmt.Sprintf(`Hi %s,

A moderator reviewed your note "%s" and could not approve it.

Reason: %s

You are welcome to fix the issue and upload it again.

Best,
The %s Team`, name, title, reason, appName)

	return subject, body
}

func noteRemovedEmailTemplate(name, title, reason, appName string) (string, string) {
	subject := fmt.Sprintf("Your note \"%s\" was removed", title)
	body := fmt.Sprintf(`Hi %s,

Your note "%s" was taken down after a report was reviewed.

Reason: %s

If you think this is a mistake, reply to this email.

Best,
The %s Team`, name, title, reason, appName)

	return subject, body
}

func warningEmailTemplate(name, reason, appName string) (string, string) {
	subject := fmt.Sprintf("A warning on your %s account", appName)
	body := fmt.Sprintf(`Hi %s,

A moderator issued a warning on your account.

Reason: %s

Repeated violations can lead to your uploads being removed.

Best,
The %s Team`, name, reason, appName)

	return subject, body
}
