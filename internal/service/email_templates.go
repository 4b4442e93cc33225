package service

import "fmt"

func welcomeEmailTemplate(name, appURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready and your pet is waiting.

Create your first savings goal: %s

Every contribution earns coins you can spend on costumes.

Best,
The %s Team`, name, appURL, appName)

	return subject, body
}

func goalCompletedEmailTemplate(name, goalName, saved, appURL, appName string) (string, string) {
	subject := fmt.Sprintf("You reached your goal: %s", goalName)
	body := fmt.Sprintf(`Hi %s,

You did it! You saved %s and completed "%s".

Pick your next goal: %s

Best,
The %s Team`, name, saved, goalName, appURL, appName)

	return subject, body
}
