package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/c-bata/go-prompt"

	"github.com/theleywin/love-on-the-pixel/src/client"
	"github.com/theleywin/love-on-the-pixel/src/models"
	"github.com/theleywin/love-on-the-pixel/src/services"
)

// pixelAPI is the part of client.Client the shell drives.
type pixelAPI interface {
	LoggedIn() bool
	Signup(name, email, password string) (client.AuthResult, error)
	Login(email, password string) (client.AuthResult, error)
	Logout() error
	Me() (models.UserDto, error)
	Invite(in services.CreateInvitationInput) (models.InvitationDto, error)
	SentInvitations() ([]models.InvitationDto, error)
	ReceivedInvitations() ([]models.InvitationDto, error)
	AcceptInvitation(id string) (models.Invitation, error)
	DeclineInvitation(id string) (models.Invitation, error)
	Connections() ([]models.ConnectionDto, error)
	ConnectionStatus(userID string) (string, error)
	BlockConnection(userID string) error
	RemoveConnection(userID string) error
	SendAffirmation(in services.SendInput) (models.Affirmation, error)
	ReceivedAffirmations() ([]models.Affirmation, error)
	SentAffirmations() ([]models.Affirmation, error)
	FavoriteAffirmations() ([]models.Affirmation, error)
	MarkAffirmationRead(id string) (models.Affirmation, error)
	SetFavorite(id string, favorite bool) (models.Affirmation, error)
	AddPerson(in services.PersonInput) (models.Person, error)
	People() ([]models.Person, error)
	DeletePerson(id string) error
	Notifications() ([]models.Notification, error)
}

var _ pixelAPI = (*client.Client)(nil)

type command struct {
	usage string
	help  string
	// auth marks commands that need a logged in user.
	auth bool
	run  func(sh *shell, args []string) error
}

type shell struct {
	api      pixelAPI
	out      io.Writer
	exit     func(int)
	commands map[string]command
}

func newShell(api pixelAPI, out io.Writer) *shell {
	sh := &shell{api: api, out: out, exit: os.Exit}
	sh.commands = map[string]command{
		"signup":        {usage: "signup <name> <email> <password>", help: "Create an account", run: (*shell).signup},
		"login":         {usage: "login <email> <password>", help: "Log in to your account", run: (*shell).login},
		"logout":        {usage: "logout", help: "Log out", auth: true, run: (*shell).logout},
		"me":            {usage: "me", help: "Show your profile", auth: true, run: (*shell).me},
		"invite":        {usage: "invite <email> [name] [message]", help: "Invite someone by email", auth: true, run: (*shell).invite},
		"invitations":   {usage: "invitations [sent|received]", help: "List invitations", auth: true, run: (*shell).invitations},
		"accept":        {usage: "accept <invitation-id>", help: "Accept an invitation", auth: true, run: (*shell).accept},
		"decline":       {usage: "decline <invitation-id>", help: "Decline an invitation", auth: true, run: (*shell).decline},
		"connections":   {usage: "connections", help: "List your connections", auth: true, run: (*shell).connections},
		"status":        {usage: "status <user-id>", help: "Show the connection status with a user", auth: true, run: (*shell).status},
		"block":         {usage: "block <user-id>", help: "Block a connection", auth: true, run: (*shell).block},
		"remove":        {usage: "remove <user-id>", help: "Remove a connection", auth: true, run: (*shell).remove},
		"send":          {usage: `send <email|user-id> "<message>" [category]`, help: "Send an affirmation", auth: true, run: (*shell).send},
		"inbox":         {usage: "inbox", help: "List received affirmations", auth: true, run: (*shell).inbox},
		"outbox":        {usage: "outbox", help: "List sent affirmations", auth: true, run: (*shell).outbox},
		"favorites":     {usage: "favorites", help: "List favorite affirmations", auth: true, run: (*shell).favorites},
		"read":          {usage: "read <affirmation-id>", help: "Mark an affirmation as read", auth: true, run: (*shell).read},
		"fav":           {usage: "fav <affirmation-id> [on|off]", help: "Toggle an affirmation as favorite", auth: true, run: (*shell).fav},
		"people":        {usage: "people", help: "List your people", auth: true, run: (*shell).people},
		"add-person":    {usage: "add-person <name> [email]", help: "Track a person", auth: true, run: (*shell).addPerson},
		"delete-person": {usage: "delete-person <person-id>", help: "Stop tracking a person", auth: true, run: (*shell).deletePerson},
		"notifications": {usage: "notifications", help: "List notifications", auth: true, run: (*shell).notifications},
	}
	return sh
}

func (sh *shell) printf(format string, a ...any) {
	fmt.Fprintf(sh.out, format, a...)
}

func (sh *shell) execute(input string) {
	args := splitArgs(input)
	if len(args) == 0 {
		return
	}
	name := strings.ToLower(args[0])

	switch name {
	case "help":
		sh.help()
		return
	case "exit", "quit":
		sh.exit(0)
		return
	}

	cmd, ok := sh.commands[name]
	if !ok {
		sh.printf("Unknown command. Type 'help' for a list of commands.\n")
		return
	}
	if cmd.auth && !sh.api.LoggedIn() {
		sh.printf("You must login first using the login command.\n")
		return
	}
	if err := cmd.run(sh, args[1:]); err != nil {
		if errors.Is(err, errUsage) {
			sh.printf("Usage: %s\n", cmd.usage)
			return
		}
		sh.printf("Error: %v\n", err)
	}
}

func (sh *shell) complete(d prompt.Document) []prompt.Suggest {
	if strings.Contains(d.TextBeforeCursor(), " ") {
		return nil
	}
	suggestions := []prompt.Suggest{{Text: "help", Description: "Show this help message"}, {Text: "exit", Description: "Exit the application"}}
	for name, cmd := range sh.commands {
		suggestions = append(suggestions, prompt.Suggest{Text: name, Description: cmd.help})
	}
	return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
}

func (sh *shell) help() {
	sh.printf("\n=== Love on the Pixel CLI Help ===\n\n")
	for _, name := range sortedKeys(sh.commands) {
		cmd := sh.commands[name]
		sh.printf("%-15s : %s\n", name, cmd.help)
		sh.printf("%-15s   Usage: %s\n", "", cmd.usage)
	}
	sh.printf("%-15s : %s\n", "help", "Show this help message")
	sh.printf("%-15s : %s\n", "exit", "Exit the application")
}

// splitArgs splits on spaces, keeping double-quoted text together.
func splitArgs(input string) []string {
	var (
		args    []string
		current strings.Builder
		quoted  bool
		started bool
	)
	for _, r := range strings.TrimSpace(input) {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case r == ' ' && !quoted:
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}
	if started {
		args = append(args, current.String())
	}
	return args
}
