package main

import (
	"errors"
	"sort"
	"strings"

	"github.com/theleywin/love-on-the-pixel/src/models"
	"github.com/theleywin/love-on-the-pixel/src/services"
)

var errUsage = errors.New("usage")

func sortedKeys(m map[string]command) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (sh *shell) signup(args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	res, err := sh.api.Signup(args[0], args[1], args[2])
	if err != nil {
		return err
	}
	sh.printf("Welcome, %s! You are logged in.\n", res.User.Name)
	if res.AcceptedInvitations > 0 {
		sh.printf("%d invitation(s) were waiting for you and are now accepted.\n", res.AcceptedInvitations)
	}
	return nil
}

func (sh *shell) login(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	res, err := sh.api.Login(args[0], args[1])
	if err != nil {
		return err
	}
	sh.printf("Login successful! Hello again, %s.\n", res.User.Name)
	if res.AcceptedInvitations > 0 {
		sh.printf("%d invitation(s) were waiting for you and are now accepted.\n", res.AcceptedInvitations)
	}
	return nil
}

func (sh *shell) logout([]string) error {
	if err := sh.api.Logout(); err != nil {
		return err
	}
	sh.printf("Logged out.\n")
	return nil
}

func (sh *shell) me([]string) error {
	user, err := sh.api.Me()
	if err != nil {
		return err
	}
	sh.printf("%s <%s>  id=%s\n", user.Name, user.Email, user.ID)
	return nil
}

func (sh *shell) invite(args []string) error {
	if len(args) < 1 || len(args) > 3 {
		return errUsage
	}
	in := services.CreateInvitationInput{InviteeEmail: args[0]}
	if len(args) > 1 {
		in.InviteeName = args[1]
	}
	if len(args) > 2 {
		in.CustomMessage = args[2]
	}
	inv, err := sh.api.Invite(in)
	if err != nil {
		return err
	}
	sh.printf("Invitation sent to %s. Share this link: %s\n", inv.InviteeEmail, inv.ShareURL)
	return nil
}

func (sh *shell) invitations(args []string) error {
	var (
		invs []models.InvitationDto
		err  error
	)
	switch {
	case len(args) == 0 || args[0] == "received":
		invs, err = sh.api.ReceivedInvitations()
	case args[0] == "sent":
		invs, err = sh.api.SentInvitations()
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	if len(invs) == 0 {
		sh.printf("No invitations.\n")
		return nil
	}
	for _, inv := range invs {
		sh.printf("%s  %-8s  from %s to %s\n", inv.ID, inv.Status, inv.InviterEmail, inv.InviteeEmail)
	}
	return nil
}

func (sh *shell) accept(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if _, err := sh.api.AcceptInvitation(args[0]); err != nil {
		return err
	}
	sh.printf("Invitation accepted. You are now connected.\n")
	return nil
}

func (sh *shell) decline(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if _, err := sh.api.DeclineInvitation(args[0]); err != nil {
		return err
	}
	sh.printf("Invitation declined.\n")
	return nil
}

func (sh *shell) connections([]string) error {
	conns, err := sh.api.Connections()
	if err != nil {
		return err
	}
	if len(conns) == 0 {
		sh.printf("No connections yet. Invite someone with the invite command.\n")
		return nil
	}
	for _, c := range conns {
		sh.printf("%s  %s <%s>  since %s\n", c.User.ID, c.User.Name, c.User.Email, c.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func (sh *shell) status(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	status, err := sh.api.ConnectionStatus(args[0])
	if err != nil {
		return err
	}
	sh.printf("%s\n", status)
	return nil
}

func (sh *shell) block(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := sh.api.BlockConnection(args[0]); err != nil {
		return err
	}
	sh.printf("Connection blocked.\n")
	return nil
}

func (sh *shell) remove(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := sh.api.RemoveConnection(args[0]); err != nil {
		return err
	}
	sh.printf("Connection removed.\n")
	return nil
}

func (sh *shell) send(args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errUsage
	}
	in := services.SendInput{Message: args[1]}
	if strings.Contains(args[0], "@") {
		in.RecipientEmail = args[0]
	} else {
		in.RecipientID = args[0]
	}
	if len(args) == 3 {
		in.Category = models.Category(args[2])
	}

	a, err := sh.api.SendAffirmation(in)
	if err != nil {
		return err
	}
	if a.Status == models.AffirmationStatusPending {
		sh.printf("Affirmation saved. It will be delivered when %s joins.\n", in.RecipientEmail)
		return nil
	}
	sh.printf("Affirmation sent!\n")
	return nil
}

func (sh *shell) printAffirmations(list []models.Affirmation) {
	if len(list) == 0 {
		sh.printf("Nothing here yet.\n")
		return
	}
	for _, a := range list {
		star := " "
		if a.IsFavorite {
			star = "*"
		}
		sh.printf("%s %s  [%s/%s]  %s\n", star, a.ID, a.Category, a.Status, a.Message)
	}
}

func (sh *shell) inbox([]string) error {
	list, err := sh.api.ReceivedAffirmations()
	if err != nil {
		return err
	}
	sh.printAffirmations(list)
	return nil
}

func (sh *shell) outbox([]string) error {
	list, err := sh.api.SentAffirmations()
	if err != nil {
		return err
	}
	sh.printAffirmations(list)
	return nil
}

func (sh *shell) favorites([]string) error {
	list, err := sh.api.FavoriteAffirmations()
	if err != nil {
		return err
	}
	sh.printAffirmations(list)
	return nil
}

func (sh *shell) read(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	a, err := sh.api.MarkAffirmationRead(args[0])
	if err != nil {
		return err
	}
	sh.printf("%s\n", a.Message)
	return nil
}

func (sh *shell) fav(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	favorite := true
	if len(args) == 2 {
		switch args[1] {
		case "on":
		case "off":
			favorite = false
		default:
			return errUsage
		}
	}
	if _, err := sh.api.SetFavorite(args[0], favorite); err != nil {
		return err
	}
	if favorite {
		sh.printf("Added to favorites.\n")
	} else {
		sh.printf("Removed from favorites.\n")
	}
	return nil
}

func (sh *shell) people([]string) error {
	people, err := sh.api.People()
	if err != nil {
		return err
	}
	if len(people) == 0 {
		sh.printf("No people yet.\n")
		return nil
	}
	for _, p := range people {
		linked := ""
		if p.LinkedUserID != nil {
			linked = "  (on Love on the Pixel)"
		}
		sh.printf("%s  %s <%s>%s\n", p.ID, p.Name, p.Email, linked)
	}
	return nil
}

func (sh *shell) addPerson(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	in := services.PersonInput{Name: &args[0]}
	if len(args) == 2 {
		in.Email = &args[1]
	}
	p, err := sh.api.AddPerson(in)
	if err != nil {
		return err
	}
	sh.printf("Added %s.\n", p.Name)
	return nil
}

func (sh *shell) deletePerson(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := sh.api.DeletePerson(args[0]); err != nil {
		return err
	}
	sh.printf("Person deleted.\n")
	return nil
}

func (sh *shell) notifications([]string) error {
	list, err := sh.api.Notifications()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		sh.printf("No notifications.\n")
		return nil
	}
	for _, n := range list {
		mark := "new "
		if n.Read {
			mark = "    "
		}
		sh.printf("%s%s  %s  %s\n", mark, n.CreatedAt.Format("2006-01-02 15:04"), n.Type, n.RelatedUserID)
	}
	return nil
}
