package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-folio/internal/log"
	"github.com/teslashibe/go-folio/pkg/contact"
)

var (
	contactName    string
	contactEmail   string
	contactMessage string
)

var contactCmd = &cobra.Command{
	Use:   "contact",
	Short: "Send a message through the contact relay",
	Long: `Validate a contact form submission and email it to the site owner.

Requires RESEND_API_KEY. The recipient is CONTACT_TO.

Examples:
  folio contact --name "Ada" --email ada@example.com --message "Hello"`,
	Args: cobra.NoArgs,
	RunE: runContact,
}

func init() {
	contactCmd.Flags().StringVarP(&contactName, "name", "n", "", "sender name")
	contactCmd.Flags().StringVarP(&contactEmail, "email", "e", "", "sender email")
	contactCmd.Flags().StringVarP(&contactMessage, "message", "m", "", "message body")
}

func runContact(cmd *cobra.Command, args []string) error {
	mailer, err := contact.NewResend(cfg.Contact.ResendKey)
	if err != nil {
		return err
	}
	relay, err := contact.NewRelay(mailer, cfg.Contact, log.Component("contact"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := relay.Send(ctx, contact.Submission{
		Name:            contactName,
		Email:           contactEmail,
		Message:         contactMessage,
		ClientTimestamp: time.Now().UnixMilli(),
	})
	var ve *contact.ValidationError
	if errors.As(err, &ve) {
		for _, f := range ve.Fields {
			fmt.Fprintln(cmd.ErrOrStderr(), defaultTheme.errorStyle().Render(f.Error()))
		}
		return errors.New("invalid form data")
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Message sent (id %s)\n", id)
	return nil
}
