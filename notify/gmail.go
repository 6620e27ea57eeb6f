package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"strings"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// Gmail sends mail as the authorised user. Sender is the 'From' address and
// may be left empty, in which case Gmail uses the account's primary address.
type Gmail struct {
	Sender  string
	service *gmail.Service
}

func NewGmail(ctx context.Context, sender string, opts ...option.ClientOption) (*Gmail, error) {
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Gmail client (%w)", err)
	}

	return &Gmail{
		Sender:  sender,
		service: service,
	}, nil
}

func (g *Gmail) Send(ctx context.Context, to []string, subject string, body string) error {
	message := gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(compose(g.Sender, to, subject, body)),
	}

	if _, err := g.service.Users.Messages.Send("me", &message).Context(ctx).Do(); err != nil {
		return err
	}

	return nil
}

func compose(from string, to []string, subject string, body string) []byte {
	var b strings.Builder

	if from != "" && from != "me" {
		fmt.Fprintf(&b, "From: %v\r\n", from)
	}

	fmt.Fprintf(&b, "To: %v\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %v\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&b, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	fmt.Fprintf(&b, "\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))

	return []byte(b.String())
}
