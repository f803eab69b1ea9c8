package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESSender delivers email through Amazon SES v2.
type SESSender struct {
	client *sesv2.Client
	sender string
}

// NewSESSender creates an SES sender using the default AWS credential chain.
func NewSESSender(ctx context.Context, region, sender string) (*SESSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SESSender{
		client: sesv2.NewFromConfig(cfg),
		sender: sender,
	}, nil
}

// Send delivers one message to one recipient.
func (s *SESSender) Send(ctx context.Context, to string, msg *Message) error {
	charset := aws.String("UTF-8")
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.sender),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: charset},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(msg.HTML), Charset: charset},
					Text: &types.Content{Data: aws.String(msg.Text), Charset: charset},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send to %s failed: %w", to, err)
	}
	return nil
}
