package post

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"artisan-voice-go/internal/genai"
	"artisan-voice-go/internal/logger"
)

// TextClient is the remote generation capability the post generator drives.
type TextClient interface {
	GenerateContent(ctx context.Context, prompt string) genai.Result
}

// hashtagBlock is appended in code rather than requested from the model, so
// channel formatting stays deterministic.
const hashtagBlock = "#trendy #artisan #handmade #viral #colorful #engaging"

const emailSubject = "Subject: Artisan Campaign"

// Generator builds channel-specific social copy from caller text. post_type
// is advisory: unrecognized values get the generic prompt, never an error.
type Generator struct {
	client TextClient
	log    *logrus.Entry
}

func NewGenerator(client TextClient) *Generator {
	return &Generator{client: client, log: logger.WithComponent("post")}
}

func prompt(text, postType string) string {
	switch postType {
	case "instagram":
		return fmt.Sprintf("Create an engaging, colorful Instagram post of 10 lines with relevant content only for the following artisan content: '%s'. Use emojis and a catchy hook. Make it visually appealing and audience-attracting. Do not include instructions.", text)
	case "twitter":
		return fmt.Sprintf("Write a short, punchy Twitter post for this artisan content: '%s'. Use a call to action and make it engaging for followers. Do not include instructions.", text)
	case "whatsapp":
		return fmt.Sprintf("Craft a friendly WhatsApp message for this artisan content with relevant content only: '%s'. Make it personal, conversational, and encourage sharing. Do not include instructions.", text)
	case "email":
		return fmt.Sprintf("Write an email campaign for this artisan content: '%s'. Include a catchy subject line, stick to relevant content, engaging body, and a call to action. Make it suitable for a newsletter. Do not include instructions.", text)
	default:
		return fmt.Sprintf("Generate a social media post for this content: '%s'. Add trendy hashtags. Do not include instructions.", text)
	}
}

// Build generates and formats one post. Remote failures come back as
// sentinel text inside a normal post body, never as an error.
func (g *Generator) Build(ctx context.Context, text, postType string) string {
	g.log.WithField("post_type", postType).Info("generating post")

	res := g.client.GenerateContent(ctx, prompt(text, postType))
	if !res.OK() {
		g.log.WithField("failure_reason", res.Reason).Warn("generation failed, returning sentinel text")
	}
	return format(res.Sentinel(), postType)
}

func format(post, postType string) string {
	switch postType {
	case "instagram":
		return post + "\n\n" + hashtagBlock
	case "twitter":
		return post + " " + hashtagBlock
	case "whatsapp":
		return "WhatsApp message:\n" + post
	case "email":
		return emailSubject + "\n\n" + post + "\n\n" + hashtagBlock
	default:
		return post + "\n\n" + hashtagBlock
	}
}
