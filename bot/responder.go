package bot

import (
	"context"
	"fmt"
	"time"

	"seraphina/bot/common"
	"seraphina/cache"
	"seraphina/events"
	"seraphina/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Transport is the slice of Discord the responder needs. Narrow so
// tests can stand in for the gateway.
type Transport interface {
	ResolveChannel(channelID string) (*discordgo.Channel, error)
	ResolveUser(userID string) (*discordgo.User, error)
	SendEmbed(channelID string, embed *discordgo.MessageEmbed) error
}

// discordTransport backs Transport with a live discordgo session
type discordTransport struct {
	session *discordgo.Session
}

func (t *discordTransport) ResolveChannel(channelID string) (*discordgo.Channel, error) {
	return t.session.Channel(channelID)
}

func (t *discordTransport) ResolveUser(userID string) (*discordgo.User, error) {
	return t.session.User(userID)
}

func (t *discordTransport) SendEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := t.session.ChannelMessageSendEmbed(channelID, embed)
	return err
}

// RetryPolicy bounds how many times a send is attempted
type RetryPolicy struct {
	MaxAttempts int
}

// DefaultRetryPolicy matches the three attempts the bot has always used
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3}

// Responder routes finished jobs back to the channel the user asked
// from. It is the delivery function for every capability queue.
type Responder struct {
	transport Transport
	sessions  *cache.SessionCache
	retry     RetryPolicy
	bus       *events.Bus
}

// NewResponder creates a responder over a transport and session cache
func NewResponder(transport Transport, sessions *cache.SessionCache, retry RetryPolicy, bus *events.Bus) (*Responder, error) {
	if retry.MaxAttempts < 1 {
		return nil, fmt.Errorf("retry policy needs at least one attempt, got %d", retry.MaxAttempts)
	}
	if bus == nil {
		return nil, fmt.Errorf("responder needs an event bus")
	}

	return &Responder{
		transport: transport,
		sessions:  sessions,
		retry:     retry,
		bus:       bus,
	}, nil
}

// Deliver sends the outcome of one job to the user's last channel. The
// session entry is cleared whether or not delivery succeeds; a given
// job is delivered at most once.
func (r *Responder) Deliver(ctx context.Context, job models.Job, outcome models.Outcome) {
	defer r.sessions.Clear(job.UserID)
	defer r.bus.Emit(ctx, events.JobFinishedEvent{
		JobID:      job.ID,
		UserID:     job.UserID,
		Capability: job.Capability,
		Success:    outcome.Success,
	})

	entry, ok := r.sessions.Lookup(job.UserID)
	if !ok {
		log.WithFields(log.Fields{
			"jobID":  job.ID,
			"userID": job.UserID,
		}).Error("No session entry for finished job, dropping response")
		return
	}

	channel, err := r.transport.ResolveChannel(entry.ChannelID)
	if err != nil {
		log.WithFields(log.Fields{
			"jobID":     job.ID,
			"channelID": entry.ChannelID,
		}).Errorf("Failed to resolve channel: %v", err)
		return
	}

	user, err := r.transport.ResolveUser(job.UserID)
	if err != nil {
		log.WithFields(log.Fields{
			"jobID":  job.ID,
			"userID": job.UserID,
		}).Errorf("Failed to resolve user: %v", err)
		return
	}

	embed := buildResponseEmbed(job, outcome, entry, user)

	if err := r.send(channel.ID, embed); err != nil {
		log.WithFields(log.Fields{
			"jobID":     job.ID,
			"channelID": channel.ID,
		}).Errorf("Delivery failed after %d attempts: %v", r.retry.MaxAttempts, err)
	}
}

// send attempts the channel message up to MaxAttempts times
func (r *Responder) send(channelID string, embed *discordgo.MessageEmbed) error {
	var lastErr error
	for attempt := 1; attempt <= r.retry.MaxAttempts; attempt++ {
		lastErr = r.transport.SendEmbed(channelID, embed)
		if lastErr == nil {
			return nil
		}
		log.WithFields(log.Fields{
			"channelID": channelID,
			"attempt":   attempt,
		}).Errorf("Send attempt failed: %v", lastErr)
	}
	return lastErr
}

// fieldValue clamps a field to Discord's limit, falling back when empty
func fieldValue(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return common.TruncateField(value)
}

func buildResponseEmbed(job models.Job, outcome models.Outcome, entry cache.Entry, user *discordgo.User) *discordgo.MessageEmbed {
	footer := &discordgo.MessageEmbedFooter{
		Text:    fmt.Sprintf("Requested by %s", user.Username),
		IconURL: user.AvatarURL(""),
	}
	timestamp := time.Now().Format(time.RFC3339)

	if !outcome.Success {
		return &discordgo.MessageEmbed{
			Title:       "Seraphina Says",
			Description: "Error processing your request.",
			Color:       0xED4245,
			Footer:      footer,
			Timestamp:   timestamp,
		}
	}

	switch job.Capability {
	case models.CapabilityImageGeneration:
		return &discordgo.MessageEmbed{
			Title:     "Your Image",
			Color:     0x0099FF,
			Image:     &discordgo.MessageEmbedImage{URL: outcome.Content},
			Footer:    footer,
			Timestamp: timestamp,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Prompt", Value: fieldValue(entry.OriginalQuery, "No prompt provided")},
			},
		}

	case models.CapabilityImageLookup:
		return &discordgo.MessageEmbed{
			Title:     "Hope You Enjoy 😛😘",
			Color:     0x00AE86,
			Image:     &discordgo.MessageEmbedImage{URL: outcome.Content},
			Footer:    footer,
			Timestamp: timestamp,
		}

	default:
		return &discordgo.MessageEmbed{
			Title:     "Seraphina Says",
			Color:     0x0099FF,
			Footer:    footer,
			Timestamp: timestamp,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Your Query", Value: fieldValue(entry.OriginalQuery, "No query provided")},
				{Name: "Response", Value: fieldValue(outcome.Content, "No response was generated")},
			},
		}
	}
}
