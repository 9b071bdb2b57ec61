package notifier

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/gdg-garage/workshop-booking-api/internal/config"
	"github.com/gdg-garage/workshop-booking-api/internal/models"
)

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

// NewDiscordNotifierFromConfig opens a bot session for the staff channel.
func NewDiscordNotifierFromConfig(cfg *config.Config) (*DiscordNotifier, error) {
	if cfg.DiscordBotToken == "" || cfg.DiscordNotificationsChannelID == "" {
		return nil, fmt.Errorf("discord bot token or notifications channel not configured")
	}
	session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return NewDiscordNotifier(session, cfg.DiscordNotificationsChannelID), nil
}

func (n *DiscordNotifier) NotifyBooking(ctx context.Context, event BookingEvent, child models.Child, workshop models.Workshop, booking models.Booking) error {
	return n.send(ctx, bookingMessage(event, child, workshop, booking))
}

func (n *DiscordNotifier) NotifyAudit(ctx context.Context, runID string, changes []models.AuditChange) error {
	return n.send(ctx, auditMessage(runID, changes))
}

func (n *DiscordNotifier) send(ctx context.Context, message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	_, err := n.session.ChannelMessageSend(n.channelID, message, discordgo.WithContext(ctx))
	if err != nil {
		log.Printf("Failed to send discord message: %v", err)
		return err
	}

	return nil
}

func bookingMessage(event BookingEvent, child models.Child, workshop models.Workshop, booking models.Booking) string {
	title := "📝 **New Booking**"
	if event == BookingCancelled {
		title = "🚫 **Booking Cancelled**"
	}

	return fmt.Sprintf("%s\n**Child:** %s\n**Workshop:** %s\n**When:** %s - %s\n**Status:** %s",
		title,
		child.FullName(),
		workshop.Name,
		workshop.StartTime.Format("2006-01-02 15:04"),
		workshop.EndTime.Format("15:04"),
		booking.Status,
	)
}

func auditMessage(runID string, changes []models.AuditChange) string {
	if len(changes) == 0 {
		return fmt.Sprintf("🧹 **Booking audit %s**\nNo inconsistencies found.", runID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🧹 **Booking audit %s**\n%d booking(s) repaired:", runID, len(changes))
	for _, c := range changes {
		fmt.Fprintf(&b, "\n• #%d %s / %s: %s → %s (%s)", c.BookingID, c.ChildName, c.WorkshopName, c.From, c.To, c.Reason)
	}
	return b.String()
}
