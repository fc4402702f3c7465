// internal/notify/discord.go
//
// 把通知摘要鏡像到 Discord 頻道。
package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Discord 把每筆通知的單行摘要貼到指定頻道，供營運端觀察。
// 只使用 REST API，不需要開啟 gateway 連線。
type Discord struct {
	session   *discordgo.Session
	channelID string
}

// NewDiscord 以 bot token 建立 session。
func NewDiscord(token, channelID string) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	return &Discord{session: session, channelID: channelID}, nil
}

// Notify 貼出摘要；請求帶著 ctx，逾時即中止。address 不使用。
func (d *Discord) Notify(ctx context.Context, _ string, kind Kind, data Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := d.session.ChannelMessageSend(d.channelID, Summary(kind, data), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("post %s to discord: %w", kind, err)
	}
	return nil
}
