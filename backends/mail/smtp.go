// Package mail implements the Mail capability over SMTP for sending and a
// small in-process drafts store, since most SMTP servers have no concept of
// an unsent draft. ListRecentSentTo is backed by an in-memory log of the
// messages sent through this client, which is where CREATE DRAFT reads the
// previous body it appends to a reply; a
// host wanting durable draft storage can swap this for an IMAP-backed
// implementation behind the same capability.Mail interface.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"sync"
	"time"

	"github.com/generalbots/botengine/internal/capability"
)

// Config holds SMTP server connection details.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sentRecord struct {
	capability.Message
	at time.Time
}

// Client implements capability.Mail.
type Client struct {
	cfg Config

	mu      sync.Mutex
	drafts  []capability.Message
	sentLog []sentRecord
}

func New(cfg Config) *Client { return &Client{cfg: cfg} }

func (c *Client) addr() string { return fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port) }

func (c *Client) auth() smtp.Auth {
	return smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
}

func (c *Client) Send(ctx context.Context, to, subject, body string) error {
	msg := []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", c.cfg.From, to, subject, body))
	if err := smtp.SendMail(c.addr(), c.auth(), c.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	c.mu.Lock()
	c.sentLog = append(c.sentLog, sentRecord{Message: capability.Message{To: to, Subject: subject, Body: body}, at: time.Now()})
	c.mu.Unlock()
	return nil
}

func (c *Client) SaveDraft(ctx context.Context, to, subject, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drafts = append(c.drafts, capability.Message{To: to, Subject: subject, Body: body})
	return nil
}

func (c *Client) ListRecentSentTo(ctx context.Context, address string, limit int) ([]capability.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []capability.Message
	for i := len(c.sentLog) - 1; i >= 0 && len(out) < limit; i-- {
		if c.sentLog[i].To == address {
			out = append(out, c.sentLog[i].Message)
		}
	}
	return out, nil
}
