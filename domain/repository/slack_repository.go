package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Songmu/retry"
	ttlcache "github.com/jellydator/ttlcache/v3"
	"github.com/slack-go/slack"
	"golang.org/x/sync/semaphore"
)

var ErrSlackNotFound = fmt.Errorf("not found")

// slackWorkers bounds concurrent Slack API calls so one slow call
// cannot starve the request handlers.
const slackWorkers = 10

type SlackRepositoryer interface {
	GetChannelByName(ctx context.Context, name string) (*slack.Channel, error)
	EnsureChannel(ctx context.Context, name string) (string, error)
	PostMessage(ctx context.Context, channelID, text string) error
	OpenView(triggerID string, view slack.ModalViewRequest) error
	FlushChannelCache()
}

type SlackRepository struct {
	client        *slack.Client
	channelsCache *ttlcache.Cache[string, []slack.Channel]
	sem           *semaphore.Weighted
}

func NewSlackRepository(client *slack.Client) *SlackRepository {
	r := &SlackRepository{
		client:        client,
		channelsCache: ttlcache.New(ttlcache.WithTTL[string, []slack.Channel](time.Hour)),
		sem:           semaphore.NewWeighted(slackWorkers),
	}
	go r.channelsCache.Start()

	go func() {
		_, err := r.getChannels(context.Background())
		if err != nil {
			slog.Error("Failed to get channels", slog.Any("err", err))
			return
		}
		slog.Info("Channels cache initialized")
	}()

	return r
}

func (h *SlackRepository) FlushChannelCache() {
	h.channelsCache.DeleteAll()
}

func (h *SlackRepository) getChannels(ctx context.Context) ([]slack.Channel, error) {
	cacheKey := "channels"
	if channels := h.channelsCache.Get(cacheKey); channels != nil {
		return channels.Value(), nil
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer h.sem.Release(1)

	nextCursor := ""
	channels := make([]slack.Channel, 0)
	for {
		cs, next, err := h.client.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Limit:           1000,
			Cursor:          nextCursor,
			ExcludeArchived: false,
		})
		if err != nil {
			return nil, err
		}
		channels = append(channels, cs...)
		if next == "" {
			break
		}
		nextCursor = next
	}

	h.channelsCache.Set(cacheKey, channels, ttlcache.DefaultTTL)
	return channels, nil
}

func (h *SlackRepository) GetChannelByName(ctx context.Context, name string) (*slack.Channel, error) {
	channels, err := h.getChannels(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range channels {
		if c.Name == strings.TrimPrefix(name, "#") {
			return &c, nil
		}
	}
	return nil, nil
}

// EnsureChannel returns the id of the named channel, creating it when
// absent. Creation retries exactly once on a rate limit, honoring the
// server-provided backoff. Other failures are returned as is, the
// caller decides whether the step was best effort.
func (h *SlackRepository) EnsureChannel(ctx context.Context, name string) (string, error) {
	channel, err := h.GetChannelByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("list channels error: %w", err)
	}
	if channel != nil {
		return channel.ID, nil
	}

	created, err := h.createConversation(ctx, name)
	if err != nil {
		var rle *slack.RateLimitedError
		if !errors.As(err, &rle) {
			return "", fmt.Errorf("create channel %s error: %w", name, err)
		}
		slog.Warn("Rate limited creating channel, retrying once",
			slog.String("channel", name),
			slog.Duration("retry_after", rle.RetryAfter))
		select {
		case <-time.After(rle.RetryAfter):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		created, err = h.createConversation(ctx, name)
		if err != nil {
			return "", fmt.Errorf("create channel %s error: %w", name, err)
		}
	}

	h.FlushChannelCache()
	return created.ID, nil
}

func (h *SlackRepository) createConversation(ctx context.Context, name string) (*slack.Channel, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer h.sem.Release(1)

	return h.client.CreateConversationContext(ctx, slack.CreateConversationParams{
		ChannelName: name,
	})
}

// PostMessage is synchronous and not retried. Creation pipeline steps
// report their own outcome instead of queueing retries.
func (h *SlackRepository) PostMessage(ctx context.Context, channelID, text string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer h.sem.Release(1)

	_, _, err := h.client.PostMessageContext(ctx, channelID, slack.MsgOptionText(text, false))
	if err != nil {
		slog.Warn("PostMessage", slog.Any("channelID", channelID), slog.Any("err", err))
		return err
	}
	return nil
}

func (h *SlackRepository) OpenView(triggerID string, view slack.ModalViewRequest) error {
	err := retry.Retry(3, time.Second, func() error {
		_, err := h.client.OpenView(triggerID, view)
		if err != nil {
			slog.Warn("OpenView", slog.Any("triggerID", triggerID), slog.Any("err", err))
		}
		return err
	})
	if err != nil {
		slog.Error("Failed to OpenView", slog.Any("err", err))
	}
	return err
}
