package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/Schera-ole/obsmetrics/internal/config"
	internalerrors "github.com/Schera-ole/obsmetrics/internal/errors"
	models "github.com/Schera-ole/obsmetrics/internal/model"
)

// Kicker forwards kicks to every registered agent.
type Kicker struct {
	agents  *Registry
	client  *http.Client
	sender  string
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewKicker creates a Kicker that signs forwarded kicks with sender and bounds
// each agent request by timeout.
func NewKicker(agents *Registry, client *http.Client, sender string, timeout time.Duration, logger *zap.SugaredLogger) *Kicker {
	if client == nil {
		client = &http.Client{}
	}
	return &Kicker{
		agents:  agents,
		client:  client,
		sender:  sender,
		timeout: timeout,
		logger:  logger,
	}
}

// Kick handles a received kick. With hops left, it forwards the kick to all
// agents concurrently with the count decreased by one and waits for them. The
// returned error aggregates every agent that failed.
//
// A receiver waits on its own downstream chain before answering, so the
// deadline for each agent grows with the hops below it: count times the base
// timeout. The last hop gets the base timeout, and every hop above it has one
// base timeout more than the hop it waits on.
func (k *Kicker) Kick(ctx context.Context, req models.KickRequest) error {
	count := config.DefaultKickCount
	if req.Count != nil {
		count = *req.Count
	}
	if count <= 0 {
		k.logger.Info("no more kicks")
		return nil
	}

	received := config.InitialKickSender
	if req.Sender != nil {
		received = *req.Sender
	}
	k.logger.Infow("kick received", "sender", received, "remaining", count)

	remaining := count - 1
	forward := models.KickRequest{Count: &remaining, Sender: &k.sender}
	body, err := json.Marshal(forward)
	if err != nil {
		return fmt.Errorf("error creating json: %w", err)
	}

	timeout := k.timeout * time.Duration(count)
	var group multierror.Group
	for id, agent := range k.agents.All() {
		group.Go(func() error {
			return k.send(ctx, id, agent, body, timeout)
		})
	}

	if err := group.Wait().ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", internalerrors.ErrKickFailed, err)
	}
	return nil
}

func (k *Kicker) send(ctx context.Context, id string, agent models.Agent, body []byte, timeout time.Duration) error {
	requestID := uuid.NewString()
	url := "http://" + net.JoinHostPort(agent.IP, strconv.Itoa(agent.Port)) + "/kick"

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request for agent %s: %w", id, err)
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("X-Request-ID", requestID)

	k.logger.Infow("kick request", "request_id", requestID, "from", k.sender, "to", id)
	response, err := k.client.Do(request)
	if err != nil {
		k.logger.Errorw("kick failed", "request_id", requestID, "agent", id, "error", err)
		return fmt.Errorf("error sending kick to agent %s: %w", id, err)
	}
	defer response.Body.Close()
	io.Copy(io.Discard, response.Body)

	k.logger.Infow("kick response", "request_id", requestID, "from", id, "status", response.StatusCode)
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("agent %s returned status %d", id, response.StatusCode)
	}
	return nil
}
