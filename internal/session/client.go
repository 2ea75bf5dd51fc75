package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Client asks the external session-hosting service for game server
// addresses. The matchmaking core never interprets the returned address,
// it only forwards it to clients.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type allocateRequest struct {
	MatchID      string   `json:"match_id"`
	Participants []string `json:"participants"`
}

type allocateResponse struct {
	Address string `json:"address"`
}

func (c *Client) AllocateSession(matchID uuid.UUID, participantIDs []string) (string, error) {
	body, err := json.Marshal(allocateRequest{
		MatchID:      matchID.String(),
		Participants: participantIDs,
	})
	if err != nil {
		return "", err
	}

	resp, err := c.http.Post(c.baseURL+"/v1/sessions", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("session service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("session service returned status %d", resp.StatusCode)
	}

	var out allocateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("malformed session service response: %w", err)
	}
	if out.Address == "" {
		return "", fmt.Errorf("session service returned an empty address")
	}
	return out.Address, nil
}
