package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"healthsync/internal/misc"

	"github.com/pkg/errors"
)

const tavusBaseURL = "https://tavusapi.com/v2"

type TavusConversationRequest struct {
	PersonaID             string                 `json:"persona_id"`
	ReplicaID             string                 `json:"replica_id"`
	ConversationName      string                 `json:"conversation_name"`
	ConversationalContext string                 `json:"conversational_context,omitempty"`
	Properties            TavusConversationProps `json:"properties"`
}

type TavusConversationProps struct {
	MaxCallDuration     int  `json:"max_call_duration"`
	EnableRecording     bool `json:"enable_recording"`
	EnableTranscription bool `json:"enable_transcription"`
}

type TavusConversationResponse struct {
	ConversationID  string `json:"conversation_id"`
	ConversationURL string `json:"conversation_url"`
	Status          string `json:"status"`
}

// TavusConversationCreate starts an avatar conversation and returns a
// joinable room URL. The conversational context carries the user's
// recent health-log history so the avatar can refer to it.
func (c Client) TavusConversationCreate(tavusReq TavusConversationRequest) (TavusConversationResponse, error) {
	reqBody, err := json.Marshal(tavusReq)
	if err != nil {
		return TavusConversationResponse{}, errors.Wrapf(err, "TavusConversationCreate: error marshalling request: %+v", tavusReq)
	}

	req, err := newRequest(http.MethodPost, c.tavusBase()+"/conversations", bytes.NewReader(reqBody))
	if err != nil {
		return TavusConversationResponse{}, errors.Wrapf(err, "TavusConversationCreate: error creating HTTP request from body: %s", reqBody)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.TavusAPIKey)

	resp, err := c.Do(req)
	if err != nil {
		return TavusConversationResponse{}, errors.Wrapf(err, "TavusConversationCreate: error doing request: %+v", req)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("TavusConversationCreate: error closing response body, err: %v", err)
		}
	}()

	body, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 300*1024))
	if err != nil {
		return TavusConversationResponse{}, errors.Wrapf(err, "TavusConversationCreate: error reading response body, status: %s", resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return TavusConversationResponse{}, errors.Errorf("TavusConversationCreate: Tavus API error, status: %s, body: %s",
			resp.Status, misc.BytesLimit(body, 2000))
	}

	tavusResp := TavusConversationResponse{}
	err = json.Unmarshal(body, &tavusResp)
	return tavusResp, errors.Wrapf(err, "TavusConversationCreate: error unmarshalling response body: %s", misc.BytesLimit(body, 2000))
}

func (c Client) TavusConversationEnd(conversationID string) error {
	req, err := newRequest(http.MethodPost, c.tavusBase()+"/conversations/"+conversationID+"/end", nil)
	if err != nil {
		return errors.Wrapf(err, "TavusConversationEnd: error creating request for ConversationID: %s", conversationID)
	}
	req.Header.Set("x-api-key", c.TavusAPIKey)

	resp, err := c.Do(req)
	if err != nil {
		return errors.Wrapf(err, "TavusConversationEnd: error doing request: %+v", req)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("TavusConversationEnd: error closing response body, err: %v", err)
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 300*1024))
		return errors.Errorf("TavusConversationEnd: Tavus API error, status: %s, body: %s",
			resp.Status, misc.BytesLimit(body, 2000))
	}
	return nil
}
