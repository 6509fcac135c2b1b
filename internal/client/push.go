package client

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"healthsync/internal/misc"

	"github.com/pkg/errors"
)

const pushBaseURL = "https://push.healthsync.app"

type PushRegisterRequest struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id"`
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type PushRegisterResponse struct {
	Success bool `json:"success"`
}

// PushRegisterToken registers a device push token with the push relay.
// Callers treat this as best-effort: registration failure never fails
// the operation that triggered it.
func (c Client) PushRegisterToken(pushReq PushRegisterRequest) (PushRegisterResponse, error) {
	reqBody, err := json.Marshal(pushReq)
	if err != nil {
		return PushRegisterResponse{}, errors.Wrapf(err, "PushRegisterToken: error marshalling request: %+v", pushReq)
	}

	req, err := newRequest(http.MethodPost, c.pushBase()+"/v1/register", bytes.NewReader(reqBody))
	if err != nil {
		return PushRegisterResponse{}, errors.Wrapf(err, "PushRegisterToken: error creating HTTP request from body: %s", reqBody)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.PushServerKey)

	resp, err := c.Do(req)
	if err != nil {
		return PushRegisterResponse{}, errors.Wrapf(err, "PushRegisterToken: error doing request: %+v", req)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("PushRegisterToken: error closing response body, err: %v", err)
		}
	}()

	pushResp := PushRegisterResponse{}
	respBody, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 300*1024))
	if err != nil {
		return pushResp, errors.Wrapf(err, "PushRegisterToken: error reading response body, status: %s", resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pushResp, errors.Errorf("PushRegisterToken: push relay error, status: %s, body: %s",
			resp.Status, misc.BytesLimit(respBody, 2000))
	}
	err = json.Unmarshal(respBody, &pushResp)
	return pushResp, errors.Wrapf(err, "PushRegisterToken: error unmarshalling response body: %s", misc.BytesLimit(respBody, 2000))
}
