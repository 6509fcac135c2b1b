package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"healthsync/internal/misc"

	"github.com/pkg/errors"
)

const placesBaseURL = "https://maps.googleapis.com/maps/api/place"

var ErrPlaceNotFound = errors.New("place not found")

type PlacesAutocompleteResponse struct {
	Status      string            `json:"status"`
	Predictions []PlacePrediction `json:"predictions"`
}

type PlacePrediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

type PlaceDetailsResponse struct {
	Status string `json:"status"`
	Result struct {
		AddressComponents []AddressComponent `json:"address_components"`
		FormattedAddress  string             `json:"formatted_address"`
	} `json:"result"`
}

type AddressComponent struct {
	LongName  string   `json:"long_name"`
	ShortName string   `json:"short_name"`
	Types     []string `json:"types"`
}

func (c Client) PlacesAutocomplete(input string) (PlacesAutocompleteResponse, error) {
	var autoResp PlacesAutocompleteResponse
	apiURL := fmt.Sprintf("%s/autocomplete/json?input=%s&types=address&key=%s",
		c.placesBase(), url.QueryEscape(input), url.QueryEscape(c.PlacesAPIKey))
	if err := c.placesDo(apiURL, &autoResp); err != nil {
		return autoResp, errors.Wrapf(err, "PlacesAutocomplete: error for input: %s", misc.StringLimit(input, 100))
	}
	if autoResp.Status != "OK" && autoResp.Status != "ZERO_RESULTS" {
		return autoResp, errors.Errorf("PlacesAutocomplete: Places API status: %s", autoResp.Status)
	}
	return autoResp, nil
}

func (c Client) PlaceDetails(placeID string) (PlaceDetailsResponse, error) {
	var details PlaceDetailsResponse
	apiURL := fmt.Sprintf("%s/details/json?place_id=%s&fields=address_components,formatted_address&key=%s",
		c.placesBase(), url.QueryEscape(placeID), url.QueryEscape(c.PlacesAPIKey))
	if err := c.placesDo(apiURL, &details); err != nil {
		return details, errors.Wrapf(err, "PlaceDetails: error for PlaceID: %s", placeID)
	}
	if details.Status == "NOT_FOUND" || details.Status == "ZERO_RESULTS" {
		return details, errors.Wrapf(ErrPlaceNotFound, "PlaceID: %s", placeID)
	}
	if details.Status != "OK" {
		return details, errors.Errorf("PlaceDetails: Places API status: %s for PlaceID: %s", details.Status, placeID)
	}
	return details, nil
}

// Component returns the first address component carrying the given
// type, e.g. "locality" or "postal_code".
func (r PlaceDetailsResponse) Component(componentType string) (AddressComponent, bool) {
	for _, ac := range r.Result.AddressComponents {
		for _, t := range ac.Types {
			if t == componentType {
				return ac, true
			}
		}
	}
	return AddressComponent{}, false
}

func (c Client) placesDo(apiURL string, out any) error {
	req, err := newRequest(http.MethodGet, apiURL, nil)
	if err != nil {
		return errors.Wrap(err, "error creating request")
	}
	resp, err := c.Do(req)
	if err != nil {
		return errors.Wrapf(err, "error doing request: %+v", req)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("placesDo: error closing response body, err: %v", err)
		}
	}()
	body, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 300*1024))
	if err != nil {
		return errors.Wrapf(err, "error reading Places response body, status: %s", resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("Places API error, status: %s, body: %s", resp.Status, misc.BytesLimit(body, 2000))
	}
	return errors.Wrapf(json.Unmarshal(body, out),
		"error unmarshalling Places response body: %s", misc.BytesLimit(body, 2000))
}
