package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"healthsync/internal/misc"

	"github.com/go-redis/redis/v9"
	"github.com/pkg/errors"
)

const terraBaseURL = "https://api.tryterra.co/v2"

var ErrTerraUserNotFound = errors.New("Terra user not found")

type TerraDailyResponse struct {
	Status string           `json:"status"`
	User   TerraUser        `json:"user"`
	Data   []TerraDailyData `json:"data"`
}

type TerraUser struct {
	UserID   string `json:"user_id"`
	Provider string `json:"provider"`
}

type TerraDailyData struct {
	Metadata struct {
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
	} `json:"metadata"`
	DistanceData struct {
		Steps          int     `json:"steps"`
		DistanceMetres float64 `json:"distance_metres"`
	} `json:"distance_data"`
	CaloriesData struct {
		TotalBurnedCalories float64 `json:"total_burned_calories"`
	} `json:"calories_data"`
	ActiveDurationsData struct {
		ActivitySeconds float64 `json:"activity_seconds"`
	} `json:"active_durations_data"`
	HeartRateData struct {
		Summary struct {
			AvgHRBPM float64 `json:"avg_hr_bpm"`
		} `json:"summary"`
	} `json:"heart_rate_data"`
}

type TerraBodyResponse struct {
	Status string `json:"status"`
	Data   []struct {
		MeasurementsData struct {
			Measurements []struct {
				WeightKG        float64 `json:"weight_kg"`
				BPSystolicMMHG  float64 `json:"systolic_bp_mmhg"`
				BPDiastolicMMHG float64 `json:"diastolic_bp_mmhg"`
				MeasurementTime string  `json:"measurement_time"`
			} `json:"measurements"`
		} `json:"measurements_data"`
	} `json:"data"`
}

type TerraSleepResponse struct {
	Status string `json:"status"`
	Data   []struct {
		SleepDurationsData struct {
			Asleep struct {
				DurationAsleepStateSeconds float64 `json:"duration_asleep_state_seconds"`
			} `json:"asleep"`
		} `json:"sleep_durations_data"`
	} `json:"data"`
}

type TerraAuthURLResponse struct {
	Status    string `json:"status"`
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// TerraDailyGet pulls daily activity for a Terra user over a date
// range. Results for a finished day never change, so responses are
// cached in Redis when a cache is configured.
func (c Client) TerraDailyGet(terraUserID string, start time.Time, end time.Time, useCache bool) (TerraDailyResponse, error) {
	ctx := context.TODO()
	var daily TerraDailyResponse

	apiURL := fmt.Sprintf("%s/daily?user_id=%s&start_date=%s&end_date=%s&to_webhook=false",
		c.terraBase(), url.QueryEscape(terraUserID), start.Format("2006-01-02"), end.Format("2006-01-02"))
	cacheKey := "TDG-" + apiURL
	if useCache && c.Redis != nil {
		cached, err := c.Redis.Get(ctx, cacheKey).Result()
		if err == nil {
			c.Logger.Infof("TerraDailyGet: Cache found, key: %s", cacheKey)
			if err = json.Unmarshal([]byte(cached), &daily); err == nil {
				return daily, nil
			}
			c.Logger.Errorf("TerraDailyGet: Error unmarshalling cache, key: %s, err: %v", cacheKey, err)
		} else if err != redis.Nil {
			c.Logger.Errorf("TerraDailyGet: Error getting Redis cache with key: %s, err: %v", cacheKey, err)
		}
	}

	body, status, err := c.terraDo(apiURL)
	if err != nil {
		return daily, err
	}
	if status == http.StatusNotFound {
		return daily, errors.Wrapf(ErrTerraUserNotFound, "TerraUserID: %s", terraUserID)
	}
	if err = json.Unmarshal(body, &daily); err != nil {
		return daily, errors.Wrapf(err, "error unmarshalling TerraDailyAPI response body: %s", misc.BytesLimit(body, 2000))
	}

	if useCache && c.Redis != nil {
		if err = c.Redis.Set(ctx, cacheKey, string(body), 6*time.Hour).Err(); err != nil {
			c.Logger.Errorf("TerraDailyGet: Error setting Redis cache with key: %s, err: %v", cacheKey, err)
		}
	}
	return daily, nil
}

func (c Client) TerraBodyGet(terraUserID string, start time.Time, end time.Time) (TerraBodyResponse, error) {
	var bodyResp TerraBodyResponse
	apiURL := fmt.Sprintf("%s/body?user_id=%s&start_date=%s&end_date=%s&to_webhook=false",
		c.terraBase(), url.QueryEscape(terraUserID), start.Format("2006-01-02"), end.Format("2006-01-02"))
	body, status, err := c.terraDo(apiURL)
	if err != nil {
		return bodyResp, err
	}
	if status == http.StatusNotFound {
		return bodyResp, errors.Wrapf(ErrTerraUserNotFound, "TerraUserID: %s", terraUserID)
	}
	err = json.Unmarshal(body, &bodyResp)
	return bodyResp, errors.Wrapf(err, "error unmarshalling TerraBodyAPI response body: %s", misc.BytesLimit(body, 2000))
}

func (c Client) TerraSleepGet(terraUserID string, start time.Time, end time.Time) (TerraSleepResponse, error) {
	var sleep TerraSleepResponse
	apiURL := fmt.Sprintf("%s/sleep?user_id=%s&start_date=%s&end_date=%s&to_webhook=false",
		c.terraBase(), url.QueryEscape(terraUserID), start.Format("2006-01-02"), end.Format("2006-01-02"))
	body, status, err := c.terraDo(apiURL)
	if err != nil {
		return sleep, err
	}
	if status == http.StatusNotFound {
		return sleep, errors.Wrapf(ErrTerraUserNotFound, "TerraUserID: %s", terraUserID)
	}
	err = json.Unmarshal(body, &sleep)
	return sleep, errors.Wrapf(err, "error unmarshalling TerraSleepAPI response body: %s", misc.BytesLimit(body, 2000))
}

// TerraAuthURLGenerate creates a widget session the app opens so the
// user can link a wearable provider.
func (c Client) TerraAuthURLGenerate(referenceID string) (TerraAuthURLResponse, error) {
	var authResp TerraAuthURLResponse
	apiURL := c.terraBase() + "/auth/generateWidgetSession"
	reqBody := fmt.Sprintf(`{"reference_id":%q,"language":"en"}`, referenceID)

	req, err := newRequest(http.MethodPost, apiURL, strings.NewReader(reqBody))
	if err != nil {
		return authResp, errors.Wrapf(err, "error creating request to URL: %s", apiURL)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setTerraHeaders(req)

	resp, err := c.Do(req)
	if err != nil {
		return authResp, errors.Wrapf(err, "error doing request: %+v", req)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("TerraAuthURLGenerate: error closing response body, err: %v", err)
		}
	}()
	body, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 300*1024))
	if err != nil {
		return authResp, errors.Wrapf(err, "error reading TerraWidgetAPI response body, status: %s", resp.Status)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return authResp, errors.Errorf("TerraWidgetAPI error, status: %s, body: %s", resp.Status, misc.BytesLimit(body, 2000))
	}
	err = json.Unmarshal(body, &authResp)
	return authResp, errors.Wrapf(err, "error unmarshalling TerraWidgetAPI response body: %s", misc.BytesLimit(body, 2000))
}

func (c Client) terraDo(apiURL string) ([]byte, int, error) {
	req, err := newRequest(http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "error creating request to URL: %s", apiURL)
	}
	c.setTerraHeaders(req)

	resp, err := c.Do(req)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "error doing request: %+v", req)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.Logger.Errorf("terraDo: error closing response body, url: %s, err: %v", apiURL, err)
		}
	}()
	body, err := io.ReadAll(http.MaxBytesReader(nil, resp.Body, 300*1024))
	if err != nil {
		return nil, resp.StatusCode, errors.Wrapf(err, "error reading Terra response body, url: %s, status: %s", apiURL, resp.Status)
	}
	if resp.StatusCode != http.StatusNotFound && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return nil, resp.StatusCode, errors.Errorf("Terra API error, url: %s, status: %s, body: %s",
			apiURL, resp.Status, misc.BytesLimit(body, 2000))
	}
	return body, resp.StatusCode, nil
}

func (c Client) setTerraHeaders(req *http.Request) {
	req.Header.Set("dev-id", c.TerraDevID)
	req.Header.Set("x-api-key", c.TerraAPIKey)
}
