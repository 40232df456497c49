package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lecztomek/furnace-panel/internal/state"
)

// ManualOutputs is the controller's manually-forced output state, valid
// only while the boiler is in MANUAL mode.
type ManualOutputs struct {
	FanPower     int     `json:"fan_power"`
	FeederOn     bool    `json:"feeder_on"`
	PumpCoOn     bool    `json:"pump_co_on"`
	PumpCwuOn    bool    `json:"pump_cwu_on"`
	MixerOpenOn  bool    `json:"mixer_open_on"`
	MixerCloseOn bool    `json:"mixer_close_on"`
	LastUpdateTs float64 `json:"last_update_ts"`
}

// ManualState is the response of GET /manual/current.
type ManualState struct {
	Ts     float64       `json:"ts"`
	Mode   state.Mode    `json:"mode"`
	Manual ManualOutputs `json:"manual"`
}

// ManualPatch is a partial update for POST /manual/outputs. Nil fields are
// left unchanged on the controller.
type ManualPatch struct {
	FanPower     *int  `json:"fan_power,omitempty"`
	FeederOn     *bool `json:"feeder_on,omitempty"`
	PumpCoOn     *bool `json:"pump_co_on,omitempty"`
	PumpCwuOn    *bool `json:"pump_cwu_on,omitempty"`
	MixerOpenOn  *bool `json:"mixer_open_on,omitempty"`
	MixerCloseOn *bool `json:"mixer_close_on,omitempty"`
}

// Validate rejects patches the controller would refuse: fan power outside
// 0-100 and the mixer being driven open and closed at the same time.
func (p *ManualPatch) Validate() error {
	if p.FanPower != nil && (*p.FanPower < 0 || *p.FanPower > 100) {
		return NewValidationError(fmt.Sprintf("fan power must be 0-100, got %d", *p.FanPower))
	}
	if p.MixerOpenOn != nil && p.MixerCloseOn != nil && *p.MixerOpenOn && *p.MixerCloseOn {
		return NewValidationError("mixer open and close cannot both be on")
	}
	return nil
}

// GetManual fetches the current manual-mode output state.
func (c *Client) GetManual(ctx context.Context) (*ManualState, error) {
	body, err := c.get(ctx, "/manual/current")
	if err != nil {
		return nil, err
	}
	var ms ManualState
	if err := json.Unmarshal(body, &ms); err != nil {
		return nil, NewParseError("invalid manual state payload", err)
	}
	return &ms, nil
}

// SetManualOutputs submits a manual output patch. The controller rejects
// the call with HTTP 409 when the boiler is not in MANUAL mode; that comes
// back as a ServerError with the controller's own message.
func (c *Client) SetManualOutputs(ctx context.Context, patch *ManualPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	_, err := c.send(ctx, http.MethodPost, "/manual/outputs", patch)
	return err
}
