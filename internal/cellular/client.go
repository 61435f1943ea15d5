package cellular

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Client is the environment's view of a cellular network, Dev
// (simulated) or Prod.
type Client interface {
	APList() ([]*AP, error)
	APInfo(apID int) (*AP, error)
	UEList() ([]*UE, error)
	UEInfo(ueID int) (*UE, error)
	UESLA(ueID int) (int, error)
	UESignalPower(ueID int) (float64, error)
	NeighboringAPs(ueID int) ([]int, error)
	PerformHandoff(ueID, apID int) (*HandoffResult, error)
	ResetNetwork() error
}

// DevClient talks REST to the simulated network server
// (cmd/rainman2-server), which must be started separately.
type DevClient struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewDevClient builds a client for the simulated network at baseURL.
func NewDevClient(baseURL string, logger *zap.Logger) *DevClient {
	return &DevClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger.Named("dev-client"),
	}
}

func (c *DevClient) get(path string, out any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("%w: GET %s: %v", ErrExternalServer, path, err)
	}
	defer resp.Body.Close()
	return c.decode(resp, path, out)
}

func (c *DevClient) post(path string, out any) error {
	resp, err := c.http.Post(c.baseURL+path, "application/json", nil)
	if err != nil {
		return fmt.Errorf("%w: POST %s: %v", ErrExternalServer, path, err)
	}
	defer resp.Body.Close()
	return c.decode(resp, path, out)
}

func (c *DevClient) decode(resp *http.Response, path string, out any) error {
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s",
			ErrExternalServer, path, resp.StatusCode, body)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", ErrExternalServer, path, err)
	}
	return nil
}

// APList fetches every AP on the grid.
func (c *DevClient) APList() ([]*AP, error) {
	c.logger.Debug("fetching latest AP list from the network")
	var aps []*AP
	if err := c.get("/ap_list", &aps); err != nil {
		return nil, err
	}
	return aps, nil
}

// APInfo fetches a single AP.
func (c *DevClient) APInfo(apID int) (*AP, error) {
	ap := &AP{}
	if err := c.get(fmt.Sprintf("/ap_info/%d", apID), ap); err != nil {
		return nil, err
	}
	return ap, nil
}

// UEList fetches every UE.
func (c *DevClient) UEList() ([]*UE, error) {
	c.logger.Debug("fetching latest UE list from the network")
	var ues []*UE
	if err := c.get("/ue_list", &ues); err != nil {
		return nil, err
	}
	return ues, nil
}

// UEInfo fetches a single UE.
func (c *DevClient) UEInfo(ueID int) (*UE, error) {
	ue := &UE{}
	if err := c.get(fmt.Sprintf("/ue_info/%d", ueID), ue); err != nil {
		return nil, err
	}
	return ue, nil
}

// UESLA fetches the UE's current SLA outcome.
func (c *DevClient) UESLA(ueID int) (int, error) {
	var payload struct {
		SLA int `json:"sla"`
	}
	if err := c.get(fmt.Sprintf("/ue_sla/%d", ueID), &payload); err != nil {
		return 0, err
	}
	return payload.SLA, nil
}

// UESignalPower fetches the UE's signal power toward its current AP.
func (c *DevClient) UESignalPower(ueID int) (float64, error) {
	var payload struct {
		SignalPower float64 `json:"signal_power"`
	}
	if err := c.get(fmt.Sprintf("/ue_signal_power/%d", ueID), &payload); err != nil {
		return 0, err
	}
	return payload.SignalPower, nil
}

// NeighboringAPs fetches the ids of APs the UE could hand off to.
func (c *DevClient) NeighboringAPs(ueID int) ([]int, error) {
	var payload struct {
		NeighboringAPs []int `json:"neighboring_aps"`
	}
	if err := c.get(fmt.Sprintf("/neighboring_aps/%d", ueID), &payload); err != nil {
		return nil, err
	}
	return payload.NeighboringAPs, nil
}

// PerformHandoff asks the network to move the UE to the given AP.
func (c *DevClient) PerformHandoff(ueID, apID int) (*HandoffResult, error) {
	c.logger.Debug("requesting handoff",
		zap.Int("ue_id", ueID), zap.Int("ap_id", apID))
	result := &HandoffResult{}
	if err := c.post(fmt.Sprintf("/handoff/%d/%d", ueID, apID), result); err != nil {
		return nil, err
	}
	return result, nil
}

// ResetNetwork re-initializes the simulated network.
func (c *DevClient) ResetNetwork() error {
	return c.get("/reset_network", nil)
}

// NewProdClient would build a client for a real cellular network.
// There is no production integration yet, matching upstream.
func NewProdClient(string, *zap.Logger) (Client, error) {
	return nil, fmt.Errorf("%w: Prod cellular client", ErrClientNotImplemented)
}
