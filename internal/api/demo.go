package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/amimof/huego"

	"github.com/angristan/hue-classic/internal/models"
)

// DemoUsername is registered on every DemoBridge
const DemoUsername = "demo-user-0000000000"

// DemoBridge emulates the bridge's /api endpoints in memory. It backs demo
// mode and the package tests.
type DemoBridge struct {
	mu     sync.Mutex
	lights map[int]*huego.Light
	users  map[string]string // username -> devicetype

	linkButton bool
	pressAfter int // registration attempts left before the button counts as pressed
	mux        *http.ServeMux
}

// demoLight is the wire form of a stored light. huego drops zero values
// with omitempty, the bridge always sends every key but ct.
type demoLight struct {
	Name             string            `json:"name"`
	Type             string            `json:"type"`
	ModelID          string            `json:"modelid"`
	ManufacturerName string            `json:"manufacturername"`
	UniqueID         string            `json:"uniqueid"`
	SwVersion        string            `json:"swversion"`
	State            demoState         `json:"state"`
	PointSymbol      map[string]string `json:"pointsymbol"`
}

type demoState struct {
	On        bool       `json:"on"`
	Bri       uint8      `json:"bri"`
	Hue       uint16     `json:"hue"`
	Sat       uint8      `json:"sat"`
	Effect    string     `json:"effect"`
	XY        [2]float32 `json:"xy"`
	CT        uint16     `json:"ct,omitempty"`
	Alert     string     `json:"alert"`
	ColorMode string     `json:"colormode"`
	Reachable bool       `json:"reachable"`
}

func newDemoLight(l *huego.Light) demoLight {
	st := l.State
	state := demoState{
		On: st.On, Bri: st.Bri, Hue: st.Hue, Sat: st.Sat,
		Effect: st.Effect, CT: st.Ct, Alert: st.Alert,
		ColorMode: st.ColorMode, Reachable: st.Reachable,
	}
	if state.Effect == "" {
		state.Effect = "none"
	}
	if state.Alert == "" {
		state.Alert = "none"
	}
	copy(state.XY[:], st.Xy)

	return demoLight{
		Name:             l.Name,
		Type:             l.Type,
		ModelID:          l.ModelID,
		ManufacturerName: l.ManufacturerName,
		UniqueID:         l.UniqueID,
		SwVersion:        l.SwVersion,
		State:            state,
		PointSymbol:      map[string]string{"1": "none", "2": "none"},
	}
}

// NewDemoBridge creates a demo bridge with sample lights and DemoUsername
// registered. Ids deliberately skip numbers, like a bridge that had lights
// removed.
func NewDemoBridge() *DemoBridge {
	d := &DemoBridge{
		lights: make(map[int]*huego.Light),
		users:  map[string]string{DemoUsername: "hue-classic#demo"},
	}

	d.lights[1] = &huego.Light{
		Name:             "Living Room Ceiling",
		Type:             "Extended color light",
		ModelID:          "LCT015",
		ManufacturerName: "Signify Netherlands B.V.",
		UniqueID:         "00:17:88:01:04:1a:2b:01-0b",
		SwVersion:        "1.88.1",
		State: &huego.State{
			On: true, Bri: 200, Hue: 8402, Sat: 140,
			Xy: []float32{0.4573, 0.41}, Ct: 366,
			Alert: "none", Effect: "none", ColorMode: "ct", Reachable: true,
		},
	}
	d.lights[2] = &huego.Light{
		Name:             "Desk Lamp",
		Type:             "Color temperature light",
		ModelID:          "LTW001",
		ManufacturerName: "Signify Netherlands B.V.",
		UniqueID:         "00:17:88:01:04:1a:2b:02-0b",
		SwVersion:        "1.88.1",
		State: &huego.State{
			On: false, Bri: 120, Ct: 250,
			Alert: "none", ColorMode: "ct", Reachable: true,
		},
	}
	d.lights[3] = &huego.Light{
		Name:             "Hallway",
		Type:             "Dimmable light",
		ModelID:          "LWB010",
		ManufacturerName: "Signify Netherlands B.V.",
		UniqueID:         "00:17:88:01:04:1a:2b:03-0b",
		SwVersion:        "1.50.2",
		State: &huego.State{
			On: true, Bri: 64,
			Alert: "none", Reachable: true,
		},
	}
	d.lights[10] = &huego.Light{
		Name:             "Bedroom Strip",
		Type:             "Extended color light",
		ModelID:          "LST002",
		ManufacturerName: "Signify Netherlands B.V.",
		UniqueID:         "00:17:88:01:04:1a:2b:0a-0b",
		SwVersion:        "1.88.1",
		State: &huego.State{
			On: true, Bri: 254, Hue: 46920, Sat: 254,
			Xy:    []float32{0.167, 0.04},
			Alert: "none", Effect: "none", ColorMode: "hs", Reachable: true,
		},
	}

	d.mux = http.NewServeMux()
	d.mux.HandleFunc("POST /api", d.handleRegister)
	d.mux.HandleFunc("GET /api/{user}/lights", d.handleGetLights)
	d.mux.HandleFunc("PUT /api/{user}/lights/{id}/state", d.handleSetState)

	return d
}

// Start serves the demo bridge on a loopback port. Close the returned
// server when done.
func (d *DemoBridge) Start() *httptest.Server {
	return httptest.NewServer(d)
}

// HostOf returns the host:port a Bridge needs to reach srv
func HostOf(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

// ServeHTTP implements http.Handler
func (d *DemoBridge) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mux.ServeHTTP(w, r)
}

// PressLinkButton opens the registration window
func (d *DemoBridge) PressLinkButton() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.linkButton = true
}

// PressLinkButtonAfter makes the next n registration attempts fail with
// ErrorCodeLinkButtonNotPressed and opens the window afterwards
func (d *DemoBridge) PressLinkButtonAfter(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.linkButton = false
	d.pressAfter = n
}

// HasUser reports whether username is registered
func (d *DemoBridge) HasUser(username string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.users[username]
	return ok
}

// LightState returns the current state of light id
func (d *DemoBridge) LightState(id int) (huego.State, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	light, ok := d.lights[id]
	if !ok {
		return huego.State{}, false
	}
	return *light.State, true
}

type demoResult map[string]any

func demoError(code int, address, description string) demoResult {
	return demoResult{"error": map[string]any{
		"type":        code,
		"address":     address,
		"description": description,
	}}
}

func demoSuccess(key string, value any) demoResult {
	return demoResult{"success": map[string]any{key: value}}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (d *DemoBridge) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, []demoResult{demoError(ErrorCodeInvalidJSON, "", "body contains invalid json")})
		return
	}
	if n := len(req.Username); n < MinUsernameLength || n > MaxUsernameLength {
		writeJSON(w, []demoResult{demoError(ErrorCodeInvalidValue, "/username",
			fmt.Sprintf("invalid value, %s, for parameter, username", req.Username))})
		return
	}

	d.mu.Lock()
	pressed := d.linkButton
	if !pressed && d.pressAfter > 0 {
		// this attempt still fails; the window opens for the next one
		d.pressAfter--
		d.linkButton = d.pressAfter == 0
	}
	if pressed {
		d.users[req.Username] = req.DeviceType
	}
	d.mu.Unlock()

	if !pressed {
		writeJSON(w, []demoResult{demoError(ErrorCodeLinkButtonNotPressed, "", "link button not pressed")})
		return
	}
	writeJSON(w, []demoResult{demoSuccess("username", req.Username)})
}

func (d *DemoBridge) authorized(w http.ResponseWriter, r *http.Request, address string) bool {
	d.mu.Lock()
	_, ok := d.users[r.PathValue("user")]
	d.mu.Unlock()

	if !ok {
		writeJSON(w, []demoResult{demoError(ErrorCodeUnauthorizedUser, address, "unauthorized user")})
	}
	return ok
}

func (d *DemoBridge) handleGetLights(w http.ResponseWriter, r *http.Request) {
	if !d.authorized(w, r, "/lights") {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	lights := make(map[string]demoLight, len(d.lights))
	for id, light := range d.lights {
		lights[strconv.Itoa(id)] = newDemoLight(light)
	}
	writeJSON(w, lights)
}

func (d *DemoBridge) handleSetState(w http.ResponseWriter, r *http.Request) {
	address := fmt.Sprintf("/lights/%s/state", r.PathValue("id"))
	if !d.authorized(w, r, address) {
		return
	}

	id, err := strconv.Atoi(r.PathValue("id"))
	d.mu.Lock()
	defer d.mu.Unlock()

	light, ok := d.lights[id]
	if err != nil || !ok {
		writeJSON(w, []demoResult{demoError(ErrorCodeResourceNotAvailable,
			"/lights/"+r.PathValue("id"), fmt.Sprintf("resource, /lights/%s, not available", r.PathValue("id")))})
		return
	}

	var cmd models.CommandLight
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		writeJSON(w, []demoResult{demoError(ErrorCodeInvalidJSON, address, "body contains invalid json")})
		return
	}
	if cmd.IsEmpty() {
		writeJSON(w, []demoResult{demoError(ErrorCodeMissingParameters, address, "invalid/missing parameters in body")})
		return
	}

	writeJSON(w, applyDemoCommand(light.State, address, cmd))
}

// applyDemoCommand mutates state and builds the per-field result array.
// Color and brightness changes are refused while the light stays off.
func applyDemoCommand(state *huego.State, address string, cmd models.CommandLight) []demoResult {
	var results []demoResult

	if on, ok := cmd.On(); ok {
		state.On = on
		results = append(results, demoSuccess(address+"/on", on))
	}

	offError := func(param string) demoResult {
		return demoError(ErrorCodeDeviceIsOff, address+"/"+param,
			fmt.Sprintf("parameter, %s, is not modifiable. Device is set to off.", param))
	}

	if bri, ok := cmd.Bri(); ok {
		if state.On {
			state.Bri = bri
			results = append(results, demoSuccess(address+"/bri", bri))
		} else {
			results = append(results, offError("bri"))
		}
	}
	if hue, ok := cmd.Hue(); ok {
		if state.On {
			state.Hue = hue
			state.ColorMode = "hs"
			results = append(results, demoSuccess(address+"/hue", hue))
		} else {
			results = append(results, offError("hue"))
		}
	}
	if sat, ok := cmd.Sat(); ok {
		if state.On {
			state.Sat = sat
			state.ColorMode = "hs"
			results = append(results, demoSuccess(address+"/sat", sat))
		} else {
			results = append(results, offError("sat"))
		}
	}
	if tt, ok := cmd.TransitionTime(); ok {
		results = append(results, demoSuccess(address+"/transitiontime", tt))
	}

	return results
}
