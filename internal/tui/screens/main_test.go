package screens

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angristan/hue-classic/internal/api"
	"github.com/angristan/hue-classic/internal/models"
	"github.com/angristan/hue-classic/internal/tui/messages"
)

type sentCommand struct {
	lightID int
	body    string
}

// fakeController records commands and confirms every field it receives
type fakeController struct {
	mu   sync.Mutex
	sent []sentCommand
	err  error
}

func (f *fakeController) GetAllLights(ctx context.Context) ([]models.IdentifiedLight, error) {
	return nil, f.err
}

func (f *fakeController) SetLightState(ctx context.Context, lightID int, cmd models.CommandLight) (*api.StateResult, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.sent = append(f.sent, sentCommand{lightID: lightID, body: string(body)})
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	changes := make(map[string]any)
	if on, ok := cmd.On(); ok {
		changes[fmt.Sprintf("/lights/%d/state/on", lightID)] = on
	}
	if bri, ok := cmd.Bri(); ok {
		changes[fmt.Sprintf("/lights/%d/state/bri", lightID)] = json.Number(fmt.Sprint(bri))
	}
	if hue, ok := cmd.Hue(); ok {
		changes[fmt.Sprintf("/lights/%d/state/hue", lightID)] = json.Number(fmt.Sprint(hue))
	}
	if sat, ok := cmd.Sat(); ok {
		changes[fmt.Sprintf("/lights/%d/state/sat", lightID)] = json.Number(fmt.Sprint(sat))
	}
	return &api.StateResult{Changes: changes}, nil
}

func (f *fakeController) Host() string { return "fake" }

var _ api.LightController = (*fakeController)(nil)

func testLights() []models.IdentifiedLight {
	return []models.IdentifiedLight{
		{ID: 1, Light: models.Light{Name: "Ceiling", State: models.LightState{On: true, Bri: 127, ColorMode: "ct", CT: 366, Reachable: true}}},
		{ID: 2, Light: models.Light{Name: "Desk", State: models.LightState{On: false, Bri: 50, Reachable: true}}},
		{ID: 10, Light: models.Light{Name: "Strip", State: models.LightState{On: true, Bri: 254, Hue: 65000, Sat: 240, ColorMode: "hs", Reachable: true}}},
	}
}

func loadedModel() MainModel {
	m := NewMainModel("fake")
	m.SetSize(100, 30)
	m.SetLights(testLights())
	return m
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runCmd executes cmd and flattens batches into their messages
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func TestMainModel_ToggleSendsOnlyOn(t *testing.T) {
	ctrl := &fakeController{}
	m := loadedModel()

	m, cmd := m.Update(key(" "), ctrl)
	assert.False(t, m.Lights()[0].State.On, "toggle is applied optimistically")

	msgs := runCmd(cmd)
	require.Len(t, ctrl.sent, 1)
	assert.Equal(t, sentCommand{lightID: 1, body: `{"on":false}`}, ctrl.sent[0])

	require.Len(t, msgs, 1)
	setMsg, ok := msgs[0].(messages.LightStateSetMsg)
	require.True(t, ok, "got %T", msgs[0])
	assert.Equal(t, 1, setMsg.LightID)
}

func TestMainModel_BrightenOffLightTurnsItOn(t *testing.T) {
	ctrl := &fakeController{}
	m := loadedModel()

	m, _ = m.Update(key("j"), ctrl)
	m, cmd := m.Update(key("l"), ctrl)
	runCmd(cmd)

	require.Len(t, ctrl.sent, 1)
	assert.Equal(t, `{"on":true,"bri":26}`, ctrl.sent[0].body)
	assert.True(t, m.Lights()[1].State.On)
}

func TestMainModel_DimToZeroTurnsOff(t *testing.T) {
	ctrl := &fakeController{}
	m := loadedModel()
	m.lights[0].State.Bri = 20 // 7%

	m, cmd := m.Update(key("h"), ctrl)
	runCmd(cmd)

	require.Len(t, ctrl.sent, 1)
	assert.Equal(t, `{"on":false}`, ctrl.sent[0].body)
	assert.False(t, m.Lights()[0].State.On)
}

func TestMainModel_HueWrapsAround(t *testing.T) {
	ctrl := &fakeController{}
	m := loadedModel()

	m, _ = m.Update(key("G"), ctrl)
	m, cmd := m.Update(key("]"), ctrl)
	runCmd(cmd)

	require.Len(t, ctrl.sent, 1)
	assert.Equal(t, 10, ctrl.sent[0].lightID)
	assert.Equal(t, `{"hue":3560}`, ctrl.sent[0].body)
	assert.Equal(t, uint16(3560), m.Lights()[2].State.Hue)
}

func TestMainModel_SaturationClamps(t *testing.T) {
	ctrl := &fakeController{}
	m := loadedModel()

	m, _ = m.Update(key("G"), ctrl)
	m, cmd := m.Update(key("="), ctrl)
	runCmd(cmd)

	require.Len(t, ctrl.sent, 1)
	assert.Equal(t, `{"sat":254}`, ctrl.sent[0].body)
}

func TestMainModel_HueIgnoredOnWhiteLight(t *testing.T) {
	ctrl := &fakeController{}
	m := loadedModel()

	m, cmd := m.Update(key("]"), ctrl)
	runCmd(cmd)

	assert.Empty(t, ctrl.sent)
	assert.Contains(t, m.View(), "has no hue/saturation")
}

func TestMainModel_NumberKeySetsLevel(t *testing.T) {
	ctrl := &fakeController{}
	m := loadedModel()

	m, _ = m.Update(key("j"), ctrl)
	_, cmd := m.Update(key("5"), ctrl)
	runCmd(cmd)

	require.Len(t, ctrl.sent, 1)
	assert.Equal(t, `{"on":true,"bri":128}`, ctrl.sent[0].body)
}

func TestMainModel_AppliesConfirmedChanges(t *testing.T) {
	m := loadedModel()

	m, _ = m.Update(messages.LightStateSetMsg{
		LightID: 10,
		Result: &api.StateResult{Changes: map[string]any{
			"/lights/10/state/bri": json.Number("33"),
			"/lights/10/state/on":  false,
			"/lights/10/state/sat": json.Number("oops"),
		}},
	}, nil)

	light := m.Lights()[2]
	assert.Equal(t, uint8(33), light.State.Bri)
	assert.False(t, light.State.On)
	assert.Equal(t, uint8(240), light.State.Sat)
}

func TestMainModel_ApplyEvents(t *testing.T) {
	m := loadedModel()
	m, _ = m.Update(key("G"), nil)

	renamed := testLights()[0].Light
	renamed.Name = "Kitchen"
	added := models.Light{Name: "Porch", State: models.LightState{Reachable: true}}

	m.ApplyEvents([]api.Event{
		{Type: api.EventTypeUpdate, LightID: 1, Light: &renamed},
		{Type: api.EventTypeDelete, LightID: 2},
		{Type: api.EventTypeAdd, LightID: 7, Light: &added},
	})

	lights := m.Lights()
	ids := make([]int, len(lights))
	for i, l := range lights {
		ids[i] = l.ID
	}
	assert.Equal(t, []int{1, 7, 10}, ids)
	assert.Equal(t, "Kitchen", lights[0].Name)

	// Cursor stays on the same light
	require.NotNil(t, m.SelectedLight())
	assert.Equal(t, 10, m.SelectedLight().ID)
}

func TestMainModel_ErrorView(t *testing.T) {
	m := loadedModel()

	m, _ = m.Update(messages.ErrorMsg{Err: fmt.Errorf("light 2: %w", &api.BridgeError{Code: api.ErrorCodeDeviceIsOff})}, nil)
	assert.Contains(t, m.View(), "light is off")

	m, _ = m.Update(messages.ErrorMsg{Err: &api.BridgeError{Code: api.ErrorCodeUnauthorizedUser}}, nil)
	assert.Contains(t, m.View(), "pair again")
}

func TestMainModel_EmptyList(t *testing.T) {
	m := NewMainModel("fake")
	m.SetSize(60, 20)
	m.SetLights(nil)

	assert.Contains(t, m.View(), "No lights found")
	assert.Nil(t, m.SelectedLight())

	// Keys on an empty list are no-ops
	ctrl := &fakeController{}
	m, cmd := m.Update(key(" "), ctrl)
	runCmd(cmd)
	assert.Empty(t, ctrl.sent)
}

func TestBriFromPct(t *testing.T) {
	tests := []struct {
		pct  int
		want uint8
	}{
		{0, 1},
		{10, 26},
		{50, 128},
		{100, 254},
		{150, 254},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, briFromPct(tt.pct), "pct %d", tt.pct)
	}
}

func TestMainModel_View(t *testing.T) {
	view := loadedModel().View()
	for _, name := range []string{"Ceiling", "Desk", "Strip"} {
		assert.True(t, strings.Contains(view, name), "missing %s", name)
	}
	assert.Contains(t, view, "2/3 lights on")
}

func TestMainModel_RepairKey(t *testing.T) {
	ctrl := &fakeController{}
	m := loadedModel()

	_, cmd := m.Update(key("p"), ctrl)

	msgs := runCmd(cmd)
	require.Len(t, msgs, 1)
	assert.IsType(t, messages.ForgetBridgeMsg{}, msgs[0])
	assert.Empty(t, ctrl.sent)
}
